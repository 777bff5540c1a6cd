// Package document implements the application service for monitored-document
// management: submission, retrieval and listing.  Analysis orchestration
// lives in the analysis application package.
package document

import (
	"context"

	"github.com/google/uuid"

	"github.com/turtacn/PatentSentinel/internal/domain/document"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// maxListLimit caps a single listing page.
const maxListLimit = 100

// Service exposes document use cases to the interface layer.
type Service struct {
	repo document.Repository
	log  logging.Logger
}

// NewService constructs a document Service.
func NewService(repo document.Repository, log logging.Logger) *Service {
	return &Service{repo: repo, log: log.Named("document")}
}

// Create validates and stores a new document in the submitted state.
func (s *Service) Create(ctx context.Context, fields document.Fields) (*document.Document, error) {
	doc, err := document.New(fields)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.log.Info("document submitted",
		logging.String("document_id", doc.ID.String()),
		logging.String("title", doc.Title))
	return doc, nil
}

// Get returns one document by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*document.Document, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns documents matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter document.ListFilter) ([]*document.Document, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, errors.Newf(errors.ErrCodeValidation, "unknown document status %q", filter.Status)
	}
	if filter.Limit <= 0 || filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	return s.repo.List(ctx, filter)
}
