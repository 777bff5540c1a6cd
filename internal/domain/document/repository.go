package document

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows List queries.  Zero values mean "no constraint".
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

// Repository defines the persistence contract for the document context.
// Implementations must translate driver errors into pkg/errors codes:
// ErrCodeDocumentNotFound for missing rows, ErrCodeStorage for everything
// else.
type Repository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, id uuid.UUID) (*Document, error)
	Update(ctx context.Context, d *Document) error
	List(ctx context.Context, filter ListFilter) ([]*Document, error)

	// ClaimForAnalysis atomically moves the document into the analyzing state
	// if and only if its current status permits it.  It returns
	// ErrCodeDocumentStatusInvalid when the document is already being
	// analyzed, making it safe to call from concurrent submitters.
	ClaimForAnalysis(ctx context.Context, id uuid.UUID) error

	// ReleaseAnalysis undoes a claim that never produced a job: it moves the
	// document from analyzing back to prior with a conditional update.  A
	// document no longer in the analyzing state is left untouched.
	ReleaseAnalysis(ctx context.Context, id uuid.UUID, prior Status) error

	// SetStatus unconditionally records a terminal analysis outcome
	// (analyzed or analysis_failed) for the document.
	SetStatus(ctx context.Context, id uuid.UUID, status Status) error
}
