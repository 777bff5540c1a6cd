package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/PatentSentinel/internal/domain/analysis"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// defaultResultTTL caps cache residency when no TTL is configured.
const defaultResultTTL = 15 * time.Minute

// ResultCache keeps the latest analysis result per document in Redis so the
// read path can skip PostgreSQL for recently analyzed documents.
type ResultCache struct {
	client *Client
	ttl    time.Duration
	log    logging.Logger
}

// NewResultCache constructs a ResultCache using the client's configured TTL.
func NewResultCache(client *Client, log logging.Logger) *ResultCache {
	ttl := client.cfg.DefaultTTL
	if ttl <= 0 {
		ttl = defaultResultTTL
	}
	return &ResultCache{client: client, ttl: ttl, log: log}
}

func (c *ResultCache) key(documentID uuid.UUID) string {
	return c.client.Key("result:latest:" + documentID.String())
}

// Put stores the result as the document's latest.  Cache write failures are
// logged, not returned: the result is already durable in PostgreSQL.
func (c *ResultCache) Put(ctx context.Context, res *analysis.Result) {
	payload, err := json.Marshal(res)
	if err != nil {
		c.log.Warn("failed to encode result for cache", logging.Err(err))
		return
	}
	if err := c.client.rdb.Set(ctx, c.key(res.DocumentID), payload, c.ttl).Err(); err != nil {
		c.log.Warn("failed to cache analysis result",
			logging.String("document_id", res.DocumentID.String()), logging.Err(err))
	}
}

// GetLatest returns the cached latest result, or (nil, nil) on a miss.
func (c *ResultCache) GetLatest(ctx context.Context, documentID uuid.UUID) (*analysis.Result, error) {
	payload, err := c.client.rdb.Get(ctx, c.key(documentID)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorage, "result cache read failed")
	}
	var res analysis.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		// A corrupt entry is dropped so the next read repopulates it.
		_ = c.client.rdb.Del(ctx, c.key(documentID)).Err()
		return nil, nil
	}
	return &res, nil
}

// Invalidate drops the document's cached result.
func (c *ResultCache) Invalidate(ctx context.Context, documentID uuid.UUID) {
	if err := c.client.rdb.Del(ctx, c.key(documentID)).Err(); err != nil {
		c.log.Warn("failed to invalidate cached result",
			logging.String("document_id", documentID.String()), logging.Err(err))
	}
}
