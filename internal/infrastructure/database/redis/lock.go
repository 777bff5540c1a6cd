package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// unlockScript deletes the lock only when the caller still owns it, so a
// worker that overran its TTL cannot release a lock another worker now holds.
var unlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// extendScript refreshes the TTL only for the current owner.
var extendScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("PEXPIRE", KEYS[1], ARGV[2])
	else
		return 0
	end
`)

// Mutex is a single-owner distributed lock built on SET NX.  The recovery
// sweep takes one so only a single worker instance scans for stale jobs at a
// time.
type Mutex struct {
	client *Client
	name   string
	value  string
	ttl    time.Duration
	log    logging.Logger
}

// NewMutex constructs a mutex with a fresh owner token.
func NewMutex(client *Client, name string, ttl time.Duration, log logging.Logger) *Mutex {
	return &Mutex{
		client: client,
		name:   name,
		value:  uuid.NewString(),
		ttl:    ttl,
		log:    log,
	}
}

func (m *Mutex) key() string {
	return m.client.Key("lock:" + m.name)
}

// TryLock attempts to acquire the lock without blocking.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.rdb.SetNX(ctx, m.key(), m.value, m.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStorage, "lock acquisition failed")
	}
	return ok, nil
}

// Unlock releases the lock if this mutex still owns it.
func (m *Mutex) Unlock(ctx context.Context) error {
	deleted, err := unlockScript.Run(ctx, m.client.rdb, []string{m.key()}, m.value).Int()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "lock release failed")
	}
	if deleted == 0 {
		m.log.Warn("lock was not held at release", logging.String("lock", m.name))
	}
	return nil
}

// Extend refreshes the TTL for the current owner.  Returns false when the
// lock has been lost.
func (m *Mutex) Extend(ctx context.Context, ttl time.Duration) (bool, error) {
	ok, err := extendScript.Run(ctx, m.client.rdb, []string{m.key()}, m.value, ttl.Milliseconds()).Int()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeStorage, "lock extension failed")
	}
	return ok == 1, nil
}
