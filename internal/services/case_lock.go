package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// CaseLocker serializes adjudication runs per case id. A held lock means a
// run is already in flight; a second submission must not start a second
// independent scoring run.
type CaseLocker interface {
	// Acquire returns a release func on success, or false when the lock
	// is already held by another run.
	Acquire(ctx context.Context, caseID string) (release func(), acquired bool, err error)
}

// RedisCaseLocker implements the advisory lock with SET NX plus a TTL, so
// a crashed worker cannot wedge a case forever. Release is token-checked
// to avoid deleting a lock that expired and was re-acquired elsewhere.
type RedisCaseLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCaseLocker(client *redis.Client, ttl time.Duration) *RedisCaseLocker {
	return &RedisCaseLocker{client: client, ttl: ttl}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisCaseLocker) Acquire(ctx context.Context, caseID string) (func(), bool, error) {
	key := fmt.Sprintf("adjudication:case-lock:%s", caseID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire case lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		// best effort; the TTL is the backstop
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = releaseScript.Run(relCtx, l.client, []string{key}, token).Err()
	}
	return release, true, nil
}
