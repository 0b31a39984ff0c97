// Package slotlock holds a short Redis lease per resource while a booking is
// checked and written. It narrows the check-then-insert window; the database
// remains the final arbiter.
package slotlock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrResourceBusy is returned when the lease could not be taken within the
// wait budget. Callers may retry.
var ErrResourceBusy = errors.New("resource is busy, retry shortly")

// releaseScript deletes the key only if it still carries our token, so an
// expired lease taken over by another request is never removed.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

type client interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

type Locker struct {
	client client
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
}

func New(rdb *redis.Client, ttl, wait time.Duration) *Locker {
	return newLocker(rdb, ttl, wait)
}

func newLocker(c client, ttl, wait time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if wait < 0 {
		wait = 0
	}
	return &Locker{client: c, ttl: ttl, wait: wait, retry: 50 * time.Millisecond}
}

func key(resourceID int64) string {
	return fmt.Sprintf("lock:resource:%d", resourceID)
}

// Lock takes the lease for resourceID, retrying until the wait budget or ctx
// runs out. The returned func releases it.
func (l *Locker) Lock(ctx context.Context, resourceID int64) (func(), error) {
	k := key(resourceID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire slot lock: %w", err)
		}
		if ok {
			return func() { l.release(k, token) }, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrResourceBusy
		}

		t := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (l *Locker) release(k, token string) {
	// The request context may already be cancelled; the lease still has to go.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.client.Eval(ctx, releaseScript, []string{k}, token).Err(); err != nil {
		log.Printf("slot_lock_release_failed key=%s error=%v", k, err)
	}
}
