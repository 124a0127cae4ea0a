// internal/common/messaging/dedupe.go
package messaging

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// DedupeStore remembers delivered message ids so broker redeliveries after a
// consumer restart do not re-run a multi-hour test suite.
type DedupeStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDedupeStore(client *redis.Client, ttl time.Duration) *DedupeStore {
	return &DedupeStore{client: client, ttl: ttl}
}

// Seen marks messageID as delivered and reports whether it had been marked
// before. A messageID that was never seen is marked atomically so two
// concurrent deliveries of the same id race to exactly one run.
func (d *DedupeStore) Seen(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	set, err := d.client.SetNX(ctx, "delivery:"+messageID, 1, d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
