package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventDeduper remembers webhook event ids so a redelivered event is
// processed once.  A nil client disables it and every event is new.
type EventDeduper struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewEventDeduper(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *EventDeduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &EventDeduper{rdb: rdb, prefix: "spabot:event", ttl: ttl, log: log}
}

// FirstSeen claims id and reports whether this is its first delivery.  An
// empty id or a redis failure counts as first seen.
func (d *EventDeduper) FirstSeen(ctx context.Context, id string) bool {
	if d == nil || d.rdb == nil || id == "" {
		return true
	}
	ok, err := d.rdb.SetNX(ctx, d.prefix+":"+id, 1, d.ttl).Result()
	if err != nil {
		d.log.Warn("event dedup: redis error", zap.String("event_id", id), zap.Error(err))
		return true
	}
	return ok
}
