package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/srgjo27/snapbook/internal/core/domain"
)

const dayLayout = "2006-01-02"

// SlotCache keeps computed free slots in one hash per photographer and
// generation, one field per day. Invalidate bumps the generation counter,
// so every cached day goes stale at once and a late write from a reader
// that started before the change lands in a hash nobody reads. Old hashes
// expire with the TTL.
type SlotCache struct {
	client goredis.Cmdable
	ttl    time.Duration
	logger *log.Logger
}

func NewSlotCache(client goredis.Cmdable, ttl time.Duration, logger *log.Logger) *SlotCache {
	return &SlotCache{client: client, ttl: ttl, logger: logger}
}

func GenerationKey(photographerID uuid.UUID) string {
	return fmt.Sprintf("slots:gen:%s", photographerID.String())
}

func SlotsKey(photographerID uuid.UUID, generation int64) string {
	return fmt.Sprintf("slots:%s:%d", photographerID.String(), generation)
}

func (c *SlotCache) Get(ctx context.Context, photographerID uuid.UUID, day time.Time) ([]domain.TimeSlot, int64, bool) {
	gen, err := c.client.Get(ctx, GenerationKey(photographerID)).Int64()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Printf("[cache] slot generation read failed for %s: %v", photographerID, err)
			return nil, -1, false
		}
		gen = 0
	}

	raw, err := c.client.HGet(ctx, SlotsKey(photographerID, gen), day.Format(dayLayout)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Printf("[cache] slot read failed for %s: %v", photographerID, err)
		}
		return nil, gen, false
	}

	var slots []domain.TimeSlot
	if err := json.Unmarshal(raw, &slots); err != nil {
		return nil, gen, false
	}
	return slots, gen, true
}

func (c *SlotCache) Set(ctx context.Context, photographerID uuid.UUID, day time.Time, generation int64, slots []domain.TimeSlot) {
	if generation < 0 {
		return
	}
	data, err := json.Marshal(slots)
	if err != nil {
		return
	}
	key := SlotsKey(photographerID, generation)
	if err := c.client.HSet(ctx, key, day.Format(dayLayout), data).Err(); err != nil {
		c.logger.Printf("[cache] slot write failed for %s: %v", photographerID, err)
		return
	}
	c.client.Expire(ctx, key, c.ttl)
}

func (c *SlotCache) Invalidate(ctx context.Context, photographerID uuid.UUID) {
	if err := c.client.Incr(ctx, GenerationKey(photographerID)).Err(); err != nil {
		c.logger.Printf("[cache] slot invalidation failed for %s: %v", photographerID, err)
	}
}
