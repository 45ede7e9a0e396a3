package appointments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey holds the calendar document.
const DefaultRedisKey = "calendar:appointments"

// RedisPersister stores the calendar as one JSON document.
type RedisPersister struct {
	redis *redis.Client
	key   string
}

// NewRedisPersister creates a persister writing to key (DefaultRedisKey when empty).
func NewRedisPersister(client *redis.Client, key string) *RedisPersister {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisPersister{redis: client, key: key}
}

// Load decodes the calendar document. A missing key is an empty calendar.
func (r *RedisPersister) Load(ctx context.Context) ([]Appointment, error) {
	data, err := r.redis.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: redis get: %w", err)
	}
	var appts []Appointment
	if err := json.Unmarshal(data, &appts); err != nil {
		return nil, fmt.Errorf("appointments: unmarshal calendar: %w", err)
	}
	return appts, nil
}

// Save overwrites the calendar document with appts as JSON.
func (r *RedisPersister) Save(ctx context.Context, appts []Appointment) error {
	if appts == nil {
		appts = []Appointment{}
	}
	data, err := json.Marshal(appts)
	if err != nil {
		return fmt.Errorf("appointments: marshal calendar: %w", err)
	}
	if err := r.redis.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("appointments: redis set: %w", err)
	}
	return nil
}
