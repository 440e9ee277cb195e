package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rotafacil/fleet-engine/internal/core/domain"
)

const (
	historyKeyPrefix = "fleet:positions:"
	seenKeyPrefix    = "fleet:posseen:"
	seenTTL          = 10 * time.Minute
)

// PositionStore keeps a bounded, newest-first position history per driver in
// a Redis list and deduplicates repeated samples with short-lived marker keys.
type PositionStore struct {
	client  *redis.Client
	limit   int
	timeout time.Duration
}

func NewPositionStore(client *redis.Client, historyLimit int) *PositionStore {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &PositionStore{client: client, limit: historyLimit, timeout: defaultTimeout}
}

func historyKey(driverID string) string {
	return historyKeyPrefix + driverID
}

func seenKey(p *domain.Position) string {
	return fmt.Sprintf("%s%s:%.6f:%.6f:%d",
		seenKeyPrefix, p.DriverID, p.Coordinates.Lat, p.Coordinates.Lng, p.Timestamp.Unix())
}

// Push prepends the position to the driver's history and trims it to the
// configured limit.
func (s *PositionStore) Push(ctx context.Context, p *domain.Position) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}

	key := historyKey(p.DriverID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(s.limit-1))
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns up to limit positions, newest first. A non-positive limit
// falls back to the store's history limit.
func (s *PositionStore) Recent(ctx context.Context, driverID string, limit int) ([]*domain.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	raw, err := s.client.LRange(ctx, historyKey(driverID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	positions := make([]*domain.Position, 0, len(raw))
	for _, item := range raw {
		var p domain.Position
		if err := json.Unmarshal([]byte(item), &p); err != nil {
			return nil, fmt.Errorf("unmarshal position: %w", err)
		}
		positions = append(positions, &p)
	}
	return positions, nil
}

// Seen marks the sample as ingested and reports whether it was already seen.
// Markers expire so the set stays bounded.
func (s *PositionStore) Seen(ctx context.Context, p *domain.Position) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.client.SetNX(ctx, seenKey(p), "1", seenTTL).Result()
	if err != nil {
		return false, err
	}
	return !created, nil
}
