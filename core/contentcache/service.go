// ABOUTME: Read-through content cache shared by aggregation and extraction
// ABOUTME: Guarantees at most one in-flight computation per key via singleflight

package contentcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"golang.org/x/sync/singleflight"

	"newsfetch-api/core/interfaces"
)

// envelope is the stored form of a cache entry. The hash validates the
// payload on read; a mismatch or undecodable envelope is treated as a miss.
type envelope struct {
	CreatedAt  time.Time       `json:"created_at"`
	TTLSeconds int64           `json:"ttl_seconds"`
	SHA256     string          `json:"sha256"`
	Payload    json.RawMessage `json:"payload"`
}

// Service provides get-or-compute semantics over a Cache backend.
type Service struct {
	cache  interfaces.Cache
	logger interfaces.Logger
	group  singleflight.Group
}

// NewService creates a content cache service.
func NewService(cache interfaces.Cache, logger interfaces.Logger) *Service {
	return &Service{
		cache:  cache,
		logger: logger,
	}
}

// GetOrCompute returns the cached payload for key if present, valid and
// unexpired; otherwise it invokes compute and stores the result. Concurrent
// calls for the same key share a single computation and its outcome, success
// or failure. compute errors are never cached.
func (s *Service) GetOrCompute(ctx context.Context, key string, ttl time.Duration, compute func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if payload, ok := s.lookup(ctx, key); ok {
		return payload, nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		// Re-check under the flight: another caller may have committed the
		// entry between our miss and acquiring the flight.
		if payload, ok := s.lookup(ctx, key); ok {
			return payload, nil
		}

		payload, err := compute(ctx)
		if err != nil {
			return nil, err
		}

		if err := s.store(ctx, key, ttl, payload); err != nil && s.logger != nil {
			s.logger.Warn("failed to write cache entry", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// Invalidate removes a key immediately regardless of TTL.
func (s *Service) Invalidate(ctx context.Context, key string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, key)
}

// StartSweeper runs a periodic backend sweep until the context is cancelled.
func (s *Service) StartSweeper(ctx context.Context, interval time.Duration) {
	if s.cache == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.cache.Sweep(ctx); err != nil && s.logger != nil {
					s.logger.Warn("cache sweep failed", map[string]interface{}{
						"error": err.Error(),
					})
				}
			}
		}
	}()
}

// lookup returns the payload for key when the stored envelope is present,
// structurally valid and unexpired. Corrupt entries are deleted and treated
// as a miss, never surfaced as errors.
func (s *Service) lookup(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}

	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil, false
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.dropCorrupt(ctx, key, "undecodable envelope")
		return nil, false
	}
	if env.SHA256 != hashPayload(env.Payload) {
		s.dropCorrupt(ctx, key, "payload hash mismatch")
		return nil, false
	}
	if env.TTLSeconds > 0 && time.Since(env.CreatedAt) > time.Duration(env.TTLSeconds)*time.Second {
		_ = s.cache.Delete(ctx, key)
		return nil, false
	}

	return []byte(env.Payload), true
}

func (s *Service) store(ctx context.Context, key string, ttl time.Duration, payload []byte) error {
	env := envelope{
		CreatedAt:  time.Now(),
		TTLSeconds: int64(ttl / time.Second),
		SHA256:     hashPayload(payload),
		Payload:    json.RawMessage(payload),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, data, ttl)
}

func (s *Service) dropCorrupt(ctx context.Context, key, reason string) {
	_ = s.cache.Delete(ctx, key)
	if s.logger != nil {
		s.logger.Warn("dropped corrupt cache entry", map[string]interface{}{
			"key":    key,
			"reason": reason,
		})
	}
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
