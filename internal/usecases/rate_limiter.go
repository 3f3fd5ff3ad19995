package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"cccd-api.backend/internal/domain/entities"
	domainerrors "cccd-api.backend/internal/domain/errors"
)

// RateLimitWindow is the fixed accounting window. Windows are aligned to
// wall-clock boundaries, not sliding; burst behavior at window edges is an
// accepted tradeoff.
const RateLimitWindow = time.Minute

var tierRateLimits = map[entities.Tier]int{
	entities.TierFree:    10,
	entities.TierPremium: 100,
	entities.TierUltra:   1000,
}

// LimitFor returns the per-window ceiling for a tier. Unknown tiers get the
// free ceiling: the limiter fails closed, never open.
func LimitFor(tier entities.Tier) int {
	if limit, ok := tierRateLimits[tier]; ok {
		return limit
	}
	return tierRateLimits[entities.TierFree]
}

// AdmitDecision is the outcome of one admission check.
type AdmitDecision struct {
	Allowed           bool
	Limit             int
	Remaining         int
	RetryAfterSeconds int
}

// CounterStore increments the fixed-window counter for an identity and
// returns the new count. Implementations must be safe for concurrent use;
// counters may be dropped any time after ttl.
type CounterStore interface {
	Incr(ctx context.Context, identity string, windowStart time.Time, ttl time.Duration) (int64, error)
}

// RateLimiter enforces per-tier ceilings over a CounterStore. The default
// store is per-process memory; a redis store gives clustered deployments a
// shared counter without changing the Admit contract.
type RateLimiter struct {
	store CounterStore
	now   func() time.Time
}

func NewRateLimiter(store CounterStore) *RateLimiter {
	return &RateLimiter{store: store, now: time.Now}
}

// Admit charges one request against the identity's current window. A store
// failure fails closed with ServiceUnavailable, never with an allow.
func (l *RateLimiter) Admit(ctx context.Context, identity string, tier entities.Tier) (*AdmitDecision, error) {
	limit := LimitFor(tier)
	now := l.now()
	windowStart := now.Truncate(RateLimitWindow)

	count, err := l.store.Incr(ctx, identity, windowStart, 2*RateLimitWindow)
	if err != nil {
		return nil, domainerrors.ServiceUnavailable("rate limit store unavailable")
	}

	if count > int64(limit) {
		retryAfter := int(windowStart.Add(RateLimitWindow).Sub(now).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return &AdmitDecision{Allowed: false, Limit: limit, RetryAfterSeconds: retryAfter}, nil
	}

	return &AdmitDecision{Allowed: true, Limit: limit, Remaining: limit - int(count)}, nil
}

type memoryWindow struct {
	start     int64
	count     int64
	expiresAt time.Time
}

// MemoryCounterStore keeps fixed-window counters in process memory. Counters
// restart from zero on process restart; limits are short and soft, so this
// is acceptable. Entries past their ttl are swept so one-off identities
// (per-IP buckets especially) do not accumulate.
type MemoryCounterStore struct {
	mu        sync.Mutex
	counters  map[string]*memoryWindow
	nextSweep time.Time
	now       func() time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*memoryWindow),
		now:      time.Now,
	}
}

func (s *MemoryCounterStore) Incr(_ context.Context, identity string, windowStart time.Time, ttl time.Duration) (int64, error) {
	start := windowStart.Unix()
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(now)

	w, ok := s.counters[identity]
	if !ok || w.start != start {
		w = &memoryWindow{start: start}
		s.counters[identity] = w
	}
	w.count++
	w.expiresAt = now.Add(ttl)
	return w.count, nil
}

// sweep drops counters whose ttl has passed. Runs at most once per window so
// a burst of distinct identities cannot turn every Incr into a full scan.
func (s *MemoryCounterStore) sweep(now time.Time) {
	if now.Before(s.nextSweep) {
		return
	}
	s.nextSweep = now.Add(RateLimitWindow)
	for identity, w := range s.counters {
		if now.After(w.expiresAt) {
			delete(s.counters, identity)
		}
	}
}

// RedisCounterStore keeps fixed-window counters in redis so multiple
// processes share one ceiling per key.
type RedisCounterStore struct {
	client *redis.Client
}

func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{client: client}
}

func (s *RedisCounterStore) Incr(ctx context.Context, identity string, windowStart time.Time, ttl time.Duration) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s:%d", identity, windowStart.Unix())

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
