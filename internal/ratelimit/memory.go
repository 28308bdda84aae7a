package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/smallbiznis/corpsledger/internal/clock"
)

type memoryState struct {
	tokens float64
	ts     time.Time
}

// MemoryBucket is an in-process Bucket for single-instance deployments.
type MemoryBucket struct {
	mu      sync.Mutex
	clock   clock.Clock
	buckets map[string]*memoryState
}

func NewMemoryBucket(clk clock.Clock) *MemoryBucket {
	return &MemoryBucket{
		clock:   clk,
		buckets: make(map[string]*memoryState),
	}
}

func (m *MemoryBucket) Allow(_ context.Context, key string, rate float64, burst int) (*Result, error) {
	if err := validate(key, rate, burst); err != nil {
		return nil, err
	}

	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.evict(now, rate, burst)

	st, ok := m.buckets[key]
	if !ok {
		st = &memoryState{tokens: float64(burst), ts: now}
		m.buckets[key] = st
	} else if elapsed := now.Sub(st.ts); elapsed > 0 {
		st.tokens = math.Min(float64(burst), st.tokens+elapsed.Seconds()*rate)
		st.ts = now
	}

	out := &Result{Limit: burst}
	if st.tokens >= 1 {
		st.tokens--
		out.Allowed = true
	} else {
		out.RetryAfter = retryAfter(st.tokens, rate)
	}
	out.Remaining = int(st.tokens)
	return out, nil
}

// evict drops buckets idle long enough to have refilled completely.
func (m *MemoryBucket) evict(now time.Time, rate float64, burst int) {
	ttl := bucketTTL(rate, burst)
	for key, st := range m.buckets {
		if now.Sub(st.ts) > ttl {
			delete(m.buckets, key)
		}
	}
}
