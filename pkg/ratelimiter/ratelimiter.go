package ratelimiter

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RatePolicy is a token bucket: PerMinute sustained requests, Burst immediate.
type RatePolicy struct {
	PerMinute int
	Burst     int
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per namespace:key. Namespaces without a
// policy are denied.
//
//	rl := ratelimiter.NewRateLimiter(5 * time.Minute)
//	rl.SetPolicy("agent", 30, 5)
//	if ok, wait := rl.Allow("agent", userID); !ok { ... }
type RateLimiter struct {
	mu          sync.Mutex
	entries     map[string]*entry
	policies    map[string]RatePolicy
	idleTTL     time.Duration
	now         func() time.Time
	stopCleanup chan struct{}
	stopped     bool
}

// NewRateLimiter starts a background sweep that drops buckets idle for longer
// than idleTTL.
func NewRateLimiter(idleTTL time.Duration) *RateLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	rl := &RateLimiter{
		entries:     make(map[string]*entry),
		policies:    make(map[string]RatePolicy),
		idleTTL:     idleTTL,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) SetPolicy(namespace string, perMinute, burst int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if burst < 1 {
		burst = 1
	}
	rl.policies[namespace] = RatePolicy{PerMinute: perMinute, Burst: burst}

	// Existing buckets pick up the new policy.
	prefix := namespace + ":"
	for k, e := range rl.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			e.limiter.SetLimit(perMinuteLimit(perMinute))
			e.limiter.SetBurst(burst)
		}
	}
}

// Allow consumes a token if one is available. When denied it returns how long
// until the next token.
func (rl *RateLimiter) Allow(namespace, key string) (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	policy, ok := rl.policies[namespace]
	if !ok {
		return false, 0
	}

	now := rl.now()
	compositeKey := namespace + ":" + key
	e, exists := rl.entries[compositeKey]
	if !exists {
		e = &entry{limiter: rate.NewLimiter(perMinuteLimit(policy.PerMinute), policy.Burst)}
		rl.entries[compositeKey] = e
	}
	e.lastSeen = now

	r := e.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, 0
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idleTTL)
	for k, e := range rl.entries {
		if e.lastSeen.Before(cutoff) {
			delete(rl.entries, k)
		}
	}
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.stopped {
		close(rl.stopCleanup)
		rl.stopped = true
	}
}

func perMinuteLimit(perMinute int) rate.Limit {
	if perMinute <= 0 {
		return 0
	}
	return rate.Limit(float64(perMinute) / 60.0)
}
