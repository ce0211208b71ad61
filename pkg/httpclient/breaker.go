package httpclient

import (
	"fmt"
	"sync"
	"time"

	"github.com/Ironclad/ironclad/pkg/apperror"
)

// Breaker stops calls to a backend after Threshold consecutive backend
// failures, until Cooldown has passed since the last one.
type Breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	lastError   *apperror.Error
	open        bool
}

func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether a call may go out. An open breaker closes itself
// once the cooldown has elapsed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.lastFailure) >= b.cooldown {
		b.open = false
		b.failures = 0
		b.lastError = nil
		return true
	}
	return false
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.lastError = nil
	b.open = false
}

// RecordFailure counts err toward the threshold when it points at the backend
// itself. Caller mistakes (bad input, auth, not found) are ignored. Returns
// true if the failure was counted.
func (b *Breaker) RecordFailure(err *apperror.Error) bool {
	if !countsTowardBreaker(err) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	b.lastFailure = b.now()
	b.lastError = err
	if b.failures >= b.threshold {
		b.open = true
	}
	return true
}

func countsTowardBreaker(err *apperror.Error) bool {
	if err == nil {
		return false
	}
	switch err.Kind {
	case apperror.KindServerError, apperror.KindNetworkUnavailable:
		return true
	}
	return false
}

// BreakerStats is a point-in-time view of a breaker.
type BreakerStats struct {
	Open         bool          `json:"open"`
	Failures     int           `json:"failures"`
	Threshold    int           `json:"threshold"`
	LastFailure  time.Time     `json:"last_failure,omitempty"`
	CooldownLeft time.Duration `json:"cooldown_left,omitempty"`
	LastError    string        `json:"last_error,omitempty"`
}

func (b *Breaker) Stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := BreakerStats{
		Open:        b.open,
		Failures:    b.failures,
		Threshold:   b.threshold,
		LastFailure: b.lastFailure,
	}
	if b.open {
		if left := b.cooldown - b.now().Sub(b.lastFailure); left > 0 {
			stats.CooldownLeft = left
		}
	}
	if b.lastError != nil {
		stats.LastError = b.lastError.Error()
	}
	return stats
}

// openError is returned instead of calling a backend whose breaker is open.
func (b *Breaker) openError(service string) *apperror.Error {
	stats := b.Stats()
	err := apperror.New(apperror.KindServerError, service,
		fmt.Errorf("circuit open after %d consecutive failures", stats.Failures))
	err.Retryable = false
	err.RetryAfter = stats.CooldownLeft
	return err
}
