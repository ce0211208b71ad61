package httpclient

import (
	"math/rand/v2"
	"time"
)

// Policy bounds the retry loop. MaxAttempts counts every request, the first
// one included.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	MaxJitter   time.Duration

	// BreakerThreshold consecutive failed calls open the circuit for
	// BreakerCooldown. Zero disables the breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// DefaultPolicy is three attempts, 1s base doubling to a 10s cap, up to 500ms jitter.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
		MaxJitter:   500 * time.Millisecond,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.MaxJitter < 0 {
		p.MaxJitter = 0
	}
	if p.BreakerThreshold > 0 && p.BreakerCooldown <= 0 {
		p.BreakerCooldown = time.Minute
	}
	return p
}

// Delay returns the wait before retry number `retry` (0 for the wait after
// the first failure): BaseDelay * 2^retry capped at MaxDelay, plus jitter in
// [0, MaxJitter).
func (p Policy) Delay(retry int, jitter func(max time.Duration) time.Duration) time.Duration {
	p = p.normalized()
	if retry > 30 {
		retry = 30
	}
	delay := p.BaseDelay << uint(retry)
	if delay > p.MaxDelay || delay < 0 {
		delay = p.MaxDelay
	}
	if p.MaxJitter > 0 && jitter != nil {
		delay += jitter(p.MaxJitter)
	}
	return delay
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(max)))
}
