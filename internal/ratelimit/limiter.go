// Package ratelimit implements the cooperative token-bucket limiters of
// spec.md §5/§9: nine buckets (one global, four stages x two phases)
// shared by reference across workers, acquired with a non-blocking check
// plus a short cooperative sleep rather than a hard mutex hold across the
// whole wait. This generalizes the teacher's per-IP token bucket
// (internal/api/ratelimit.go ipBucket) from "one bucket per client IP" to
// "one bucket per limiter", since here there is exactly one caller
// population per bucket instead of one per remote IP.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// retryPoll is how often a blocked Acquire re-checks the bucket. Small
// enough to keep the reported wait latency low, large enough not to spin.
const retryPoll = 2 * time.Millisecond

// Limiter is a single token bucket: tokens replenish at `rate` per second
// up to `burst`. When New is given no burst, the bucket holds one second's
// worth of tokens (spec.md §5).
type Limiter struct {
	mu       sync.Mutex
	rate     float64
	burst    float64
	tokens   float64
	lastFill time.Time
}

// New creates a Limiter allowing ratePerSec requests/sec with the given
// burst capacity. A ratePerSec of 0 or less disables the limiter (Acquire
// always succeeds immediately) — useful for a phase variant that wants a
// stage silenced without special-casing callers.
func New(ratePerSec, burst float64) *Limiter {
	if burst <= 0 {
		burst = ratePerSec
	}
	return &Limiter{
		rate:     ratePerSec,
		burst:    burst,
		tokens:   burst,
		lastFill: time.Now(),
	}
}

func (l *Limiter) refill() {
	if l.rate <= 0 {
		return
	}
	now := time.Now()
	elapsed := now.Sub(l.lastFill).Seconds()
	l.tokens += elapsed * l.rate
	if l.tokens > l.burst {
		l.tokens = l.burst
	}
	l.lastFill = now
}

// TryAcquire takes one token if available, without blocking.
func (l *Limiter) TryAcquire() bool {
	if l.rate <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	if l.tokens >= 1.0 {
		l.tokens--
		return true
	}
	return false
}

// Acquire blocks, cooperatively, until a token is available or ctx is
// done. This is the only suspension point a worker spends inside the
// rate-limiting control plane (spec.md §5).
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.rate <= 0 {
		return nil
	}
	for {
		if l.TryAcquire() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryPoll):
		}
	}
}

// PhaseFlag is the minimal read surface ratelimit needs from the phase
// controller: a single atomic boolean, read on every acquisition
// (spec.md §5, §9).
type PhaseFlag interface {
	Phase2() bool
}

// Phased is a pair of Limiters selected by the shared phase flag: phase 1
// favors exploration/digging, phase 2 favors cashing in (spec.md §2, §5).
type Phased struct {
	flag   PhaseFlag
	phase1 *Limiter
	phase2 *Limiter
}

// NewPhased builds a phase-aware limiter pair.
func NewPhased(flag PhaseFlag, phase1, phase2 *Limiter) *Phased {
	return &Phased{flag: flag, phase1: phase1, phase2: phase2}
}

// Acquire selects the limiter for the current phase and blocks on it.
func (p *Phased) Acquire(ctx context.Context) error {
	if p.flag != nil && p.flag.Phase2() {
		return p.phase2.Acquire(ctx)
	}
	return p.phase1.Acquire(ctx)
}

// Set is the full control plane: the global HTTP ceiling plus the four
// phase-aware stage limiters (explore, digger, attorney, accountant) —
// nine token buckets in all (spec.md §5).
type Set struct {
	Global     *Limiter
	Explore    *Phased
	Digger     *Phased
	Attorney   *Phased
	Accountant *Phased
}
