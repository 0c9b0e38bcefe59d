package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"golang.org/x/time/rate"
)

// ErrCircuitOpen is returned without calling the provider while the breaker
// is open.
var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// CircuitBreaker opens after failureThreshold consecutive failures, stays
// open for openTimeout, then lets one probe through. A probe that never
// reports back is replaced by another after a further openTimeout.
type CircuitBreaker struct {
	mu sync.Mutex

	state            CircuitState
	failures         int
	openedAt         time.Time
	failureThreshold int
	openTimeout      time.Duration
	now              func() time.Time
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if openTimeout <= 0 {
		openTimeout = 30 * time.Second
	}
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		openTimeout:      openTimeout,
		now:              time.Now,
	}
}

func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.openTimeout {
			return ErrCircuitOpen
		}
		cb.state = CircuitHalfOpen
		cb.openedAt = cb.now()
		return nil
	case CircuitHalfOpen:
		// one probe at a time
		if cb.now().Sub(cb.openedAt) < cb.openTimeout {
			return ErrCircuitOpen
		}
		cb.openedAt = cb.now()
		return nil
	}
	return nil
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state != CircuitClosed {
		slog.Info("circuit breaker closed")
	}
	cb.state = CircuitClosed
	cb.failures = 0
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.state == CircuitHalfOpen || cb.failures >= cb.failureThreshold {
		if cb.state != CircuitOpen {
			slog.Warn("circuit breaker opened", "failures", cb.failures)
		}
		cb.state = CircuitOpen
		cb.openedAt = cb.now()
	}
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// RateLimitedJudge paces calls to a judge and stops calling it while it keeps
// failing. Either way the caller sees an error and falls back.
type RateLimitedJudge struct {
	next    scoring.SemanticJudge
	limiter *rate.Limiter
	breaker *CircuitBreaker
}

// NewRateLimitedJudge allows perSecond calls with a burst of the same size.
// perSecond <= 0 disables pacing.
func NewRateLimitedJudge(next scoring.SemanticJudge, perSecond float64, breaker *CircuitBreaker) *RateLimitedJudge {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = max(1, int(perSecond))
	}
	return &RateLimitedJudge{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		breaker: breaker,
	}
}

// JudgeSameObject waits for the limiter before asking the breaker, so a
// half-open probe is only started when the provider is actually called.
func (r *RateLimitedJudge) JudgeSameObject(ctx context.Context, nameA, descA, nameB, descB string) (int, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("judge rate limit: %w", err)
	}
	if r.breaker != nil {
		if err := r.breaker.Allow(); err != nil {
			return 0, err
		}
	}

	n, err := r.next.JudgeSameObject(ctx, nameA, descA, nameB, descB)
	if r.breaker != nil {
		if err != nil && !errors.Is(err, ErrBadJudgement) {
			r.breaker.RecordFailure()
		} else {
			r.breaker.RecordSuccess()
		}
	}
	return n, err
}
