package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-research/internal/core/domain"
	"github.com/custodia-labs/sercha-research/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-research/internal/logger"
)

// Ensure Guard implements the interface.
var _ driven.LLMService = (*Guard)(nil)

// GuardConfig configures rate limiting and circuit breaking for an LLM service.
type GuardConfig struct {
	// Name identifies the breaker in logs.
	Name string

	// RequestsPerMinute caps outbound calls. Zero disables rate limiting.
	RequestsPerMinute int

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration

	// MinRequests is how many requests the breaker observes before it may trip.
	MinRequests uint32

	// FailureRatio trips the breaker once failures reach this share of requests.
	FailureRatio float64
}

// DefaultGuardConfig returns the breaker defaults.
func DefaultGuardConfig(name string) GuardConfig {
	return GuardConfig{
		Name:         name,
		OpenTimeout:  60 * time.Second,
		MinRequests:  3,
		FailureRatio: 0.6,
	}
}

// Guard wraps an LLM service with a token-bucket rate limiter and a circuit
// breaker. It never retries: an open breaker fails fast.
type Guard struct {
	next    driven.LLMService
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewGuard wraps next.
func NewGuard(next driven.LLMService, cfg GuardConfig) *Guard {
	g := &Guard{next: next}

	if cfg.RequestsPerMinute > 0 {
		burst := cfg.RequestsPerMinute / 10
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), burst)
	}

	minRequests := cfg.MinRequests
	ratio := cfg.FailureRatio
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests || counts.Requests == 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})
	return g
}

// Generate waits for a rate-limit token, then calls the wrapped service
// through the breaker.
func (g *Guard) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit: %w", err)
		}
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.Generate(ctx, prompt, opts)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %s circuit open", domain.ErrLLMUnavailable, g.breaker.Name())
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// State reports the breaker state.
func (g *Guard) State() gobreaker.State {
	return g.breaker.State()
}

// ModelName returns the wrapped model name.
func (g *Guard) ModelName() string {
	return g.next.ModelName()
}

// Ping checks the wrapped service directly, bypassing the breaker.
func (g *Guard) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

// Close releases the wrapped service.
func (g *Guard) Close() error {
	return g.next.Close()
}
