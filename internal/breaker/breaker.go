// Package breaker short-circuits a provider after consecutive upstream
// failures. It never retries: a call either goes through once or is
// rejected.
package breaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/oukeidos/amrelay/internal/apperrors"
	"github.com/oukeidos/amrelay/internal/language"
	"github.com/oukeidos/amrelay/internal/logger"
)

const (
	DefaultFailures = 5
	DefaultCooldown = 30 * time.Second
)

type Settings struct {
	// Failures is the number of consecutive upstream failures that opens
	// the circuit. 0 disables the breaker.
	Failures uint32
	// Cooldown is how long the circuit stays open before one trial call.
	Cooldown time.Duration
}

func (s Settings) Enabled() bool {
	return s.Failures > 0
}

type translator interface {
	Name() string
	Translate(ctx context.Context, text string, source, target language.Language) (string, error)
}

type answerer interface {
	Name() string
	Answer(ctx context.Context, question string) (string, error)
}

func newCircuit(name string, s Settings) *gobreaker.CircuitBreaker {
	failures := s.Failures
	if failures == 0 {
		failures = DefaultFailures
	}
	cooldown := s.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return !apperrors.IsUpstreamFailure(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "provider", name, "from", from.String(), "to", to.String())
		},
	})
}

func rejected(name string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return apperrors.New(apperrors.KindUpstream,
			fmt.Sprintf("The %s service is temporarily unavailable.", name), err)
	}
	return err
}

// Translator guards a translation backend.
type Translator struct {
	next translator
	cb   *gobreaker.CircuitBreaker
}

func WrapTranslator(next translator, s Settings) *Translator {
	return &Translator{next: next, cb: newCircuit(next.Name()+" translation", s)}
}

func (t *Translator) Name() string {
	return t.next.Name()
}

func (t *Translator) State() gobreaker.State {
	return t.cb.State()
}

func (t *Translator) Translate(ctx context.Context, text string, source, target language.Language) (string, error) {
	out, err := t.cb.Execute(func() (interface{}, error) {
		return t.next.Translate(ctx, text, source, target)
	})
	if err != nil {
		return "", rejected("translation", err)
	}
	return out.(string), nil
}

// Answerer guards an answer provider.
type Answerer struct {
	next answerer
	cb   *gobreaker.CircuitBreaker
}

func WrapAnswerer(next answerer, s Settings) *Answerer {
	return &Answerer{next: next, cb: newCircuit(next.Name()+" answer", s)}
}

func (a *Answerer) Name() string {
	return a.next.Name()
}

func (a *Answerer) State() gobreaker.State {
	return a.cb.State()
}

func (a *Answerer) Answer(ctx context.Context, question string) (string, error) {
	out, err := a.cb.Execute(func() (interface{}, error) {
		return a.next.Answer(ctx, question)
	})
	if err != nil {
		return "", rejected("answer", err)
	}
	return out.(string), nil
}
