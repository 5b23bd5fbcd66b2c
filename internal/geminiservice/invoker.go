package geminiservice

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultMaxRetries   = 3
	defaultInitialDelay = 2 * time.Second
)

// ModelCall is one attempt against a specific model. The Invoker re-runs it
// verbatim on transient failures.
type ModelCall func(ctx context.Context) (string, error)

// Invoker wraps model calls with exponential-backoff retry and a
// primary-to-fallback escalation policy. It is a pure control-flow wrapper:
// the only side effect is the calls it makes.
type Invoker struct {
	MaxRetries   int
	InitialDelay time.Duration

	// sleep is replaceable in tests so the backoff schedule can be
	// asserted without wall-clock waits.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewInvoker(maxRetries int, initialDelay time.Duration) *Invoker {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if initialDelay <= 0 {
		initialDelay = defaultInitialDelay
	}
	return &Invoker{
		MaxRetries:   maxRetries,
		InitialDelay: initialDelay,
		sleep:        sleepCtx,
	}
}

// Invoke runs primary up to MaxRetries times, waiting InitialDelay × 2^n
// between attempts. Only failures classified as ServiceBusy are retried;
// everything else propagates after a single attempt. The first ServiceBusy
// failure of the primary switches the loop to fallback (when supplied) for
// all remaining attempts. After the budget is exhausted the last error is
// returned.
func (inv *Invoker) Invoke(ctx context.Context, primary, fallback ModelCall) (string, error) {
	call := primary
	escalated := false

	var lastErr error
	for attempt := 0; attempt < inv.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := inv.InitialDelay << (attempt - 1)
			log.Warn().Dur("delay", delay).Int("attempt", attempt+1).Msg("model call backing off before retry")
			if err := inv.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		out, err := call(ctx)
		if err == nil {
			return out, nil
		}

		kind := Classify(err)
		if !kind.Retryable() {
			return "", err
		}
		lastErr = err

		if fallback != nil && !escalated {
			log.Warn().Err(err).Msg("primary model busy, escalating to fallback model")
			call = fallback
			escalated = true
		}
	}

	return "", lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
