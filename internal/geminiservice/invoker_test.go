package geminiservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errOverloaded = errors.New("API returned non-200 status: 503 Service Unavailable, Body: The model is overloaded. Please try again later.")
	errBadKey     = errors.New("API returned non-200 status: 400 Bad Request, Body: API key not valid. Please pass a valid API key.")
	errQuota      = errors.New("API returned non-200 status: 429 Too Many Requests, Body: You exceeded your current quota.")
)

// newTestInvoker replaces the sleeper so the backoff schedule can be
// recorded instead of waited out.
func newTestInvoker(maxRetries int, delay time.Duration) (*Invoker, *[]time.Duration) {
	inv := NewInvoker(maxRetries, delay)
	slept := &[]time.Duration{}
	inv.sleep = func(_ context.Context, d time.Duration) error {
		*slept = append(*slept, d)
		return nil
	}
	return inv, slept
}

func TestInvokeTransientFailuresThenSuccess(t *testing.T) {
	inv, slept := newTestInvoker(3, 2*time.Second)

	calls := 0
	primary := func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errOverloaded
		}
		return "recovered", nil
	}

	out, err := inv.Invoke(context.Background(), primary, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 3, calls)

	// Exponential doubling from the initial delay.
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestInvokeNonTransientErrorsAreNotRetried(t *testing.T) {
	for name, fatal := range map[string]error{
		"auth":    errBadKey,
		"quota":   errQuota,
		"content": errors.New("request blocked by safety filters"),
	} {
		t.Run(name, func(t *testing.T) {
			inv, slept := newTestInvoker(3, 2*time.Second)

			calls := 0
			primary := func(ctx context.Context) (string, error) {
				calls++
				return "", fatal
			}

			_, err := inv.Invoke(context.Background(), primary, nil)
			require.Error(t, err)
			assert.Equal(t, 1, calls)
			assert.Empty(t, *slept)
		})
	}
}

func TestInvokeEscalatesToFallbackOnServiceBusy(t *testing.T) {
	inv, slept := newTestInvoker(3, time.Second)

	primaryCalls, fallbackCalls := 0, 0
	primary := func(ctx context.Context) (string, error) {
		primaryCalls++
		return "", errOverloaded
	}
	fallback := func(ctx context.Context) (string, error) {
		fallbackCalls++
		return "from fallback", nil
	}

	out, err := inv.Invoke(context.Background(), primary, fallback)
	require.NoError(t, err)
	assert.Equal(t, "from fallback", out)

	// The primary is tried once; the fallback serves the retry.
	assert.Equal(t, 1, primaryCalls)
	assert.Equal(t, 1, fallbackCalls)
	assert.Equal(t, []time.Duration{time.Second}, *slept)
}

func TestInvokePropagatesLastErrorAfterExhaustion(t *testing.T) {
	inv, slept := newTestInvoker(3, 2*time.Second)

	calls := 0
	primary := func(ctx context.Context) (string, error) {
		calls++
		return "", errOverloaded
	}

	_, err := inv.Invoke(context.Background(), primary, nil)
	require.ErrorIs(t, err, errOverloaded)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *slept)
}

func TestInvokeStopsWhenContextCancelledDuringBackoff(t *testing.T) {
	inv := NewInvoker(3, 2*time.Second)
	inv.sleep = func(ctx context.Context, d time.Duration) error {
		return context.Canceled
	}

	calls := 0
	primary := func(ctx context.Context) (string, error) {
		calls++
		return "", errOverloaded
	}

	_, err := inv.Invoke(context.Background(), primary, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
