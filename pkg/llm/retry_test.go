package llm

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	sleeps []time.Duration
}

func (f *fakeClock) Now() time.Time { return time.Unix(0, 0) }

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	return nil
}

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	clock := &fakeClock{}
	policy := &RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    time.Second,
		Clock:       clock,
		Rand:        rand.New(rand.NewSource(1)),
	}

	calls := 0
	err := policy.Do(context.Background(), func(error) bool { return true }, func(attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, clock.sleeps, 2)
}

func TestRetryPolicy_StopsOnNonRetryableError(t *testing.T) {
	clock := &fakeClock{}
	policy := &RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    time.Second,
		Clock:       clock,
		Rand:        rand.New(rand.NewSource(1)),
	}

	calls := 0
	err := policy.Do(context.Background(), func(error) bool { return false }, func(attempt int) error {
		calls++
		return errors.New("schema validation failed")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.sleeps)
}

func TestRetryPolicy_ExhaustsAttempts(t *testing.T) {
	clock := &fakeClock{}
	policy := &RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    time.Second,
		Clock:       clock,
		Rand:        rand.New(rand.NewSource(1)),
	}

	calls := 0
	err := policy.Do(context.Background(), func(error) bool { return true }, func(attempt int) error {
		calls++
		return errors.New("persistent")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, clock.sleeps, 2)
}
