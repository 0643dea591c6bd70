package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoff(t *testing.T) {
	transient := errors.New("rate limited")

	tests := []struct {
		name         string
		failures     int
		maxAttempts  int
		wantErr      error
		wantAttempts int
	}{
		{"first try", 0, 2, nil, 1},
		{"single retry recovers", 1, 2, nil, 2},
		{"single retry exhausted", 2, 2, transient, 2},
		{"zero attempts", 0, 0, ErrInvalidMaxAttempts, 0},
		{"negative attempts", 0, -1, ErrInvalidMaxAttempts, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := 0
			op := func() error {
				attempts++
				if attempts <= tt.failures {
					return transient
				}
				return nil
			}

			err := RetryWithBackoff(context.Background(), op, tt.maxAttempts, time.Millisecond)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAttempts, attempts)
		})
	}
}

func TestRetryWithBackoff_WaitsAtLeastBaseDelay(t *testing.T) {
	attempts := 0
	start := time.Now()
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts == 1 {
			return errors.New("try again")
		}
		return nil
	}, 2, 25*time.Millisecond)

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
}

func TestRetryWithBackoff_CanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	op := func() error {
		attempts++
		cancel()
		return errors.New("error")
	}

	err := RetryWithBackoff(ctx, op, 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoff_DeadlineExceeded(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := RetryWithBackoff(ctx, func() error { return errors.New("error") }, 10, 10*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
