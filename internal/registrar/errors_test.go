package registrar

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("retryability follows category", func(t *testing.T) {
		assert.True(t, NewError(CategoryTimeout, "slow", nil).Retryable)
		assert.True(t, NewError(CategoryUnavailable, "down", nil).Retryable)
		assert.False(t, NewError(CategoryHandleTaken, "taken", nil).Retryable)
		assert.False(t, NewError(CategoryRejected, "no", nil).Retryable)
	})

	t.Run("helpers see through wrapping", func(t *testing.T) {
		err := fmt.Errorf("submit: %w", NewError(CategoryRateLimited, "slow down", nil))
		assert.True(t, IsRetryable(err))
		assert.Equal(t, CategoryRateLimited, CategoryOf(err))
	})

	t.Run("plain errors are internal and final", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, IsRetryable(err))
		assert.Equal(t, CategoryInternal, CategoryOf(err))
	})

	t.Run("unwraps underlying", func(t *testing.T) {
		err := NewError(CategoryCanceled, "canceled", context.Canceled)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Contains(t, err.Error(), "canceled")
	})
}
