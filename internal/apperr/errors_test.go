package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("customer %d not found", 7)))
	assert.Equal(t, KindConflict, KindOf(fmt.Errorf("place order: %w", Conflict("out of stock: %s", "Phone"))))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestMessageOf(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", InvalidArgument("at least one product is required"))
	assert.Equal(t, "at least one product is required", MessageOf(err))
	assert.Equal(t, "internal error", MessageOf(errors.New("driver exploded")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("lock timeout")
	err := Wrap(KindTransient, cause, "place order")

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
	assert.Contains(t, err.Error(), "lock timeout")
	assert.False(t, IsRetryable(NotFound("x")))
	assert.False(t, IsRetryable(nil))
}
