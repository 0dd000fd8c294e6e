package courseapi

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{429, KindRateLimited},
		{409, KindConflict},
		{410, KindConflict},
		{400, KindValidation},
		{422, KindValidation},
		{500, KindNetwork},
		{503, KindNetwork},
		{401, KindFatal},
		{403, KindFatal},
		{404, KindFatal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyStatus(tt.status), "status %d", tt.status)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(NewError(KindNetwork, "save course", "boom")))
	assert.True(t, Retryable(NewError(KindRateLimited, "save course", "slow down")))
	assert.False(t, Retryable(NewError(KindValidation, "save course", "bad payload")))
	assert.False(t, Retryable(NewError(KindConflict, "save course", "stale id")))
	assert.False(t, Retryable(NewError(KindFatal, "save course", "forbidden")))
}

func TestRetryable_UnclassifiedErrorDefaultsToNetwork(t *testing.T) {
	assert.True(t, Retryable(errors.New("connection reset")))
}

func TestRetryable_CancellationIsNotRetried(t *testing.T) {
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(fmt.Errorf("request aborted: %w", context.Canceled)))
}

func TestKindOf_UnwrapsWrappedErrors(t *testing.T) {
	inner := NewError(KindConflict, "reorder modules", "unknown id tmp_a")
	wrapped := fmt.Errorf("dispatch failed: %w", inner)

	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.True(t, IsConflict(wrapped))
	assert.False(t, IsValidation(wrapped))
}

func TestError_MessageIncludesStatus(t *testing.T) {
	err := &Error{Kind: KindNetwork, Op: "save course", Status: 502, Message: "bad gateway"}
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "save course")
}

func TestWrapError_PreservesCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := WrapError(KindNetwork, "fetch course", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindNetwork, KindOf(err))
}
