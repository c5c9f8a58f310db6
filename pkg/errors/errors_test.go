package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("ranking r1: %w", ErrRankingPending)

	got := FromError(wrapped)
	assert.Equal(t, "RANKING_PENDING", got.Code)
	assert.Equal(t, http.StatusAccepted, got.Status)
}

func TestFromErrorHidesUnknownErrors(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	got := FromError(cause)
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, ErrInternal.Message, got.Message)
	assert.ErrorIs(t, got, cause)
}

func TestCloneMatchesByCode(t *testing.T) {
	clone := Clone(ErrEmptyOptionSet, "FIT2004 Lab has no options")

	assert.Equal(t, "FIT2004 Lab has no options", clone.Message)
	assert.NotEqual(t, ErrEmptyOptionSet.Message, clone.Message)
	assert.True(t, errors.Is(clone, ErrEmptyOptionSet))
	assert.False(t, errors.Is(clone, ErrMalformedTime))
	assert.Nil(t, Clone(nil, "x"))
}
