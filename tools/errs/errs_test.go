package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeErrorIs(t *testing.T) {
	assert.ErrorIs(t, ErrNotFriends, ErrNotFriends)
	assert.NotErrorIs(t, ErrNotFriends, ErrPersistence)

	// Copies carrying detail or a cause still match the sentinel.
	withDetail := ErrNotFriends.WithDetail("a->b")
	assert.ErrorIs(t, withDetail, ErrNotFriends)

	cause := errors.New("connection reset")
	withCause := ErrPersistence.WithCause(cause)
	assert.ErrorIs(t, withCause, ErrPersistence)
	assert.ErrorIs(t, withCause, cause)
}

func TestCodeErrorMessage(t *testing.T) {
	err := ErrPersistence.WithDetail("append").WithCause(errors.New("boom"))
	assert.Contains(t, err.Error(), "1002")
	assert.Contains(t, err.Error(), "append")
	assert.Contains(t, err.Error(), "boom")
}

func TestSentinelsNotMutated(t *testing.T) {
	_ = ErrNotFriends.WithDetail("scratch")
	assert.Empty(t, ErrNotFriends.Detail)
}
