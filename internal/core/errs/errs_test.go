package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, NotImplemented("feature").Error(), "feature")
	assert.Contains(t, InvalidInput("bad").Error(), "bad")
	assert.Equal(t, "invalid input: bad", InvalidInput("bad").Error())
}

func TestKindMatching(t *testing.T) {
	err := fmt.Errorf("register: %w", InvalidInput("component already registered"))
	require.ErrorIs(t, err, ErrInvalidInput)
	assert.NotErrorIs(t, err, ErrNotImplemented)
	assert.Equal(t, KindInvalidInput, KindOf(err))

	assert.ErrorIs(t, NotImplemented("disconnect"), ErrNotImplemented)
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestDetailedErrorsDoNotMatchEachOther(t *testing.T) {
	unauthorized := InvalidInput("token rejected")
	other := InvalidInput("missing route")
	assert.False(t, errors.Is(other, unauthorized))
	assert.True(t, errors.Is(unauthorized, unauthorized))
}

func TestKindOfWalksJoinedErrors(t *testing.T) {
	joined := errors.Join(errors.New("plain"), fmt.Errorf("route: %w", NotImplemented("admin")))
	assert.Equal(t, KindNotImplemented, KindOf(joined))

	combined := multierr.Append(errors.New("first"), InvalidInput("second"))
	assert.Equal(t, KindInvalidInput, KindOf(combined))
	assert.Equal(t, Kind(0), KindOf(nil))
}
