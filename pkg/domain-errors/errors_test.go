package domainerrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapPreservesTheCause(t *testing.T) {
	cause := errors.New("unique constraint hit")
	err := Wrap(cause, CodeConflict, "email already has a subscription")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeConflict, CodeOf(err))
	assert.True(t, Is(err, CodeConflict))
	assert.False(t, Is(err, CodeValidation))
	assert.Equal(t, "email already has a subscription", Message(err))
}

func TestCodeOfUncodedError(t *testing.T) {
	err := errors.New("something else")
	assert.Equal(t, CodeInternal, CodeOf(err))
	assert.Equal(t, "internal error", Message(err))
}

func TestCodeSurvivesFurtherWrapping(t *testing.T) {
	err := New(CodeNotFound, "unknown subscription token")
	wrapped := Wrap(err, CodeUnavailable, "could not redeem token")

	// The outermost code wins; the inner one is still reachable via the chain.
	assert.Equal(t, CodeUnavailable, CodeOf(wrapped))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:  http.StatusBadRequest,
		CodeConflict:    http.StatusBadRequest,
		CodeNotFound:    http.StatusNotFound,
		CodeTimeout:     http.StatusGatewayTimeout,
		CodeUnavailable: http.StatusInternalServerError,
		CodeInternal:    http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), "code %s", code)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(Code("unknown")))
}
