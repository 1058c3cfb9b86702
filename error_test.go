package httpx

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorChain(t *testing.T) {
	err := NewErrorFrom("ReadHeaders() failed", NewErrorFrom("inner", io.ErrUnexpectedEOF))

	assert.Equal(t, "ReadHeaders() failed caused by error inner caused by error unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, io.ErrUnexpectedEOF, errors.Cause(err))
}

func TestErrorWithoutCause(t *testing.T) {
	err := NewError("plain")

	assert.Equal(t, "plain", err.String())
	assert.Nil(t, err.Unwrap())
}
