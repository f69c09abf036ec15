package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", ErrInvalidHeader), http.StatusBadRequest},
		{ErrUnknownParser, http.StatusBadRequest},
		{ErrScanOverrun, http.StatusUnprocessableEntity},
		{fmt.Errorf("big: %w", ErrResourceExhausted), http.StatusRequestEntityTooLarge},
		{ErrNotFound, http.StatusNotFound},
		{ErrTimeout, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
		{New(ErrInternal, http.StatusTeapot, "custom"), http.StatusTeapot},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPStatusCode(tt.err), tt.err.Error())
	}
}

func TestAppErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("outer: %w", Newf(ErrConfigMismatch, 500, "field %q", "kw"))
	assert.ErrorIs(t, err, ErrConfigMismatch)
	assert.EqualError(t, err, `outer: configuration mismatch: field "kw"`)
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.False(t, IsFatal(fmt.Errorf("x: %w", ErrMalformedInput)))
	assert.True(t, IsFatal(ErrScanOverrun))
}
