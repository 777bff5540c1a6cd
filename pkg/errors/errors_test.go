package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorFormat(t *testing.T) {
	err := New(ErrCodeDocumentNotFound, "document doc-42 not found")
	assert.Equal(t, "[DOC_001] document doc-42 not found", err.Error())

	withDetail := err.WithDetail("owner=user-1")
	assert.Equal(t, "[DOC_001] document doc-42 not found: owner=user-1", withDetail.Error())
	// WithDetail must not mutate the receiver.
	assert.Empty(t, err.Detail)
}

func TestWrap_PreservesCodeForUnknown(t *testing.T) {
	inner := Conflict("job already in flight")
	wrapped := Wrap(inner, ErrCodeUnknown, "start analysis failed")

	assert.Equal(t, ErrCodeConflict, wrapped.Code)
	assert.True(t, stderrors.Is(wrapped, wrapped))

	var ae *AppError
	require.True(t, stderrors.As(wrapped, &ae))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	if w := Wrap(nil, ErrCodeStorage, "x"); w != nil {
		t.Fatalf("Wrap(nil) = %v, want nil", w)
	}
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := Transient("nlp timeout")
	mid := Wrap(inner, ErrCodeInternal, "extraction call failed")
	outer := fmt.Errorf("pipeline: %w", mid)

	assert.True(t, IsCode(outer, ErrCodeTransient))
	assert.True(t, IsTransient(outer))
	assert.False(t, IsCode(outer, ErrCodeConflict))
}

func TestTaxonomyHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found generic", NotFound("missing"), IsNotFound, true},
		{"not found document", New(ErrCodeDocumentNotFound, "missing"), IsNotFound, true},
		{"not found job", New(ErrCodeJobNotFound, "missing"), IsNotFound, true},
		{"conflict generic", Conflict("dup"), IsConflict, true},
		{"conflict in-flight", New(ErrCodeJobInFlight, "dup"), IsConflict, true},
		{"transient throttled", New(ErrCodeExtractionThrottled, "slow down"), IsTransient, true},
		{"permanent is not transient", Permanent("bad language"), IsTransient, false},
		{"storage", Storage("db down"), IsStorage, true},
		{"validation is not storage", Validation("empty id"), IsStorage, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeJobInFlight, GetCode(New(ErrCodeJobInFlight, "dup")))
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatusForCode(ErrCodeDocumentNotFound))
	assert.Equal(t, http.StatusConflict, HTTPStatusForCode(ErrCodeJobInFlight))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatusForCode(ErrCodeValidation))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatusForCode(ErrCodeTransient))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusForCode(ErrorCode("NOPE")))

	assert.True(t, IsClientError(ErrCodeConflict))
	assert.True(t, IsServerError(ErrCodeStorage))
	assert.False(t, IsClientError(ErrCodePermanent))
}
