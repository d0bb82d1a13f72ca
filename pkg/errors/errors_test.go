package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFor(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
	}{
		{CodeValidation, http.StatusBadRequest, false},
		{CodeNotFound, http.StatusNotFound, false},
		{CodeStateConflict, http.StatusUnprocessableEntity, false},
		{CodePaymentSetup, http.StatusBadGateway, true},
		{CodePaymentUnavailable, http.StatusServiceUnavailable, true},
		{CodeUpload, http.StatusBadGateway, true},
		{Code("UNKNOWN"), http.StatusInternalServerError, true},
	}

	for _, tc := range tests {
		meta := MetadataFor(tc.code)
		assert.Equal(t, tc.status, meta.HTTPStatus, "code %s", tc.code)
		assert.Equal(t, tc.retryable, meta.Retryable, "code %s", tc.code)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("gateway said no")
	err := Wrap(CodePaymentSetup, cause, "create session")

	require.NotNil(t, err)
	assert.Equal(t, CodePaymentSetup, err.Code())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "PAYMENT_SETUP_ERROR")
}

func TestAsUnwrapsNestedTypedError(t *testing.T) {
	typed := New(CodeNotFound, "order not found")
	wrapped := fmt.Errorf("outer: %w", typed)

	got := As(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, CodeNotFound, got.Code())

	assert.Nil(t, As(fmt.Errorf("plain")))
}

func TestDumpCollectsChain(t *testing.T) {
	inner := fmt.Errorf("inner")
	err := Wrap(CodeDependency, inner, "outer")

	dump := Dump(err)
	assert.Equal(t, CodeDependency, dump.Code)
	require.Len(t, dump.Chain, 2)
}
