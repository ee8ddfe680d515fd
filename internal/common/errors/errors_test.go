package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
		wantCat     string
	}{
		{name: "persist failure retries", err: NewResultPersistFailedError("run-1", assert.AnError), wantRetries: 3, wantCat: "DATABASE"},
		{name: "timeout retries once", err: NewSolveTimeoutError("Bears"), wantRetries: 1, wantCat: "SOLVER"},
		{name: "business error is thrown", err: NewDuplicateCandidateError("p1", 4), wantRetries: 0, wantCat: "VALIDATION"},
		{name: "csv error", err: NewCSVReadFailedError(assert.AnError), wantRetries: 0, wantCat: "VALIDATION"},
		{name: "export not retryable", err: NewExportFailedError(assert.AnError), wantRetries: 0, wantCat: "OTHER"},
		{name: "index failure", err: NewIndexFailedError("roster-standings", assert.AnError), wantRetries: 3, wantCat: "SEARCH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), bpmn.Code)
			assert.Equal(t, tt.wantRetries, bpmn.Retries)
			assert.Equal(t, tt.wantCat, GetErrorCategory(tt.err.Code))

			vars := bpmn.ToErrorVariables()
			assert.Equal(t, string(tt.err.Code), vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestHasCode_Wrapped(t *testing.T) {
	err := fmt.Errorf("loading: %w", NewMissingFieldError("Value", 3))

	assert.True(t, HasCode(err, ErrCodeMissingRequiredField))
	assert.False(t, HasCode(err, ErrCodeInvalidInput))
	assert.False(t, HasCode(assert.AnError, ErrCodeInvalidInput))
	assert.ErrorIs(t, err, &StandardError{Code: ErrCodeMissingRequiredField})
}

func TestNormalize(t *testing.T) {
	se := NewCacheUnavailableError(assert.AnError)
	assert.Same(t, se, Normalize(fmt.Errorf("wrap: %w", se)))

	other := Normalize(assert.AnError)
	require.NotNil(t, other)
	assert.Equal(t, ErrorCode("INTERNAL_ERROR"), other.Code)
	assert.False(t, other.Retryable)
}

func TestRetryableCodes(t *testing.T) {
	assert.True(t, IsRetryableErrorCode(ErrCodeDatabaseConnectionFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeNotificationSendFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeInvalidRequirement))
	assert.False(t, IsRetryableErrorCode(ErrCodeCacheUnavailable))
}
