package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantMsg  string
		wantType ErrorType
	}{
		{
			name:     "parsing error with cause",
			err:      NewParsingError("bad amount", fmt.Errorf("strconv failure")),
			wantMsg:  "[PARSING] bad amount: strconv failure",
			wantType: ErrTypeParsing,
		},
		{
			name:     "not found without cause",
			err:      NewNotFoundError("document", nil),
			wantMsg:  "[NOT_FOUND] document not found",
			wantType: ErrTypeNotFound,
		},
		{
			name:     "storage error",
			err:      NewStorageError("upload failed", ErrObjectNotFound),
			wantMsg:  "[STORAGE] upload failed: object not found",
			wantType: ErrTypeStorage,
		},
		{
			name:     "config error",
			err:      NewConfigError("missing url", ErrStoreNotConfigured),
			wantType: ErrTypeConfig,
			wantMsg:  "[CONFIG] missing url: AZURE_STORAGE_ACCOUNT_URL is not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
			assert.True(t, IsType(tt.err, tt.wantType))
			assert.True(t, IsType(fmt.Errorf("wrapped: %w", tt.err), tt.wantType))
		})
	}
}

func TestAppError_UnwrapAndContext(t *testing.T) {
	err := NewStorageError("download", ErrObjectNotFound).
		WithContext("container", "sales-data").
		WithContext("key", "aggregated_sales.json")

	assert.True(t, errors.Is(err, ErrObjectNotFound))
	assert.Equal(t, "sales-data", err.Context["container"])
	assert.Equal(t, "aggregated_sales.json", err.Context["key"])

	bare := &AppError{Type: ErrTypeNetwork, Message: "x"}
	bare.WithContext("k", 1)
	assert.Equal(t, 1, bare.Context["k"])

	assert.False(t, IsType(fmt.Errorf("plain"), ErrTypeStorage))
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(404, TypeNotFound, "Not Found", "", "/x").
		WithExtension("trace_id", "t1").
		WithExtension("status", 999)

	data, err := pd.MarshalJSON()
	assert.NoError(t, err)
	assert.JSONEq(t, `{"type":"/errors/not-found","title":"Not Found","status":404,"instance":"/x","trace_id":"t1"}`, string(data))
}
