package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/errors"
)

const validDocument = `{
    "total_revenue": 150.0,
    "total_orders": 1,
    "average_order_value": 150.0,
    "top_region": "CA",
    "sales_by_category": {
        "X": 100.0,
        "Y": 50.0
    },
    "recent_sales_window": 150.0,
    "generated_at": "2024-06-01T12:00:00Z"
}
`

func TestDocumentValidator_Validate(t *testing.T) {
	validator, err := NewDocumentValidator()
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     string
		wantType errors.ErrorType
	}{
		{name: "valid document", data: validDocument},
		{name: "empty categories", data: `{"total_revenue":0,"total_orders":0,"average_order_value":0,"top_region":"Unknown","sales_by_category":{},"recent_sales_window":0,"generated_at":"2024-06-01T12:00:00.123456Z"}`},
		{name: "not json", data: `{"total_revenue":`, wantType: errors.ErrTypeParsing},
		{name: "trailing garbage", data: validDocument + `{}`, wantType: errors.ErrTypeParsing},
		{name: "empty body", data: ``, wantType: errors.ErrTypeParsing},
		{name: "array", data: `[]`, wantType: errors.ErrTypeValidation},
		{name: "missing key", data: `{"total_revenue":1,"total_orders":1,"average_order_value":1,"top_region":"CA","sales_by_category":{},"generated_at":"2024-06-01T12:00:00Z"}`, wantType: errors.ErrTypeValidation},
		{name: "fractional order count", data: `{"total_revenue":1,"total_orders":1.5,"average_order_value":1,"top_region":"CA","sales_by_category":{},"recent_sales_window":0,"generated_at":"2024-06-01T12:00:00Z"}`, wantType: errors.ErrTypeValidation},
		{name: "category value not a number", data: `{"total_revenue":1,"total_orders":1,"average_order_value":1,"top_region":"CA","sales_by_category":{"X":"1"},"recent_sales_window":0,"generated_at":"2024-06-01T12:00:00Z"}`, wantType: errors.ErrTypeValidation},
		{name: "bad timestamp", data: `{"total_revenue":1,"total_orders":1,"average_order_value":1,"top_region":"CA","sales_by_category":{},"recent_sales_window":0,"generated_at":"yesterday"}`, wantType: errors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Validate([]byte(tt.data))
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestDocumentValidator_Decode(t *testing.T) {
	validator := MustNewDocumentValidator()

	doc, err := validator.Decode([]byte(validDocument))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.TotalOrders)
	assert.Equal(t, "CA", doc.TopRegion)
	assert.Equal(t, map[string]float64{"X": 100, "Y": 50}, doc.SalesByCategory)
	assert.Equal(t, time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC), doc.GeneratedAt.UTC())

	_, err = validator.Decode([]byte(`{}`))
	assert.Error(t, err)
}

func TestDocumentValidator_Compact(t *testing.T) {
	validator := MustNewDocumentValidator()

	out, err := validator.Compact([]byte(validDocument))
	require.NoError(t, err)
	assert.Equal(t,
		`{"total_revenue":150.0,"total_orders":1,"average_order_value":150.0,"top_region":"CA","sales_by_category":{"X":100.0,"Y":50.0},"recent_sales_window":150.0,"generated_at":"2024-06-01T12:00:00Z"}`,
		string(out))

	_, err = validator.Compact([]byte(`not json`))
	assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
}
