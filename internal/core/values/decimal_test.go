package values

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestToDecimal(t *testing.T) {
	d := decimal.RequireFromString("3.14")

	tests := []struct {
		name   string
		value  any
		want   decimal.Decimal
		wantOK bool
	}{
		{name: "float64", value: 12.5, want: decimal.RequireFromString("12.5"), wantOK: true},
		{name: "float32", value: float32(7.25), want: decimal.RequireFromString("7.25"), wantOK: true},
		{name: "int", value: 512, want: decimal.NewFromInt(512), wantOK: true},
		{name: "int32", value: int32(8), want: decimal.NewFromInt(8), wantOK: true},
		{name: "int64", value: int64(9), want: decimal.NewFromInt(9), wantOK: true},
		{name: "uint64", value: uint64(math.MaxUint64), want: decimal.RequireFromString("18446744073709551615"), wantOK: true},
		{name: "uint8", value: uint8(74), want: decimal.NewFromInt(74), wantOK: true},
		{name: "decimal", value: d, want: d, wantOK: true},
		{name: "decimal pointer", value: &d, want: d, wantOK: true},
		{name: "nil decimal pointer", value: (*decimal.Decimal)(nil), want: decimal.Zero},
		{name: "valid decimal string", value: "42.125", want: decimal.RequireFromString("42.125"), wantOK: true},
		{name: "invalid string", value: "not-a-number", want: decimal.Zero},
		{name: "NaN", value: math.NaN(), want: decimal.Zero},
		{name: "infinity", value: math.Inf(1), want: decimal.Zero},
		{name: "bool", value: true, want: decimal.Zero},
		{name: "nil", value: nil, want: decimal.Zero},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToDecimal(tc.value)
			require.Equal(t, tc.wantOK, ok)
			require.True(t, tc.want.Equal(got), "want=%s got=%s", tc.want.String(), got.String())
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		name   string
		value  any
		want   string
		wantOK bool
	}{
		{name: "string", value: "10.0.0.1", want: "10.0.0.1", wantOK: true},
		{name: "bytes", value: []byte("abc"), want: "abc", wantOK: true},
		{name: "bool", value: false, want: "false", wantOK: true},
		{name: "int", value: 443, want: "443", wantOK: true},
		{name: "decimal", value: decimal.RequireFromString("1.50"), want: "1.5", wantOK: true},
		{name: "duration stringer", value: 2 * time.Second, want: "2s", wantOK: true},
		{name: "nil", value: nil},
		{name: "struct", value: struct{}{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ToString(tc.value)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.want, got)
		})
	}
}
