// Package values converts record values between Go types and the decimal
// representation used for arithmetic and reductions.
package values

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/shopspring/decimal"
)

// ToDecimal converts a record value to a decimal.
// JSON numbers decode to float64, which is the common path; NewFromFloat
// converts it to an exact decimal representation. Strings are accepted when
// they hold a decimal literal.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case decimal.Decimal:
		return val, true
	case *decimal.Decimal:
		if val == nil {
			return decimal.Zero, false
		}
		return *val, true
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(val), true
	case float32:
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case int32:
		return decimal.NewFromInt32(val), true
	case int16:
		return decimal.NewFromInt(int64(val)), true
	case int8:
		return decimal.NewFromInt(int64(val)), true
	case uint:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(val)), 0), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(val), 0), true
	case uint32:
		return decimal.NewFromInt(int64(val)), true
	case uint16:
		return decimal.NewFromInt(int64(val)), true
	case uint8:
		return decimal.NewFromInt(int64(val)), true
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}

// ToString renders a record value as text for lookups and key fields.
func ToString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case []byte:
		return string(val), true
	case bool:
		return strconv.FormatBool(val), true
	case fmt.Stringer:
		return val.String(), true
	case nil:
		return "", false
	}
	if d, ok := ToDecimal(v); ok {
		return d.String(), true
	}
	return "", false
}
