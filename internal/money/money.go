package money

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Places is the number of fractional digits every Money value carries.
const Places = 2

var ErrInvalidAmount = errors.New("invalid_amount")

// Money is a signed amount quantized to two decimals, rounded half-up.
// The zero value is 0.00.
type Money struct {
	d decimal.Decimal
}

var Zero = Money{}

func New(d decimal.Decimal) Money {
	return Money{d: d.Round(Places)}
}

func FromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -Places)}
}

// Parse converts v into Money and falls back to 0.00 when v cannot be read
// as a number. Batch paths use it; admin input goes through ParseStrict.
func Parse(v any) Money {
	m, err := ParseStrict(v)
	if err != nil {
		return Zero
	}
	return m
}

// ParseStrict converts v into Money. Strings may use either ',' or '.' as
// the decimal separator and may carry a trailing currency sign.
func ParseStrict(v any) (Money, error) {
	switch val := v.(type) {
	case Money:
		return val, nil
	case decimal.Decimal:
		return New(val), nil
	case int:
		return New(decimal.NewFromInt(int64(val))), nil
	case int64:
		return New(decimal.NewFromInt(val)), nil
	case float64:
		return New(decimal.NewFromFloat(val)), nil
	case float32:
		return New(decimal.NewFromFloat32(val)), nil
	case json.Number:
		return parseString(val.String())
	case string:
		return parseString(val)
	case []byte:
		return parseString(string(val))
	case nil:
		return Zero, ErrInvalidAmount
	default:
		return Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, v)
	}
}

func parseString(raw string) (Money, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "€")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, raw)
	}
	return New(d), nil
}

// MustParse is ParseStrict for literals; it panics on bad input.
func MustParse(s string) Money {
	m, err := ParseStrict(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) Sub(o Money) Money { return Money{d: m.d.Sub(o.d)} }

func (m Money) Neg() Money { return Money{d: m.d.Neg()} }

func (m Money) Abs() Money { return Money{d: m.d.Abs()} }

// MulInt multiplies by a whole quantity such as a drink count.
func (m Money) MulInt(n int64) Money {
	return Money{d: m.d.Mul(decimal.NewFromInt(n))}
}

func (m Money) Cmp(o Money) int { return m.d.Cmp(o.d) }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) IsNegative() bool { return m.d.IsNegative() }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) LessThan(o Money) bool { return m.d.LessThan(o.d) }

func (m Money) Decimal() decimal.Decimal { return m.d }

func (m Money) String() string { return m.d.StringFixed(Places) }

// Sum adds all values starting from 0.00.
func Sum(values ...Money) Money {
	total := Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*m = Zero
		return nil
	}
	raw = strings.Trim(raw, `"`)
	parsed, err := parseString(raw)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

func (m *Money) Scan(src any) error {
	if src == nil {
		*m = Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	*m = New(d)
	return nil
}

func (Money) GormDataType() string {
	return "numeric(12,2)"
}

// GormDBDataType keeps amounts as exact text on sqlite, where numeric affinity would coerce them to REAL.
func (Money) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "text"
	}
	return "numeric(12,2)"
}
