package utils

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	half    = decimal.NewFromFloat(0.5)
	Hundred = decimal.NewFromInt(100)
)

// RoundUnit rounds to the nearest whole currency unit. Halves round up
// (towards positive infinity), so 2.5 -> 3 and -2.5 -> -2.
func RoundUnit(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// Round2 rounds to cents for display and storage.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// NonNegative coerces negative values to zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// ParseAmount parses user-formatted numbers such as "1,234.50" or "INR 20,000".
// Anything unparseable yields zero; it never fails.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	s = strings.ReplaceAll(s, ",", "")

	neg := false
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '-' && b.Len() == 0:
			neg = true
		case (r >= '0' && r <= '9') || r == '.':
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return decimal.Zero
	}
	if neg {
		clean = "-" + clean
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Amount is a lenient JSON decimal: numbers, numeric strings, null and garbage
// all decode without error, garbage becoming zero. Set reports whether the key
// was present in the payload.
type Amount struct {
	decimal.Decimal
	Set bool
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d, Set: true}
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	a.Set = true
	a.Decimal = decimal.Zero

	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "" || raw == "null":
		return nil
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			a.Decimal = ParseAmount(s)
		}
		return nil
	}
	if d, err := decimal.NewFromString(raw); err == nil {
		a.Decimal = d
	}
	return nil
}

// Quantity is a lenient JSON whole number. It decodes like Amount and then
// truncates, so "3", 3.9 and "abc" become 3, 3 and 0.
type Quantity struct {
	Value int
	Set   bool
}

func (q *Quantity) UnmarshalJSON(b []byte) error {
	var a Amount
	_ = a.UnmarshalJSON(b)
	q.Value = int(a.IntPart())
	q.Set = true
	return nil
}
