package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrEmptyAmount     = errors.New("empty amount")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTooManyDecimals = errors.New("fractional component exceeds decimals")
	ErrNonPositive     = errors.New("amount must be greater than zero")
)

// ParseUnits converts a decimal string (e.g. "1.5") into its integer
// smallest-unit representation scaled by 10^decimals.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 {
		return nil, fmt.Errorf("invalid decimals: %d", decimals)
	}

	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, ErrEmptyAmount
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("%w: %s", ErrNonPositive, amount)
	}
	amount = strings.TrimPrefix(amount, "+")

	parts := strings.Split(amount, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	whole, rawFrac := parts[0], ""
	if len(parts) == 2 {
		rawFrac = parts[1]
	}
	if whole == "" && rawFrac == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if !isDigits(whole) || !isDigits(rawFrac) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}

	frac := strings.TrimRight(rawFrac, "0")
	if len(frac) > decimals {
		return nil, fmt.Errorf("%w: %s has more than %d decimals", ErrTooManyDecimals, amount, decimals)
	}

	frac += strings.Repeat("0", decimals-len(frac))
	digits := strings.TrimLeft(whole+frac, "0")
	if digits == "" {
		return nil, fmt.Errorf("%w: %s", ErrNonPositive, amount)
	}

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return v, nil
}

// FormatUnits is the inverse of ParseUnits. Trailing fractional zeros are dropped.
func FormatUnits(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	neg := v.Sign() < 0
	s := new(big.Int).Abs(v).String()

	if decimals > 0 {
		if len(s) <= decimals {
			s = strings.Repeat("0", decimals-len(s)+1) + s
		}
		whole, frac := s[:len(s)-decimals], strings.TrimRight(s[len(s)-decimals:], "0")
		s = whole
		if frac != "" {
			s += "." + frac
		}
	}
	if neg {
		s = "-" + s
	}
	return s
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
