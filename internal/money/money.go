// Package money converts the major-unit amounts clients send into the
// smallest currency unit the payment provider charges in.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var ErrInvalidMoney = errors.New("invalid money amount")

// Stripe charges these currencies in whole units.
var zeroDecimal = map[string]bool{
	"bif": true, "clp": true, "djf": true, "gnf": true,
	"jpy": true, "kmf": true, "krw": true, "mga": true,
	"pyg": true, "rwf": true, "ugx": true, "vnd": true,
	"vuv": true, "xaf": true, "xof": true, "xpf": true,
}

// Exponent is the number of minor-unit digits for an ISO currency code.
func Exponent(currency string) int {
	if zeroDecimal[strings.ToLower(strings.TrimSpace(currency))] {
		return 0
	}
	return 2
}

// ToMinorUnits scales a non-negative major amount by the currency's
// exponent, rounding half away from zero.
func ToMinorUnits(major float64, currency string) (int64, error) {
	if math.IsNaN(major) || math.IsInf(major, 0) || major < 0 {
		return 0, ErrInvalidMoney
	}
	scaled := math.Round(major * math.Pow10(Exponent(currency)))
	// float64 holds integers exactly up to 2^53
	if scaled > 1<<53 {
		return 0, fmt.Errorf("%w: %v %s is too large", ErrInvalidMoney, major, currency)
	}
	return int64(scaled), nil
}
