package types

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SOLDecimals is the number of decimal places between SOL and lamports.
const SOLDecimals = 9

// LamportsPerSOL is the number of lamports per SOL.
const LamportsPerSOL uint64 = 1_000_000_000

// SolAmount is an amount of lamports. All arithmetic is integer arithmetic.
type SolAmount uint64

// Lamports returns the amount as a plain integer.
func (a SolAmount) Lamports() uint64 {
	return uint64(a)
}

// String renders the amount in SOL without float rounding, e.g. "0.024981836".
func (a SolAmount) String() string {
	return formatWithDecimals(uint64(a), SOLDecimals)
}

// Add returns a+b, or false if the sum overflows.
func (a SolAmount) Add(b SolAmount) (SolAmount, bool) {
	if uint64(a) > math.MaxUint64-uint64(b) {
		return 0, false
	}
	return a + b, true
}

// Sub returns a-b, or false if b is larger than a.
func (a SolAmount) Sub(b SolAmount) (SolAmount, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// Mul returns a*n, or false if the product overflows.
func (a SolAmount) Mul(n uint64) (SolAmount, bool) {
	if n != 0 && uint64(a) > math.MaxUint64/n {
		return 0, false
	}
	return SolAmount(uint64(a) * n), true
}

// Lamports builds an amount from a lamport count.
func Lamports(n uint64) SolAmount {
	return SolAmount(n)
}

// SOL builds an amount from a whole number of SOL, or false on overflow.
func SOL(n uint64) (SolAmount, bool) {
	return SolAmount(LamportsPerSOL).Mul(n)
}

// ParseSOL parses a decimal SOL string such as "1.5" into lamports.
// Digits past the ninth decimal place are rejected rather than rounded.
func ParseSOL(s string) (SolAmount, error) {
	n, err := parseWithDecimals(s, SOLDecimals)
	if err != nil {
		return 0, fmt.Errorf("invalid SOL amount %q: %w", s, err)
	}
	return SolAmount(n), nil
}

func formatWithDecimals(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

func parseWithDecimals(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty string")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && strings.Contains(frac, ".") {
		return 0, fmt.Errorf("invalid decimal format")
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		if strings.Trim(frac[decimals:], "0") != "" {
			return 0, fmt.Errorf("more than %d decimal places", decimals)
		}
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", decimals-len(frac))

	for _, r := range whole + frac {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid digit %q", r)
		}
	}
	return strconv.ParseUint(whole+frac, 10, 64)
}
