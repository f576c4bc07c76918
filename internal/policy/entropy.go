package policy

import (
	"math"
	"unicode"
	"unicode/utf8"
)

// Alphabet sizes per character class, used for the entropy pool.
const (
	poolLowercase = 26
	poolUppercase = 26
	poolDigits    = 10
	poolSymbols   = 33
)

// EntropyBits estimates password entropy as length times log2 of the
// alphabet implied by the character classes present. It is an upper bound
// for a random password, not a crack-time prediction; the strength check
// covers pattern-aware scoring.
func EntropyBits(password string) float64 {
	if password == "" {
		return 0
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	pool := 0
	if lower {
		pool += poolLowercase
	}
	if upper {
		pool += poolUppercase
	}
	if digit {
		pool += poolDigits
	}
	if symbol {
		pool += poolSymbols
	}

	return float64(utf8.RuneCountInString(password)) * math.Log2(float64(pool))
}

// MinEntropy rejects passwords whose entropy estimate falls below min bits.
func MinEntropy(min float64) Check {
	return CheckFunc(func(ctx Context) []Violation {
		if min <= 0 {
			return nil
		}
		if bits := EntropyBits(ctx.Password); bits < min {
			return violationf(CheckEntropy,
				"password is too predictable: %.1f bits of entropy, at least %.1f required", bits, min)
		}
		return nil
	})
}
