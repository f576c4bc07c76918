package policy

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinLength requires at least min characters in total.
func MinLength(min int) Check {
	return CheckFunc(func(ctx Context) []Violation {
		if min <= 0 {
			return nil
		}
		if n := utf8.RuneCountInString(ctx.Password); n < min {
			return violationf(CheckMinLength,
				"password must be at least %d characters long (it has %d)", min, n)
		}
		return nil
	})
}

func countClass(s string, class func(rune) bool) int {
	n := 0
	for _, r := range s {
		if class(r) {
			n++
		}
	}
	return n
}

func minClassCount(id, noun string, min int, class func(rune) bool) Check {
	return CheckFunc(func(ctx Context) []Violation {
		if min <= 0 {
			return nil
		}
		if n := countClass(ctx.Password, class); n < min {
			return violationf(id,
				"password must contain at least %d %s (it has %d)", min, noun, n)
		}
		return nil
	})
}

// MinLetters requires at least min letters.
func MinLetters(min int) Check {
	return minClassCount(CheckLetterCount, "letters", min, unicode.IsLetter)
}

// MinLowercase requires at least min lowercase letters.
func MinLowercase(min int) Check {
	return minClassCount(CheckLowercaseCount, "lowercase letters", min, unicode.IsLower)
}

// MinUppercase requires at least min uppercase letters.
func MinUppercase(min int) Check {
	return minClassCount(CheckUppercaseCount, "uppercase letters", min, unicode.IsUpper)
}

// MinDigits requires at least min digits.
func MinDigits(min int) Check {
	return minClassCount(CheckDigitCount, "digits", min, unicode.IsDigit)
}

// MinSymbols requires at least min symbol characters.
func MinSymbols(min int) Check {
	return minClassCount(CheckSymbolCount, "symbols", min, func(r rune) bool {
		return unicode.IsSymbol(r) || unicode.IsPunct(r)
	})
}

// MaxConsecutive rejects passwords containing a run of identical characters
// longer than max. Single linear scan.
func MaxConsecutive(max int) Check {
	return CheckFunc(func(ctx Context) []Violation {
		if max <= 0 {
			return nil
		}
		var (
			prev    rune
			run     int
			longest int
		)
		for _, r := range ctx.Password {
			if r == prev {
				run++
			} else {
				prev = r
				run = 1
			}
			if run > longest {
				longest = run
			}
		}
		if longest > max {
			return violationf(CheckConsecutive,
				"password must not contain more than %d identical characters in a row (it has %d)", max, longest)
		}
		return nil
	})
}

// CommonSequences rejects passwords containing any of the configured weak
// sequences. Matching is case-insensitive substring containment.
func CommonSequences(sequences []string) Check {
	lowered := make([]string, 0, len(sequences))
	for _, s := range sequences {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			lowered = append(lowered, s)
		}
	}
	return CheckFunc(func(ctx Context) []Violation {
		password := strings.ToLower(ctx.Password)
		for _, seq := range lowered {
			if strings.Contains(password, seq) {
				return violationf(CheckCommonSequence,
					"password contains the common sequence %q", seq)
			}
		}
		return nil
	})
}

// NotIdentity rejects passwords equal to the user's username, email address
// or the local part of the email address, ignoring case.
func NotIdentity() Check {
	return CheckFunc(func(ctx Context) []Violation {
		password := strings.ToLower(ctx.Password)
		if password == "" {
			return nil
		}
		candidates := []string{ctx.Username, ctx.Email}
		if at := strings.IndexByte(ctx.Email, '@'); at > 0 {
			candidates = append(candidates, ctx.Email[:at])
		}
		for _, c := range candidates {
			if c != "" && password == strings.ToLower(c) {
				return violationf(CheckIdentity,
					"password must not be the same as your username or email address")
			}
		}
		return nil
	})
}
