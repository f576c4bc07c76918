// Package policy implements the password validator pipeline: an ordered set
// of independent checks run against a candidate password. Checks are pure
// predicates over a Context and report Violations instead of errors, so a
// caller can show the complete list of problems at once.
package policy

import (
	"fmt"

	"passguard/internal/config"
)

// Stable check identifiers surfaced in Violation.Check.
const (
	CheckMinLength      = "min_length"
	CheckLetterCount    = "letter_count"
	CheckLowercaseCount = "lowercase_count"
	CheckUppercaseCount = "uppercase_count"
	CheckDigitCount     = "digit_count"
	CheckSymbolCount    = "symbol_count"
	CheckConsecutive    = "consecutive"
	CheckCommonSequence = "common_sequence"
	CheckDictionaryWord = "dictionary_word"
	CheckEntropy        = "entropy"
	CheckIdentity       = "identity"
	CheckHistoryReuse   = "history_reuse"
	CheckStrength       = "strength"
)

// Violation is a single reported failure of one check.
type Violation struct {
	Check   string `json:"check"`
	Message string `json:"message"`
}

// Context carries everything a check may look at. It is constructed per
// validation call and never persisted.
type Context struct {
	Password string
	Username string
	Email    string
	// PreviousHashes are the bcrypt digests of the user's retained
	// password history, newest first.
	PreviousHashes []string
}

// Check validates one aspect of a candidate password.
type Check interface {
	Check(ctx Context) []Violation
}

// CheckFunc adapts a function to the Check interface.
type CheckFunc func(ctx Context) []Violation

// Check executes the underlying check function.
func (f CheckFunc) Check(ctx Context) []Violation {
	return f(ctx)
}

func violationf(check, format string, args ...interface{}) []Violation {
	return []Violation{{Check: check, Message: fmt.Sprintf(format, args...)}}
}

// Pipeline runs a fixed ordered list of checks.
type Pipeline struct {
	checks []Check
}

// New constructs a pipeline from the provided checks.
func New(checks ...Check) *Pipeline {
	copied := make([]Check, len(checks))
	copy(copied, checks)
	return &Pipeline{checks: copied}
}

// Validate runs every check and returns all violations. An empty result
// means the password is acceptable.
func (p *Pipeline) Validate(ctx Context) []Violation {
	var violations []Violation
	for _, check := range p.checks {
		violations = append(violations, check.Check(ctx)...)
	}
	return violations
}

// FirstViolation runs checks in order and stops at the first violation.
// Returns nil if the password passes every check.
func (p *Pipeline) FirstViolation(ctx Context) *Violation {
	for _, check := range p.checks {
		if vs := check.Check(ctx); len(vs) > 0 {
			return &vs[0]
		}
	}
	return nil
}

// FromConfig assembles the standard pipeline from the policy configuration.
// dict and strength may be nil, which drops the corresponding checks.
func FromConfig(cfg config.PolicyConfig, dict *Dictionary, strength StrengthChecker) *Pipeline {
	checks := []Check{
		MinLength(cfg.MinLength),
		MinLetters(cfg.MinLetters),
		MinLowercase(cfg.MinLowercase),
		MinUppercase(cfg.MinUppercase),
		MinDigits(cfg.MinDigits),
		MinSymbols(cfg.MinSymbols),
		MaxConsecutive(cfg.MaxConsecutive),
		CommonSequences(cfg.CommonSequences),
	}
	if dict != nil {
		checks = append(checks, DictionaryWords(dict, cfg.DictionaryContains))
	}
	checks = append(checks,
		MinEntropy(cfg.MinEntropyBits),
		NotIdentity(),
		HistoryReuse(),
	)
	if cfg.StrengthEnabled && strength != nil {
		checks = append(checks, Strength(strength, cfg.StrengthMinScore))
	}
	return New(checks...)
}
