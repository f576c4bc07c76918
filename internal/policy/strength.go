package policy

import (
	zxcvbn "github.com/nbutton23/zxcvbn-go"
)

// StrengthChecker scores a candidate password from 0 (trivially guessable)
// to 4. Implementations wrap an external strength estimation library; the
// pipeline treats the checker as opaque so it can be swapped out.
type StrengthChecker interface {
	Score(password string, userInputs []string) int
}

// ZxcvbnChecker scores passwords with the zxcvbn estimator.
type ZxcvbnChecker struct{}

// Score implements StrengthChecker.
func (ZxcvbnChecker) Score(password string, userInputs []string) int {
	return zxcvbn.PasswordStrength(password, userInputs).Score
}

// Strength delegates to an external strength checker and rejects passwords
// scoring below minScore. The username and email from the context are passed
// to the checker so passwords derived from them score lower.
func Strength(checker StrengthChecker, minScore int) Check {
	return CheckFunc(func(ctx Context) []Violation {
		if checker == nil || minScore <= 0 {
			return nil
		}
		var inputs []string
		if ctx.Username != "" {
			inputs = append(inputs, ctx.Username)
		}
		if ctx.Email != "" {
			inputs = append(inputs, ctx.Email)
		}
		if score := checker.Score(ctx.Password, inputs); score < minScore {
			return violationf(CheckStrength,
				"password is too weak (strength %d, at least %d required)", score, minScore)
		}
		return nil
	})
}
