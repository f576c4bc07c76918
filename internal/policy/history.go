package policy

import (
	"golang.org/x/crypto/bcrypt"
)

// HistoryReuse rejects a candidate matching any of the retained previous
// passwords carried in the context. Comparison is done hash by hash with
// bcrypt; plaintext previous passwords are never available.
func HistoryReuse() Check {
	return CheckFunc(func(ctx Context) []Violation {
		for _, hash := range ctx.PreviousHashes {
			if bcrypt.CompareHashAndPassword([]byte(hash), []byte(ctx.Password)) == nil {
				return violationf(CheckHistoryReuse,
					"password matches one of your last %d passwords", len(ctx.PreviousHashes))
			}
		}
		return nil
	})
}
