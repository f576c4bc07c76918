package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func checkIDs(violations []Violation) []string {
	ids := make([]string, 0, len(violations))
	for _, v := range violations {
		ids = append(ids, v.Check)
	}
	return ids
}

func TestMinLength(t *testing.T) {
	check := MinLength(8)

	vs := check.Check(Context{Password: "short"})
	require.Len(t, vs, 1)
	require.Equal(t, CheckMinLength, vs[0].Check)
	require.Contains(t, vs[0].Message, "8")
	require.Contains(t, vs[0].Message, "5")

	require.Empty(t, check.Check(Context{Password: "longenough"}))

	// Disabled when the threshold is zero
	require.Empty(t, MinLength(0).Check(Context{Password: ""}))
}

func TestClassCounts(t *testing.T) {
	tests := []struct {
		name     string
		check    Check
		password string
		wantID   string
	}{
		{"letters", MinLetters(3), "ab1!", CheckLetterCount},
		{"lowercase", MinLowercase(2), "ABCd1!", CheckLowercaseCount},
		{"uppercase", MinUppercase(1), "abcd1!", CheckUppercaseCount},
		{"digits", MinDigits(2), "abcdE1!", CheckDigitCount},
		{"symbols", MinSymbols(1), "abcdE12", CheckSymbolCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs := tt.check.Check(Context{Password: tt.password})
			require.Len(t, vs, 1)
			require.Equal(t, tt.wantID, vs[0].Check)
		})
	}

	// A password satisfying every counter
	ctx := Context{Password: "Abcdef12!?"}
	for _, check := range []Check{MinLetters(3), MinLowercase(2), MinUppercase(1), MinDigits(2), MinSymbols(2)} {
		require.Empty(t, check.Check(ctx))
	}
}

func TestMaxConsecutive(t *testing.T) {
	check := MaxConsecutive(3)

	require.Empty(t, check.Check(Context{Password: "aaabbbccc"}))

	vs := check.Check(Context{Password: "xaaaay"})
	require.Len(t, vs, 1)
	require.Equal(t, CheckConsecutive, vs[0].Check)
	require.Contains(t, vs[0].Message, "4")

	require.Empty(t, MaxConsecutive(0).Check(Context{Password: "aaaaaaa"}))
}

func TestCommonSequences(t *testing.T) {
	check := CommonSequences([]string{"1234", "qwertyuiop"})

	vs := check.Check(Context{Password: "x1234y"})
	require.Len(t, vs, 1)
	require.Equal(t, CheckCommonSequence, vs[0].Check)

	// Case-insensitive
	vs = check.Check(Context{Password: "QwErTyUiOp!"})
	require.Len(t, vs, 1)

	require.Empty(t, check.Check(Context{Password: "n0th1ng-c0mm0n"}))
}

func TestNotIdentity(t *testing.T) {
	ctx := Context{Username: "johndoe", Email: "John.Doe@example.com"}

	for _, password := range []string{"johndoe", "JOHNDOE", "john.doe@example.com", "John.Doe"} {
		ctx.Password = password
		vs := NotIdentity().Check(ctx)
		require.Len(t, vs, 1, "expected %q to be rejected", password)
		require.Equal(t, CheckIdentity, vs[0].Check)
	}

	ctx.Password = "unrelated-Secret-9"
	require.Empty(t, NotIdentity().Check(ctx))
}
