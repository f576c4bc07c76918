package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fixedStrength struct {
	score int
}

func (f fixedStrength) Score(string, []string) int { return f.score }

func TestStrength(t *testing.T) {
	weak := Strength(fixedStrength{score: 1}, 3)
	vs := weak.Check(Context{Password: "whatever"})
	require.Len(t, vs, 1)
	require.Equal(t, CheckStrength, vs[0].Check)
	require.Contains(t, vs[0].Message, "1")
	require.Contains(t, vs[0].Message, "3")

	strong := Strength(fixedStrength{score: 4}, 3)
	require.Empty(t, strong.Check(Context{Password: "whatever"}))

	// Nil checker and zero score disable the check
	require.Empty(t, Strength(nil, 3).Check(Context{Password: "x"}))
	require.Empty(t, Strength(fixedStrength{score: 0}, 0).Check(Context{Password: "x"}))
}

func TestZxcvbnChecker(t *testing.T) {
	checker := ZxcvbnChecker{}

	require.LessOrEqual(t, checker.Score("password", nil), 1)
	require.GreaterOrEqual(t, checker.Score("vN3!xQ9#mL2@kP8z", nil), 3)

	// User inputs drag down passwords derived from identity
	withInputs := checker.Score("johndoe2024", []string{"johndoe"})
	require.LessOrEqual(t, withInputs, 2)
}
