package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	content := "# comment\nDragon\nmonkey\n\nfootball\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	d, err := LoadDictionary(path)
	require.NoError(t, err)
	require.Equal(t, 3, d.Len())
	require.True(t, d.Contains("dragon"))
	require.True(t, d.Contains("DRAGON"))
	require.False(t, d.Contains("# comment"))
}

func TestLoadDictionaryMissingFile(t *testing.T) {
	_, err := LoadDictionary(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
}

func TestDictionaryWordsExactMatch(t *testing.T) {
	d := NewDictionary([]string{"dragon", "monkey"})
	check := DictionaryWords(d, false)

	vs := check.Check(Context{Password: "Dragon"})
	require.Len(t, vs, 1)
	require.Equal(t, CheckDictionaryWord, vs[0].Check)

	// Exact mode does not flag embedded words
	require.Empty(t, check.Check(Context{Password: "mydragon77"}))
}

func TestDictionaryWordsContains(t *testing.T) {
	d := NewDictionary([]string{"dragon", "cat"})
	check := DictionaryWords(d, true)

	vs := check.Check(Context{Password: "mydragon77"})
	require.Len(t, vs, 1)
	require.Contains(t, vs[0].Message, "dragon")

	// Words under four characters never match in contains mode
	require.Empty(t, check.Check(Context{Password: "concatenate1"}))
}
