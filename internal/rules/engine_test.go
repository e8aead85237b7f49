package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineLiteralAndSedRules(t *testing.T) {
	t.Parallel()

	engine, err := Parse(`
# remedy names
bella donna => Belladonna
s/\b(\d+)\s*c\b/${1}C/g
`, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, engine.Len())

	got, err := engine.Apply("try Bella Donna 30 c twice")
	require.NoError(t, err)
	assert.Equal(t, "try Belladonna 30C twice", got)
}

func TestEngineIteratesUntilStable(t *testing.T) {
	t.Parallel()

	engine, err := Parse("b => c\na => b\n", 5)
	require.NoError(t, err)

	got, err := engine.Apply("a")
	require.NoError(t, err)
	assert.Equal(t, "c", got)
}

func TestEngineIterationLimitStopsCycles(t *testing.T) {
	t.Parallel()

	engine, err := Parse("s/$/!/\n", 3)
	require.NoError(t, err)

	got, err := engine.Apply("x")
	require.NoError(t, err)
	assert.Equal(t, "x!!!", got)
}

func TestEngineLiteralContainingItsSourceAppliesOnce(t *testing.T) {
	t.Parallel()

	engine, err := Parse("arnica => Arnica montana\nx => xx\nmontana => Montana\n", 30)
	require.NoError(t, err)

	got, err := engine.Apply("arnica for x")
	require.NoError(t, err)
	assert.Equal(t, "Arnica Montana for xx", got)
}

func TestEngineSedFirstMatchOnlyWithoutGlobal(t *testing.T) {
	t.Parallel()

	engine, err := Parse("s#fever#temperature#\n", 1)
	require.NoError(t, err)

	got, err := engine.Apply("fever and fever")
	require.NoError(t, err)
	assert.Equal(t, "temperature and fever", got)
}

func TestEngineSedFirstMatchExpandsGroups(t *testing.T) {
	t.Parallel()

	engine, err := Parse(`s/(\d+) x/${1}X/`, 1)
	require.NoError(t, err)

	got, err := engine.Apply("6 x and 200 x")
	require.NoError(t, err)
	assert.Equal(t, "6X and 200 x", got)
}

func TestEngineLiteralStartingWithS(t *testing.T) {
	t.Parallel()

	engine, err := Parse("sore throat => pharyngitis\n", 1)
	require.NoError(t, err)

	got, err := engine.Apply("I have a Sore Throat")
	require.NoError(t, err)
	assert.Equal(t, "I have a pharyngitis", got)
}

func TestEngineLiteralReplacementIsNotExpanded(t *testing.T) {
	t.Parallel()

	engine, err := Parse("price => $1\n", 1)
	require.NoError(t, err)

	got, err := engine.Apply("price")
	require.NoError(t, err)
	assert.Equal(t, "$1", got)
}

func TestParseRejectsInvalidLines(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no arrow here":  "line 1: unsupported rule format",
		" => empty":      "line 1: literal rule source cannot be empty",
		"s/unterminated": "line 1: unterminated expression",
		"s/a/b/q":        `line 1: unsupported regex flag 'q'`,
		"\n\ns/(/x/":     "line 3: invalid regex",
	}
	for input, want := range cases {
		_, err := Parse(input, 1)
		require.Error(t, err, input)
		assert.Contains(t, err.Error(), want, input)
	}
}

func TestNewEngineMissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(filepath.Join(t.TempDir(), "absent.rules"), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, engine.Len())

	got, err := engine.Apply("unchanged")
	require.NoError(t, err)
	assert.Equal(t, "unchanged", got)
}

func TestNewEngineReadsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "substitutions.rules")
	require.NoError(t, os.WriteFile(path, []byte("arnica => Arnica montana\n"), 0o600))

	engine, err := NewEngine(path, 0)
	require.NoError(t, err)

	got, err := engine.Apply("take arnica")
	require.NoError(t, err)
	assert.Equal(t, "take Arnica montana", got)
}

func TestNewEngineReportsParseErrorWithPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.rules")
	require.NoError(t, os.WriteFile(path, []byte("not a rule\n"), 0o600))

	_, err := NewEngine(path, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
