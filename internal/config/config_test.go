package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("param", "filter", "")
	fs.Duration("match-timeout", 50*time.Millisecond, "")
	fs.String("format", "text", "")
	fs.Bool("verbose", false, "")
	return fs
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := Load(nil, "")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), s)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sieve.yaml"), []byte(
		"param: where\nmatch_timeout: 2s\nregex_timeout: 250ms\nformat: json\n",
	), 0o644))

	s, err := Load(newFlags(), "")
	require.NoError(t, err)
	assert.Equal(t, "where", s.Param)
	assert.Equal(t, 2*time.Second, s.MatchTimeout)
	assert.Equal(t, 250*time.Millisecond, s.RegexTimeout)
	assert.Equal(t, "json", s.Format)

	t.Setenv("SIEVE_PARAM", "q")
	s, err = Load(newFlags(), "")
	require.NoError(t, err)
	assert.Equal(t, "q", s.Param, "environment overrides the file")

	fs := newFlags()
	require.NoError(t, fs.Parse([]string{"--param", "f", "--match-timeout", "1s"}))
	s, err = Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, "f", s.Param, "flags override the environment")
	assert.Equal(t, time.Second, s.MatchTimeout)
}

func TestLoad_ExplicitFile(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("verbose: true\n"), 0o644))

	s, err := Load(nil, path)
	require.NoError(t, err)
	assert.True(t, s.Verbose)

	_, err = Load(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	tests := []struct {
		name string
		yaml string
	}{
		{"format", "format: xml\n"},
		{"param", "param: \" \"\n"},
		{"timeout", "match_timeout: -1s\n"},
		{"syntax", "param: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "sieve.yaml"), []byte(tc.yaml), 0o644))
			_, err := Load(nil, "")
			assert.Error(t, err)
		})
	}
}

func TestParserOptions(t *testing.T) {
	assert.Len(t, Defaults().ParserOptions(), 2)
}

// chdir changes the working directory to dir for the duration of the test,
// restoring the previous directory on cleanup.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
