package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addresses = `records:
  - street: Invalidenstrasse 1
    city: Berlin
    zip: "10115"
  - street: Rue de Rivoli 9
    city: Paris
  - street: Main St 5
    city: Boston
    zip: "02108"
`

func writeAddresses(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "addresses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(addresses), 0o644))
	return path
}

func TestEvalCommand_Text(t *testing.T) {
	out, _, err := execute(t, "eval", "filter[score][$gt]=80")
	require.NoError(t, err)
	assert.Equal(t, "Ada\nCarol\n2 of 4 record(s) matched Score > 80\n", out)
}

func TestEvalCommand_Remote(t *testing.T) {
	out, _, err := execute(t, "eval", "filter[name][$regex]=^(A|C)&filter[tags][$contains]=go", "--remote")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada\nCarol\n")
	assert.Contains(t, out, "(store agrees)")
}

func TestEvalCommand_RecordsFile(t *testing.T) {
	path := writeAddresses(t)

	out, _, err := execute(t, "eval", "filter[city][$startswith]=B", "--shape", "address", "-r", path, "--key", "street", "--remote")
	require.NoError(t, err)
	assert.Contains(t, out, "Invalidenstrasse 1\nMain St 5\n2 of 3 record(s) matched")
}

func TestEvalCommand_JSON(t *testing.T) {
	out, _, err := execute(t, "eval", "filter[rank][$null]", "--key", "id", "--format", "json")
	require.NoError(t, err)

	var result EvalResult
	resp := decodeData(t, out, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 4, result.Total)
	assert.Equal(t, []string{
		"6f1c2a8e-1b7d-4c1e-9a53-0b1f3c2d4e5f",
		"0e9d8c7b-6a5f-4e3d-8c2b-1a0f9e8d7c6b",
		"f0e1d2c3-b4a5-4697-8879-6a5b4c3d2e1f",
	}, result.Matched)
	require.Len(t, result.Records, 3)
	first, ok := result.Records[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", first["name"])
}

func TestEvalCommand_NoMatches(t *testing.T) {
	out, _, err := execute(t, "eval", "filter[age][$gt]=100")
	require.NoError(t, err)
	assert.Equal(t, "0 of 4 record(s) matched Age > 100\n", out)
}

func TestEvalCommand_Errors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		code     string
	}{
		{"missing records file", []string{"filter[a]=1", "--shape", "address", "-r", "/nonexistent/records.yaml"}, ExitCommandError, ErrCodeNotFound},
		{"records required", []string{"filter[a]=1", "--shape", "address"}, ExitCommandError, ErrCodeRecords},
		{"bad key", []string{"filter[a]=1", "--key", "missing"}, ExitCommandError, ErrCodeGeneric},
		{"malformed value", []string{"filter[age]=old"}, ExitFailure, ErrCodeCoercion},
		{"bad pattern", []string{"filter[name][$regex]=("}, ExitFailure, ErrCodeEvaluation},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, append([]string{"eval"}, tc.args...)...)
			require.Error(t, err)
			assert.Equal(t, tc.exitCode, GetExitCode(err))
			assert.Contains(t, err.Error(), tc.code)
		})
	}
}

func TestEvalCommand_UndecodableRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- planet: Mars\n"), 0o644))

	_, _, err := execute(t, "eval", "filter[city]=Paris", "--shape", "address", "-r", path, "--key", "city")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeRecords)
}
