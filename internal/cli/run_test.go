package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/resolvecheck/internal/testutil"
)

// diamondGraphJSON is the correct resolver answer for the builtin
// diamond-intersection scenario.
const diamondGraphJSON = `{
  "graph": {
    "nodes": {
      "0": {"name": "app", "version": "0.1.0",
            "dependencies": {"1": {"ref": "lib_a/0.1.0"}, "2": {"ref": "lib_b/0.1.0"}}},
      "1": {"name": "lib_a", "version": "0.1.0",
            "dependencies": {"3": {"ref": "util/1.9"}}},
      "2": {"name": "lib_b", "version": "0.1.0",
            "dependencies": {"3": {"ref": "util/1.9"}}},
      "3": {"name": "util", "version": "1.9", "dependencies": {}}
    }
  }
}`

func runCLI(t *testing.T, script string, extra ...string) (*bytes.Buffer, error) {
	t.Helper()
	return runCLIFormat(t, script, "text", extra...)
}

func runCLIFormat(t *testing.T, script, format string, extra ...string) (*bytes.Buffer, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)

	args := []string{
		"--conan", testutil.StubResolver(t, script),
		"--sandbox-dir", t.TempDir(),
		"--filter", "diamond-*",
	}
	cmd.SetArgs(append(args, extra...))
	return buf, cmd.Execute()
}

func TestRunCommand_BuiltinPass(t *testing.T) {
	buf, err := runCLI(t, testutil.ScriptResolving(diamondGraphJSON))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "✓ diamond-intersection")
	assert.Contains(t, out, "Run Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestRunCommand_BuiltinFailure(t *testing.T) {
	buggy := `{
  "graph": {
    "nodes": {
      "0": {"name": "app", "version": "0.1.0", "dependencies": {}},
      "1": {"name": "util", "version": "2.5", "dependencies": {}}
    }
  }
}`
	buf, err := runCLI(t, testutil.ScriptResolving(buggy))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	out := buf.String()
	assert.Contains(t, out, "✗ diamond-intersection")
	assert.Contains(t, out, "Run Summary: 0 passed, 1 failed, 1 total")
}

func TestRunCommand_ScenariosDir(t *testing.T) {
	dir := t.TempDir()
	scenario := `name: custom-diamond
description: diamond from a file
root: app
recipes:
  - name: util
    version: "1.9"
  - name: lib_a
    version: "0.1.0"
    requires:
      - dep: util
        range: "[>=1.0 <2.0]"
  - name: lib_b
    version: "0.1.0"
    requires:
      - dep: util
        range: "[>=1.5 <3.0]"
  - name: app
    version: "0.1.0"
    requires:
      - dep: lib_a
        range: "[>=0.1.0]"
      - dep: lib_b
        range: "[>=0.1.0]"
expect:
  versions:
    util: "1.9"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(scenario), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{
		"--conan", testutil.StubResolver(t, testutil.ScriptResolving(diamondGraphJSON)),
		"--sandbox-dir", t.TempDir(),
		dir,
	})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "✓ custom-diamond")
}

func TestRunCommand_NonExistentScenariosDir(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"/nonexistent/directory"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scenarios directory not found")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_BrokenScenarioFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"),
		[]byte("name: x\nexpects: typo\n"), 0o644))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text"}
	cmd := NewRunCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunCommand_FilterNoMatch(t *testing.T) {
	buf, err := runCLI(t, testutil.ScriptResolving(diamondGraphJSON), "--filter", "zzz-*")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No scenarios matched.")
}

func TestRunCommand_JSONOutput(t *testing.T) {
	buf, err := runCLIFormat(t, testutil.ScriptResolving(diamondGraphJSON), "json")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "diamond-intersection", resp.Data.Scenarios[0].Scenario)
}
