package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// StubResolver writes an executable shell script standing in for the
// external resolver binary and returns its path. The script receives
// the same subcommands the invoker issues (profile, remote, export,
// graph) and the sandbox-scoped environment, so tests can exercise the
// full invocation path without the real package manager installed.
func StubResolver(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "conan-stub")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub resolver: %v", err)
	}
	return path
}

// ScriptResolving returns a stub script that answers every preparatory
// subcommand with success and emits graphJSON for `graph info`.
func ScriptResolving(graphJSON string) string {
	return fmt.Sprintf(`#!/bin/sh
case "$1" in
graph)
cat <<'GRAPH_EOF'
%s
GRAPH_EOF
;;
*) exit 0 ;;
esac
`, graphJSON)
}

// ScriptConflict returns a stub script that fails `graph info` with the
// resolver's version-conflict diagnostic on stderr.
func ScriptConflict(diagnostic string) string {
	return fmt.Sprintf(`#!/bin/sh
case "$1" in
graph)
echo %q >&2
exit 1
;;
*) exit 0 ;;
esac
`, diagnostic)
}

// ScriptFailing returns a stub script that fails `graph info` with an
// arbitrary diagnostic and exit code.
func ScriptFailing(code int, diagnostic string) string {
	return fmt.Sprintf(`#!/bin/sh
case "$1" in
graph)
echo %q >&2
exit %d
;;
*) exit 0 ;;
esac
`, diagnostic, code)
}

// ScriptHanging returns a stub script whose `graph info` sleeps for the
// given number of seconds, for timeout tests.
func ScriptHanging(seconds int) string {
	return fmt.Sprintf(`#!/bin/sh
case "$1" in
graph) sleep %d ;;
*) exit 0 ;;
esac
`, seconds)
}
