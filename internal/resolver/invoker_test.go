package resolver

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/resolvecheck/internal/sandbox"
	"github.com/roach88/resolvecheck/internal/testutil"
)

func quietInvoker(binary string, timeout time.Duration) *Invoker {
	return &Invoker{
		Binary:  binary,
		Timeout: timeout,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newSandbox(t *testing.T) *sandbox.Sandbox {
	t.Helper()
	sb, err := sandbox.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { sb.Remove() })
	return sb
}

func TestGraphInfo_Resolved(t *testing.T) {
	bin := testutil.StubResolver(t, testutil.ScriptResolving(diamondGraphJSON))
	sb := newSandbox(t)
	iv := quietInvoker(bin, 10*time.Second)
	ctx := context.Background()

	require.NoError(t, iv.Prepare(ctx, sb))
	require.NoError(t, iv.Export(ctx, sb, sb.WorkDir()))

	out, err := iv.GraphInfo(ctx, sb, sb.WorkDir())
	require.NoError(t, err)
	require.True(t, out.Resolved())
	assert.Nil(t, out.Conflict)
	assert.Equal(t, "1.9", out.Resolution.Versions["util"].String())
	assert.NotEmpty(t, out.Raw)
}

func TestGraphInfo_Conflict(t *testing.T) {
	diag := "ERROR: Version conflict: Conflict between util/[>=2.0 <3.0] and util/1.2 in the graph."
	bin := testutil.StubResolver(t, testutil.ScriptConflict(diag))
	sb := newSandbox(t)
	iv := quietInvoker(bin, 10*time.Second)

	out, err := iv.GraphInfo(context.Background(), sb, sb.WorkDir())
	require.NoError(t, err)
	require.NotNil(t, out.Conflict)
	assert.False(t, out.Resolved())
	assert.Contains(t, out.Conflict.Description, "Version conflict")
}

func TestGraphInfo_ConflictKeepsFullStderr(t *testing.T) {
	// Conan prints context lines around the conflict diagnostic; the
	// outcome carries the whole tail, not just the matched line.
	script := `#!/bin/sh
case "$1" in
graph)
echo "ERROR: Unable to build the dependency graph" >&2
echo "ERROR: Version conflict: Conflict between util/[>=2.0 <3.0] and util/1.2." >&2
echo "Run with -vverbose for more detail" >&2
exit 1
;;
*) exit 0 ;;
esac
`
	bin := testutil.StubResolver(t, script)
	sb := newSandbox(t)
	iv := quietInvoker(bin, 10*time.Second)

	out, err := iv.GraphInfo(context.Background(), sb, sb.WorkDir())
	require.NoError(t, err)
	require.NotNil(t, out.Conflict)

	assert.Contains(t, out.Conflict.Description, "Version conflict")
	assert.NotContains(t, out.Conflict.Description, "Unable to build")
	assert.Contains(t, out.Conflict.Stderr, "Unable to build the dependency graph")
	assert.Contains(t, out.Conflict.Stderr, "-vverbose")
	assert.Contains(t, string(out.Raw), "Version conflict")
}

func TestGraphInfo_FailureSurfacesExitCode(t *testing.T) {
	bin := testutil.StubResolver(t, testutil.ScriptFailing(6, "ERROR: Package 'ghost/[>=1.0]' not resolved"))
	sb := newSandbox(t)
	iv := quietInvoker(bin, 10*time.Second)

	_, err := iv.GraphInfo(context.Background(), sb, sb.WorkDir())
	require.Error(t, err)

	var ie *InvokeError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 6, ie.ExitCode)
	assert.Contains(t, ie.Stderr, "not resolved")
}

func TestGraphInfo_Timeout(t *testing.T) {
	bin := testutil.StubResolver(t, testutil.ScriptHanging(30))
	sb := newSandbox(t)
	iv := quietInvoker(bin, 200*time.Millisecond)

	start := time.Now()
	_, err := iv.GraphInfo(context.Background(), sb, sb.WorkDir())
	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestRun_ScopedEnvironment(t *testing.T) {
	// The stub records CONAN_HOME so the test can verify the override
	// reached the subprocess without touching the harness process env.
	script := `#!/bin/sh
case "$1" in
graph)
printf '{"graph":{"nodes":{"0":{"name":"app","version":"0.1.0","dependencies":{}}}}}'
echo "home=$CONAN_HOME" >&2
;;
*) exit 0 ;;
esac
`
	bin := testutil.StubResolver(t, script)
	sb := newSandbox(t)
	iv := quietInvoker(bin, 10*time.Second)

	stdout, stderr, err := iv.run(context.Background(), sb, sb.WorkDir(), "graph", "info", ".", "--format=json")
	require.NoError(t, err)
	assert.Contains(t, string(stderr), "home="+sb.HomeDir())
	assert.NotEmpty(t, stdout)
}

func TestGraphInfo_MissingBinary(t *testing.T) {
	sb := newSandbox(t)
	iv := quietInvoker("/nonexistent/conan-binary", time.Second)

	_, err := iv.GraphInfo(context.Background(), sb, sb.WorkDir())
	require.Error(t, err)
	assert.False(t, IsTimeout(err))
}
