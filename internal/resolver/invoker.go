// Package resolver drives the external package manager as a black-box
// subprocess: it prepares the sandboxed home, exports fixture recipes
// into the cache, and asks for a resolved dependency graph. The binary
// is never linked against; the whole contract is "accepts a root recipe
// plus environment overrides, emits a graph or an error".
package resolver

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/roach88/resolvecheck/internal/sandbox"
)

// Defaults for Invoker fields left zero.
const (
	DefaultBinary  = "conan"
	DefaultTimeout = 60 * time.Second
)

// stderrTailLimit bounds how much resolver stderr is carried in errors.
const stderrTailLimit = 4096

// Invoker runs resolver commands inside a sandbox environment.
type Invoker struct {
	// Binary is the resolver executable. Defaults to DefaultBinary.
	Binary string

	// Timeout bounds each invocation. Defaults to DefaultTimeout.
	Timeout time.Duration

	// Logger receives per-command diagnostics. Defaults to slog.Default.
	Logger *slog.Logger
}

// Outcome is the result of a graph resolution: exactly one of
// Resolution or Conflict is set.
type Outcome struct {
	Resolution *Resolution
	Conflict   *Conflict

	// Raw is the resolver output kept for the run trace: the graph
	// JSON on success, the stderr tail on a conflict.
	Raw []byte
}

// Resolved reports whether the outcome carries a successful resolution.
func (o *Outcome) Resolved() bool { return o.Resolution != nil }

// Prepare readies a fresh sandbox home for offline resolution: detects
// a default profile and disables the default remote, since every
// fixture is local and no package may be fetched from the network.
func (iv *Invoker) Prepare(ctx context.Context, sb *sandbox.Sandbox) error {
	if _, _, err := iv.run(ctx, sb, sb.WorkDir(), "profile", "detect", "-f"); err != nil {
		return err
	}
	_, _, err := iv.run(ctx, sb, sb.WorkDir(), "remote", "disable", "conancenter")
	return err
}

// Export places the recipe in dir into the sandboxed cache so the root
// resolution can see it.
func (iv *Invoker) Export(ctx context.Context, sb *sandbox.Sandbox, dir string) error {
	_, _, err := iv.run(ctx, sb, dir, "export", ".")
	return err
}

// GraphInfo resolves the root recipe in rootDir and returns the
// outcome. A recognized version-conflict diagnostic becomes a Conflict
// outcome; timeouts and any other non-zero exit are returned as errors
// (TimeoutError, InvokeError) with the exit code surfaced.
func (iv *Invoker) GraphInfo(ctx context.Context, sb *sandbox.Sandbox, rootDir string) (*Outcome, error) {
	stdout, stderr, err := iv.run(ctx, sb, rootDir, "graph", "info", ".", "--format=json")
	if err != nil {
		var ie *InvokeError
		if errors.As(err, &ie) {
			if c := classifyConflict(stderr); c != nil {
				return &Outcome{Conflict: c, Raw: stderr}, nil
			}
		}
		return nil, err
	}

	res, err := ParseGraph(stdout)
	if err != nil {
		return nil, err
	}
	return &Outcome{Resolution: res, Raw: stdout}, nil
}

// run executes one resolver command with the sandbox-scoped environment
// and the configured timeout.
func (iv *Invoker) run(ctx context.Context, sb *sandbox.Sandbox, dir string, args ...string) (stdout, stderr []byte, err error) {
	binary := iv.Binary
	if binary == "" {
		binary = DefaultBinary
	}
	timeout := iv.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := iv.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(tctx, binary, args...)
	cmd.Dir = dir
	cmd.Env = sb.Environ(os.Environ())

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	display := binary + " " + strings.Join(args, " ")
	start := time.Now()
	runErr := cmd.Run()
	logger.Debug("resolver command finished",
		"command", display,
		"dir", dir,
		"duration", time.Since(start),
		"err", runErr,
	)

	stdout = outBuf.Bytes()
	stderr = errBuf.Bytes()

	if runErr == nil {
		return stdout, stderr, nil
	}

	if tctx.Err() == context.DeadlineExceeded {
		return stdout, stderr, &TimeoutError{Command: display, Timeout: timeout}
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return stdout, stderr, &InvokeError{
			Command:  display,
			ExitCode: exitErr.ExitCode(),
			Stderr:   tail(stderr),
		}
	}
	return stdout, stderr, &InvokeError{Command: display, ExitCode: -1, Stderr: runErr.Error()}
}

// classifyConflict recognizes the resolver's version-conflict
// diagnostics on stderr. The matched line becomes the description; the
// full stderr tail rides along for the trace.
func classifyConflict(stderr []byte) *Conflict {
	for _, line := range strings.Split(string(stderr), "\n") {
		line = strings.TrimSpace(line)
		if strings.Contains(line, "Version conflict") || strings.Contains(line, "Conflict between") {
			return &Conflict{Description: line, Stderr: tail(stderr)}
		}
	}
	return nil
}

// tail returns the trailing portion of resolver stderr, trimmed.
func tail(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > stderrTailLimit {
		s = s[len(s)-stderrTailLimit:]
	}
	return s
}
