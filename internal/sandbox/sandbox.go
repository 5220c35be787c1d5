// Package sandbox provides the isolated, disposable environment a
// scenario runs in. Each sandbox owns a unique directory tree holding
// both the materialized fixtures and the package manager's home/cache,
// and guarantees full removal on every exit path. The environment
// override is scoped to subprocess environments rather than mutated
// process-wide, so concurrent sandboxes cannot interfere.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// EnvHome is the environment variable the package manager reads its
// home/cache location from.
const EnvHome = "CONAN_HOME"

// SetupError reports that the isolated environment could not be
// created. It is fatal: without isolation the run would leak onto the
// host, so the scenario aborts before anything else happens.
type SetupError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SetupError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("sandbox setup failed at %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("sandbox setup failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *SetupError) Unwrap() error { return e.Err }

// IsSetupError reports whether err is (or wraps) a SetupError.
func IsSetupError(err error) bool {
	var se *SetupError
	return errors.As(err, &se)
}

// Sandbox is one scenario's disposable working tree:
//
//	<parent>/resolvecheck-<uuidv7>/
//	    home/   package manager home and cache (EnvHome points here)
//	    work/   materialized recipe fixtures
//
// UUIDv7 names are time-sortable, which keeps leftover directories from
// interrupted debugging sessions easy to read; uniqueness is what the
// isolation invariant actually relies on.
type Sandbox struct {
	dir     string
	removed bool
}

// New creates a fresh sandbox under parent (the system temp dir when
// parent is empty). Two concurrent sandboxes never share a directory.
func New(parent string) (*Sandbox, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	dir := filepath.Join(parent, "resolvecheck-"+uuid.Must(uuid.NewV7()).String())
	if err := os.MkdirAll(filepath.Join(dir, "home"), 0o755); err != nil {
		return nil, &SetupError{Path: dir, Err: err}
	}
	if err := os.MkdirAll(filepath.Join(dir, "work"), 0o755); err != nil {
		// Half-created tree still gets removed.
		os.RemoveAll(dir)
		return nil, &SetupError{Path: dir, Err: err}
	}
	return &Sandbox{dir: dir}, nil
}

// Dir returns the sandbox root directory.
func (s *Sandbox) Dir() string { return s.dir }

// HomeDir returns the directory EnvHome points at.
func (s *Sandbox) HomeDir() string { return filepath.Join(s.dir, "home") }

// WorkDir returns the directory fixtures are materialized under.
func (s *Sandbox) WorkDir() string { return filepath.Join(s.dir, "work") }

// Environ returns a copy of base with EnvHome pointing at the sandbox
// home. Any pre-existing EnvHome entry is dropped from the copy; the
// caller's environment is never touched, so the prior value is
// "restored" trivially when the run ends.
func (s *Sandbox) Environ(base []string) []string {
	env := make([]string, 0, len(base)+1)
	prefix := EnvHome + "="
	for _, kv := range base {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		env = append(env, kv)
	}
	return append(env, prefix+s.HomeDir())
}

// Remove deletes the sandbox tree. Idempotent; safe to defer from every
// path including setup failures and cancellation.
func (s *Sandbox) Remove() error {
	if s == nil || s.removed {
		return nil
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove sandbox %s: %w", s.dir, err)
	}
	s.removed = true
	return nil
}
