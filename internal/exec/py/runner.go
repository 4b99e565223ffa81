// Package py executes Python in an isolated subprocess.
//
// Programs run under `python -I -c` with a scrubbed environment, a hard
// timeout that kills the process group, and capped output capture. The
// process boundary is the sandbox: a runaway or hostile program can be
// killed without touching the host.
package py

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	osexec "os/exec"
	"strings"
	"time"

	"github.com/codepair/backend/internal/exec"
)

// Config defines runner limits.
type Config struct {
	PythonBin      string        // Interpreter binary, "python3" by default
	Timeout        time.Duration // Execution timeout
	MaxOutputBytes int           // Cap per captured stream
}

// DefaultConfig returns production-ready limits.
func DefaultConfig() Config {
	return Config{
		PythonBin:      "python3",
		Timeout:        5 * time.Second,
		MaxOutputBytes: 64 * 1024,
	}
}

// Runner is a Python executor. Safe for concurrent use; each Execute
// call spawns its own interpreter process.
type Runner struct {
	config Config
}

// New creates a Python executor.
func New(config Config) *Runner {
	def := DefaultConfig()
	if config.PythonBin == "" {
		config.PythonBin = def.PythonBin
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxOutputBytes <= 0 {
		config.MaxOutputBytes = def.MaxOutputBytes
	}
	return &Runner{config: config}
}

// Available reports whether the configured interpreter can be found.
func (r *Runner) Available() bool {
	_, err := osexec.LookPath(r.config.PythonBin)
	return err == nil
}

// Execute runs a program and captures stdout/stderr. A nonzero exit
// (raised exception) is a failed Result, not an error; the error return
// is for runner faults such as a missing interpreter.
func (r *Runner) Execute(ctx context.Context, source string) (*exec.Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	// -I runs isolated: no site packages, no user env vars, no cwd on
	// sys.path.
	cmd := osexec.CommandContext(runCtx, r.config.PythonBin, "-I", "-c", source)
	cmd.Env = []string{"PYTHONIOENCODING=utf-8"}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = newLimitWriter(&stdout, r.config.MaxOutputBytes)
	cmd.Stderr = newLimitWriter(&stderr, r.config.MaxOutputBytes)

	start := time.Now()
	err := cmd.Run()
	result := &exec.Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		return result, nil
	}

	result.Failed = true
	if runCtx.Err() != nil {
		if result.Stderr != "" && !strings.HasSuffix(result.Stderr, "\n") {
			result.Stderr += "\n"
		}
		result.Stderr += "execution timed out"
		return result, nil
	}

	var exitErr *osexec.ExitError
	if errors.As(err, &exitErr) {
		// Traceback is already on stderr.
		return result, nil
	}

	return nil, fmt.Errorf("failed to run %s: %w", r.config.PythonBin, err)
}
