// Package js executes JavaScript in an isolated goja VM.
//
// Each run gets a fresh VM with Node globals removed, a capturing
// console, and an interrupt-based timeout. Sandboxed code cannot reach
// the filesystem, the network, or the host runtime.
package js

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/codepair/backend/internal/exec"
)

// Config defines runtime limits.
type Config struct {
	Timeout        time.Duration // Execution timeout
	MaxCallStack   int           // goja call stack depth limit
	MaxOutputBytes int           // Cap on captured console output
}

// DefaultConfig returns production-ready limits.
func DefaultConfig() Config {
	return Config{
		Timeout:        5 * time.Second,
		MaxCallStack:   1024,
		MaxOutputBytes: 64 * 1024,
	}
}

// Runtime is a JavaScript executor. It is safe for concurrent use;
// every Execute call builds its own VM so runs cannot observe each
// other's globals.
type Runtime struct {
	config Config
}

// New creates a JavaScript executor.
func New(config Config) *Runtime {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.MaxCallStack <= 0 {
		config.MaxCallStack = def.MaxCallStack
	}
	if config.MaxOutputBytes <= 0 {
		config.MaxOutputBytes = def.MaxOutputBytes
	}
	return &Runtime{config: config}
}

// Execute runs a script and captures console output. A thrown value
// becomes Result.Stderr, not an error; the error return is for executor
// faults only.
func (r *Runtime) Execute(ctx context.Context, source string) (*exec.Result, error) {
	vm := goja.New()
	vm.SetMaxCallStackSize(r.config.MaxCallStack)

	capture := newCapture(r.config.MaxOutputBytes)
	if err := setupGlobals(vm, capture); err != nil {
		return nil, err
	}

	timer := time.NewTimer(r.config.Timeout)
	defer timer.Stop()
	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-timer.C:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	start := time.Now()
	_, err := vm.RunString(source)
	result := &exec.Result{
		Stdout:   capture.String(),
		Duration: time.Since(start),
	}

	if err != nil {
		result.Failed = true
		result.Stderr = renderError(err)
	}
	return result, nil
}

// renderError turns a goja failure into the text a developer expects to
// see in the output panel.
func renderError(err error) string {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return exc.String()
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		return strings.TrimSpace(interrupted.String())
	}
	return err.Error()
}

// setupGlobals strips dangerous globals and installs the capturing
// console plus no-op timers.
func setupGlobals(vm *goja.Runtime, capture *outputCapture) error {
	vm.Set("require", goja.Undefined())
	vm.Set("process", goja.Undefined())
	vm.Set("module", goja.Undefined())
	vm.Set("exports", goja.Undefined())

	console := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error"} {
		if err := console.Set(level, makeConsoleFunc(capture)); err != nil {
			return err
		}
	}
	if err := vm.Set("console", console); err != nil {
		return err
	}

	noop := func(call goja.FunctionCall) goja.Value { return goja.Undefined() }
	vm.Set("setTimeout", noop)
	vm.Set("setInterval", noop)

	return nil
}

func makeConsoleFunc(capture *outputCapture) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		capture.WriteLine(strings.Join(parts, " "))
		return goja.Undefined()
	}
}
