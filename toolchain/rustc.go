// Package toolchain drives the external Rust compiler.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("pbr.toolchain")

// ErrNotFound is returned by Detect when no rustc is available.
var ErrNotFound = errors.New("rustc not found; install Rust or set PBR_RUSTC")

// Rustc invokes a rustc binary with a fixed set of extra flags.
type Rustc struct {
	Path  string
	Flags []string
}

// Stdio connects a child process to the caller's streams. Nil fields
// are left unconnected.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// CompileError reports a rustc failure together with its diagnostics.
type CompileError struct {
	Src    string
	Output string
	Err    error
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("rustc failed on %s: %v", e.Src, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

func (e *CompileError) Unwrap() error { return e.Err }

// Detect locates rustc from PBR_RUSTC, then PATH.
func Detect() (*Rustc, error) {
	if p := os.Getenv("PBR_RUSTC"); p != "" {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("PBR_RUSTC=%s: %w", p, err)
		}
		return &Rustc{Path: p}, nil
	}
	p, err := exec.LookPath("rustc")
	if err != nil {
		return nil, ErrNotFound
	}
	return &Rustc{Path: p}, nil
}

// Version returns the first line of `rustc --version`.
func (r *Rustc) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, r.Path, "--version").Output()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", r.Path, err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// Compile runs `rustc <src> -o <out>` plus the configured flags.
func (r *Rustc) Compile(ctx context.Context, src, out string) error {
	args := append([]string{src, "-o", out}, r.Flags...)
	cmd := exec.CommandContext(ctx, r.Path, args...)

	log.Debugf("running %s %s", r.Path, strings.Join(args, " "))
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &CompileError{Src: src, Output: output.String(), Err: err}
	}
	return nil
}

// Run executes bin with args and returns its exit status. A non-zero exit
// is not an error; failing to start or a cancelled context is.
func (r *Rustc) Run(ctx context.Context, bin string, args []string, stdio Stdio) (int, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdin = stdio.In
	cmd.Stdout = stdio.Out
	cmd.Stderr = stdio.Err

	err := cmd.Run()
	if ctx.Err() != nil {
		return -1, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("running %s: %w", bin, err)
	}
	return 0, nil
}
