// Package build turns PBR sources into Rust, binaries and release archives.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/pbrlang/pbr/cache"
	"github.com/pbrlang/pbr/compiler"
	"github.com/pbrlang/pbr/compiler/hash"
	"github.com/pbrlang/pbr/toolchain"
)

var log = commonlog.GetLogger("pbr.build")

// ErrNoToolchain is returned by operations that need rustc when the
// Builder has none.
var ErrNoToolchain = errors.New("no Rust toolchain configured")

// Builder runs the pipeline. Cache may be nil to disable caching; Rustc
// is only needed by operations that produce binaries.
type Builder struct {
	Cache *cache.Store
	Rustc *toolchain.Rustc
	Stdio toolchain.Stdio
}

// Result is the outcome of transpiling one source file.
type Result struct {
	Path    string
	Source  string
	Rust    string
	Program *compiler.Program
	Key     []byte
	Cached  bool
}

// Transpile reads path and lowers it to Rust, consulting the cache by
// program fingerprint.
func (b *Builder) Transpile(path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return b.TranspileSource(path, string(src))
}

// TranspileSource is Transpile for source already in memory. path is
// only used in errors and logs.
func (b *Builder) TranspileSource(path, src string) (*Result, error) {
	prog, err := compiler.Parse(src)
	if err != nil {
		return nil, sourceError(path, err)
	}
	return b.lower(path, src, prog, false)
}

// lower generates Rust for prog through the cache. Test builds use a
// distinct key because their main differs.
func (b *Builder) lower(path, src string, prog *compiler.Program, tests bool) (*Result, error) {
	res := &Result{Path: path, Source: src, Program: prog, Key: hash.Key(prog)}
	if tests {
		res.Key = append(res.Key, 't')
	}

	if b.Cache != nil {
		entry, err := b.Cache.Get(res.Key)
		switch {
		case err == nil && entry.GeneratorVersion == compiler.GeneratorVersion:
			log.Debugf("cache hit for %s", path)
			res.Rust = entry.Rust
			res.Cached = true
			return res, nil
		case err != nil && !errors.Is(err, cache.ErrNotFound):
			log.Warningf("cache lookup for %s: %v", path, err)
		}
	}

	var err error
	if tests {
		res.Rust, err = compiler.GenerateTests(prog)
	} else {
		res.Rust, err = compiler.Generate(prog)
	}
	if err != nil {
		return nil, sourceError(path, err)
	}

	if b.Cache != nil {
		entry := &cache.Entry{Rust: res.Rust, Source: src, GeneratorVersion: compiler.GeneratorVersion}
		if err := b.Cache.Put(res.Key, entry); err != nil {
			log.Warningf("cache store for %s: %v", path, err)
		}
	}
	return res, nil
}

// sourceError prefixes a compiler error with the file it came from,
// producing "file.pbr:3:7: ..." for positioned errors.
func sourceError(path string, err error) error {
	if pos, ok := compiler.ErrorPosition(err); ok && strings.HasPrefix(err.Error(), pos.String()+":") {
		return fmt.Errorf("%s:%w", path, err)
	}
	return fmt.Errorf("%s: %w", path, err)
}

// RustPath returns where Convert writes the Rust for src when no output
// path is given: the source name with a .rs extension.
func RustPath(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + ".rs"
}

// BinaryPath returns the binary name for a Rust file.
func BinaryPath(rs string) string {
	return strings.TrimSuffix(rs, filepath.Ext(rs))
}

// Convert writes the Rust for path to out (RustPath(path) when empty) and,
// when compile is set, builds the binary next to it. It returns the paths
// written.
func (b *Builder) Convert(ctx context.Context, path, out string, compile bool) (rs, bin string, err error) {
	res, err := b.Transpile(path)
	if err != nil {
		return "", "", err
	}
	if out == "" {
		out = RustPath(path)
	}
	if err := os.WriteFile(out, []byte(res.Rust), 0o644); err != nil {
		return "", "", fmt.Errorf("cannot write %s: %w", out, err)
	}
	log.Infof("wrote %s", out)
	if !compile {
		return out, "", nil
	}

	if b.Rustc == nil {
		return out, "", ErrNoToolchain
	}
	bin = BinaryPath(out)
	if err := b.Rustc.Compile(ctx, out, bin); err != nil {
		return out, "", err
	}
	log.Infof("built %s", bin)
	return out, bin, nil
}

// compileTemp writes rust into a fresh temp dir and compiles it. The
// caller removes the returned dir.
func (b *Builder) compileTemp(ctx context.Context, name, rust string) (dir, bin string, err error) {
	if b.Rustc == nil {
		return "", "", ErrNoToolchain
	}
	dir, err = os.MkdirTemp("", "pbr-")
	if err != nil {
		return "", "", err
	}
	rs := filepath.Join(dir, name+".rs")
	if err := os.WriteFile(rs, []byte(rust), 0o644); err != nil {
		os.RemoveAll(dir)
		return "", "", err
	}
	bin = filepath.Join(dir, name)
	if err := b.Rustc.Compile(ctx, rs, bin); err != nil {
		os.RemoveAll(dir)
		return "", "", err
	}
	return dir, bin, nil
}

// Run transpiles, compiles and executes path with args, returning the
// program's exit status.
func (b *Builder) Run(ctx context.Context, path string, args []string) (int, error) {
	res, err := b.Transpile(path)
	if err != nil {
		return -1, err
	}
	return b.runRust(ctx, stem(path), res.Rust, args, b.Stdio)
}

// RunSource is Run for source held in memory; name labels errors and the
// temporary binary.
func (b *Builder) RunSource(ctx context.Context, name, src string, args []string) (int, error) {
	res, err := b.TranspileSource(name, src)
	if err != nil {
		return -1, err
	}
	return b.runRust(ctx, stem(name), res.Rust, args, b.Stdio)
}

func (b *Builder) runRust(ctx context.Context, name, rust string, args []string, stdio toolchain.Stdio) (int, error) {
	dir, bin, err := b.compileTemp(ctx, name, rust)
	if err != nil {
		return -1, err
	}
	defer os.RemoveAll(dir)
	return b.Rustc.Run(ctx, bin, args, stdio)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func discardIfNil(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
