package build

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pbrlang/pbr/compiler"
	"github.com/pbrlang/pbr/toolchain"
)

// TestResult is the outcome of one test file.
type TestResult struct {
	File     string
	Tests    []string // test functions found in the file
	Passed   bool
	ExitCode int
	Output   string
	Err      error // transpile or toolchain failure, nil when the binary ran
	Duration time.Duration
}

// Summary aggregates a test run.
type Summary struct {
	Results []TestResult
	Passed  int
	Failed  int
}

// OK reports whether every file passed.
func (s *Summary) OK() bool { return s.Failed == 0 }

// TestFiles lists the .pbr files a test run over path covers: path itself
// when it is a .pbr file, otherwise every .pbr file below it, sorted.
func TestFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("test path %s: %w", path, err)
	}
	if !info.IsDir() {
		if filepath.Ext(path) != ".pbr" {
			return nil, fmt.Errorf("%s is neither a directory nor a .pbr file", path)
		}
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && p != path && (d.Name() == ".pbr" || d.Name() == "alvo") {
			return filepath.SkipDir
		}
		if !d.IsDir() && filepath.Ext(p) == ".pbr" {
			files = append(files, p)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// Test builds and runs every test file under path. A file passes when its
// binary exits with status 0. Per-file failures are recorded in the
// summary; only an unreadable path is returned as an error.
func (b *Builder) Test(ctx context.Context, path string) (*Summary, error) {
	files, err := TestFiles(path)
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		r := b.testFile(ctx, file)
		if r.Passed {
			sum.Passed++
			log.Infof("ok   %s (%s)", file, r.Duration.Round(time.Millisecond))
		} else {
			sum.Failed++
			log.Infof("FAIL %s", file)
		}
		sum.Results = append(sum.Results, r)
	}
	return sum, nil
}

func (b *Builder) testFile(ctx context.Context, file string) (r TestResult) {
	start := time.Now()
	r = TestResult{File: file, ExitCode: -1}
	defer func() { r.Duration = time.Since(start) }()

	src, err := os.ReadFile(file)
	if err != nil {
		r.Err = err
		return r
	}
	prog, err := compiler.Parse(string(src))
	if err != nil {
		r.Err = sourceError(file, err)
		return r
	}
	r.Tests = compiler.TestFunctions(prog)

	res, err := b.lower(file, string(src), prog, true)
	if err != nil {
		r.Err = err
		return r
	}

	var out bytes.Buffer
	stdio := toolchain.Stdio{
		Out: io.MultiWriter(&out, discardIfNil(b.Stdio.Out)),
		Err: io.MultiWriter(&out, discardIfNil(b.Stdio.Err)),
	}
	r.ExitCode, r.Err = b.runRust(ctx, stem(file), res.Rust, nil, stdio)
	r.Output = out.String()
	r.Passed = r.Err == nil && r.ExitCode == 0
	return r
}
