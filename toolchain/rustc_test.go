package toolchain

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

const fakeRustc = `#!/bin/sh
if [ "$1" = "--version" ]; then
	echo "rustc 1.80.0 (falso)"
	exit 0
fi
src="$1"
out="$3"
if grep -q "NAO_COMPILA" "$src"; then
	echo "error[E0425]: cannot find value" >&2
	exit 1
fi
printf '#!/bin/sh\necho "args: $*"\nread linha\necho "leu: $linha"\nexit 3\n' > "$out"
chmod +x "$out"
`

func fakeToolchain(t *testing.T) *Rustc {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake rustc needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "rustc")
	if err := os.WriteFile(path, []byte(fakeRustc), 0755); err != nil {
		t.Fatal(err)
	}
	return &Rustc{Path: path}
}

func TestDetectFromEnv(t *testing.T) {
	r := fakeToolchain(t)
	t.Setenv("PBR_RUSTC", r.Path)
	got, err := Detect()
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if got.Path != r.Path {
		t.Errorf("Path = %q, want %q", got.Path, r.Path)
	}
}

func TestDetectMissing(t *testing.T) {
	t.Setenv("PBR_RUSTC", "")
	t.Setenv("PATH", t.TempDir())
	if _, err := Detect(); !errors.Is(err, ErrNotFound) {
		t.Errorf("Detect error = %v, want ErrNotFound", err)
	}

	t.Setenv("PBR_RUSTC", "/nao/existe/rustc")
	if _, err := Detect(); err == nil {
		t.Error("expected error for a PBR_RUSTC that does not exist")
	}
}

func TestVersion(t *testing.T) {
	r := fakeToolchain(t)
	v, err := r.Version(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != "rustc 1.80.0 (falso)" {
		t.Errorf("Version = %q", v)
	}
}

func TestCompileAndRun(t *testing.T) {
	r := fakeToolchain(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "programa.rs")
	bin := filepath.Join(dir, "programa")
	if err := os.WriteFile(src, []byte("fn main() {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := r.Compile(ctx, src, bin); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	var out bytes.Buffer
	code, err := r.Run(ctx, bin, []string{"um", "dois"}, Stdio{In: strings.NewReader("entrada\n"), Out: &out})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	want := "args: um dois\nleu: entrada\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestCompileError(t *testing.T) {
	r := fakeToolchain(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "ruim.rs")
	if err := os.WriteFile(src, []byte("NAO_COMPILA\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := r.Compile(context.Background(), src, filepath.Join(dir, "ruim"))
	var ce *CompileError
	if !errors.As(err, &ce) {
		t.Fatalf("error = %v, want *CompileError", err)
	}
	if !strings.Contains(ce.Output, "E0425") {
		t.Errorf("Output = %q, want rustc diagnostics", ce.Output)
	}
	if !strings.Contains(ce.Error(), "ruim.rs") {
		t.Errorf("Error() = %q, want source path", ce.Error())
	}
}

func TestRunMissingBinary(t *testing.T) {
	r := &Rustc{Path: "rustc"}
	if _, err := r.Run(context.Background(), "/nao/existe", nil, Stdio{}); err == nil {
		t.Error("expected error running a missing binary")
	}
}

func TestRunCancelled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	bin := filepath.Join(t.TempDir(), "dorme")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\nsleep 10\n"), 0755); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := (&Rustc{}).Run(ctx, bin, nil, Stdio{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("Run did not stop on cancellation")
	}
}
