package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pbrlang/pbr/cache"
	"github.com/pbrlang/pbr/manifest"
	"github.com/pbrlang/pbr/toolchain"
)

// fakeRustc "compiles" by writing a shell script. The binary fails when
// the Rust contains assert!(false, mimicking a failed assertion.
const fakeRustc = `#!/bin/sh
src="$1"
out="$3"
if grep -q "NAO_COMPILA" "$src"; then
	echo "error: nao compila" >&2
	exit 1
fi
if grep -q "assert!(false" "$src"; then
	printf '#!/bin/sh\necho "assertion failed" >&2\nexit 101\n' > "$out"
else
	printf '#!/bin/sh\necho ok\n' > "$out"
fi
chmod +x "$out"
`

func fakeToolchain(t *testing.T) *toolchain.Rustc {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake rustc needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "rustc")
	if err := os.WriteFile(path, []byte(fakeRustc), 0755); err != nil {
		t.Fatal(err)
	}
	return &toolchain.Rustc{Path: path}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newBuilder(t *testing.T) *Builder {
	t.Helper()
	store, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return &Builder{Cache: store}
}

func TestTranspileUsesCache(t *testing.T) {
	b := newBuilder(t)
	dir := t.TempDir()
	a := filepath.Join(dir, "a.pbr")
	writeFile(t, a, "pense x = 1\nmostre x + 2\n")

	first, err := b.Transpile(a)
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	if first.Cached {
		t.Error("first transpile should miss the cache")
	}
	if !strings.Contains(first.Rust, "fn main()") {
		t.Errorf("Rust output missing main:\n%s", first.Rust)
	}

	reformatted := filepath.Join(dir, "b.pbr")
	writeFile(t, reformatted, "// mesmo programa\npense   x=1;\nmostre x+2 // fim\n")
	second, err := b.Transpile(reformatted)
	if err != nil {
		t.Fatalf("Transpile: %v", err)
	}
	if !second.Cached {
		t.Error("reformatted source should hit the cache")
	}
	if second.Rust != first.Rust {
		t.Error("cached Rust differs from generated Rust")
	}
}

func TestTranspileWithoutCache(t *testing.T) {
	b := &Builder{}
	res, err := b.TranspileSource("mem.pbr", "mostre 1")
	if err != nil {
		t.Fatal(err)
	}
	if res.Cached || res.Rust == "" {
		t.Errorf("result = %+v", res)
	}
}

func TestTranspileErrorsCarryPath(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"pense = 3", "ruim.pbr:1:7: expected"},
		{"faça main() { }", "ruim.pbr:1:1: unsupported construct: function named main"},
	}
	for _, tc := range tests {
		_, err := (&Builder{}).TranspileSource("ruim.pbr", tc.src)
		if err == nil || !strings.HasPrefix(err.Error(), tc.want) {
			t.Errorf("TranspileSource(%q) error = %v, want prefix %q", tc.src, err, tc.want)
		}
	}
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "programa.pbr")
	writeFile(t, src, `mostre "Olá"`)

	b := &Builder{}
	rs, bin, err := b.Convert(context.Background(), src, "", false)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if rs != filepath.Join(dir, "programa.rs") || bin != "" {
		t.Errorf("Convert = %q, %q", rs, bin)
	}
	if data, err := os.ReadFile(rs); err != nil || !strings.Contains(string(data), `println!("{:?}", "Olá");`) {
		t.Errorf("converted file = %q, %v", data, err)
	}

	if _, _, err := b.Convert(context.Background(), src, "", true); !errors.Is(err, ErrNoToolchain) {
		t.Errorf("compile without rustc error = %v, want ErrNoToolchain", err)
	}

	b.Rustc = fakeToolchain(t)
	out := filepath.Join(dir, "saida", "prog.rs")
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		t.Fatal(err)
	}
	rs, bin, err = b.Convert(context.Background(), src, out, true)
	if err != nil {
		t.Fatalf("Convert with compile: %v", err)
	}
	if rs != out || bin != filepath.Join(dir, "saida", "prog") {
		t.Errorf("Convert = %q, %q", rs, bin)
	}
	if _, err := os.Stat(bin); err != nil {
		t.Errorf("binary not written: %v", err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "ola.pbr")
	writeFile(t, src, `mostre "Olá, mundo!"`)

	var out strings.Builder
	b := &Builder{Rustc: fakeToolchain(t), Stdio: toolchain.Stdio{Out: &out}}
	code, err := b.Run(context.Background(), src, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if out.String() != "ok\n" {
		t.Errorf("output = %q, want ok", out.String())
	}
}

func TestRunSource(t *testing.T) {
	var out strings.Builder
	b := &Builder{Rustc: fakeToolchain(t), Stdio: toolchain.Stdio{Out: &out}}

	code, err := b.RunSource(context.Background(), "repl.pbr", "afirme que falso", nil)
	if err != nil {
		t.Fatalf("RunSource: %v", err)
	}
	if code != 101 {
		t.Errorf("exit code = %d, want 101 from the failed assertion", code)
	}

	if _, err := b.RunSource(context.Background(), "repl.pbr", "pense = 1", nil); err == nil || !strings.HasPrefix(err.Error(), "repl.pbr:1:7:") {
		t.Errorf("error = %v, want positioned source error", err)
	}
}

func TestRunWithoutToolchain(t *testing.T) {
	src := filepath.Join(t.TempDir(), "p.pbr")
	writeFile(t, src, "mostre 1")
	if _, err := (&Builder{}).Run(context.Background(), src, nil); !errors.Is(err, ErrNoToolchain) {
		t.Errorf("error = %v, want ErrNoToolchain", err)
	}
}

func TestTestRun(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "testes", "teste_soma.pbr"), `faça teste_soma() {
    pense resultado = 2 + 2
    afirme que resultado é igual a 4
}`)
	writeFile(t, filepath.Join(dir, "testes", "sub", "teste_falha.pbr"), `faça teste_falha() {
    afirme que falso
}`)
	writeFile(t, filepath.Join(dir, "testes", "teste_sintaxe.pbr"), `faça teste_( {`)
	writeFile(t, filepath.Join(dir, "testes", "alvo", "ignorado.pbr"), `mostre 1`)

	b := newBuilder(t)
	b.Rustc = fakeToolchain(t)
	sum, err := b.Test(context.Background(), filepath.Join(dir, "testes"))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if len(sum.Results) != 3 {
		t.Fatalf("ran %d files, want 3", len(sum.Results))
	}
	if sum.Passed != 1 || sum.Failed != 2 || sum.OK() {
		t.Errorf("summary passed=%d failed=%d", sum.Passed, sum.Failed)
	}

	byName := make(map[string]TestResult)
	for _, r := range sum.Results {
		byName[filepath.Base(r.File)] = r
	}
	if r := byName["teste_soma.pbr"]; !r.Passed || len(r.Tests) != 1 || r.Tests[0] != "teste_soma" {
		t.Errorf("teste_soma = %+v", r)
	}
	if r := byName["teste_falha.pbr"]; r.Passed || r.ExitCode != 101 || r.Err != nil {
		t.Errorf("teste_falha = %+v, want exit 101", r)
	}
	if r := byName["teste_sintaxe.pbr"]; r.Passed || r.Err == nil {
		t.Errorf("teste_sintaxe = %+v, want a syntax error", r)
	}
}

func TestTestFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.pbr"), "")
	writeFile(t, filepath.Join(dir, "a.pbr"), "")
	writeFile(t, filepath.Join(dir, "nota.txt"), "")
	writeFile(t, filepath.Join(dir, ".pbr", "deps", "x.pbr"), "")

	files, err := TestFiles(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "a.pbr" || filepath.Base(files[1]) != "b.pbr" {
		t.Errorf("TestFiles = %v", files)
	}

	if _, err := TestFiles(filepath.Join(dir, "nota.txt")); err == nil {
		t.Error("expected error for a non-.pbr file")
	}
	if _, err := TestFiles(filepath.Join(dir, "nada")); err == nil {
		t.Error("expected error for a missing path")
	}
}

func setupProject(t *testing.T) (app string) {
	t.Helper()
	root := t.TempDir()
	app = filepath.Join(root, "app")
	writeFile(t, filepath.Join(app, manifest.FileName), `nome = "app"
versao = "1.0.0"
principal = "programa.pbr"

[dependencias]
numeros = { caminho = "../numeros" }
`)
	writeFile(t, filepath.Join(app, "programa.pbr"), `importe numeros.dobro
mostre dobro(21)
`)
	writeFile(t, filepath.Join(app, "LEIAME.md"), "# app\n")
	writeFile(t, filepath.Join(root, "numeros", manifest.FileName), `nome = "numeros"
versao = "0.1.0"
`)
	writeFile(t, filepath.Join(root, "numeros", "src", "principal.pbr"), `público faça dobro(x: número): número {
    volte x * 2
}
`)
	return app
}

func TestTranspileProjectLinksDependencies(t *testing.T) {
	app := setupProject(t)
	m, err := manifest.Load(app)
	if err != nil {
		t.Fatal(err)
	}

	res, err := (&Builder{}).TranspileProject(context.Background(), m, nil)
	if err != nil {
		t.Fatalf("TranspileProject: %v", err)
	}
	for _, want := range []string{
		"mod numeros {",
		"pub fn dobro(x: f64) -> f64 {",
		"use numeros::dobro;",
	} {
		if !strings.Contains(res.Rust, want) {
			t.Errorf("linked Rust missing %q:\n%s", want, res.Rust)
		}
	}
	if strings.Index(res.Rust, "mod numeros") > strings.Index(res.Rust, "use numeros::dobro") {
		t.Error("dependency module should precede the program's items")
	}
}

func TestRunProject(t *testing.T) {
	app := setupProject(t)
	m, err := manifest.Load(app)
	if err != nil {
		t.Fatal(err)
	}

	var out strings.Builder
	b := &Builder{Rustc: fakeToolchain(t), Stdio: toolchain.Stdio{Out: &out}}
	code, err := b.RunProject(context.Background(), m, nil, nil)
	if err != nil {
		t.Fatalf("RunProject: %v", err)
	}
	if code != 0 || out.String() != "ok\n" {
		t.Errorf("exit %d, output %q; want 0 and ok", code, out.String())
	}
}

func TestPackage(t *testing.T) {
	app := setupProject(t)
	b := &Builder{Rustc: fakeToolchain(t)}

	archive, err := b.Package(context.Background(), app, nil)
	if err != nil {
		t.Fatalf("Package: %v", err)
	}
	if filepath.Base(archive) != "app_1.0.0.tar.gz" {
		t.Errorf("archive = %s", archive)
	}

	dest := t.TempDir()
	if err := manifest.ExtractArchive(archive, dest); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{filepath.Join("alvo", "app"), manifest.FileName, "LEIAME.md"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("archive missing %s: %v", name, err)
		}
	}
}

func TestPackageRequiresManifest(t *testing.T) {
	b := &Builder{Rustc: &toolchain.Rustc{Path: "rustc"}}
	if _, err := b.Package(context.Background(), t.TempDir(), nil); err == nil {
		t.Error("expected error packaging a directory without pbr.toml")
	}
}

func TestSourceArchive(t *testing.T) {
	app := setupProject(t)
	writeFile(t, filepath.Join(app, "alvo", "lixo.pbr"), "")
	m, err := manifest.Load(app)
	if err != nil {
		t.Fatal(err)
	}

	archive := filepath.Join(t.TempDir(), "src.tar.gz")
	if err := SourceArchive(m, archive); err != nil {
		t.Fatalf("SourceArchive: %v", err)
	}
	dest := t.TempDir()
	if err := manifest.ExtractArchive(archive, dest); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{manifest.FileName, "LEIAME.md", "programa.pbr"} {
		if _, err := os.Stat(filepath.Join(dest, name)); err != nil {
			t.Errorf("archive missing %s: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dest, "alvo")); err == nil {
		t.Error("source archive should not include alvo/")
	}
}
