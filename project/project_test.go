package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pbrlang/pbr/compiler"
	"github.com/pbrlang/pbr/manifest"
)

func TestNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "calculadora")
	m, err := New(dir, "calculadora")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Principal != "programa.pbr" {
		t.Errorf("principal = %q, want programa.pbr", m.Principal)
	}

	for _, name := range []string{"programa.pbr", "testes/teste_exemplo.pbr", "LEIAME.md", manifest.FileName} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(name))); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	readme, err := os.ReadFile(filepath.Join(dir, "LEIAME.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(readme), "# Projeto calculadora\n") {
		t.Errorf("LEIAME.md = %q", readme)
	}

	loaded, err := manifest.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Nome != "calculadora" || loaded.Versao != "0.1.0" {
		t.Errorf("manifest = %+v", loaded)
	}
}

func TestScaffoldedSourcesCompile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "p")
	if _, err := New(dir, "p"); err != nil {
		t.Fatal(err)
	}

	src, err := os.ReadFile(filepath.Join(dir, "programa.pbr"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := compiler.Compile(string(src)); err != nil {
		t.Errorf("programa.pbr does not compile: %v", err)
	}

	test, err := os.ReadFile(filepath.Join(dir, "testes", "teste_exemplo.pbr"))
	if err != nil {
		t.Fatal(err)
	}
	prog, err := compiler.Parse(string(test))
	if err != nil {
		t.Fatalf("teste_exemplo.pbr does not parse: %v", err)
	}
	if names := compiler.TestFunctions(prog); len(names) != 1 || names[0] != "teste_soma" {
		t.Errorf("TestFunctions = %v, want [teste_soma]", names)
	}
	if _, err := compiler.GenerateTests(prog); err != nil {
		t.Errorf("GenerateTests: %v", err)
	}
}

func TestNewPackage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cores")
	m, err := NewPackage(dir, "minhas-cores", "")
	if err != nil {
		t.Fatalf("NewPackage: %v", err)
	}
	if m.Versao != "0.1.0" || m.Principal != manifest.DefaultEntry {
		t.Errorf("manifest = %+v", m)
	}

	src, err := os.ReadFile(m.EntryPath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(src), `volte "0.1.0"`) {
		t.Errorf("principal.pbr = %q", src)
	}
	if _, err := compiler.Compile(string(src)); err != nil {
		t.Errorf("package source does not compile: %v", err)
	}

	readme, err := os.ReadFile(filepath.Join(dir, "LEIAME.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(readme), "importe minhas_cores.versao") {
		t.Errorf("LEIAME.md should show the module path:\n%s", readme)
	}
}

func TestNewRejectsExistingContent(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "x"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(dir, "x"); !errors.Is(err, ErrExists) {
		t.Errorf("error = %v, want ErrExists", err)
	}
}

func TestNewRejectsBadName(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "a"), "nome com espaço"); err == nil {
		t.Error("expected error for an invalid project name")
	}
}

func TestNewIntoEmptyDir(t *testing.T) {
	if _, err := New(t.TempDir(), "vazio"); err != nil {
		t.Errorf("New into an empty existing dir: %v", err)
	}
}

func TestFiles(t *testing.T) {
	files, err := Files(Program)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{"LEIAME.md": true, "programa.pbr": true, "testes/teste_exemplo.pbr": true}
	if len(files) != len(want) {
		t.Fatalf("Files(Program) = %v", files)
	}
	for _, f := range files {
		if !want[f] {
			t.Errorf("unexpected scaffold file %s", f)
		}
	}
}
