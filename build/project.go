package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pbrlang/pbr/compiler"
	"github.com/pbrlang/pbr/manifest"
)

// OutputDir is the directory, relative to the project root, that builds
// write into.
const OutputDir = "alvo"

// Library is a resolved dependency ready to link.
type Library struct {
	Name    string
	Module  string
	Program *compiler.Program
}

// LoadLibraries parses the entry file of each resolved dependency.
func LoadLibraries(deps []manifest.ResolvedDep) ([]Library, error) {
	libs := make([]Library, 0, len(deps))
	for _, d := range deps {
		entry := filepath.Join(d.LocalPath, manifest.DefaultEntry)
		if d.Manifest != nil {
			entry = d.Manifest.EntryPath()
		}
		src, err := os.ReadFile(entry)
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", d.Name, err)
		}
		prog, err := compiler.Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("dependency %s: %w", d.Name, sourceError(entry, err))
		}
		libs = append(libs, Library{Name: d.Name, Module: d.Module, Program: prog})
	}
	return libs, nil
}

// Link returns a program with each library's statements wrapped in a
// module named after it, ahead of prog's own statements. Libraries keep
// their given order.
func Link(prog *compiler.Program, libs []Library) *compiler.Program {
	if len(libs) == 0 {
		return prog
	}
	linked := &compiler.Program{}
	for _, lib := range libs {
		linked.Statements = append(linked.Statements, &compiler.ModuleDecl{
			Name:       lib.Module,
			Statements: lib.Program.Statements,
		})
	}
	linked.Statements = append(linked.Statements, prog.Statements...)
	return linked
}

// TranspileProject resolves m's dependencies through reg, links them into
// the entry program and lowers the result.
func (b *Builder) TranspileProject(ctx context.Context, m *manifest.Manifest, reg *manifest.Registry) (*Result, error) {
	deps, err := manifest.NewResolver(m, reg).Resolve(ctx)
	if err != nil {
		return nil, err
	}
	libs, err := LoadLibraries(deps)
	if err != nil {
		return nil, err
	}

	entry := m.EntryPath()
	src, err := os.ReadFile(entry)
	if err != nil {
		return nil, err
	}
	prog, err := compiler.Parse(string(src))
	if err != nil {
		return nil, sourceError(entry, err)
	}
	return b.lower(entry, string(src), Link(prog, libs), false)
}

// BuildProject compiles the project to alvo/<nome> and returns the binary path.
func (b *Builder) BuildProject(ctx context.Context, m *manifest.Manifest, reg *manifest.Registry) (string, error) {
	if b.Rustc == nil {
		return "", ErrNoToolchain
	}
	res, err := b.TranspileProject(ctx, m, reg)
	if err != nil {
		return "", err
	}

	outDir := filepath.Join(m.Dir, OutputDir)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	rs := filepath.Join(outDir, m.Nome+".rs")
	if err := os.WriteFile(rs, []byte(res.Rust), 0o644); err != nil {
		return "", err
	}
	bin := filepath.Join(outDir, m.Nome)
	if err := b.Rustc.Compile(ctx, rs, bin); err != nil {
		return "", err
	}
	log.Infof("built %s", bin)
	return bin, nil
}

// RunProject transpiles the project with its dependencies linked, then
// compiles and executes it with args.
func (b *Builder) RunProject(ctx context.Context, m *manifest.Manifest, reg *manifest.Registry, args []string) (int, error) {
	res, err := b.TranspileProject(ctx, m, reg)
	if err != nil {
		return -1, err
	}
	return b.runRust(ctx, m.Nome, res.Rust, args, b.Stdio)
}

// readmeNames are the documentation files a package carries, in
// preference order.
var readmeNames = []string{"LEIAME.md", "README.md", "Leiame.md", "Readme.md"}

func findReadme(dir string) string {
	for _, name := range readmeNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return name
		}
	}
	return ""
}

// PackageName returns the release archive name for m.
func PackageName(m *manifest.Manifest) string {
	return fmt.Sprintf("%s_%s.tar.gz", m.Nome, m.Versao)
}

// Package builds the project in dir and writes alvo/<nome>_<versao>.tar.gz
// holding the binary, pbr.toml and the README when present.
func (b *Builder) Package(ctx context.Context, dir string, reg *manifest.Registry) (string, error) {
	m, err := manifest.Load(dir)
	if err != nil {
		return "", err
	}
	if err := m.Validate(); err != nil {
		return "", err
	}
	if _, err := b.BuildProject(ctx, m, reg); err != nil {
		return "", err
	}

	files := []string{filepath.Join(OutputDir, m.Nome), manifest.FileName}
	if readme := findReadme(m.Dir); readme != "" {
		files = append(files, readme)
	}
	archive := filepath.Join(m.Dir, OutputDir, PackageName(m))
	if err := manifest.WriteArchive(archive, m.Dir, files); err != nil {
		return "", err
	}
	log.Infof("packaged %s", archive)
	return archive, nil
}

// SourceArchive writes a source archive of the project for publishing:
// pbr.toml, the README and every .pbr file outside .pbr/ and alvo/.
func SourceArchive(m *manifest.Manifest, dst string) error {
	files := []string{manifest.FileName}
	if readme := findReadme(m.Dir); readme != "" {
		files = append(files, readme)
	}

	var sources []string
	err := filepath.WalkDir(m.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && p != m.Dir && (d.Name() == ".pbr" || d.Name() == OutputDir || d.Name() == ".git") {
			return filepath.SkipDir
		}
		if !d.IsDir() && filepath.Ext(p) == ".pbr" {
			rel, err := filepath.Rel(m.Dir, p)
			if err != nil {
				return err
			}
			sources = append(sources, rel)
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(sources)
	return manifest.WriteArchive(dst, m.Dir, append(files, sources...))
}
