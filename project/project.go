// Package project scaffolds new PBR programs and packages.
package project

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/pbrlang/pbr/manifest"
)

//go:embed modelos
var templates embed.FS

// ErrExists is returned when the target directory already has content.
var ErrExists = errors.New("directory already exists and is not empty")

// Kind selects a scaffold.
type Kind string

const (
	// Program is a runnable project with programa.pbr at its root.
	Program Kind = "programa"
	// Package is a library package published to a registry.
	Package Kind = "caixote"
)

type vars struct {
	Nome   string
	Versao string
	Modulo string
}

// New scaffolds a program project named name in dir and returns its
// manifest.
func New(dir, name string) (*manifest.Manifest, error) {
	m := manifest.New(name, "0.1.0")
	m.Principal = "programa.pbr"
	return create(dir, m, Program)
}

// NewPackage scaffolds a library package in dir.
func NewPackage(dir, name, version string) (*manifest.Manifest, error) {
	if version == "" {
		version = "0.1.0"
	}
	return create(dir, manifest.New(name, version), Package)
}

func create(dir string, m *manifest.Manifest, kind Kind) (*manifest.Manifest, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrExists)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create %s: %w", dir, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	m.Dir = abs

	v := vars{Nome: m.Nome, Versao: m.Versao, Modulo: manifest.ToModuleName(m.Nome)}
	if err := render(string(kind), abs, v); err != nil {
		return nil, err
	}
	if err := m.Save(); err != nil {
		return nil, err
	}
	return m, nil
}

// render expands every template under modelos/<kind> into dir.
func render(kind, dir string, v vars) error {
	root := path.Join("modelos", kind)
	return fs.WalkDir(templates, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}

		data, err := templates.ReadFile(p)
		if err != nil {
			return err
		}
		tmpl, err := template.New(rel).Parse(string(data))
		if err != nil {
			return fmt.Errorf("template %s: %w", rel, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, v); err != nil {
			return fmt.Errorf("template %s: %w", rel, err)
		}
		return os.WriteFile(target, buf.Bytes(), 0o644)
	})
}

// Files lists the files a scaffold of kind creates, relative to the
// project directory, excluding pbr.toml.
func Files(kind Kind) ([]string, error) {
	root := path.Join("modelos", string(kind))
	var files []string
	err := fs.WalkDir(templates, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, strings.TrimPrefix(p, root+"/"))
		}
		return nil
	})
	return files, err
}
