// Package manifest handles pbr.toml project configuration.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"
)

// FileName is the manifest file looked up in every project directory.
const FileName = "pbr.toml"

// DefaultEntry is the entry file used when a manifest names none.
const DefaultEntry = "src/principal.pbr"

var log = commonlog.GetLogger("pbr.manifest")

// Manifest represents a pbr.toml project configuration.
type Manifest struct {
	Nome          string                `toml:"nome"`
	Versao        string                `toml:"versao"`
	Autores       []string              `toml:"autores,omitempty"`
	Descricao     string                `toml:"descricao,omitempty"`
	Principal     string                `toml:"principal"`
	Modulo        string                `toml:"modulo,omitempty"`
	PalavrasChave []string              `toml:"palavras_chave,omitempty"`
	Licenca       string                `toml:"licenca,omitempty"`
	Repositorio   string                `toml:"repositorio,omitempty"`
	Registro      string                `toml:"registro,omitempty"`
	Dependencias  map[string]Dependency `toml:"dependencias,omitempty"`

	// Dir is the directory containing the pbr.toml file (set at load time).
	Dir string `toml:"-"`
}

// Dependency represents a single project dependency. Exactly one of
// Versao, Git or Caminho selects where it comes from.
type Dependency struct {
	Versao  string `toml:"versao,omitempty"`
	Git     string `toml:"git,omitempty"`
	Tag     string `toml:"tag,omitempty"`
	Caminho string `toml:"caminho,omitempty"`
	Modulo  string `toml:"modulo,omitempty"`
}

// UnmarshalTOML accepts both `dep = "1.0.0"` and `dep = { git = "..." }`.
func (d *Dependency) UnmarshalTOML(data interface{}) error {
	switch v := data.(type) {
	case string:
		*d = Dependency{Versao: v}
		return nil
	case map[string]interface{}:
		fields := map[string]*string{
			"versao":  &d.Versao,
			"git":     &d.Git,
			"tag":     &d.Tag,
			"caminho": &d.Caminho,
			"modulo":  &d.Modulo,
		}
		for key, raw := range v {
			dst, ok := fields[key]
			if !ok {
				return fmt.Errorf("unknown dependency key %q", key)
			}
			s, ok := raw.(string)
			if !ok {
				return fmt.Errorf("dependency key %q must be a string, got %T", key, raw)
			}
			*dst = s
		}
		return nil
	default:
		return fmt.Errorf("dependency must be a version string or a table, got %T", data)
	}
}

// Source reports which kind of source the dependency uses.
func (d Dependency) Source() string {
	switch {
	case d.Caminho != "":
		return "caminho"
	case d.Git != "":
		return "git"
	case d.Versao != "":
		return "registro"
	}
	return ""
}

func (d Dependency) check() error {
	n := 0
	for _, s := range []string{d.Versao, d.Git, d.Caminho} {
		if s != "" {
			n++
		}
	}
	switch {
	case n == 0:
		return errors.New("no versao, git or caminho specified")
	case n > 1:
		return errors.New("versao, git and caminho are mutually exclusive")
	case d.Tag != "" && d.Git == "":
		return errors.New("tag is only valid with git")
	}
	return nil
}

// String renders the dependency the way `pbr caixote listar` shows it.
func (d Dependency) String() string {
	switch d.Source() {
	case "caminho":
		return "caminho " + d.Caminho
	case "git":
		if d.Tag != "" {
			return d.Git + "@" + d.Tag
		}
		return d.Git
	}
	return d.Versao
}

// New returns a manifest with default values for a fresh package.
func New(nome, versao string) *Manifest {
	return &Manifest{
		Nome:      nome,
		Versao:    versao,
		Principal: DefaultEntry,
		Licenca:   "MIT",
	}
}

// Load parses a pbr.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text and applies defaults. Dir is left empty.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		log.Warningf("ignoring unknown manifest keys: %v", undecoded)
	}
	if m.Principal == "" {
		m.Principal = DefaultEntry
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a pbr.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Encode renders the manifest as TOML.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the manifest to pbr.toml in m.Dir.
func (m *Manifest) Save() error {
	if m.Dir == "" {
		return errors.New("manifest has no directory")
	}
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	path := filepath.Join(m.Dir, FileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}

// AddDependency adds or replaces a dependency after checking its source.
func (m *Manifest) AddDependency(name string, dep Dependency) error {
	if name == "" {
		return errors.New("dependency name is empty")
	}
	if err := dep.check(); err != nil {
		return fmt.Errorf("dependency %q: %w", name, err)
	}
	if m.Dependencias == nil {
		m.Dependencias = make(map[string]Dependency)
	}
	m.Dependencias[name] = dep
	return nil
}

// RemoveDependency deletes a dependency. It is an error if none exists.
func (m *Manifest) RemoveDependency(name string) error {
	if _, ok := m.Dependencias[name]; !ok {
		return fmt.Errorf("dependency %q not found in %s", name, FileName)
	}
	delete(m.Dependencias, name)
	return nil
}

// DependencyNames returns the dependency names in sorted order.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencias))
	for name := range m.Dependencias {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EntryPath returns the absolute path of the principal source file.
func (m *Manifest) EntryPath() string {
	if filepath.IsAbs(m.Principal) {
		return m.Principal
	}
	return filepath.Join(m.Dir, m.Principal)
}

// DepsDir returns the path to the .pbr/deps directory.
func (m *Manifest) DepsDir() string {
	return filepath.Join(m.Dir, ".pbr", "deps")
}

// LockFilePath returns the path to .pbr/lock.toml.
func (m *Manifest) LockFilePath() string {
	return filepath.Join(m.Dir, ".pbr", "lock.toml")
}
