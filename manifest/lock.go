package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// LockFile pins every resolved dependency to an exact source.
type LockFile struct {
	Deps []LockedDep `toml:"dep"`
}

// LockedDep is one entry of .pbr/lock.toml.
type LockedDep struct {
	Name    string `toml:"name"`
	Versao  string `toml:"versao,omitempty"`
	Git     string `toml:"git,omitempty"`
	Tag     string `toml:"tag,omitempty"`
	Commit  string `toml:"commit,omitempty"`
	Caminho string `toml:"caminho,omitempty"`
	Modulo  string `toml:"modulo,omitempty"`
}

// ReadLock reads a lock file. A missing file yields nil, nil.
func ReadLock(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lf LockFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &lf, nil
}

// WriteLock writes lf to path with entries sorted by name.
func WriteLock(path string, lf *LockFile) error {
	sort.Slice(lf.Deps, func(i, j int) bool { return lf.Deps[i].Name < lf.Deps[j].Name })

	var buf bytes.Buffer
	buf.WriteString("# Generated by pbr. Do not edit.\n\n")
	if err := toml.NewEncoder(&buf).Encode(lf); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// FindLockedDep returns the entry for name, or nil. A nil lock file
// has no entries.
func (lf *LockFile) FindLockedDep(name string) *LockedDep {
	if lf == nil {
		return nil
	}
	for i := range lf.Deps {
		if lf.Deps[i].Name == name {
			return &lf.Deps[i]
		}
	}
	return nil
}
