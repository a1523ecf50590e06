package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/mod/semver"
)

// ArchiveName is the file each published version is stored under.
const ArchiveName = "caixote.tar.gz"

// ErrVersionExists is returned when publishing a version twice.
var ErrVersionExists = errors.New("version already published")

// Registry is a directory-backed package registry laid out as
// <Dir>/<nome>/<versao>/{caixote.tar.gz,pbr.toml}.
type Registry struct {
	Dir string
}

// DefaultRegistry returns the registry named by PBR_REGISTRY, falling back
// to ~/.pbrlang/caixotes.
func DefaultRegistry() (*Registry, error) {
	if dir := os.Getenv("PBR_REGISTRY"); dir != "" {
		return &Registry{Dir: dir}, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}
	return &Registry{Dir: filepath.Join(home, ".pbrlang", "caixotes")}, nil
}

// RegistryFor returns the registry a project publishes to and fetches from:
// its `registro` key when set, otherwise DefaultRegistry.
func RegistryFor(m *Manifest) (*Registry, error) {
	if m != nil && m.Registro != "" {
		dir := m.Registro
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(m.Dir, dir)
		}
		return &Registry{Dir: dir}, nil
	}
	return DefaultRegistry()
}

func (r *Registry) versionDir(name, version string) string {
	return filepath.Join(r.Dir, name, version)
}

// Publish stores archive as version m.Versao of package m.Nome.
func (r *Registry) Publish(m *Manifest, archive string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	dir := r.versionDir(m.Nome, m.Versao)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%s %s: %w", m.Nome, m.Versao, ErrVersionExists)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := copyFile(archive, filepath.Join(dir, ArchiveName)); err != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("storing archive: %w", err)
	}
	data, err := m.Encode()
	if err != nil {
		os.RemoveAll(dir)
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o644); err != nil {
		os.RemoveAll(dir)
		return err
	}
	log.Infof("published %s %s to %s", m.Nome, m.Versao, r.Dir)
	return nil
}

// Versions lists the published versions of name, lowest first.
func (r *Registry) Versions(name string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() && semver.IsValid("v"+e.Name()) {
			versions = append(versions, e.Name())
		}
	}
	sort.Slice(versions, func(i, j int) bool {
		return semver.Compare("v"+versions[i], "v"+versions[j]) < 0
	})
	return versions, nil
}

// Match picks the version a requirement selects: the newest version for
// "", "*" or "latest", the newest version with that prefix for a partial
// version like "1" or "1.2", otherwise the exact version.
func (r *Registry) Match(name, req string) (string, error) {
	versions, err := r.Versions(name)
	if err != nil {
		return "", err
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("package %q not found in registry %s", name, r.Dir)
	}
	if req == "" || req == "*" || req == "latest" {
		return versions[len(versions)-1], nil
	}
	for i := len(versions) - 1; i >= 0; i-- {
		v := versions[i]
		if v == req {
			return v, nil
		}
		if !semver.IsValid("v"+req) || semver.Canonical("v"+req) != "v"+req {
			if semver.MajorMinor("v"+v) == "v"+req || semver.Major("v"+v) == "v"+req {
				return v, nil
			}
		}
	}
	return "", fmt.Errorf("package %q has no version matching %q (have %v)", name, req, versions)
}

// Fetch extracts the version of name selected by req into dest and
// returns the exact version used.
func (r *Registry) Fetch(name, req, dest string) (string, error) {
	version, err := r.Match(name, req)
	if err != nil {
		return "", err
	}
	if err := os.RemoveAll(dest); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", err
	}
	archive := filepath.Join(r.versionDir(name, version), ArchiveName)
	if err := ExtractArchive(archive, dest); err != nil {
		return "", fmt.Errorf("fetching %s %s: %w", name, version, err)
	}
	if _, err := os.Stat(filepath.Join(dest, FileName)); errors.Is(err, os.ErrNotExist) {
		if err := copyFile(filepath.Join(r.versionDir(name, version), FileName), filepath.Join(dest, FileName)); err != nil {
			return "", err
		}
	}
	log.Debugf("fetched %s %s into %s", name, version, dest)
	return version, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
