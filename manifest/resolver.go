package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ResolvedDep represents a dependency that has been resolved to a local path.
type ResolvedDep struct {
	Name      string    // dependency name
	LocalPath string    // local filesystem path
	Module    string    // module path the dependency is imported under
	Version   string    // exact registry version, empty for git and path deps
	Manifest  *Manifest // the dependency's own manifest (may be nil)
}

// Resolver manages dependency resolution.
type Resolver struct {
	manifest *Manifest
	registry *Registry
	lock     *LockFile
}

// NewResolver creates a new dependency resolver. registry serves
// version dependencies and may be nil when the project has none.
func NewResolver(m *Manifest, registry *Registry) *Resolver {
	return &Resolver{
		manifest: m,
		registry: registry,
	}
}

// Resolve resolves all dependencies and returns them in load order
// (topologically sorted: dependencies before dependents).
func (r *Resolver) Resolve(ctx context.Context) ([]ResolvedDep, error) {
	lock, err := ReadLock(r.manifest.LockFilePath())
	if err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}
	r.lock = lock

	if err := os.MkdirAll(r.manifest.DepsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating deps dir: %w", err)
	}

	resolved := make(map[string]*resolvedEntry)
	order, err := r.resolveAll(ctx, r.manifest, resolved, nil)
	if err != nil {
		return nil, err
	}

	if err := r.writeLock(ctx, resolved); err != nil {
		return nil, fmt.Errorf("writing lock file: %w", err)
	}
	return order, nil
}

type resolvedEntry struct {
	dep      ResolvedDep
	declared Dependency
	owner    *Manifest
}

// resolveAll resolves the dependencies of owner recursively, in name order.
// stack holds the names currently being resolved, to report cycles.
func (r *Resolver) resolveAll(ctx context.Context, owner *Manifest, resolved map[string]*resolvedEntry, stack []string) ([]ResolvedDep, error) {
	var order []ResolvedDep

	for _, name := range owner.DependencyNames() {
		for _, s := range stack {
			if s == name {
				return nil, fmt.Errorf("dependency cycle: %v -> %s", stack, name)
			}
		}
		if _, ok := resolved[name]; ok {
			continue
		}
		dep := owner.Dependencias[name]

		rd, err := r.resolveOne(ctx, owner, name, dep)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", name, err)
		}
		resolved[name] = &resolvedEntry{dep: *rd, declared: dep, owner: owner}

		if rd.Manifest != nil && len(rd.Manifest.Dependencias) > 0 {
			transitive, err := r.resolveAll(ctx, rd.Manifest, resolved, append(stack, name))
			if err != nil {
				return nil, err
			}
			order = append(order, transitive...)
		}

		order = append(order, *rd)
	}

	return order, nil
}

// resolveModule determines the module path for a dependency:
//  1. Consumer override (dep.Modulo)
//  2. Producer manifest (depManifest.Modulo)
//  3. snake_case fallback (ToModuleName(name))
func resolveModule(name string, dep Dependency, depManifest *Manifest) (string, error) {
	var mod string
	switch {
	case dep.Modulo != "":
		mod = dep.Modulo
	case depManifest != nil && depManifest.Modulo != "":
		mod = depManifest.Modulo
	default:
		mod = ToModuleName(name)
	}

	if IsReservedModule(mod) {
		return "", fmt.Errorf("dependency %q resolves to reserved module %q; add modulo = \"...\" in [dependencias]", name, mod)
	}
	return mod, nil
}

// resolveOne resolves a single dependency declared by owner.
func (r *Resolver) resolveOne(ctx context.Context, owner *Manifest, name string, dep Dependency) (*ResolvedDep, error) {
	if err := dep.check(); err != nil {
		return nil, err
	}

	var (
		localPath string
		version   string
	)
	switch dep.Source() {
	case "caminho":
		p := dep.Caminho
		if !filepath.IsAbs(p) {
			p = filepath.Join(owner.Dir, p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", dep.Caminho, err)
		}
		if _, err := os.Stat(abs); err != nil {
			return nil, fmt.Errorf("local dependency %q not found at %s: %w", name, abs, err)
		}
		localPath = abs

	case "git":
		localPath = filepath.Join(r.manifest.DepsDir(), name)
		if err := r.syncGit(ctx, name, dep, localPath); err != nil {
			return nil, err
		}

	case "registro":
		if r.registry == nil {
			return nil, fmt.Errorf("dependency %q needs a registry", name)
		}
		localPath = filepath.Join(r.manifest.DepsDir(), name)
		locked := r.lock.FindLockedDep(name)
		if locked != nil && locked.Versao != "" && versionSatisfies(locked.Versao, dep.Versao) && dirExists(localPath) {
			version = locked.Versao
			log.Debugf("%s %s already fetched", name, version)
		} else {
			v, err := r.registry.Fetch(name, dep.Versao, localPath)
			if err != nil {
				return nil, err
			}
			version = v
			log.Infof("fetched %s %s", name, version)
		}
	}

	depManifest, _ := Load(localPath)

	mod, err := resolveModule(name, dep, depManifest)
	if err != nil {
		return nil, err
	}

	return &ResolvedDep{
		Name:      name,
		LocalPath: localPath,
		Module:    mod,
		Version:   version,
		Manifest:  depManifest,
	}, nil
}

func (r *Resolver) syncGit(ctx context.Context, name string, dep Dependency, dir string) error {
	if !dirExists(dir) {
		log.Infof("cloning %s from %s", name, dep.Git)
		if err := gitClone(ctx, dep.Git, dir); err != nil {
			return err
		}
	} else if locked := r.lock.FindLockedDep(name); locked == nil || locked.Tag != dep.Tag || locked.Git != dep.Git {
		log.Infof("fetching %s", name)
		if err := gitFetch(ctx, dir); err != nil {
			return err
		}
	}

	if dep.Tag != "" {
		return gitCheckout(ctx, dir, dep.Tag)
	}
	return nil
}

func versionSatisfies(have, req string) bool {
	if req == "" || req == "*" || req == "latest" {
		return true
	}
	if have == req {
		return true
	}
	return len(have) > len(req) && have[:len(req)] == req && have[len(req)] == '.'
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// writeLock writes the resolved dependencies to the lock file.
func (r *Resolver) writeLock(ctx context.Context, resolved map[string]*resolvedEntry) error {
	lf := &LockFile{}

	names := make([]string, 0, len(resolved))
	for name := range resolved {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		e := resolved[name]
		ld := LockedDep{Name: name, Modulo: e.dep.Module}

		switch e.declared.Source() {
		case "git":
			ld.Git = e.declared.Git
			ld.Tag = e.declared.Tag
			if commit, err := gitCurrentCommit(ctx, e.dep.LocalPath); err == nil {
				ld.Commit = commit
			}
		case "caminho":
			ld.Caminho = e.dep.LocalPath
			if e.owner == r.manifest {
				ld.Caminho = e.declared.Caminho
			}
		case "registro":
			ld.Versao = e.dep.Version
		}

		lf.Deps = append(lf.Deps, ld)
	}

	return WriteLock(r.manifest.LockFilePath(), lf)
}
