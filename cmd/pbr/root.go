package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/pbrlang/pbr/build"
	"github.com/pbrlang/pbr/cache"
	"github.com/pbrlang/pbr/manifest"
	"github.com/pbrlang/pbr/toolchain"
)

// version is overridden at link time with -ldflags "-X main.version=...".
var version = "0.1.0"

var log = commonlog.GetLogger("pbr")

// exitError carries a program's exit status through cobra.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// app holds global flags and the process streams, so commands can be
// driven from tests.
type app struct {
	verbosity int
	logFile   string
	noCache   bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newApp() *app {
	return &app{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pbr",
		Short: "PBRLang - A Primeira Linguagem de Programação Totalmente Brasileira",
		Long: `pbr converte programas PBRLang em Rust, executa e testa programas e
gerencia caixotes (pacotes).

Comandos:
  novo       Cria um novo projeto
  rodar      Executa um programa
  converter  Converte um programa para Rust
  testar     Executa os testes
  montar     Compila um programa
  empacotar  Empacota o projeto para distribuição
  caixote    Gerencia caixotes
`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.logFile != "" {
				commonlog.Configure(a.verbosity, &a.logFile)
			} else {
				commonlog.Configure(a.verbosity, nil)
			}
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().CountVarP(&a.verbosity, "verboso", "v", "aumenta o detalhamento dos logs (repetível)")
	root.PersistentFlags().StringVar(&a.logFile, "log", "", "grava os logs neste arquivo")
	root.PersistentFlags().BoolVar(&a.noCache, "sem-cache", false, "não usa o cache de conversões")

	root.AddCommand(
		newNovoCmd(a),
		newRodarCmd(a),
		newConverterCmd(a),
		newTestarCmd(a),
		newMontarCmd(a),
		newEmpacotarCmd(a),
		newCaixoteCmd(a),
		newCacheCmd(a),
		newReplCmd(a),
		newLspCmd(a),
		newServirCmd(a),
		newRemotoCmd(a),
	)
	return root
}

// builder returns a Builder wired to the cache and, when needRustc is set,
// the Rust toolchain. release closes the cache.
func (a *app) builder(needRustc bool) (b *build.Builder, release func(), err error) {
	b = &build.Builder{Stdio: toolchain.Stdio{In: a.stdin, Out: a.stdout, Err: a.stderr}}
	release = func() {}

	if !a.noCache {
		if dir, err := cache.DefaultDir(); err != nil {
			log.Warningf("cache disabled: %v", err)
		} else if store, err := cache.Open(dir); err != nil {
			log.Warningf("cache disabled: %v", err)
		} else {
			b.Cache = store
			release = func() { store.Close() }
		}
	}

	if needRustc {
		rustc, err := toolchain.Detect()
		if err != nil {
			release()
			if errors.Is(err, toolchain.ErrNotFound) {
				return nil, nil, fmt.Errorf("%w: instale o Rust (https://rustup.rs) ou defina PBR_RUSTC", err)
			}
			return nil, nil, err
		}
		b.Rustc = rustc
	}
	return b, release, nil
}

// findProject finds the manifest above the working directory, or returns nil.
func findProject() (*manifest.Manifest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return manifest.FindAndLoad(wd)
}

// requireProject is findProject for commands that need a pbr.toml.
func requireProject() (*manifest.Manifest, error) {
	m, err := findProject()
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("nenhum %s encontrado; use 'pbr novo' ou 'pbr caixote iniciar'", manifest.FileName)
	}
	return m, nil
}

// exitStatus turns a non-zero program exit into an exitError.
func exitStatus(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}
