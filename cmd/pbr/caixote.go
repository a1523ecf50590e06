package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pbrlang/pbr/build"
	"github.com/pbrlang/pbr/manifest"
	"github.com/pbrlang/pbr/project"
)

func newCaixoteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "caixote",
		Short: "Gerencia caixotes (dependências e publicação)",
	}
	cmd.AddCommand(
		newAdicionarCmd(a),
		newRemoverCmd(a),
		newListarCmd(a),
		newPublicarCmd(a),
		newIniciarCmd(a),
	)
	return cmd
}

func newAdicionarCmd(a *app) *cobra.Command {
	var dep manifest.Dependency
	cmd := &cobra.Command{
		Use:   "adicionar NOME",
		Short: "Adiciona uma dependência ao pbr.toml",
		Long: `Adiciona uma dependência. Sem --versao, --git ou --caminho, usa a
versão mais recente do registro.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			m, err := requireProject()
			if err != nil {
				return err
			}
			reg, err := manifest.RegistryFor(m)
			if err != nil {
				return err
			}

			if dep.Versao == "" && dep.Git == "" && dep.Caminho == "" {
				latest, err := reg.Match(name, "")
				if err != nil {
					return fmt.Errorf("%w; use --versao, --git ou --caminho", err)
				}
				dep.Versao = latest
			}
			if err := m.AddDependency(name, dep); err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				return err
			}
			if _, err := manifest.NewResolver(m, reg).Resolve(cmd.Context()); err != nil {
				return err
			}
			if err := m.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Caixote adicionado: %s (%s)\n", name, dep)
			return nil
		},
	}
	cmd.Flags().StringVarP(&dep.Versao, "versao", "V", "", "versão no registro (ex.: 1.2.0, 1.2, 1)")
	cmd.Flags().StringVar(&dep.Git, "git", "", "URL do repositório git")
	cmd.Flags().StringVar(&dep.Tag, "tag", "", "tag ou commit do repositório git")
	cmd.Flags().StringVar(&dep.Caminho, "caminho", "", "diretório local do caixote")
	cmd.Flags().StringVar(&dep.Modulo, "modulo", "", "nome do módulo usado em importe")
	return cmd
}

func newRemoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remover NOME",
		Short: "Remove uma dependência do pbr.toml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			m, err := requireProject()
			if err != nil {
				return err
			}
			if err := m.RemoveDependency(name); err != nil {
				return err
			}
			if err := m.Save(); err != nil {
				return err
			}

			lock, err := manifest.ReadLock(m.LockFilePath())
			if err != nil {
				return err
			}
			if lock != nil {
				kept := lock.Deps[:0]
				for _, d := range lock.Deps {
					if d.Name != name {
						kept = append(kept, d)
					}
				}
				lock.Deps = kept
				if err := manifest.WriteLock(m.LockFilePath(), lock); err != nil {
					return err
				}
			}
			if err := os.RemoveAll(filepath.Join(m.DepsDir(), name)); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Caixote removido: %s\n", name)
			return nil
		},
	}
}

func newListarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "listar",
		Short: "Lista as dependências do projeto",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := requireProject()
			if err != nil {
				return err
			}
			names := m.DependencyNames()
			if len(names) == 0 {
				fmt.Fprintln(a.stdout, "Nenhum caixote instalado.")
				return nil
			}
			lock, err := manifest.ReadLock(m.LockFilePath())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Caixotes de %s:\n", m.Nome)
			for _, name := range names {
				line := fmt.Sprintf("  %s (%s)", name, m.Dependencias[name])
				if locked := lock.FindLockedDep(name); locked != nil {
					switch {
					case locked.Versao != "" && locked.Versao != m.Dependencias[name].Versao:
						line += " → " + locked.Versao
					case len(locked.Commit) >= 7:
						line += " @ " + locked.Commit[:7]
					}
				}
				fmt.Fprintln(a.stdout, line)
			}
			return nil
		},
	}
}

func newPublicarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "publicar [DIRETORIO]",
		Short: "Publica o caixote no registro",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			m, err := manifest.Load(dir)
			if err != nil {
				return err
			}
			if err := m.Validate(); err != nil {
				return err
			}
			reg, err := manifest.RegistryFor(m)
			if err != nil {
				return err
			}

			tmp, err := os.MkdirTemp("", "pbr-publicar-")
			if err != nil {
				return err
			}
			defer os.RemoveAll(tmp)
			archive := filepath.Join(tmp, manifest.ArchiveName)
			if err := build.SourceArchive(m, archive); err != nil {
				return err
			}
			if err := reg.Publish(m, archive); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Caixote publicado: %s %s em %s\n", m.Nome, m.Versao, reg.Dir)
			return nil
		},
	}
}

func newIniciarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "iniciar NOME [VERSAO]",
		Short: "Cria um novo caixote (biblioteca)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, version := args[0], ""
			if len(args) == 2 {
				version = args[1]
			}
			m, err := project.NewPackage(name, name, version)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Caixote iniciado: %s v%s\n", m.Nome, m.Versao)
			return nil
		},
	}
}
