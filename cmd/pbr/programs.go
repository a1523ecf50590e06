package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pbrlang/pbr/compiler"
	"github.com/pbrlang/pbr/manifest"
	"github.com/pbrlang/pbr/project"
)

const defaultProgram = "programa.pbr"

func newNovoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "novo NOME",
		Short: "Cria um novo projeto PBRLang",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := project.New(name, name); err != nil {
				return err
			}
			files, err := project.Files(project.Program)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Projeto criado: %s\n", name)
			fmt.Fprintf(a.stdout, "  %s/\n", name)
			fmt.Fprintf(a.stdout, "  ├── %s\n", manifest.FileName)
			for _, f := range files {
				fmt.Fprintf(a.stdout, "  ├── %s\n", f)
			}
			fmt.Fprintf(a.stdout, "\nUse 'cd %s && pbr rodar' para executar\n", name)
			return nil
		},
	}
}

// splitDash separates the command's own arguments from those after "--".
func splitDash(cmd *cobra.Command, args []string) (own, rest []string) {
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		return args[:dash], args[dash:]
	}
	return args, nil
}

func newRodarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rodar [ARQUIVO] [-- ARGUMENTOS...]",
		Short: "Converte, compila e executa um programa",
		Long: `Sem ARQUIVO, executa o projeto do pbr.toml mais próximo com suas
dependências, ou programa.pbr quando não há projeto.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			own, progArgs := splitDash(cmd, args)
			if len(own) > 1 {
				return fmt.Errorf("rodar aceita um único arquivo, recebeu %d", len(own))
			}

			b, release, err := a.builder(true)
			if err != nil {
				return err
			}
			defer release()

			var code int
			if len(own) == 0 {
				m, err := findProject()
				if err != nil {
					return err
				}
				if m != nil {
					reg, err := manifest.RegistryFor(m)
					if err != nil {
						return err
					}
					code, err = b.RunProject(cmd.Context(), m, reg, progArgs)
					if err != nil {
						return err
					}
					return exitStatus(code)
				}
				own = []string{defaultProgram}
			}

			code, err = b.Run(cmd.Context(), own[0], progArgs)
			if err != nil {
				return err
			}
			return exitStatus(code)
		},
	}
}

func newConverterCmd(a *app) *cobra.Command {
	var (
		out      string
		onlyRust bool
		ast      bool
	)
	cmd := &cobra.Command{
		Use:   "converter [ARQUIVO]",
		Short: "Converte um programa para Rust e compila o binário",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultProgram
			if len(args) == 1 {
				path = args[0]
			}

			if ast {
				src, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				prog, err := compiler.Parse(string(src))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				fmt.Fprintln(a.stdout, compiler.Dump(prog))
				return nil
			}

			b, release, err := a.builder(!onlyRust)
			if err != nil {
				return err
			}
			defer release()

			rs, bin, err := b.Convert(cmd.Context(), path, out, !onlyRust)
			if rs != "" {
				fmt.Fprintf(a.stdout, "Código Rust gerado: %s\n", rs)
			}
			if err != nil {
				return err
			}
			if bin != "" {
				fmt.Fprintf(a.stdout, "Binário gerado: %s\n", bin)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "saida", "s", "", "arquivo Rust de saída (padrão: ARQUIVO com extensão .rs)")
	cmd.Flags().BoolVarP(&onlyRust, "apenas-gerar", "a", false, "apenas gera o Rust, sem compilar")
	cmd.Flags().BoolVar(&ast, "ast", false, "mostra a árvore sintática em vez de converter")
	return cmd
}

func newTestarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "testar [CAMINHO]",
		Short: "Executa os testes (funções teste_*) de um arquivo ou diretório",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "testes"
			if len(args) == 1 {
				path = args[0]
			}

			b, release, err := a.builder(true)
			if err != nil {
				return err
			}
			defer release()

			fmt.Fprintf(a.stdout, "Executando testes em: %s\n", path)
			sum, err := b.Test(cmd.Context(), path)
			if err != nil {
				return err
			}
			if len(sum.Results) == 0 {
				fmt.Fprintln(a.stdout, "Nenhum arquivo de teste encontrado.")
				return nil
			}

			for _, r := range sum.Results {
				name := filepath.Base(r.File)
				switch {
				case r.Passed:
					fmt.Fprintf(a.stdout, "✓ %s (%d testes)\n", name, len(r.Tests))
				case r.Err != nil:
					fmt.Fprintf(a.stdout, "✗ %s - %v\n", name, r.Err)
				default:
					fmt.Fprintf(a.stdout, "✗ %s - saiu com código %d\n", name, r.ExitCode)
				}
			}

			fmt.Fprintln(a.stdout, "\nResumo dos testes:")
			fmt.Fprintf(a.stdout, "  Total: %d\n", sum.Passed+sum.Failed)
			fmt.Fprintf(a.stdout, "  Sucesso: %d\n", sum.Passed)
			fmt.Fprintf(a.stdout, "  Falha: %d\n", sum.Failed)
			if !sum.OK() {
				return exitStatus(1)
			}
			fmt.Fprintln(a.stdout, "Todos os testes passaram!")
			return nil
		},
	}
}

func newMontarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "montar [ARQUIVO]",
		Short: "Compila um programa, ou o projeto atual, para um binário",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, release, err := a.builder(true)
			if err != nil {
				return err
			}
			defer release()

			if len(args) == 0 {
				m, err := findProject()
				if err != nil {
					return err
				}
				if m != nil {
					reg, err := manifest.RegistryFor(m)
					if err != nil {
						return err
					}
					bin, err := b.BuildProject(cmd.Context(), m, reg)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.stdout, "Binário gerado: %s\n", bin)
					return nil
				}
				args = []string{defaultProgram}
			}

			_, bin, err := b.Convert(cmd.Context(), args[0], "", true)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Binário gerado: %s\n", bin)
			return nil
		},
	}
}

func newEmpacotarCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "empacotar [DIRETORIO]",
		Short: "Compila o projeto e cria o arquivo de distribuição",
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
			reg, err := manifest.RegistryFor(m)
			if err != nil {
				return err
			}

			b, release, err := a.builder(true)
			if err != nil {
				return err
			}
			defer release()

			fmt.Fprintf(a.stdout, "Empacotando projeto: %s %s\n", m.Nome, m.Versao)
			archive, err := b.Package(cmd.Context(), dir, reg)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Pacote criado: %s\n", archive)
			return nil
		},
	}
}
