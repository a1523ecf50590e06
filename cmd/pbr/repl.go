package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/pbrlang/pbr/build"
	"github.com/pbrlang/pbr/compiler"
	"github.com/pbrlang/pbr/toolchain"
)

const replHelp = `Digite comandos PBRLang; cada um é mostrado em Rust.
  :rust    mostra o programa Rust completo da sessão
  :rodar   compila e executa a sessão
  :limpar  descarta a sessão
  :sair    encerra
`

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Sessão interativa que mostra o Rust gerado para cada comando",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, release, err := a.builder(false)
			if err != nil {
				return err
			}
			defer release()
			if b.Rustc == nil {
				if rustc, err := toolchain.Detect(); err == nil {
					b.Rustc = rustc
				}
			}

			state := liner.NewLiner()
			defer state.Close()
			state.SetCtrlCAborts(true)
			state.SetCompleter(replCompleter)

			historyPath := replHistoryPath()
			if historyPath != "" {
				if f, err := os.Open(historyPath); err == nil {
					state.ReadHistory(f)
					f.Close()
				}
				defer func() {
					if f, err := os.Create(historyPath); err == nil {
						state.WriteHistory(f)
						f.Close()
					}
				}()
			}

			fmt.Fprintf(a.stdout, "PBRLang %s (:ajuda para comandos)\n", version)
			r := &repl{builder: b, out: a.stdout, errOut: a.stderr}
			return r.loop(cmd.Context(), state)
		},
	}
}

// lineReader is the part of *liner.State the loop uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type repl struct {
	builder *build.Builder
	out     io.Writer
	errOut  io.Writer

	session []string // accepted inputs, in order
}

func (r *repl) loop(ctx context.Context, in lineReader) error {
	var buffer strings.Builder

	for {
		prompt := "pbr> "
		if buffer.Len() > 0 {
			prompt = "...  "
		}
		input, err := in.Prompt(prompt)
		if err != nil {
			switch {
			case errors.Is(err, liner.ErrPromptAborted):
				fmt.Fprintln(r.out)
				buffer.Reset()
				continue
			case errors.Is(err, io.EOF):
				fmt.Fprintln(r.out)
				return nil
			default:
				return err
			}
		}

		if buffer.Len() == 0 && strings.HasPrefix(strings.TrimSpace(input), ":") {
			in.AppendHistory(strings.TrimSpace(input))
			if quit := r.command(ctx, strings.TrimSpace(input)); quit {
				return nil
			}
			continue
		}

		buffer.WriteString(input)
		buffer.WriteString("\n")

		src := buffer.String()
		prog, parseErr := compiler.Parse(src)
		if parseErr != nil {
			if compiler.IsIncomplete(parseErr) {
				continue
			}
			fmt.Fprintf(r.errOut, "erro: %v\n", parseErr)
			buffer.Reset()
			continue
		}

		buffer.Reset()
		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		in.AppendHistory(trimmed)
		if r.show(prog) {
			r.session = append(r.session, src)
		}
	}
}

// show prints the Rust for each statement of prog and reports whether all
// of them lowered.
func (r *repl) show(prog *compiler.Program) bool {
	for _, stmt := range prog.Statements {
		rust, err := compiler.GenerateStmt(stmt)
		if err != nil {
			fmt.Fprintf(r.errOut, "erro: %v\n", err)
			return false
		}
		fmt.Fprint(r.out, rust)
	}
	return true
}

func (r *repl) source() string {
	return strings.Join(r.session, "")
}

// command runs a :command and reports whether the loop should stop.
func (r *repl) command(ctx context.Context, line string) bool {
	switch line {
	case ":sair", ":q":
		return true
	case ":ajuda", ":h":
		fmt.Fprint(r.out, replHelp)
	case ":limpar":
		r.session = nil
		fmt.Fprintln(r.out, "sessão descartada")
	case ":rust":
		rust, err := compiler.Compile(r.source())
		if err != nil {
			fmt.Fprintf(r.errOut, "erro: %v\n", err)
			break
		}
		fmt.Fprint(r.out, rust)
	case ":rodar":
		if r.builder.Rustc == nil {
			fmt.Fprintf(r.errOut, "erro: %v\n", build.ErrNoToolchain)
			break
		}
		code, err := r.builder.RunSource(ctx, "repl.pbr", r.source(), nil)
		if err != nil {
			fmt.Fprintf(r.errOut, "erro: %v\n", err)
			break
		}
		if code != 0 {
			fmt.Fprintf(r.errOut, "saiu com código %d\n", code)
		}
	default:
		fmt.Fprintf(r.errOut, "comando desconhecido %s (:ajuda)\n", line)
	}
	return false
}

func replCompleter(line string) []string {
	i := strings.LastIndexAny(line, " \t(")
	head, word := line[:i+1], line[i+1:]
	if word == "" {
		return nil
	}
	var out []string
	for _, kw := range compiler.Keywords() {
		if strings.HasPrefix(kw, word) {
			out = append(out, head+kw)
		}
	}
	return out
}

func replHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".pbr_history")
}
