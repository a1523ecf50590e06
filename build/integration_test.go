package build

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pbrlang/pbr/toolchain"
)

// ---------------------------------------------------------------------------
// End-to-end tests against a real rustc. Skipped when none is installed.
// ---------------------------------------------------------------------------

func realToolchain(t *testing.T) *toolchain.Rustc {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping rustc integration in short mode")
	}
	rustc, err := toolchain.Detect()
	if err != nil {
		t.Skipf("rustc not available: %v", err)
	}
	return rustc
}

func TestIntegrationRun(t *testing.T) {
	rustc := realToolchain(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tests := []struct {
		name string
		src  string
		want string
	}{
		{"texto", `mostre "Olá, mundo!"`, "\"Olá, mundo!\"\n"},
		{"aritmética", "pense x = 2 + 3\nmostre x", "5.0\n"},
		{"laço", "para cada i de 1 até 3 { mostre i }", "1.0\n2.0\n3.0\n"},
		{"número tipado", "pense x: número = 5\nx = x / 2\nmostre x", "2.5\n"},
		{"fatorial", `faça fatorial(n: número): número {
    se n <= 1 {
        volte 1
    }
    volte n * fatorial(n - 1)
}

faça principal() {
    para cada i de 1 até 5 {
        mostre fatorial(i)
    }
}`, "1.0\n2.0\n6.0\n24.0\n120.0\n"},
		{"laço dentro de tente", `tente {
    para cada i de 1 até 3 {
        se i > 2 {
            pare
        }
        mostre i
    }
} quando der erro {
    mostre erro
}`, "1.0\n2.0\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out strings.Builder
			b := &Builder{Rustc: rustc, Stdio: toolchain.Stdio{Out: &out}}
			code, err := b.RunSource(ctx, "e2e.pbr", tc.src, nil)
			if err != nil {
				t.Fatalf("RunSource: %v", err)
			}
			if code != 0 {
				t.Errorf("exit code = %d, want 0", code)
			}
			if out.String() != tc.want {
				t.Errorf("output = %q, want %q", out.String(), tc.want)
			}
		})
	}
}

func TestIntegrationTest(t *testing.T) {
	rustc := realToolchain(t)
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "teste_contas.pbr"), `faça teste_soma() {
    pense resultado = 2 + 2
    afirme que resultado é igual a 4
}

faça teste_errado() {
    afirme que 1 > 2
}
`)

	var out strings.Builder
	b := &Builder{Rustc: rustc, Stdio: toolchain.Stdio{Out: &out}}
	sum, err := b.Test(context.Background(), dir)
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("failed = %d, want 1: %+v", sum.Failed, sum.Results)
	}
	for _, want := range []string{"teste teste_soma ... ok", "teste teste_errado ... FALHOU"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
	if sum.Results[0].ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", sum.Results[0].ExitCode)
	}
}
