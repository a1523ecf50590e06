package hash

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pbrlang/pbr/compiler"
)

// TestGoldenFiles verifies that known programs produce expected fingerprints.
// If the golden files don't exist, they are created (first run).
// This prevents accidental format drift.
func TestGoldenFiles(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{
			name: "print_arithmetic",
			src:  `mostre 5 + 3 * 2`,
		},
		{
			name: "function_with_params",
			src:  `público faça soma(a: número, b: número): número { volte a + b }`,
		},
		{
			name: "model_visibility",
			src:  `público modelo Pessoa { público nome: texto, idade: número? }`,
		},
		{
			name: "control_flow",
			src: `pense x = 3
repita { x = x - 1 } até x <= 0
tente { falhar com "e" } quando der erro { mostre erro }`,
		},
		{
			name: "module_import",
			src: `importe std.fmt
módulo m { público pense N: número = 1 }`,
		},
	}

	goldenDir := filepath.Join("testdata")
	if err := os.MkdirAll(goldenDir, 0o755); err != nil {
		t.Fatalf("create testdata dir: %v", err)
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prog, err := compiler.Parse(tc.src)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			serializedHex := hex.EncodeToString(Serialize(prog))
			hashHex := Hex(Program(prog))

			goldenPath := filepath.Join(goldenDir, tc.name+".golden")
			expected, err := os.ReadFile(goldenPath)
			if err != nil {
				// First run: create golden file
				content := serializedHex + "\n" + hashHex + "\n"
				if writeErr := os.WriteFile(goldenPath, []byte(content), 0o644); writeErr != nil {
					t.Fatalf("write golden file: %v", writeErr)
				}
				t.Logf("created golden file: %s", goldenPath)
				return
			}

			lines := strings.Split(strings.TrimSpace(string(expected)), "\n")
			if len(lines) != 2 {
				t.Fatalf("golden file %s: expected 2 lines, got %d", goldenPath, len(lines))
			}

			if serializedHex != lines[0] {
				t.Errorf("serialized bytes mismatch:\n  got:  %s\n  want: %s", serializedHex, lines[0])
			}
			if hashHex != lines[1] {
				t.Errorf("hash mismatch:\n  got:  %s\n  want: %s", hashHex, lines[1])
			}
		})
	}
}
