package compiler

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

var update = flag.Bool("update", false, "rewrite output.rs sections of testdata/*.txtar")

// TestGoldenTranspile compiles the input.pbr section of every archive in
// testdata and compares the result with its output.rs section.
func TestGoldenTranspile(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no golden archives in testdata")
	}

	for _, path := range files {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatalf("read %s: %v", path, err)
			}
			input, want := section(ar, "input.pbr"), section(ar, "output.rs")
			if input == nil {
				t.Fatalf("%s: missing input.pbr", path)
			}

			got, err := Compile(string(input.Data))
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}

			if *update {
				if want == nil {
					ar.Files = append(ar.Files, txtar.File{Name: "output.rs"})
					want = &ar.Files[len(ar.Files)-1]
				}
				want.Data = []byte(got)
				if err := os.WriteFile(path, txtar.Format(ar), 0o644); err != nil {
					t.Fatalf("write %s: %v", path, err)
				}
				return
			}
			if want == nil {
				t.Fatalf("%s: missing output.rs (run with -update)", path)
			}
			if got != string(want.Data) {
				t.Errorf("output mismatch for %s\ngot:\n%s\nwant:\n%s", path, got, want.Data)
			}
		})
	}
}

func section(ar *txtar.Archive, name string) *txtar.File {
	for i := range ar.Files {
		if ar.Files[i].Name == name {
			return &ar.Files[i]
		}
	}
	return nil
}
