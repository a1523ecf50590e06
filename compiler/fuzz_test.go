package compiler

import (
	"testing"
)

// ---------------------------------------------------------------------------
// FuzzLexer: ensure the lexer never panics on arbitrary input.
// ---------------------------------------------------------------------------

var fuzzSeeds = []string{
	// Punctuation and operators
	`{ } ( ) [ ] , : ; . + - * / % = > < >= <= != ≠ ≥ ≤ ?`,
	// Numbers
	`42`, `0`, `3.14`, `1.`, `1.5.2`,
	// Text
	`"olá"`, `""`, `"""várias
linhas"""`, `"${nome}"`, `"sem fim`,
	// Words and keywords
	`ação`, `_tmp`, `pense`, `faca`, `senão`, `e`, `é`,
	// Multi-word keywords and their fallbacks
	`para cada`, `para x`, `quando der erro`, `quando der`, `falhar com`,
	`afirme que`, `é igual a`, `e diferente de`, `e igual`,
	// Comments
	"x // comentário\ny",
	// Programs
	`pense x: número = 5 + 3 * 2`,
	`público modelo P { público a: texto, b: número? }`,
	`faça f(a: número): número { volte a * 2 }`,
	`repita { x = x - 1 } até x <= 0`,
	`tente { falhar com "e" } quando der erro (e2) { mostre e2 }`,
	`se a é diferente de b { } senão se c { } senão { }`,
	`módulo m { pense X: texto = "x" }`,
	`importe a/b.c`,
	// Errors
	`!`, `@`, `==`, `5 = x`,
}

func FuzzLexer(f *testing.F) {
	for _, s := range fuzzSeeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		tokens, err := Tokenize(input)
		if err != nil {
			return
		}
		if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
			t.Fatalf("Tokenize(%q) does not end with EOF", input)
		}
	})
}

// ---------------------------------------------------------------------------
// FuzzCompile: parse and generate must return an error rather than panic.
// ---------------------------------------------------------------------------

func FuzzCompile(f *testing.F) {
	for _, s := range fuzzSeeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		prog, err := Parse(input)
		if err != nil {
			return
		}
		_ = Dump(prog)
		first, err := Generate(prog)
		if err != nil {
			return
		}
		second, _ := Generate(prog)
		if first != second {
			t.Fatalf("Generate(%q) is not deterministic", input)
		}
	})
}
