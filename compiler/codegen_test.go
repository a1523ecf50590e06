package compiler

import (
	"errors"
	"strings"
	"testing"
)

func compile(t *testing.T, src string) string {
	t.Helper()
	out, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	return out
}

// mainBody returns the lines inside the generated fn main, unindented once.
func mainBody(t *testing.T, out string) string {
	t.Helper()
	start := strings.Index(out, "fn main() {\n")
	if start < 0 {
		t.Fatalf("no fn main in output:\n%s", out)
	}
	body := out[start+len("fn main() {\n"):]
	body = strings.TrimSuffix(body, "}\n")
	var lines []string
	for _, line := range strings.Split(strings.TrimSuffix(body, "\n"), "\n") {
		lines = append(lines, strings.TrimPrefix(line, "    "))
	}
	return strings.Join(lines, "\n")
}

func TestGenerateWholeProgram(t *testing.T) {
	got := compile(t, "5 + 3 * 2")
	want := `#![allow(unused)]
use std::collections::HashMap;
use std::io::{self, Write};

fn main() {
    (5.0 + (3.0 * 2.0));
}
`
	if got != want {
		t.Errorf("Compile =\n%s\nwant\n%s", got, want)
	}
}

func TestGenerateEmptyProgram(t *testing.T) {
	got := compile(t, "")
	if !strings.HasSuffix(got, "\nfn main() {\n}\n") {
		t.Errorf("Compile(\"\") =\n%s\nwant an empty fn main", got)
	}
}

func TestGenerateExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"5 + 3 * 2", "(5.0 + (3.0 * 2.0));"},
		{"10 - 3 - 2", "((10.0 - 3.0) - 2.0);"},
		{"2.5 / 0.5", "(2.5 / 0.5);"},
		{"a resto 2", "(a % 2.0);"},
		{"a é igual a b", "(a == b);"},
		{"a é diferente de b", "(a != b);"},
		{"a ≥ b e c ≤ d", "((a >= b) && (c <= d));"},
		{"a ou não b", "(a || !b);"},
		{"lista contém 2", "(lista.contains(&2.0));"},
		{"2 em lista", "(lista.contains(&2.0));"},
		{"-x", "(0.0 - x);"},
		{"x = x + 1", "x = (x + 1.0);"},
		{"mostre (x = 1) + 2", `println!("{:?}", ((x = 1.0) + 2.0));`},
		{"y = x = 3", "y = (x = 3.0);"},
		{"verdadeiro", "true;"},
		{"nada", "None;"},
		{"[1, 2, 3]", "vec![1.0, 2.0, 3.0];"},
		{`{"a": 1, "b": 2}`, `HashMap::from([("a", 1.0), ("b", 2.0)]);`},
		{"{}", "HashMap::new();"},
		{"soma(1, f(2))", "soma(1.0, f(2.0));"},
		{"pessoa.nome", "pessoa.nome;"},
		{`"a\b"`, `"a\\b";`},
		{"\"\"\"diz \"oi\"\ttab\n\"\"\"", `"diz \"oi\"\ttab\n";`},
		{"\"cr\r\"", `"cr\r";`},
		{`"Olá, ${nome}! {x}"`, `format!("Olá, {}! {{x}}", nome);`},
		{`"${ p.nome } tem ${idade}"`, `format!("{} tem {}", p.nome, idade);`},
		{"match(type)", "r#match(r#type);"},
		{"self", "self_;"},
	}

	for _, tc := range tests {
		if got := mainBody(t, compile(t, tc.input)); got != tc.want {
			t.Errorf("Compile(%q) main = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestGenerateStatements(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"pense a: texto", "let mut a: String = String::new();"},
		{"pense b: número", "let mut b: f64 = 0.0;"},
		{"pense c: lógico", "let mut c: bool = false;"},
		{"pense d: Pessoa", "let mut d: Pessoa = Pessoa::default();"},
		{"pense e2: número?", "let mut e2: Option<f64> = None;"},
		{"pense v: vazio", "let mut v: () = ();"},
		{"pense f", "let mut f = Default::default();"},
		{"pense g = 5", "let mut g = 5.0;"},
		{"pense n: número = 5", "let mut n: f64 = 5.0;"},
		{`pense s: texto = "oi"`, `let mut s: String = String::from("oi");`},
		{"público pense h = 1", "let mut h = 1.0;"},
		{"mostre x", `println!("{:?}", x);`},
		{"afirme que x > 0", "assert!((x > 0.0));"},
		{`falhar com "ruim"`, `panic!("{}", "ruim");`},
		{"para cada i de 1 até n + 1 { mostre i }", "for i in (1.0) as i64..=((n + 1.0)) as i64 {\n    let i = i as f64;\n    println!(\"{:?}\", i);\n}"},
		{"enquanto x < 3 { x = x + 1 }", "while (x < 3.0) {\n    x = (x + 1.0);\n}"},
		{"enquanto verdadeiro { pare; continue }", "while true {\n    break;\n    continue;\n}"},
		{
			"se x > 1 { mostre 1 } senão se x < 0 { mostre 2 } senão { mostre 3 }",
			"if (x > 1.0) {\n    println!(\"{:?}\", 1.0);\n} else if (x < 0.0) {\n    println!(\"{:?}\", 2.0);\n} else {\n    println!(\"{:?}\", 3.0);\n}",
		},
		{"se ok { }", "if ok {\n}"},
	}

	for _, tc := range tests {
		if got := mainBody(t, compile(t, tc.input)); got != tc.want {
			t.Errorf("Compile(%q) main =\n%s\nwant\n%s", tc.input, got, tc.want)
		}
	}
}

func TestGenerateRepeatUntilRunsBodyFirst(t *testing.T) {
	got := mainBody(t, compile(t, "pense x = 0\nrepita { x = x - 1 } até x <= 0"))
	want := `let mut x = 0.0;
loop {
    x = (x - 1.0);
    if (x <= 0.0) {
        break;
    }
}`
	if got != want {
		t.Errorf("main =\n%s\nwant\n%s", got, want)
	}
}

func TestGenerateTryCatch(t *testing.T) {
	src := `tente {
    falhar com "ruim"
} quando der erro {
    mostre erro
}`
	got := mainBody(t, compile(t, src))
	want := `match (|| -> Result<(), Box<dyn std::error::Error>> {
    return Err(format!("{}", "ruim").into());
    Ok(())
})() {
    Ok(_) => {}
    Err(erro) => {
        println!("{:?}", erro);
    }
}`
	if got != want {
		t.Errorf("main =\n%s\nwant\n%s", got, want)
	}
}

func TestGenerateModelVisibility(t *testing.T) {
	out := compile(t, "público modelo Pessoa { público nome: texto, idade: número }\nmodelo Caixa { item: Pessoa? }")
	want := `#[derive(Debug, Clone, Default, PartialEq)]
pub struct Pessoa {
    pub nome: String,
    idade: f64,
}

#[derive(Debug, Clone, Default, PartialEq)]
struct Caixa {
    item: Option<Pessoa>,
}
`
	if !strings.Contains(out, want) {
		t.Errorf("output =\n%s\nwant it to contain\n%s", out, want)
	}
}

func TestGenerateFunctions(t *testing.T) {
	out := compile(t, "público faça soma(a: número, b: número): número { volte a + b }\nfaça nada_faz() { volte }")
	for _, want := range []string{
		"pub fn soma(a: f64, b: f64) -> f64 {\n    return (a + b);\n}\n",
		"fn nada_faz() {\n    return;\n}\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output =\n%s\nwant it to contain\n%s", out, want)
		}
	}
}

func TestGenerateItemsBeforeMain(t *testing.T) {
	out := compile(t, "mostre 1\nimporte std.collections.HashSet\nfaça f() {}\nmostre 2")
	iUse := strings.Index(out, "use std::collections::HashSet;")
	iFn := strings.Index(out, "fn f() {")
	iMain := strings.Index(out, "fn main() {")
	if iUse < 0 || iFn < 0 || iMain < 0 || !(iUse < iFn && iFn < iMain) {
		t.Errorf("items not emitted in source order before main:\n%s", out)
	}
	if got := mainBody(t, out); got != "println!(\"{:?}\", 1.0);\nprintln!(\"{:?}\", 2.0);" {
		t.Errorf("main = %q", got)
	}
}

func TestGenerateEntryPoint(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"faça principal() { mostre 1 }", "principal();"},
		{"módulo app { público faça principal() { } }", "app::principal();"},
		{"módulo app { faça principal() { } }", ""},
		{"faça principal() { }\nmostre 2", `println!("{:?}", 2.0);`},
	}
	for _, tc := range tests {
		if got := mainBody(t, compile(t, tc.input)); got != tc.want {
			t.Errorf("Compile(%q) main = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestGenerateModule(t *testing.T) {
	src := `módulo util {
    público pense PI: número = 3.14
    pense NOME: texto = "util"
    público faça dobro(x: número): número { volte x * 2 }
}`
	want := `mod util {
    use super::*;

    pub static PI: f64 = 3.14;

    static NOME: &'static str = "util";

    pub fn dobro(x: f64) -> f64 {
        return (x * 2.0);
    }
}
`
	if out := compile(t, src); !strings.Contains(out, want) {
		t.Errorf("output =\n%s\nwant it to contain\n%s", out, want)
	}
}

func TestGenerateUnsupported(t *testing.T) {
	tests := []struct {
		input     string
		construct string
	}{
		{"módulo m { mostre 1 }", "mostre at module scope"},
		{"módulo m { pense x = 1 }", "module variable without type and initializer"},
		{"módulo m { pense x: número }", "module variable without type and initializer"},
		{"faça main() { }", "function named main"},
		{"faça f(): número { tente { volte 1 } quando der erro { } }", "volte inside tente"},
		{"enquanto verdadeiro { tente { pare } quando der erro { } }", "pare inside tente"},
		{"enquanto verdadeiro { tente { continue } quando der erro { } }", "continue inside tente"},
		{`mostre "${1 + 2}"`, "interpolated text placeholder"},
		{`mostre "${a.b.c}"`, "interpolated text placeholder"},
		{`mostre "${nome"`, "unterminated interpolated text placeholder"},
	}

	for _, tc := range tests {
		out, err := Compile(tc.input)
		if out != "" {
			t.Errorf("Compile(%q): got partial output", tc.input)
		}
		var uErr *UnsupportedConstructError
		if !errors.As(err, &uErr) {
			t.Errorf("Compile(%q): err = %v, want *UnsupportedConstructError", tc.input, err)
			continue
		}
		if uErr.Construct != tc.construct {
			t.Errorf("Compile(%q): construct = %q, want %q", tc.input, uErr.Construct, tc.construct)
		}
		if uErr.Pos.Line == 0 {
			t.Errorf("Compile(%q): error has no position", tc.input)
		}
	}
}

func TestGenerateLoopControlInsideTry(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"para cada",
			"tente { para cada i de 1 até 3 { pare } } quando der erro { }",
			"    for i in (1.0) as i64..=(3.0) as i64 {\n        let i = i as f64;\n        break;\n    }\n",
		},
		{
			"enquanto",
			"tente { enquanto verdadeiro { continue } } quando der erro { }",
			"    while true {\n        continue;\n    }\n",
		},
		{
			"repita",
			"tente { repita { pare } até verdadeiro } quando der erro { }",
			"    loop {\n        break;\n        if true {\n            break;\n        }\n    }\n",
		},
		{
			"falhar com inside loop",
			`tente { enquanto verdadeiro { falhar com "x" } } quando der erro { }`,
			"        return Err(format!(\"{}\", \"x\").into());\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Compile(tc.input)
			if err != nil {
				t.Fatalf("Compile(%q): %v", tc.input, err)
			}
			if !strings.Contains(mainBody(t, out), tc.want) {
				t.Errorf("main =\n%s\nwant it to contain\n%s", mainBody(t, out), tc.want)
			}
		})
	}
}

func TestGenerateFailInsideFunctionInTry(t *testing.T) {
	src := `tente {
    faça ajuda() { falhar com "x" }
    ajuda()
} quando der erro { }`
	out := compile(t, src)
	if !strings.Contains(out, `panic!("{}", "x");`) {
		t.Errorf("nested function should panic, not return Err:\n%s", out)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	src := `público modelo Ponto { público x: número, y: número }
faça principal() {
    pense p: Ponto
    para cada i de 1 até 3 { mostre i }
    tente { falhar com "ops" } quando der erro { mostre erro }
}`
	prog, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	first, err := Generate(prog)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := Generate(prog)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if first != second {
		t.Errorf("Generate is not deterministic:\n%s\n---\n%s", first, second)
	}
}

func TestTestFunctions(t *testing.T) {
	prog, err := Parse(`faça teste_soma() { afirme que 1 < 2 }
faça teste_com_param(x: número) { }
faça teste_valor(): número { volte 1 }
faça auxiliar() { }
faça testeFinal(): vazio { }`)
	if err != nil {
		t.Fatal(err)
	}
	got := strings.Join(TestFunctions(prog), ",")
	if got != "teste_soma,testeFinal" {
		t.Errorf("TestFunctions = %s, want teste_soma,testeFinal", got)
	}
}

func TestGenerateTests(t *testing.T) {
	prog, err := Parse(`pense base = 2
faça teste_soma() {
    afirme que base + 2 é igual a 4
}`)
	if err != nil {
		t.Fatal(err)
	}
	out, err := GenerateTests(prog)
	if err != nil {
		t.Fatalf("GenerateTests: %v", err)
	}
	body := mainBody(t, out)
	for _, want := range []string{
		"let mut base = 2.0;",
		`("teste_soma", teste_soma),`,
		"match std::panic::catch_unwind(teste) {",
		"std::process::exit(1);",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("test main missing %q:\n%s", want, body)
		}
	}
	if strings.Contains(body, "principal") {
		t.Errorf("test main should not call principal:\n%s", body)
	}
}

func TestGenerateStmt(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"pense g = 5", "let mut g = 5.0;\n"},
		{"mostre x", "println!(\"{:?}\", x);\n"},
		{"público faça dobro(x: número): número { volte x * 2 }", "pub fn dobro(x: f64) -> f64 {\n    return (x * 2.0);\n}\n"},
	}

	for _, tc := range tests {
		prog, err := Parse(tc.input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.input, err)
		}
		got, err := GenerateStmt(prog.Statements[0])
		if err != nil {
			t.Fatalf("GenerateStmt(%q): %v", tc.input, err)
		}
		if got != tc.want {
			t.Errorf("GenerateStmt(%q) =\n%q\nwant\n%q", tc.input, got, tc.want)
		}
	}
}
