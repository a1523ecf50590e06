package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Codegen: Lower the AST to Rust source text
// ---------------------------------------------------------------------------

// GeneratorVersion identifies the lowering rules. Cached output produced by a
// different version is discarded.
const GeneratorVersion = "pbr-rust/2"

const preamble = `#![allow(unused)]
use std::collections::HashMap;
use std::io::{self, Write};
`

// Generator lowers a Program to Rust. A Generator is single-use; Generate
// creates a fresh one per call.
type Generator struct {
	out    strings.Builder
	indent int

	// tryDepth counts the try closures enclosing the statement being
	// lowered within the current function body.
	tryDepth int

	// loopDepth counts the loops enclosing the statement inside the
	// innermost function body or try closure. pare and continue inside a
	// try closure are only valid when a loop in that closure encloses them.
	loopDepth int

	// tests switches main to the test harness.
	tests bool
}

// Generate returns the Rust source for prog or an
// *UnsupportedConstructError.
func Generate(prog *Program) (string, error) {
	g := &Generator{}
	if err := g.program(prog); err != nil {
		return "", err
	}
	return g.out.String(), nil
}

// GenerateTests lowers prog as a test program. main runs the top-level
// statements, then every test function under catch_unwind, printing one
// result line per test and exiting with status 1 if any test panicked.
func GenerateTests(prog *Program) (string, error) {
	g := &Generator{tests: true}
	if err := g.program(prog); err != nil {
		return "", err
	}
	return g.out.String(), nil
}

// GenerateStmt lowers a single statement or item on its own, without the
// preamble or a main function. Executable statements are emitted as they
// would appear inside main.
func GenerateStmt(stmt Stmt) (string, error) {
	g := &Generator{}
	var err error
	if IsItem(stmt) {
		err = g.item(stmt)
	} else {
		err = g.statements([]Stmt{stmt})
	}
	if err != nil {
		return "", err
	}
	return g.out.String(), nil
}

// TestFunctions returns the names of the top-level functions named teste*
// that take no parameters and return nothing, in source order.
func TestFunctions(prog *Program) []string {
	var names []string
	for _, stmt := range prog.Statements {
		fn, ok := stmt.(*FuncDecl)
		if !ok || !strings.HasPrefix(fn.Name, "teste") || len(fn.Params) > 0 {
			continue
		}
		if fn.ReturnType != nil && fn.ReturnType.Kind != TypeVoid {
			continue
		}
		names = append(names, fn.Name)
	}
	return names
}

// line writes one indented line.
func (g *Generator) line(format string, args ...interface{}) {
	g.out.WriteString(strings.Repeat("    ", g.indent))
	fmt.Fprintf(&g.out, format, args...)
	g.out.WriteByte('\n')
}

func unsupported(construct string, n Node) error {
	var pos Position
	if n != nil {
		pos = n.Pos()
	}
	return &UnsupportedConstructError{Construct: construct, Pos: pos}
}

// ---------------------------------------------------------------------------
// Program layout
// ---------------------------------------------------------------------------

func (g *Generator) program(prog *Program) error {
	g.out.WriteString(preamble)

	var exec []Stmt
	for _, stmt := range prog.Statements {
		if !IsItem(stmt) {
			exec = append(exec, stmt)
			continue
		}
		if fn, ok := stmt.(*FuncDecl); ok && fn.Name == "main" {
			return unsupported("function named main", fn)
		}
		g.out.WriteByte('\n')
		if err := g.item(stmt); err != nil {
			return err
		}
	}

	g.out.WriteByte('\n')
	g.line("fn main() {")
	g.indent++
	if len(exec) > 0 {
		if err := g.statements(exec); err != nil {
			return err
		}
	}
	switch {
	case g.tests:
		g.testHarness(TestFunctions(prog))
	case len(exec) == 0:
		if entry := entryPoint(prog); entry != "" {
			g.line("%s();", entry)
		}
	}
	g.indent--
	g.line("}")
	return nil
}

func (g *Generator) testHarness(names []string) {
	g.line("let testes: Vec<(&str, fn())> = vec![")
	g.indent++
	for _, name := range names {
		g.line("(%s, %s),", strconv.Quote(name), rustIdent(name))
	}
	g.indent--
	g.line("];")
	g.line("let mut falhas = 0;")
	g.line("for (nome, teste) in testes {")
	g.indent++
	g.line("match std::panic::catch_unwind(teste) {")
	g.indent++
	g.line(`Ok(()) => println!("teste {} ... ok", nome),`)
	g.line("Err(_) => {")
	g.indent++
	g.line(`println!("teste {} ... FALHOU", nome);`)
	g.line("falhas += 1;")
	g.indent--
	g.line("}")
	g.indent--
	g.line("}")
	g.indent--
	g.line("}")
	g.line("if falhas > 0 {")
	g.indent++
	g.line("std::process::exit(1);")
	g.indent--
	g.line("}")
}

// entryPoint finds the function main should call when the program has no
// top-level executable statements.
func entryPoint(prog *Program) string {
	for _, stmt := range prog.Statements {
		if fn, ok := stmt.(*FuncDecl); ok && fn.Name == "principal" {
			return "principal"
		}
	}
	for _, stmt := range prog.Statements {
		mod, ok := stmt.(*ModuleDecl)
		if !ok {
			continue
		}
		for _, inner := range mod.Statements {
			if fn, ok := inner.(*FuncDecl); ok && fn.Name == "principal" && fn.Public {
				return rustIdent(mod.Name) + "::principal"
			}
		}
	}
	return ""
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// item lowers a function, model, module or import.
func (g *Generator) item(stmt Stmt) error {
	switch n := stmt.(type) {
	case *FuncDecl:
		return g.funcDecl(n)
	case *ModelDecl:
		return g.modelDecl(n)
	case *ModuleDecl:
		return g.moduleDecl(n)
	case *ImportDecl:
		segs := make([]string, len(n.Path))
		for i, s := range n.Path {
			segs[i] = rustIdent(s)
		}
		g.line("use %s;", strings.Join(segs, "::"))
		return nil
	}
	return unsupported(fmt.Sprintf("%T at item scope", stmt), stmt)
}

func (g *Generator) funcDecl(fn *FuncDecl) error {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = rustIdent(p.Name) + ": " + rustType(p.Type)
	}
	sig := fmt.Sprintf("fn %s(%s)", rustIdent(fn.Name), strings.Join(params, ", "))
	if fn.Public {
		sig = "pub " + sig
	}
	if fn.ReturnType != nil {
		sig += " -> " + rustType(fn.ReturnType)
	}

	g.line("%s {", sig)
	savedTry, savedLoop := g.tryDepth, g.loopDepth
	g.tryDepth, g.loopDepth = 0, 0
	g.indent++
	err := g.statements(fn.Body.Statements)
	g.indent--
	g.tryDepth, g.loopDepth = savedTry, savedLoop
	if err != nil {
		return err
	}
	g.line("}")
	return nil
}

func (g *Generator) modelDecl(m *ModelDecl) error {
	g.line("#[derive(Debug, Clone, Default, PartialEq)]")
	if m.Public {
		g.line("pub struct %s {", rustIdent(m.Name))
	} else {
		g.line("struct %s {", rustIdent(m.Name))
	}
	g.indent++
	for _, f := range m.Fields {
		vis := ""
		if f.Public {
			vis = "pub "
		}
		g.line("%s%s: %s,", vis, rustIdent(f.Name), rustType(f.Type))
	}
	g.indent--
	g.line("}")
	return nil
}

func (g *Generator) moduleDecl(mod *ModuleDecl) error {
	g.line("mod %s {", rustIdent(mod.Name))
	g.indent++
	g.line("use super::*;")
	for _, stmt := range mod.Statements {
		g.out.WriteByte('\n')
		var err error
		switch n := stmt.(type) {
		case *VarDecl:
			err = g.staticDecl(n)
		case *FuncDecl, *ModelDecl, *ModuleDecl, *ImportDecl:
			err = g.item(n)
		default:
			err = unsupported(fmt.Sprintf("%s at module scope", stmtKind(stmt)), stmt)
		}
		if err != nil {
			return err
		}
	}
	g.indent--
	g.line("}")
	return nil
}

// staticDecl lowers a module-level variable to a static item.
func (g *Generator) staticDecl(v *VarDecl) error {
	if v.Type == nil || v.Value == nil {
		return unsupported("module variable without type and initializer", v)
	}
	value, err := g.expr(v.Value)
	if err != nil {
		return err
	}
	vis := ""
	if v.Public {
		vis = "pub "
	}
	g.line("%sstatic %s: %s = %s;", vis, rustIdent(v.Name), staticType(v.Type), value)
	return nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (g *Generator) statements(stmts []Stmt) error {
	for _, stmt := range stmts {
		if err := g.stmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) block(b *Block) error {
	g.indent++
	err := g.statements(b.Statements)
	g.indent--
	return err
}

func (g *Generator) stmt(stmt Stmt) error {
	switch n := stmt.(type) {
	case *VarDecl:
		return g.varDecl(n)

	case *ExprStmt:
		var (
			e   string
			err error
		)
		if a, ok := n.Expr.(*Assign); ok {
			e, err = g.assign(a)
		} else {
			e, err = g.expr(n.Expr)
		}
		if err != nil {
			return err
		}
		g.line("%s;", e)
		return nil

	case *Block:
		g.line("{")
		if err := g.block(n); err != nil {
			return err
		}
		g.line("}")
		return nil

	case *If:
		return g.ifStmt(n, "if")

	case *ForRange:
		start, err := g.expr(n.Start)
		if err != nil {
			return err
		}
		end, err := g.expr(n.End)
		if err != nil {
			return err
		}
		v := rustIdent(n.Var)
		return g.loop(fmt.Sprintf("for %s in (%s) as i64..=(%s) as i64 {", v, start, end), n.Body,
			fmt.Sprintf("let %s = %s as f64;", v, v))

	case *While:
		cond, err := g.expr(n.Cond)
		if err != nil {
			return err
		}
		return g.loop(fmt.Sprintf("while %s {", cond), n.Body, "")

	case *RepeatUntil:
		cond, err := g.expr(n.Cond)
		if err != nil {
			return err
		}
		g.line("loop {")
		g.loopDepth++
		err = g.block(n.Body)
		g.loopDepth--
		if err != nil {
			return err
		}
		g.indent++
		g.line("if %s {", cond)
		g.indent++
		g.line("break;")
		g.indent--
		g.line("}")
		g.indent--
		g.line("}")
		return nil

	case *Break:
		if g.tryDepth > 0 && g.loopDepth == 0 {
			return unsupported("pare inside tente", n)
		}
		g.line("break;")
		return nil

	case *Continue:
		if g.tryDepth > 0 && g.loopDepth == 0 {
			return unsupported("continue inside tente", n)
		}
		g.line("continue;")
		return nil

	case *TryCatch:
		return g.tryCatch(n)

	case *Return:
		if g.tryDepth > 0 {
			return unsupported("volte inside tente", n)
		}
		if n.Value == nil {
			g.line("return;")
			return nil
		}
		v, err := g.expr(n.Value)
		if err != nil {
			return err
		}
		g.line("return %s;", v)
		return nil

	case *Print:
		v, err := g.expr(n.Value)
		if err != nil {
			return err
		}
		g.line(`println!("{:?}", %s);`, v)
		return nil

	case *Fail:
		v, err := g.expr(n.Value)
		if err != nil {
			return err
		}
		if g.tryDepth > 0 {
			g.line(`return Err(format!("{}", %s).into());`, v)
		} else {
			g.line(`panic!("{}", %s);`, v)
		}
		return nil

	case *Assert:
		cond, err := g.expr(n.Cond)
		if err != nil {
			return err
		}
		g.line("assert!(%s);", cond)
		return nil

	case *FuncDecl, *ModelDecl, *ModuleDecl, *ImportDecl:
		return g.item(n)
	}
	return unsupported(stmtKind(stmt), stmt)
}

// varDecl lowers a local variable to a mutable binding.
func (g *Generator) varDecl(v *VarDecl) error {
	var value string
	if v.Value != nil {
		var err error
		if value, err = g.expr(v.Value); err != nil {
			return err
		}
		if _, isText := v.Value.(*TextLiteral); isText && v.Type != nil && v.Type.Kind == TypeText {
			value = "String::from(" + value + ")"
		}
	} else {
		value = defaultValue(v.Type)
	}

	if v.Type != nil {
		g.line("let mut %s: %s = %s;", rustIdent(v.Name), rustType(v.Type), value)
	} else {
		g.line("let mut %s = %s;", rustIdent(v.Name), value)
	}
	return nil
}

// ifStmt lowers an if chain. An else block holding a single If is emitted
// as else if.
func (g *Generator) ifStmt(n *If, keyword string) error {
	cond, err := g.expr(n.Cond)
	if err != nil {
		return err
	}
	g.line("%s %s {", keyword, cond)
	if err := g.block(n.Then); err != nil {
		return err
	}
	if n.Else == nil {
		g.line("}")
		return nil
	}
	if len(n.Else.Statements) == 1 {
		if nested, ok := n.Else.Statements[0].(*If); ok {
			return g.ifStmt(nested, "} else if")
		}
	}
	g.line("} else {")
	if err := g.block(n.Else); err != nil {
		return err
	}
	g.line("}")
	return nil
}

// loop emits header, an optional first line, then body.
func (g *Generator) loop(header string, body *Block, first string) error {
	g.line("%s", header)
	if first != "" {
		g.indent++
		g.line("%s", first)
		g.indent--
	}
	g.loopDepth++
	err := g.block(body)
	g.loopDepth--
	if err != nil {
		return err
	}
	g.line("}")
	return nil
}

// tryCatch runs the try block in a closure returning Result and matches on
// the outcome.
func (g *Generator) tryCatch(n *TryCatch) error {
	g.line("match (|| -> Result<(), Box<dyn std::error::Error>> {")
	savedLoop := g.loopDepth
	g.tryDepth++
	g.loopDepth = 0
	err := g.block(n.Try)
	g.tryDepth--
	g.loopDepth = savedLoop
	if err != nil {
		return err
	}
	g.indent++
	g.line("Ok(())")
	g.indent--
	g.line("})() {")
	g.indent++
	g.line("Ok(_) => {}")
	g.line("Err(%s) => {", rustIdent(n.ErrName))
	if err := g.block(n.Catch); err != nil {
		return err
	}
	g.line("}")
	g.indent--
	g.line("}")
	return nil
}

// stmtKind names a statement for error messages.
func stmtKind(stmt Stmt) string {
	switch stmt.(type) {
	case *VarDecl:
		return "variable declaration"
	case *ExprStmt:
		return "expression statement"
	case *Block:
		return "block"
	case *If:
		return "se"
	case *ForRange:
		return "para cada"
	case *While:
		return "enquanto"
	case *RepeatUntil:
		return "repita"
	case *Break:
		return "pare"
	case *Continue:
		return "continue"
	case *TryCatch:
		return "tente"
	case *Return:
		return "volte"
	case *Print:
		return "mostre"
	case *Fail:
		return "falhar com"
	case *Assert:
		return "afirme que"
	}
	return fmt.Sprintf("%T", stmt)
}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

var rustOperators = map[Operator]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpRem:          "%",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpGreater:      ">",
	OpLess:         "<",
	OpGreaterEqual: ">=",
	OpLessEqual:    "<=",
	OpAnd:          "&&",
	OpOr:           "||",
}

func (g *Generator) expr(e Expr) (string, error) {
	switch n := e.(type) {
	case *TextLiteral:
		if n.Interpolated {
			return interpolate(n)
		}
		return `"` + escapeRust(n.Value) + `"`, nil

	case *NumberLiteral:
		return rustNumber(n.Value), nil

	case *BoolLiteral:
		return strconv.FormatBool(n.Value), nil

	case *NothingLiteral:
		return "None", nil

	case *ListLiteral:
		elems, err := g.exprList(n.Elements)
		if err != nil {
			return "", err
		}
		return "vec![" + strings.Join(elems, ", ") + "]", nil

	case *DictLiteral:
		if len(n.Entries) == 0 {
			return "HashMap::new()", nil
		}
		pairs := make([]string, len(n.Entries))
		for i, entry := range n.Entries {
			k, err := g.expr(entry.Key)
			if err != nil {
				return "", err
			}
			v, err := g.expr(entry.Value)
			if err != nil {
				return "", err
			}
			pairs[i] = "(" + k + ", " + v + ")"
		}
		return "HashMap::from([" + strings.Join(pairs, ", ") + "])", nil

	case *Identifier:
		return rustIdent(n.Name), nil

	case *Call:
		args, err := g.exprList(n.Args)
		if err != nil {
			return "", err
		}
		return rustIdent(n.Name) + "(" + strings.Join(args, ", ") + ")", nil

	case *BinaryOp:
		left, err := g.expr(n.Left)
		if err != nil {
			return "", err
		}
		right, err := g.expr(n.Right)
		if err != nil {
			return "", err
		}
		if n.Op == OpContains {
			return "(" + left + ".contains(&" + right + "))", nil
		}
		op, ok := rustOperators[n.Op]
		if !ok {
			return "", unsupported("operator "+n.Op.String(), n)
		}
		return "(" + left + " " + op + " " + right + ")", nil

	case *Assign:
		a, err := g.assign(n)
		if err != nil {
			return "", err
		}
		return "(" + a + ")", nil

	case *MemberAccess:
		obj, err := g.expr(n.Object)
		if err != nil {
			return "", err
		}
		return obj + "." + rustIdent(n.Member), nil

	case *Negate:
		operand, err := g.expr(n.Expr)
		if err != nil {
			return "", err
		}
		return "!" + operand, nil
	}
	return "", unsupported(fmt.Sprintf("expression %T", e), e)
}

func (g *Generator) exprList(exprs []Expr) ([]string, error) {
	out := make([]string, len(exprs))
	for i, e := range exprs {
		s, err := g.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// assign lowers an assignment without parentheses. Only an expression
// statement may use it bare.
func (g *Generator) assign(n *Assign) (string, error) {
	v, err := g.expr(n.Value)
	if err != nil {
		return "", err
	}
	return rustIdent(n.Name) + " = " + v, nil
}

// formatNumber prints v in its shortest form: 5, 2.5.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// rustNumber prints v as an f64 literal: 5.0, 2.5.
func rustNumber(v float64) string {
	s := formatNumber(v)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// escapeRust escapes s for a Rust string literal.
func escapeRust(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// interpolate lowers "... ${name} ..." to a format! call. Placeholders must
// be an identifier or obj.member.
func interpolate(lit *TextLiteral) (string, error) {
	var format strings.Builder
	var args []string
	rest := lit.Value
	for {
		i := strings.Index(rest, "${")
		if i < 0 {
			format.WriteString(escapeFormat(rest))
			break
		}
		format.WriteString(escapeFormat(rest[:i]))
		rest = rest[i+2:]
		j := strings.IndexByte(rest, '}')
		if j < 0 {
			return "", unsupported("unterminated interpolated text placeholder", lit)
		}
		arg, ok := placeholderArg(strings.TrimSpace(rest[:j]))
		if !ok {
			return "", unsupported("interpolated text placeholder", lit)
		}
		format.WriteString("{}")
		args = append(args, arg)
		rest = rest[j+1:]
	}

	call := `format!("` + format.String() + `"`
	for _, a := range args {
		call += ", " + a
	}
	return call + ")", nil
}

func escapeFormat(s string) string {
	s = escapeRust(s)
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}

// placeholderArg validates name or obj.member and returns its Rust form.
func placeholderArg(s string) (string, bool) {
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return "", false
	}
	for i, part := range parts {
		if !isIdentifier(part) {
			return "", false
		}
		parts[i] = rustIdent(part)
	}
	return strings.Join(parts, "."), true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || isLetter(r) || (i > 0 && isDigit(r)) {
			continue
		}
		return false
	}
	_, reserved := reservedWords[s]
	return !reserved
}

// ---------------------------------------------------------------------------
// Types and names
// ---------------------------------------------------------------------------

func rustType(t *Type) string {
	if t == nil {
		return "()"
	}
	switch t.Kind {
	case TypeText:
		return "String"
	case TypeNumber:
		return "f64"
	case TypeBoolean:
		return "bool"
	case TypeVoid:
		return "()"
	case TypeNamed:
		return rustIdent(t.Name)
	case TypeOptional:
		return "Option<" + rustType(t.Elem) + ">"
	}
	return "()"
}

// staticType is rustType for static items, where text must be borrowed.
func staticType(t *Type) string {
	switch t.Kind {
	case TypeText:
		return "&'static str"
	case TypeOptional:
		return "Option<" + staticType(t.Elem) + ">"
	}
	return rustType(t)
}

// defaultValue is the initializer for a variable declared without one.
func defaultValue(t *Type) string {
	if t == nil {
		return "Default::default()"
	}
	switch t.Kind {
	case TypeText:
		return "String::new()"
	case TypeNumber:
		return "0.0"
	case TypeBoolean:
		return "false"
	case TypeVoid:
		return "()"
	case TypeNamed:
		return rustIdent(t.Name) + "::default()"
	case TypeOptional:
		return "None"
	}
	return "Default::default()"
}

var rustKeywords = map[string]bool{
	"as": true, "async": true, "await": true, "break": true, "const": true,
	"continue": true, "dyn": true, "else": true, "enum": true, "extern": true,
	"false": true, "fn": true, "for": true, "if": true, "impl": true,
	"in": true, "let": true, "loop": true, "match": true, "mod": true,
	"move": true, "mut": true, "pub": true, "ref": true, "return": true,
	"static": true, "struct": true, "trait": true, "true": true, "type": true,
	"unsafe": true, "use": true, "where": true, "while": true,
	"abstract": true, "become": true, "box": true, "do": true, "final": true,
	"macro": true, "override": true, "priv": true, "try": true, "typeof": true,
	"unsized": true, "virtual": true, "yield": true,
}

// Path keywords cannot be raw identifiers.
var rustPathKeywords = map[string]bool{
	"self": true, "Self": true, "super": true, "crate": true,
}

// rustIdent escapes a name that collides with a Rust keyword.
func rustIdent(name string) string {
	if rustKeywords[name] {
		return "r#" + name
	}
	if rustPathKeywords[name] {
		return name + "_"
	}
	return name
}
