package compiler

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders a node, or a *Program, as a parenthesized S-expression.
// Positions are omitted.
func Dump(n interface{}) string {
	var b strings.Builder
	dump(&b, n)
	return b.String()
}

func dump(b *strings.Builder, n interface{}) {
	switch n := n.(type) {
	case *Program:
		b.WriteString("(program")
		for _, s := range n.Statements {
			b.WriteByte(' ')
			dump(b, s)
		}
		b.WriteByte(')')

	// Expressions
	case *TextLiteral:
		if n.Interpolated {
			b.WriteString("(interp ")
			b.WriteString(strconv.Quote(n.Value))
			b.WriteByte(')')
			return
		}
		b.WriteString(strconv.Quote(n.Value))
	case *NumberLiteral:
		b.WriteString(formatNumber(n.Value))
	case *BoolLiteral:
		if n.Value {
			b.WriteString("verdadeiro")
		} else {
			b.WriteString("falso")
		}
	case *NothingLiteral:
		b.WriteString("nada")
	case *ListLiteral:
		list(b, "list", n.Elements)
	case *DictLiteral:
		b.WriteString("(dict")
		for _, e := range n.Entries {
			b.WriteString(" (")
			dump(b, e.Key)
			b.WriteByte(' ')
			dump(b, e.Value)
			b.WriteByte(')')
		}
		b.WriteByte(')')
	case *Identifier:
		b.WriteString(n.Name)
	case *Call:
		list(b, "call "+n.Name, n.Args)
	case *BinaryOp:
		fmt.Fprintf(b, "(%s ", n.Op)
		dump(b, n.Left)
		b.WriteByte(' ')
		dump(b, n.Right)
		b.WriteByte(')')
	case *Assign:
		fmt.Fprintf(b, "(<- %s ", n.Name)
		dump(b, n.Value)
		b.WriteByte(')')
	case *MemberAccess:
		b.WriteString("(. ")
		dump(b, n.Object)
		fmt.Fprintf(b, " %s)", n.Member)
	case *Negate:
		b.WriteString("(não ")
		dump(b, n.Expr)
		b.WriteByte(')')

	// Statements
	case *VarDecl:
		b.WriteString("(pense ")
		if n.Public {
			b.WriteString("pub ")
		}
		b.WriteString(n.Name)
		if n.Type != nil {
			fmt.Fprintf(b, " : %s", n.Type)
		}
		if n.Value != nil {
			b.WriteString(" = ")
			dump(b, n.Value)
		}
		b.WriteByte(')')
	case *ExprStmt:
		dump(b, n.Expr)
	case *Block:
		b.WriteString("(block")
		for _, s := range n.Statements {
			b.WriteByte(' ')
			dump(b, s)
		}
		b.WriteByte(')')
	case *If:
		b.WriteString("(se ")
		dump(b, n.Cond)
		b.WriteByte(' ')
		dump(b, n.Then)
		if n.Else != nil {
			b.WriteByte(' ')
			dump(b, n.Else)
		}
		b.WriteByte(')')
	case *ForRange:
		fmt.Fprintf(b, "(para-cada %s ", n.Var)
		dump(b, n.Start)
		b.WriteByte(' ')
		dump(b, n.End)
		b.WriteByte(' ')
		dump(b, n.Body)
		b.WriteByte(')')
	case *While:
		b.WriteString("(enquanto ")
		dump(b, n.Cond)
		b.WriteByte(' ')
		dump(b, n.Body)
		b.WriteByte(')')
	case *RepeatUntil:
		b.WriteString("(repita ")
		dump(b, n.Body)
		b.WriteByte(' ')
		dump(b, n.Cond)
		b.WriteByte(')')
	case *Break:
		b.WriteString("(pare)")
	case *Continue:
		b.WriteString("(continue)")
	case *TryCatch:
		b.WriteString("(tente ")
		dump(b, n.Try)
		fmt.Fprintf(b, " %s ", n.ErrName)
		dump(b, n.Catch)
		b.WriteByte(')')
	case *FuncDecl:
		b.WriteString("(faça ")
		if n.Public {
			b.WriteString("pub ")
		}
		b.WriteString(n.Name)
		b.WriteString(" (")
		for i, p := range n.Params {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(b, "%s : %s", p.Name, p.Type)
		}
		b.WriteByte(')')
		if n.ReturnType != nil {
			fmt.Fprintf(b, " : %s", n.ReturnType)
		}
		b.WriteByte(' ')
		dump(b, n.Body)
		b.WriteByte(')')
	case *Return:
		if n.Value == nil {
			b.WriteString("(volte)")
			return
		}
		b.WriteString("(volte ")
		dump(b, n.Value)
		b.WriteByte(')')
	case *Print:
		b.WriteString("(mostre ")
		dump(b, n.Value)
		b.WriteByte(')')
	case *ModelDecl:
		b.WriteString("(modelo ")
		if n.Public {
			b.WriteString("pub ")
		}
		b.WriteString(n.Name)
		for _, f := range n.Fields {
			b.WriteString(" (")
			if f.Public {
				b.WriteString("pub ")
			}
			fmt.Fprintf(b, "%s : %s)", f.Name, f.Type)
		}
		b.WriteByte(')')
	case *ModuleDecl:
		fmt.Fprintf(b, "(módulo %s", n.Name)
		for _, s := range n.Statements {
			b.WriteByte(' ')
			dump(b, s)
		}
		b.WriteByte(')')
	case *ImportDecl:
		fmt.Fprintf(b, "(importe %s)", strings.Join(n.Path, "."))
	case *Fail:
		b.WriteString("(falhar ")
		dump(b, n.Value)
		b.WriteByte(')')
	case *Assert:
		b.WriteString("(afirme ")
		dump(b, n.Cond)
		b.WriteByte(')')

	case nil:
		b.WriteString("<nil>")
	default:
		fmt.Fprintf(b, "<%T>", n)
	}
}

func list(b *strings.Builder, head string, exprs []Expr) {
	b.WriteByte('(')
	b.WriteString(head)
	for _, e := range exprs {
		b.WriteByte(' ')
		dump(b, e)
	}
	b.WriteByte(')')
}
