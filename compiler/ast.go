package compiler

import "fmt"

// ---------------------------------------------------------------------------
// AST: Abstract Syntax Tree for PBR
// ---------------------------------------------------------------------------

// Position represents a source location.
type Position struct {
	Offset int // byte offset
	Line   int // 1-based line number
	Column int // 1-based column number
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Pos() Position
	node() // marker method
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// TypeKind enumerates the closed set of type forms.
type TypeKind int

const (
	TypeText TypeKind = iota
	TypeNumber
	TypeBoolean
	TypeVoid
	TypeNamed
	TypeOptional
)

// Type is a type annotation. Name is set for TypeNamed, Elem for
// TypeOptional. Types are carried through, never checked.
type Type struct {
	Kind TypeKind
	Name string
	Elem *Type
}

// BasicType returns a fresh annotation of a fixed kind.
func BasicType(kind TypeKind) *Type { return &Type{Kind: kind} }

// NamedType returns a reference to a user-declared type.
func NamedType(name string) *Type { return &Type{Kind: TypeNamed, Name: name} }

// OptionalType wraps elem to mark it nullable.
func OptionalType(elem *Type) *Type { return &Type{Kind: TypeOptional, Elem: elem} }

func (t *Type) String() string {
	if t == nil {
		return "<none>"
	}
	switch t.Kind {
	case TypeText:
		return "texto"
	case TypeNumber:
		return "número"
	case TypeBoolean:
		return "lógico"
	case TypeVoid:
		return "vazio"
	case TypeNamed:
		return t.Name
	case TypeOptional:
		return t.Elem.String() + "?"
	}
	return fmt.Sprintf("Type(%d)", int(t.Kind))
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// Operator is a binary operator.
type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpEqual
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpContains
	OpAnd
	OpOr
)

var operatorNames = [...]string{
	OpAdd:          "+",
	OpSub:          "-",
	OpMul:          "*",
	OpDiv:          "/",
	OpRem:          "%",
	OpEqual:        "=",
	OpNotEqual:     "≠",
	OpGreater:      ">",
	OpLess:         "<",
	OpGreaterEqual: "≥",
	OpLessEqual:    "≤",
	OpContains:     "contém",
	OpAnd:          "e",
	OpOr:           "ou",
}

func (op Operator) String() string {
	if op >= 0 && int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// ---------------------------------------------------------------------------
// Expression nodes
// ---------------------------------------------------------------------------

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// TextLiteral is a text literal. Value is the raw source text between the
// quotes. Interpolated marks literals containing ${...} placeholders.
type TextLiteral struct {
	At           Position
	Value        string
	Interpolated bool
}

// NumberLiteral is a numeric literal.
type NumberLiteral struct {
	At    Position
	Value float64
}

// BoolLiteral is verdadeiro or falso.
type BoolLiteral struct {
	At    Position
	Value bool
}

// NothingLiteral is nada.
type NothingLiteral struct {
	At Position
}

// ListLiteral is [a, b, c].
type ListLiteral struct {
	At       Position
	Elements []Expr
}

// DictEntry is one key/value pair of a dictionary literal.
type DictEntry struct {
	Key   Expr
	Value Expr
}

// DictLiteral is {k: v, ...}; entry order is preserved.
type DictLiteral struct {
	At      Position
	Entries []DictEntry
}

// Identifier is a name reference.
type Identifier struct {
	At   Position
	Name string
}

// Call is name(args).
type Call struct {
	At   Position
	Name string
	Args []Expr
}

// BinaryOp is left op right. For OpContains, Left is the container.
type BinaryOp struct {
	At    Position
	Op    Operator
	Left  Expr
	Right Expr
}

// Assign is name = value.
type Assign struct {
	At    Position
	Name  string
	Value Expr
}

// MemberAccess is object.member.
type MemberAccess struct {
	At     Position
	Object Expr
	Member string
}

// Negate is não expr.
type Negate struct {
	At   Position
	Expr Expr
}

func (n *TextLiteral) Pos() Position    { return n.At }
func (n *NumberLiteral) Pos() Position  { return n.At }
func (n *BoolLiteral) Pos() Position    { return n.At }
func (n *NothingLiteral) Pos() Position { return n.At }
func (n *ListLiteral) Pos() Position    { return n.At }
func (n *DictLiteral) Pos() Position    { return n.At }
func (n *Identifier) Pos() Position     { return n.At }
func (n *Call) Pos() Position           { return n.At }
func (n *BinaryOp) Pos() Position       { return n.At }
func (n *Assign) Pos() Position         { return n.At }
func (n *MemberAccess) Pos() Position   { return n.At }
func (n *Negate) Pos() Position         { return n.At }

func (n *TextLiteral) node()    {}
func (n *NumberLiteral) node()  {}
func (n *BoolLiteral) node()    {}
func (n *NothingLiteral) node() {}
func (n *ListLiteral) node()    {}
func (n *DictLiteral) node()    {}
func (n *Identifier) node()     {}
func (n *Call) node()           {}
func (n *BinaryOp) node()       {}
func (n *Assign) node()         {}
func (n *MemberAccess) node()   {}
func (n *Negate) node()         {}

func (n *TextLiteral) expr()    {}
func (n *NumberLiteral) expr()  {}
func (n *BoolLiteral) expr()    {}
func (n *NothingLiteral) expr() {}
func (n *ListLiteral) expr()    {}
func (n *DictLiteral) expr()    {}
func (n *Identifier) expr()     {}
func (n *Call) expr()           {}
func (n *BinaryOp) expr()       {}
func (n *Assign) expr()         {}
func (n *MemberAccess) expr()   {}
func (n *Negate) expr()         {}

// ---------------------------------------------------------------------------
// Statement nodes
// ---------------------------------------------------------------------------

// Stmt is the interface for statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// VarDecl is [público] pense name [: Type] [= value].
type VarDecl struct {
	At     Position
	Name   string
	Type   *Type // nil when omitted
	Value  Expr  // nil when omitted
	Public bool
}

// ExprStmt is an expression evaluated for its effect.
type ExprStmt struct {
	At   Position
	Expr Expr
}

// Block is an ordered statement sequence.
type Block struct {
	At         Position
	Statements []Stmt
}

// If is se cond { } [senão { }].
type If struct {
	At   Position
	Cond Expr
	Then *Block
	Else *Block // nil when absent
}

// ForRange is para cada var de start até end { }; end is inclusive.
type ForRange struct {
	At    Position
	Var   string
	Start Expr
	End   Expr
	Body  *Block
}

// While is enquanto cond { }.
type While struct {
	At   Position
	Cond Expr
	Body *Block
}

// RepeatUntil is repita { } até cond; the body runs before the first check.
type RepeatUntil struct {
	At   Position
	Body *Block
	Cond Expr
}

// Break is pare.
type Break struct {
	At Position
}

// Continue is continue.
type Continue struct {
	At Position
}

// TryCatch is tente { } quando der erro name { }.
type TryCatch struct {
	At      Position
	Try     *Block
	ErrName string
	Catch   *Block
}

// Param is one function parameter.
type Param struct {
	Name string
	Type *Type
}

// FuncDecl is [público] faça name(params) [: Type] { }.
type FuncDecl struct {
	At         Position
	Name       string
	Params     []Param
	ReturnType *Type // nil when omitted
	Body       *Block
	Public     bool
}

// Return is volte [value].
type Return struct {
	At    Position
	Value Expr // nil for a bare return
}

// Print is mostre value.
type Print struct {
	At    Position
	Value Expr
}

// Field is one model field with its own visibility.
type Field struct {
	Name   string
	Type   *Type
	Public bool
}

// ModelDecl is [público] modelo Name { fields }.
type ModelDecl struct {
	At     Position
	Name   string
	Fields []Field
	Public bool
}

// ModuleDecl is módulo name { statements }.
type ModuleDecl struct {
	At         Position
	Name       string
	Statements []Stmt
}

// ImportDecl is importe a.b.c.
type ImportDecl struct {
	At   Position
	Path []string
}

// Fail is falhar com value.
type Fail struct {
	At    Position
	Value Expr
}

// Assert is afirme que cond.
type Assert struct {
	At   Position
	Cond Expr
}

func (n *VarDecl) Pos() Position     { return n.At }
func (n *ExprStmt) Pos() Position    { return n.At }
func (n *Block) Pos() Position       { return n.At }
func (n *If) Pos() Position          { return n.At }
func (n *ForRange) Pos() Position    { return n.At }
func (n *While) Pos() Position       { return n.At }
func (n *RepeatUntil) Pos() Position { return n.At }
func (n *Break) Pos() Position       { return n.At }
func (n *Continue) Pos() Position    { return n.At }
func (n *TryCatch) Pos() Position    { return n.At }
func (n *FuncDecl) Pos() Position    { return n.At }
func (n *Return) Pos() Position      { return n.At }
func (n *Print) Pos() Position       { return n.At }
func (n *ModelDecl) Pos() Position   { return n.At }
func (n *ModuleDecl) Pos() Position  { return n.At }
func (n *ImportDecl) Pos() Position  { return n.At }
func (n *Fail) Pos() Position        { return n.At }
func (n *Assert) Pos() Position      { return n.At }

func (n *VarDecl) node()     {}
func (n *ExprStmt) node()    {}
func (n *Block) node()       {}
func (n *If) node()          {}
func (n *ForRange) node()    {}
func (n *While) node()       {}
func (n *RepeatUntil) node() {}
func (n *Break) node()       {}
func (n *Continue) node()    {}
func (n *TryCatch) node()    {}
func (n *FuncDecl) node()    {}
func (n *Return) node()      {}
func (n *Print) node()       {}
func (n *ModelDecl) node()   {}
func (n *ModuleDecl) node()  {}
func (n *ImportDecl) node()  {}
func (n *Fail) node()        {}
func (n *Assert) node()      {}

func (n *VarDecl) stmt()     {}
func (n *ExprStmt) stmt()    {}
func (n *Block) stmt()       {}
func (n *If) stmt()          {}
func (n *ForRange) stmt()    {}
func (n *While) stmt()       {}
func (n *RepeatUntil) stmt() {}
func (n *Break) stmt()       {}
func (n *Continue) stmt()    {}
func (n *TryCatch) stmt()    {}
func (n *FuncDecl) stmt()    {}
func (n *Return) stmt()      {}
func (n *Print) stmt()       {}
func (n *ModelDecl) stmt()   {}
func (n *ModuleDecl) stmt()  {}
func (n *ImportDecl) stmt()  {}
func (n *Fail) stmt()        {}
func (n *Assert) stmt()      {}

// ---------------------------------------------------------------------------
// Program
// ---------------------------------------------------------------------------

// Program is the root of a compilation unit: top-level statements in source
// order.
type Program struct {
	Statements []Stmt
}

// IsItem reports whether s is an item-level declaration (function, model,
// module, import) rather than an executable statement.
func IsItem(s Stmt) bool {
	switch s.(type) {
	case *FuncDecl, *ModelDecl, *ModuleDecl, *ImportDecl:
		return true
	}
	return false
}
