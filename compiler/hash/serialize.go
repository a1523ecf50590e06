package hash

import (
	"encoding/binary"
	"math"

	"github.com/pbrlang/pbr/compiler"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of a parsed program.
//
// Encoding conventions:
//   - First byte: HashVersion (0x01)
//   - Integers: big-endian uint32
//   - Floats: IEEE 754 big-endian 8B
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Child nodes: serialized inline (flat)
//   - Source positions are never written
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of node, which may
// be a *compiler.Program, a compiler.Stmt or a compiler.Expr.
func Serialize(node interface{}) []byte {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(HashVersion)
	switch n := node.(type) {
	case *compiler.Program:
		s.serializeProgram(n)
	case compiler.Stmt:
		s.serializeStmt(n)
	case compiler.Expr:
		s.serializeExpr(n)
	}
	return s.buf
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeFloat64(v float64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], math.Float64bits(v))
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) writeBool(v bool) {
	if v {
		s.writeByte(1)
	} else {
		s.writeByte(0)
	}
}

func (s *serializer) serializeProgram(p *compiler.Program) {
	s.writeByte(TagProgram)
	s.serializeStmts(p.Statements)
}

func (s *serializer) serializeStmts(stmts []compiler.Stmt) {
	s.writeUint32(uint32(len(stmts)))
	for _, stmt := range stmts {
		s.serializeStmt(stmt)
	}
}

func (s *serializer) serializeBlock(b *compiler.Block) {
	if b == nil {
		s.writeByte(TagAbsent)
		return
	}
	s.writeByte(TagBlock)
	s.serializeStmts(b.Statements)
}

func (s *serializer) serializeType(t *compiler.Type) {
	if t == nil {
		s.writeByte(TagNoType)
		return
	}
	s.writeByte(TagType)
	s.writeByte(byte(t.Kind))
	switch t.Kind {
	case compiler.TypeNamed:
		s.writeString(t.Name)
	case compiler.TypeOptional:
		s.serializeType(t.Elem)
	}
}

func (s *serializer) serializeOptExpr(e compiler.Expr) {
	if e == nil {
		s.writeByte(TagAbsent)
		return
	}
	s.serializeExpr(e)
}

func (s *serializer) serializeStmt(stmt compiler.Stmt) {
	switch n := stmt.(type) {
	case *compiler.VarDecl:
		s.writeByte(TagVarDecl)
		s.writeString(n.Name)
		s.writeBool(n.Public)
		s.serializeType(n.Type)
		s.serializeOptExpr(n.Value)

	case *compiler.ExprStmt:
		s.writeByte(TagExprStmt)
		s.serializeExpr(n.Expr)

	case *compiler.Block:
		s.serializeBlock(n)

	case *compiler.If:
		s.writeByte(TagIf)
		s.serializeExpr(n.Cond)
		s.serializeBlock(n.Then)
		s.serializeBlock(n.Else)

	case *compiler.ForRange:
		s.writeByte(TagForRange)
		s.writeString(n.Var)
		s.serializeExpr(n.Start)
		s.serializeExpr(n.End)
		s.serializeBlock(n.Body)

	case *compiler.While:
		s.writeByte(TagWhile)
		s.serializeExpr(n.Cond)
		s.serializeBlock(n.Body)

	case *compiler.RepeatUntil:
		s.writeByte(TagRepeatUntil)
		s.serializeBlock(n.Body)
		s.serializeExpr(n.Cond)

	case *compiler.Break:
		s.writeByte(TagBreak)

	case *compiler.Continue:
		s.writeByte(TagContinue)

	case *compiler.TryCatch:
		s.writeByte(TagTryCatch)
		s.serializeBlock(n.Try)
		s.writeString(n.ErrName)
		s.serializeBlock(n.Catch)

	case *compiler.FuncDecl:
		s.writeByte(TagFuncDecl)
		s.writeString(n.Name)
		s.writeBool(n.Public)
		s.writeUint32(uint32(len(n.Params)))
		for _, p := range n.Params {
			s.writeString(p.Name)
			s.serializeType(p.Type)
		}
		s.serializeType(n.ReturnType)
		s.serializeBlock(n.Body)

	case *compiler.Return:
		s.writeByte(TagReturn)
		s.serializeOptExpr(n.Value)

	case *compiler.Print:
		s.writeByte(TagPrint)
		s.serializeExpr(n.Value)

	case *compiler.ModelDecl:
		s.writeByte(TagModelDecl)
		s.writeString(n.Name)
		s.writeBool(n.Public)
		s.writeUint32(uint32(len(n.Fields)))
		for _, f := range n.Fields {
			s.writeString(f.Name)
			s.writeBool(f.Public)
			s.serializeType(f.Type)
		}

	case *compiler.ModuleDecl:
		s.writeByte(TagModuleDecl)
		s.writeString(n.Name)
		s.serializeStmts(n.Statements)

	case *compiler.ImportDecl:
		s.writeByte(TagImportDecl)
		s.writeUint32(uint32(len(n.Path)))
		for _, seg := range n.Path {
			s.writeString(seg)
		}

	case *compiler.Fail:
		s.writeByte(TagFail)
		s.serializeExpr(n.Value)

	case *compiler.Assert:
		s.writeByte(TagAssert)
		s.serializeExpr(n.Cond)

	default:
		s.writeByte(TagReservedZero)
	}
}

func (s *serializer) serializeExprs(exprs []compiler.Expr) {
	s.writeUint32(uint32(len(exprs)))
	for _, e := range exprs {
		s.serializeExpr(e)
	}
}

func (s *serializer) serializeExpr(expr compiler.Expr) {
	switch n := expr.(type) {
	case *compiler.TextLiteral:
		s.writeByte(TagTextLiteral)
		s.writeString(n.Value)
		s.writeBool(n.Interpolated)

	case *compiler.NumberLiteral:
		s.writeByte(TagNumberLiteral)
		s.writeFloat64(n.Value)

	case *compiler.BoolLiteral:
		s.writeByte(TagBoolLiteral)
		s.writeBool(n.Value)

	case *compiler.NothingLiteral:
		s.writeByte(TagNothingLiteral)

	case *compiler.ListLiteral:
		s.writeByte(TagListLiteral)
		s.serializeExprs(n.Elements)

	case *compiler.DictLiteral:
		s.writeByte(TagDictLiteral)
		s.writeUint32(uint32(len(n.Entries)))
		for _, e := range n.Entries {
			s.serializeExpr(e.Key)
			s.serializeExpr(e.Value)
		}

	case *compiler.Identifier:
		s.writeByte(TagIdentifier)
		s.writeString(n.Name)

	case *compiler.Call:
		s.writeByte(TagCall)
		s.writeString(n.Name)
		s.serializeExprs(n.Args)

	case *compiler.BinaryOp:
		s.writeByte(TagBinaryOp)
		s.writeByte(byte(n.Op))
		s.serializeExpr(n.Left)
		s.serializeExpr(n.Right)

	case *compiler.Assign:
		s.writeByte(TagAssign)
		s.writeString(n.Name)
		s.serializeExpr(n.Value)

	case *compiler.MemberAccess:
		s.writeByte(TagMemberAccess)
		s.serializeExpr(n.Object)
		s.writeString(n.Member)

	case *compiler.Negate:
		s.writeByte(TagNegate)
		s.serializeExpr(n.Expr)

	default:
		s.writeByte(TagReservedZero)
	}
}
