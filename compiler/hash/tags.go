package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the program fingerprint serialization format.
//
// IMPORTANT: These tags are FROZEN. Once assigned, a tag byte must never
// change meaning. Adding new tags is fine; changing existing ones breaks
// every cached fingerprint.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing fingerprints.
const HashVersion byte = 1

// Node type tags. Each tag uniquely identifies a node kind in the serialized
// byte stream.
const (
	TagReservedZero byte = 0x00 // version prefix / reserved

	// Literal values
	TagTextLiteral    byte = 0x01
	TagNumberLiteral  byte = 0x02
	TagBoolLiteral    byte = 0x03
	TagNothingLiteral byte = 0x04
	TagListLiteral    byte = 0x05
	TagDictLiteral    byte = 0x06

	// Expressions
	TagIdentifier   byte = 0x10
	TagCall         byte = 0x11
	TagBinaryOp     byte = 0x12
	TagAssign       byte = 0x13
	TagMemberAccess byte = 0x14
	TagNegate       byte = 0x15

	// Statements
	TagVarDecl     byte = 0x20
	TagExprStmt    byte = 0x21
	TagBlock       byte = 0x22
	TagIf          byte = 0x23
	TagForRange    byte = 0x24
	TagWhile       byte = 0x25
	TagRepeatUntil byte = 0x26
	TagBreak       byte = 0x27
	TagContinue    byte = 0x28
	TagTryCatch    byte = 0x29
	TagFuncDecl    byte = 0x2A
	TagReturn      byte = 0x2B
	TagPrint       byte = 0x2C
	TagModelDecl   byte = 0x2D
	TagModuleDecl  byte = 0x2E
	TagImportDecl  byte = 0x2F
	TagFail        byte = 0x30
	TagAssert      byte = 0x31

	// Structure
	TagProgram byte = 0x40
	TagType    byte = 0x41
	TagNoType  byte = 0x42
	TagAbsent  byte = 0x43 // optional child not present

	// Reserved 0xFE-0xFF
)

// allTags lists every assigned tag (for uniqueness testing).
var allTags = []byte{
	TagTextLiteral, TagNumberLiteral, TagBoolLiteral, TagNothingLiteral,
	TagListLiteral, TagDictLiteral,
	TagIdentifier, TagCall, TagBinaryOp, TagAssign, TagMemberAccess, TagNegate,
	TagVarDecl, TagExprStmt, TagBlock, TagIf, TagForRange, TagWhile,
	TagRepeatUntil, TagBreak, TagContinue, TagTryCatch, TagFuncDecl, TagReturn,
	TagPrint, TagModelDecl, TagModuleDecl, TagImportDecl, TagFail, TagAssert,
	TagProgram, TagType, TagNoType, TagAbsent,
}
