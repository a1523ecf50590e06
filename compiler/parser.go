package compiler

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Parser: Recursive descent parser for PBR
// ---------------------------------------------------------------------------

// Parser builds a Program from a token stream. It stops at the first
// error; there is no recovery.
type Parser struct {
	tokens    []Token
	pos       int // index of peekToken
	curToken  Token
	peekToken Token
}

// NewParser creates a parser over tokens, which must end with TokenEOF.
func NewParser(tokens []Token) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TokenEOF {
		tokens = append(tokens, Token{Type: TokenEOF})
	}
	p := &Parser{tokens: tokens}
	// Read two tokens to fill curToken and peekToken
	p.nextToken()
	p.nextToken()
	return p
}

// Parse tokenizes and parses src. It returns a *LexError or *SyntaxError on
// failure.
func Parse(src string) (*Program, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return NewParser(tokens).ParseProgram()
}

// nextToken advances to the next token. Past the end it keeps yielding EOF.
func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	if p.pos < len(p.tokens) {
		p.peekToken = p.tokens[p.pos]
		p.pos++
		return
	}
	p.peekToken = p.tokens[len(p.tokens)-1]
}

func (p *Parser) curTokenIs(t TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t TokenType) bool {
	return p.peekToken.Type == t
}

// expect consumes the current token if it has type t.
func (p *Parser) expect(t TokenType, rule string) (Token, error) {
	tok := p.curToken
	if tok.Type != t {
		return tok, p.errorf(describe(t), rule)
	}
	p.nextToken()
	return tok, nil
}

// expectIdent consumes an identifier and returns its name.
func (p *Parser) expectIdent(rule string) (string, error) {
	tok, err := p.expect(TokenIdentifier, rule)
	return tok.Literal, err
}

// errorf builds a syntax error at the current token.
func (p *Parser) errorf(expected, rule string) error {
	return &SyntaxError{
		Expected: expected,
		Rule:     rule,
		Found:    p.curToken,
		Pos:      p.curToken.Pos,
	}
}

// describe renders a token type for an error message.
func describe(t TokenType) string {
	switch t {
	case TokenIdentifier:
		return "identifier"
	case TokenNumber:
		return "number"
	case TokenText:
		return "text"
	case TokenEOF:
		return "end of input"
	}
	return "'" + t.String() + "'"
}

// ---------------------------------------------------------------------------
// Top-level parsing
// ---------------------------------------------------------------------------

// ParseProgram parses declarations until end of input.
func (p *Parser) ParseProgram() (*Program, error) {
	prog := &Program{}
	for !p.curTokenIs(TokenEOF) {
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

// ParseStatement parses one declaration, including an optional trailing
// semicolon.
func (p *Parser) ParseStatement() (Stmt, error) {
	stmt, err := p.parseDeclaration()
	if err != nil {
		return nil, err
	}
	if p.curTokenIs(TokenSemicolon) {
		p.nextToken()
	}
	return stmt, nil
}

func (p *Parser) parseDeclaration() (Stmt, error) {
	switch p.curToken.Type {
	case TokenPublico:
		return p.parsePublic()
	case TokenPense:
		return p.parseVarDecl(p.curToken.Pos, false)
	case TokenFaca:
		return p.parseFuncDecl(p.curToken.Pos, false)
	case TokenModelo:
		return p.parseModelDecl(p.curToken.Pos, false)
	case TokenModulo:
		return p.parseModuleDecl()
	case TokenImporte:
		return p.parseImport()
	case TokenVolte:
		return p.parseReturn()
	case TokenSe:
		return p.parseIf()
	case TokenParaCada:
		return p.parseForRange()
	case TokenEnquanto:
		return p.parseWhile()
	case TokenRepita:
		return p.parseRepeat()
	case TokenPare:
		pos := p.curToken.Pos
		p.nextToken()
		return &Break{At: pos}, nil
	case TokenContinue:
		pos := p.curToken.Pos
		p.nextToken()
		return &Continue{At: pos}, nil
	case TokenTente:
		return p.parseTryCatch()
	case TokenMostre:
		return p.parsePrint()
	case TokenFalharCom:
		return p.parseFail()
	case TokenAfirmeQue:
		return p.parseAssert()
	}
	return p.parseExprStmt()
}

// parsePublic handles the visibility modifier in front of a declaration.
func (p *Parser) parsePublic() (Stmt, error) {
	pos := p.curToken.Pos
	p.nextToken()
	switch p.curToken.Type {
	case TokenPense:
		return p.parseVarDecl(pos, true)
	case TokenFaca:
		return p.parseFuncDecl(pos, true)
	case TokenModelo:
		return p.parseModelDecl(pos, true)
	}
	return nil, p.errorf("'pense', 'faça' or 'modelo'", "public declaration")
}

// ---------------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------------

// parseVarDecl parses: pense name [: Type] [= expr]
func (p *Parser) parseVarDecl(pos Position, public bool) (Stmt, error) {
	const rule = "variable declaration"
	p.nextToken() // pense
	name, err := p.expectIdent(rule)
	if err != nil {
		return nil, err
	}
	decl := &VarDecl{At: pos, Name: name, Public: public}
	if p.curTokenIs(TokenColon) {
		p.nextToken()
		if decl.Type, err = p.parseType(rule); err != nil {
			return nil, err
		}
	}
	if p.curTokenIs(TokenAssign) {
		p.nextToken()
		if decl.Value, err = p.parseExpression(); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

// parseFuncDecl parses: faça name(a: T, ...) [: T] { ... }
func (p *Parser) parseFuncDecl(pos Position, public bool) (Stmt, error) {
	const rule = "function declaration"
	p.nextToken() // faça
	name, err := p.expectIdent(rule)
	if err != nil {
		return nil, err
	}
	fn := &FuncDecl{At: pos, Name: name, Public: public}

	if _, err := p.expect(TokenLParen, rule); err != nil {
		return nil, err
	}
	for !p.curTokenIs(TokenRParen) {
		pname, err := p.expectIdent("parameter list")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon, "parameter list"); err != nil {
			return nil, err
		}
		ptype, err := p.parseType("parameter list")
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, Param{Name: pname, Type: ptype})
		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}
	if _, err := p.expect(TokenRParen, rule); err != nil {
		return nil, err
	}

	if p.curTokenIs(TokenColon) {
		p.nextToken()
		if fn.ReturnType, err = p.parseType(rule); err != nil {
			return nil, err
		}
	}
	if fn.Body, err = p.parseBlock(rule); err != nil {
		return nil, err
	}
	return fn, nil
}

// parseModelDecl parses: modelo Name { [público] field: T [,|;] ... }
func (p *Parser) parseModelDecl(pos Position, public bool) (Stmt, error) {
	const rule = "model declaration"
	p.nextToken() // modelo
	name, err := p.expectIdent(rule)
	if err != nil {
		return nil, err
	}
	model := &ModelDecl{At: pos, Name: name, Public: public}
	if _, err := p.expect(TokenLBrace, rule); err != nil {
		return nil, err
	}
	for !p.curTokenIs(TokenRBrace) {
		var field Field
		if p.curTokenIs(TokenPublico) {
			field.Public = true
			p.nextToken()
		}
		if field.Name, err = p.expectIdent("model field"); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon, "model field"); err != nil {
			return nil, err
		}
		if field.Type, err = p.parseType("model field"); err != nil {
			return nil, err
		}
		model.Fields = append(model.Fields, field)
		if p.curTokenIs(TokenComma) || p.curTokenIs(TokenSemicolon) {
			p.nextToken()
		}
	}
	p.nextToken() // }
	return model, nil
}

// parseModuleDecl parses: módulo name { ... }
func (p *Parser) parseModuleDecl() (Stmt, error) {
	const rule = "module declaration"
	pos := p.curToken.Pos
	p.nextToken() // módulo
	name, err := p.expectIdent(rule)
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock(rule)
	if err != nil {
		return nil, err
	}
	return &ModuleDecl{At: pos, Name: name, Statements: body.Statements}, nil
}

// parseImport parses: importe a.b.c or importe a/b/c
func (p *Parser) parseImport() (Stmt, error) {
	const rule = "import declaration"
	pos := p.curToken.Pos
	p.nextToken() // importe
	imp := &ImportDecl{At: pos}
	for {
		if !isWordToken(p.curToken) {
			return nil, p.errorf("path segment", rule)
		}
		imp.Path = append(imp.Path, p.curToken.Literal)
		p.nextToken()
		if !p.curTokenIs(TokenDot) && !p.curTokenIs(TokenSlash) {
			return imp, nil
		}
		p.nextToken()
	}
}

// isWordToken reports whether tok is spelled as a single word, so that
// keywords such as texto may appear as path segments.
func isWordToken(tok Token) bool {
	if tok.Type == TokenIdentifier {
		return true
	}
	return tok.Type.IsKeyword() && tok.Literal != "" && !strings.ContainsAny(tok.Literal, " \t\r\n")
}

// parseType parses a type annotation with any number of ? suffixes.
func (p *Parser) parseType(rule string) (*Type, error) {
	var t *Type
	switch p.curToken.Type {
	case TokenTipoTexto:
		t = BasicType(TypeText)
	case TokenTipoNumero:
		t = BasicType(TypeNumber)
	case TokenTipoLogico:
		t = BasicType(TypeBoolean)
	case TokenTipoVazio:
		t = BasicType(TypeVoid)
	case TokenIdentifier:
		t = NamedType(p.curToken.Literal)
	default:
		return nil, p.errorf("type", rule)
	}
	p.nextToken()
	for p.curTokenIs(TokenQuestion) {
		t = OptionalType(t)
		p.nextToken()
	}
	return t, nil
}

// parseBlock parses: { declaration* }
func (p *Parser) parseBlock(rule string) (*Block, error) {
	lbrace, err := p.expect(TokenLBrace, rule)
	if err != nil {
		return nil, err
	}
	block := &Block{At: lbrace.Pos}
	for !p.curTokenIs(TokenRBrace) {
		if p.curTokenIs(TokenEOF) {
			return nil, p.errorf("'}'", rule)
		}
		stmt, err := p.ParseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.nextToken() // }
	return block, nil
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

func (p *Parser) parseReturn() (Stmt, error) {
	ret := &Return{At: p.curToken.Pos}
	p.nextToken() // volte
	if !canStartExpression(p.curToken.Type) {
		return ret, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	ret.Value = value
	return ret, nil
}

// canStartExpression reports whether t may begin an expression.
func canStartExpression(t TokenType) bool {
	switch t {
	case TokenIdentifier, TokenNumber, TokenText,
		TokenVerdadeiro, TokenFalso, TokenNada,
		TokenLParen, TokenLBracket, TokenLBrace,
		TokenNao, TokenMinus:
		return true
	}
	return false
}

// parseIf parses: se cond { ... } [senão { ... } | senão se ...]
func (p *Parser) parseIf() (Stmt, error) {
	const rule = "if statement"
	stmt := &If{At: p.curToken.Pos}
	p.nextToken() // se
	var err error
	if stmt.Cond, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if stmt.Then, err = p.parseBlock(rule); err != nil {
		return nil, err
	}
	if !p.curTokenIs(TokenSenao) {
		return stmt, nil
	}
	p.nextToken() // senão
	if p.curTokenIs(TokenSe) {
		nested, err := p.parseIf()
		if err != nil {
			return nil, err
		}
		stmt.Else = &Block{At: nested.Pos(), Statements: []Stmt{nested}}
		return stmt, nil
	}
	if stmt.Else, err = p.parseBlock(rule); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseForRange parses: para cada i de start até end { ... }
func (p *Parser) parseForRange() (Stmt, error) {
	const rule = "for-range loop"
	stmt := &ForRange{At: p.curToken.Pos}
	p.nextToken() // para cada
	var err error
	if stmt.Var, err = p.expectIdent(rule); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenDe, rule); err != nil {
		return nil, err
	}
	if stmt.Start, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenAte, rule); err != nil {
		return nil, err
	}
	if stmt.End, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseBlock(rule); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	stmt := &While{At: p.curToken.Pos}
	p.nextToken() // enquanto
	var err error
	if stmt.Cond, err = p.parseExpression(); err != nil {
		return nil, err
	}
	if stmt.Body, err = p.parseBlock("while loop"); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseRepeat parses: repita { ... } até cond
func (p *Parser) parseRepeat() (Stmt, error) {
	const rule = "repeat-until loop"
	stmt := &RepeatUntil{At: p.curToken.Pos}
	p.nextToken() // repita
	var err error
	if stmt.Body, err = p.parseBlock(rule); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenAte, rule); err != nil {
		return nil, err
	}
	if stmt.Cond, err = p.parseExpression(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseTryCatch parses: tente { ... } quando der erro [nome | (nome)] { ... }
func (p *Parser) parseTryCatch() (Stmt, error) {
	const rule = "try-catch"
	stmt := &TryCatch{At: p.curToken.Pos, ErrName: "erro"}
	p.nextToken() // tente
	var err error
	if stmt.Try, err = p.parseBlock(rule); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenQuandoErro, rule); err != nil {
		return nil, err
	}
	switch {
	case p.curTokenIs(TokenIdentifier):
		stmt.ErrName = p.curToken.Literal
		p.nextToken()
	case p.curTokenIs(TokenLParen):
		p.nextToken()
		if stmt.ErrName, err = p.expectIdent(rule); err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, rule); err != nil {
			return nil, err
		}
	}
	if stmt.Catch, err = p.parseBlock(rule); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parsePrint() (Stmt, error) {
	pos := p.curToken.Pos
	p.nextToken() // mostre
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Print{At: pos, Value: value}, nil
}

func (p *Parser) parseFail() (Stmt, error) {
	pos := p.curToken.Pos
	p.nextToken() // falhar com
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Fail{At: pos, Value: value}, nil
}

func (p *Parser) parseAssert() (Stmt, error) {
	pos := p.curToken.Pos
	p.nextToken() // afirme que
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &Assert{At: pos, Cond: cond}, nil
}

func (p *Parser) parseExprStmt() (Stmt, error) {
	pos := p.curToken.Pos
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ExprStmt{At: pos, Expr: expr}, nil
}

// ---------------------------------------------------------------------------
// Expressions, loosest tier first
// ---------------------------------------------------------------------------

// ParseExpression parses a single expression.
func (p *Parser) ParseExpression() (Expr, error) {
	return p.parseExpression()
}

func (p *Parser) parseExpression() (Expr, error) {
	return p.parseAssignment()
}

// parseAssignment parses: identifier = assignment | or
func (p *Parser) parseAssignment() (Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if !p.curTokenIs(TokenAssign) {
		return left, nil
	}
	ident, ok := left.(*Identifier)
	if !ok {
		return nil, &SyntaxError{
			Expected: "identifier on the left side",
			Rule:     "assignment",
			Found:    p.curToken,
			Pos:      left.Pos(),
		}
	}
	p.nextToken() // =
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &Assign{At: ident.At, Name: ident.Name, Value: value}, nil
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(TokenOu) {
		pos := p.curToken.Pos
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{At: pos, Op: OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(TokenE) {
		pos := p.curToken.Pos
		p.nextToken()
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{At: pos, Op: OpAnd, Left: left, Right: right}
	}
	return left, nil
}

var comparisonOps = map[TokenType]Operator{
	TokenGreater:      OpGreater,
	TokenLess:         OpLess,
	TokenGreaterEqual: OpGreaterEqual,
	TokenLessEqual:    OpLessEqual,
	TokenNotEqual:     OpNotEqual,
	TokenIgualA:       OpEqual,
	TokenDiferenteDe:  OpNotEqual,
	TokenContem:       OpContains,
	TokenEm:           OpContains,
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := comparisonOps[p.curToken.Type]
		if !ok {
			return left, nil
		}
		elementFirst := p.curTokenIs(TokenEm)
		pos := p.curToken.Pos
		p.nextToken()
		right, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if elementFirst {
			// x em lista is lista contém x
			left, right = right, left
		}
		left = &BinaryOp{At: pos, Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseSum() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(TokenPlus) || p.curTokenIs(TokenMinus) {
		op := OpAdd
		if p.curTokenIs(TokenMinus) {
			op = OpSub
		}
		pos := p.curToken.Pos
		p.nextToken()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{At: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

var termOps = map[TokenType]Operator{
	TokenStar:    OpMul,
	TokenSlash:   OpDiv,
	TokenPercent: OpRem,
	TokenResto:   OpRem,
}

func (p *Parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := termOps[p.curToken.Type]
		if !ok {
			return left, nil
		}
		pos := p.curToken.Pos
		p.nextToken()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{At: pos, Op: op, Left: left, Right: right}
	}
}

// parseFactor parses the tightest tier: unary operators, literals, calls,
// member access, identifiers and parenthesized expressions.
func (p *Parser) parseFactor() (Expr, error) {
	tok := p.curToken
	switch tok.Type {
	case TokenNao:
		p.nextToken()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &Negate{At: tok.Pos, Expr: operand}, nil

	case TokenMinus:
		p.nextToken()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		zero := &NumberLiteral{At: tok.Pos, Value: 0}
		return &BinaryOp{At: tok.Pos, Op: OpSub, Left: zero, Right: operand}, nil

	case TokenNumber:
		p.nextToken()
		v, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, &LexError{Kind: MalformedNumber, Text: tok.Literal, Pos: tok.Pos}
		}
		return &NumberLiteral{At: tok.Pos, Value: v}, nil

	case TokenText:
		p.nextToken()
		return &TextLiteral{
			At:           tok.Pos,
			Value:        tok.Literal,
			Interpolated: strings.Contains(tok.Literal, "${"),
		}, nil

	case TokenVerdadeiro, TokenFalso:
		p.nextToken()
		return &BoolLiteral{At: tok.Pos, Value: tok.Type == TokenVerdadeiro}, nil

	case TokenNada:
		p.nextToken()
		return &NothingLiteral{At: tok.Pos}, nil

	case TokenLBracket:
		return p.parseList()

	case TokenLBrace:
		return p.parseDict()

	case TokenIdentifier:
		p.nextToken()
		switch {
		case p.curTokenIs(TokenLParen):
			return p.parseCall(tok)
		case p.curTokenIs(TokenDot):
			p.nextToken()
			member, err := p.expectIdent("member access")
			if err != nil {
				return nil, err
			}
			obj := &Identifier{At: tok.Pos, Name: tok.Literal}
			return &MemberAccess{At: tok.Pos, Object: obj, Member: member}, nil
		}
		return &Identifier{At: tok.Pos, Name: tok.Literal}, nil

	case TokenLParen:
		p.nextToken()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen, "parenthesized expression"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, p.errorf("expression", "")
}

// parseCall parses the argument list after name.
func (p *Parser) parseCall(name Token) (Expr, error) {
	p.nextToken() // (
	call := &Call{At: name.Pos, Name: name.Literal}
	for !p.curTokenIs(TokenRParen) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}
	if _, err := p.expect(TokenRParen, "call arguments"); err != nil {
		return nil, err
	}
	return call, nil
}

// parseList parses: [a, b, ...]
func (p *Parser) parseList() (Expr, error) {
	list := &ListLiteral{At: p.curToken.Pos}
	p.nextToken() // [
	for !p.curTokenIs(TokenRBracket) {
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		list.Elements = append(list.Elements, elem)
		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}
	if _, err := p.expect(TokenRBracket, "list literal"); err != nil {
		return nil, err
	}
	return list, nil
}

// parseDict parses: {key: value, ...}
func (p *Parser) parseDict() (Expr, error) {
	const rule = "dictionary literal"
	dict := &DictLiteral{At: p.curToken.Pos}
	p.nextToken() // {
	for !p.curTokenIs(TokenRBrace) {
		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenColon, rule); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		dict.Entries = append(dict.Entries, DictEntry{Key: key, Value: value})
		if !p.curTokenIs(TokenComma) {
			break
		}
		p.nextToken()
	}
	if _, err := p.expect(TokenRBrace, rule); err != nil {
		return nil, err
	}
	return dict, nil
}
