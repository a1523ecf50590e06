package compiler

import "fmt"

// ---------------------------------------------------------------------------
// Token types for the PBR lexer
// ---------------------------------------------------------------------------

// TokenType represents the type of a token.
type TokenType int

const (
	// Special tokens
	TokenEOF TokenType = iota

	// Literals
	TokenIdentifier // nome, _tmp, ação
	TokenNumber     // 42, 3.14
	TokenText       // "olá", """várias linhas"""

	// Keywords
	TokenPense      // pense
	TokenFaca       // faça
	TokenVolte      // volte
	TokenSe         // se
	TokenSenao      // senão
	TokenParaCada   // para cada
	TokenDe         // de
	TokenAte        // até
	TokenEnquanto   // enquanto
	TokenRepita     // repita
	TokenPare       // pare
	TokenContinue   // continue
	TokenTente      // tente
	TokenQuandoErro // quando der erro
	TokenFalharCom  // falhar com
	TokenAfirmeQue  // afirme que
	TokenModelo     // modelo
	TokenModulo     // módulo
	TokenImporte    // importe
	TokenMostre     // mostre
	TokenPublico    // público
	TokenVerdadeiro // verdadeiro
	TokenFalso      // falso
	TokenNada       // nada

	// Type keywords
	TokenTipoTexto  // texto
	TokenTipoNumero // número
	TokenTipoLogico // lógico
	TokenTipoVazio  // vazio

	// Word operators
	TokenE           // e
	TokenOu          // ou
	TokenNao         // não
	TokenEm          // em
	TokenContem      // contém
	TokenResto       // resto
	TokenIgualA      // é igual a
	TokenDiferenteDe // é diferente de

	// Symbolic operators
	TokenPlus         // +
	TokenMinus        // -
	TokenStar         // *
	TokenSlash        // /
	TokenPercent      // %
	TokenAssign       // =
	TokenNotEqual     // != or ≠
	TokenGreater      // >
	TokenLess         // <
	TokenGreaterEqual // >= or ≥
	TokenLessEqual    // <= or ≤

	// Delimiters
	TokenLBrace    // {
	TokenRBrace    // }
	TokenLParen    // (
	TokenRParen    // )
	TokenLBracket  // [
	TokenRBracket  // ]
	TokenComma     // ,
	TokenColon     // :
	TokenSemicolon // ;
	TokenDot       // .
	TokenQuestion  // ?
)

var tokenNames = map[TokenType]string{
	TokenEOF:          "EOF",
	TokenIdentifier:   "IDENTIFIER",
	TokenNumber:       "NUMBER",
	TokenText:         "TEXT",
	TokenPense:        "pense",
	TokenFaca:         "faça",
	TokenVolte:        "volte",
	TokenSe:           "se",
	TokenSenao:        "senão",
	TokenParaCada:     "para cada",
	TokenDe:           "de",
	TokenAte:          "até",
	TokenEnquanto:     "enquanto",
	TokenRepita:       "repita",
	TokenPare:         "pare",
	TokenContinue:     "continue",
	TokenTente:        "tente",
	TokenQuandoErro:   "quando der erro",
	TokenFalharCom:    "falhar com",
	TokenAfirmeQue:    "afirme que",
	TokenModelo:       "modelo",
	TokenModulo:       "módulo",
	TokenImporte:      "importe",
	TokenMostre:       "mostre",
	TokenPublico:      "público",
	TokenVerdadeiro:   "verdadeiro",
	TokenFalso:        "falso",
	TokenNada:         "nada",
	TokenTipoTexto:    "texto",
	TokenTipoNumero:   "número",
	TokenTipoLogico:   "lógico",
	TokenTipoVazio:    "vazio",
	TokenE:            "e",
	TokenOu:           "ou",
	TokenNao:          "não",
	TokenEm:           "em",
	TokenContem:       "contém",
	TokenResto:        "resto",
	TokenIgualA:       "é igual a",
	TokenDiferenteDe:  "é diferente de",
	TokenPlus:         "+",
	TokenMinus:        "-",
	TokenStar:         "*",
	TokenSlash:        "/",
	TokenPercent:      "%",
	TokenAssign:       "=",
	TokenNotEqual:     "!=",
	TokenGreater:      ">",
	TokenLess:         "<",
	TokenGreaterEqual: ">=",
	TokenLessEqual:    "<=",
	TokenLBrace:       "{",
	TokenRBrace:       "}",
	TokenLParen:       "(",
	TokenRParen:       ")",
	TokenLBracket:     "[",
	TokenRBracket:     "]",
	TokenComma:        ",",
	TokenColon:        ":",
	TokenSemicolon:    ";",
	TokenDot:          ".",
	TokenQuestion:     "?",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Token(%d)", t)
}

// IsKeyword reports whether t is a reserved word (single or multi-word).
func (t TokenType) IsKeyword() bool {
	return t >= TokenPense && t <= TokenDiferenteDe
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string   // the raw text; for TokenText the contents without quotes
	Pos     Position // start position

	// Lookahead holds the continuation word that failed to complete a
	// multi-word keyword. The word itself is left in the input.
	Lookahead string
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "EOF"
	case TokenIdentifier, TokenNumber, TokenText:
		if len(t.Literal) > 20 {
			return fmt.Sprintf("%s(%q...)", t.Type, t.Literal[:20])
		}
		return fmt.Sprintf("%s(%q)", t.Type, t.Literal)
	}
	return fmt.Sprintf("%q", t.Type.String())
}

// Reserved single words mapped to their token types. Words that may open a
// multi-word keyword are handled by multiWords instead.
var reservedWords = map[string]TokenType{
	"pense":      TokenPense,
	"faça":       TokenFaca,
	"faca":       TokenFaca,
	"volte":      TokenVolte,
	"se":         TokenSe,
	"senão":      TokenSenao,
	"senao":      TokenSenao,
	"de":         TokenDe,
	"até":        TokenAte,
	"ate":        TokenAte,
	"enquanto":   TokenEnquanto,
	"repita":     TokenRepita,
	"pare":       TokenPare,
	"continue":   TokenContinue,
	"tente":      TokenTente,
	"modelo":     TokenModelo,
	"módulo":     TokenModulo,
	"modulo":     TokenModulo,
	"importe":    TokenImporte,
	"mostre":     TokenMostre,
	"público":    TokenPublico,
	"publico":    TokenPublico,
	"verdadeiro": TokenVerdadeiro,
	"falso":      TokenFalso,
	"nada":       TokenNada,
	"texto":      TokenTipoTexto,
	"número":     TokenTipoNumero,
	"numero":     TokenTipoNumero,
	"lógico":     TokenTipoLogico,
	"logico":     TokenTipoLogico,
	"vazio":      TokenTipoVazio,
	"ou":         TokenOu,
	"não":        TokenNao,
	"nao":        TokenNao,
	"em":         TokenEm,
	"contém":     TokenContem,
	"contem":     TokenContem,
	"resto":      TokenResto,
}

// multiWord describes a keyword spelled as several whitespace-separated
// words. When the continuation does not match, the first word is emitted as
// fallback.
type multiWord struct {
	rest     []string
	typ      TokenType
	fallback TokenType
}

// multiWords maps a leading word to the keywords it can open, tried in order.
var multiWords = map[string][]multiWord{
	"para":   {{rest: []string{"cada"}, typ: TokenParaCada, fallback: TokenIdentifier}},
	"quando": {{rest: []string{"der", "erro"}, typ: TokenQuandoErro, fallback: TokenIdentifier}},
	"falhar": {{rest: []string{"com"}, typ: TokenFalharCom, fallback: TokenIdentifier}},
	"afirme": {{rest: []string{"que"}, typ: TokenAfirmeQue, fallback: TokenIdentifier}},
	"é": {
		{rest: []string{"igual", "a"}, typ: TokenIgualA, fallback: TokenIdentifier},
		{rest: []string{"diferente", "de"}, typ: TokenDiferenteDe, fallback: TokenIdentifier},
	},
	"e": {
		{rest: []string{"igual", "a"}, typ: TokenIgualA, fallback: TokenE},
		{rest: []string{"diferente", "de"}, typ: TokenDiferenteDe, fallback: TokenE},
	},
}

// Keywords returns every keyword spelling, single and multi-word, in its
// canonical accented form.
func Keywords() []string {
	var kws []string
	for t := TokenPense; t <= TokenDiferenteDe; t++ {
		kws = append(kws, t.String())
	}
	return kws
}
