package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf16"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/pbrlang/pbr/compiler"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "pbr-lsp"

var lspLog = commonlog.GetLogger("pbr.lsp")

// document is an open editor buffer. prog is the last version that parsed,
// kept so completion still works while the user is mid-edit.
type document struct {
	text string
	prog *compiler.Program
}

// LspServer provides diagnostics, completion, hover, definition and
// references for .pbr buffers.
type LspServer struct {
	mu   sync.Mutex
	docs map[string]*document // URI → buffer

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server. version is reported to the client.
func NewLSP(version string) *LspServer {
	s := &LspServer{
		docs:    make(map[string]*document),
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	lspLog.Info("initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	lspLog.Debugf("trace: %s", params.Value)
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	diagnostics := s.update(string(uri), params.TextDocument.Text)
	s.publish(ctx, uri, diagnostics)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			diagnostics := s.update(string(uri), whole.Text)
			s.publish(ctx, uri, diagnostics)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	s.publish(ctx, uri, []protocol.Diagnostic{})
	return nil
}

// update stores text for uri and returns its diagnostics.
func (s *LspServer) update(uri, text string) []protocol.Diagnostic {
	prog, diagnostics := check(text)

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[uri]
	if !ok {
		doc = &document{}
		s.docs[uri] = doc
	}
	doc.text = text
	if prog != nil {
		doc.prog = prog
	}
	return diagnostics
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, *compiler.Program, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[string(uri)]
	if !ok {
		return "", nil, false
	}
	return doc.text, doc.prog, true
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, prog, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(prog, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, prog, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(prog, word, lineAt(text, int(params.Position.Line))), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, prog, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	for _, d := range declarations(prog) {
		if d.name == word {
			return []protocol.Location{{URI: uri, Range: nameRange(text, d.name, d.pos)}}, nil
		}
	}
	return nil, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	text, _, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	var locations []protocol.Location
	for _, r := range occurrences(text, word) {
		locations = append(locations, protocol.Location{URI: uri, Range: r})
	}
	return locations, nil
}

// --- Analysis ---

// declaration is a named item or variable found in a program.
type declaration struct {
	name   string
	kind   protocol.CompletionItemKind
	detail string
	pos    compiler.Position
	stmt   compiler.Stmt
}

// declarations lists the functions, models, modules and variables of prog,
// including those nested in modules, in source order.
func declarations(prog *compiler.Program) []declaration {
	if prog == nil {
		return nil
	}
	var decls []declaration
	var walk func(stmts []compiler.Stmt)
	walk = func(stmts []compiler.Stmt) {
		for _, stmt := range stmts {
			switch n := stmt.(type) {
			case *compiler.FuncDecl:
				decls = append(decls, declaration{n.Name, protocol.CompletionItemKindFunction, signature(n), n.At, n})
			case *compiler.ModelDecl:
				decls = append(decls, declaration{n.Name, protocol.CompletionItemKindStruct, "modelo " + n.Name, n.At, n})
			case *compiler.VarDecl:
				detail := "pense " + n.Name
				if n.Type != nil {
					detail += ": " + n.Type.String()
				}
				decls = append(decls, declaration{n.Name, protocol.CompletionItemKindVariable, detail, n.At, n})
			case *compiler.ModuleDecl:
				decls = append(decls, declaration{n.Name, protocol.CompletionItemKindModule, "módulo " + n.Name, n.At, n})
				walk(n.Statements)
			}
		}
	}
	walk(prog.Statements)
	return decls
}

func signature(fn *compiler.FuncDecl) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name + ": " + p.Type.String()
	}
	sig := fmt.Sprintf("faça %s(%s)", fn.Name, strings.Join(params, ", "))
	if fn.ReturnType != nil {
		sig += ": " + fn.ReturnType.String()
	}
	if fn.Public {
		sig = "público " + sig
	}
	return sig
}

// complete returns keywords and declared names starting with prefix.
func complete(prog *compiler.Program, prefix string) []protocol.CompletionItem {
	seen := make(map[string]bool)
	var items []protocol.CompletionItem

	for _, d := range declarations(prog) {
		if seen[d.name] || !strings.HasPrefix(d.name, prefix) {
			continue
		}
		seen[d.name] = true
		kind := d.kind
		detail := d.detail
		items = append(items, protocol.CompletionItem{
			Label:  d.name,
			Kind:   &kind,
			Detail: &detail,
		})
	}

	keywordKind := protocol.CompletionItemKindKeyword
	for _, kw := range compiler.Keywords() {
		if seen[kw] || !strings.HasPrefix(kw, prefix) {
			continue
		}
		seen[kw] = true
		items = append(items, protocol.CompletionItem{
			Label: kw,
			Kind:  &keywordKind,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Label < items[j].Label
	})
	return items
}

// hover describes word. A declaration shows its signature and the Rust it
// lowers to. Otherwise, when line parses on its own as a single statement,
// its lowering is shown; a keyword is labeled as such.
func hover(prog *compiler.Program, word, line string) *protocol.Hover {
	for _, d := range declarations(prog) {
		if d.name != word {
			continue
		}
		var b strings.Builder
		fmt.Fprintf(&b, "```pbr\n%s\n```", d.detail)
		if _, ok := d.stmt.(*compiler.ModuleDecl); !ok {
			if rust, err := compiler.GenerateStmt(d.stmt); err == nil {
				fmt.Fprintf(&b, "\n\n```rust\n%s```", rust)
			}
		}
		return markdown(b.String())
	}

	if rust, ok := lowerLine(line); ok {
		return markdown(fmt.Sprintf("```rust\n%s```", rust))
	}

	for _, kw := range compiler.Keywords() {
		if kw == word {
			return markdown(fmt.Sprintf("palavra-chave `%s`", word))
		}
	}
	return nil
}

// lowerLine returns the Rust for line when it is exactly one complete
// statement other than a block opener.
func lowerLine(line string) (string, bool) {
	if strings.TrimSpace(line) == "" {
		return "", false
	}
	prog, err := compiler.Parse(line)
	if err != nil || len(prog.Statements) != 1 {
		return "", false
	}
	if _, ok := prog.Statements[0].(*compiler.ModuleDecl); ok {
		return "", false
	}
	rust, err := compiler.GenerateStmt(prog.Statements[0])
	if err != nil {
		return "", false
	}
	return rust, true
}

func markdown(value string) *protocol.Hover {
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: value,
		},
	}
}

// --- Diagnostics ---

// check parses and lowers text. It returns the program when it parsed and
// at most one diagnostic, since the parser stops at the first error.
func check(text string) (*compiler.Program, []protocol.Diagnostic) {
	prog, err := compiler.Parse(text)
	if err == nil {
		_, err = compiler.Generate(prog)
	}
	if err == nil {
		return prog, []protocol.Diagnostic{}
	}
	lspLog.Debugf("diagnostic: %v", err)

	var start protocol.Position
	if pos, ok := compiler.ErrorPosition(err); ok && pos.Line > 0 {
		start = toLSP(text, pos)
	}
	end := start
	if line := lineAt(text, int(start.Line)); int(end.Character) < utf16Len(line) {
		end.Character++
	}

	severity := protocol.DiagnosticSeverityError
	source := lspName
	return prog, []protocol.Diagnostic{{
		Range:    protocol.Range{Start: start, End: end},
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}}
}

func (s *LspServer) publish(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// --- Position helpers ---
//
// Compiler columns count runes from 1; LSP characters count UTF-16 code
// units from 0.

func lineAt(text string, line int) string {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[line], "\r")
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// toLSP converts a compiler position in text to an LSP position.
func toLSP(text string, pos compiler.Position) protocol.Position {
	line := []rune(lineAt(text, pos.Line-1))
	col := pos.Column - 1
	if col > len(line) {
		col = len(line)
	}
	if col < 0 {
		col = 0
	}
	return protocol.Position{
		Line:      protocol.UInteger(pos.Line - 1),
		Character: protocol.UInteger(utf16Len(string(line[:col]))),
	}
}

// runeIndex converts a UTF-16 character offset in line to a rune index.
func runeIndex(line []rune, character protocol.UInteger) int {
	units := 0
	for i, r := range line {
		if units >= int(character) {
			return i
		}
		units += utf16.RuneLen(r)
	}
	return len(line)
}

// nameRange locates name on the line of pos, at or after its column.
func nameRange(text, name string, pos compiler.Position) protocol.Range {
	start := toLSP(text, pos)
	line := lineAt(text, pos.Line-1)
	from := runeIndex([]rune(line), start.Character)
	runes := []rune(line)
	if i := strings.Index(string(runes[from:]), name); i >= 0 {
		prefix := string(runes[:from]) + string(runes[from:])[:i]
		start.Character = protocol.UInteger(utf16Len(prefix))
	}
	end := start
	end.Character += protocol.UInteger(utf16Len(name))
	return protocol.Range{Start: start, End: end}
}

// occurrences returns the ranges where word appears as a whole identifier.
func occurrences(text, word string) []protocol.Range {
	var ranges []protocol.Range
	target := []rune(word)
	for n, raw := range strings.Split(text, "\n") {
		line := []rune(strings.TrimSuffix(raw, "\r"))
		for i := 0; i+len(target) <= len(line); i++ {
			if string(line[i:i+len(target)]) != word {
				continue
			}
			if i > 0 && isIdentRune(line[i-1]) {
				continue
			}
			if end := i + len(target); end < len(line) && isIdentRune(line[end]) {
				continue
			}
			start := protocol.UInteger(utf16Len(string(line[:i])))
			ranges = append(ranges, protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(n), Character: start},
				End:   protocol.Position{Line: protocol.UInteger(n), Character: start + protocol.UInteger(utf16Len(word))},
			})
			i += len(target) - 1
		}
	}
	return ranges
}

// --- Text extraction helpers ---

func isIdentRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// extractPrefix returns the word fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	line := []rune(lineAt(text, int(pos.Line)))
	col := runeIndex(line, pos.Character)

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}

	if start == col {
		return ""
	}

	return string(line[start:col])
}

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line := []rune(lineAt(text, int(pos.Line)))
	col := runeIndex(line, pos.Character)

	start := col
	for start > 0 && isIdentRune(line[start-1]) {
		start--
	}

	end := col
	for end < len(line) && isIdentRune(line[end]) {
		end++
	}

	if start == end {
		return ""
	}

	return string(line[start:end])
}

func boolPtr(b bool) *bool {
	return &b
}
