package server

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/chazu/luar/compiler"
	"github.com/chazu/luar/pkg/fault"
	"github.com/chazu/luar/vm"

	_ "github.com/tliron/commonlog/simple"
)

const lspName = "luar-lsp"

// nativeDocs describes the natives of the default registry for hover.
var nativeDocs = map[string]string{
	"print": "print(value)\n\nWrites the value followed by a newline to standard output.",
}

func logger() commonlog.Logger {
	return commonlog.GetLogger("luar.lsp")
}

// LspServer compiles open documents on every change and reports faults as
// diagnostics. Hover and completion know the native globals of the
// registry it was created with.
type LspServer struct {
	natives vm.Registry

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server for programs run with the given natives.
func NewLSP(natives vm.Registry) *LspServer {
	s := &LspServer{
		natives: natives,
		docs:    make(map[string]string),
		version: "0.1.0",
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
	logger().Info("luar LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{}
	capabilities.HoverProvider = true

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
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, whole.Text)
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
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// document returns the current text of uri.
func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return s.complete(prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return s.hover(word), nil
}

// complete offers native globals and reserved words starting with prefix.
func (s *LspServer) complete(prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem

	for _, name := range s.natives.Names() {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		kind := protocol.CompletionItemKindFunction
		detail := "native function"
		nameCopy := name
		items = append(items, protocol.CompletionItem{
			Label:      name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	words := compiler.ReservedWords()
	sort.Strings(words)
	for _, word := range words {
		if !strings.HasPrefix(word, prefix) {
			continue
		}
		kind := protocol.CompletionItemKindKeyword
		detail := "reserved word"
		wordCopy := word
		items = append(items, protocol.CompletionItem{
			Label:      word,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &wordCopy,
		})
	}

	return items
}

// hover describes word if it is a native global or a reserved word.
func (s *LspServer) hover(word string) *protocol.Hover {
	var b strings.Builder

	if _, ok := s.natives[word]; ok {
		fmt.Fprintf(&b, "**%s**: native function", word)
		if doc, ok := nativeDocs[word]; ok {
			fmt.Fprintf(&b, "\n\n---\n\n%s", doc)
		}
	} else if tok := compiler.NewLexer(word).Next(); tok.Type.IsReserved() && tok.Literal == word {
		fmt.Fprintf(&b, "**%s**: reserved word", word)
	} else {
		return nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnose(text)
	logger().Debugf("%s: %d diagnostics", uri, len(diagnostics))

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose compiles text and reports the syntax fault, if any, as an error
// and every lexical warning seen before it as a warning.
func diagnose(text string) []protocol.Diagnostic {
	diagnostics := []protocol.Diagnostic{}
	source := lspName

	l := compiler.NewLexer(text)
	_, err := compiler.Load(l)

	var se *compiler.SyntaxError
	if errors.As(err, &se) {
		severity := protocol.DiagnosticSeverityError
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    tokenRange(se.Token),
			Severity: &severity,
			Source:   &source,
			Message:  se.Msg,
		})
	} else if err != nil {
		severity := protocol.DiagnosticSeverityError
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Severity: &severity,
			Source:   &source,
			Message:  err.Error(),
		})
	}

	for _, w := range l.Warnings() {
		severity := protocol.DiagnosticSeverityWarning
		start := toPosition(w.Pos)
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: protocol.Position{Line: start.Line, Character: start.Character + 1}},
			Severity: &severity,
			Source:   &source,
			Message:  w.Msg,
		})
	}

	return diagnostics
}

// tokenRange spans tok on its first line. End of input is an empty range.
func tokenRange(tok compiler.Token) protocol.Range {
	start := toPosition(tok.Pos)
	width := len([]rune(tok.Literal))
	if tok.Type == compiler.TokenString {
		width += 2 // quotes
	}
	if i := strings.IndexByte(tok.Literal, '\n'); i >= 0 {
		width = len([]rune(tok.Literal[:i])) + 1
	}
	return protocol.Range{
		Start: start,
		End:   protocol.Position{Line: start.Line, Character: start.Character + protocol.UInteger(width)},
	}
}

// toPosition converts a 1-based source position to a 0-based LSP position.
// Columns count runes, which matches UTF-16 outside the astral planes.
func toPosition(p fault.Position) protocol.Position {
	var pos protocol.Position
	if p.Line > 0 {
		pos.Line = protocol.UInteger(p.Line - 1)
	}
	if p.Column > 0 {
		pos.Character = protocol.UInteger(p.Column - 1)
	}
	return pos
}

// --- Text extraction helpers ---

// extractPrefix returns the name fragment before the cursor for completion.
func extractPrefix(text string, pos protocol.Position) string {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && isNameByte(line[start-1]) {
		start--
	}
	return line[start:col]
}

// extractWord returns the full name under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, col, ok := lineAt(text, pos)
	if !ok {
		return ""
	}
	start := col
	for start > 0 && isNameByte(line[start-1]) {
		start--
	}
	end := col
	for end < len(line) && isNameByte(line[end]) {
		end++
	}
	return line[start:end]
}

// lineAt returns the line pos refers to with the cursor clamped to it.
func lineAt(text string, pos protocol.Position) (string, int, bool) {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return "", 0, false
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}
	return line, col, true
}

func isNameByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func boolPtr(b bool) *bool {
	return &b
}
