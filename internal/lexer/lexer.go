// Package lexer implements CHTL's single-pass, small-lookahead scanner.
// It is pure per call: the active keyword table is
// supplied by the caller (normally resolved from the active
// Configuration) rather than read from a package-level global, so
// dynamic keyword remapping never requires mutating shared state.
package lexer

import (
	"strings"
	"unicode/utf8"

	"github.com/Yhlight/chtl/internal/token"
)

// Lexer scans UTF-8 source text into a lazy token sequence with
// peek-by-offset support.
type Lexer struct {
	src     string
	file    string
	kw      *token.KeywordTable
	cssMode func() bool // consulted before emitting whitespace-significant Newline tokens

	pos    int // byte offset of the next unread rune
	line   int
	col    int
	cached []token.Token
}

// New returns a Lexer over src. kw is the active KeywordTable (never nil
// — pass token.BuiltinKeywordTable() when no Configuration is active).
// cssMode, if non-nil, is consulted on each newline to decide whether to
// emit a Newline token; a nil cssMode never emits them.
func New(file, src string, kw *token.KeywordTable, cssMode func() bool) *Lexer {
	if kw == nil {
		kw = token.BuiltinKeywordTable()
	}
	return &Lexer{src: src, file: file, kw: kw, cssMode: cssMode, line: 1, col: 1}
}

func (l *Lexer) pposition() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) advance() byte {
	b := l.src[l.pos]
	l.pos++
	if b == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return b
}

// Next returns the next token in the stream, advancing past it.
func (l *Lexer) Next() token.Token {
	l.skipInsignificantWhitespace()
	start := l.pposition()

	if l.eof() {
		return token.Token{Kind: token.EOF, Pos: start}
	}

	b := l.peekByte()

	switch {
	case b == '\n':
		l.advance()
		if l.cssMode != nil && l.cssMode() {
			return token.Token{Kind: token.Newline, Lexeme: "\n", Pos: start}
		}
		return l.Next()
	case b == '"' || b == '\'':
		return l.scanString(start, b)
	case b == '{':
		l.advance()
		return token.Token{Kind: token.LBrace, Lexeme: "{", Pos: start}
	case b == '}':
		l.advance()
		return token.Token{Kind: token.RBrace, Lexeme: "}", Pos: start}
	case b == '[':
		return l.scanBracketDecl(start)
	case b == ']':
		l.advance()
		return token.Token{Kind: token.RBracket, Lexeme: "]", Pos: start}
	case b == '(':
		l.advance()
		return token.Token{Kind: token.LParen, Lexeme: "(", Pos: start}
	case b == ')':
		l.advance()
		return token.Token{Kind: token.RParen, Lexeme: ")", Pos: start}
	case b == ':':
		l.advance()
		return token.Token{Kind: token.Colon, Lexeme: ":", Pos: start}
	case b == ';':
		l.advance()
		return token.Token{Kind: token.Semi, Lexeme: ";", Pos: start}
	case b == ',':
		l.advance()
		return token.Token{Kind: token.Comma, Lexeme: ",", Pos: start}
	case b == '&':
		l.advance()
		return token.Token{Kind: token.Amp, Lexeme: "&", Pos: start}
	case b == '@':
		return l.scanAtTag(start)
	case b == '*':
		return l.scanWildcard(start)
	case b == '.' :
		return l.scanDotOrSelector(start)
	case b == '#':
		return l.scanHashOrSelector(start)
	case b == '/':
		if l.peekByteAt(1) == '/' {
			return l.scanLineComment(start)
		}
		if l.peekByteAt(1) == '*' {
			return l.scanBlockComment(start)
		}
		l.advance()
		return token.Token{Kind: token.Illegal, Lexeme: "/", Pos: start, Message: "unexpected byte '/'"}
	case b == '-':
		if l.peekByteAt(1) == '-' {
			return l.scanGeneratorComment(start)
		}
		if isDigit(l.peekByteAt(1)) {
			return l.scanNumber(start)
		}
		if isIdentStart(rune(l.peekByteAt(1))) {
			return l.scanUnquoted(start)
		}
		l.advance()
		return token.Token{Kind: token.Illegal, Lexeme: "-", Pos: start, Message: "unexpected byte '-'"}
	case isDigit(b):
		return l.scanNumber(start)
	case isIdentStart(rune(b)):
		return l.scanIdentOrKeyword(start)
	default:
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		for i := 0; i < size; i++ {
			l.advance()
		}
		return token.Token{Kind: token.Illegal, Lexeme: string(r), Pos: start, Message: "unknown byte"}
	}
}

// skipInsignificantWhitespace skips spaces, tabs and CRs. Newlines are
// left for Next, which skips them or surfaces them as tokens depending
// on cssMode.
func (l *Lexer) skipInsignificantWhitespace() {
	for !l.eof() {
		b := l.peekByte()
		if b == ' ' || b == '\t' || b == '\r' {
			l.advance()
			continue
		}
		break
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r >= utf8.RuneSelf
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9') || r == '-'
}

func (l *Lexer) scanString(start token.Position, quote byte) token.Token {
	l.advance() // consume opening quote
	var sb strings.Builder
	for {
		if l.eof() {
			return token.Token{Kind: token.Illegal, Lexeme: sb.String(), Pos: start, Message: "unterminated string"}
		}
		b := l.peekByte()
		if b == quote {
			l.advance()
			return token.Token{Kind: token.String, Lexeme: sb.String(), Pos: start}
		}
		if b == '\\' {
			l.advance()
			if l.eof() {
				return token.Token{Kind: token.Illegal, Lexeme: sb.String(), Pos: start, Message: "unterminated string"}
			}
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\':
				sb.WriteByte('\\')
			case '\'':
				sb.WriteByte('\'')
			case '"':
				sb.WriteByte('"')
			default:
				sb.WriteByte(esc)
			}
			continue
		}
		if b == '\n' {
			return token.Token{Kind: token.Illegal, Lexeme: sb.String(), Pos: start, Message: "unterminated string"}
		}
		sb.WriteByte(l.advance())
	}
}

// scanBracketDecl scans a "[Keyword]" prefix token. The alphabetic
// content is matched against the active KeywordTable's Decls map first
// (so a Configuration's [Name] remap takes effect) then the builtin
// table; an unknown keyword yields an Illegal token. A '[' that is not
// followed by a letter is plain LBracket punctuation, as in `div[0]`.
func (l *Lexer) scanBracketDecl(start token.Position) token.Token {
	if !isAlpha(l.peekByteAt(1)) {
		l.advance()
		return token.Token{Kind: token.LBracket, Lexeme: "[", Pos: start}
	}
	l.advance() // consume '['
	contentStart := l.pos
	for !l.eof() && l.peekByte() != ']' {
		if !isIdentCont(rune(l.peekByte())) {
			break
		}
		l.advance()
	}
	if l.eof() || l.peekByte() != ']' {
		lex := l.src[contentStart:l.pos]
		return token.Token{Kind: token.Illegal, Lexeme: "[" + lex, Pos: start, Message: "unterminated '[' prefix"}
	}
	spelling := l.src[contentStart:l.pos]
	l.advance() // consume ']'
	if _, ok := l.kw.LookupDecl(spelling); !ok {
		return token.Token{Kind: token.Illegal, Lexeme: "[" + spelling + "]", Pos: start, Message: "unknown declaration keyword [" + spelling + "]"}
	}
	return token.Token{Kind: token.Decl, Lexeme: "[" + spelling + "]", Pos: start}
}

// scanAtTag scans an "@Name" type-tag token. Unknown spellings fall back
// to a generic identifier carrying the '@' prefix, so the parser (which
// knows about user origin types registered via [OriginType]) decides
// legality.
func (l *Lexer) scanAtTag(start token.Position) token.Token {
	l.advance() // consume '@'
	nameStart := l.pos
	for !l.eof() && isIdentCont(rune(l.peekByte())) {
		l.advance()
	}
	name := l.src[nameStart:l.pos]
	if name == "" {
		return token.Token{Kind: token.Illegal, Lexeme: "@", Pos: start, Message: "expected identifier after '@'"}
	}
	return token.Token{Kind: token.At, Lexeme: "@" + name, Pos: start}
}

// scanDotOrSelector emits a ClassSel token only when '.' is followed by
// an alphabetic character; otherwise it's plain punctuation.
func (l *Lexer) scanDotOrSelector(start token.Position) token.Token {
	next := l.peekByteAt(1)
	if !isAlpha(next) {
		l.advance()
		return token.Token{Kind: token.Dot, Lexeme: ".", Pos: start}
	}
	l.advance() // consume '.'
	nameStart := l.pos
	for !l.eof() && isIdentCont(rune(l.peekByte())) {
		l.advance()
	}
	return token.Token{Kind: token.ClassSel, Lexeme: l.src[nameStart:l.pos], Pos: start}
}

func (l *Lexer) scanHashOrSelector(start token.Position) token.Token {
	next := l.peekByteAt(1)
	if !isAlpha(next) {
		l.advance()
		return token.Token{Kind: token.Illegal, Lexeme: "#", Pos: start, Message: "unexpected byte '#'"}
	}
	l.advance() // consume '#'
	nameStart := l.pos
	for !l.eof() && isIdentCont(rune(l.peekByte())) {
		l.advance()
	}
	return token.Token{Kind: token.IDSel, Lexeme: l.src[nameStart:l.pos], Pos: start}
}

// scanWildcard scans one or two '*' characters as a single Unquoted
// token: '*' (one path segment) or '**' (recursive-wildcard, bounded to
// depth 10 by internal/resolve). Only an import path gives it a
// meaning; elsewhere the parser treats it like any other unquoted
// literal.
func (l *Lexer) scanWildcard(start token.Position) token.Token {
	l.advance()
	if l.peekByte() == '*' {
		l.advance()
		return token.Token{Kind: token.Unquoted, Lexeme: "**", Pos: start}
	}
	return token.Token{Kind: token.Unquoted, Lexeme: "*", Pos: start}
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func (l *Lexer) scanLineComment(start token.Position) token.Token {
	l.advance()
	l.advance()
	cstart := l.pos
	for !l.eof() && l.peekByte() != '\n' {
		l.advance()
	}
	return token.Token{Kind: token.LineComment, Lexeme: l.src[cstart:l.pos], Pos: start}
}

func (l *Lexer) scanBlockComment(start token.Position) token.Token {
	l.advance()
	l.advance()
	cstart := l.pos
	for !l.eof() {
		if l.peekByte() == '*' && l.peekByteAt(1) == '/' {
			text := l.src[cstart:l.pos]
			l.advance()
			l.advance()
			return token.Token{Kind: token.BlockComment, Lexeme: text, Pos: start}
		}
		l.advance()
	}
	return token.Token{Kind: token.Illegal, Lexeme: l.src[cstart:l.pos], Pos: start, Message: "unterminated block comment"}
}

// scanGeneratorComment scans a "-- ..." comment to end-of-line. Unlike
// the other two comment kinds, this is the only one the parser wraps in
// an AST node.
func (l *Lexer) scanGeneratorComment(start token.Position) token.Token {
	l.advance()
	l.advance()
	cstart := l.pos
	for !l.eof() && l.peekByte() != '\n' {
		l.advance()
	}
	return token.Token{Kind: token.GeneratorComment, Lexeme: strings.TrimSpace(l.src[cstart:l.pos]), Pos: start}
}

func (l *Lexer) scanNumber(start token.Position) token.Token {
	nstart := l.pos
	if l.peekByte() == '-' {
		l.advance()
	}
	for !l.eof() && isDigit(l.peekByte()) {
		l.advance()
	}
	if l.peekByte() == '.' && isDigit(l.peekByteAt(1)) {
		l.advance()
		for !l.eof() && isDigit(l.peekByte()) {
			l.advance()
		}
	}
	return token.Token{Kind: token.Number, Lexeme: l.src[nstart:l.pos], Pos: start}
}

// scanUnquoted scans an unquoted literal: a leading hyphen is permitted
// when followed by an alphanumeric, then any run of alnum/-/_. Scanning stops at any structural
// character.
func (l *Lexer) scanUnquoted(start token.Position) token.Token {
	nstart := l.pos
	l.advance() // consume leading '-'
	for !l.eof() && isUnquotedCont(rune(l.peekByte())) {
		l.advance()
	}
	return token.Token{Kind: token.Unquoted, Lexeme: l.src[nstart:l.pos], Pos: start}
}

func isUnquotedCont(r rune) bool {
	return isIdentCont(r)
}

// scanIdentOrKeyword scans an identifier run and classifies it as a
// bareword keyword (inherit/delete/insert/...) via the active keyword
// table, or else as a generic Ident — the parser distinguishes element
// tags from user identifiers by context, not by lexeme.
func (l *Lexer) scanIdentOrKeyword(start token.Position) token.Token {
	nstart := l.pos
	for !l.eof() {
		r, size := utf8.DecodeRuneInString(l.src[l.pos:])
		if !isIdentCont(r) {
			break
		}
		for i := 0; i < size; i++ {
			l.advance()
		}
	}
	lex := l.src[nstart:l.pos]
	if canonical, ok := l.kw.Words[lex]; ok {
		lex = canonical
	}
	return token.Token{Kind: token.Ident, Lexeme: lex, Pos: start}
}

// PeekN returns the token n positions ahead (0 = the next token Next()
// would return) without consuming input, caching intermediate tokens so
// repeated peeks don't re-scan.
func (l *Lexer) PeekN(n int) token.Token {
	for len(l.cached) <= n {
		l.cached = append(l.cached, l.rawNext())
	}
	return l.cached[n]
}

// rawNext scans a fresh token with Next, bypassing the peek cache; PeekN
// uses it to fill the cache, and Advance drains the cache first.
func (l *Lexer) rawNext() token.Token {
	return l.Next()
}

// Advance consumes and returns the next token, honoring anything buffered
// by PeekN.
func (l *Lexer) Advance() token.Token {
	if len(l.cached) > 0 {
		t := l.cached[0]
		l.cached = l.cached[1:]
		return t
	}
	return l.Next()
}

// Keywords returns the active keyword table (read-only use expected).
func (l *Lexer) Keywords() *token.KeywordTable { return l.kw }

// File returns the source file path this lexer was constructed with.
func (l *Lexer) File() string { return l.file }
