package parser

import (
	"strings"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/state"
	"github.com/Yhlight/chtl/internal/token"
)

// parseImport handles `[Import] @Tag [as Name] from <path> [except ...];`:
// path
// classification (absolute/relative/module-name/qualified/wildcard/
// recursive-wildcard) is left to internal/resolve, which re-parses
// n.RawPath; the parser's job is only to capture the raw lexeme
// faithfully.
func (p *Parser) parseImport() *ast.Node {
	start := p.peek().Pos
	p.advance() // [Import]
	n := ast.New(ast.KindImport, start)

	release, err := p.sm.Push(state.Frame{Kind: state.InImport})
	if err != nil {
		p.errorf(start, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()

	atTok, ok := p.expect(token.At)
	if ok {
		n.ImportKind = atTok.Lexeme[1:]
	}

	if p.peek().Kind == token.Ident && p.peek().Lexeme == "as" {
		p.advance()
		aliasTok, _ := p.expect(token.Ident)
		n.Alias = aliasTok.Lexeme
	}

	if p.peek().Kind == token.Ident && p.peek().Lexeme == "from" {
		p.advance()
	} else {
		p.errorf(p.peek().Pos, diag.CodeMissingSeparator, "expected 'from' before an import path")
	}

	n.RawPath = p.parseImportPath()
	n.IsWildcard = strings.Contains(n.RawPath, "*")
	n.IsRecursive = strings.Contains(n.RawPath, "**")

	if p.peek().Kind == token.Ident && p.peek().Lexeme == "except" {
		p.advance()
		for {
			nt, ok := p.expect(token.Ident)
			if !ok {
				break
			}
			n.Excludes = append(n.Excludes, nt.Lexeme)
			if p.peek().Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
	}

	if n.IsWildcard && n.Alias != "" {
		p.errorf(start, diag.CodeAmbiguousAliasImport,
			"wildcard import %q cannot be combined with an 'as' alias: which imported symbol would the alias name?", n.RawPath)
	}

	p.acceptSemi()
	return n
}

// parseImportPath collects a dotted path plus an optional trailing
// wildcard segment (`*` or `**`) as raw text, tolerating
// `chtl::`-prefixed official paths and quoted paths alike. An unquoted
// path has no '/' case; a path with slashes is written as a quoted
// string.
func (p *Parser) parseImportPath() string {
	t := p.peek()
	if t.Kind == token.String {
		p.advance()
		return t.Lexeme
	}
	var out []byte
	for {
		t := p.peek()
		switch t.Kind {
		case token.Ident, token.Number, token.Unquoted:
			p.advance()
			out = append(out, t.Lexeme...)
		case token.Dot:
			p.advance()
			out = append(out, '.')
		case token.ClassSel:
			// The lexer reads `.name` as one class-selector token.
			p.advance()
			out = append(out, '.')
			out = append(out, t.Lexeme...)
		case token.Colon:
			p.advance()
			out = append(out, ':')
		default:
			return string(out)
		}
		if p.peek().Kind == token.Ident && (p.peek().Lexeme == "as" || p.peek().Lexeme == "except") {
			return string(out)
		}
	}
}
