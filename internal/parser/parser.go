// Package parser implements CHTL's context-sensitive, recursive-descent
// parser: one token of lookahead and a parse-state machine
// (internal/state) that gates which productions are legal at any point.
// Attribute values are single literal tokens; there is no expression
// parsing (arithmetic, operators) in attribute values.
package parser

import (
	"strings"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/lexer"
	"github.com/Yhlight/chtl/internal/state"
	"github.com/Yhlight/chtl/internal/token"
)

// Parser holds everything needed to turn one file's token stream into an
// AST: the lexer, the state machine, a diagnostics bag, and the file path
// used to stamp diagnostics.
type Parser struct {
	lex  *lexer.Lexer
	sm   *state.Machine
	bag  *diag.Bag
	file string
	kw   *token.KeywordTable
}

// New constructs a Parser. kw must be the same KeywordTable the lexer was
// built with, so the parser can recognize type-tag and decl spellings
// consistently with what the lexer accepted. sm must be the same
// state.Machine whose InCSSLikeBlock method the lexer's cssMode callback
// consults, so newline significance and the parser's own frame stack
// never disagree (see compiler.Pipeline.parseFile).
func New(file string, lex *lexer.Lexer, kw *token.KeywordTable, bag *diag.Bag, sm *state.Machine) *Parser {
	if sm == nil {
		sm = state.New()
	}
	return &Parser{lex: lex, sm: sm, bag: bag, file: file, kw: kw}
}

func (p *Parser) errorf(pos token.Position, code string, format string, args ...any) {
	p.bag.Errorf(diag.Syntactic, code, p.file, pos, format, args...)
}

func (p *Parser) peek() token.Token      { return p.lex.PeekN(0) }
func (p *Parser) peekAt(n int) token.Token { return p.lex.PeekN(n) }
func (p *Parser) advance() token.Token   { return p.lex.Advance() }

// skipComments drains ordinary (//, /* */) comments, leaving the first
// non-comment token unconsumed. Generator comments are
// left in place: they become AST nodes, not noise.
func (p *Parser) skipComments() {
	for {
		t := p.peek()
		if t.Kind == token.LineComment || t.Kind == token.BlockComment {
			p.advance()
			continue
		}
		return
	}
}

func (p *Parser) expect(k token.Kind) (token.Token, bool) {
	p.skipComments()
	t := p.peek()
	if t.Kind != k {
		p.errorf(t.Pos, diag.CodeUnexpectedToken, "expected %s, got %s %q", k, t.Kind, t.Lexeme)
		return t, false
	}
	return p.advance(), true
}

// acceptSemi consumes an optional trailing semicolon; a missing
// semicolon is never itself an error.
func (p *Parser) acceptSemi() {
	p.skipComments()
	if p.peek().Kind == token.Semi {
		p.advance()
	}
}

// synchronize implements the error-recovery rule: skip to the next
// plausible synchronization token (closing brace of the enclosing block,
// semicolon, or the start of a top-level declaration).
func (p *Parser) synchronize() {
	depth := 0
	for {
		t := p.peek()
		switch t.Kind {
		case token.EOF:
			return
		case token.LBrace:
			depth++
			p.advance()
			continue
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
			p.advance()
			continue
		case token.Semi:
			if depth == 0 {
				p.advance()
				return
			}
			p.advance()
			continue
		case token.Decl:
			if depth == 0 {
				return
			}
			p.advance()
			continue
		default:
			p.advance()
		}
	}
}

// ParseFile parses an entire source file into a File-kind root node,
// looping over top-level items until EOF.
func (p *Parser) ParseFile() *ast.Node {
	root := ast.New(ast.KindFile, token.Position{Line: 1, Column: 1})
	for {
		p.skipComments()
		t := p.peek()
		if t.Kind == token.EOF {
			break
		}
		if node := p.parseTopLevelItem(); node != nil {
			root.AddChild(node)
		} else {
			p.synchronize()
		}
	}
	return root
}

// parseTopLevelItem dispatches on the next token to one of the
// declaration productions legal at TopLevel/InNamespace, or an element.
func (p *Parser) parseTopLevelItem() *ast.Node {
	t := p.peek()
	switch {
	case t.Kind == token.Ident && t.Lexeme == "use":
		return p.parseUse()
	case t.Kind == token.GeneratorComment:
		p.advance()
		n := ast.New(ast.KindGeneratorComment, t.Pos)
		n.Content = t.Lexeme
		return n
	case t.Kind == token.Decl:
		return p.parseDecl()
	case t.Kind == token.Ident:
		return p.parseElement()
	default:
		p.errorf(t.Pos, diag.CodeUnexpectedToken, "unexpected token %s %q at top level", t.Kind, t.Lexeme)
		return nil
	}
}

// parseDecl dispatches a "[Keyword]"-led production by consulting the
// active keyword table for which DeclKind the bracketed spelling names.
func (p *Parser) parseDecl() *ast.Node {
	t := p.peek()
	spelling := strings.Trim(t.Lexeme, "[]")
	kind, ok := p.kw.LookupDecl(spelling)
	if !ok {
		p.advance()
		p.errorf(t.Pos, diag.CodeUnexpectedToken, "unknown declaration %q", t.Lexeme)
		return nil
	}
	switch kind {
	case token.DeclNamespace:
		return p.parseNamespace()
	case token.DeclImport:
		return p.parseImport()
	case token.DeclConfiguration:
		return p.parseConfiguration()
	case token.DeclTemplate:
		return p.parseTemplateOrCustom(ast.KindTemplate)
	case token.DeclCustom:
		return p.parseTemplateOrCustom(ast.KindCustom)
	case token.DeclOrigin:
		return p.parseOrigin()
	default:
		p.advance()
		p.errorf(t.Pos, diag.CodeUnexpectedToken, "declaration %q is not legal here", t.Lexeme)
		return nil
	}
}

// parseUse handles `use html5;` and `use @Config Name;`.
func (p *Parser) parseUse() *ast.Node {
	start := p.peek().Pos
	p.advance() // 'use'
	n := ast.New(ast.KindUse, start)
	t := p.peek()
	if t.Kind == token.At {
		p.advance()
		nameTok, ok := p.expect(token.Ident)
		if ok {
			n.UseTarget = "@Config " + nameTok.Lexeme
		}
	} else if t.Kind == token.Ident {
		p.advance()
		n.UseTarget = t.Lexeme
	} else {
		p.errorf(t.Pos, diag.CodeUnexpectedToken, "expected 'html5' or '@Config Name' after 'use'")
	}
	p.acceptSemi()
	return n
}

// parseNamespace handles `[Namespace] Ident { file }`.
func (p *Parser) parseNamespace() *ast.Node {
	start := p.peek().Pos
	p.advance() // [Namespace]
	nameTok, _ := p.expect(token.Ident)
	n := ast.New(ast.KindNamespace, start)
	n.Name = nameTok.Lexeme
	n.NamespacePath = nameTok.Lexeme

	if _, ok := p.expect(token.LBrace); !ok {
		return n
	}
	p.sm.EnterBrace()
	release, err := p.sm.Push(state.Frame{Kind: state.InNamespace, Name: n.Name})
	if err != nil {
		p.errorf(start, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()
	defer p.sm.ExitBrace()

	for {
		p.skipComments()
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		if item := p.parseTopLevelItem(); item != nil {
			n.AddChild(item)
		} else {
			p.synchronize()
		}
	}
	p.expect(token.RBrace)
	return n
}
