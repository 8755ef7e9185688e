package parser

import (
	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/state"
	"github.com/Yhlight/chtl/internal/token"
)

// parseStyleBlock handles `style { ... }`, local (nested in an element)
// or global (top-level); the local/global distinction is recorded on the
// pushed InStyle frame (see state.Machine.CurrentStyleIsGlobal).
func (p *Parser) parseStyleBlock(forceGlobal bool) *ast.Node {
	start := p.peek().Pos
	p.advance() // 'style'
	n := ast.New(ast.KindStyle, start)
	if _, ok := p.expect(token.LBrace); !ok {
		return n
	}
	global := forceGlobal || p.sm.IsInGlobalScope()
	release, err := p.sm.Push(state.Frame{Kind: state.InStyle, Global: global})
	if err != nil {
		p.errorf(start, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()

	for {
		p.skipNewlines()
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		item := p.parseStyleItem()
		if item != nil {
			n.AddChild(item)
		} else {
			p.synchronize()
		}
	}
	p.expect(token.RBrace)
	return n
}

func (p *Parser) skipNewlines() {
	p.skipComments()
	for p.peek().Kind == token.Newline {
		p.advance()
		p.skipComments()
	}
}

// parseStyleItem dispatches one statement inside a style block: a nested
// rule (selector { ... }), a property declaration, an inherit/delete
// statement, or an `@Style`/`@Var` reference.
func (p *Parser) parseStyleItem() *ast.Node {
	t := p.peek()
	switch {
	case t.Kind == token.GeneratorComment:
		p.advance()
		n := ast.New(ast.KindGeneratorComment, t.Pos)
		n.Content = t.Lexeme
		return n
	case t.Kind == token.Ident && t.Lexeme == "inherit":
		return p.parseInherit()
	case t.Kind == token.Ident && t.Lexeme == "delete":
		return p.parseDelete()
	case t.Kind == token.At:
		return p.parseStyleAtReference()
	case t.Kind == token.ClassSel, t.Kind == token.IDSel, t.Kind == token.Amp:
		return p.parseStyleRuleOrSelectorProperty()
	case t.Kind == token.Ident && p.peekAt(1).Kind == token.Colon:
		return p.parseStyleProperty()
	case t.Kind == token.Ident && p.peekAt(1).Kind == token.LBrace:
		return p.parsePseudoOrTagRule()
	case t.Kind == token.Ident:
		// No-value style property: a bare property name with no colon.
		// It is accepted anywhere a style item is parsed.
		return p.parseNoValueStyleProperty()
	default:
		p.errorf(t.Pos, diag.CodeUnexpectedToken, "unexpected token %s in style block", t.Kind)
		p.advance()
		return nil
	}
}

// parseStyleProperty handles `name: value;` inside a style block.
func (p *Parser) parseStyleProperty() *ast.Node {
	nameTok, _ := p.expect(token.Ident)
	p.expect(token.Colon)
	value := p.parseStyleValue()
	p.acceptSemi()
	n := ast.New(ast.KindAttribute, nameTok.Pos)
	n.Name = nameTok.Lexeme
	n.Content = value
	return n
}

// parseStyleValue collects tokens up to the terminating ';' or '}'.
// Tokens written without whitespace between them stay adjacent ("12px"),
// and tokens separated by whitespace are joined with a single space;
// @Var references are resolved later by internal/inherit, so they're
// kept as literal text here (e.g. "ThemeColor(tableColor)").
func (p *Parser) parseStyleValue() string {
	var out []byte
	end := -1
	for {
		t := p.peek()
		if t.Kind == token.Semi || t.Kind == token.RBrace || t.Kind == token.EOF || t.Kind == token.Newline {
			break
		}
		p.advance()
		if len(out) > 0 && t.Pos.Offset > end {
			out = append(out, ' ')
		}
		out = append(out, t.Lexeme...)
		end = t.Pos.Offset + len(t.Lexeme)
	}
	return string(out)
}

// parseNoValueStyleProperty handles a bare property name (no colon, no
// value), typically a specialization override: it
// marks the property as explicitly unvalued, deferring to a later
// explicit value or raising E-UNVALUED-PROPERTY at emission if none
// arrives.
func (p *Parser) parseNoValueStyleProperty() *ast.Node {
	nameTok := p.advance()
	p.acceptSemi()
	n := ast.New(ast.KindNoValueStyle, nameTok.Pos)
	n.NoValueProps = []string{nameTok.Lexeme}
	return n
}

// parseStyleAtReference handles `@Style Name;` (or `@Style Name { ... }`
// with a specialization body) and `@Var Name;` uses inside a style
// block. A parenthesized `@Var Name(prop)` form is not parsed here.
func (p *Parser) parseStyleAtReference() *ast.Node {
	atTok := p.advance()
	tag := atTok.Lexeme[1:]
	nameTok, _ := p.expect(token.Ident)
	switch tag {
	case "Style":
		n := ast.New(ast.KindStyleRef, atTok.Pos)
		n.Name = nameTok.Lexeme
		if p.peek().Kind == token.LBrace {
			p.parseSpecializationBody(n)
		} else {
			p.acceptSemi()
		}
		return n
	case "Var":
		n := ast.New(ast.KindVarRef, atTok.Pos)
		n.Name = nameTok.Lexeme
		p.acceptSemi()
		return n
	default:
		p.errorf(atTok.Pos, diag.CodeUnexpectedToken, "unexpected type tag @%s in style block", tag)
		p.acceptSemi()
		return nil
	}
}

// parseStyleRuleOrSelectorProperty handles a nested rule led by a class
// selector, id selector, or `&`: `.box { ... }`,
// `#main { ... }`, `&:hover { ... }`.
func (p *Parser) parseStyleRuleOrSelectorProperty() *ast.Node {
	start := p.peek().Pos
	selector := p.parseSelectorHead()
	if _, ok := p.expect(token.LBrace); !ok {
		return nil
	}
	n := ast.New(ast.KindStyleRule, start)
	n.Name = selector
	release, _ := p.sm.Push(state.Frame{Kind: state.InStyleRule})
	defer release()
	for {
		p.skipNewlines()
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		item := p.parseStyleItem()
		if item != nil {
			n.AddChild(item)
		} else {
			p.synchronize()
		}
	}
	p.expect(token.RBrace)
	return n
}

// parsePseudoOrTagRule handles `ident { ... }` inside a style block,
// e.g. a bare pseudo-class-less tag rule used in global style blocks.
func (p *Parser) parsePseudoOrTagRule() *ast.Node {
	start := p.peek().Pos
	tagTok := p.advance()
	if _, ok := p.expect(token.LBrace); !ok {
		return nil
	}
	n := ast.New(ast.KindStyleRule, start)
	n.Name = tagTok.Lexeme
	release, _ := p.sm.Push(state.Frame{Kind: state.InStyleRule})
	defer release()
	for {
		p.skipNewlines()
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		item := p.parseStyleItem()
		if item != nil {
			n.AddChild(item)
		} else {
			p.synchronize()
		}
	}
	p.expect(token.RBrace)
	return n
}

// parseSelectorHead collects a compound selector head (class/id/&
// followed by optional pseudo-class/element suffixes like ":hover") as
// raw text; the selector automation engine re-parses the primary class/
// id out of this string.
func (p *Parser) parseSelectorHead() string {
	var out []byte
	t := p.peek()
	switch t.Kind {
	case token.ClassSel:
		p.advance()
		out = append(out, '.')
		out = append(out, t.Lexeme...)
	case token.IDSel:
		p.advance()
		out = append(out, '#')
		out = append(out, t.Lexeme...)
	case token.Amp:
		p.advance()
		out = append(out, '&')
	}
	for p.peek().Kind == token.Colon {
		p.advance()
		out = append(out, ':')
		if p.peek().Kind == token.Ident {
			nt := p.advance()
			out = append(out, nt.Lexeme...)
		}
	}
	return string(out)
}

// parseScriptBlock handles `script { ... }`; the body is CHTL JS, which
// is treated as opaque text at this layer and handed downstream unchanged.
func (p *Parser) parseScriptBlock(forceGlobal bool) *ast.Node {
	start := p.peek().Pos
	p.advance() // 'script'
	n := ast.New(ast.KindScript, start)
	global := forceGlobal || p.sm.IsInGlobalScope()
	n.Metadata["global"] = boolStr(global)
	if _, ok := p.expect(token.LBrace); !ok {
		return n
	}
	release, err := p.sm.Push(state.Frame{Kind: state.InScript, Global: global})
	if err != nil {
		p.errorf(start, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()

	depth := 1
	var out []byte
	for depth > 0 {
		t := p.peek()
		if t.Kind == token.EOF {
			p.errorf(t.Pos, diag.CodeUnbalancedBraces, "unterminated script block")
			break
		}
		if t.Kind == token.LBrace {
			depth++
		}
		if t.Kind == token.RBrace {
			depth--
			if depth == 0 {
				p.advance()
				break
			}
		}
		p.advance()
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = append(out, t.Lexeme...)
	}
	n.Content = string(out)
	return n
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
