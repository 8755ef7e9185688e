package parser

import (
	"strconv"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/state"
	"github.com/Yhlight/chtl/internal/token"
)

// parseElement handles `Ident { elementBody }`, including the
// bare-tag-no-body form used for void elements like `br;`.
func (p *Parser) parseElement() *ast.Node {
	tagTok, _ := p.expect(token.Ident)
	n := ast.New(ast.KindElement, tagTok.Pos)
	n.Tag = tagTok.Lexeme
	n.Name = tagTok.Lexeme

	p.skipComments()
	if p.peek().Kind == token.Semi {
		p.advance()
		return n
	}
	if _, ok := p.expect(token.LBrace); !ok {
		return n
	}
	p.sm.EnterBrace()
	release, err := p.sm.Push(state.Frame{Kind: state.InElement, Name: n.Tag})
	if err != nil {
		p.errorf(tagTok.Pos, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()
	defer p.sm.ExitBrace()

	for {
		p.skipComments()
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		item := p.parseElementBodyItem(n)
		if item != nil {
			n.AddChild(item)
			if item.Kind == ast.KindAttribute {
				n.SetAttribute(item.Name, item.Content)
			}
		}
	}
	p.expect(token.RBrace)
	n.SyncClassAttribute()
	return n
}

// parseElementBodyItem dispatches one statement inside an element, custom,
// or template body: attribute, nested element, text block, local
// style/script, inherit/delete/insert/except statement, or generator
// comment.
func (p *Parser) parseElementBodyItem(owner *ast.Node) *ast.Node {
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
	case t.Kind == token.Ident && t.Lexeme == "insert":
		return p.parseInsert()
	case t.Kind == token.Ident && t.Lexeme == "except":
		return p.parseExcept()
	case t.Kind == token.At:
		return p.parseElementAtReference(owner)
	case t.Kind == token.Ident && t.Lexeme == "text":
		return p.parseTextBlock()
	case t.Kind == token.Ident && t.Lexeme == "style":
		return p.parseStyleBlock(false)
	case t.Kind == token.Ident && t.Lexeme == "script":
		return p.parseScriptBlock(false)
	case t.Kind == token.String:
		p.advance()
		tn := ast.New(ast.KindText, t.Pos)
		tn.TextType = ast.TextQuoted
		tn.Content = t.Lexeme
		p.acceptSemi()
		return tn
	case t.Kind == token.Ident && p.peekAt(1).Kind == token.LBracket:
		return p.parseIndexAccess(t.Lexeme, t.Lexeme, t.Pos)
	case t.Kind == token.Ident:
		if p.peekAt(1).Kind == token.Colon {
			return p.parseAttribute()
		}
		return p.parseElementOrAttribute()
	default:
		p.errorf(t.Pos, diag.CodeUnexpectedToken, "unexpected token %s %q inside element body", t.Kind, t.Lexeme)
		p.advance()
		return nil
	}
}

// parseElementOrAttribute resolves the attribute-vs-nested-element
// ambiguity by looking
// one token ahead: `name: value` is an attribute, `name {` or `name;` is
// a nested element.
func (p *Parser) parseElementOrAttribute() *ast.Node {
	if p.peekAt(1).Kind == token.Colon {
		return p.parseAttribute()
	}
	return p.parseElement()
}

// parseAttribute handles `name: value;`.
func (p *Parser) parseAttribute() *ast.Node {
	nameTok, _ := p.expect(token.Ident)
	p.expect(token.Colon)
	valTok := p.peek()
	value := ""
	switch valTok.Kind {
	case token.String, token.Unquoted, token.Number, token.Ident:
		p.advance()
		value = valTok.Lexeme
	default:
		p.errorf(valTok.Pos, diag.CodeUnexpectedToken, "expected attribute value after ':'")
	}
	p.acceptSemi()
	n := ast.New(ast.KindAttribute, nameTok.Pos)
	n.Name = nameTok.Lexeme
	n.Content = value
	return n
}

// parseTextBlock handles `text { "literal" }` / `text { unquoted }`.
func (p *Parser) parseTextBlock() *ast.Node {
	start := p.peek().Pos
	p.advance() // 'text'
	n := ast.New(ast.KindText, start)
	if _, ok := p.expect(token.LBrace); !ok {
		return n
	}
	release, _ := p.sm.Push(state.Frame{Kind: state.InText})
	defer release()

	var sb []byte
	for {
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		p.advance()
		if t.Kind == token.String {
			n.TextType = ast.TextQuoted
			sb = append(sb, t.Lexeme...)
		} else {
			if n.TextType != ast.TextQuoted {
				n.TextType = ast.TextUnquoted
			}
			if len(sb) > 0 {
				sb = append(sb, ' ')
			}
			sb = append(sb, t.Lexeme...)
		}
	}
	n.Content = string(sb)
	p.expect(token.RBrace)
	return n
}

// parseElementAtReference handles an '@Tag Name' reference used as an
// element-body item: `@Element Box;`, `@Style Highlight;`, or a
// specialization use-site inside a Custom body.
func (p *Parser) parseElementAtReference(owner *ast.Node) *ast.Node {
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
	case "Element":
		n := ast.New(ast.KindElement, atTok.Pos)
		n.Tag = nameTok.Lexeme
		n.Name = nameTok.Lexeme
		n.Metadata["templateRef"] = "Element"
		if p.peek().Kind == token.LBrace {
			p.parseSpecializationBody(n)
		} else {
			p.acceptSemi()
		}
		return n
	default:
		p.errorf(atTok.Pos, diag.CodeUnexpectedToken, "unexpected type tag @%s inside element body", tag)
		p.acceptSemi()
		return nil
	}
}

// parseSpecializationBody parses the `{ ... }` specialization block that
// follows a Custom use-site: delete/insert/index-access
// statements plus ordinary overriding properties/elements. The body of
// an `@Style Name { ... }` use-site is parsed with style-block rules.
func (p *Parser) parseSpecializationBody(owner *ast.Node) {
	start := p.peek().Pos
	if _, ok := p.expect(token.LBrace); !ok {
		return
	}
	release, err := p.sm.Push(state.Frame{Kind: state.InSpecialization})
	if err != nil {
		p.errorf(start, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()

	for {
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		var item *ast.Node
		if owner.Kind == ast.KindStyleRef {
			item = p.parseStyleItem()
		} else {
			item = p.parseElementBodyItem(owner)
		}
		if item != nil {
			owner.Specializations = append(owner.Specializations, item)
		}
	}
	p.expect(token.RBrace)
}

// parseIndexAccess handles `tag[n] { body }`, a bare use-site
// augmentation that disambiguates among same-named descendants without
// an explicit insert/delete keyword.
func (p *Parser) parseIndexAccess(tag, name string, pos token.Position) *ast.Node {
	p.advance() // the tag identifier
	p.advance() // '['
	p.sm.EnterBracket()
	numTok, _ := p.expect(token.Number)
	p.expect(token.RBracket)
	p.sm.ExitBracket()
	idx, _ := strconv.Atoi(numTok.Lexeme)
	n := ast.New(ast.KindIndexAccess, pos)
	n.IndexTag = tag
	n.Name = name
	n.IndexValue = idx

	if p.peek().Kind == token.LBrace {
		p.advance()
		p.sm.EnterBrace()
		for {
			t := p.peek()
			if t.Kind == token.RBrace || t.Kind == token.EOF {
				break
			}
			item := p.parseElementBodyItem(n)
			if item != nil {
				n.AddChild(item)
			}
		}
		p.expect(token.RBrace)
		p.sm.ExitBrace()
	} else {
		p.acceptSemi()
	}
	return n
}
