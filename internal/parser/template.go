package parser

import (
	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/state"
	"github.com/Yhlight/chtl/internal/token"
)

// parseTemplateOrCustom handles `[Template]`/`[Custom] @Tag Name { body }`:
// the only difference the grammar itself cares about is
// which frame kind gates which statements legal inside (state.CanUseDelete,
// CanUseSpecialization, ...); the distinction in meaning is resolved later
// by internal/inherit.
func (p *Parser) parseTemplateOrCustom(kind ast.Kind) *ast.Node {
	start := p.peek().Pos
	p.advance() // [Template] or [Custom]

	atTok, ok := p.expect(token.At)
	n := ast.New(kind, start)
	if ok {
		switch atTok.Lexeme[1:] {
		case "Style":
			n.Variety = ast.VarietyStyle
		case "Element":
			n.Variety = ast.VarietyElement
		case "Var":
			n.Variety = ast.VarietyVar
		default:
			p.errorf(atTok.Pos, diag.CodeUnexpectedToken, "unexpected type tag @%s after %s", atTok.Lexeme[1:], kind)
		}
	}
	nameTok, _ := p.expect(token.Ident)
	n.Name = nameTok.Lexeme

	if _, ok := p.expect(token.LBrace); !ok {
		return n
	}
	p.sm.EnterBrace()
	frameKind := state.InTemplate
	if kind == ast.KindCustom {
		frameKind = state.InCustom
	}
	release, err := p.sm.Push(state.Frame{Kind: frameKind, Name: n.Name, TypeTag: atTok.Lexeme[1:]})
	if err != nil {
		p.errorf(start, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()
	defer p.sm.ExitBrace()

	for {
		p.skipNewlines()
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		item := p.parseTemplateBodyItem(n)
		if item != nil {
			if item.Kind == ast.KindInherit {
				n.Parents = append(n.Parents, item)
			} else {
				n.AddChild(item)
			}
		} else {
			p.synchronize()
		}
	}
	p.expect(token.RBrace)
	return n
}

// parseTemplateBodyItem dispatches according to the declared Variety:
// a Style/Var template body is a sequence of properties, a Style
// template body may also hold nested rules, and an Element template
// body is a sequence of ordinary element-body items.
func (p *Parser) parseTemplateBodyItem(owner *ast.Node) *ast.Node {
	switch owner.Variety {
	case ast.VarietyStyle:
		return p.parseStyleItem()
	case ast.VarietyVar:
		return p.parseVarEntry()
	default:
		return p.parseElementBodyItem(owner)
	}
}

// parseVarEntry handles one `name: value;` pair inside an `@Var`
// template/custom body.
func (p *Parser) parseVarEntry() *ast.Node {
	t := p.peek()
	if t.Kind == token.Ident && t.Lexeme == "inherit" {
		return p.parseInherit()
	}
	if t.Kind == token.Ident && t.Lexeme == "delete" {
		return p.parseDelete()
	}
	nameTok, _ := p.expect(token.Ident)
	p.expect(token.Colon)
	value := p.parseStyleValue()
	p.acceptSemi()
	n := ast.New(ast.KindAttribute, nameTok.Pos)
	n.Name = nameTok.Lexeme
	n.Content = value
	return n
}

// parseInherit handles `inherit @Tag Name;`: legal only
// inside a template/custom body, enforced by state.CanUseInherit.
func (p *Parser) parseInherit() *ast.Node {
	start := p.peek().Pos
	p.advance() // 'inherit'
	if !p.sm.CanUseInherit() {
		p.errorf(start, diag.CodeIllegalTransition, "'inherit' is only legal inside a template or custom body")
	}
	atTok, _ := p.expect(token.At)
	nameTok, _ := p.expect(token.Ident)
	p.acceptSemi()
	n := ast.New(ast.KindInherit, start)
	if len(atTok.Lexeme) > 1 {
		n.InheritTag = atTok.Lexeme[1:]
	}
	n.InheritName = nameTok.Lexeme
	return n
}

// parseDelete handles `delete prop1, prop2;`, `delete @Style Name;`,
// `delete Element[0];`: legal inside elements and
// template/custom bodies, enforced by state.CanUseDelete.
func (p *Parser) parseDelete() *ast.Node {
	start := p.peek().Pos
	p.advance() // 'delete'
	if !p.sm.CanUseDelete() {
		p.errorf(start, diag.CodeIllegalTransition, "'delete' is not legal here")
	}
	n := ast.New(ast.KindDelete, start)

	if p.peek().Kind == token.At {
		atTok := p.advance()
		nameTok, _ := p.expect(token.Ident)
		n.InheritTag = atTok.Lexeme[1:]
		// `delete @Style Name;`/`delete @Var Name;`/`delete @Element Name;`
		// all remove an inherited parent by name, regardless of the
		// parent's own variety; excludedParents only distinguishes by
		// DeleteTargets, so every tagged form is DeleteInheritance.
		n.DeleteTargetKind = ast.DeleteInheritance
		n.DeleteTargets = append(n.DeleteTargets, nameTok.Lexeme)
		if p.peek().Kind == token.LBracket {
			p.advance()
			p.sm.EnterBracket()
			idxTok, _ := p.expect(token.Number)
			p.expect(token.RBracket)
			p.sm.ExitBracket()
			idx := 0
			for _, c := range idxTok.Lexeme {
				idx = idx*10 + int(c-'0')
			}
			n.DeleteHasIndex = true
			n.DeleteIndex = idx
		}
		p.acceptSemi()
		return n
	}

	if p.peek().Kind == token.Ident && p.peekAt(1).Kind == token.LBracket {
		nameTok := p.advance()
		p.advance() // '['
		p.sm.EnterBracket()
		idxTok, _ := p.expect(token.Number)
		p.expect(token.RBracket)
		p.sm.ExitBracket()
		idx := 0
		for _, c := range idxTok.Lexeme {
			idx = idx*10 + int(c-'0')
		}
		n.DeleteTargetKind = ast.DeleteElement
		n.DeleteTargets = []string{nameTok.Lexeme}
		n.DeleteHasIndex = true
		n.DeleteIndex = idx
		p.acceptSemi()
		return n
	}

	n.DeleteTargetKind = ast.DeleteProperty
	for {
		nameTok, ok := p.expect(token.Ident)
		if !ok {
			break
		}
		n.DeleteTargets = append(n.DeleteTargets, nameTok.Lexeme)
		if p.peek().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	p.acceptSemi()
	return n
}

// parseInsert handles `insert after <selector> { ... }` and the other
// four structural positions: legal only when specializing
// a Custom, enforced by state.CanUseSpecialization via the enclosing
// InSpecialization/InCustom frame.
func (p *Parser) parseInsert() *ast.Node {
	start := p.peek().Pos
	p.advance() // 'insert'
	if !p.sm.CanUseSpecialization() {
		p.errorf(start, diag.CodeIllegalTransition, "'insert' is only legal inside a custom body")
	}
	n := ast.New(ast.KindInsert, start)

	posTok := p.peek()
	switch {
	case posTok.Kind == token.Ident && posTok.Lexeme == "after":
		p.advance()
		n.InsertPos = ast.InsertAfter
	case posTok.Kind == token.Ident && posTok.Lexeme == "before":
		p.advance()
		n.InsertPos = ast.InsertBefore
	case posTok.Kind == token.Ident && posTok.Lexeme == "replace":
		p.advance()
		n.InsertPos = ast.InsertReplace
	case posTok.Kind == token.Ident && posTok.Lexeme == "at":
		p.advance()
		second := p.peek()
		if second.Kind == token.Ident && second.Lexeme == "top" {
			p.advance()
			n.InsertPos = ast.InsertAtTop
		} else if second.Kind == token.Ident && second.Lexeme == "bottom" {
			p.advance()
			n.InsertPos = ast.InsertAtBottom
		} else {
			p.errorf(second.Pos, diag.CodeUnexpectedToken, "expected 'top' or 'bottom' after 'at'")
		}
	default:
		p.errorf(posTok.Pos, diag.CodeUnexpectedToken, "expected after/before/replace/at top/at bottom after 'insert'")
	}

	if n.InsertPos == ast.InsertAfter || n.InsertPos == ast.InsertBefore || n.InsertPos == ast.InsertReplace {
		selTok, _ := p.expect(token.Ident)
		n.TargetSelector = selTok.Lexeme
		if p.peek().Kind == token.LBracket {
			p.advance()
			p.sm.EnterBracket()
			idxTok, _ := p.expect(token.Number)
			p.expect(token.RBracket)
			p.sm.ExitBracket()
			idx := 0
			for _, c := range idxTok.Lexeme {
				idx = idx*10 + int(c-'0')
			}
			n.TargetHasIndex = true
			n.TargetIndex = idx
		}
	}

	release, err := p.sm.Push(state.Frame{Kind: state.InInsertStatement})
	if err != nil {
		p.errorf(start, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()

	if p.peek().Kind == token.LBrace {
		p.advance()
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
	}
	return n
}

// parseExcept handles `except Tag, @Tag Name;`: a disallow rule scoped to the enclosing element/namespace.
// Bracketed targets such as `[Template]` are reported as unexpected tokens.
func (p *Parser) parseExcept() *ast.Node {
	start := p.peek().Pos
	p.advance() // 'except'
	n := ast.New(ast.KindExcept, start)
	release, _ := p.sm.Push(state.Frame{Kind: state.InExceptStatement})
	defer release()

	for {
		t := p.peek()
		switch t.Kind {
		case token.At:
			p.advance()
			nameTok, _ := p.expect(token.Ident)
			n.ExceptTargets = append(n.ExceptTargets, t.Lexeme+" "+nameTok.Lexeme)
		case token.Ident:
			p.advance()
			n.ExceptTargets = append(n.ExceptTargets, t.Lexeme)
		default:
			p.errorf(t.Pos, diag.CodeUnexpectedToken, "expected a name or @Tag Name after 'except'")
		}
		if p.peek().Kind == token.Comma {
			p.advance()
			continue
		}
		break
	}
	p.acceptSemi()
	return n
}

// parseOrigin handles `[Origin] @Html/@Style/@JavaScript/@Name [Name] {
// raw text }`: the body is copied through byte-for-byte,
// so it is scanned directly off the lexer's underlying source rather
// than reconstructed from tokens, preserving whitespace exactly.
func (p *Parser) parseOrigin() *ast.Node {
	start := p.peek().Pos
	p.advance() // [Origin]
	n := ast.New(ast.KindOrigin, start)

	atTok, ok := p.expect(token.At)
	if ok {
		n.OriginType = atTok.Lexeme[1:]
	}
	if p.peek().Kind == token.Ident {
		nameTok := p.advance()
		n.Alias = nameTok.Lexeme
		n.Name = nameTok.Lexeme
	}

	if _, ok := p.expect(token.LBrace); !ok {
		return n
	}
	release, err := p.sm.Push(state.Frame{Kind: state.InOrigin})
	if err != nil {
		p.errorf(start, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()

	depth := 1
	var out []byte
	for depth > 0 {
		t := p.peek()
		if t.Kind == token.EOF {
			p.errorf(t.Pos, diag.CodeUnbalancedBraces, "unterminated origin block")
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
