package parser

import (
	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/state"
	"github.com/Yhlight/chtl/internal/token"
)

// parseConfiguration handles `[Configuration] [@Config Name] { options;
// [Name]{...} [OriginType]{...} }`. The first unnamed
// configuration encountered in a compile becomes the active default;
// internal/config enforces the "two anonymous configurations is an
// error" rule once all files are collected, since that check spans
// files the parser never sees together.
func (p *Parser) parseConfiguration() *ast.Node {
	start := p.peek().Pos
	p.advance() // [Configuration]
	n := ast.New(ast.KindConfiguration, start)
	n.Options = make(map[string]string)
	n.NameRemap = make(map[string][]string)
	n.OriginTypeMap = make(map[string]string)
	n.IsDefault = true

	if p.peek().Kind == token.At {
		p.advance()
		nameTok, _ := p.expect(token.Ident)
		n.ConfigName = nameTok.Lexeme
		n.IsDefault = false
	}

	if _, ok := p.expect(token.LBrace); !ok {
		return n
	}
	release, err := p.sm.Push(state.Frame{Kind: state.InConfiguration})
	if err != nil {
		p.errorf(start, diag.CodeIllegalTransition, "%s", err)
	}
	defer release()

	for {
		p.skipComments()
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		switch {
		case t.Kind == token.Decl:
			spelling := t.Lexeme[1 : len(t.Lexeme)-1]
			switch spelling {
			case "Name":
				p.parseConfigNameBlock(n)
			case "OriginType":
				p.parseConfigOriginTypeBlock(n)
			case "Export":
				p.parseConfigExportBlock(n)
			default:
				p.advance()
				p.errorf(t.Pos, diag.CodeInvalidOption, "unexpected block [%s] inside [Configuration]", spelling)
			}
		case t.Kind == token.Ident:
			p.parseConfigOption(n)
		default:
			p.errorf(t.Pos, diag.CodeUnexpectedToken, "unexpected token %s in configuration body", t.Kind)
			p.advance()
		}
	}
	p.expect(token.RBrace)
	return n
}

// parseConfigOption handles one `OPTION_NAME = value;` pair. Unknown option names are
// recorded verbatim; internal/config validates the name set.
func (p *Parser) parseConfigOption(n *ast.Node) {
	nameTok, _ := p.expect(token.Ident)
	if p.peek().Kind == token.Colon {
		p.advance()
	} else if p.peek().Lexeme == "=" {
		p.advance()
	}
	valTok := p.peek()
	value := ""
	switch valTok.Kind {
	case token.String, token.Unquoted, token.Number, token.Ident:
		p.advance()
		value = valTok.Lexeme
	default:
		p.errorf(valTok.Pos, diag.CodeInvalidOption, "expected a value for option %q", nameTok.Lexeme)
	}
	n.Options[nameTok.Lexeme] = value
	p.acceptSemi()
}

// parseConfigNameBlock handles `[Name] { Keyword = spelling1, spelling2; ... }`
// building the per-keyword accepted-spelling lists a Configuration layers
// onto a cloned token.KeywordTable.
func (p *Parser) parseConfigNameBlock(n *ast.Node) {
	p.advance() // [Name]
	if _, ok := p.expect(token.LBrace); !ok {
		return
	}
	for {
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		keyTok, ok := p.expect(token.Ident)
		if !ok {
			p.advance()
			continue
		}
		if p.peek().Kind == token.Colon || p.peek().Lexeme == "=" {
			p.advance()
		}
		var spellings []string
		for {
			vt := p.peek()
			if vt.Kind != token.Ident && vt.Kind != token.String && vt.Kind != token.Unquoted {
				break
			}
			p.advance()
			spellings = append(spellings, vt.Lexeme)
			if p.peek().Kind == token.Comma {
				p.advance()
				continue
			}
			break
		}
		n.NameRemap[keyTok.Lexeme] = spellings
		p.acceptSemi()
	}
	p.expect(token.RBrace)
}

// parseConfigOriginTypeBlock handles `[OriginType] { Name = @Tag; ... }`
// registering user-declared origin type names.
func (p *Parser) parseConfigOriginTypeBlock(n *ast.Node) {
	p.advance() // [OriginType]
	if _, ok := p.expect(token.LBrace); !ok {
		return
	}
	for {
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		nameTok, ok := p.expect(token.Ident)
		if !ok {
			p.advance()
			continue
		}
		if p.peek().Kind == token.Colon || p.peek().Lexeme == "=" {
			p.advance()
		}
		tagTok := p.peek()
		tag := tagTok.Lexeme
		if tagTok.Kind == token.At {
			p.advance()
			tag = tagTok.Lexeme[1:]
		} else {
			p.advance()
		}
		n.OriginTypeMap[nameTok.Lexeme] = tag
		p.acceptSemi()
	}
	p.expect(token.RBrace)
}

// parseConfigExportBlock handles `[Export] { ... }`, an optional section
// naming which symbols a Configuration-carrying module re-exports under
// its own name. Collected as a raw name list under NameRemap["__export"];
// config.Apply skips that key, and nothing else reads it.
func (p *Parser) parseConfigExportBlock(n *ast.Node) {
	p.advance() // [Export]
	if _, ok := p.expect(token.LBrace); !ok {
		return
	}
	var exported []string
	for {
		t := p.peek()
		if t.Kind == token.RBrace || t.Kind == token.EOF {
			break
		}
		if t.Kind == token.Ident {
			p.advance()
			exported = append(exported, t.Lexeme)
			if p.peek().Kind == token.Comma {
				p.advance()
			}
			continue
		}
		p.advance()
	}
	n.NameRemap["__export"] = exported
	p.expect(token.RBrace)
}
