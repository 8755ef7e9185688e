package lexer

import (
	"testing"

	"github.com/Yhlight/chtl/internal/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	kw := token.BuiltinKeywordTable()
	lex := New("test.chtl", src, kw, nil)
	var out []token.Token
	for {
		tok := lex.Advance()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return out
}

func TestScanStringEscapes(t *testing.T) {
	toks := scanAll(t, `"a\nb\tc"`)
	if toks[0].Kind != token.String {
		t.Fatalf("expected String, got %s", toks[0].Kind)
	}
	if toks[0].Lexeme != "a\nb\tc" {
		t.Fatalf("unexpected lexeme %q", toks[0].Lexeme)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	toks := scanAll(t, `"unterminated`)
	if toks[0].Kind != token.Illegal {
		t.Fatalf("expected Illegal, got %s", toks[0].Kind)
	}
}

func TestScanBracketDeclAgainstKeywordTable(t *testing.T) {
	toks := scanAll(t, `[Template] [Bogus]`)
	if toks[0].Kind != token.Decl || toks[0].Lexeme != "[Template]" {
		t.Fatalf("expected Decl [Template], got %v", toks[0])
	}
	if toks[1].Kind != token.Illegal {
		t.Fatalf("expected Illegal for unknown declaration, got %v", toks[1])
	}
}

func TestScanWordRemapCanonicalizesToBuiltinSpelling(t *testing.T) {
	kw := token.BuiltinKeywordTable()
	kw.Words["extends"] = "inherit"
	lex := New("test.chtl", "extends", kw, nil)
	tok := lex.Advance()
	if tok.Kind != token.Ident || tok.Lexeme != "inherit" {
		t.Fatalf("expected remapped word to lex as Ident(%q), got %v", "inherit", tok)
	}
}

func TestScanAtTag(t *testing.T) {
	toks := scanAll(t, `@Style @Element @Unknown`)
	want := []string{"@Style", "@Element", "@Unknown"}
	for i, w := range want {
		if toks[i].Kind != token.At || toks[i].Lexeme != w {
			t.Fatalf("token %d: want At(%q), got %v", i, w, toks[i])
		}
	}
}

func TestScanDotVsClassSelector(t *testing.T) {
	toks := scanAll(t, `.box 3.5`)
	if toks[0].Kind != token.ClassSel || toks[0].Lexeme != "box" {
		t.Fatalf("expected ClassSel(box), got %v", toks[0])
	}
	if toks[1].Kind != token.Number || toks[1].Lexeme != "3.5" {
		t.Fatalf("expected Number(3.5), got %v", toks[1])
	}
}

func TestScanHashSelector(t *testing.T) {
	toks := scanAll(t, `#main`)
	if toks[0].Kind != token.IDSel || toks[0].Lexeme != "main" {
		t.Fatalf("expected IDSel(main), got %v", toks[0])
	}
}

func TestScanComments(t *testing.T) {
	toks := scanAll(t, "// line\n/* block */\n-- generator\n")
	if toks[0].Kind != token.LineComment || toks[0].Lexeme != " line" {
		t.Fatalf("unexpected line comment token %v", toks[0])
	}
	if toks[1].Kind != token.BlockComment || toks[1].Lexeme != " block " {
		t.Fatalf("unexpected block comment token %v", toks[1])
	}
	if toks[2].Kind != token.GeneratorComment || toks[2].Lexeme != "generator" {
		t.Fatalf("unexpected generator comment token %v", toks[2])
	}
}

func TestScanNumberAndUnquoted(t *testing.T) {
	toks := scanAll(t, `42 -3.14 -webkit-flex`)
	if toks[0].Kind != token.Number || toks[0].Lexeme != "42" {
		t.Fatalf("unexpected token 0: %v", toks[0])
	}
	if toks[1].Kind != token.Number || toks[1].Lexeme != "-3.14" {
		t.Fatalf("unexpected token 1: %v", toks[1])
	}
	if toks[2].Kind != token.Unquoted || toks[2].Lexeme != "-webkit-flex" {
		t.Fatalf("unexpected token 2: %v", toks[2])
	}
}

func TestScanWildcardImportPath(t *testing.T) {
	toks := scanAll(t, `a.*.b.**`)
	var lexemes []string
	for _, tok := range toks {
		if tok.Kind == token.EOF {
			break
		}
		lexemes = append(lexemes, tok.Lexeme)
	}
	want := []string{"a", ".", "*", "b", ".", "**"}
	if len(lexemes) != len(want) {
		t.Fatalf("got %v, want %v", lexemes, want)
	}
	for i := range want {
		if lexemes[i] != want[i] {
			t.Fatalf("token %d: got %q want %q", i, lexemes[i], want[i])
		}
	}
}

func TestPeekNMatchesSequentialAdvance(t *testing.T) {
	kw := token.BuiltinKeywordTable()
	lex := New("t.chtl", `div { text { "hi" } }`, kw, nil)
	first := lex.PeekN(0)
	second := lex.PeekN(1)
	if first.Lexeme != "div" {
		t.Fatalf("PeekN(0) = %v", first)
	}
	if second.Kind != token.LBrace {
		t.Fatalf("PeekN(1) = %v", second)
	}
	got := lex.Advance()
	if got.Lexeme != first.Lexeme {
		t.Fatalf("Advance() after PeekN desynced: got %v want %v", got, first)
	}
	got2 := lex.Advance()
	if got2.Kind != second.Kind {
		t.Fatalf("second Advance() desynced: got %v want %v", got2, second)
	}
}

func TestCSSModeEmitsNewline(t *testing.T) {
	inCSS := true
	kw := token.BuiltinKeywordTable()
	lex := New("t.chtl", "a\nb", kw, func() bool { return inCSS })
	toks := []token.Token{lex.Advance(), lex.Advance(), lex.Advance()}
	if toks[1].Kind != token.Newline {
		t.Fatalf("expected Newline token, got %v", toks[1])
	}
}
