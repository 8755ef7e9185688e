// Package token defines the lexical tokens produced by the CHTL lexer and
// the keyword/type-tag tables a Configuration can remap at compile time.
package token

import "fmt"

// Position is a (line, column, byte-offset) triple stamped on every token
// and, later, every AST node. An in-order traversal of a tree whose nodes
// were never synthesized during resolution yields non-decreasing offsets.
type Position struct {
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Kind tags the lexical category of a Token.
type Kind int

const (
	Illegal Kind = iota
	EOF

	// Structural punctuation.
	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
	LParen   // (
	RParen   // )
	Colon    // :
	Semi     // ;
	Comma    // ,
	Dot      // .
	Amp      // &
	Arrow    // ->

	At   // @Name tag, lexeme includes the '@'
	Decl // [Keyword] declaration tag, lexeme is the bracketed spelling, e.g. "[Template]"

	String   // "..." or '...'
	Unquoted // bare literal: leading '-' permitted, then alnum/-/_
	Number   // integer or one-dot decimal
	Ident    // HTML tag name or user identifier
	ClassSel // .name
	IDSel    // #name

	LineComment // //...
	BlockComment
	GeneratorComment // -- ... to end of line; the only comment kind that reaches the AST

	Newline // only emitted while the parser is inside a CSS-like block
)

var kindNames = map[Kind]string{
	Illegal:          "ILLEGAL",
	EOF:              "EOF",
	LBrace:           "{",
	RBrace:           "}",
	LBracket:         "[",
	RBracket:         "]",
	LParen:           "(",
	RParen:           ")",
	Colon:            ":",
	Semi:             ";",
	Comma:            ",",
	Dot:              ".",
	Amp:              "&",
	Arrow:            "->",
	At:               "AT_TAG",
	Decl:             "DECL",
	String:           "STRING",
	Unquoted:         "UNQUOTED",
	Number:           "NUMBER",
	Ident:            "IDENT",
	ClassSel:         "CLASS_SEL",
	IDSel:            "ID_SEL",
	LineComment:      "LINE_COMMENT",
	BlockComment:     "BLOCK_COMMENT",
	GeneratorComment: "GENERATOR_COMMENT",
	Newline:          "NEWLINE",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// Token is the tagged value the lexer yields.
type Token struct {
	Kind    Kind
	Lexeme  string
	Pos     Position
	Message string // set on Illegal tokens: a human-readable diagnostic
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%s", t.Kind, t.Lexeme, t.Pos)
}

// DeclKind enumerates the bracketed top-level declaration keywords, e.g.
// "[Template]". The lexeme recognized for each is resolved through the
// active KeywordTable before falling back to these canonical spellings.
type DeclKind int

const (
	DeclNone DeclKind = iota
	DeclTemplate
	DeclCustom
	DeclOrigin
	DeclImport
	DeclConfiguration
	DeclNamespace
	DeclName
	DeclOriginType
	DeclInfo
	DeclExport
)

var declSpellings = map[DeclKind]string{
	DeclTemplate:      "Template",
	DeclCustom:        "Custom",
	DeclOrigin:        "Origin",
	DeclImport:        "Import",
	DeclConfiguration: "Configuration",
	DeclNamespace:     "Namespace",
	DeclName:          "Name",
	DeclOriginType:    "OriginType",
	DeclInfo:          "Info",
	DeclExport:        "Export",
}

// TypeTag enumerates the built-in '@'-prefixed type tags. User-declared
// origin types (via [OriginType]) are carried as plain strings, not as
// TypeTag values, since their set is only known after a Configuration is
// active.
type TypeTag int

const (
	TagNone TypeTag = iota
	TagStyle
	TagElement
	TagVar
	TagHTML
	TagJavaScript
	TagChtl
	TagCJmod
	TagConfig
)

var tagSpellings = map[TypeTag]string{
	TagStyle:      "Style",
	TagElement:    "Element",
	TagVar:        "Var",
	TagHTML:       "Html",
	TagJavaScript: "JavaScript",
	TagChtl:       "Chtl",
	TagCJmod:      "CJmod",
	TagConfig:     "Config",
}

// KeywordTable maps recognized spellings to their canonical keyword,
// declaration, or type-tag identity. It starts from BuiltinKeywordTable()
// and is widened by a Configuration's [Name] and [OriginType]
// blocks; the lexer is handed a *KeywordTable by reference so that
// remapping never mutates a shared, compile-time-constant table.
type KeywordTable struct {
	// Bareword keywords, e.g. "inherit", "delete", "insert", "except", "use", "from", "as".
	Words map[string]string

	// Declaration spellings, e.g. "Template" -> DeclTemplate. Multiple
	// spellings may map to the same DeclKind when [Name] remaps one.
	Decls map[string]DeclKind

	// Type-tag spellings, e.g. "Style" -> TagStyle (matched after the '@').
	Tags map[string]TypeTag

	// User-declared origin types registered via [OriginType], e.g. "Vue".
	// These are the only legal spellings for [Origin] @<Name> beyond the
	// built-in TypeTag set.
	OriginTypes map[string]bool
}

// Builtin bareword keywords recognized with no Configuration active.
var builtinWords = []string{
	"inherit", "delete", "insert", "except", "use", "from", "as",
	"after", "before", "replace", "at", "top", "bottom", "html5",
}

// BuiltinKeywordTable returns a fresh table seeded with the language's
// built-in spellings and no user origin types. config.Apply layers
// [Name]/[OriginType] remaps on top of a fresh table from this function.
func BuiltinKeywordTable() *KeywordTable {
	kt := &KeywordTable{
		Words:       make(map[string]string, len(builtinWords)),
		Decls:       make(map[string]DeclKind, len(declSpellings)),
		Tags:        make(map[string]TypeTag, len(tagSpellings)),
		OriginTypes: make(map[string]bool),
	}
	for _, w := range builtinWords {
		kt.Words[w] = w
	}
	for k, spelling := range declSpellings {
		kt.Decls[spelling] = k
	}
	for t, spelling := range tagSpellings {
		kt.Tags[spelling] = t
	}
	return kt
}

// Clone returns a deep copy so a Configuration's remaps never mutate a
// table another Configuration (or the builtin default) is still using.
func (kt *KeywordTable) Clone() *KeywordTable {
	out := &KeywordTable{
		Words:       make(map[string]string, len(kt.Words)),
		Decls:       make(map[string]DeclKind, len(kt.Decls)),
		Tags:        make(map[string]TypeTag, len(kt.Tags)),
		OriginTypes: make(map[string]bool, len(kt.OriginTypes)),
	}
	for k, v := range kt.Words {
		out.Words[k] = v
	}
	for k, v := range kt.Decls {
		out.Decls[k] = v
	}
	for k, v := range kt.Tags {
		out.Tags[k] = v
	}
	for k, v := range kt.OriginTypes {
		out.OriginTypes[k] = v
	}
	return out
}

// LookupDecl resolves a bracketed declaration spelling, e.g. "Template",
// to its DeclKind using this table.
func (kt *KeywordTable) LookupDecl(spelling string) (DeclKind, bool) {
	k, ok := kt.Decls[spelling]
	return k, ok
}

// LookupTag resolves an '@'-tag spelling (without the '@') to its TypeTag.
// Unknown spellings are not an error here: the lexer falls back to a
// generic identifier, and the parser/constraint engine decide whether an
// unrecognized tag is legal (e.g. a user origin type).
func (kt *KeywordTable) LookupTag(spelling string) (TypeTag, bool) {
	t, ok := kt.Tags[spelling]
	return t, ok
}

// IsOriginType reports whether spelling was registered via [OriginType].
func (kt *KeywordTable) IsOriginType(spelling string) bool {
	return kt.OriginTypes[spelling]
}

// DeclSpelling returns the canonical (pre-remap) spelling for a DeclKind,
// used for diagnostics when a Configuration is not available.
func DeclSpelling(k DeclKind) string { return declSpellings[k] }

// TagSpelling returns the canonical (pre-remap) spelling for a TypeTag.
func TagSpelling(t TypeTag) string { return tagSpellings[t] }
