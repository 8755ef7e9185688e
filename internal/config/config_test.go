package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/token"
)

func newConfigNode() *ast.Node {
	n := ast.New(ast.KindConfiguration, token.Position{Line: 1, Column: 1})
	n.Options = make(map[string]string)
	n.NameRemap = make(map[string][]string)
	n.OriginTypeMap = make(map[string]string)
	n.IsDefault = true
	return n
}

func TestApplyDefaultsWhenNoOptionsGiven(t *testing.T) {
	n := newConfigNode()
	bag := diag.New()
	resolved := Apply(n, bag, "a.chtl")
	require.False(t, bag.HasErrors(), bag.Items())
	assert.Equal(t, DefaultOptions(), resolved.Options)
}

func TestApplyParsesEnumeratedOptions(t *testing.T) {
	n := newConfigNode()
	n.Options["INDEX_INITIAL_COUNT"] = "1"
	n.Options["DEBUG_MODE"] = "true"
	n.Options["DISABLE_STYLE_AUTO_ADD_CLASS"] = "on"
	bag := diag.New()
	resolved := Apply(n, bag, "a.chtl")
	require.False(t, bag.HasErrors(), bag.Items())
	assert.Equal(t, 1, resolved.Options.IndexInitialCount)
	assert.True(t, resolved.Options.DebugMode)
	assert.True(t, resolved.Options.DisableStyleAutoAddClass)
}

func TestApplyRejectsUnknownOption(t *testing.T) {
	n := newConfigNode()
	n.Options["NOT_A_REAL_OPTION"] = "1"
	bag := diag.New()
	Apply(n, bag, "a.chtl")
	require.True(t, bag.HasErrors())
	assert.Equal(t, diag.CodeInvalidOption, bag.Items()[0].Code)
}

func TestApplyRejectsNonIntegerIndexInitialCount(t *testing.T) {
	n := newConfigNode()
	n.Options["INDEX_INITIAL_COUNT"] = "nope"
	bag := diag.New()
	Apply(n, bag, "a.chtl")
	require.True(t, bag.HasErrors())
	assert.Equal(t, diag.CodeInvalidOption, bag.Items()[0].Code)
}

func TestApplyRemapsTypeTagSpelling(t *testing.T) {
	n := newConfigNode()
	n.NameRemap["CUSTOM_STYLE"] = []string{"style", "CSS"}
	bag := diag.New()
	resolved := Apply(n, bag, "a.chtl")
	require.False(t, bag.HasErrors(), bag.Items())

	tag, ok := resolved.Keywords.LookupTag("style")
	require.True(t, ok)
	assert.Equal(t, token.TagStyle, tag)
	tag, ok = resolved.Keywords.LookupTag("CSS")
	require.True(t, ok)
	assert.Equal(t, token.TagStyle, tag)

	// The builtin spelling must still resolve; a remap only widens the
	// accepted set, it never narrows it.
	tag, ok = resolved.Keywords.LookupTag("Style")
	require.True(t, ok)
	assert.Equal(t, token.TagStyle, tag)
}

func TestApplyRemapsDeclSpelling(t *testing.T) {
	n := newConfigNode()
	n.NameRemap["TEMPLATE"] = []string{"Blueprint"}
	bag := diag.New()
	resolved := Apply(n, bag, "a.chtl")
	require.False(t, bag.HasErrors(), bag.Items())

	k, ok := resolved.Keywords.LookupDecl("Blueprint")
	require.True(t, ok)
	assert.Equal(t, token.DeclTemplate, k)
}

func TestApplyRemapsBarewordKeywordToCanonicalSpelling(t *testing.T) {
	n := newConfigNode()
	n.NameRemap["INHERIT"] = []string{"extends"}
	bag := diag.New()
	resolved := Apply(n, bag, "a.chtl")
	require.False(t, bag.HasErrors(), bag.Items())

	// The canonical value stored in Words must be the lowercase builtin
	// bareword the lexer/parser dispatch on ("inherit"), not the
	// uppercase [Name] block key ("INHERIT").
	assert.Equal(t, "inherit", resolved.Keywords.Words["extends"])
	assert.Equal(t, "inherit", resolved.Keywords.Words["inherit"])
}

func TestApplyRegistersOriginTypesUnlessDisabled(t *testing.T) {
	n := newConfigNode()
	n.OriginTypeMap["Vue"] = "Vue"
	bag := diag.New()
	resolved := Apply(n, bag, "a.chtl")
	require.False(t, bag.HasErrors(), bag.Items())
	assert.True(t, resolved.Keywords.IsOriginType("Vue"))

	n2 := newConfigNode()
	n2.Options["DISABLE_CUSTOM_ORIGIN_TYPE"] = "true"
	n2.OriginTypeMap["Vue"] = "Vue"
	resolved2 := Apply(n2, diag.New(), "a.chtl")
	assert.False(t, resolved2.Keywords.IsOriginType("Vue"))
}

func TestSelectDefaultPicksSoleAnonymous(t *testing.T) {
	anon := newConfigNode()
	named := newConfigNode()
	named.IsDefault = false
	named.ConfigName = "Other"

	bag := diag.New()
	got := SelectDefault(map[string]*ast.Node{"": anon, "Other": named}, bag)
	require.False(t, bag.HasErrors(), bag.Items())
	assert.Same(t, anon, got)
}

func TestSelectDefaultReturnsNilWhenNoneAnonymous(t *testing.T) {
	named := newConfigNode()
	named.IsDefault = false
	named.ConfigName = "Only"

	bag := diag.New()
	got := SelectDefault(map[string]*ast.Node{"Only": named}, bag)
	require.False(t, bag.HasErrors(), bag.Items())
	assert.Nil(t, got)
}
