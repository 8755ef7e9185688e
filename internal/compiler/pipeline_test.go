package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/inherit"
	"github.com/Yhlight/chtl/internal/symbol"
)

func findFirst(root *ast.Node, kind ast.Kind) *ast.Node {
	var found *ast.Node
	ast.Walk(root, func(n *ast.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind == kind {
			found = n
			return false
		}
		return true
	})
	return found
}

func TestPipelineElementsAndAttributes(t *testing.T) {
	src := `div { id: main; class: "a b"; text { "hi" } }`
	p := &Pipeline{}
	file, bag, err := p.Run("s1.chtl", src)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), bag.Items())

	div := findFirst(file.Root, ast.KindElement)
	require.NotNil(t, div)
	assert.Equal(t, "div", div.Tag)
	assert.Equal(t, "main", div.ID)
	assert.ElementsMatch(t, []string{"a", "b"}, div.Classes)

	text := findFirst(div, ast.KindText)
	require.NotNil(t, text)
	assert.Equal(t, ast.TextQuoted, text.TextType)
	assert.Equal(t, "hi", text.Content)
}

func TestPipelineTemplateInheritanceAndDelete(t *testing.T) {
	src := `
[Template] @Style Base {
	color: red;
	font-size: 14px;
}
[Custom] @Style Derived {
	inherit @Style Base;
	delete color;
	font-weight: bold;
}
`
	p := &Pipeline{}
	file, bag, err := p.Run("s2.chtl", src)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), bag.Items())

	var derived *ast.Node
	ast.Walk(file.Root, func(n *ast.Node) bool {
		if n.Kind == ast.KindCustom && n.Name == "Derived" {
			derived = n
		}
		return true
	})
	require.NotNil(t, derived)

	eng := inherit.NewEngine(p.g)
	eff := eng.Resolve(derived, bag)
	assert.Equal(t, map[string]string{
		"font-size":   "14px",
		"font-weight": "bold",
	}, eff.Properties)
}

func TestPipelineIndexAccessInsert(t *testing.T) {
	src := `
[Custom] @Element Row {
	div{}
	div{}
	div{}
}
[Custom] @Element Row2 {
	inherit @Element Row;
	insert after div[0] { span{} }
}
`
	p := &Pipeline{}
	file, bag, err := p.Run("s3.chtl", src)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), bag.Items())

	var row2 *ast.Node
	ast.Walk(file.Root, func(n *ast.Node) bool {
		if n.Kind == ast.KindCustom && n.Name == "Row2" {
			row2 = n
		}
		return true
	})
	require.NotNil(t, row2)

	eng := inherit.NewEngine(p.g)
	eff := eng.Resolve(row2, bag)
	require.Len(t, eff.Children, 4)
	tags := make([]string, len(eff.Children))
	for i, c := range eff.Children {
		tags[i] = c.Tag
	}
	assert.Equal(t, []string{"div", "span", "div", "div"}, tags)
}

func TestPipelineNamespaceMergeAcrossFiles(t *testing.T) {
	p := &Pipeline{}

	file1, bag1, err := p.Run("a.chtl", `
[Namespace] Utils {
	[Template] @Var Pal {
		brand: "#1a1a1a";
	}
}
`)
	require.NoError(t, err)
	require.False(t, bag1.HasErrors(), bag1.Items())
	_ = file1

	file2, bag2, err := p.Run("b.chtl", `
[Namespace] Utils {
	[Template] @Var Pal2 {
		brand: "#ffffff";
	}
}
`)
	require.NoError(t, err)
	require.False(t, bag2.HasErrors(), bag2.Items())
	_ = file2

	ns, ok := p.g.Namespace("Utils")
	require.True(t, ok)
	assert.True(t, ns.Merged)

	if _, ok := p.g.Lookup("Utils", symbol.KindVarTemplate, "Pal"); !ok {
		t.Fatalf("expected Utils::Pal to be visible")
	}
	if _, ok := p.g.Lookup("Utils", symbol.KindVarTemplate, "Pal2"); !ok {
		t.Fatalf("expected Utils::Pal2 to be visible")
	}
}

func TestPipelineSelectorAutomation(t *testing.T) {
	src := `
div {
	style {
		.box {
			color: red;
		}
		&:hover {
			color: blue;
		}
	}
}
`
	p := &Pipeline{}
	file, bag, err := p.Run("s6.chtl", src)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), bag.Items())

	div := findFirst(file.Root, ast.KindElement)
	require.NotNil(t, div)
	assert.True(t, div.HasClass("box"))

	style := findFirst(div, ast.KindStyle)
	require.NotNil(t, style)

	var hoverRule *ast.Node
	for _, c := range style.Children {
		if c.Kind == ast.KindStyleRule && c.Name != ".box" {
			hoverRule = c
		}
	}
	require.NotNil(t, hoverRule)
	assert.Equal(t, ".box:hover", hoverRule.Name)
}

func TestPipelineConfigurationNameRemapAppliesToOwnFile(t *testing.T) {
	src := `
[Configuration]
{
	[Name]
	{
		INHERIT = extends;
	}
}
[Template] @Style Base {
	color: red;
}
[Custom] @Style Derived {
	extends @Style Base;
	font-weight: bold;
}
`
	p := &Pipeline{}
	file, bag, err := p.Run("s7.chtl", src)
	require.NoError(t, err)
	require.False(t, bag.HasErrors(), bag.Items())

	derived := findFirst(file.Root, ast.KindCustom)
	require.NotNil(t, derived)
	require.Len(t, derived.Parents, 1)
	assert.Equal(t, "Base", derived.Parents[0].InheritName)

	eng := inherit.NewEngine(p.g)
	eff := eng.Resolve(derived, bag)
	assert.Equal(t, map[string]string{
		"color":       "red",
		"font-weight": "bold",
	}, eff.Properties)
}
