package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/token"
)

var pos = token.Position{Line: 1, Column: 1}

func styleRule(name string) *ast.Node {
	n := ast.New(ast.KindStyleRule, pos)
	n.Name = name
	return n
}

func TestAutomateAddsPrimaryClassAndRewritesAmpersand(t *testing.T) {
	div := ast.New(ast.KindElement, pos)
	div.Tag = "div"
	style := ast.New(ast.KindStyle, pos)
	div.AddChild(style)
	style.AddChild(styleRule(".box"))
	style.AddChild(styleRule("&:hover"))

	Automate(div, DefaultOptions())

	assert.True(t, div.HasClass("box"))
	var hover *ast.Node
	for _, c := range style.Children {
		if c.Name != ".box" {
			hover = c
		}
	}
	require.NotNil(t, hover)
	assert.Equal(t, ".box:hover", hover.Name)
}

func TestAutomateDisabledLeavesClassUnset(t *testing.T) {
	div := ast.New(ast.KindElement, pos)
	div.Tag = "div"
	style := ast.New(ast.KindStyle, pos)
	div.AddChild(style)
	style.AddChild(styleRule(".box"))

	Automate(div, Options{DisableStyleAutoAddClass: true})
	assert.False(t, div.HasClass("box"))
}

func TestAutomatePrimaryIDUsedWhenNoClass(t *testing.T) {
	div := ast.New(ast.KindElement, pos)
	div.Tag = "div"
	style := ast.New(ast.KindStyle, pos)
	div.AddChild(style)
	style.AddChild(styleRule("#main"))
	style.AddChild(styleRule("&.active"))

	Automate(div, DefaultOptions())
	assert.Equal(t, "main", div.ID)

	var rewritten *ast.Node
	for _, c := range style.Children {
		if c.Name != "#main" {
			rewritten = c
		}
	}
	require.NotNil(t, rewritten)
	assert.Equal(t, "#main.active", rewritten.Name)
}

func TestComputeSpecificity(t *testing.T) {
	assert.Equal(t, Specificity{0, 1, 1, 1}, Compute("#main .box div"))
	assert.Equal(t, Specificity{0, 0, 0, 2}, Compute("div span"))
}

func TestSpecificityLessComparesMostSignificantFirst(t *testing.T) {
	low := Specificity{0, 0, 1, 0}
	high := Specificity{0, 1, 0, 0}
	assert.True(t, low.Less(high))
	assert.False(t, high.Less(low))
}
