package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/token"
)

var pos = token.Position{Line: 1, Column: 1}

func TestCheckFlagsElementNameExcludedInScope(t *testing.T) {
	root := ast.New(ast.KindFile, pos)
	div := ast.New(ast.KindElement, pos)
	div.Tag = "div"
	root.AddChild(div)
	except := ast.New(ast.KindExcept, pos)
	except.ExceptTargets = []string{"span"}
	div.AddChild(except)
	span := ast.New(ast.KindElement, pos)
	span.Tag = "span"
	div.AddChild(span)

	e := NewEngine()
	bag := diag.New()
	e.Collect(root, bag)
	e.Check(root, "a.chtl", bag)

	require.True(t, bag.HasErrors())
	assert.Equal(t, diag.CodeConstraintViolation, bag.Items()[0].Code)
}

func TestCheckRuleDoesNotApplyOutsideScope(t *testing.T) {
	root := ast.New(ast.KindFile, pos)
	div := ast.New(ast.KindElement, pos)
	div.Tag = "div"
	root.AddChild(div)
	except := ast.New(ast.KindExcept, pos)
	except.ExceptTargets = []string{"span"}
	div.AddChild(except)

	sibling := ast.New(ast.KindElement, pos)
	sibling.Tag = "section"
	root.AddChild(sibling)
	span := ast.New(ast.KindElement, pos)
	span.Tag = "span"
	sibling.AddChild(span)

	e := NewEngine()
	bag := diag.New()
	e.Collect(root, bag)
	e.Check(root, "a.chtl", bag)
	assert.False(t, bag.HasErrors())
}

func TestCheckPreciseSymbolTarget(t *testing.T) {
	root := ast.New(ast.KindFile, pos)
	except := ast.New(ast.KindExcept, pos)
	except.ExceptTargets = []string{"[Custom] @Style Base"}
	root.AddChild(except)

	custom := ast.New(ast.KindCustom, pos)
	custom.Variety = ast.VarietyStyle
	custom.Name = "Base"
	root.AddChild(custom)

	e := NewEngine()
	bag := diag.New()
	e.Collect(root, bag)
	e.Check(root, "a.chtl", bag)
	require.True(t, bag.HasErrors())
	assert.Equal(t, diag.CodeConstraintViolation, bag.Items()[0].Code)
}

func TestCheckTypeTargetMatchesOriginKind(t *testing.T) {
	root := ast.New(ast.KindFile, pos)
	except := ast.New(ast.KindExcept, pos)
	except.ExceptTargets = []string{"@Html"}
	root.AddChild(except)

	origin := ast.New(ast.KindOrigin, pos)
	origin.OriginType = "Html"
	root.AddChild(origin)

	e := NewEngine()
	bag := diag.New()
	e.Collect(root, bag)
	e.Check(root, "a.chtl", bag)
	require.True(t, bag.HasErrors())
}
