package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yhlight/chtl/internal/token"
)

var pos = token.Position{Line: 1, Column: 1}

func TestAddChildSetsParent(t *testing.T) {
	root := New(KindElement, pos)
	child := New(KindElement, pos)
	root.AddChild(child)
	assert.Same(t, root, child.Parent)
	require.Len(t, root.Children, 1)
	assert.Same(t, child, root.Children[0])
}

func TestSetAttributePreservesOrderAndSyncsClassID(t *testing.T) {
	n := New(KindElement, pos)
	n.SetAttribute("id", "main")
	n.SetAttribute("class", "a b")
	n.SetAttribute("id", "main2")
	assert.Equal(t, []string{"id", "class"}, n.AttrOrder)
	assert.Equal(t, "main2", n.ID)
	assert.Equal(t, []string{"a", "b"}, n.Classes)
}

func TestAddClassIsIdempotentAndSyncsAttribute(t *testing.T) {
	n := New(KindElement, pos)
	n.AddClass("box")
	n.AddClass("box")
	n.AddClass("alt")
	assert.Equal(t, []string{"box", "alt"}, n.Classes)
	assert.Equal(t, "box alt", n.Attributes["class"])
}

func TestWalkVisitsPreOrderAndRespectsFalseReturn(t *testing.T) {
	root := New(KindElement, pos)
	a := New(KindElement, pos)
	a.Name = "a"
	b := New(KindElement, pos)
	b.Name = "b"
	root.AddChild(a)
	root.AddChild(b)
	aChild := New(KindText, pos)
	a.AddChild(aChild)

	var seen []Kind
	Walk(root, func(n *Node) bool {
		seen = append(seen, n.Kind)
		return n.Name != "a"
	})
	assert.Equal(t, []Kind{KindElement, KindElement, KindElement}, seen)
}

func TestCloneDeepCopiesChildrenAndSideSlices(t *testing.T) {
	root := New(KindTemplate, pos)
	root.Variety = VarietyStyle
	root.DeleteTargets = []string{"color"}
	child := New(KindAttribute, pos)
	child.Name = "color"
	child.Content = "red"
	root.AddChild(child)
	parentRef := New(KindInherit, pos)
	parentRef.InheritName = "Base"
	root.Parents = append(root.Parents, parentRef)

	cp := root.Clone()
	require.Len(t, cp.Children, 1)
	assert.NotSame(t, root.Children[0], cp.Children[0])
	assert.Equal(t, root.Children[0].Content, cp.Children[0].Content)
	assert.Same(t, cp, cp.Children[0].Parent)
	assert.Nil(t, cp.Parent)

	require.Len(t, cp.Parents, 1)
	assert.NotSame(t, root.Parents[0], cp.Parents[0])
	assert.Equal(t, "Base", cp.Parents[0].InheritName)

	cp.DeleteTargets[0] = "mutated"
	assert.Equal(t, "color", root.DeleteTargets[0])
}

func TestEnclosingNamespaceAndElement(t *testing.T) {
	ns := New(KindNamespace, pos)
	div := New(KindElement, pos)
	ns.AddChild(div)
	style := New(KindStyle, pos)
	div.AddChild(style)
	attr := New(KindAttribute, pos)
	style.AddChild(attr)

	assert.Same(t, ns, attr.EnclosingNamespace())
	assert.Same(t, div, attr.EnclosingElement())
	assert.Nil(t, ns.EnclosingNamespace())
}

func TestAncestorsReturnsChainToRoot(t *testing.T) {
	root := New(KindElement, pos)
	mid := New(KindElement, pos)
	leaf := New(KindElement, pos)
	root.AddChild(mid)
	mid.AddChild(leaf)
	assert.Equal(t, []*Node{mid, root}, leaf.Ancestors())
}
