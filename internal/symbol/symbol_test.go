package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureNamespaceIdempotentAndMerge(t *testing.T) {
	g := New()

	n1 := g.EnsureNamespace("Utils", false)
	assert.False(t, n1.Implicit)
	assert.False(t, n1.Merged)

	n2 := g.MergeNamespace("Utils")
	assert.Same(t, n1, n2)
	assert.True(t, n2.Merged)

	got, ok := g.Namespace("Utils")
	require.True(t, ok)
	assert.Same(t, n1, got)
}

func TestDeclareReportsDuplicate(t *testing.T) {
	g := New()
	sym1 := &Symbol{Name: "Box", Kind: KindElementTemplate, File: "a.chtl"}
	sym2 := &Symbol{Name: "Box", Kind: KindElementTemplate, File: "b.chtl"}

	_, replaced := g.Declare(sym1)
	assert.False(t, replaced)

	prev, replaced := g.Declare(sym2)
	assert.True(t, replaced)
	assert.Same(t, sym1, prev)

	got, ok := g.Lookup("", KindElementTemplate, "Box")
	require.True(t, ok)
	assert.Same(t, sym2, got)
}

func TestPushLoadingDetectsCycle(t *testing.T) {
	g := New()

	assert.False(t, g.PushLoading("a.chtl"))
	assert.False(t, g.PushLoading("b.chtl"))
	assert.True(t, g.PushLoading("a.chtl"))
	assert.Equal(t, []string{"a.chtl", "b.chtl"}, g.LoadingChain())

	g.PopLoading()
	g.PopLoading()
	assert.Empty(t, g.LoadingChain())
}

func TestLookupAnyNamespaceAmbiguity(t *testing.T) {
	g := New()
	g.Declare(&Symbol{Name: "Pal", Kind: KindVarTemplate, Namespace: "A", File: "a.chtl"})
	g.Declare(&Symbol{Name: "Pal", Kind: KindVarTemplate, Namespace: "B", File: "b.chtl"})

	hits := g.LookupAnyNamespace(KindVarTemplate, "Pal")
	assert.Len(t, hits, 2)
}
