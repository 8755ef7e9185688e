package resolve

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yhlight/chtl/internal/ast"
	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/symbol"
	"github.com/Yhlight/chtl/internal/token"
)

func TestClassify(t *testing.T) {
	cases := map[string]PathKind{
		"foo":         KindModuleName,
		"foo.bar":     KindQualified,
		"./foo":       KindRelative,
		"../foo":      KindRelative,
		"/abs/foo":    KindAbsolute,
		"a/*.chtl":    KindWildcard,
		"a/**/*.chtl": KindRecursiveWildcard,
	}
	for raw, want := range cases {
		assert.Equalf(t, want, Classify(raw), "Classify(%q)", raw)
	}
}

func TestResolveImportFindsSiblingFile(t *testing.T) {
	mfs := fstest.MapFS{
		"project/b.chtl": &fstest.MapFile{Data: []byte("div{}")},
	}
	g := symbol.New()
	r := New(mfs, Options{}, g)

	n := ast.New(ast.KindImport, token.Position{Line: 1, Column: 1})
	n.ImportKind = "Chtl"
	n.RawPath = "b"

	bag := diag.New()
	res := r.ResolveImport("project/a.chtl", n, bag)
	require.False(t, bag.HasErrors(), bag.Items())
	require.Len(t, res.ResolvedPaths, 1)
	assert.Equal(t, "project/b.chtl", res.ResolvedPaths[0])
}

func TestResolveImportMissingFileReportsError(t *testing.T) {
	mfs := fstest.MapFS{}
	g := symbol.New()
	r := New(mfs, Options{}, g)

	n := ast.New(ast.KindImport, token.Position{Line: 1, Column: 1})
	n.ImportKind = "Chtl"
	n.RawPath = "missing"

	bag := diag.New()
	r.ResolveImport("project/a.chtl", n, bag)
	require.True(t, bag.HasErrors())
	assert.Equal(t, diag.CodeFileNotFound, bag.Items()[0].Code)
}

func TestDetectCycleReportsCircularChain(t *testing.T) {
	g := symbol.New()
	bag := diag.New()
	pos := token.Position{Line: 1, Column: 1}

	releaseA, ok := DetectCycle(g, "a.chtl", bag, pos)
	require.True(t, ok)
	defer releaseA()

	releaseB, ok := DetectCycle(g, "b.chtl", bag, pos)
	require.True(t, ok)
	defer releaseB()

	_, ok = DetectCycle(g, "a.chtl", bag, pos)
	assert.False(t, ok)
	require.True(t, bag.HasErrors())
	assert.Equal(t, diag.CodeCircularImport, bag.Items()[0].Code)
	assert.Contains(t, bag.Items()[0].Message, "a.chtl -> b.chtl -> a.chtl")
}
