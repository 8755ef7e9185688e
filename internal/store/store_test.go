package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Yhlight/chtl/internal/diag"
	"github.com/Yhlight/chtl/internal/token"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "sessions.db")
	s, err := Open(dsn, false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("libsql://example.turso.io"))
	assert.True(t, isURL("https://example.com/db"))
	assert.False(t, isURL("/tmp/sessions.db"))
	assert.False(t, isURL("relative/path.db"))
}

func TestSHA1OfIsStableAndContentSensitive(t *testing.T) {
	a := SHA1Of("div{}")
	b := SHA1Of("div{}")
	c := SHA1Of("span{}")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestRecordCompileThenLastResult(t *testing.T) {
	s := openTestStore(t)

	diags := []diag.Diagnostic{{
		Severity: diag.Error,
		Code:     diag.CodeDuplicateSymbol,
		Message:  "duplicate Box",
		File:     "a.chtl",
		Pos:      token.Position{Line: 1, Column: 1},
	}}
	err := s.RecordCompile("a.chtl", "div{}", false, diags, []string{"Box"}, 12)
	require.NoError(t, err)

	rec, ok := s.LastResult("a.chtl")
	require.True(t, ok)
	assert.Equal(t, SHA1Of("div{}"), rec.SourceSHA1)
	assert.False(t, rec.Success)
	assert.Equal(t, int64(12), rec.DurationMillis)
}

func TestLastResultMissingFileReportsNotFound(t *testing.T) {
	s := openTestStore(t)
	_, ok := s.LastResult("never-compiled.chtl")
	assert.False(t, ok)
}

func TestHistoryReturnsNewestFirstAndRespectsLimit(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		err := s.RecordCompile("a.chtl", "div{}", true, nil, nil, int64(i))
		require.NoError(t, err)
	}

	recs, err := s.History("a.chtl", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, !recs[0].CreatedAt.Before(recs[1].CreatedAt))
	assert.GreaterOrEqual(t, recs[0].ID, recs[1].ID)
}
