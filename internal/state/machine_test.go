package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushRejectsIllegalTransition(t *testing.T) {
	m := New()
	_, err := m.Push(Frame{Kind: InStyleRule})
	require.Error(t, err)
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, TopLevel, te.From)
	assert.Equal(t, InStyleRule, te.To)
	assert.Equal(t, 1, m.Depth())
}

func TestPushAndReleaseRestoresDepth(t *testing.T) {
	m := New()
	release, err := m.Push(Frame{Kind: InElement, Name: "div"})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Depth())
	assert.Equal(t, InElement, m.Current().Kind)

	release()
	assert.Equal(t, 1, m.Depth())
	assert.Equal(t, TopLevel, m.Current().Kind)
}

func TestReleaseIsIdempotent(t *testing.T) {
	m := New()
	release, err := m.Push(Frame{Kind: InElement})
	require.NoError(t, err)
	release()
	release()
	assert.Equal(t, 1, m.Depth())
}

func TestOutOfOrderReleaseDoesNotCorruptOuterFrame(t *testing.T) {
	m := New()
	releaseOuter, err := m.Push(Frame{Kind: InElement})
	require.NoError(t, err)
	releaseInner, err := m.Push(Frame{Kind: InStyle})
	require.NoError(t, err)

	releaseOuter()
	assert.Equal(t, 1, m.Depth())

	// The inner frame's own release must not pop below its recorded
	// depth once the stack has already been unwound past it.
	releaseInner()
	assert.Equal(t, 1, m.Depth())
}

func TestCanUseDeleteInsideTemplateOrElement(t *testing.T) {
	m := New()
	assert.False(t, m.CanUseDelete())

	release, err := m.Push(Frame{Kind: InTemplate})
	require.NoError(t, err)
	assert.True(t, m.CanUseDelete())
	assert.True(t, m.CanUseInherit())
	release()
}

func TestCanUseSpecializationOnlyInCustom(t *testing.T) {
	m := New()
	releaseTemplate, err := m.Push(Frame{Kind: InTemplate})
	require.NoError(t, err)
	assert.False(t, m.CanUseSpecialization())
	releaseTemplate()

	releaseCustom, err := m.Push(Frame{Kind: InCustom})
	require.NoError(t, err)
	assert.True(t, m.CanUseSpecialization())
	releaseCustom()
}

func TestIsInGlobalScope(t *testing.T) {
	m := New()
	assert.True(t, m.IsInGlobalScope())

	release, err := m.Push(Frame{Kind: InElement})
	require.NoError(t, err)
	assert.False(t, m.IsInGlobalScope())
	release()
}

func TestCurrentStyleIsGlobalReflectsFrameFlag(t *testing.T) {
	m := New()
	release, err := m.Push(Frame{Kind: InStyle, Global: true})
	require.NoError(t, err)
	assert.True(t, m.CurrentStyleIsGlobal())
	release()

	release2, err := m.Push(Frame{Kind: InStyle, Global: false})
	require.NoError(t, err)
	assert.False(t, m.CurrentStyleIsGlobal())
	release2()
}

func TestInCSSLikeBlock(t *testing.T) {
	m := New()
	assert.False(t, m.InCSSLikeBlock())
	release, err := m.Push(Frame{Kind: InStyle})
	require.NoError(t, err)
	assert.True(t, m.InCSSLikeBlock())
	release()
}
