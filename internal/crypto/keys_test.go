package crypto

import (
	"testing"

	pairlock_errors "pairlock/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tests run with a reduced round count; the derivation path is identical
const testIterations = 2048

func TestConversationKeyDeterministic(t *testing.T) {
	p := NewKeyProvider(testIterations)
	a := uuid.New()
	b := uuid.New()

	k1, err := p.ConversationKey(a, b)
	require.NoError(t, err)
	k2, err := p.ConversationKey(b, a)
	require.NoError(t, err)
	k3, err := p.ConversationKey(b, a)
	require.NoError(t, err)

	assert.Len(t, k1, 32)
	assert.Equal(t, k1, k2, "key must be order-independent")
	assert.Equal(t, k2, k3, "key must be stable across calls")
}

func TestConversationKeyDistinctPairs(t *testing.T) {
	p := NewKeyProvider(testIterations)
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	kab, err := p.ConversationKey(a, b)
	require.NoError(t, err)
	kac, err := p.ConversationKey(a, c)
	require.NoError(t, err)

	assert.NotEqual(t, kab, kac)
}

func TestConversationKeyNilID(t *testing.T) {
	p := NewKeyProvider(testIterations)

	_, err := p.ConversationKey(uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, pairlock_errors.ErrInvalidInput)

	_, err = p.ConversationKey(uuid.New(), uuid.Nil)
	assert.ErrorIs(t, err, pairlock_errors.ErrInvalidInput)
}

func TestConversationKeyCacheHit(t *testing.T) {
	p := NewKeyProvider(testIterations)
	a := uuid.New()
	b := uuid.New()

	k1, err := p.ConversationKey(a, b)
	require.NoError(t, err)

	// second call is served from the cache and must match
	k2, err := p.ConversationKey(a, b)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
	assert.Len(t, p.cache, 1)
}

func TestCanonicalPairString(t *testing.T) {
	assert.Equal(t, canonicalPairString("aaa", "bbb"), canonicalPairString("bbb", "aaa"))
	assert.Equal(t, "aaa:bbb", canonicalPairString("bbb", "aaa"))
}
