package crypto

import (
	"crypto/sha256"
	"strings"
	"sync"

	pairlock_errors "pairlock/pkg/errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
)

// pairSeparator joins the two canonicalized user IDs; pairSalt namespaces the
// derivation so keys derived here never collide with any other use of the
// same identifiers.
const (
	pairSeparator = ":"
	pairSalt      = "pairlock.conversation.v1"
)

// DefaultKDFIterations is the PBKDF2 round count. Raising it makes offline
// brute force more expensive but adds the same cost to every message
// operation, since keys are re-derived on demand and never stored. The
// KeyProvider cache keeps the cost to one derivation per pair per process.
const DefaultKDFIterations = 100000

const keyLen = 32

// KeyProvider derives the symmetric conversation key for a user pair.
// Derivation is a pure function of the sorted pair, so the cache never needs
// invalidation.
type KeyProvider struct {
	iterations int

	mu    sync.RWMutex
	cache map[string][]byte
}

func NewKeyProvider(iterations int) *KeyProvider {
	if iterations <= 0 {
		iterations = DefaultKDFIterations
	}
	return &KeyProvider{
		iterations: iterations,
		cache:      make(map[string][]byte),
	}
}

// ConversationKey returns the 32-byte key shared by userA and userB.
// ConversationKey(a, b) == ConversationKey(b, a) for all pairs.
func (p *KeyProvider) ConversationKey(userA, userB uuid.UUID) ([]byte, error) {
	if userA == uuid.Nil || userB == uuid.Nil {
		return nil, pairlock_errors.ErrInvalidInput
	}

	canonical := canonicalPairString(userA.String(), userB.String())

	p.mu.RLock()
	key, ok := p.cache[canonical]
	p.mu.RUnlock()
	if ok {
		return key, nil
	}

	key = pbkdf2.Key([]byte(canonical), []byte(pairSalt), p.iterations, keyLen, sha256.New)

	p.mu.Lock()
	p.cache[canonical] = key
	p.mu.Unlock()

	return key, nil
}

// canonicalPairString sorts the two identifiers lexicographically so both
// sides of the conversation derive the same key.
func canonicalPairString(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + pairSeparator + b
}
