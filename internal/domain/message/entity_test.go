package message

import (
	"testing"

	pairlock_errors "pairlock/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalPairOrderIndependent(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	l1, h1 := CanonicalPair(a, b)
	l2, h2 := CanonicalPair(b, a)

	assert.Equal(t, l1, l2)
	assert.Equal(t, h1, h2)
	assert.True(t, l1.String() <= h1.String())
}

func TestNewTextInvariants(t *testing.T) {
	sender := uuid.New()
	peer := uuid.New()

	msg, err := NewText(sender, peer, "aa:bb:cc")
	require.NoError(t, err)

	assert.Equal(t, TypeText, msg.Type)
	assert.Equal(t, StatusSent, msg.Status)
	assert.True(t, msg.IsParticipant(sender))
	assert.True(t, msg.IsParticipant(peer))
	assert.Equal(t, peer, msg.Peer(sender))
	assert.Equal(t, sender, msg.Peer(peer))
	assert.NoError(t, msg.Validate())
}

func TestNewTextRejectsBadPairs(t *testing.T) {
	id := uuid.New()

	_, err := NewText(uuid.Nil, id, "aa:bb:cc")
	assert.ErrorIs(t, err, pairlock_errors.ErrInvalidInput)

	_, err = NewText(id, id, "aa:bb:cc")
	assert.ErrorIs(t, err, pairlock_errors.ErrInvalidInput)

	_, err = NewText(id, uuid.New(), "")
	assert.ErrorIs(t, err, pairlock_errors.ErrInvalidInput)
}

func TestValidatePayloadTypeMismatch(t *testing.T) {
	sender := uuid.New()
	peer := uuid.New()

	text, err := NewText(sender, peer, "aa:bb:cc")
	require.NoError(t, err)

	// a text message must not carry attachment fields
	broken := text
	broken.FilePath.String = "blob"
	broken.FilePath.Valid = true
	assert.ErrorIs(t, broken.Validate(), pairlock_errors.ErrValidation)

	// an attachment must not carry text ciphertext
	file, err := NewAttachment(sender, peer, TypeFile, "aa:bb:cc", "blob.pdf", 10)
	require.NoError(t, err)
	broken = file
	broken.EncryptedContent.String = "aa:bb:cc"
	broken.EncryptedContent.Valid = true
	assert.ErrorIs(t, broken.Validate(), pairlock_errors.ErrValidation)

	// unknown type
	broken = text
	broken.Type = "VOICE"
	assert.ErrorIs(t, broken.Validate(), pairlock_errors.ErrValidation)
}

func TestNewAttachmentRejectsTextType(t *testing.T) {
	_, err := NewAttachment(uuid.New(), uuid.New(), TypeText, "aa:bb:cc", "blob", 10)
	assert.ErrorIs(t, err, pairlock_errors.ErrInvalidInput)
}
