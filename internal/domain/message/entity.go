package message

import (
	"database/sql"
	"strings"
	"time"

	pairlock_errors "pairlock/pkg/errors"

	"github.com/google/uuid"
)

// Message types
const (
	TypeText  = "TEXT"
	TypeImage = "IMAGE"
	TypeFile  = "FILE"
)

// Delivery statuses
const (
	StatusSent      = "SENT"
	StatusDelivered = "DELIVERED"
	StatusRead      = "READ"
)

// Message represents the messages table. A message always belongs to exactly
// one user pair; PairLow/PairHigh hold the two participant IDs in canonical
// sorted order so the same conversation is addressable from either side.
type Message struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	PairLow           uuid.UUID `gorm:"type:uuid;index:idx_messages_pair"`
	PairHigh          uuid.UUID `gorm:"type:uuid;index:idx_messages_pair"`
	SenderID          uuid.UUID `gorm:"type:uuid"`
	Type              string
	Status            string
	EncryptedContent  sql.NullString
	EncryptedFileMeta sql.NullString
	FilePath          sql.NullString
	FileSize          sql.NullInt64
	CreatedAt         time.Time `gorm:"index:idx_messages_pair"`
	EditedAt          sql.NullTime
}

// MessageReceipt represents message_receipts. One row per reader; the sender
// never gets a receipt for their own message.
type MessageReceipt struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReadAt    time.Time
}

// MessageUserState represents message_user_states, the per-user soft-delete
// flag. A message stays in storage until every participant has deleted it.
type MessageUserState struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	IsDeleted bool      `gorm:"default:false"`
	DeletedAt sql.NullTime
}

func (Message) TableName() string {
	return "messages"
}

func (MessageReceipt) TableName() string {
	return "message_receipts"
}

func (MessageUserState) TableName() string {
	return "message_user_states"
}

// CanonicalPair orders two participant IDs lexicographically by their string
// form. Both sides of a conversation resolve to the same (low, high) pair.
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) <= 0 {
		return a, b
	}
	return b, a
}

// NewText builds a text message. The ciphertext transport string is the only
// payload branch populated.
func NewText(sender, peer uuid.UUID, encryptedContent string) (Message, error) {
	if err := validatePair(sender, peer); err != nil {
		return Message{}, err
	}
	if encryptedContent == "" {
		return Message{}, pairlock_errors.ErrInvalidInput
	}
	low, high := CanonicalPair(sender, peer)
	return Message{
		ID:               uuid.New(),
		PairLow:          low,
		PairHigh:         high,
		SenderID:         sender,
		Type:             TypeText,
		Status:           StatusSent,
		EncryptedContent: sql.NullString{String: encryptedContent, Valid: true},
		CreatedAt:        time.Now(),
	}, nil
}

// NewAttachment builds an image or file message. Only the encrypted metadata
// and the server-local path are stored; file bytes live outside the row.
func NewAttachment(sender, peer uuid.UUID, msgType, encryptedMeta, filePath string, fileSize int64) (Message, error) {
	if err := validatePair(sender, peer); err != nil {
		return Message{}, err
	}
	if msgType != TypeImage && msgType != TypeFile {
		return Message{}, pairlock_errors.ErrInvalidInput
	}
	if encryptedMeta == "" || filePath == "" || fileSize <= 0 {
		return Message{}, pairlock_errors.ErrInvalidInput
	}
	low, high := CanonicalPair(sender, peer)
	return Message{
		ID:                uuid.New(),
		PairLow:           low,
		PairHigh:          high,
		SenderID:          sender,
		Type:              msgType,
		Status:            StatusSent,
		EncryptedFileMeta: sql.NullString{String: encryptedMeta, Valid: true},
		FilePath:          sql.NullString{String: filePath, Valid: true},
		FileSize:          sql.NullInt64{Int64: fileSize, Valid: true},
		CreatedAt:         time.Now(),
	}, nil
}

// Validate checks the payload/type pairing invariant: exactly one payload
// branch populated, matching the declared type.
func (m Message) Validate() error {
	if m.PairLow == m.PairHigh {
		return pairlock_errors.ErrInvalidInput
	}
	if m.SenderID != m.PairLow && m.SenderID != m.PairHigh {
		return pairlock_errors.ErrInvalidInput
	}
	switch m.Type {
	case TypeText:
		if !m.EncryptedContent.Valid || m.EncryptedFileMeta.Valid || m.FilePath.Valid {
			return pairlock_errors.ErrValidation
		}
	case TypeImage, TypeFile:
		if m.EncryptedContent.Valid || !m.EncryptedFileMeta.Valid || !m.FilePath.Valid {
			return pairlock_errors.ErrValidation
		}
	default:
		return pairlock_errors.ErrValidation
	}
	return nil
}

// IsParticipant reports whether userID is one of the two conversation members.
func (m Message) IsParticipant(userID uuid.UUID) bool {
	return userID == m.PairLow || userID == m.PairHigh
}

// Peer returns the other participant relative to userID.
func (m Message) Peer(userID uuid.UUID) uuid.UUID {
	if userID == m.PairLow {
		return m.PairHigh
	}
	return m.PairLow
}

func validatePair(sender, peer uuid.UUID) error {
	if sender == uuid.Nil || peer == uuid.Nil || sender == peer {
		return pairlock_errors.ErrInvalidInput
	}
	return nil
}
