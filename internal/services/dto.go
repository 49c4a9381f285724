package services

import (
	"time"

	"pairlock/internal/crypto"
	"pairlock/internal/domain/message"
	"pairlock/internal/domain/user"

	"github.com/google/uuid"
)

// FileData is the decrypted attachment metadata exposed at the boundary.
type FileData struct {
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

// ReadReceiptDTO marks that a user has seen a message.
type ReadReceiptDTO struct {
	UserID uuid.UUID `json:"user_id"`
	ReadAt time.Time `json:"read_at"`
}

// MessageDTO is the decrypted message shape returned to callers. Encrypted
// fields never cross this boundary; a message whose ciphertext cannot be
// opened is returned with Unavailable set instead of failing the whole page.
type MessageDTO struct {
	ID          uuid.UUID        `json:"id"`
	Sender      uuid.UUID        `json:"sender"`
	Type        string           `json:"message_type"`
	Content     string           `json:"content,omitempty"`
	FileData    *FileData        `json:"file_data,omitempty"`
	Status      string           `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	EditedAt    *time.Time       `json:"edited_at,omitempty"`
	ReadBy      []ReadReceiptDTO `json:"read_by"`
	Unavailable bool             `json:"unavailable,omitempty"`
}

// ConversationSummary is one row of the conversation list: the friend, the
// most recent decrypted message (nil when the pair never talked) and how many
// of their messages the caller has not read.
type ConversationSummary struct {
	Friend        user.Profile `json:"friend"`
	LatestMessage *MessageDTO  `json:"latest_message"`
	UnreadCount   int64        `json:"unread_count"`
}

// decryptToDTO opens a stored message with the pair key. Decryption failure
// is recorded on the DTO, not returned: one corrupted row must not take down
// a conversation view.
func decryptToDTO(codec *crypto.Codec, key []byte, m message.Message, receipts []message.MessageReceipt) MessageDTO {
	dto := MessageDTO{
		ID:        m.ID,
		Sender:    m.SenderID,
		Type:      m.Type,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		ReadBy:    make([]ReadReceiptDTO, 0, len(receipts)),
	}
	if m.EditedAt.Valid {
		editedAt := m.EditedAt.Time
		dto.EditedAt = &editedAt
	}
	for _, r := range receipts {
		dto.ReadBy = append(dto.ReadBy, ReadReceiptDTO{UserID: r.UserID, ReadAt: r.ReadAt})
	}

	switch m.Type {
	case message.TypeText:
		content, err := codec.DecryptText(m.EncryptedContent.String, key)
		if err != nil {
			dto.Unavailable = true
			return dto
		}
		dto.Content = content
	case message.TypeImage, message.TypeFile:
		meta, err := codec.DecryptFileMeta(m.EncryptedFileMeta.String, key)
		if err != nil {
			dto.Unavailable = true
			return dto
		}
		dto.FileData = &FileData{
			OriginalName: meta.OriginalName,
			MimeType:     meta.MimeType,
			Size:         meta.Size,
		}
	default:
		dto.Unavailable = true
	}
	return dto
}

func groupReceipts(receipts []message.MessageReceipt) map[uuid.UUID][]message.MessageReceipt {
	grouped := make(map[uuid.UUID][]message.MessageReceipt, len(receipts))
	for _, r := range receipts {
		grouped[r.MessageID] = append(grouped[r.MessageID], r)
	}
	return grouped
}
