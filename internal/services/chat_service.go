package services

import (
	"context"
	"io"
	"strings"
	"time"

	"pairlock/internal/crypto"
	"pairlock/internal/domain/message"
	"pairlock/internal/domain/user"
	"pairlock/internal/repository"
	"pairlock/internal/storage"
	pairlock_errors "pairlock/pkg/errors"
	"pairlock/pkg/logger"

	"github.com/google/uuid"
)

// Directory is the external user/friendship collaborator. Pairlock never
// manages accounts or friendships itself.
type Directory interface {
	IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	GetUser(ctx context.Context, id uuid.UUID) (user.Profile, error)
	Friends(ctx context.Context, userID uuid.UUID) ([]user.Profile, error)
}

// ChatConfig bundles the tunables of the chat core.
type ChatConfig struct {
	MaxTextLength int
	MaxFileBytes  int64
	PageLimit     int
	OpTimeout     time.Duration
}

func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		MaxTextLength: 1000,
		MaxFileBytes:  10 * 1024 * 1024,
		PageLimit:     50,
		OpTimeout:     10 * time.Second,
	}
}

// allowedMimeTypes is the attachment allow-list. Anything else is rejected
// before encryption or storage work happens.
var allowedMimeTypes = map[string]bool{
	"image/jpeg":         true,
	"image/png":          true,
	"image/gif":          true,
	"image/webp":         true,
	"application/pdf":    true,
	"application/zip":    true,
	"text/plain":         true,
	"audio/mpeg":         true,
	"video/mp4":          true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// FileStream is the decrypted handle for downloading or viewing a stored
// attachment.
type FileStream struct {
	Stream   io.ReadCloser
	Filename string
	MimeType string
	Size     int64
	Inline   bool
}

// ChatService orchestrates the encrypted messaging core: key derivation,
// payload encryption, the message store and the blob store.
type ChatService struct {
	messages  repository.MessageRepository
	keys      *crypto.KeyProvider
	codec     *crypto.Codec
	blobs     storage.BlobStore
	directory Directory
	convos    *ConversationService
	cfg       ChatConfig
	log       *logger.Logger
}

func NewChatService(
	messages repository.MessageRepository,
	keys *crypto.KeyProvider,
	codec *crypto.Codec,
	blobs storage.BlobStore,
	directory Directory,
	cfg ChatConfig,
	log *logger.Logger,
) *ChatService {
	if cfg.MaxTextLength <= 0 {
		cfg = DefaultChatConfig()
	}
	svc := &ChatService{
		messages:  messages,
		keys:      keys,
		codec:     codec,
		blobs:     blobs,
		directory: directory,
		cfg:       cfg,
		log:       log,
	}
	svc.convos = NewConversationService(messages, keys, codec, directory, log)
	return svc
}

// SendText encrypts and stores a text message. The returned DTO carries the
// plaintext already in hand; nothing is re-decrypted on the way out.
func (s *ChatService) SendText(ctx context.Context, senderID, friendID uuid.UUID, text string) (MessageDTO, error) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) > s.cfg.MaxTextLength {
		return MessageDTO{}, pairlock_errors.ErrInvalidInput
	}

	if err := s.requireFriendship(ctx, senderID, friendID); err != nil {
		return MessageDTO{}, err
	}

	key, err := s.keys.ConversationKey(senderID, friendID)
	if err != nil {
		return MessageDTO{}, err
	}

	transport, err := s.codec.EncryptText(text, key)
	if err != nil {
		return MessageDTO{}, err
	}

	msg, err := message.NewText(senderID, friendID, transport)
	if err != nil {
		return MessageDTO{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.messages.Create(ctx, &msg); err != nil {
		return MessageDTO{}, err
	}

	dto := MessageDTO{
		ID:        msg.ID,
		Sender:    msg.SenderID,
		Type:      msg.Type,
		Content:   text,
		Status:    msg.Status,
		CreatedAt: msg.CreatedAt,
		ReadBy:    []ReadReceiptDTO{},
	}
	return dto, nil
}

// SendFile stores the raw bytes out of band, encrypts only the metadata
// triple and records the message. Oversized or disallowed files are rejected
// before any encryption or storage work.
func (s *ChatService) SendFile(ctx context.Context, senderID, friendID uuid.UUID, data io.Reader, originalName, mimeType string, size int64) (MessageDTO, error) {
	if originalName == "" || mimeType == "" || size <= 0 {
		return MessageDTO{}, pairlock_errors.ErrInvalidInput
	}
	if size > s.cfg.MaxFileBytes {
		return MessageDTO{}, pairlock_errors.ErrTooLarge
	}
	if !allowedMimeTypes[mimeType] {
		return MessageDTO{}, pairlock_errors.ErrValidation
	}

	if err := s.requireFriendship(ctx, senderID, friendID); err != nil {
		return MessageDTO{}, err
	}

	key, err := s.keys.ConversationKey(senderID, friendID)
	if err != nil {
		return MessageDTO{}, err
	}

	meta := crypto.FileMeta{OriginalName: originalName, MimeType: mimeType, Size: size}
	encryptedMeta, err := s.codec.EncryptFileMeta(meta, key)
	if err != nil {
		return MessageDTO{}, err
	}

	filePath, err := s.blobs.Save(ctx, data, originalName)
	if err != nil {
		return MessageDTO{}, err
	}

	msgType := message.TypeFile
	if strings.HasPrefix(mimeType, "image/") {
		msgType = message.TypeImage
	}

	msg, err := message.NewAttachment(senderID, friendID, msgType, encryptedMeta, filePath, size)
	if err != nil {
		s.cleanupBlob(ctx, filePath)
		return MessageDTO{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	if err := s.messages.Create(ctx, &msg); err != nil {
		s.cleanupBlob(ctx, filePath)
		return MessageDTO{}, err
	}

	dto := MessageDTO{
		ID:        msg.ID,
		Sender:    msg.SenderID,
		Type:      msg.Type,
		FileData:  &FileData{OriginalName: originalName, MimeType: mimeType, Size: size},
		Status:    msg.Status,
		CreatedAt: msg.CreatedAt,
		ReadBy:    []ReadReceiptDTO{},
	}
	return dto, nil
}

// GetMessages returns one decrypted page in chronological order and marks the
// friend's messages as read. A corrupted record is flagged on its own DTO and
// never fails the page.
func (s *ChatService) GetMessages(ctx context.Context, userID, friendID uuid.UUID, page, limit int) ([]MessageDTO, bool, error) {
	if err := s.requireFriendship(ctx, userID, friendID); err != nil {
		return nil, false, err
	}
	if limit <= 0 || limit > s.cfg.PageLimit {
		limit = s.cfg.PageLimit
	}

	key, err := s.keys.ConversationKey(userID, friendID)
	if err != nil {
		return nil, false, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	msgs, hasMore, err := s.messages.GetConversationPage(ctx, userID, friendID, page, limit)
	if err != nil {
		return nil, false, err
	}

	if err := s.messages.MarkConversationRead(ctx, userID, friendID); err != nil {
		return nil, false, err
	}

	ids := make([]uuid.UUID, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	receipts, err := s.messages.GetReceiptsForMessages(ctx, ids)
	if err != nil {
		return nil, false, err
	}
	grouped := groupReceipts(receipts)

	// store yields newest first; callers want chronological order
	dtos := make([]MessageDTO, len(msgs))
	for i, m := range msgs {
		dto := decryptToDTO(s.codec, key, m, grouped[m.ID])
		if dto.Unavailable && s.log != nil {
			s.log.Errorf("undecryptable message %s in conversation %s/%s", m.ID, userID, friendID)
		}
		dtos[len(msgs)-1-i] = dto
	}
	return dtos, hasMore, nil
}

// GetConversations lists one summary per friend, most recent traffic first.
func (s *ChatService) GetConversations(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error) {
	if userID == uuid.Nil {
		return nil, pairlock_errors.ErrInvalidInput
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.convos.List(ctx, userID)
}

// DownloadFile opens an attachment for download (Content-Disposition:
// attachment). The caller must be a participant.
func (s *ChatService) DownloadFile(ctx context.Context, messageID, userID uuid.UUID) (FileStream, error) {
	return s.openFile(ctx, messageID, userID, false)
}

// ViewFile opens an attachment for inline rendering.
func (s *ChatService) ViewFile(ctx context.Context, messageID, userID uuid.UUID) (FileStream, error) {
	return s.openFile(ctx, messageID, userID, true)
}

// DeleteMessage hides a message from the caller's view. The peer's copy is
// untouched.
func (s *ChatService) DeleteMessage(ctx context.Context, messageID, userID uuid.UUID) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if !msg.IsParticipant(userID) {
		return pairlock_errors.ErrForbidden
	}
	return s.messages.SoftDeleteForUser(ctx, messageID, userID)
}

// PurgeDeleted permanently removes messages both participants have deleted.
// Intended for a periodic maintenance call from the surrounding application.
func (s *ChatService) PurgeDeleted(ctx context.Context) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.messages.PurgeDeleted(ctx)
}

func (s *ChatService) openFile(ctx context.Context, messageID, userID uuid.UUID, inline bool) (FileStream, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return FileStream{}, err
	}
	if !msg.IsParticipant(userID) {
		return FileStream{}, pairlock_errors.ErrForbidden
	}
	if msg.Type != message.TypeImage && msg.Type != message.TypeFile {
		return FileStream{}, pairlock_errors.ErrValidation
	}

	deleted, err := s.messages.IsDeletedForUser(ctx, messageID, userID)
	if err != nil {
		return FileStream{}, err
	}
	if deleted {
		return FileStream{}, pairlock_errors.ErrNotFound
	}

	key, err := s.keys.ConversationKey(msg.PairLow, msg.PairHigh)
	if err != nil {
		return FileStream{}, err
	}
	meta, err := s.codec.DecryptFileMeta(msg.EncryptedFileMeta.String, key)
	if err != nil {
		return FileStream{}, err
	}

	stream, err := s.blobs.Open(ctx, msg.FilePath.String)
	if err != nil {
		return FileStream{}, err
	}

	return FileStream{
		Stream:   stream,
		Filename: meta.OriginalName,
		MimeType: meta.MimeType,
		Size:     meta.Size,
		Inline:   inline,
	}, nil
}

func (s *ChatService) requireFriendship(ctx context.Context, userID, otherID uuid.UUID) error {
	if userID == uuid.Nil || otherID == uuid.Nil || userID == otherID {
		return pairlock_errors.ErrInvalidInput
	}
	ok, err := s.directory.IsFriend(ctx, userID, otherID)
	if err != nil {
		return err
	}
	if !ok {
		return pairlock_errors.ErrForbidden
	}
	return nil
}

func (s *ChatService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.OpTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.cfg.OpTimeout)
}

func (s *ChatService) cleanupBlob(ctx context.Context, path string) {
	if err := s.blobs.Remove(ctx, path); err != nil && s.log != nil {
		s.log.Warnf("orphaned blob %s: %v", path, err)
	}
}
