package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"pairlock/internal/crypto"
	"pairlock/internal/domain/message"
	"pairlock/internal/mocks"
	pairlock_errors "pairlock/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testIterations = 2048

type chatFixture struct {
	svc       *ChatService
	repo      *mocks.MessageRepositoryMock
	dir       *mocks.DirectoryMock
	blobs     *mocks.BlobStoreMock
	keys      *crypto.KeyProvider
	codec     *crypto.Codec
	alice     uuid.UUID
	bob       uuid.UUID
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	repo := new(mocks.MessageRepositoryMock)
	dir := new(mocks.DirectoryMock)
	blobs := new(mocks.BlobStoreMock)
	keys := crypto.NewKeyProvider(testIterations)
	codec := crypto.NewCodec()

	svc := NewChatService(repo, keys, codec, blobs, dir, DefaultChatConfig(), nil)
	return &chatFixture{
		svc:   svc,
		repo:  repo,
		dir:   dir,
		blobs: blobs,
		keys:  keys,
		codec: codec,
		alice: uuid.New(),
		bob:   uuid.New(),
	}
}

// encryptedText builds a stored message fixture the way SendText would.
func (f *chatFixture) encryptedText(t *testing.T, sender, peer uuid.UUID, text string, createdAt time.Time) message.Message {
	t.Helper()
	key, err := f.keys.ConversationKey(sender, peer)
	require.NoError(t, err)
	transport, err := f.codec.EncryptText(text, key)
	require.NoError(t, err)
	msg, err := message.NewText(sender, peer, transport)
	require.NoError(t, err)
	msg.CreatedAt = createdAt
	return msg
}

func TestSendTextEncryptsAtRest(t *testing.T) {
	f := newChatFixture(t)

	f.dir.On("IsFriend", mock.Anything, f.alice, f.bob).Return(true, nil).Once()

	var stored message.Message
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*message.Message")).
		Run(func(args mock.Arguments) {
			stored = *args.Get(1).(*message.Message)
		}).
		Return(nil).Once()

	dto, err := f.svc.SendText(context.Background(), f.alice, f.bob, "  hello  ")
	require.NoError(t, err)

	assert.Equal(t, "hello", dto.Content, "response carries the plaintext in hand")
	assert.Equal(t, message.TypeText, dto.Type)
	assert.Equal(t, message.StatusSent, dto.Status)
	assert.Equal(t, f.alice, dto.Sender)

	// the persisted row holds ciphertext, not plaintext
	require.True(t, stored.EncryptedContent.Valid)
	assert.NotContains(t, stored.EncryptedContent.String, "hello")

	key, err := f.keys.ConversationKey(f.bob, f.alice)
	require.NoError(t, err)
	plaintext, err := f.codec.DecryptText(stored.EncryptedContent.String, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", plaintext)

	f.repo.AssertExpectations(t)
	f.dir.AssertExpectations(t)
}

func TestSendTextValidation(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendText(context.Background(), f.alice, f.bob, "   ")
	assert.ErrorIs(t, err, pairlock_errors.ErrInvalidInput)

	_, err = f.svc.SendText(context.Background(), f.alice, f.bob, strings.Repeat("a", 1001))
	assert.ErrorIs(t, err, pairlock_errors.ErrInvalidInput)

	_, err = f.svc.SendText(context.Background(), f.alice, f.alice, "self message")
	assert.ErrorIs(t, err, pairlock_errors.ErrInvalidInput)

	// validation rejects before any store work
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendTextNotFriends(t *testing.T) {
	f := newChatFixture(t)

	f.dir.On("IsFriend", mock.Anything, f.alice, f.bob).Return(false, nil).Once()

	_, err := f.svc.SendText(context.Background(), f.alice, f.bob, "hi")
	assert.ErrorIs(t, err, pairlock_errors.ErrForbidden)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSendFileStoresBlobAndEncryptsMetadata(t *testing.T) {
	f := newChatFixture(t)
	content := []byte("%PDF-1.7 fake invoice")

	f.dir.On("IsFriend", mock.Anything, f.alice, f.bob).Return(true, nil).Once()
	f.blobs.On("Save", mock.Anything, mock.Anything, "invoice.pdf").Return("blob-1.pdf", nil).Once()

	var stored message.Message
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*message.Message")).
		Run(func(args mock.Arguments) {
			stored = *args.Get(1).(*message.Message)
		}).
		Return(nil).Once()

	dto, err := f.svc.SendFile(context.Background(), f.alice, f.bob, bytes.NewReader(content), "invoice.pdf", "application/pdf", int64(len(content)))
	require.NoError(t, err)

	assert.Equal(t, message.TypeFile, dto.Type)
	require.NotNil(t, dto.FileData)
	assert.Equal(t, "invoice.pdf", dto.FileData.OriginalName)
	assert.Equal(t, "application/pdf", dto.FileData.MimeType)

	require.True(t, stored.EncryptedFileMeta.Valid)
	assert.NotContains(t, stored.EncryptedFileMeta.String, "invoice.pdf")
	assert.Equal(t, "blob-1.pdf", stored.FilePath.String)

	key, err := f.keys.ConversationKey(f.alice, f.bob)
	require.NoError(t, err)
	meta, err := f.codec.DecryptFileMeta(stored.EncryptedFileMeta.String, key)
	require.NoError(t, err)
	assert.Equal(t, "invoice.pdf", meta.OriginalName)

	f.blobs.AssertExpectations(t)
	f.repo.AssertExpectations(t)
}

func TestSendFileImageTypeByMimePrefix(t *testing.T) {
	f := newChatFixture(t)

	f.dir.On("IsFriend", mock.Anything, f.alice, f.bob).Return(true, nil).Once()
	f.blobs.On("Save", mock.Anything, mock.Anything, "cat.png").Return("blob-2.png", nil).Once()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	dto, err := f.svc.SendFile(context.Background(), f.alice, f.bob, bytes.NewReader([]byte("png")), "cat.png", "image/png", 3)
	require.NoError(t, err)
	assert.Equal(t, message.TypeImage, dto.Type)
}

func TestSendFileOversizedRejectedBeforeAnyWork(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendFile(context.Background(), f.alice, f.bob, bytes.NewReader(nil), "huge.bin", "application/pdf", 15*1024*1024)
	assert.ErrorIs(t, err, pairlock_errors.ErrTooLarge)

	f.blobs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.dir.AssertNotCalled(t, "IsFriend", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendFileDisallowedMimeType(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendFile(context.Background(), f.alice, f.bob, bytes.NewReader(nil), "run.exe", "application/x-msdownload", 100)
	assert.ErrorIs(t, err, pairlock_errors.ErrValidation)
	f.blobs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendFileCleansUpBlobOnStoreFailure(t *testing.T) {
	f := newChatFixture(t)

	f.dir.On("IsFriend", mock.Anything, f.alice, f.bob).Return(true, nil).Once()
	f.blobs.On("Save", mock.Anything, mock.Anything, "a.png").Return("blob-3.png", nil).Once()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(assert.AnError).Once()
	f.blobs.On("Remove", mock.Anything, "blob-3.png").Return(nil).Once()

	_, err := f.svc.SendFile(context.Background(), f.alice, f.bob, bytes.NewReader([]byte("x")), "a.png", "image/png", 1)
	require.Error(t, err)
	f.blobs.AssertExpectations(t)
}

func TestGetMessagesChronologicalAndMarksRead(t *testing.T) {
	f := newChatFixture(t)
	base := time.Now().Add(-time.Hour)

	hello := f.encryptedText(t, f.alice, f.bob, "hello", base)
	world := f.encryptedText(t, f.alice, f.bob, "world", base.Add(time.Minute))

	f.dir.On("IsFriend", mock.Anything, f.alice, f.bob).Return(true, nil).Once()
	// store yields newest first
	f.repo.On("GetConversationPage", mock.Anything, f.alice, f.bob, 1, 10).
		Return([]message.Message{world, hello}, false, nil).Once()
	f.repo.On("MarkConversationRead", mock.Anything, f.alice, f.bob).Return(nil).Once()
	f.repo.On("GetReceiptsForMessages", mock.Anything, mock.Anything).
		Return([]message.MessageReceipt(nil), nil).Once()

	dtos, hasMore, err := f.svc.GetMessages(context.Background(), f.alice, f.bob, 1, 10)
	require.NoError(t, err)

	assert.False(t, hasMore)
	require.Len(t, dtos, 2)
	assert.Equal(t, "hello", dtos[0].Content)
	assert.Equal(t, "world", dtos[1].Content)

	f.repo.AssertExpectations(t)
}

func TestGetMessagesIsolatesCorruptedRecord(t *testing.T) {
	f := newChatFixture(t)
	base := time.Now().Add(-time.Hour)

	good := f.encryptedText(t, f.alice, f.bob, "still readable", base)
	corrupted := good
	corrupted.ID = uuid.New()
	corrupted.CreatedAt = base.Add(time.Minute)
	corrupted.EncryptedContent = sql.NullString{String: "aa:bb:cc", Valid: true}

	f.dir.On("IsFriend", mock.Anything, f.alice, f.bob).Return(true, nil).Once()
	f.repo.On("GetConversationPage", mock.Anything, f.alice, f.bob, 1, 10).
		Return([]message.Message{corrupted, good}, false, nil).Once()
	f.repo.On("MarkConversationRead", mock.Anything, f.alice, f.bob).Return(nil).Once()
	f.repo.On("GetReceiptsForMessages", mock.Anything, mock.Anything).
		Return([]message.MessageReceipt(nil), nil).Once()

	dtos, _, err := f.svc.GetMessages(context.Background(), f.alice, f.bob, 1, 10)
	require.NoError(t, err, "one corrupted message must not fail the page")

	require.Len(t, dtos, 2)
	assert.Equal(t, "still readable", dtos[0].Content)
	assert.False(t, dtos[0].Unavailable)
	assert.True(t, dtos[1].Unavailable)
	assert.Empty(t, dtos[1].Content)
}

func TestDeleteMessageAuthorization(t *testing.T) {
	f := newChatFixture(t)
	outsider := uuid.New()
	msg := f.encryptedText(t, f.alice, f.bob, "private", time.Now())

	f.repo.On("GetByID", mock.Anything, msg.ID).Return(msg, nil).Twice()
	f.repo.On("SoftDeleteForUser", mock.Anything, msg.ID, f.alice).Return(nil).Once()

	err := f.svc.DeleteMessage(context.Background(), msg.ID, outsider)
	assert.ErrorIs(t, err, pairlock_errors.ErrForbidden)

	err = f.svc.DeleteMessage(context.Background(), msg.ID, f.alice)
	assert.NoError(t, err)

	f.repo.AssertExpectations(t)
}

func TestDeleteMessageNotFound(t *testing.T) {
	f := newChatFixture(t)
	missing := uuid.New()

	f.repo.On("GetByID", mock.Anything, missing).
		Return(message.Message{}, pairlock_errors.ErrNotFound).Once()

	err := f.svc.DeleteMessage(context.Background(), missing, f.alice)
	assert.ErrorIs(t, err, pairlock_errors.ErrNotFound)
}

func TestDownloadFileRoundTrip(t *testing.T) {
	f := newChatFixture(t)
	content := []byte("raw pdf bytes")

	key, err := f.keys.ConversationKey(f.alice, f.bob)
	require.NoError(t, err)
	encMeta, err := f.codec.EncryptFileMeta(crypto.FileMeta{
		OriginalName: "invoice.pdf",
		MimeType:     "application/pdf",
		Size:         int64(len(content)),
	}, key)
	require.NoError(t, err)

	msg, err := message.NewAttachment(f.alice, f.bob, message.TypeFile, encMeta, "blob-9.pdf", int64(len(content)))
	require.NoError(t, err)

	f.repo.On("GetByID", mock.Anything, msg.ID).Return(msg, nil).Once()
	f.repo.On("IsDeletedForUser", mock.Anything, msg.ID, f.bob).Return(false, nil).Once()
	f.blobs.On("Open", mock.Anything, "blob-9.pdf").
		Return(io.NopCloser(bytes.NewReader(content)), nil).Once()

	stream, err := f.svc.DownloadFile(context.Background(), msg.ID, f.bob)
	require.NoError(t, err)
	defer stream.Stream.Close()

	assert.Equal(t, "invoice.pdf", stream.Filename)
	assert.Equal(t, "application/pdf", stream.MimeType)
	assert.False(t, stream.Inline)

	got, err := io.ReadAll(stream.Stream)
	require.NoError(t, err)
	assert.Equal(t, content, got, "downloaded bytes identical to what was uploaded")
}

func TestDownloadFileForbiddenForOutsider(t *testing.T) {
	f := newChatFixture(t)
	outsider := uuid.New()
	msg, err := message.NewAttachment(f.alice, f.bob, message.TypeFile, "aa:bb:cc", "blob-9.pdf", 10)
	require.NoError(t, err)

	f.repo.On("GetByID", mock.Anything, msg.ID).Return(msg, nil).Once()

	_, err = f.svc.DownloadFile(context.Background(), msg.ID, outsider)
	assert.ErrorIs(t, err, pairlock_errors.ErrForbidden)
	f.blobs.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

func TestDownloadFileDeletedForCaller(t *testing.T) {
	f := newChatFixture(t)
	msg, err := message.NewAttachment(f.alice, f.bob, message.TypeFile, "aa:bb:cc", "blob-9.pdf", 10)
	require.NoError(t, err)

	f.repo.On("GetByID", mock.Anything, msg.ID).Return(msg, nil).Once()
	f.repo.On("IsDeletedForUser", mock.Anything, msg.ID, f.alice).Return(true, nil).Once()

	_, err = f.svc.DownloadFile(context.Background(), msg.ID, f.alice)
	assert.ErrorIs(t, err, pairlock_errors.ErrNotFound)
}

func TestViewFileIsInline(t *testing.T) {
	f := newChatFixture(t)

	key, err := f.keys.ConversationKey(f.alice, f.bob)
	require.NoError(t, err)
	encMeta, err := f.codec.EncryptFileMeta(crypto.FileMeta{OriginalName: "cat.png", MimeType: "image/png", Size: 3}, key)
	require.NoError(t, err)
	msg, err := message.NewAttachment(f.alice, f.bob, message.TypeImage, encMeta, "blob-7.png", 3)
	require.NoError(t, err)

	f.repo.On("GetByID", mock.Anything, msg.ID).Return(msg, nil).Once()
	f.repo.On("IsDeletedForUser", mock.Anything, msg.ID, f.bob).Return(false, nil).Once()
	f.blobs.On("Open", mock.Anything, "blob-7.png").
		Return(io.NopCloser(bytes.NewReader([]byte("png"))), nil).Once()

	stream, err := f.svc.ViewFile(context.Background(), msg.ID, f.bob)
	require.NoError(t, err)
	defer stream.Stream.Close()
	assert.True(t, stream.Inline)
}
