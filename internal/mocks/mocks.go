package mocks

import (
	"context"
	"io"

	"pairlock/internal/domain/message"
	"pairlock/internal/domain/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, msg *message.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepositoryMock) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	args := m.Called(ctx, id)
	var msg message.Message
	if val := args.Get(0); val != nil {
		msg = val.(message.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) GetConversationPage(ctx context.Context, viewerID, friendID uuid.UUID, page, limit int) ([]message.Message, bool, error) {
	args := m.Called(ctx, viewerID, friendID, page, limit)
	var msgs []message.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]message.Message)
	}
	return msgs, args.Bool(1), args.Error(2)
}

func (m *MessageRepositoryMock) MarkConversationRead(ctx context.Context, viewerID, friendID uuid.UUID) error {
	args := m.Called(ctx, viewerID, friendID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) GetLatestMessage(ctx context.Context, viewerID, friendID uuid.UUID) (message.Message, error) {
	args := m.Called(ctx, viewerID, friendID)
	var msg message.Message
	if val := args.Get(0); val != nil {
		msg = val.(message.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) CountUnread(ctx context.Context, viewerID, friendID uuid.UUID) (int64, error) {
	args := m.Called(ctx, viewerID, friendID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) GetReceipts(ctx context.Context, messageID uuid.UUID) ([]message.MessageReceipt, error) {
	args := m.Called(ctx, messageID)
	var receipts []message.MessageReceipt
	if val := args.Get(0); val != nil {
		receipts = val.([]message.MessageReceipt)
	}
	return receipts, args.Error(1)
}

func (m *MessageRepositoryMock) GetReceiptsForMessages(ctx context.Context, messageIDs []uuid.UUID) ([]message.MessageReceipt, error) {
	args := m.Called(ctx, messageIDs)
	var receipts []message.MessageReceipt
	if val := args.Get(0); val != nil {
		receipts = val.([]message.MessageReceipt)
	}
	return receipts, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDeleteForUser(ctx context.Context, messageID, userID uuid.UUID) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) IsDeletedForUser(ctx context.Context, messageID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, messageID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) PurgeDeleted(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type DirectoryMock struct {
	mock.Mock
}

func (m *DirectoryMock) IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, otherID)
	return args.Bool(0), args.Error(1)
}

func (m *DirectoryMock) GetUser(ctx context.Context, id uuid.UUID) (user.Profile, error) {
	args := m.Called(ctx, id)
	var profile user.Profile
	if val := args.Get(0); val != nil {
		profile = val.(user.Profile)
	}
	return profile, args.Error(1)
}

func (m *DirectoryMock) Friends(ctx context.Context, userID uuid.UUID) ([]user.Profile, error) {
	args := m.Called(ctx, userID)
	var profiles []user.Profile
	if val := args.Get(0); val != nil {
		profiles = val.([]user.Profile)
	}
	return profiles, args.Error(1)
}

type BlobStoreMock struct {
	mock.Mock
}

func (m *BlobStoreMock) Save(ctx context.Context, data io.Reader, suggestedName string) (string, error) {
	args := m.Called(ctx, data, suggestedName)
	return args.String(0), args.Error(1)
}

func (m *BlobStoreMock) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	args := m.Called(ctx, path)
	var rc io.ReadCloser
	if val := args.Get(0); val != nil {
		rc = val.(io.ReadCloser)
	}
	return rc, args.Error(1)
}

func (m *BlobStoreMock) Remove(ctx context.Context, path string) error {
	args := m.Called(ctx, path)
	return args.Error(0)
}
