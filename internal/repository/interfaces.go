package repository

import (
	"context"

	"pairlock/internal/domain/message"
	"pairlock/internal/domain/user"

	"github.com/google/uuid"
)

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)

	// GetConversationPage returns messages for the viewer's side of the
	// conversation, newest first, offset-paginated. The second return value
	// reports whether more pages exist.
	GetConversationPage(ctx context.Context, viewerID, friendID uuid.UUID, page, limit int) ([]message.Message, bool, error)

	// MarkConversationRead adds a read receipt for every message from
	// friendID not yet read by viewerID and converges message status to READ.
	// Calling it twice is a no-op the second time.
	MarkConversationRead(ctx context.Context, viewerID, friendID uuid.UUID) error

	GetLatestMessage(ctx context.Context, viewerID, friendID uuid.UUID) (message.Message, error)
	CountUnread(ctx context.Context, viewerID, friendID uuid.UUID) (int64, error)
	GetReceipts(ctx context.Context, messageID uuid.UUID) ([]message.MessageReceipt, error)
	GetReceiptsForMessages(ctx context.Context, messageIDs []uuid.UUID) ([]message.MessageReceipt, error)

	SoftDeleteForUser(ctx context.Context, messageID, userID uuid.UUID) error
	IsDeletedForUser(ctx context.Context, messageID, userID uuid.UUID) (bool, error)

	// PurgeDeleted permanently removes messages every participant has
	// deleted. Returns the number of purged messages.
	PurgeDeleted(ctx context.Context) (int64, error)
}

type FriendshipRepository interface {
	AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error)
	GetFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error)
	GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error)
}
