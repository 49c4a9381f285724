package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pairlock/internal/domain/message"
	pairlock_errors "pairlock/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MaxPageLimit caps a single page fetch regardless of what the caller asks for.
const MaxPageLimit = 100

type PostgresMessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Create(ctx context.Context, m *message.Message) error {
	if err := m.Validate(); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Create(m)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return pairlock_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	var m message.Message
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, pairlock_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) GetConversationPage(ctx context.Context, viewerID, friendID uuid.UUID, page, limit int) ([]message.Message, bool, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > MaxPageLimit {
		limit = MaxPageLimit
	}

	low, high := message.CanonicalPair(viewerID, friendID)

	q := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("pair_low = ? AND pair_high = ?", low, high).
		Where("id NOT IN (?)", r.deletedForSubquery(viewerID))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, false, err
	}

	var messages []message.Message
	offset := (page - 1) * limit
	// created_at with id as tie-break keeps the order stable across pages
	err := q.
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, false, err
	}

	hasMore := int64(offset+len(messages)) < total
	return messages, hasMore, nil
}

func (r *PostgresMessageRepository) MarkConversationRead(ctx context.Context, viewerID, friendID uuid.UUID) error {
	low, high := message.CanonicalPair(viewerID, friendID)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		readSub := tx.Model(&message.MessageReceipt{}).
			Select("message_id").
			Where("user_id = ?", viewerID)

		var ids []uuid.UUID
		err := tx.Model(&message.Message{}).
			Where("pair_low = ? AND pair_high = ? AND sender_id = ?", low, high, friendID).
			Where("id NOT IN (?)", readSub).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		now := time.Now()
		receipts := make([]message.MessageReceipt, 0, len(ids))
		for _, id := range ids {
			receipts = append(receipts, message.MessageReceipt{
				MessageID: id,
				UserID:    viewerID,
				ReadAt:    now,
			})
		}
		// concurrent markRead calls race on the same receipt rows
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&receipts).Error; err != nil {
			return err
		}

		// Two-party conversation: the single non-sender participant has now
		// read these messages, so they converge to READ.
		return tx.Model(&message.Message{}).
			Where("id IN ?", ids).
			Update("status", message.StatusRead).Error
	})
}

func (r *PostgresMessageRepository) GetLatestMessage(ctx context.Context, viewerID, friendID uuid.UUID) (message.Message, error) {
	low, high := message.CanonicalPair(viewerID, friendID)

	var m message.Message
	err := r.db.WithContext(ctx).
		Where("pair_low = ? AND pair_high = ?", low, high).
		Where("id NOT IN (?)", r.deletedForSubquery(viewerID)).
		Order("created_at DESC, id DESC").
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return message.Message{}, pairlock_errors.ErrNotFound
		}
		return message.Message{}, err
	}
	return m, nil
}

func (r *PostgresMessageRepository) CountUnread(ctx context.Context, viewerID, friendID uuid.UUID) (int64, error) {
	low, high := message.CanonicalPair(viewerID, friendID)

	readSub := r.db.Model(&message.MessageReceipt{}).
		Select("message_id").
		Where("user_id = ?", viewerID)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.Message{}).
		Where("pair_low = ? AND pair_high = ? AND sender_id = ?", low, high, friendID).
		Where("id NOT IN (?)", readSub).
		Where("id NOT IN (?)", r.deletedForSubquery(viewerID)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresMessageRepository) GetReceipts(ctx context.Context, messageID uuid.UUID) ([]message.MessageReceipt, error) {
	var receipts []message.MessageReceipt
	err := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("read_at ASC").
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *PostgresMessageRepository) GetReceiptsForMessages(ctx context.Context, messageIDs []uuid.UUID) ([]message.MessageReceipt, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}
	var receipts []message.MessageReceipt
	err := r.db.WithContext(ctx).
		Where("message_id IN ?", messageIDs).
		Find(&receipts).Error
	if err != nil {
		return nil, err
	}
	return receipts, nil
}

func (r *PostgresMessageRepository) SoftDeleteForUser(ctx context.Context, messageID, userID uuid.UUID) error {
	state := message.MessageUserState{
		MessageID: messageID,
		UserID:    userID,
		IsDeleted: true,
		DeletedAt: sql.NullTime{Time: time.Now(), Valid: true},
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_deleted", "deleted_at"}),
		}).
		Create(&state).Error
}

func (r *PostgresMessageRepository) IsDeletedForUser(ctx context.Context, messageID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&message.MessageUserState{}).
		Where("message_id = ? AND user_id = ? AND is_deleted", messageID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresMessageRepository) PurgeDeleted(ctx context.Context) (int64, error) {
	var purged int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		err := tx.Model(&message.Message{}).
			Select("messages.id").
			Joins("JOIN message_user_states a ON a.message_id = messages.id AND a.user_id = messages.pair_low AND a.is_deleted").
			Joins("JOIN message_user_states b ON b.message_id = messages.id AND b.user_id = messages.pair_high AND b.is_deleted").
			Pluck("messages.id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("message_id IN ?", ids).Delete(&message.MessageReceipt{}).Error; err != nil {
			return err
		}
		if err := tx.Where("message_id IN ?", ids).Delete(&message.MessageUserState{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&message.Message{})
		if res.Error != nil {
			return res.Error
		}
		purged = res.RowsAffected
		return nil
	})
	return purged, err
}

func (r *PostgresMessageRepository) deletedForSubquery(userID uuid.UUID) *gorm.DB {
	return r.db.Model(&message.MessageUserState{}).
		Select("message_id").
		Where("user_id = ? AND is_deleted", userID)
}
