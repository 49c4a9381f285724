package repository

import (
	"context"
	"errors"
	"strings"

	"pairlock/internal/domain/user"
	pairlock_errors "pairlock/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresFriendshipRepository struct {
	db *gorm.DB
}

func NewFriendshipRepository(db *gorm.DB) FriendshipRepository {
	return &PostgresFriendshipRepository{db: db}
}

func (r *PostgresFriendshipRepository) AreFriends(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	low, high := orderedPair(userID, otherID)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&user.Friendship{}).
		Where("user_low = ? AND user_high = ?", low, high).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFriendshipRepository) GetFriendIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var friendships []user.Friendship
	err := r.db.WithContext(ctx).
		Where("user_low = ? OR user_high = ?", userID, userID).
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(friendships))
	for _, f := range friendships {
		if f.UserLow == userID {
			ids = append(ids, f.UserHigh)
		} else {
			ids = append(ids, f.UserLow)
		}
	}
	return ids, nil
}

func (r *PostgresFriendshipRepository) GetUserByID(ctx context.Context, id uuid.UUID) (user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, pairlock_errors.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *PostgresFriendshipRepository) GetUsersByIDs(ctx context.Context, ids []uuid.UUID) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []user.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func orderedPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if strings.Compare(a.String(), b.String()) <= 0 {
		return a, b
	}
	return b, a
}
