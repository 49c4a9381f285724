package services

import (
	"context"
	"errors"
	"sort"

	"pairlock/internal/crypto"
	"pairlock/internal/repository"
	pairlock_errors "pairlock/pkg/errors"
	"pairlock/pkg/logger"

	"github.com/google/uuid"
)

// ConversationService builds the per-friend conversation list: latest
// decrypted message plus unread count, recomputed on every request.
type ConversationService struct {
	messages  repository.MessageRepository
	keys      *crypto.KeyProvider
	codec     *crypto.Codec
	directory Directory
	log       *logger.Logger
}

func NewConversationService(
	messages repository.MessageRepository,
	keys *crypto.KeyProvider,
	codec *crypto.Codec,
	directory Directory,
	log *logger.Logger,
) *ConversationService {
	return &ConversationService{
		messages:  messages,
		keys:      keys,
		codec:     codec,
		directory: directory,
		log:       log,
	}
}

// List returns one summary per friend. Friends with shared messages come
// first, newest traffic on top; friends the caller never talked to follow,
// ordered by name.
func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error) {
	friends, err := s.directory.Friends(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(friends))
	for _, friend := range friends {
		summary, err := s.summarize(ctx, userID, friend.ID)
		if err != nil {
			return nil, err
		}
		summary.Friend = friend
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LatestMessage, summaries[j].LatestMessage
		switch {
		case a != nil && b != nil:
			return a.CreatedAt.After(b.CreatedAt)
		case a != nil:
			return true
		case b != nil:
			return false
		default:
			return summaries[i].Friend.Name < summaries[j].Friend.Name
		}
	})
	return summaries, nil
}

func (s *ConversationService) summarize(ctx context.Context, userID, friendID uuid.UUID) (ConversationSummary, error) {
	summary := ConversationSummary{}

	latest, err := s.messages.GetLatestMessage(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, pairlock_errors.ErrNotFound) {
			// no shared messages yet
			return summary, nil
		}
		return ConversationSummary{}, err
	}

	unread, err := s.messages.CountUnread(ctx, userID, friendID)
	if err != nil {
		return ConversationSummary{}, err
	}
	summary.UnreadCount = unread

	key, err := s.keys.ConversationKey(userID, friendID)
	if err != nil {
		return ConversationSummary{}, err
	}

	receipts, err := s.messages.GetReceipts(ctx, latest.ID)
	if err != nil {
		return ConversationSummary{}, err
	}

	dto := decryptToDTO(s.codec, key, latest, receipts)
	if dto.Unavailable && s.log != nil {
		s.log.Errorf("undecryptable latest message %s for pair %s/%s", latest.ID, userID, friendID)
	}
	summary.LatestMessage = &dto
	return summary, nil
}
