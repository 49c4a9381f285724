package directory

import (
	"context"

	"pairlock/internal/domain/user"
	"pairlock/internal/redis"
	"pairlock/internal/repository"

	"github.com/google/uuid"
)

// Service resolves friendship and identity/presence from the surrounding
// application's tables, decorated with Redis presence when available.
type Service struct {
	repo     repository.FriendshipRepository
	presence *redis.PresenceStore
}

func NewService(repo repository.FriendshipRepository, presence *redis.PresenceStore) *Service {
	return &Service{repo: repo, presence: presence}
}

func (s *Service) IsFriend(ctx context.Context, userID, otherID uuid.UUID) (bool, error) {
	return s.repo.AreFriends(ctx, userID, otherID)
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (user.Profile, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return user.Profile{}, err
	}

	profile := toProfile(u)
	if s.presence != nil {
		if status, err := s.presence.Get(ctx, id.String()); err == nil && status != nil {
			profile.IsOnline = status.IsOnline
			lastSeen := status.LastSeen
			profile.LastSeen = &lastSeen
		}
	}
	return profile, nil
}

func (s *Service) Friends(ctx context.Context, userID uuid.UUID) ([]user.Profile, error) {
	ids, err := s.repo.GetFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	users, err := s.repo.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var statuses map[string]redis.PresenceStatus
	if s.presence != nil {
		keys := make([]string, len(users))
		for i, u := range users {
			keys[i] = u.ID.String()
		}
		// presence is best effort; a Redis failure degrades to offline
		statuses, _ = s.presence.GetMany(ctx, keys)
	}

	profiles := make([]user.Profile, 0, len(users))
	for _, u := range users {
		profile := toProfile(u)
		if status, ok := statuses[u.ID.String()]; ok {
			profile.IsOnline = status.IsOnline
			lastSeen := status.LastSeen
			profile.LastSeen = &lastSeen
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func toProfile(u user.User) user.Profile {
	profile := user.Profile{
		ID:   u.ID,
		Name: u.Name,
	}
	if u.AvatarURL.Valid {
		profile.Avatar = u.AvatarURL.String
	}
	if u.LastSeen.Valid {
		lastSeen := u.LastSeen.Time
		profile.LastSeen = &lastSeen
	}
	return profile
}
