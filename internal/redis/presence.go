package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// PresenceStatus represents a user's online status
type PresenceStatus struct {
	UserID   string    `json:"user_id"`
	IsOnline bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// PresenceStore handles presence tracking in Redis. A user counts as online
// while their presence key has not expired.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

const presenceKeyPrefix = "presence:"

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{client: client, ttl: ttl}
}

// Touch refreshes a user's presence on activity.
func (p *PresenceStore) Touch(ctx context.Context, userID string) error {
	status := PresenceStatus{
		UserID:   userID,
		IsOnline: true,
		LastSeen: time.Now(),
	}
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return p.client.Set(ctx, presenceKeyPrefix+userID, data, p.ttl).Err()
}

// Get returns the cached presence for a user, or nil on a miss (user is
// treated as offline).
func (p *PresenceStore) Get(ctx context.Context, userID string) (*PresenceStatus, error) {
	data, err := p.client.Get(ctx, presenceKeyPrefix+userID).Result()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var status PresenceStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetMany fetches presence for a batch of users in one round trip. Missing
// entries are omitted from the result.
func (p *PresenceStore) GetMany(ctx context.Context, userIDs []string) (map[string]PresenceStatus, error) {
	if len(userIDs) == 0 {
		return map[string]PresenceStatus{}, nil
	}

	keys := make([]string, len(userIDs))
	for i, id := range userIDs {
		keys[i] = presenceKeyPrefix + id
	}

	values, err := p.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[string]PresenceStatus, len(userIDs))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var status PresenceStatus
		if err := json.Unmarshal([]byte(raw), &status); err != nil {
			continue
		}
		result[userIDs[i]] = status
	}
	return result, nil
}
