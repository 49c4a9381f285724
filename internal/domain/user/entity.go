package user

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User represents the users table. Pairlock only reads this table; account
// management belongs to the surrounding application.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"uniqueIndex"`
	Name      string
	AvatarURL sql.NullString
	LastSeen  sql.NullTime
	CreatedAt time.Time
}

// Friendship represents the friendships table, one row per accepted pair.
// Like messages, the pair is stored in canonical sorted order.
type Friendship struct {
	UserLow   uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserHigh  uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

func (User) TableName() string {
	return "users"
}

func (Friendship) TableName() string {
	return "friendships"
}

// Profile is the identity/presence shape handed to conversation summaries.
type Profile struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Avatar   string     `json:"avatar,omitempty"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
	IsOnline bool       `json:"is_online"`
}
