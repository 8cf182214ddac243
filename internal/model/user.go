package model

import "time"

// User roles. Admins run the economy but never hold a balance.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type User struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	PINHash     string    `json:"-"`
	AvatarEmoji string    `json:"avatar_emoji"`
	Role        string    `json:"role"`
	Balance     int       `json:"balance"`
	CreatedAt   time.Time `json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserStats holds the respect totals shown next to a user on the leaderboard.
type UserStats struct {
	Respects    int `json:"respects"`
	Disrespects int `json:"disrespects"`
}

// LeaderboardEntry is a member plus their respect totals, ordered by balance.
type LeaderboardEntry struct {
	User
	Stats UserStats `json:"stats"`
}
