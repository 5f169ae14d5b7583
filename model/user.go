package model

import "time"

// Role identifies which dashboard a user belongs to.
type Role string

const (
	// RoleAdmin is a platform administrator.
	RoleAdmin Role = "admin"

	// RoleConsultant is a consultant serving one or more clients.
	RoleConsultant Role = "consultant"

	// RoleClient is a client of the consultancy.
	RoleClient Role = "client"
)

// User is a directory record for a message participant.
//
// Language is the user's preferred language code and is mutable. The
// orchestrator reads it at translation time rather than caching it at send
// time, so a preference change between send and translation takes effect on
// the pending message.
type User struct {
	ID          int64     `json:"id"`
	DisplayName string    `json:"displayName" db:"display_name"`
	Email       string    `json:"email" db:"email"`
	Role        Role      `json:"role" db:"role"`
	Language    string    `json:"language" db:"language"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// TableName returns the database table name for User.
func (u User) TableName() string {
	return tablePrefix + "user"
}

// PreferredLanguage returns the user's language, or fallback when unset.
func (u *User) PreferredLanguage(fallback string) string {
	if u.Language == "" {
		return fallback
	}
	return u.Language
}
