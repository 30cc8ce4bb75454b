package models

import "time"

type UserRole string

const (
	RoleManager UserRole = "manager"
	RolePlayer  UserRole = "player"
)

func (r UserRole) Valid() bool {
	return r == RoleManager || r == RolePlayer
}

type User struct {
	ID                   int       `json:"id" db:"id"`
	DisplayName          string    `json:"display_name" db:"display_name"`
	DisplayNameLowercase string    `json:"-" db:"display_name_lowercase"`
	Email                string    `json:"email" db:"email"`
	TeamID               *int      `json:"team_id,omitempty" db:"team_id"`
	Role                 *UserRole `json:"role,omitempty" db:"role"`
	Goals                int       `json:"goals" db:"goals"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"photo_url,omitempty" db:"-"`
}
