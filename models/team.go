package models

import "time"

type Team struct {
	ID            int       `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	NameLowercase string    `json:"-" db:"name_lowercase"`
	Points        int       `json:"points" db:"points"`
	ManagerID     int       `json:"manager_id" db:"manager_id"`
	Members       []int     `json:"members" db:"members"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`

	LogoKey  *string `json:"-" db:"logo_key"`
	LogoURL  *string `json:"logo_url,omitempty" db:"-"`
	CoverKey *string `json:"-" db:"cover_key"`
	CoverURL *string `json:"cover_url,omitempty" db:"-"`
}

// HasMember reports whether the user id is part of the team roster.
func (t *Team) HasMember(userID int) bool {
	for _, id := range t.Members {
		if id == userID {
			return true
		}
	}
	return false
}
