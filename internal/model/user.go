package model

import "slices"

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is immutable once fetched; it is only ever removed, never edited.
type User struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Status           UserStatus `json:"status"`
	Region           string     `json:"region"`
	RegistrationDate string     `json:"registrationDate"`
}

func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

// CloneUsers returns a copy that shares no backing array with users.
// A nil input yields an empty, non-nil slice so JSON renders [] instead of null.
func CloneUsers(users []User) []User {
	if users == nil {
		return []User{}
	}
	return slices.Clone(users)
}

type AuthUser struct {
	Username string `json:"username"`
}
