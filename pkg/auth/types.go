package auth

import "time"

// UserStatus represents the account state of a portal user
type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
	UserStatusDisabled UserStatus = "Disabled"
)

// User represents an authenticated portal user.
//
// Role is kept as a plain string so that unknown roles coming from the identity
// provider survive decoding; the rbac package decides what a role may do.
// Permissions is the allowlist of "resource:action" keys granted at sign-in.
type User struct {
	ID          string     `json:"_id"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	UserStatus  UserStatus `json:"userStatus"`
	Permissions []string   `json:"permissions"`
	DataCommons []string   `json:"dataCommons,omitempty"`
	Studies     []string   `json:"studies,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updateAt"`
}

// FullName returns the display name of the user
func (u *User) FullName() string {
	if u == nil {
		return ""
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// HasPermissionKey reports whether key is present in the user's allowlist
func (u *User) HasPermissionKey(key string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Permissions {
		if p == key {
			return true
		}
	}
	return false
}

// InDataCommons reports whether the user is assigned to the given data commons
func (u *User) InDataCommons(dataCommons string) bool {
	if u == nil || dataCommons == "" {
		return false
	}
	for _, dc := range u.DataCommons {
		if dc == dataCommons {
			return true
		}
	}
	return false
}

// AuthContext holds authenticated user information for a request
type AuthContext struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}

// IsAuthenticated reports whether the context carries a user
func (ac *AuthContext) IsAuthenticated() bool {
	return ac != nil && ac.User != nil
}
