package identity

import (
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of authorization roles an identity can hold.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is a member of the closed enumeration.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleGuide, RoleLeadGuide, RoleAdmin:
		return true
	}
	return false
}

// Identity is the default read model of a principal. It never carries the
// password hash; that lives on Credentials and stays inside the service
// layer. PasswordChangedAt is needed by the access guard but is not part of
// any external representation.
type Identity struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Email             string     `json:"email"`
	Photo             string     `json:"photo,omitempty"`
	Role              Role       `json:"role"`
	PasswordChangedAt *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// PasswordChangedSince reports whether the password was changed at or after
// the given token issue time. JWT iat has one-second resolution, so the
// comparison happens on Unix seconds; the write path stamps the change one
// second in the past to tolerate write-after-issue clock skew.
func (i *Identity) PasswordChangedSince(issuedAt time.Time) bool {
	if i.PasswordChangedAt == nil {
		return false
	}
	return i.PasswordChangedAt.Unix() >= issuedAt.Unix()
}

// Credentials extends Identity with the stored password hash for the two
// paths allowed to see it: login and self-service password change.
type Credentials struct {
	Identity
	PasswordHash string `json:"-"`
}

// ProfileUpdate carries the fields a principal may change about themselves.
// Nil means "leave unchanged". Password fields deliberately have no place
// here; they go through the dedicated password pipeline.
type ProfileUpdate struct {
	Name  *string
	Email *string
	Photo *string
}
