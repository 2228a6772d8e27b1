package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole string

const (
	// RoleGuest is an unauthenticated or provisional account
	RoleGuest UserRole = "guest"
	// RoleMember is a regular account (view, edit own records)
	RoleMember UserRole = "member"
	// RoleAdmin is an administrator (member plus account management)
	RoleAdmin UserRole = "admin"
)

// User is the identity record. Email is unique at the storage layer; the
// unique constraint is the only safeguard against concurrent duplicate
// registrations. EmailVerified only ever moves false -> true.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role          UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName     string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName      string     `bun:"last_name,notnull" json:"last_name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash" json:"-"`
	EmailVerified bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// VerificationStatus derives the lifecycle state from the persisted flag.
func (u *User) VerificationStatus() VerificationStatus {
	if u == nil {
		return ""
	}
	if u.EmailVerified {
		return VerificationConfirmed
	}
	return VerificationPending
}

// NormalizeEmail lowercases and trims an email address. Every write and
// lookup goes through this so "A@X.com" and "a@x.com" are the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleGuest, RoleMember, RoleAdmin:
		return true
	default:
		return false
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(roleStr)
	return role, role.IsValid()
}
