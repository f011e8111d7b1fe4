package entity

import (
	"time"
)

// Role values are flat; there is no hierarchy between them.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the aggregate root for the account domain.
// Passwords are stored as bcrypt hashes in Password.
type User struct {
	ID       string
	FullName string
	Email    string
	Password string
	Role     string

	// Email verification. Code and expiry are cleared once verified.
	IsVerified       bool
	VerificationCode string
	CodeExpiresAt    *time.Time

	// Login lockout. The account rejects logins while LockUntil is in the future.
	LoginAttempts int
	LockUntil     *time.Time

	// Course references, set semantics (no duplicates).
	EnrolledCourseIDs []string
	PremiumCourseIDs  []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLocked reports whether the account is locked out at the given instant.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// CodeValid reports whether code matches the stored verification code and the
// code has not expired. The boundary is strict: a code presented exactly at
// its expiry instant is rejected.
func (u *User) CodeValid(code string, now time.Time) bool {
	if u.VerificationCode == "" || u.CodeExpiresAt == nil {
		return false
	}
	return u.VerificationCode == code && now.Before(*u.CodeExpiresAt)
}

// Sanitized returns the user shape safe to serialize in API responses.
func (u *User) Sanitized() map[string]any {
	return map[string]any{
		"id":              u.ID,
		"fullName":        u.FullName,
		"email":           u.Email,
		"role":            u.Role,
		"isVerified":      u.IsVerified,
		"enrolledCourses": u.EnrolledCourseIDs,
		"premiumCourses":  u.PremiumCourseIDs,
		"createdAt":       u.CreatedAt,
	}
}
