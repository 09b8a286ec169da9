package ledger

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of a User.
type Role string

const (
	RoleStudent   Role = "student"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// DefaultRole is assigned when a User registers without a role.
const DefaultRole = RoleStudent

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	return r == RoleStudent || r == RoleLibrarian || r == RoleAdmin
}

// IsStaff reports whether r may manage the catalog and circulation (return books, list all borrowings).
func (r Role) IsStaff() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

// IsAdmin reports whether r may manage users and run maintenance operations.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// User is a library account. PasswordHash never leaves the process.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Summary returns the UserSummary of u.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks the attribute rules of a User before it is created.
func (u User) Validate() error {
	switch {
	case u.ID == uuid.Nil:
		return invalidInput("user id must be set")
	case u.Name == "":
		return invalidInput("name must not be empty")
	case u.PasswordHash == "":
		return invalidInput("password hash must not be empty")
	case !u.Role.IsValid():
		return invalidInput("unknown role %q", u.Role)
	}

	return validateEmail(u.Email)
}

// UserUpdate carries a partial account change. Nil fields are left untouched.
type UserUpdate struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Role         *Role   `json:"role,omitempty"`
	PasswordHash *string `json:"-"`
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Role == nil && u.PasswordHash == nil
}

// Normalize returns a copy of u with a trimmed name and a normalized email.
func (u UserUpdate) Normalize() UserUpdate {
	u.Name = trimmed(u.Name)

	if u.Email != nil {
		email := NormalizeEmail(*u.Email)
		u.Email = &email
	}

	return u
}

// Validate checks the fields that are set.
func (u UserUpdate) Validate() error {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return invalidInput("name must not be empty")
	}

	if u.Email != nil {
		if err := validateEmail(*u.Email); err != nil {
			return err
		}
	}

	if u.Role != nil && !u.Role.IsValid() {
		return invalidInput("unknown role %q", *u.Role)
	}

	if u.PasswordHash != nil && *u.PasswordHash == "" {
		return invalidInput("password hash must not be empty")
	}

	return nil
}

// ApplyTo returns user with the update applied.
func (u UserUpdate) ApplyTo(user User) User {
	if u.Name != nil {
		user.Name = strings.TrimSpace(*u.Name)
	}
	if u.Email != nil {
		user.Email = NormalizeEmail(*u.Email)
	}
	if u.Role != nil {
		user.Role = *u.Role
	}
	if u.PasswordHash != nil {
		user.PasswordHash = *u.PasswordHash
	}

	return user
}

func validateEmail(email string) error {
	if email == "" {
		return invalidInput("email must not be empty")
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return invalidInput("email %q is not a valid address", email)
	}

	return nil
}
