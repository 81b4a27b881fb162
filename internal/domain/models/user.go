package models

import "time"

// Roles
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// User is the safe view of an account; credentials never appear here
type User struct {
	BaseModel
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"lastLogin"`
}

// UserCredentials is the credential-bearing record used for authentication only
type UserCredentials struct {
	User
	PasswordHash string `json:"-"`
	PasswordSalt string `json:"-"`
}

// UserInput is the payload for creating a user
type UserInput struct {
	ID       string `json:"id,omitempty"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FullName string `json:"fullName"`
	Role     string `json:"role" validate:"omitempty,oneof=admin editor"`
}

// UserPatch is a partial update; nil fields are left unchanged.
// A non-nil Password is re-hashed with a fresh salt.
type UserPatch struct {
	Username *string `json:"username,omitempty" validate:"omitnil,min=1"`
	Email    *string `json:"email,omitempty" validate:"omitnil,email"`
	FullName *string `json:"fullName,omitempty"`
	Role     *string `json:"role,omitempty" validate:"omitnil,oneof=admin editor"`
	Password *string `json:"password,omitempty" validate:"omitnil,min=1"`
}

// Principal is what a successful credential check yields
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}
