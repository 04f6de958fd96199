package models

import "time"

// User represents a registered account holder
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // bcrypt hash, never serialized
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserInput holds the fields needed to create a user
type UserInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
}

// Validate reports the first missing registration field
func (in UserInput) Validate() error {
	switch {
	case in.Username == "":
		return NewValidationError("username is required")
	case in.Password == "":
		return NewValidationError("password is required")
	case in.Name == "":
		return NewValidationError("name is required")
	case in.Email == "":
		return NewValidationError("email is required")
	}
	return nil
}

// Principal is the authenticated identity attached to a request
type Principal struct {
	ID int64
}
