package library

import "errors"

var (
	// ErrInvalidInput marks a request that is missing a required field or
	// carries a value that cannot be parsed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrBookNotFound is returned when no book matches the requested title.
	ErrBookNotFound = errors.New("book not found")

	// ErrUserNotFound is returned by user lookups that match nothing.
	ErrUserNotFound = errors.New("user not found")

	// ErrUsernameTaken is returned by Register when the username already exists.
	ErrUsernameTaken = errors.New("username already exists")

	// ErrPasswordMismatch is returned by Register when password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrInvalidCredentials is returned by Login for an unknown username and
	// for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid username or password")
)
