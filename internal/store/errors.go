package store

import "errors"

var (
	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrAlreadyMember is returned when joining a household the user already
	// belongs to.
	ErrAlreadyMember = errors.New("already a household member")
)
