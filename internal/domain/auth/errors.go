package auth

import "errors"

var (
	ErrUserNotFound      = errors.New("user not registered")
	ErrInvalidRole       = errors.New("role must be worker or employer")
	ErrCustomIDExhausted = errors.New("could not allocate a unique custom id")
	ErrPasswordTooShort  = errors.New("password must be at least 4 characters")
)
