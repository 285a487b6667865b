package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrMissingActor       = errors.New("actor identity missing from token")
	ErrRoleNotAllowed     = errors.New("role not allowed for this operation")
)
