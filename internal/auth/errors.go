package auth

import "errors"

var (
	// ErrInvalidToken indicates a token failed signature, expiry or shape checks.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrUnauthenticated indicates the caller could not be tied to a live user.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the caller's role does not satisfy the operation's policy.
	ErrForbidden = errors.New("forbidden")
	// ErrPasswordTooLong indicates a password beyond bcrypt's 72 byte input limit.
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")
)
