package accounts

import "errors"

var (
	// ErrInvalidCredentials is returned on unknown username or wrong password.
	// The two cases are deliberately indistinguishable to callers.
	ErrInvalidCredentials = errors.New("accounts: invalid credentials")
	// ErrInvalidRole is returned when registration names an unknown role.
	ErrInvalidRole = errors.New("accounts: invalid role")
	// ErrTokenExpired is returned for structurally valid but stale tokens.
	ErrTokenExpired = errors.New("accounts: token expired")
	// ErrUnauthenticated is returned when a request carries no usable token.
	ErrUnauthenticated = errors.New("accounts: unauthenticated")
	// ErrWeakPassword is returned when the password fails the length policy.
	ErrWeakPassword = errors.New("accounts: password must be at least 8 characters")
	// ErrNameRequired is returned when registration omits the full name.
	ErrNameRequired = errors.New("accounts: full name is required")
)
