// Package accounts wires registration, login, and token-based authentication
// for the roster. New accounts never pick their own identifiers: the identity
// allocator assigns the user id and username, and the response carries both
// back to the caller.
package accounts
