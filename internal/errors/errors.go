package errors

import "errors"

// Sentinel errors for the application. Services return these (wrapped with
// context via fmt.Errorf and %w) instead of HTTP status codes; the API layer
// maps them with errors.Is, keeping business logic decoupled from transport.

var (
	// ErrNotFound signifies that a requested resource could not be located.
	// Typically mapped to 404 Not Found.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that client input failed validation.
	// Typically mapped to 400 Bad Request.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation conflicts with the current
	// state of a resource, most often a send issued while another send is
	// still streaming for the same user.
	// Typically mapped to 409 Conflict.
	ErrConflict = errors.New("resource conflict")

	// ErrInternal signifies an unexpected server-side error. Used to avoid
	// leaking implementation details to the client.
	// Typically mapped to 500 Internal Server Error.
	ErrInternal = errors.New("internal server error")
)
