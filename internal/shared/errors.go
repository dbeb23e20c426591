package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict indicates the resource state forbids the operation.
	ErrConflict = errors.New("conflict")
	// ErrValidation indicates rejected input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserSafeMessage returns a message safe to show to the client. Known
// sentinels pass through; anything else is masked.
func UserSafeMessage(err error) string {
	for _, known := range []error{
		ErrNotFound, ErrAlreadyExists, ErrConflict,
		ErrValidation, ErrUnauthorized, ErrInvalidCredentials,
	} {
		if errors.Is(err, known) {
			return err.Error()
		}
	}
	return "something went wrong"
}
