package engine

import (
	"errors"
	"fmt"
)

// UserError is a violated business precondition.
//
// The caller's state is unchanged and Message is safe to show verbatim.
// Retrying the same request will fail the same way until the state changes.
type UserError struct {
	// Code identifies the error category.
	Code UserErrorCode

	// Message is a human-readable description.
	Message string
}

// UserErrorCode categorizes user errors.
type UserErrorCode string

const (
	// ErrCodeAlreadyNominated indicates the user already has an open nomination
	// (or the film ID was already used).
	ErrCodeAlreadyNominated UserErrorCode = "ALREADY_NOMINATED"

	// ErrCodeInvalidNomination indicates a nomination with a blank name or bad ID.
	ErrCodeInvalidNomination UserErrorCode = "INVALID_NOMINATION"

	// ErrCodeNotRegistered indicates the user has never nominated.
	ErrCodeNotRegistered UserErrorCode = "NOT_REGISTERED"

	// ErrCodeOwnFilm indicates a vote for the caller's own nomination.
	ErrCodeOwnFilm UserErrorCode = "OWN_FILM"

	// ErrCodeUnknownFilm indicates the film ID is not a nominated film.
	ErrCodeUnknownFilm UserErrorCode = "UNKNOWN_FILM"

	// ErrCodeNoAttendees indicates a watch started with nobody present.
	ErrCodeNoAttendees UserErrorCode = "NO_ATTENDEES"

	// ErrCodeUnknownUser indicates a present user who has never nominated.
	ErrCodeUnknownUser UserErrorCode = "UNKNOWN_USER"

	// ErrCodeWatchCooldown indicates the previous watch started less than
	// WatchCooldown ago.
	ErrCodeWatchCooldown UserErrorCode = "WATCH_COOLDOWN"

	// ErrCodeNothingWatched indicates attendance with no watched film.
	ErrCodeNothingWatched UserErrorCode = "NOTHING_WATCHED"

	// ErrCodeNotStarted indicates attendance before the latest watch began.
	ErrCodeNotStarted UserErrorCode = "NOT_STARTED"

	// ErrCodeAttendanceClosed indicates attendance after the window closed.
	ErrCodeAttendanceClosed UserErrorCode = "ATTENDANCE_CLOSED"

	// ErrCodeInvalidPage indicates a bad page size or continuation key.
	ErrCodeInvalidPage UserErrorCode = "INVALID_PAGE"
)

// Error implements the error interface.
func (e *UserError) Error() string {
	return e.Message
}

// ConflictError reports a conditional write rejected because another request
// changed the guarded state between our read and our write. Re-running the
// whole operation against fresh state may succeed.
type ConflictError struct {
	// Op is the engine operation that lost the race.
	Op string

	// Err is the underlying store rejection.
	Err error
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: concurrent modification: %v", e.Op, e.Err)
}

// Unwrap returns the store rejection.
func (e *ConflictError) Unwrap() error {
	return e.Err
}

// IsUserError returns true if the error is a *UserError.
// Uses errors.As to handle wrapped errors.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

// UserErrorCodeOf returns the code of a *UserError, or "" for other errors.
func UserErrorCodeOf(err error) UserErrorCode {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ""
}

// IsConflict returns true if the error is a *ConflictError.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func userErrorf(code UserErrorCode, format string, args ...any) *UserError {
	return &UserError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func newAlreadyNominatedError() *UserError {
	return userErrorf(ErrCodeAlreadyNominated, "Unable to nominate a film as you have already nominated one")
}

func newUnknownFilmError(filmID string) *UserError {
	return userErrorf(ErrCodeUnknownFilm, "There is no nominated film with that (%s)", filmID)
}
