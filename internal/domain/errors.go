package domain

import "errors"

var (
	// ErrQuizNotFound indicates no document exists under the requested title.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a user session has not been initialized.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoQuizSelected is returned when an attempt intent arrives before a quiz was selected.
	ErrNoQuizSelected = errors.New("no quiz selected")
	// ErrInvalidTransition rejects an operation invoked in a phase that forbids it.
	ErrInvalidTransition = errors.New("operation not allowed in current attempt phase")
	// ErrInvalidResponse rejects an out-of-range question position or option index.
	ErrInvalidResponse = errors.New("response out of range")
	// ErrStoreUnavailable wraps connectivity failures of the document store.
	ErrStoreUnavailable = errors.New("quiz store unavailable")
	// ErrDuplicateTitle is returned when adding a quiz under a title that already exists.
	ErrDuplicateTitle = errors.New("quiz title already exists")
	// ErrMalformedQuiz is returned when authoring input is not valid quiz JSON.
	ErrMalformedQuiz = errors.New("malformed quiz JSON")
)
