package goals

import "errors"

var (
	ErrGoalNotFound  = errors.New("goal not found")
	ErrDuplicateGoal = errors.New("goal id already exists")
	ErrInvalidGoalID = errors.New("invalid goal id")
	ErrEmptyText     = errors.New("text is required")
	ErrTextTooLong   = errors.New("text is too long")
	ErrInvalidDate   = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidYear   = errors.New("invalid year")
	ErrFutureDate    = errors.New("date is in the future")
	ErrInvalidOrder  = errors.New("invalid goal order")
	// ErrUnknownUser means the account behind a still-valid token is gone.
	ErrUnknownUser = errors.New("user not found")
)

// IsClientError reports whether err was caused by the caller's input.
func IsClientError(err error) bool {
	for _, e := range []error{
		ErrGoalNotFound, ErrDuplicateGoal, ErrInvalidGoalID, ErrEmptyText,
		ErrTextTooLong, ErrInvalidDate, ErrInvalidYear, ErrFutureDate, ErrInvalidOrder,
		ErrUnknownUser,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}
