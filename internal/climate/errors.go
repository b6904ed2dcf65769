package climate

import "fmt"

// InvalidInputError covers malformed station ids, bad dates, unknown
// profiles, and wrong station counts. Never retried, surfaced to the
// caller as-is.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string {
	return e.Msg
}

func invalidInput(format string, args ...any) error {
	return &InvalidInputError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidRangeError covers date ranges that parse but break the range
// contract, like spanning more than the maximum number of days.
type InvalidRangeError struct {
	Msg string
}

func (e *InvalidRangeError) Error() string {
	return e.Msg
}

func invalidRange(format string, args ...any) error {
	return &InvalidRangeError{Msg: fmt.Sprintf(format, args...)}
}

// StationNotFoundError marks lookups for stations the directory does
// not know about.
type StationNotFoundError struct {
	StationID string
}

func (e *StationNotFoundError) Error() string {
	return fmt.Sprintf("station %s not found", e.StationID)
}
