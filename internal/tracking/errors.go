package tracking

import "github.com/geocoder89/clocktrack/internal/temporal"

const (
	MsgInvalidStartTime = "Invalid start time"
	MsgInvalidEndTime   = "Invalid end time"
	MsgInvalidRange     = "Start time must be before end time"
)

// ValidationError is a rejected input field. Err is one of the temporal sentinels.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalidStart() error {
	return &ValidationError{Field: "startTime", Message: MsgInvalidStartTime, Err: temporal.ErrInvalidTimestamp}
}

func invalidEnd() error {
	return &ValidationError{Field: "endTime", Message: MsgInvalidEndTime, Err: temporal.ErrInvalidTimestamp}
}

func invalidRange() error {
	return &ValidationError{Field: "endTime", Message: MsgInvalidRange, Err: temporal.ErrInvalidRange}
}
