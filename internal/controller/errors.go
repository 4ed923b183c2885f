package controller

import (
	"errors"
	"fmt"

	"github.com/RobertBroersma/dmx-hackathon/internal/animation"
)

var (
	ErrMissingField  = errors.New("missing field")
	ErrColorType     = errors.New("color must be a string")
	ErrColorValue    = errors.New("color must be #RRGGBB")
	ErrDurationType  = errors.New("duration must not be null")
	ErrDurationValue = errors.New("duration must be a non-negative number")
	ErrEaseType      = errors.New("ease must be a string")
	ErrUnknownEase   = animation.ErrUnknownEase
	ErrMissingEase   = animation.ErrMissingEase
)

// InvalidRequestError reports a request field that failed validation.
// Cause wraps one of the Err* sentinels.
type InvalidRequestError struct {
	Cause error
	Field string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s: %v", e.Field, e.Cause)
}

func (e *InvalidRequestError) Unwrap() error {
	return e.Cause
}

// SetLEDError reports a failure to push a color to the device.
type SetLEDError struct {
	Cause error
}

func (e *SetLEDError) Error() string {
	return fmt.Sprintf("set led: %v", e.Cause)
}

func (e *SetLEDError) Unwrap() error {
	return e.Cause
}

func invalid(field string, cause error) error {
	return &InvalidRequestError{Field: field, Cause: cause}
}
