package broker

import (
	"errors"
	"fmt"
)

// VenueError wraps an upstream API or network failure from an execution
// venue. It is recoverable: callers surface it per-call and keep running.
type VenueError struct {
	Venue string
	Op    string
	Err   error
}

func (e *VenueError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Venue, e.Op, e.Err)
}

func (e *VenueError) Unwrap() error {
	return e.Err
}

// WrapErr wraps err as a *VenueError, passing nil through.
func WrapErr(venue, op string, err error) error {
	if err == nil {
		return nil
	}
	return &VenueError{Venue: venue, Op: op, Err: err}
}

// IsVenueError reports whether err is (or wraps) a *VenueError.
func IsVenueError(err error) bool {
	var ve *VenueError
	return errors.As(err, &ve)
}
