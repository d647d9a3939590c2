package tools

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Modes
const (
	ModeRemote = "remote"
	ModeLocal  = "local"
)

var (
	// ErrFailedUnmarshalInput is returned when the agent input can not be mapped to tool arguments
	ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")
	// ErrInvalidOutput is returned when the model did not produce the expected output
	ErrInvalidOutput = errors.New("model returned no output")
)

// UnsupportedModeError is returned when a tool is invoked in a mode it does not implement.
type UnsupportedModeError struct {
	Tool string
	Mode string
}

func (e *UnsupportedModeError) Error() string {
	return fmt.Sprintf("%s does not support %s mode", e.Tool, e.Mode)
}

// IsUnsupportedMode returns true if the error is UnsupportedModeError
func IsUnsupportedMode(err error) bool {
	var e *UnsupportedModeError
	return errors.As(err, &e)
}
