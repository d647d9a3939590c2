package registry

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// UnknownToolError is returned when the tool name is not registered.
// The message enumerates all valid names, so an agent can correct the call.
type UnknownToolError struct {
	Name  string
	Valid []string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("tool %q is not registered, available tools: %s", e.Name, strings.Join(e.Valid, ", "))
}

// DuplicateNameError is returned when a name is registered twice without overwrite.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// ConstructionError is returned when a tool fails to construct or set up.
// It unwraps to the error of the tool.
type ConstructionError struct {
	Name string
	Err  error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("failed to construct %s: %s", e.Name, e.Err.Error())
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

// IsUnknownTool returns true if err is UnknownToolError
func IsUnknownTool(err error) bool {
	var e *UnknownToolError
	return errors.As(err, &e)
}

// IsDuplicateName returns true if err is DuplicateNameError
func IsDuplicateName(err error) bool {
	var e *DuplicateNameError
	return errors.As(err, &e)
}

// IsConstruction returns true if err is ConstructionError
func IsConstruction(err error) bool {
	var e *ConstructionError
	return errors.As(err, &e)
}
