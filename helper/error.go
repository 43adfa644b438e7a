package helper

import "fmt"

// NewError wraps an error with the context of the failed operation.
// All packages use this for consistent error messages of the form
// "error <operation>: <cause>".
func NewError(operation string, err error) error {
	return fmt.Errorf("error %v: %w", operation, err)
}
