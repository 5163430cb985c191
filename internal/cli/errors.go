package cli

import "fmt"

// ExitError lets command RunE functions signal a specific exit code without
// calling os.Exit directly, so tests can assert on codes without process
// termination. [Execute] performs the actual exit.
type ExitError struct {
	// Code is the exit code to return to the shell.
	Code int
}

// Error returns "exit status N", matching the os/exec format.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// NewExitError creates an [ExitError] with the given exit code.
func NewExitError(code int) *ExitError {
	return &ExitError{Code: code}
}

// IsExitError reports whether err is an [ExitError] and extracts its code.
func IsExitError(err error) (int, bool) {
	if exitErr, ok := err.(*ExitError); ok {
		return exitErr.Code, true
	}
	return 0, false
}
