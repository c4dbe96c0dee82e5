package main

import "fmt"

// ExitError carries a process exit code out of a RunE handler. A nil Err
// exits silently, which is how a tool's own failure status is passed on.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
