package host

import "fmt"

// Error carries context for a failed host operation. The guest never sees it;
// the service logs it and carries on.
type Error struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("host %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("host %s failed: %s", e.Operation, e.Details)
}

func (e *Error) Unwrap() error { return e.Err }
