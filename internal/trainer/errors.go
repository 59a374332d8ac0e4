package trainer

import "fmt"

// ValidationError indicates a bad TrainingConfig. It is the caller's fault
// and is surfaced synchronously, before any job is created.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid training config: %s: %s", e.Field, e.Reason)
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// NotReadyError is raised synchronously when predict or export is called on a
// job that has not reached the completed state. The job itself is unchanged.
type NotReadyError struct {
	JobID string
	State State
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("job %s is not ready: state is %s", e.JobID, e.State)
}

// ExternalFetchError wraps failures of the catalog, import or row-store
// collaborators. During the background sequence it lands the job in the
// failed state.
type ExternalFetchError struct {
	Op  string
	Err error
}

func (e *ExternalFetchError) Error() string {
	return fmt.Sprintf("external fetch failed during %s: %v", e.Op, e.Err)
}

func (e *ExternalFetchError) Unwrap() error {
	return e.Err
}
