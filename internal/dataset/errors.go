package dataset

import "fmt"

// DataError indicates an empty or malformed row set: nothing to train on, or a
// configured column that no row carries. It surfaces as a failed job, never as
// a crash.
type DataError struct {
	Reason string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("data error: %s", e.Reason)
}

func NewDataError(format string, args ...interface{}) *DataError {
	return &DataError{Reason: fmt.Sprintf(format, args...)}
}
