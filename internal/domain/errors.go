package domain

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable is returned when a source has no rows for an experiment.
var ErrDataUnavailable = errors.New("data unavailable")

// ConfigurationError reports an invalid run parameter. It is raised before
// any work starts.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s %s", e.Field, e.Reason)
}

// DataIntegrityError reports a record that breaks a data-model invariant.
type DataIntegrityError struct {
	Experiment    string
	ParticipantID int64
	Reason        string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: experiment %q participant %d: %s", e.Experiment, e.ParticipantID, e.Reason)
}

// ExternalError wraps a failure of the data store or another collaborator
// outside the core.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}
