package turso

import (
	"errors"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// external wraps driver failures as domain.ExternalError. Domain errors and
// ErrDataUnavailable pass through unchanged.
func external(op string, err error) error {
	if err == nil {
		return nil
	}
	var integrity *domain.DataIntegrityError
	if errors.As(err, &integrity) || errors.Is(err, domain.ErrDataUnavailable) {
		return err
	}
	return &domain.ExternalError{Op: op, Err: err}
}
