package ports

import (
	"context"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// AssignmentSource supplies the assignments of one experiment.
type AssignmentSource interface {
	// Fetch returns the assignments ordered by participant ID. It fails with
	// domain.ErrDataUnavailable when no rows match.
	Fetch(ctx context.Context, experiment string) ([]domain.Assignment, error)
}

// ArmCount is the number of assignments in one arm.
type ArmCount struct {
	Arm   domain.Arm
	Count int64
}

// AssignmentStore loads and inspects assignments.
type AssignmentStore interface {
	AssignmentSource
	// Import inserts assignments. Re-importing an existing key with the same
	// arm is a no-op; a different arm is a domain.DataIntegrityError.
	Import(ctx context.Context, assignments []domain.Assignment) (int, error)
	CountByArm(ctx context.Context, experiment string) ([]ArmCount, error)
	Preview(ctx context.Context, limit int) ([]domain.Assignment, error)
}
