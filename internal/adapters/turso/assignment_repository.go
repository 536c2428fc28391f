package turso

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/infrastructure/database"
	"github.com/emiliopalmerini/abeval/internal/ports"
)

type AssignmentRepository struct {
	client *database.Client
}

func NewAssignmentRepository(client *database.Client) *AssignmentRepository {
	return &AssignmentRepository{client: client}
}

func (r *AssignmentRepository) Fetch(ctx context.Context, experiment string) ([]domain.Assignment, error) {
	assignments, err := database.Do(ctx, r.client, "fetch assignments", func(ctx context.Context) ([]domain.Assignment, error) {
		rows, err := r.client.QueryContext(ctx, `
			SELECT participant_id, experiment_name, arm
			FROM experiment_assignments
			WHERE experiment_name = ?
			ORDER BY participant_id`, experiment)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanAssignments(rows)
	})
	if err != nil {
		return nil, external("fetch assignments", err)
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("assignments for %q: %w", experiment, domain.ErrDataUnavailable)
	}
	return assignments, nil
}

func (r *AssignmentRepository) Import(ctx context.Context, assignments []domain.Assignment) (int, error) {
	for _, a := range assignments {
		if !a.Arm.Valid() {
			return 0, &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: "unknown arm " + string(a.Arm)}
		}
	}

	n, err := database.Do(ctx, r.client, "import assignments", func(ctx context.Context) (int, error) {
		tx, err := r.client.BeginTx(ctx, nil)
		if err != nil {
			return 0, err
		}
		defer tx.Rollback()

		now := time.Now().UTC().Format(time.RFC3339)
		inserted := 0
		for _, a := range assignments {
			var existing string
			err := tx.QueryRowContext(ctx, `
				SELECT arm FROM experiment_assignments
				WHERE participant_id = ? AND experiment_name = ?`, a.ParticipantID, a.Experiment).Scan(&existing)
			switch {
			case errors.Is(err, sql.ErrNoRows):
			case err != nil:
				return 0, err
			case existing == string(a.Arm):
				continue
			default:
				return 0, &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: "already assigned to arm " + existing}
			}

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO experiment_assignments (participant_id, experiment_name, arm, created_at)
				VALUES (?, ?, ?, ?)`, a.ParticipantID, a.Experiment, string(a.Arm), now); err != nil {
				return 0, err
			}
			inserted++
		}

		if err := tx.Commit(); err != nil {
			return 0, err
		}
		return inserted, nil
	})
	if err != nil {
		return 0, external("import assignments", err)
	}
	return n, nil
}

func (r *AssignmentRepository) CountByArm(ctx context.Context, experiment string) ([]ports.ArmCount, error) {
	counts, err := database.Do(ctx, r.client, "count assignments", func(ctx context.Context) ([]ports.ArmCount, error) {
		rows, err := r.client.QueryContext(ctx, `
			SELECT arm, COUNT(*)
			FROM experiment_assignments
			WHERE experiment_name = ?
			GROUP BY arm
			ORDER BY arm`, experiment)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []ports.ArmCount
		for rows.Next() {
			var arm string
			var c ports.ArmCount
			if err := rows.Scan(&arm, &c.Count); err != nil {
				return nil, err
			}
			c.Arm = domain.Arm(arm)
			out = append(out, c)
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, external("count assignments", err)
	}
	return counts, nil
}

func (r *AssignmentRepository) Preview(ctx context.Context, limit int) ([]domain.Assignment, error) {
	assignments, err := database.Do(ctx, r.client, "preview assignments", func(ctx context.Context) ([]domain.Assignment, error) {
		rows, err := r.client.QueryContext(ctx, `
			SELECT participant_id, experiment_name, arm
			FROM experiment_assignments
			ORDER BY experiment_name, participant_id
			LIMIT ?`, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		return scanAssignments(rows)
	})
	if err != nil {
		return nil, external("preview assignments", err)
	}
	return assignments, nil
}

func scanAssignments(rows *sql.Rows) ([]domain.Assignment, error) {
	var out []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var arm string
		if err := rows.Scan(&a.ParticipantID, &a.Experiment, &arm); err != nil {
			return nil, err
		}
		parsed, err := domain.ParseArm(arm)
		if err != nil {
			return nil, &domain.DataIntegrityError{Experiment: a.Experiment, ParticipantID: a.ParticipantID, Reason: err.Error()}
		}
		a.Arm = parsed
		out = append(out, a)
	}
	return out, rows.Err()
}
