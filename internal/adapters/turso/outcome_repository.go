package turso

import (
	"context"
	"fmt"
	"time"

	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/infrastructure/database"
	"github.com/emiliopalmerini/abeval/internal/util"
)

type OutcomeRepository struct {
	client *database.Client
}

func NewOutcomeRepository(client *database.Client) *OutcomeRepository {
	return &OutcomeRepository{client: client}
}

const upsertOutcomeSQL = `
	INSERT INTO experiment_outcomes (participant_id, experiment_name, purchased, revenue, evaluated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (participant_id, experiment_name) DO UPDATE SET
		purchased = excluded.purchased,
		revenue = excluded.revenue,
		evaluated_at = excluded.evaluated_at`

// Upsert writes all outcomes in one transaction.
func (r *OutcomeRepository) Upsert(ctx context.Context, outcomes []domain.Outcome) (int, error) {
	for _, o := range outcomes {
		if err := o.Validate(); err != nil {
			return 0, err
		}
	}
	if len(outcomes) == 0 {
		return 0, nil
	}

	n, err := database.Do(ctx, r.client, "upsert outcomes", func(ctx context.Context) (int, error) {
		tx, err := r.client.BeginTx(ctx, nil)
		if err != nil {
			return 0, err
		}
		defer tx.Rollback()

		stmt, err := tx.PrepareContext(ctx, upsertOutcomeSQL)
		if err != nil {
			return 0, err
		}
		defer stmt.Close()

		for _, o := range outcomes {
			if _, err := stmt.ExecContext(ctx,
				o.ParticipantID,
				o.Experiment,
				util.BoolToInt64(o.Purchased),
				o.Revenue,
				o.EvaluatedAt.Format(domain.DateLayout),
			); err != nil {
				return 0, fmt.Errorf("participant %d: %w", o.ParticipantID, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return 0, err
		}
		return len(outcomes), nil
	})
	if err != nil {
		return 0, external("upsert outcomes", err)
	}
	return n, nil
}

func (r *OutcomeRepository) ListOutcomes(ctx context.Context, experiment string) ([]domain.Outcome, error) {
	outcomes, err := database.Do(ctx, r.client, "list outcomes", func(ctx context.Context) ([]domain.Outcome, error) {
		rows, err := r.client.QueryContext(ctx, `
			SELECT participant_id, experiment_name, purchased, revenue, evaluated_at
			FROM experiment_outcomes
			WHERE experiment_name = ?
			ORDER BY participant_id`, experiment)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var out []domain.Outcome
		for rows.Next() {
			var o domain.Outcome
			var purchased int64
			var evaluatedAt any
			if err := rows.Scan(&o.ParticipantID, &o.Experiment, &purchased, &o.Revenue, &evaluatedAt); err != nil {
				return nil, err
			}
			o.Purchased = purchased == 1
			if o.EvaluatedAt, err = parseDate(o.Experiment, o.ParticipantID, evaluatedAt); err != nil {
				return nil, err
			}
			out = append(out, o)
		}
		return out, rows.Err()
	})
	if err != nil {
		return nil, external("list outcomes", err)
	}
	return outcomes, nil
}

type joinResult struct {
	rows  []domain.JoinedRow
	stats domain.JoinStats
}

// FetchJoined inner-joins assignments and outcomes on the natural key and
// counts the rows that only exist on one side.
func (r *OutcomeRepository) FetchJoined(ctx context.Context, experiment string) ([]domain.JoinedRow, domain.JoinStats, error) {
	res, err := database.Do(ctx, r.client, "fetch joined outcomes", func(ctx context.Context) (joinResult, error) {
		var res joinResult

		err := r.client.QueryRowContext(ctx, `
			SELECT
				(SELECT COUNT(*) FROM experiment_assignments a
				 WHERE a.experiment_name = ?
				   AND NOT EXISTS (SELECT 1 FROM experiment_outcomes o
				                   WHERE o.participant_id = a.participant_id AND o.experiment_name = a.experiment_name)),
				(SELECT COUNT(*) FROM experiment_outcomes o
				 WHERE o.experiment_name = ?
				   AND NOT EXISTS (SELECT 1 FROM experiment_assignments a
				                   WHERE a.participant_id = o.participant_id AND a.experiment_name = o.experiment_name))`,
			experiment, experiment).Scan(&res.stats.AssignmentsWithoutOutcome, &res.stats.OutcomesWithoutAssignment)
		if err != nil {
			return res, err
		}

		rows, err := r.client.QueryContext(ctx, `
			SELECT a.participant_id, a.arm, o.purchased, o.revenue, o.evaluated_at
			FROM experiment_assignments a
			JOIN experiment_outcomes o
			  ON o.participant_id = a.participant_id
			 AND o.experiment_name = a.experiment_name
			WHERE a.experiment_name = ?
			ORDER BY a.participant_id`, experiment)
		if err != nil {
			return res, err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				id          int64
				arm         string
				purchased   int64
				revenue     float64
				evaluatedAt any
			)
			if err := rows.Scan(&id, &arm, &purchased, &revenue, &evaluatedAt); err != nil {
				return res, err
			}
			date, err := parseDate(experiment, id, evaluatedAt)
			if err != nil {
				return res, err
			}
			res.rows = append(res.rows, domain.JoinedRow{
				// Unknown arm values are kept so the analyzer can report them.
				Assignment: domain.Assignment{ParticipantID: id, Experiment: experiment, Arm: normalizeArm(arm)},
				Outcome: domain.Outcome{
					ParticipantID: id,
					Experiment:    experiment,
					Purchased:     purchased == 1,
					Revenue:       revenue,
					EvaluatedAt:   date,
				},
			})
		}
		return res, rows.Err()
	})
	if err != nil {
		return nil, res.stats, external("fetch joined outcomes", err)
	}
	if len(res.rows) == 0 {
		return nil, res.stats, fmt.Errorf("joined outcomes for %q: %w", experiment, domain.ErrDataUnavailable)
	}
	return res.rows, res.stats, nil
}

func normalizeArm(raw string) domain.Arm {
	if arm, err := domain.ParseArm(raw); err == nil {
		return arm
	}
	return domain.Arm(raw)
}

// dateLayouts are the forms evaluated_at comes back in. The driver may hand
// back a time.Time for date-like text, which database/sql renders as RFC 3339.
var dateLayouts = []string{domain.DateLayout, time.RFC3339Nano, "2006-01-02 15:04:05"}

func parseDate(experiment string, id int64, v any) (time.Time, error) {
	var t time.Time
	switch val := v.(type) {
	case time.Time:
		t = val
	case string:
		t = parseDateText(val)
	case []byte:
		t = parseDateText(string(val))
	}
	if t.IsZero() {
		return time.Time{}, &domain.DataIntegrityError{Experiment: experiment, ParticipantID: id, Reason: fmt.Sprintf("invalid evaluated_at %v", v)}
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseDateText(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
