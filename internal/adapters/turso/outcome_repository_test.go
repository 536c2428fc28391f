package turso_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/abeval/internal/adapters/turso"
	"github.com/emiliopalmerini/abeval/internal/domain"
)

var day = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestOutcomeRepositoryUpsertTwiceKeepsLatest(t *testing.T) {
	ctx := context.Background()
	repo := turso.NewOutcomeRepository(testDB(t))

	_, err := repo.Upsert(ctx, []domain.Outcome{{ParticipantID: 100, Experiment: "X", Purchased: true, Revenue: 12.5, EvaluatedAt: day}})
	require.NoError(t, err)
	n, err := repo.Upsert(ctx, []domain.Outcome{{ParticipantID: 100, Experiment: "X", Purchased: false, Revenue: 0, EvaluatedAt: day.AddDate(0, 0, 1)}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := repo.ListOutcomes(ctx, "X")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.Outcome{ParticipantID: 100, Experiment: "X", Purchased: false, Revenue: 0, EvaluatedAt: day.AddDate(0, 0, 1)}, got[0])
}

func TestOutcomeRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := turso.NewOutcomeRepository(testDB(t))

	in := []domain.Outcome{
		{ParticipantID: 1, Experiment: "X", Purchased: true, Revenue: 199.99, EvaluatedAt: day},
		{ParticipantID: 2, Experiment: "X", Purchased: false, EvaluatedAt: day},
		{ParticipantID: 3, Experiment: "X", Purchased: true, Revenue: 0, EvaluatedAt: day},
	}
	_, err := repo.Upsert(ctx, in)
	require.NoError(t, err)

	got, err := repo.ListOutcomes(ctx, "X")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestOutcomeRepositoryUpsertRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	repo := turso.NewOutcomeRepository(testDB(t))

	_, err := repo.Upsert(ctx, []domain.Outcome{
		{ParticipantID: 1, Experiment: "X", Purchased: true, Revenue: 10, EvaluatedAt: day},
		{ParticipantID: 2, Experiment: "X", Purchased: true, Revenue: -1, EvaluatedAt: day},
	})
	var integrity *domain.DataIntegrityError
	require.ErrorAs(t, err, &integrity)

	got, err := repo.ListOutcomes(ctx, "X")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOutcomeRepositoryFetchJoined(t *testing.T) {
	ctx := context.Background()
	client := testDB(t)
	repos := turso.NewRepositories(client)

	_, err := repos.Assignments.Import(ctx, []domain.Assignment{
		{ParticipantID: 1, Experiment: "X", Arm: domain.ArmControl},
		{ParticipantID: 2, Experiment: "X", Arm: domain.ArmTreatment},
		{ParticipantID: 3, Experiment: "X", Arm: domain.ArmTreatment},
		{ParticipantID: 1, Experiment: "Y", Arm: domain.ArmTreatment},
	})
	require.NoError(t, err)

	_, err = repos.Outcomes.Upsert(ctx, []domain.Outcome{
		{ParticipantID: 1, Experiment: "X", Purchased: true, Revenue: 50, EvaluatedAt: day},
		{ParticipantID: 2, Experiment: "X", Purchased: false, EvaluatedAt: day},
		{ParticipantID: 9, Experiment: "X", Purchased: false, EvaluatedAt: day},
		{ParticipantID: 1, Experiment: "Y", Purchased: true, Revenue: 5, EvaluatedAt: day},
	})
	require.NoError(t, err)

	rows, stats, err := repos.Outcomes.FetchJoined(ctx, "X")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.ArmControl, rows[0].Assignment.Arm)
	assert.Equal(t, 50.0, rows[0].Outcome.Revenue)
	assert.Equal(t, domain.ArmTreatment, rows[1].Assignment.Arm)
	assert.Equal(t, domain.JoinStats{AssignmentsWithoutOutcome: 1, OutcomesWithoutAssignment: 1}, stats)
}

func TestOutcomeRepositoryFetchJoinedEmpty(t *testing.T) {
	ctx := context.Background()
	client := testDB(t)
	repos := turso.NewRepositories(client)

	_, err := repos.Assignments.Import(ctx, []domain.Assignment{{ParticipantID: 1, Experiment: "X", Arm: domain.ArmControl}})
	require.NoError(t, err)

	_, stats, err := repos.Outcomes.FetchJoined(ctx, "X")
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Equal(t, int64(1), stats.AssignmentsWithoutOutcome)
}

func TestOutcomeRepositoryFetchJoinedKeepsUnknownArm(t *testing.T) {
	ctx := context.Background()
	client := testDB(t)
	_, err := client.ExecContext(ctx, `
		INSERT INTO experiment_assignments (participant_id, experiment_name, arm, created_at)
		VALUES (4, 'X', 'C', '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)
	_, err = turso.NewOutcomeRepository(client).Upsert(ctx, []domain.Outcome{{ParticipantID: 4, Experiment: "X", EvaluatedAt: day}})
	require.NoError(t, err)

	rows, _, err := turso.NewOutcomeRepository(client).FetchJoined(ctx, "X")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.Arm("C"), rows[0].Assignment.Arm)
}

func TestOutcomeRepositoryReadsStoredDateForms(t *testing.T) {
	ctx := context.Background()
	client := testDB(t)
	repo := turso.NewOutcomeRepository(client)

	_, err := client.ExecContext(ctx, `
		INSERT INTO experiment_outcomes (participant_id, experiment_name, purchased, revenue, evaluated_at) VALUES
			(1, 'X', 0, 0, '2026-03-14'),
			(2, 'X', 0, 0, '2026-03-14T00:00:00Z'),
			(3, 'X', 0, 0, '2026-03-14 00:00:00')`)
	require.NoError(t, err)

	got, err := repo.ListOutcomes(ctx, "X")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, o := range got {
		assert.True(t, o.EvaluatedAt.Equal(day), "participant %d: %v", o.ParticipantID, o.EvaluatedAt)
	}
}

func TestOutcomeRepositoryRejectsCorruptDate(t *testing.T) {
	ctx := context.Background()
	client := testDB(t)
	repo := turso.NewOutcomeRepository(client)

	_, err := client.ExecContext(ctx, `
		INSERT INTO experiment_outcomes (participant_id, experiment_name, purchased, revenue, evaluated_at)
		VALUES (1, 'X', 0, 0, 'yesterday')`)
	require.NoError(t, err)

	_, err = repo.ListOutcomes(ctx, "X")
	var integrity *domain.DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, int64(1), integrity.ParticipantID)
}
