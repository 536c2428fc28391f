package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/abeval/internal/adapters/memory"
	"github.com/emiliopalmerini/abeval/internal/domain"
)

func TestStoreUpsertReplacesByKey(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	day := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	n, err := s.Upsert(ctx, []domain.Outcome{{ParticipantID: 100, Experiment: "X", Purchased: true, Revenue: 10, EvaluatedAt: day}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.Upsert(ctx, []domain.Outcome{{ParticipantID: 100, Experiment: "X", Purchased: true, Revenue: 25.5, EvaluatedAt: day.AddDate(0, 0, 1)}})
	require.NoError(t, err)

	got, err := s.ListOutcomes(ctx, "X")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 25.5, got[0].Revenue)
	assert.Equal(t, day.AddDate(0, 0, 1), got[0].EvaluatedAt)
}

func TestStoreUpsertRejectsInvalidOutcome(t *testing.T) {
	s := memory.NewStore()
	_, err := s.Upsert(context.Background(), []domain.Outcome{
		{ParticipantID: 1, Experiment: "X", Purchased: true, Revenue: 5},
		{ParticipantID: 2, Experiment: "X", Purchased: false, Revenue: 5},
	})
	var integrity *domain.DataIntegrityError
	require.ErrorAs(t, err, &integrity)
	assert.Equal(t, int64(2), integrity.ParticipantID)

	got, err := s.ListOutcomes(context.Background(), "X")
	require.NoError(t, err)
	assert.Empty(t, got, "nothing should be written when any outcome is invalid")
}

func TestStoreFetchEmpty(t *testing.T) {
	_, err := memory.NewStore().Fetch(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
}

func TestStoreImport(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	n, err := s.Import(ctx, []domain.Assignment{
		{ParticipantID: 2, Experiment: "X", Arm: domain.ArmTreatment},
		{ParticipantID: 1, Experiment: "X", Arm: domain.ArmControl},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Import(ctx, []domain.Assignment{{ParticipantID: 1, Experiment: "X", Arm: domain.ArmControl}})
	require.NoError(t, err)
	assert.Equal(t, 0, n, "re-importing the same assignment is a no-op")

	_, err = s.Import(ctx, []domain.Assignment{{ParticipantID: 1, Experiment: "X", Arm: domain.ArmTreatment}})
	var integrity *domain.DataIntegrityError
	require.ErrorAs(t, err, &integrity)

	got, err := s.Fetch(ctx, "X")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ParticipantID)

	counts, err := s.CountByArm(ctx, "X")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, int64(1), counts[0].Count)
}

func TestStoreFetchJoined(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	_, err := s.Import(ctx, []domain.Assignment{
		{ParticipantID: 1, Experiment: "X", Arm: domain.ArmControl},
		{ParticipantID: 2, Experiment: "X", Arm: domain.ArmTreatment},
		{ParticipantID: 3, Experiment: "X", Arm: domain.ArmTreatment},
		{ParticipantID: 1, Experiment: "Y", Arm: domain.ArmTreatment},
	})
	require.NoError(t, err)
	_, err = s.Upsert(ctx, []domain.Outcome{
		{ParticipantID: 1, Experiment: "X", Purchased: true, Revenue: 50},
		{ParticipantID: 2, Experiment: "X"},
		{ParticipantID: 9, Experiment: "X"},
	})
	require.NoError(t, err)

	rows, stats, err := s.FetchJoined(ctx, "X")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.ArmControl, rows[0].Assignment.Arm)
	assert.Equal(t, 50.0, rows[0].Outcome.Revenue)
	assert.Equal(t, domain.JoinStats{AssignmentsWithoutOutcome: 1, OutcomesWithoutAssignment: 1}, stats)

	_, _, err = s.FetchJoined(ctx, "Y")
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}
