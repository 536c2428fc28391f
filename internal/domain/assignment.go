package domain

import (
	"math"
	"time"
)

// Key is the natural key shared by assignments and outcomes.
type Key struct {
	ParticipantID int64
	Experiment    string
}

// Assignment records which arm a participant was randomized into.
type Assignment struct {
	ParticipantID int64
	Experiment    string
	Arm           Arm
}

func (a Assignment) Key() Key {
	return Key{ParticipantID: a.ParticipantID, Experiment: a.Experiment}
}

// Outcome is the 30-day purchase result for one participant.
type Outcome struct {
	ParticipantID int64
	Experiment    string
	Purchased     bool
	Revenue       float64
	EvaluatedAt   time.Time
}

func (o Outcome) Key() Key {
	return Key{ParticipantID: o.ParticipantID, Experiment: o.Experiment}
}

// Validate checks the purchase/revenue invariant: a non-purchaser has exactly
// zero revenue and revenue is never negative.
func (o Outcome) Validate() error {
	switch {
	case math.IsNaN(o.Revenue) || math.IsInf(o.Revenue, 0):
		return &DataIntegrityError{Experiment: o.Experiment, ParticipantID: o.ParticipantID, Reason: "non-finite revenue"}
	case o.Revenue < 0:
		return &DataIntegrityError{Experiment: o.Experiment, ParticipantID: o.ParticipantID, Reason: "negative revenue"}
	case !o.Purchased && o.Revenue != 0:
		return &DataIntegrityError{Experiment: o.Experiment, ParticipantID: o.ParticipantID, Reason: "revenue recorded without a purchase"}
	}
	return nil
}

// JoinedRow pairs an assignment with its outcome.
type JoinedRow struct {
	Assignment Assignment
	Outcome    Outcome
}

// JoinStats counts rows dropped by the assignment/outcome inner join.
type JoinStats struct {
	AssignmentsWithoutOutcome int64
	OutcomesWithoutAssignment int64
}

func (s JoinStats) Excluded() int64 {
	return s.AssignmentsWithoutOutcome + s.OutcomesWithoutAssignment
}

// DateLayout is the storage format for evaluation dates.
const DateLayout = "2006-01-02"
