package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

type ExportOutcome struct {
	ParticipantID int64   `json:"participant_id"`
	Experiment    string  `json:"experiment_name"`
	Purchased     bool    `json:"purchased"`
	Revenue       float64 `json:"revenue"`
	EvaluatedAt   string  `json:"evaluated_at"`
}

// ExportOutcomes writes outcome rows as csv or json.
func ExportOutcomes(w io.Writer, outcomes []domain.Outcome, format string) error {
	exportData := make([]ExportOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		exportData = append(exportData, ExportOutcome{
			ParticipantID: o.ParticipantID,
			Experiment:    o.Experiment,
			Purchased:     o.Purchased,
			Revenue:       o.Revenue,
			EvaluatedAt:   o.EvaluatedAt.Format(domain.DateLayout),
		})
	}

	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(exportData); err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
	case "csv":
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"participant_id", "experiment_name", "purchased", "revenue", "evaluated_at"}); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, e := range exportData {
			row := []string{
				strconv.FormatInt(e.ParticipantID, 10),
				e.Experiment,
				strconv.FormatBool(e.Purchased),
				strconv.FormatFloat(e.Revenue, 'f', 2, 64),
				e.EvaluatedAt,
			}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return fmt.Errorf("failed to flush CSV: %w", err)
		}
	default:
		return &domain.ConfigurationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q (use json or csv)", format)}
	}
	return nil
}
