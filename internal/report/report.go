// Package report renders analysis results and outcome exports.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/emiliopalmerini/abeval/internal/analysis"
	"github.com/emiliopalmerini/abeval/internal/domain"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatHTML Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV, FormatHTML:
		return f, nil
	default:
		return "", &domain.ConfigurationError{Field: "format", Reason: fmt.Sprintf("unsupported format %q (use text, json, csv or html)", s)}
	}
}

// Render writes r to w in the given format.
func Render(ctx context.Context, w io.Writer, r *analysis.Report, f Format) error {
	switch f {
	case FormatText:
		return Text(w, r)
	case FormatJSON:
		return JSON(w, r)
	case FormatCSV:
		return CSV(w, r)
	case FormatHTML:
		return HTML(r).Render(ctx, w)
	default:
		return fmt.Errorf("unsupported format: %s", f)
	}
}

func verdict(significant bool, p domain.Statistic) string {
	switch {
	case !p.IsDefined():
		return "not testable"
	case significant:
		return "significant"
	default:
		return "not significant"
	}
}

func pValue(s domain.Statistic) string {
	if !s.IsDefined() {
		return s.String()
	}
	return s.Format("%.4g")
}

func lift(s domain.Statistic) string {
	if !s.IsDefined() {
		return s.String()
	}
	return s.Format("%+.2f%%")
}

// liftPercent scales a defined lift to percent for display.
func liftPercent(s domain.Statistic) domain.Statistic {
	v, ok := s.Value()
	if !ok {
		return s
	}
	return domain.Defined(v * 100)
}

func money(s domain.Statistic) string {
	if !s.IsDefined() {
		return s.String()
	}
	return s.Format("%.2f")
}
