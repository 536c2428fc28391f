package report

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/emiliopalmerini/abeval/internal/analysis"
	"github.com/emiliopalmerini/abeval/internal/domain"
	"github.com/emiliopalmerini/abeval/internal/util"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;margin:1rem 0}
th,td{border:1px solid #ccc;padding:.4rem .8rem;text-align:right}
th:first-child,td:first-child{text-align:left}
.undefined{color:#888;font-style:italic}
.caveat{color:#a60}`

// HTML returns a standalone HTML page for the analysis.
func HTML(r *analysis.Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		title := "A/B retention: " + r.Experiment
		hw := &htmlWriter{w: w}
		hw.printf("<!DOCTYPE html>\n<html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>\n",
			templ.EscapeString(title), pageStyle)
		hw.printf("<h1>%s</h1>\n<p>Run %s, generated %s</p>\n",
			templ.EscapeString(title), templ.EscapeString(r.RunID), templ.EscapeString(r.GeneratedAt.Format("2006-01-02 15:04 MST")))
		if r.Join.Excluded() > 0 {
			hw.printf("<p class=\"caveat\">Excluded: %d assignments without outcome, %d outcomes without assignment.</p>\n",
				r.Join.AssignmentsWithoutOutcome, r.Join.OutcomesWithoutAssignment)
		}
		if hw.err != nil {
			return hw.err
		}

		if err := groupTable(r).Render(ctx, w); err != nil {
			return err
		}
		if err := testTable(r.Result).Render(ctx, w); err != nil {
			return err
		}
		hw.write("</body></html>\n")
		return hw.err
	})
}

func groupTable(r *analysis.Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.write("<table><thead><tr><th>Arm</th><th>Participants</th><th>Retained</th><th>Retention</th><th>Revenue</th><th>Mean revenue</th></tr></thead><tbody>\n")
		for _, g := range r.Groups() {
			hw.printf("<tr><td>%s</td><td>%d</td><td>%d</td><td>%s</td><td>%.2f</td>%s</tr>\n",
				templ.EscapeString(g.Arm.Label()), g.Count, g.RetainedCount,
				util.FormatPercent(g.RetentionRate), g.TotalRevenue, statCell(g.MeanRevenue, money))
		}
		hw.write("</tbody></table>\n")
		return hw.err
	})
}

func testTable(res domain.SignificanceResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.write("<table><thead><tr><th>Test</th><th>Statistic</th><th>p-value</th><th>Result</th></tr></thead><tbody>\n")
		hw.printf("<tr><td>Lift</td>%s<td></td><td></td></tr>\n", statCell(liftPercent(res.Lift), lift))
		hw.printf("<tr><td>Retention (chi-square, Yates)</td>%s%s<td>%s</td></tr>\n",
			statCell(res.Retention.ChiSquare, func(s domain.Statistic) string { return s.Format("%.4f") }),
			statCell(res.Retention.PValue, pValue),
			templ.EscapeString(verdict(res.RetentionSignificant(), res.Retention.PValue)))
		hw.printf("<tr><td>Revenue (Welch, policy %s)</td>%s%s<td>%s</td></tr>\n",
			templ.EscapeString(string(res.Revenue.Policy)),
			statCell(res.Revenue.TStatistic, func(s domain.Statistic) string { return s.Format("%.4f") }),
			statCell(res.Revenue.PValue, pValue),
			templ.EscapeString(verdict(res.RevenueSignificant(), res.Revenue.PValue)))
		hw.write("</tbody></table>\n")

		hw.printf("<p>Significance level alpha = %.2f.</p>\n", res.Alpha)
		if res.Retention.LowExpectedCount {
			hw.write("<p class=\"caveat\">An expected cell count is below 5; the chi-square test has low power.</p>\n")
		}
		return hw.err
	})
}

// htmlWriter keeps the first write error and skips later writes.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) printf(format string, args ...any) {
	if h.err == nil {
		_, h.err = fmt.Fprintf(h.w, format, args...)
	}
}

func (h *htmlWriter) write(s string) {
	if h.err == nil {
		_, h.err = io.WriteString(h.w, s)
	}
}

func statCell(s domain.Statistic, format func(domain.Statistic) string) string {
	if !s.IsDefined() {
		return `<td class="undefined">` + templ.EscapeString(s.String()) + "</td>"
	}
	return "<td>" + templ.EscapeString(format(s)) + "</td>"
}
