package alerts

import (
	"fmt"
	"io"

	"github.com/tphakala/wildlife-alert/internal/errors"
)

// StoreResult describes one StoreAlert run. CloudURL and PublicID are both
// set or both empty.
type StoreResult struct {
	CloudURL   string
	PublicID   string
	DocumentID string
	AlertID    uint
	Timestamp  string
	Location   string
	Latitude   *float64
	Longitude  *float64
	TraceID    string
	Failures   []*errors.EnhancedError
	steps      []string
}

func (r *StoreResult) addFailure(err error, category errors.ErrorCategory, step string) {
	ee := categorize(err, category)
	r.Failures = append(r.Failures, ee)
	r.steps = append(r.steps, step)
}

// HasFailure reports whether a step of the given category failed.
func (r StoreResult) HasFailure(category errors.ErrorCategory) bool {
	for _, f := range r.Failures {
		if f.Category == category {
			return true
		}
	}
	return false
}

// Degraded reports whether any step failed.
func (r StoreResult) Degraded() bool {
	return len(r.Failures) > 0
}

// FailedSteps lists the failed steps in pipeline order.
func (r StoreResult) FailedSteps() []string {
	return append([]string(nil), r.steps...)
}

// PrintResult writes a human readable summary of r to w.
func PrintResult(w io.Writer, r *StoreResult) error {
	coords := "-"
	if r.Latitude != nil && r.Longitude != nil {
		coords = fmt.Sprintf("%.4f,%.4f", *r.Latitude, *r.Longitude)
	}
	lines := [][2]string{
		{"Trace ID", r.TraceID},
		{"Timestamp", r.Timestamp},
		{"Location", r.Location},
		{"Coordinates", coords},
		{"Cloud URL", orDash(r.CloudURL)},
		{"Document", orDash(r.DocumentID)},
	}
	if r.AlertID != 0 {
		lines = append(lines, [2]string{"Alert ID", fmt.Sprint(r.AlertID)})
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-13s %s\n", l[0]+":", l[1]); err != nil {
			return err
		}
	}
	for _, f := range r.Failures {
		if _, err := fmt.Fprintf(w, "%-13s [%s] %s\n", "Failed:", f.Category, f.Error()); err != nil {
			return err
		}
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
