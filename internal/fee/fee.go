// Package fee computes fee lines and fee summaries.
package fee

import (
	"errors"
	"fmt"
	"math"

	"proposal-generator/internal/model"
)

var ErrLineIndex = errors.New("fee line index out of range")

// Round2 rounds half up on the cents boundary.
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// NewLine returns the default line for a mandate: zero hours at the
// mandate's default rate.
func NewLine(m model.Mandate) model.FeeLine {
	return ComputeLine(m, 0, m.DefaultRate)
}

// ComputeLine builds a line for the mandate. Negative inputs are not
// rejected here and produce negative totals.
func ComputeLine(m model.Mandate, hours, rate float64) model.FeeLine {
	return model.FeeLine{
		StaffID:   m.ID,
		StaffName: string(m.Name),
		Hours:     hours,
		Rate:      rate,
		LineTotal: Round2(hours * rate),
	}
}

// Summarize totals already-rounded line totals so the total always equals
// the visible sum of the displayed lines.
func Summarize(lines []model.FeeLine) model.FeeSummary {
	out := make([]model.FeeLine, len(lines))
	copy(out, lines)

	var sum float64
	for _, l := range out {
		sum += l.LineTotal
	}
	return model.FeeSummary{Lines: out, Total: Round2(sum)}
}

// Recompute re-derives every line total and the summary total from hours
// and rate. Totals received from a client are never trusted.
func Recompute(s model.FeeSummary) model.FeeSummary {
	lines := make([]model.FeeLine, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = ComputeLine(model.Mandate{ID: l.StaffID, Name: model.ProposedMandate(l.StaffName)}, l.Hours, l.Rate)
	}
	return Summarize(lines)
}

// LinePatch holds the fields to change on a line. Nil fields keep the
// existing value.
type LinePatch struct {
	StaffID *string
	Hours   *float64
	Rate    *float64
}

// UpdateLine returns a new collection with the line at index recomputed from
// the patch merged over its current values. The mandate is looked up by id in
// mandates, falling back to the first mandate.
func UpdateLine(lines []model.FeeLine, index int, patch LinePatch, mandates []model.Mandate) ([]model.FeeLine, error) {
	if index < 0 || index >= len(lines) {
		return nil, fmt.Errorf("%w: %d", ErrLineIndex, index)
	}
	current := lines[index]

	staffID := current.StaffID
	if patch.StaffID != nil {
		staffID = *patch.StaffID
	}
	hours := current.Hours
	if patch.Hours != nil {
		hours = *patch.Hours
	}
	rate := current.Rate
	if patch.Rate != nil {
		rate = *patch.Rate
	}

	mandate, ok := findMandate(mandates, staffID)
	if !ok {
		if len(mandates) > 0 {
			mandate = mandates[0]
		} else {
			mandate = model.Mandate{ID: current.StaffID, Name: model.ProposedMandate(current.StaffName)}
		}
	}

	out := make([]model.FeeLine, len(lines))
	copy(out, lines)
	out[index] = ComputeLine(mandate, hours, rate)
	return out, nil
}

func findMandate(mandates []model.Mandate, id string) (model.Mandate, bool) {
	for _, m := range mandates {
		if m.ID == id {
			return m, true
		}
	}
	return model.Mandate{}, false
}
