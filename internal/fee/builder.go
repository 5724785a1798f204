package fee

import (
	"fmt"

	"proposal-generator/internal/model"
)

// Catalog maps a mandate name to its reference data.
type Catalog map[model.ProposedMandate]model.Mandate

// DefaultCatalog returns the mandate enumeration with zero default rates.
func DefaultCatalog() Catalog {
	c := make(Catalog, len(model.Mandates))
	for _, name := range model.Mandates {
		c[name] = model.Mandate{ID: string(name), Name: name}
	}
	return c
}

// Mandates resolves selected names against the catalog, keeping selection
// order. Names missing from the catalog get a zero default rate.
func (c Catalog) Mandates(selected []model.ProposedMandate) []model.Mandate {
	out := make([]model.Mandate, 0, len(selected))
	for _, name := range selected {
		m, ok := c[name]
		if !ok {
			m = model.Mandate{ID: string(name), Name: name}
		}
		out = append(out, m)
	}
	return out
}

// Builder holds the editable fee lines for a set of selected mandates.
type Builder struct {
	mandates []model.Mandate
	lines    []model.FeeLine
}

func NewBuilder(mandates []model.Mandate) *Builder {
	b := &Builder{}
	b.SetMandates(mandates)
	return b
}

// SetMandates replaces the selection and reseeds one default line per
// mandate, discarding edits made against the previous selection.
func (b *Builder) SetMandates(mandates []model.Mandate) {
	b.mandates = append([]model.Mandate(nil), mandates...)
	b.lines = make([]model.FeeLine, 0, len(mandates))
	for _, m := range mandates {
		b.lines = append(b.lines, NewLine(m))
	}
}

// AddLine appends a default line for the first selected mandate. It is a
// no-op when nothing is selected.
func (b *Builder) AddLine() bool {
	if len(b.mandates) == 0 {
		return false
	}
	b.lines = append(b.lines, NewLine(b.mandates[0]))
	return true
}

func (b *Builder) RemoveLine(index int) error {
	if index < 0 || index >= len(b.lines) {
		return fmt.Errorf("%w: %d", ErrLineIndex, index)
	}
	lines := make([]model.FeeLine, 0, len(b.lines)-1)
	lines = append(lines, b.lines[:index]...)
	b.lines = append(lines, b.lines[index+1:]...)
	return nil
}

func (b *Builder) UpdateLine(index int, patch LinePatch) error {
	lines, err := UpdateLine(b.lines, index, patch, b.mandates)
	if err != nil {
		return err
	}
	b.lines = lines
	return nil
}

// SwitchMandate points the line at another mandate and resets its rate to
// that mandate's default.
func (b *Builder) SwitchMandate(index int, mandateID string) error {
	patch := LinePatch{StaffID: &mandateID}
	if m, ok := findMandate(b.mandates, mandateID); ok {
		rate := m.DefaultRate
		patch.Rate = &rate
	}
	return b.UpdateLine(index, patch)
}

func (b *Builder) Lines() []model.FeeLine {
	return append([]model.FeeLine(nil), b.lines...)
}

func (b *Builder) Summary() model.FeeSummary {
	return Summarize(b.lines)
}

// List returns the catalog entries in enumeration order.
func (c Catalog) List() []model.Mandate {
	out := make([]model.Mandate, 0, len(c))
	for _, name := range model.Mandates {
		if m, ok := c[name]; ok {
			out = append(out, m)
		}
	}
	return out
}

// CatalogFrom indexes mandates by name.
func CatalogFrom(mandates []model.Mandate) Catalog {
	c := make(Catalog, len(mandates))
	for _, m := range mandates {
		c[m.Name] = m
	}
	return c
}
