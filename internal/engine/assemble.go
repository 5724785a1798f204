// Package engine assembles validated proposal input into a document payload
// and drives the generation pipeline.
package engine

import (
	"time"

	"proposal-generator/internal/fee"
	"proposal-generator/internal/model"
	"proposal-generator/internal/validation"
)

const isoDate = "2006-01-02"

// Assembler merges form state, address, fee and bios into a payload.
type Assembler struct {
	sections *SectionRegistry
	now      func() time.Time
}

func NewAssembler(services []model.Service, now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{sections: NewSectionRegistry(services), now: now}
}

// Assemble must only be called on a form that passed validation; it does not
// re-check required fields. The result shares no memory with its inputs.
func (a *Assembler) Assemble(form model.FormState, address string, summary model.FeeSummary, bios []model.Bio) model.ProposalPayload {
	services := dedupe(form.ListOfServices)

	return model.ProposalPayload{
		ProjectName:          form.ProjectName,
		BillingEntity:        form.BillingEntity,
		Date:                 NormalizeDate(form.Date, a.now()),
		Address:              address,
		ClientEmail:          form.ClientEmail,
		ClientName:           form.ClientName,
		ClientCompanyAddress: form.ClientCompanyAddress,
		AssetClass:           form.AssetClass,
		ProjectDescription:   form.ProjectDescription,
		ProposedMandates:     dedupe(form.ProposedMandates),
		ListOfServices:       services,
		Fee:                  fee.Summarize(summary.Lines),
		Bios:                 cloneBios(bios),
		Sections:             a.sections.Directives(services),
	}
}

// NormalizeDate returns raw as YYYY-MM-DD, or now's date when raw is empty
// or unparseable.
func NormalizeDate(raw string, now time.Time) string {
	if raw != "" {
		if t, err := validation.ParseDate(raw); err == nil {
			return t.Format(isoDate)
		}
	}
	return now.Format(isoDate)
}

func dedupe[T comparable](in []T) []T {
	out := make([]T, 0, len(in))
	seen := make(map[T]bool, len(in))
	for _, v := range in {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func cloneBios(in []model.Bio) []model.Bio {
	out := make([]model.Bio, len(in))
	for i, b := range in {
		if b.Accreditations != nil {
			a := *b.Accreditations
			b.Accreditations = &a
		}
		out[i] = b
	}
	return out
}
