package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-generator/internal/fee"
	"proposal-generator/internal/model"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC) }

func testForm() model.FormState {
	return model.FormState{
		ProjectName:          "Ancaster Tower",
		BillingEntity:        "Finnegan Marshall Inc.",
		ClientEmail:          "john.doe@abcdevelopments.ca",
		ClientName:           "John Doe",
		ClientCompanyAddress: "250 King Street West, Toronto, ON",
		AssetClass:           "Mixed-Use Residential / Commercial",
		ProjectDescription:   "Mixed-use development.",
		ProposedMandates:     []model.ProposedMandate{model.MandateEstimating},
		ListOfServices:       []string{model.ServiceCostPlanning},
	}
}

func TestAssemble_ConditionalDirectives(t *testing.T) {
	a := NewAssembler(model.DefaultServices, fixedNow)
	p := a.Assemble(testForm(), "1021 Garner Road East", model.FeeSummary{}, nil)

	d := p.Directives()
	assert.Equal(t, true, d["has_cost_planning"])
	assert.Equal(t, PageBreakXML, d["has_cost_planning_break"])
	assert.Equal(t, "", d["has_concept_to_completion_break"])
	assert.Equal(t, false, d["has_concept_to_completion"])
	assert.Equal(t, "", d["has_concept_to_completion_break"])
	assert.Equal(t, false, d["has_project_monitoring"])
}

func TestAssemble_DateDefaultsToToday(t *testing.T) {
	a := NewAssembler(model.DefaultServices, fixedNow)

	p := a.Assemble(testForm(), "addr", model.FeeSummary{}, nil)
	assert.Equal(t, "2026-10-19", p.Date)

	form := testForm()
	form.Date = "2026-01-11T05:00:00.000Z"
	p = a.Assemble(form, "addr", model.FeeSummary{}, nil)
	assert.Equal(t, "2026-01-11", p.Date)
}

func TestAssemble_SetsAreDeduplicated(t *testing.T) {
	form := testForm()
	form.ProposedMandates = []model.ProposedMandate{model.MandateEstimating, model.MandateProforma, model.MandateEstimating}
	form.ListOfServices = []string{"cost_planning", "cost_planning", "project_monitoring"}

	p := NewAssembler(model.DefaultServices, fixedNow).Assemble(form, "addr", model.FeeSummary{}, nil)
	assert.Equal(t, []model.ProposedMandate{model.MandateEstimating, model.MandateProforma}, p.ProposedMandates)
	assert.Equal(t, []string{"cost_planning", "project_monitoring"}, p.ListOfServices)
}

func TestAssemble_DoesNotShareInputs(t *testing.T) {
	accred := "PQS"
	bios := []model.Bio{{ID: "1", Name: "Ciaran Brady", Accreditations: &accred}}
	lines := []model.FeeLine{fee.ComputeLine(model.Mandate{ID: "Estimating", Name: model.MandateEstimating}, 10, 150)}
	summary := fee.Summarize(lines)

	p := NewAssembler(model.DefaultServices, fixedNow).Assemble(testForm(), "addr", summary, bios)
	require.Len(t, p.Bios, 1)
	require.Len(t, p.Fee.Lines, 1)
	assert.Equal(t, 1500.0, p.Fee.Total)

	bios[0].Name = "changed"
	accred = "changed"
	summary.Lines[0].Hours = 99

	assert.Equal(t, "Ciaran Brady", p.Bios[0].Name)
	assert.Equal(t, "PQS", *p.Bios[0].Accreditations)
	assert.Equal(t, 10.0, p.Fee.Lines[0].Hours)
}

func TestSectionRegistry(t *testing.T) {
	r := NewSectionRegistry(append(model.DefaultServices, model.Service{Key: "cost_planning", Label: "dup"}))
	d := r.Directives([]string{"landscaping"})
	require.Len(t, d, 3)
	assert.Equal(t, model.ServiceConceptToCompletion, d[0].Service)
	for _, x := range d {
		assert.False(t, x.Present)
	}
}

func TestNormalizeDate(t *testing.T) {
	now := fixedNow()
	assert.Equal(t, "2026-02-03", NormalizeDate("2026-02-03", now))
	assert.Equal(t, "2026-10-19", NormalizeDate("", now))
	assert.Equal(t, "2026-10-19", NormalizeDate("garbage", now))
}
