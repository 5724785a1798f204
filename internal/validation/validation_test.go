package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proposal-generator/internal/model"
)

func completeForm() model.FormState {
	return model.FormState{
		ProjectName:          "Ancaster Tower",
		BillingEntity:        "Finnegan Marshall Inc.",
		Date:                 "2026-01-11",
		ClientEmail:          "john.doe@abcdevelopments.ca",
		ClientName:           "John Doe",
		ClientCompanyAddress: "250 King Street West, Toronto, ON",
		AssetClass:           "Mixed-Use Residential / Commercial",
		ProjectDescription:   "Mixed-use development with underground parking.",
		ProposedMandates:     []model.ProposedMandate{model.MandateEstimating},
		ListOfServices:       []string{model.ServiceCostPlanning},
		Fee: &model.FeeSummary{
			Lines: []model.FeeLine{{StaffID: "Estimating", StaffName: "Estimating", Hours: 10, Rate: 150, LineTotal: 1500}},
			Total: 1500,
		},
		Bios: []model.Bio{{ID: "1", Name: "Ciaran Brady"}},
	}
}

const address = "1021 Garner Road East, Ancaster, Ontario"

func TestValidate_CompleteFormHasNoMissingFields(t *testing.T) {
	assert.Empty(t, Validate(completeForm(), address, TargetProposal))
	assert.Empty(t, Validate(completeForm(), address, TargetPDF))
}

func TestValidate_Proposal_EachRequiredFieldReportedAlone(t *testing.T) {
	cases := []struct {
		label  string
		mutate func(f *model.FormState, addr *string)
	}{
		{"Project Name", func(f *model.FormState, _ *string) { f.ProjectName = "   " }},
		{"Billing Entity", func(f *model.FormState, _ *string) { f.BillingEntity = "" }},
		{"Client Email", func(f *model.FormState, _ *string) { f.ClientEmail = "" }},
		{"Client Name", func(f *model.FormState, _ *string) { f.ClientName = "" }},
		{"Client Company Address", func(f *model.FormState, _ *string) { f.ClientCompanyAddress = "\t" }},
		{"Asset Class", func(f *model.FormState, _ *string) { f.AssetClass = "" }},
		{"Project Description", func(f *model.FormState, _ *string) { f.ProjectDescription = "" }},
		{"Proposed Mandates", func(f *model.FormState, _ *string) { f.ProposedMandates = nil }},
		{"List of Services", func(f *model.FormState, _ *string) { f.ListOfServices = []string{} }},
		{"Address", func(_ *model.FormState, a *string) { *a = " " }},
		{"Bios", func(f *model.FormState, _ *string) { f.Bios = nil }},
	}

	for _, c := range cases {
		t.Run(c.label, func(t *testing.T) {
			form := completeForm()
			addr := address
			c.mutate(&form, &addr)
			assert.Equal(t, []string{c.label}, Validate(form, addr, TargetProposal))
		})
	}
}

func TestValidate_PDF_RequiresFewerFields(t *testing.T) {
	form := model.FormState{
		ProjectName:   "Ancaster Tower",
		BillingEntity: "Finnegan Marshall Inc.",
		Fee:           &model.FeeSummary{},
	}
	assert.Empty(t, Validate(form, address, TargetPDF))

	form.Fee = nil
	assert.Equal(t, []string{"Fee"}, Validate(form, address, TargetPDF))
}

func TestValidate_ReportsInOrderAndOnce(t *testing.T) {
	missing := Validate(model.FormState{}, "", TargetProposal)
	assert.Equal(t, []string{
		"Project Name", "Billing Entity", "Client Email", "Client Name", "Client Company Address",
		"Asset Class", "Project Description", "Proposed Mandates", "List of Services", "Address", "Bios",
	}, missing)
}

func TestValidate_InvalidValues(t *testing.T) {
	form := completeForm()
	form.ClientEmail = "not-an-email"
	form.Date = "11/01/2026"
	form.ProposedMandates = []model.ProposedMandate{"Landscaping"}
	form.Fee.Lines[0].Hours = -1

	assert.Equal(t, []string{"Date", "Client Email", "Proposed Mandates", "Fee Hours"}, Validate(form, address, TargetProposal))
}

func TestCheck(t *testing.T) {
	require.NoError(t, Check(completeForm(), address, TargetProposal))

	form := completeForm()
	form.ProjectName = ""
	form.Bios = nil
	err := Check(form, address, TargetProposal)
	verr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "Missing required fields: Project Name, Bios", verr.Message())
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("a@b.co"))
	assert.True(t, ValidateEmail("john.doe@abcdevelopments.ca"))
	assert.False(t, ValidateEmail("a@b"))
	assert.False(t, ValidateEmail("a b@c.d"))
	assert.False(t, ValidateEmail("@b.c"))
	assert.False(t, ValidateEmail(""))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-01-11T00:00:00.000Z")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-11", d.Format("2006-01-02"))

	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}
