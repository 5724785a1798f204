package engine

import (
	"context"
	"errors"
	"testing"

	"proposal-generator/internal/model"
	"proposal-generator/internal/validation"
)

type fakeRepo struct {
	bios []model.Bio
	err  error
}

func (f *fakeRepo) ListBios(context.Context) ([]model.Bio, error) { return f.bios, f.err }

func (f *fakeRepo) FindBiosByIDs(_ context.Context, ids []string) ([]model.Bio, error) {
	if f.err != nil {
		return nil, f.err
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []model.Bio
	for _, b := range f.bios {
		if want[b.ID] {
			out = append(out, b)
		}
	}
	return out, nil
}

type captureRenderer struct {
	payload model.ProposalPayload
	err     error
}

func (c *captureRenderer) RenderPDF(_ context.Context, p model.ProposalPayload) ([]byte, error) {
	c.payload = p
	return []byte("%PDF-"), c.err
}

func (c *captureRenderer) RenderDOCX(_ context.Context, p model.ProposalPayload) ([]byte, error) {
	c.payload = p
	return []byte("PK"), c.err
}

func newTestGenerator(repo *fakeRepo, r *captureRenderer) *Generator {
	return NewGenerator(repo, r, r, NewAssembler(model.DefaultServices, fixedNow), nil)
}

func proposalRequest() *model.GenerateProposalRequest {
	return &model.GenerateProposalRequest{
		ProjectName:          "Ancaster Tower",
		BillingEntity:        "Finnegan Marshall Inc.",
		ClientEmail:          "john.doe@abcdevelopments.ca",
		ClientName:           "John Doe",
		ClientCompanyAddress: "250 King Street West, Toronto, ON",
		AssetClass:           "Mixed-Use Residential / Commercial",
		ProjectDescription:   "Mixed-use development.",
		Address:              "1021 Garner Road East, Ancaster, Ontario",
		ProposedMandates:     []model.ProposedMandate{model.MandateEstimating},
		ListOfServices:       []string{model.ServiceCostPlanning},
		Fee: &model.FeeSummary{Lines: []model.FeeLine{
			{StaffID: "Estimating", StaffName: "Estimating", Hours: 10, Rate: 150, LineTotal: 1},
		}},
		Bios: []string{"2", "1"},
	}
}

var storedBios = []model.Bio{
	{ID: "1", Name: "Ciaran Brady"},
	{ID: "2", Name: "Alisha Gunn"},
}

func TestGenerateProposal(t *testing.T) {
	r := &captureRenderer{}
	doc, err := newTestGenerator(&fakeRepo{bios: storedBios}, r).GenerateProposal(context.Background(), proposalRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Filename != "proposal-Ancaster_Tower.docx" {
		t.Fatalf("expected proposal-Ancaster_Tower.docx, got %s", doc.Filename)
	}
	if doc.ContentType != model.ContentTypeDOCX {
		t.Fatalf("unexpected content type %s", doc.ContentType)
	}
	if doc.ID == "" {
		t.Fatal("expected a document id")
	}

	p := r.payload
	if len(p.Bios) != 2 || p.Bios[0].ID != "2" || p.Bios[1].ID != "1" {
		t.Fatalf("expected bios in selection order [2 1], got %+v", p.Bios)
	}
	if p.Fee.Total != 1500 || p.Fee.Lines[0].LineTotal != 1500 {
		t.Fatalf("expected recomputed fee total 1500, got %+v", p.Fee)
	}
	if p.Date != "2026-10-19" {
		t.Fatalf("expected default date 2026-10-19, got %s", p.Date)
	}
	if p.Directives()["has_cost_planning"] != true {
		t.Fatal("expected cost_planning section")
	}
}

func TestGenerateProposal_MissingFields(t *testing.T) {
	req := proposalRequest()
	req.ClientName = ""
	req.Bios = nil

	r := &captureRenderer{}
	_, err := newTestGenerator(&fakeRepo{bios: storedBios}, r).GenerateProposal(context.Background(), req)

	verr, ok := validation.AsError(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 2 || verr.Fields[0] != "Client Name" || verr.Fields[1] != "Bios" {
		t.Fatalf("unexpected fields %v", verr.Fields)
	}
	if r.payload.ProjectName != "" {
		t.Fatal("renderer must not be called for invalid input")
	}
}

func TestGenerateProposal_UnresolvableBios(t *testing.T) {
	req := proposalRequest()
	req.Bios = []string{"404"}

	_, err := newTestGenerator(&fakeRepo{bios: storedBios}, &captureRenderer{}).GenerateProposal(context.Background(), req)
	verr, ok := validation.AsError(err)
	if !ok || verr.Fields[0] != "Bios" {
		t.Fatalf("expected Bios validation error, got %v", err)
	}
}

func TestGenerateProposal_StoreFailure(t *testing.T) {
	boom := errors.New("database unavailable")
	_, err := newTestGenerator(&fakeRepo{err: boom}, &captureRenderer{}).GenerateProposal(context.Background(), proposalRequest())
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, ok := validation.AsError(err); ok {
		t.Fatal("store failure must not look like a validation error")
	}
}

func TestGeneratePDF(t *testing.T) {
	r := &captureRenderer{}
	req := &model.GeneratePDFRequest{
		ProjectName:   "Ancaster Tower",
		BillingEntity: "Finnegan Marshall Inc.",
		Address:       "1021 Garner Road East",
		Fee: &model.FeeSummary{Lines: []model.FeeLine{
			{StaffID: "Estimating", StaffName: "Estimating", Hours: 10, Rate: 150},
		}},
	}

	doc, err := newTestGenerator(&fakeRepo{}, r).GeneratePDF(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Filename != "project-summary-Ancaster Tower.pdf" {
		t.Fatalf("unexpected filename %s", doc.Filename)
	}
	if r.payload.Fee.Total != 1500 {
		t.Fatalf("expected fee total 1500, got %v", r.payload.Fee.Total)
	}
}

func TestGeneratePDF_MissingFee(t *testing.T) {
	req := &model.GeneratePDFRequest{
		ProjectName:   "Ancaster Tower",
		BillingEntity: "Finnegan Marshall Inc.",
		Address:       "1021 Garner Road East",
	}
	_, err := newTestGenerator(&fakeRepo{}, &captureRenderer{}).GeneratePDF(context.Background(), req)
	verr, ok := validation.AsError(err)
	if !ok || len(verr.Fields) != 1 || verr.Fields[0] != "Fee" {
		t.Fatalf("expected Fee validation error, got %v", err)
	}
}

func TestGeneratePDF_RenderFailure(t *testing.T) {
	req := &model.GeneratePDFRequest{
		ProjectName:   "p",
		BillingEntity: "b",
		Address:       "a",
		Fee:           &model.FeeSummary{},
	}
	boom := errors.New("font missing")
	_, err := newTestGenerator(&fakeRepo{}, &captureRenderer{err: boom}).GeneratePDF(context.Background(), req)
	if !errors.Is(err, boom) {
		t.Fatalf("expected render error, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	if got := SanitizeFilename("Tower #2 / Phase-B"); got != "Tower__2___Phase_B" {
		t.Fatalf("unexpected %s", got)
	}
}
