package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"proposal-generator/internal/bios"
	"proposal-generator/internal/fee"
	"proposal-generator/internal/model"
	"proposal-generator/internal/validation"
)

// PDFRenderer draws the project summary PDF.
type PDFRenderer interface {
	RenderPDF(ctx context.Context, p model.ProposalPayload) ([]byte, error)
}

// DOCXRenderer merges the payload into the proposal template.
type DOCXRenderer interface {
	RenderDOCX(ctx context.Context, p model.ProposalPayload) ([]byte, error)
}

// Document is a rendered file ready for download.
type Document struct {
	ID          string
	Filename    string
	ContentType string
	Data        []byte
}

type Generator struct {
	bios      bios.Repository
	pdf       PDFRenderer
	docx      DOCXRenderer
	assembler *Assembler
	validator *validation.Validator
	logger    *slog.Logger
}

func NewGenerator(repo bios.Repository, pdf PDFRenderer, docx DOCXRenderer, assembler *Assembler, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		bios:      repo,
		pdf:       pdf,
		docx:      docx,
		assembler: assembler,
		validator: validation.New(),
		logger:    logger,
	}
}

// GeneratePDF validates the request against the PDF contract and renders the
// project summary. A *validation.Error is returned for incomplete input.
func (g *Generator) GeneratePDF(ctx context.Context, req *model.GeneratePDFRequest) (*Document, error) {
	start := time.Now()

	form := req.Form()
	if missing := g.validator.Validate(form, req.Address, validation.TargetPDF); len(missing) > 0 {
		return nil, &validation.Error{Fields: missing}
	}

	payload := g.assembler.Assemble(form, req.Address, fee.Recompute(*req.Fee), nil)
	data, err := g.pdf.RenderPDF(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	doc := &Document{
		ID:          uuid.New().String(),
		Filename:    "project-summary-" + headerSafe(payload.ProjectName) + ".pdf",
		ContentType: model.ContentTypePDF,
		Data:        data,
	}
	g.logger.InfoContext(ctx, "pdf generated",
		"document_id", doc.ID, "project", payload.ProjectName,
		"fee_lines", len(payload.Fee.Lines), "bytes", len(data), "duration_ms", time.Since(start).Milliseconds())
	return doc, nil
}

// GenerateProposal validates the request against the full proposal contract,
// resolves the selected bios and renders the DOCX proposal.
func (g *Generator) GenerateProposal(ctx context.Context, req *model.GenerateProposalRequest) (*Document, error) {
	start := time.Now()

	form := req.Form()
	if missing := g.validator.Validate(form, req.Address, validation.TargetProposal); len(missing) > 0 {
		return nil, &validation.Error{Fields: missing}
	}

	found, err := g.bios.FindBiosByIDs(ctx, req.Bios)
	if err != nil {
		return nil, fmt.Errorf("failed to load bios: %w", err)
	}
	resolved := bios.Resolve(req.Bios, found)
	if len(resolved) == 0 {
		return nil, &validation.Error{Fields: []string{"Bios"}}
	}
	if dropped := len(req.Bios) - len(resolved); dropped > 0 {
		g.logger.WarnContext(ctx, "unknown bio ids dropped", "requested", len(req.Bios), "dropped", dropped)
	}

	var summary model.FeeSummary
	if req.Fee != nil {
		summary = fee.Recompute(*req.Fee)
	}

	payload := g.assembler.Assemble(form, req.Address, summary, resolved)
	data, err := g.docx.RenderDOCX(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to render proposal: %w", err)
	}

	doc := &Document{
		ID:          uuid.New().String(),
		Filename:    "proposal-" + SanitizeFilename(payload.ProjectName) + ".docx",
		ContentType: model.ContentTypeDOCX,
		Data:        data,
	}
	g.logger.InfoContext(ctx, "proposal generated",
		"document_id", doc.ID, "project", payload.ProjectName, "bios", len(resolved),
		"services", payload.ListOfServices, "bytes", len(data), "duration_ms", time.Since(start).Milliseconds())
	return doc, nil
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9] with "_".
func SanitizeFilename(name string) string {
	return unsafeFilename.ReplaceAllString(name, "_")
}

// headerSafe strips characters that would break a quoted header value.
func headerSafe(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '\r', '\n':
			return -1
		}
		return r
	}, name)
}
