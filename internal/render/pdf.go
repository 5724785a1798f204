// Package render turns an assembled proposal payload into PDF or DOCX bytes.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"proposal-generator/internal/model"
)

// A4 in points. The cursor runs from the top of the page.
const (
	pageHeight   = 842.0
	topCursor    = 42.0
	bottomMargin = 40.0

	labelX      = 50.0
	valueX      = 220.0
	lineSpacing = 30.0
	fieldSize   = 12.0
	headingSize = 14.0

	tableX        = 50.0
	tableFontSize = 11.0
	rowHeight     = 22.0
	cellPadding   = 6.0
)

type column struct {
	label string
	width float64
}

var feeColumns = []column{
	{"Staff", 180},
	{"Hours", 80},
	{"Rate", 80},
	{"Line Total", 100},
}

// PDFRenderer draws the project summary: fixed-position fields followed by a
// fee table when there are fee lines.
type PDFRenderer struct {
	compress bool
}

func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{compress: true}
}

type pdfPage struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
	y   float64
}

func (r *PDFRenderer) RenderPDF(ctx context.Context, p model.ProposalPayload) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetCompression(r.compress)
	doc.SetAutoPageBreak(false, 0)
	doc.SetTitle(p.ProjectName, true)
	doc.SetCreator("proposal-generator", true)
	doc.AddPage()

	pg := &pdfPage{pdf: doc, tr: doc.UnicodeTranslatorFromDescriptor(""), y: topCursor}
	doc.SetTextColor(0, 0, 0)

	mandates := make([]string, len(p.ProposedMandates))
	for i, m := range p.ProposedMandates {
		mandates[i] = string(m)
	}

	pg.field("Project Name", p.ProjectName)
	pg.field("Billing Entity", p.BillingEntity)
	pg.field("Location / Address", p.Address)
	pg.field("Date", p.Date)
	pg.field("Client Email", p.ClientEmail)
	pg.field("Client Name", p.ClientName)
	pg.field("Client Company Address", p.ClientCompanyAddress)
	pg.field("Asset Class", p.AssetClass)
	pg.field("Project Description", p.ProjectDescription)
	pg.field("Proposed Mandate", strings.Join(mandates, ","))

	if len(p.Fee.Lines) > 0 {
		pg.y += 20
		pg.ensure(2*rowHeight + 20)
		doc.SetFont("Helvetica", "", headingSize)
		doc.Text(labelX, pg.y, "Proposed Fees")
		pg.y += 20
		pg.feeTable(p.Fee)
	}

	if err := doc.Error(); err != nil {
		return nil, fmt.Errorf("failed to draw pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// ensure starts a new page when height would not fit above the bottom margin.
func (pg *pdfPage) ensure(height float64) bool {
	if pg.y+height <= pageHeight-bottomMargin {
		return false
	}
	pg.pdf.AddPage()
	pg.y = topCursor
	return true
}

func (pg *pdfPage) field(label, value string) {
	pg.ensure(lineSpacing)
	pg.pdf.SetFont("Helvetica", "", fieldSize)
	pg.pdf.Text(labelX, pg.y, pg.tr(label+":"))
	pg.pdf.Text(valueX, pg.y, pg.tr(value))
	pg.y += lineSpacing
}

func (pg *pdfPage) feeTable(fee model.FeeSummary) {
	pg.pdf.SetFont("Helvetica", "", tableFontSize)
	pg.pdf.SetLineWidth(1)
	pg.header()

	for _, line := range fee.Lines {
		if pg.ensure(rowHeight) {
			pg.header()
		}
		values := []string{
			line.StaffName,
			strconv.FormatFloat(line.Hours, 'f', -1, 64),
			Money(line.Rate),
			Money(line.LineTotal),
		}
		x := tableX
		for i, v := range values {
			pg.pdf.SetDrawColor(217, 217, 217)
			pg.pdf.Rect(x, pg.y-4, feeColumns[i].width, rowHeight, "D")
			pg.pdf.Text(x+cellPadding, pg.y+15, pg.tr(v))
			x += feeColumns[i].width
		}
		pg.y += rowHeight
	}

	pg.ensure(rowHeight)
	totalX := tableX
	for _, c := range feeColumns[:3] {
		totalX += c.width
	}
	pg.pdf.SetFillColor(242, 242, 242)
	pg.pdf.SetDrawColor(191, 191, 191)
	pg.pdf.Rect(totalX, pg.y-4, feeColumns[3].width, rowHeight, "FD")
	pg.pdf.Text(totalX+cellPadding, pg.y+15, Money(fee.Total))
	pg.pdf.Text(tableX+cellPadding, pg.y+15, "Total")
	pg.y += rowHeight
}

func (pg *pdfPage) header() {
	x := tableX
	pg.pdf.SetFillColor(230, 230, 230)
	pg.pdf.SetDrawColor(191, 191, 191)
	for _, c := range feeColumns {
		pg.pdf.Rect(x, pg.y-4, c.width, rowHeight, "FD")
		pg.pdf.Text(x+cellPadding, pg.y+15, c.label)
		x += c.width
	}
	pg.y += rowHeight
}

// Money formats an amount as dollars with two decimals.
func Money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
