package render

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"
	"time"

	"proposal-generator/internal/model"
)

const documentPart = "word/document.xml"

var (
	ErrTemplateNotFound = errors.New("Proposal template not found")
	ErrInvalidTemplate  = errors.New("invalid proposal template")
)

// DOCXRenderer merges proposal data into the XML parts of a Word template.
// Template actions use text/template syntax inside the document text, e.g.
// {{.project_name}} or {{range .bios}}{{.name}}{{end}}. Values are XML
// escaped before merging; missing keys render as empty strings.
type DOCXRenderer struct {
	parts    []templatePart
	services []model.Service
}

// templatePart is one zip entry of the template. tmpl is set for parts that
// carry merge actions; the others are copied through unchanged.
type templatePart struct {
	name     string
	modified time.Time
	content  []byte
	tmpl     *template.Template
}

// NewDOCXRenderer uses tmpl as the .docx template, or the built-in template
// when tmpl is empty. Every mergeable part is parsed here, so a malformed
// template is reported before the first render.
func NewDOCXRenderer(tmpl []byte, services []model.Service) (*DOCXRenderer, error) {
	if len(tmpl) == 0 {
		tmpl = DefaultTemplate()
	}
	zr, err := zip.NewReader(bytes.NewReader(tmpl), int64(len(tmpl)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
	}

	r := &DOCXRenderer{services: services}
	for _, f := range zr.File {
		content, err := readPart(f)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplate, f.Name, err)
		}
		part := templatePart{name: f.Name, modified: f.Modified, content: content}
		if isMergeable(f.Name) {
			part.tmpl, err = template.New(f.Name).Option("missingkey=zero").Parse(string(joinSplitActions(content)))
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidTemplate, err)
			}
		}
		r.parts = append(r.parts, part)
	}
	return r, nil
}

func readPart(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// LoadTemplate reads a .docx template from disk. An empty path yields nil,
// selecting the built-in template.
func LoadTemplate(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, path)
	}
	return data, err
}

func (r *DOCXRenderer) RenderDOCX(ctx context.Context, p model.ProposalPayload) ([]byte, error) {
	data := r.TemplateData(p)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, part := range r.parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := writePart(zw, part, data); err != nil {
			return nil, fmt.Errorf("%s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePart(zw *zip.Writer, part templatePart, data map[string]any) error {
	content := part.content
	if part.tmpl != nil {
		var out bytes.Buffer
		if err := part.tmpl.Execute(&out, data); err != nil {
			return err
		}
		content = bytes.ReplaceAll(out.Bytes(), []byte("<no value>"), nil)
	}

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     part.name,
		Method:   zip.Deflate,
		Modified: part.modified,
	})
	if err != nil {
		return err
	}
	_, err = w.Write(content)
	return err
}

func isMergeable(name string) bool {
	if name == documentPart {
		return true
	}
	if !strings.HasSuffix(name, ".xml") {
		return false
	}
	return strings.HasPrefix(name, "word/header") || strings.HasPrefix(name, "word/footer")
}

// joinSplitActions removes the markup Word inserts inside a {{ }} action when
// it splits the action text across runs, e.g.
// <w:t>{{.project_</w:t></w:r><w:r><w:t>name}}</w:t> becomes
// <w:t>{{.project_name}}</w:t>. Markup outside actions is left alone.
func joinSplitActions(src []byte) []byte {
	inTag := make([]bool, len(src))
	text := make([]int, 0, len(src))
	tag := false
	for i, c := range src {
		if c == '<' {
			tag = true
		}
		inTag[i] = tag
		if !tag {
			text = append(text, i)
		}
		if c == '>' {
			tag = false
		}
	}

	var drop []bool
	for k := 0; k+1 < len(text); k++ {
		if src[text[k]] != '{' || src[text[k+1]] != '{' {
			continue
		}
		m := k + 2
		for m+1 < len(text) && (src[text[m]] != '}' || src[text[m+1]] != '}') {
			m++
		}
		if m+1 >= len(text) {
			break
		}
		for i := text[k]; i <= text[m+1]; i++ {
			if inTag[i] {
				if drop == nil {
					drop = make([]bool, len(src))
				}
				drop[i] = true
			}
		}
		k = m + 1
	}
	if drop == nil {
		return src
	}

	out := make([]byte, 0, len(src))
	for i, c := range src {
		if !drop[i] {
			out = append(out, c)
		}
	}
	return out
}

// TemplateData flattens the payload into the keys a template can reference.
// Every string is XML escaped; the *_break keys carry raw WordprocessingML.
func (r *DOCXRenderer) TemplateData(p model.ProposalPayload) map[string]any {
	mandates := make([]string, len(p.ProposedMandates))
	for i, m := range p.ProposedMandates {
		mandates[i] = escape(string(m))
	}

	services := make([]string, 0, len(p.ListOfServices))
	for _, key := range p.ListOfServices {
		services = append(services, escape(r.serviceLabel(key)))
	}

	bios := make([]map[string]any, len(p.Bios))
	for i, b := range p.Bios {
		accreditations := ""
		if b.Accreditations != nil {
			accreditations = *b.Accreditations
		}
		bios[i] = map[string]any{
			"id":                  escape(b.ID),
			"name":                escape(b.Name),
			"industry_experience": escape(b.IndustryExperience),
			"accreditations":      escape(accreditations),
		}
	}

	lines := make([]map[string]any, len(p.Fee.Lines))
	for i, l := range p.Fee.Lines {
		lines[i] = map[string]any{
			"staff_name": escape(l.StaffName),
			"hours":      strconv.FormatFloat(l.Hours, 'f', -1, 64),
			"rate":       Money(l.Rate),
			"line_total": Money(l.LineTotal),
		}
	}

	data := map[string]any{
		"project_name":           escape(p.ProjectName),
		"billing_entity":         escape(p.BillingEntity),
		"client_name":            escape(p.ClientName),
		"client_email":           escape(p.ClientEmail),
		"client_company_address": escape(p.ClientCompanyAddress),
		"asset_class":            escape(p.AssetClass),
		"project_description":    escape(p.ProjectDescription),
		"date":                   escape(p.Date),
		"address":                escape(p.Address),
		"proposed_mandates":      strings.Join(mandates, ", "),
		"services":               strings.Join(services, ", "),
		"bios":                   bios,
		"fee_lines":              lines,
		"fee_total":              Money(p.Fee.Total),
	}
	for k, v := range p.Directives() {
		data[k] = v
	}
	return data
}

func (r *DOCXRenderer) serviceLabel(key string) string {
	for _, s := range r.services {
		if s.Key == key {
			return s.Label
		}
	}
	return key
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
