package render

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"proposal-generator/internal/model"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// DefaultTemplate builds the minimal .docx used when no template file is
// configured. It has one optional section per default service.
func DefaultTemplate() []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, body string }{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{documentPart, defaultDocument(model.DefaultServices)},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func para(text string) string {
	return `<w:p><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func heading(text string) string {
	return `<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t xml:space="preserve">` + text + `</w:t></w:r></w:p>`
}

func defaultDocument(services []model.Service) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	b.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	b.WriteString(`<w:p><w:pPr><w:pStyle w:val="Title"/></w:pPr><w:r><w:t xml:space="preserve">{{.project_name}}</w:t></w:r></w:p>`)
	b.WriteString(para("Prepared for {{.client_name}} ({{.client_email}})"))
	b.WriteString(para("{{.client_company_address}}"))
	b.WriteString(para("Date: {{.date}}"))
	b.WriteString(para("Site: {{.address}}"))
	b.WriteString(para("Billing entity: {{.billing_entity}}"))
	b.WriteString(para("Asset class: {{.asset_class}}"))
	b.WriteString(para("Proposed mandates: {{.proposed_mandates}}"))
	b.WriteString(para("Services: {{.services}}"))
	b.WriteString(heading("Project Description"))
	b.WriteString(para("{{.project_description}}"))

	for _, s := range services {
		fmt.Fprintf(&b, "{{.has_%s_break}}{{if .has_%s}}", s.Key, s.Key)
		b.WriteString(heading(s.Label))
		b.WriteString(para(s.Label + " services for {{.project_name}}."))
		b.WriteString("{{end}}")
	}

	b.WriteString("{{if .fee_lines}}")
	b.WriteString(heading("Proposed Fees"))
	b.WriteString("{{range .fee_lines}}")
	b.WriteString(para("{{.staff_name}}: {{.hours}} hours at {{.rate}} = {{.line_total}}"))
	b.WriteString("{{end}}")
	b.WriteString(para("Total: {{.fee_total}}"))
	b.WriteString("{{end}}")

	b.WriteString(heading("Team"))
	b.WriteString("{{range .bios}}")
	b.WriteString(`<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">{{.name}}</w:t></w:r></w:p>`)
	b.WriteString(para("{{.industry_experience}}"))
	b.WriteString("{{if .accreditations}}" + para("{{.accreditations}}") + "{{end}}")
	b.WriteString("{{end}}")

	b.WriteString(`<w:sectPr><w:pgSz w:w="11906" w:h="16838"/></w:sectPr></w:body></w:document>`)
	return b.String()
}
