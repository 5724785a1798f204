package model

// FeeLine is one billable row. LineTotal is derived from Hours and Rate.
type FeeLine struct {
	StaffID   string  `json:"staffId" yaml:"staffId"`
	StaffName string  `json:"staffName" yaml:"staffName"`
	Hours     float64 `json:"hours" yaml:"hours"`
	Rate      float64 `json:"rate" yaml:"rate"`
	LineTotal float64 `json:"lineTotal" yaml:"lineTotal"`
}

type FeeSummary struct {
	Lines []FeeLine `json:"lines"`
	Total float64   `json:"total"`
}

type Mandate struct {
	ID          string          `json:"id" yaml:"id"`
	Name        ProposedMandate `json:"name" yaml:"name"`
	DefaultRate float64         `json:"defaultRate" yaml:"defaultRate"`
}

// Bio is a staff biography snapshot. Accreditations is nil when the store has none.
type Bio struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	IndustryExperience string  `json:"industry_experience,omitempty"`
	Accreditations     *string `json:"accreditations,omitempty"`
}

// FormState is the mutable form owned by the client until submission.
type FormState struct {
	ProjectName          string            `json:"projectName" yaml:"projectName"`
	BillingEntity        string            `json:"billingEntity" yaml:"billingEntity"`
	Address              string            `json:"address" yaml:"address"`
	Date                 string            `json:"date" yaml:"date"`
	ClientEmail          string            `json:"clientEmail" yaml:"clientEmail"`
	ClientName           string            `json:"clientName" yaml:"clientName"`
	ClientCompanyAddress string            `json:"clientCompanyAddress" yaml:"clientCompanyAddress"`
	AssetClass           string            `json:"assetClass" yaml:"assetClass"`
	ProjectDescription   string            `json:"projectDescription" yaml:"projectDescription"`
	ProposedMandates     []ProposedMandate `json:"proposedMandates" yaml:"proposedMandates"`
	ListOfServices       []string          `json:"listOfServices" yaml:"listOfServices"`
	Fee                  *FeeSummary       `json:"fee,omitempty" yaml:"-"`
	Bios                 []Bio             `json:"bios" yaml:"-"`
}

// SectionDirective tells the document template whether an optional service
// section is present and which page break marker to insert before it.
type SectionDirective struct {
	Service   string `json:"service"`
	Present   bool   `json:"present"`
	PageBreak string `json:"pageBreak"`
}

// ProposalPayload is the immutable, document-ready result of assembly.
type ProposalPayload struct {
	ProjectName          string             `json:"projectName"`
	BillingEntity        string             `json:"billingEntity"`
	Date                 string             `json:"date"`
	Address              string             `json:"address"`
	ClientEmail          string             `json:"clientEmail"`
	ClientName           string             `json:"clientName"`
	ClientCompanyAddress string             `json:"clientCompanyAddress"`
	AssetClass           string             `json:"assetClass"`
	ProjectDescription   string             `json:"projectDescription"`
	ProposedMandates     []ProposedMandate  `json:"proposedMandates"`
	ListOfServices       []string           `json:"listOfServices"`
	Fee                  FeeSummary         `json:"fee"`
	Bios                 []Bio              `json:"bios"`
	Sections             []SectionDirective `json:"sections"`
}

// Directives flattens the section directives into template keys:
// has_<service> and has_<service>_break.
func (p *ProposalPayload) Directives() map[string]any {
	out := make(map[string]any, 2*len(p.Sections))
	for _, s := range p.Sections {
		out["has_"+s.Service] = s.Present
		out["has_"+s.Service+"_break"] = s.PageBreak
	}
	return out
}
