package model

// GeneratePDFRequest is the body of POST /api/generate-pdf.
type GeneratePDFRequest struct {
	ProjectName          string            `json:"projectName"`
	BillingEntity        string            `json:"billingEntity"`
	Address              string            `json:"address"`
	Date                 string            `json:"date"`
	Fee                  *FeeSummary       `json:"fee"`
	ClientEmail          string            `json:"clientEmail,omitempty"`
	ClientName           string            `json:"clientName,omitempty"`
	ClientCompanyAddress string            `json:"clientCompanyAddress,omitempty"`
	AssetClass           string            `json:"assetClass,omitempty"`
	ProjectDescription   string            `json:"projectDescription,omitempty"`
	ProposedMandates     []ProposedMandate `json:"proposedMandates,omitempty"`
}

// GenerateProposalRequest is the body of POST /api/generate-proposal. Bios
// carries bio ids in selection order.
type GenerateProposalRequest struct {
	ProjectName          string            `json:"projectName"`
	BillingEntity        string            `json:"billingEntity"`
	Date                 string            `json:"date"`
	ClientEmail          string            `json:"clientEmail"`
	ClientName           string            `json:"clientName"`
	ClientCompanyAddress string            `json:"clientCompanyAddress"`
	AssetClass           string            `json:"assetClass"`
	ProjectDescription   string            `json:"projectDescription"`
	Address              string            `json:"address"`
	Fee                  *FeeSummary       `json:"fee"`
	ProposedMandates     []ProposedMandate `json:"proposedMandates"`
	ListOfServices       []string          `json:"listOfServices"`
	Bios                 []string          `json:"bios"`
}

// Form converts the request into form state. Bio ids become id-only records
// until they are resolved against the store.
func (r *GenerateProposalRequest) Form() FormState {
	bios := make([]Bio, 0, len(r.Bios))
	for _, id := range r.Bios {
		bios = append(bios, Bio{ID: id})
	}
	return FormState{
		ProjectName:          r.ProjectName,
		BillingEntity:        r.BillingEntity,
		Address:              r.Address,
		Date:                 r.Date,
		ClientEmail:          r.ClientEmail,
		ClientName:           r.ClientName,
		ClientCompanyAddress: r.ClientCompanyAddress,
		AssetClass:           r.AssetClass,
		ProjectDescription:   r.ProjectDescription,
		ProposedMandates:     r.ProposedMandates,
		ListOfServices:       r.ListOfServices,
		Fee:                  r.Fee,
		Bios:                 bios,
	}
}

func (r *GeneratePDFRequest) Form() FormState {
	return FormState{
		ProjectName:          r.ProjectName,
		BillingEntity:        r.BillingEntity,
		Address:              r.Address,
		Date:                 r.Date,
		ClientEmail:          r.ClientEmail,
		ClientName:           r.ClientName,
		ClientCompanyAddress: r.ClientCompanyAddress,
		AssetClass:           r.AssetClass,
		ProjectDescription:   r.ProjectDescription,
		ProposedMandates:     r.ProposedMandates,
		Fee:                  r.Fee,
	}
}
