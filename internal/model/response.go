package model

// ErrorResponse is the JSON body of every non-2xx response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
	Stack   string   `json:"stack,omitempty"`
}

// ExtractResponse is the body of a successful POST /api/extract.
type ExtractResponse struct {
	Result []string `json:"result"`
}

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeJSON = "application/json"
)

// CatalogResponse is the body of GET /api/catalog: mandate reference data in
// enumeration order and the optional service sections.
type CatalogResponse struct {
	Mandates []Mandate `json:"mandates"`
	Services []Service `json:"services"`
}
