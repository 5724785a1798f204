package model

type ProposedMandate string

const (
	MandateEstimating        ProposedMandate = "Estimating"
	MandateProforma          ProposedMandate = "Proforma"
	MandateProjectMonitoring ProposedMandate = "Project Monitoring"
)

// Mandates lists the fixed mandate enumeration in display order.
var Mandates = []ProposedMandate{MandateEstimating, MandateProforma, MandateProjectMonitoring}

func (m ProposedMandate) Valid() bool {
	for _, known := range Mandates {
		if m == known {
			return true
		}
	}
	return false
}

const (
	ServiceConceptToCompletion = "concept_to_completion"
	ServiceCostPlanning        = "cost_planning"
	ServiceProjectMonitoring   = "project_monitoring"
)

type Service struct {
	Key   string `json:"key" yaml:"key"`
	Label string `json:"label" yaml:"label"`
}

// DefaultServices is the service catalogue offered on the form.
var DefaultServices = []Service{
	{Key: ServiceConceptToCompletion, Label: "Concept To Completion"},
	{Key: ServiceCostPlanning, Label: "Cost Planning"},
	{Key: ServiceProjectMonitoring, Label: "Project Monitoring"},
}
