package entities

// TNMStaging is the staging verdict for one set of features.
type TNMStaging struct {
	CancerType  string              `json:"cancer_type"`
	T           string              `json:"T"`
	N           string              `json:"N"`
	M           string              `json:"M"`
	Stage       string              `json:"stage"`
	Substage    string              `json:"substage"`
	Description string              `json:"description"`
	Confidence  float64             `json:"confidence"`
	Rationale   []string            `json:"rationale,omitempty"`
	Guideline   *GuidelineReference `json:"guideline,omitempty"`
}

// Label joins stage and substage back into the full group label, e.g. "Stage IVA".
func (s TNMStaging) Label() string {
	return s.Stage + s.Substage
}

// GuidelineReference points at the external treatment guideline for a cancer type.
type GuidelineReference struct {
	CancerType string `json:"cancer_type" yaml:"cancer_type"`
	Title      string `json:"title" yaml:"title"`
	URL        string `json:"url" yaml:"url"`
	Source     string `json:"source" yaml:"source"`
	Edition    string `json:"edition,omitempty" yaml:"edition,omitempty"`
}

// AnalysisResult is the outcome of running a report through the full pipeline.
type AnalysisResult struct {
	AuditID  string          `json:"audit_id,omitempty"`
	Features MedicalFeatures `json:"features"`
	Staging  *TNMStaging     `json:"staging,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
}
