package entities

import "time"

// AuditRecord is one persisted staging decision. Report text is never stored,
// only its SHA-256 digest.
type AuditRecord struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	Source     string          `json:"source"`
	CancerType string          `json:"cancer_type"`
	T          string          `json:"T"`
	N          string          `json:"N"`
	M          string          `json:"M"`
	Stage      string          `json:"stage"`
	Substage   string          `json:"substage"`
	Confidence float64         `json:"confidence"`
	TextSHA256 string          `json:"text_sha256,omitempty"`
	Features   MedicalFeatures `json:"features"`
}
