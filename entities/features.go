package entities

// Field names used as keys in ConfidenceScores and ExtractedValues.
const (
	FieldCancerType        = "cancer_type"
	FieldTumorSize         = "tumor_size_cm"
	FieldTumorDepth        = "tumor_depth"
	FieldLymphNodes        = "lymph_nodes_involved"
	FieldDistantMetastasis = "distant_metastasis"
	FieldLiverInvasion     = "liver_invasion"
)

// MedicalFeatures is the structured result of reading one imaging report.
type MedicalFeatures struct {
	CancerType         string              `json:"cancer_type"`
	TumorSizeCM        float64             `json:"tumor_size_cm"`
	TumorDepth         string              `json:"tumor_depth"`
	LymphNodesInvolved int                 `json:"lymph_nodes_involved"`
	DistantMetastasis  bool                `json:"distant_metastasis"`
	LiverInvasion      bool                `json:"liver_invasion"`
	ConfidenceScores   map[string]float64  `json:"confidence_scores"`
	ExtractedValues    map[string][]string `json:"extracted_values"`
}

// Clone returns a deep copy so callers can adjust values without touching the original.
func (f MedicalFeatures) Clone() MedicalFeatures {
	out := f
	if f.ConfidenceScores != nil {
		out.ConfidenceScores = make(map[string]float64, len(f.ConfidenceScores))
		for k, v := range f.ConfidenceScores {
			out.ConfidenceScores[k] = v
		}
	}
	if f.ExtractedValues != nil {
		out.ExtractedValues = make(map[string][]string, len(f.ExtractedValues))
		for k, v := range f.ExtractedValues {
			out.ExtractedValues[k] = append([]string(nil), v...)
		}
	}
	return out
}

// Clamped returns a copy with size and node count capped at the given maxima.
// Negative values are left alone so validation can reject them.
func (f MedicalFeatures) Clamped(maxSizeCM float64, maxNodes int) MedicalFeatures {
	out := f.Clone()
	if out.TumorSizeCM > maxSizeCM {
		out.TumorSizeCM = maxSizeCM
	}
	if out.LymphNodesInvolved > maxNodes {
		out.LymphNodesInvolved = maxNodes
	}
	return out
}

// Depth terms understood by the staging tables beyond the extracted vocabulary.
// Callers supplying features directly may use them to express T4 disease.
const (
	DepthAdjacentStructures = "adjacent structures"
	DepthPeritonealInvasion = "peritoneum/invasion"
)
