package staging

var stageDescriptions = map[string]string{
	"Stage 0":       "Carcinoma in situ",
	"Stage I":       "Early-stage invasive cancer",
	"Stage II":      "Locally advanced cancer",
	"Stage II–III":  "Locally advanced cancer with possible regional spread",
	"Stage III":     "Regional spread",
	"Stage IIIA":    "Regional spread with limited nodal involvement",
	"Stage IIIB":    "Regional spread with extensive local invasion",
	"Stage IV":      "Distant metastasis",
	"Stage IVA":     "Locally advanced disease with regional nodal involvement",
	"Stage IVB":     "Distant metastasis",
	"Stage IVC":     "Distant metastasis",
	"Stage Unknown": "Stage could not be determined from the available features",
}

const unavailableDescription = "Stage information not available"

// Describe returns the text for a full stage label, falling back to the
// label without its substage letter.
func Describe(label string) string {
	if d, ok := stageDescriptions[label]; ok {
		return d
	}
	stage, _ := SplitLabel(label)
	if d, ok := stageDescriptions[stage]; ok {
		return d
	}
	return unavailableDescription
}
