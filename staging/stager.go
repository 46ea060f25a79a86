package staging

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rawmatterx/oncostaging/entities"
)

// Stager applies one cancer type's table. It is immutable and safe for
// concurrent use.
type Stager struct {
	table Table
}

// NewStager wraps a rule table.
func NewStager(t Table) *Stager {
	return &Stager{table: t}
}

// CancerType returns the registry key this stager serves.
func (s *Stager) CancerType() string {
	return s.table.CancerType
}

// Stage classifies T, N and M and groups them into a stage. Confidence is
// left for the engine to fill in.
func (s *Stager) Stage(f entities.MedicalFeatures) entities.TNMStaging {
	t, tWhy := s.classifyT(f)
	n, nWhy := s.classifyN(f.LymphNodesInvolved)

	m, mWhy := "M0", "M0: no distant metastasis reported"
	if f.DistantMetastasis {
		m, mWhy = "M1", "M1: distant metastasis reported"
	}

	label, groupWhy := s.group(t, n, m)
	stage, substage := SplitLabel(label)

	return entities.TNMStaging{
		CancerType:  s.table.CancerType,
		T:           t,
		N:           n,
		M:           m,
		Stage:       stage,
		Substage:    substage,
		Description: Describe(label),
		Rationale:   []string{tWhy, nWhy, mWhy, groupWhy},
	}
}

func (s *Stager) classifyT(f entities.MedicalFeatures) (string, string) {
	if s.table.LiverInvasionT != "" && f.LiverInvasion {
		return s.table.LiverInvasionT, s.table.LiverInvasionT + ": liver invasion"
	}

	if s.table.DepthMap != nil {
		depth := strings.ToLower(strings.TrimSpace(f.TumorDepth))
		if code, ok := s.table.DepthMap[depth]; ok {
			return code, fmt.Sprintf("%s: invasion depth %s", code, depth)
		}
		if depth == "" {
			return "Tx", "Tx: invasion depth not reported"
		}
		return "Tx", fmt.Sprintf("Tx: depth %s is not used for %s", depth, s.table.CancerType)
	}

	lower := 0.0
	for _, band := range s.table.SizeBands {
		if f.TumorSizeCM <= band.UpTo {
			return band.Code, fmt.Sprintf("%s: tumor %.1f cm %s", band.Code, f.TumorSizeCM, describeBand(lower, band.UpTo))
		}
		lower = band.UpTo
	}
	return "Tx", "Tx: tumor size outside known bands"
}

func describeBand(lower, upper float64) string {
	if math.IsInf(upper, 1) {
		return fmt.Sprintf("(> %g cm)", lower)
	}
	if upper <= 0 {
		return "(no measurable size)"
	}
	return fmt.Sprintf("(<= %g cm)", upper)
}

func (s *Stager) classifyN(count int) (string, string) {
	for _, band := range s.table.NodeBands {
		if count <= band.UpTo {
			return band.Code, fmt.Sprintf("%s: %d lymph nodes involved", band.Code, count)
		}
	}
	return "Nx", "Nx: node count outside known bands"
}

func (s *Stager) group(t, n, m string) (string, string) {
	if m == "M1" {
		return s.table.MetastaticLabel, s.table.MetastaticLabel + ": distant metastasis overrides local extent"
	}
	for _, rule := range s.table.Groups {
		if rule.matches(t, n) {
			return rule.Label, fmt.Sprintf("%s: %s %s %s", rule.Label, t, n, m)
		}
	}
	return s.table.Fallback, fmt.Sprintf("%s: no grouping rule for %s %s %s", s.table.Fallback, t, n, m)
}

var substageRe = regexp.MustCompile(`^(Stage [0IV]+)([A-C])$`)

// SplitLabel separates a group label into stage and substage,
// e.g. "Stage IVA" into "Stage IV" and "A".
func SplitLabel(label string) (string, string) {
	if m := substageRe.FindStringSubmatch(label); m != nil {
		return m[1], m[2]
	}
	return label, ""
}
