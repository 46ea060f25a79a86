package staging

import (
	"math"

	"github.com/rawmatterx/oncostaging/entities"
)

// SizeBand maps tumor sizes up to and including UpTo (cm) to a T category.
type SizeBand struct {
	UpTo float64
	Code string
}

// NodeBand maps node counts up to and including UpTo to an N category.
type NodeBand struct {
	UpTo int
	Code string
}

// GroupRule assigns a stage label when the T and N categories match. An
// empty list matches any category. With Either set, a match on T or on N
// is enough.
type GroupRule struct {
	T      []string
	N      []string
	Either bool
	Label  string
}

func (r GroupRule) matches(t, n string) bool {
	tOK, nOK := contains(r.T, t), contains(r.N, n)
	if r.Either {
		return (len(r.T) > 0 && tOK) || (len(r.N) > 0 && nOK)
	}
	return (len(r.T) == 0 || tOK) && (len(r.N) == 0 || nOK)
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// Table is the complete rule set for one cancer type. T comes from
// SizeBands when set, otherwise from DepthMap.
type Table struct {
	CancerType      string
	LiverInvasionT  string
	SizeBands       []SizeBand
	DepthMap        map[string]string
	NodeBands       []NodeBand
	Groups          []GroupRule
	Fallback        string
	MetastaticLabel string
}

var inf = math.Inf(1)

const labelUnknown = "Stage Unknown"

// DefaultTables holds the staging rules for every supported cancer type, in
// registry order.
var DefaultTables = []Table{
	{
		CancerType:     "gallbladder",
		LiverInvasionT: "T3",
		SizeBands:      []SizeBand{{0, "Tx"}, {2, "T1"}, {inf, "T2"}},
		NodeBands:      []NodeBand{{0, "N0"}, {3, "N1"}, {math.MaxInt, "N2"}},
		Groups: []GroupRule{
			{T: []string{"T3"}, N: []string{"N1", "N2"}, Label: "Stage IVA"},
			{T: []string{"T3"}, N: []string{"N0"}, Label: "Stage IIIB"},
			{T: []string{"T2"}, N: []string{"N0"}, Label: "Stage II"},
			{T: []string{"T1", "T2"}, N: []string{"N1", "N2"}, Label: "Stage IIIA"},
			{T: []string{"T1"}, N: []string{"N0"}, Label: "Stage I"},
		},
		Fallback:        labelUnknown,
		MetastaticLabel: "Stage IVB",
	},
	{
		CancerType: "esophageal",
		// Submucosal disease is reported as T1b, which the grouping rules
		// below never match as T1, so it falls through to Stage III.
		DepthMap: map[string]string{
			"mucosa":                         "T1",
			"submucosa":                      "T1b",
			"muscularis":                     "T2",
			"muscularis propria":             "T2",
			"adventitia":                     "T3",
			entities.DepthAdjacentStructures: "T4",
		},
		NodeBands: []NodeBand{{0, "N0"}, {2, "N1"}, {6, "N2"}, {math.MaxInt, "N3"}},
		Groups: []GroupRule{
			{T: []string{"T4"}, N: []string{"N3"}, Either: true, Label: "Stage IVA"},
			{T: []string{"T2", "T3"}, N: []string{"N0", "N1"}, Label: "Stage II"},
			{T: []string{"T1"}, N: []string{"N0"}, Label: "Stage I"},
		},
		Fallback:        "Stage III",
		MetastaticLabel: "Stage IVB",
	},
	{
		CancerType: "breast",
		SizeBands:  []SizeBand{{2, "T1"}, {5, "T2"}, {inf, "T3"}},
		NodeBands:  []NodeBand{{0, "N0"}, {3, "N1"}, {9, "N2"}, {math.MaxInt, "N3"}},
		Groups: []GroupRule{
			{T: []string{"T1"}, N: []string{"N0"}, Label: "Stage I"},
			{T: []string{"T1", "T2"}, N: []string{"N1"}, Label: "Stage II"},
			{T: []string{"T3"}, N: []string{"N2", "N3"}, Either: true, Label: "Stage III"},
		},
		Fallback:        labelUnknown,
		MetastaticLabel: "Stage IV",
	},
	{
		CancerType: "lung",
		SizeBands:  []SizeBand{{3, "T1"}, {5, "T2"}, {7, "T3"}, {inf, "T4"}},
		NodeBands:  []NodeBand{{0, "N0"}, {3, "N1"}, {math.MaxInt, "N2"}},
		Groups: []GroupRule{
			{T: []string{"T1"}, N: []string{"N0"}, Label: "Stage I"},
			{T: []string{"T2", "T3"}, N: []string{"N0", "N1"}, Label: "Stage II"},
			{T: []string{"T3", "T4"}, N: []string{"N2"}, Either: true, Label: "Stage III"},
		},
		Fallback:        labelUnknown,
		MetastaticLabel: "Stage IV",
	},
	{
		CancerType: "colorectal",
		DepthMap: map[string]string{
			"submucosa":                      "T1",
			"muscularis":                     "T2",
			"muscularis propria":             "T2",
			"subserosa":                      "T3",
			entities.DepthPeritonealInvasion: "T4",
		},
		NodeBands: []NodeBand{{0, "N0"}, {3, "N1"}, {math.MaxInt, "N2"}},
		Groups: []GroupRule{
			{T: []string{"T1", "T2"}, N: []string{"N0"}, Label: "Stage I"},
			{T: []string{"T3"}, N: []string{"N0"}, Label: "Stage II"},
			{N: []string{"N1", "N2"}, Label: "Stage III"},
		},
		Fallback:        labelUnknown,
		MetastaticLabel: "Stage IV",
	},
	{
		CancerType: "head_and_neck",
		SizeBands:  []SizeBand{{2, "T1"}, {4, "T2"}, {inf, "T3"}},
		NodeBands:  []NodeBand{{0, "N0"}, {1, "N1"}, {3, "N2"}, {math.MaxInt, "N3"}},
		Groups: []GroupRule{
			{T: []string{"T1"}, N: []string{"N0"}, Label: "Stage I"},
			{T: []string{"T3"}, N: []string{"N3"}, Either: true, Label: "Stage IV"},
		},
		Fallback:        "Stage II–III",
		MetastaticLabel: "Stage IVC",
	},
}
