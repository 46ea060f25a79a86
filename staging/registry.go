// Package staging maps extracted features to TNM categories and stage groups.
package staging

import (
	"strings"

	"github.com/rawmatterx/oncostaging/entities"
)

// Values reported for cancer types without a rule table.
const (
	UnknownCategory       = "Unknown"
	NotAvailableStage     = "Not available"
	NotAvailableRationale = "Staging rules are not available for this cancer type"
)

var defaultAliases = map[string]string{
	"oral_cavity": "head_and_neck",
	"oropharynx":  "head_and_neck",
	"oesophageal": "esophageal",
	"colon":       "colorectal",
	"rectal":      "colorectal",
}

// Registry dispatches a normalized cancer type key to its stager.
type Registry struct {
	stagers map[string]*Stager
	aliases map[string]string
	order   []string
}

// NewRegistry builds a registry over DefaultTables.
func NewRegistry() *Registry {
	return NewRegistryWithTables(DefaultTables...)
}

// NewRegistryWithTables builds a registry over the given tables.
func NewRegistryWithTables(tables ...Table) *Registry {
	r := &Registry{
		stagers: make(map[string]*Stager, len(tables)),
		aliases: defaultAliases,
	}
	for _, t := range tables {
		if _, dup := r.stagers[t.CancerType]; !dup {
			r.order = append(r.order, t.CancerType)
		}
		r.stagers[t.CancerType] = NewStager(t)
	}
	return r
}

// NormalizeKey lower-cases a cancer type and joins its words with underscores.
func NormalizeKey(cancerType string) string {
	fields := strings.FieldsFunc(strings.ToLower(cancerType), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '_' || r == '-'
	})
	return strings.Join(fields, "_")
}

// Lookup returns the stager for a cancer type, resolving aliases.
func (r *Registry) Lookup(cancerType string) (*Stager, bool) {
	key := NormalizeKey(cancerType)
	if alias, ok := r.aliases[key]; ok {
		key = alias
	}
	s, ok := r.stagers[key]
	return s, ok
}

// Stage runs the matching stager, or returns the unsupported sentinel.
func (r *Registry) Stage(cancerType string, f entities.MedicalFeatures) entities.TNMStaging {
	if s, ok := r.Lookup(cancerType); ok {
		return s.Stage(f)
	}
	return Unsupported(cancerType)
}

// Supported lists the registered cancer types in registration order.
func (r *Registry) Supported() []string {
	return append([]string(nil), r.order...)
}

// Unsupported is the verdict for a cancer type with no rule table.
func Unsupported(cancerType string) entities.TNMStaging {
	return entities.TNMStaging{
		CancerType:  NormalizeKey(cancerType),
		T:           UnknownCategory,
		N:           UnknownCategory,
		M:           UnknownCategory,
		Stage:       NotAvailableStage,
		Description: NotAvailableRationale,
	}
}
