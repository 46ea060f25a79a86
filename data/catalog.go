// Package data holds the guideline catalog used to annotate staging results.
// The catalog is swapped atomically so reloads never block readers.
package data

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rawmatterx/oncostaging/entities"
	"github.com/rawmatterx/oncostaging/interfaces"
	"github.com/rawmatterx/oncostaging/logging"
	"github.com/rawmatterx/oncostaging/staging"
)

//go:embed guidelines.yaml
var defaultGuidelines []byte

// Compile-time check to ensure GuidelineCatalog implements interfaces.GuidelineCatalog
var _ interfaces.GuidelineCatalog = (*GuidelineCatalog)(nil)

type guidelineFile struct {
	Guidelines []entities.GuidelineReference `yaml:"guidelines"`
}

// GuidelineCatalog maps cancer types to guideline references.
type GuidelineCatalog struct {
	refs        atomic.Value // map[string]entities.GuidelineReference
	lastUpdated atomic.Value // time.Time
	updating    atomic.Bool
	path        string
}

// NewGuidelineCatalog creates an empty catalog. path is the optional
// override file read by Reload.
func NewGuidelineCatalog(path string) *GuidelineCatalog {
	gc := &GuidelineCatalog{path: path}
	gc.refs.Store(make(map[string]entities.GuidelineReference))
	gc.lastUpdated.Store(time.Time{})
	return gc
}

// LoadDefaultCatalog returns a catalog filled from the embedded defaults,
// overlaid with path when it is set.
func LoadDefaultCatalog(path string) (*GuidelineCatalog, error) {
	gc := NewGuidelineCatalog(path)
	if err := gc.Reload(); err != nil {
		return nil, err
	}
	return gc, nil
}

// Lookup returns the reference for a cancer type key.
func (gc *GuidelineCatalog) Lookup(cancerType string) (entities.GuidelineReference, bool) {
	ref, ok := gc.load()[staging.NormalizeKey(cancerType)]
	return ref, ok
}

// All returns every reference sorted by cancer type.
func (gc *GuidelineCatalog) All() []entities.GuidelineReference {
	refs := gc.load()
	out := make([]entities.GuidelineReference, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CancerType < out[j].CancerType })
	return out
}

// Replace atomically swaps in a new set of references.
func (gc *GuidelineCatalog) Replace(refs []entities.GuidelineReference) {
	m := make(map[string]entities.GuidelineReference, len(refs))
	for _, ref := range refs {
		ref.CancerType = staging.NormalizeKey(ref.CancerType)
		m[ref.CancerType] = ref
	}
	gc.refs.Store(m)
	gc.lastUpdated.Store(time.Now())
}

// GetLastUpdated returns when the catalog was last replaced
func (gc *GuidelineCatalog) GetLastUpdated() time.Time {
	if v := gc.lastUpdated.Load(); v != nil {
		if t, ok := v.(time.Time); ok {
			return t
		}
	}
	logging.Warn("Could not get the guideline catalog update time")
	return time.Time{}
}

// IsUpdating reports whether a reload is in progress.
func (gc *GuidelineCatalog) IsUpdating() bool {
	return gc.updating.Load()
}

// Reload rebuilds the catalog from the embedded defaults and the override
// file. Entries in the file replace defaults with the same cancer type.
// Concurrent reloads are skipped.
func (gc *GuidelineCatalog) Reload() error {
	if !gc.updating.CompareAndSwap(false, true) {
		logging.Info("Guideline reload already in progress, skipping")
		return nil
	}
	defer gc.updating.Store(false)

	refs, err := ParseGuidelines(defaultGuidelines)
	if err != nil {
		return fmt.Errorf("parsing embedded guidelines: %w", err)
	}

	if gc.path != "" {
		overrides, err := LoadFile(gc.path)
		if err != nil {
			return err
		}
		refs = merge(refs, overrides)
	}

	gc.Replace(refs)
	logging.Info("Guideline catalog loaded", "entries", len(refs), "override", gc.path)
	return nil
}

// LoadFile reads guideline references from a YAML file.
func LoadFile(path string) ([]entities.GuidelineReference, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading guidelines file %s: %w", path, err)
	}
	refs, err := ParseGuidelines(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing guidelines file %s: %w", path, err)
	}
	return refs, nil
}

// ParseGuidelines decodes a guidelines document. Every entry needs a cancer
// type and a URL.
func ParseGuidelines(raw []byte) ([]entities.GuidelineReference, error) {
	var doc guidelineFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for i, ref := range doc.Guidelines {
		if strings.TrimSpace(ref.CancerType) == "" {
			return nil, fmt.Errorf("entry %d: cancer_type is required", i)
		}
		if strings.TrimSpace(ref.URL) == "" {
			return nil, fmt.Errorf("entry %d (%s): url is required", i, ref.CancerType)
		}
	}
	if len(doc.Guidelines) == 0 {
		return nil, errors.New("no guidelines defined")
	}
	return doc.Guidelines, nil
}

func merge(base, overrides []entities.GuidelineReference) []entities.GuidelineReference {
	index := make(map[string]int, len(base))
	out := append([]entities.GuidelineReference(nil), base...)
	for i, ref := range out {
		index[staging.NormalizeKey(ref.CancerType)] = i
	}
	for _, ref := range overrides {
		if i, ok := index[staging.NormalizeKey(ref.CancerType)]; ok {
			out[i] = ref
			continue
		}
		index[staging.NormalizeKey(ref.CancerType)] = len(out)
		out = append(out, ref)
	}
	return out
}

func (gc *GuidelineCatalog) load() map[string]entities.GuidelineReference {
	if v := gc.refs.Load(); v != nil {
		if refs, ok := v.(map[string]entities.GuidelineReference); ok {
			return refs
		}
	}
	return map[string]entities.GuidelineReference{}
}
