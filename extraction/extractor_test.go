package extraction

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawmatterx/oncostaging/config"
	"github.com/rawmatterx/oncostaging/entities"
)

func newTestExtractor() *Extractor {
	return NewExtractor(config.DefaultStagingConfig())
}

func TestExtractEmptyText(t *testing.T) {
	ex := newTestExtractor()

	for _, text := range []string{"", "   \n\t", "... --- ;;;"} {
		_, err := ex.Extract(text)
		require.Error(t, err, "text %q", text)

		var extractionErr *entities.ExtractionError
		assert.True(t, errors.As(err, &extractionErr), "expected ExtractionError for %q, got %T", text, err)
	}
}

func TestExtractCancerType(t *testing.T) {
	ex := newTestExtractor()

	tests := []struct {
		name       string
		text       string
		want       string
		confidence float64
	}{
		{"multi token keyword saturates", "Gallbladder carcinoma noted.", "gallbladder", 1.0},
		{"single keyword", "Findings in the left breast.", "breast", 1.0 / 3.0},
		{"tie goes to first declared", "Breast and lung imaging.", "breast", 1.0 / 3.0},
		{"higher score wins", "Lung nodule. Non-small cell lung cancer suspected. Breast normal.", "lung", 1.0},
		{"spelling variant", "Oesophageal wall thickening.", "esophageal", 1.0 / 3.0},
		{"head and neck phrase", "Head and neck CT with oropharynx mass.", "head_and_neck", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ex.Extract(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.CancerType)
			assert.InDelta(t, tt.confidence, f.ConfidenceScores[entities.FieldCancerType], 1e-9)
		})
	}
}

func TestExtractCancerTypeAbsent(t *testing.T) {
	f, err := newTestExtractor().Extract("Unremarkable study.")
	require.NoError(t, err)

	assert.Empty(t, f.CancerType)
	_, ok := f.ConfidenceScores[entities.FieldCancerType]
	assert.False(t, ok, "undetected cancer type should have no confidence entry")
}

func TestExtractTumorSize(t *testing.T) {
	ex := newTestExtractor()

	tests := []struct {
		name       string
		text       string
		size       float64
		confidence float64
	}{
		{"single cm dimensions", "A mass measuring 3.2 x 2.1 cm.", 3.2, 0.9},
		{"millimetres converted", "Tumor of 25 mm in the lung.", 2.5, 0.9},
		{"maximum of candidates", "Mass 2 cm in segment. Second lesion 4 cm.", 4.0, 0.7},
		{"tumor context preferred", "Tumor measuring 3 cm. Lymph node 5.5 cm.", 3.0, 0.9},
		{"generic fallback", "Right lobe: 1.8 cm.", 1.8, 0.9},
		{"decimal comma", "Lesion 3,5 cm.", 3.5, 0.9},
		{"multiplication sign", "Mass 4 × 2 cm.", 4.0, 0.9},
		{"implausibly large is clamped", "Mass measuring 1000 cm.", 50, 0.3},
		{"implausibly small", "Lesion 0.5 mm.", 0.05, 0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ex.Extract(tt.text)
			require.NoError(t, err)
			assert.InDelta(t, tt.size, f.TumorSizeCM, 1e-9)
			assert.InDelta(t, tt.confidence, f.ConfidenceScores[entities.FieldTumorSize], 1e-9)
			assert.NotEmpty(t, f.ExtractedValues[entities.FieldTumorSize])
		})
	}
}

func TestExtractTumorSizeAbsent(t *testing.T) {
	f, err := newTestExtractor().Extract("No measurable disease.")
	require.NoError(t, err)

	assert.Zero(t, f.TumorSizeCM)
	_, ok := f.ConfidenceScores[entities.FieldTumorSize]
	assert.False(t, ok)
}

func TestExtractLymphNodes(t *testing.T) {
	ex := newTestExtractor()

	tests := []struct {
		name       string
		text       string
		count      int
		confidence float64
	}{
		{"numeric involved", "2 lymph nodes involved.", 2, 0.9},
		{"spelled out", "Two positive lymph nodes.", 2, 0.9},
		{"ratio does not double count", "3/12 lymph nodes positive.", 3, 0.9},
		{"maximum of numeric", "3/12 lymph nodes positive and 5 of 20 nodes.", 5, 0.8},
		{"validated zero", "0 of 14 lymph nodes.", 0, 0.9},
		{"numeric beats qualitative", "Multiple enlarged nodes, 2 lymph nodes involved.", 2, 0.9},
		{"multiple", "Multiple enlarged lymph nodes.", QualitativeMultipleNodes, 0.6},
		{"several", "Several nodes in the mediastinum.", QualitativeSeveralNodes, 0.6},
		{"numerous", "Numerous lymph nodes.", QualitativeNumerousNodes, 0.6},
		{"explicit negative", "No lymph node involvement.", 0, 0.85},
		{"no mention", "Breast mass.", 0, 0.5},
		{"capped", "150 lymph nodes involved.", 100, 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ex.Extract(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.count, f.LymphNodesInvolved)
			assert.InDelta(t, tt.confidence, f.ConfidenceScores[entities.FieldLymphNodes], 1e-9)
		})
	}
}

func TestExtractDistantMetastasis(t *testing.T) {
	ex := newTestExtractor()

	tests := []struct {
		name       string
		text       string
		want       bool
		confidence float64
	}{
		{"negated", "No evidence of distant metastasis.", false, 0.8},
		{"affirmed site", "Metastasis to the liver.", true, 0.9},
		{"negative for", "Negative for distant metastases.", false, 0.8},
		{"without", "Primary tumor without distant metastasis.", false, 0.8},
		{"any negated match wins", "Hepatic metastases. No distant metastasis elsewhere.", false, 0.8},
		{"negation does not cross sentences", "No lymph node involvement. Metastasis to the liver.", true, 0.9},
		{"m1 category", "Staged as T2 N0 M1.", true, 0.9},
		{"no mention", "Gallbladder wall thickening.", false, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ex.Extract(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.DistantMetastasis)
			assert.InDelta(t, tt.confidence, f.ConfidenceScores[entities.FieldDistantMetastasis], 1e-9)
		})
	}
}

func TestNegationWindowIsConfigurable(t *testing.T) {
	cfg := config.DefaultStagingConfig()
	cfg.NegationWindow = 5
	ex := NewExtractor(cfg)

	// The cue sits more than five characters before the match.
	f, err := ex.Extract("No sign of any distant metastasis")
	require.NoError(t, err)
	assert.True(t, f.DistantMetastasis)
}

func TestExtractLiverInvasion(t *testing.T) {
	ex := newTestExtractor()

	tests := []struct {
		text       string
		want       bool
		confidence float64
	}{
		{"Tumor invading the liver.", true, 0.9},
		{"Direct hepatic invasion.", true, 0.9},
		{"Invasion into the adjacent liver.", true, 0.9},
		{"Gallbladder polyp.", false, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			f, err := ex.Extract(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.LiverInvasion)
			assert.InDelta(t, tt.confidence, f.ConfidenceScores[entities.FieldLiverInvasion], 1e-9)
		})
	}
}

func TestExtractTumorDepth(t *testing.T) {
	ex := newTestExtractor()

	tests := []struct {
		name       string
		text       string
		want       string
		confidence float64
	}{
		{"single layer", "Tumor confined to the submucosa.", "submucosa", 0.8},
		{"longer term wins over its prefix", "Invades the muscularis propria.", "muscularis propria", 0.8},
		{"deepest layer wins", "Extends through the submucosa into the serosa.", "serosa", 0.7},
		{"subserosa is not serosa", "Reaches the subserosa.", "subserosa", 0.8},
		{"adventitia first", "Mucosa to adventitia involvement.", "adventitia", 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ex.Extract(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, f.TumorDepth)
			assert.InDelta(t, tt.confidence, f.ConfidenceScores[entities.FieldTumorDepth], 1e-9)
		})
	}
}

func TestDepthPriorityIsConfigurable(t *testing.T) {
	cfg := config.DefaultStagingConfig()
	cfg.DepthPriority = []string{"mucosa", "submucosa"}

	f, err := NewExtractor(cfg).Extract("Submucosa and mucosa involved.")
	require.NoError(t, err)
	assert.Equal(t, "mucosa", f.TumorDepth)
}

func TestExtractFullReport(t *testing.T) {
	report := `CT ABDOMEN
Impression: Gallbladder carcinoma. Mass measuring 3 cm in the gallbladder fundus
with invasion into the adjacent liver. 2 lymph nodes involved.
No evidence of distant metastasis.`

	f, err := newTestExtractor().Extract(report)
	require.NoError(t, err)

	assert.Equal(t, "gallbladder", f.CancerType)
	assert.InDelta(t, 3.0, f.TumorSizeCM, 1e-9)
	assert.True(t, f.LiverInvasion)
	assert.Equal(t, 2, f.LymphNodesInvolved)
	assert.False(t, f.DistantMetastasis)
	assert.Empty(t, f.TumorDepth)
	assert.Len(t, f.ConfidenceScores, 5)
}

func TestExtractIsDeterministicAndConcurrent(t *testing.T) {
	ex := newTestExtractor()
	report := "Left breast mass measuring 1.5 cm. No lymph node involvement."

	want, err := ex.Extract(report)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ex.Extract(report)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestExtractBytesWindows1252(t *testing.T) {
	// é encoded as a single Windows-1252 byte.
	raw := []byte("Breast mass, r\xe9sultat 2 cm")

	f, err := newTestExtractor().ExtractBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, "breast", f.CancerType)
	assert.InDelta(t, 2.0, f.TumorSizeCM, 1e-9)
}
