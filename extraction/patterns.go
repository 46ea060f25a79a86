package extraction

import (
	"regexp"
	"strings"
)

// Cancer type keys in declaration order. Ties in keyword score go to the
// type declared first.
const (
	Gallbladder = "gallbladder"
	Esophageal  = "esophageal"
	Breast      = "breast"
	Lung        = "lung"
	Colorectal  = "colorectal"
	HeadAndNeck = "head_and_neck"
)

type keywordSet struct {
	cancerType string
	keywords   []string
}

var cancerKeywords = []keywordSet{
	{Gallbladder, []string{"gallbladder", "gall bladder", "gallbladder carcinoma", "gallbladder cancer", "gb carcinoma", "cholecystectomy", "cholangiocarcinoma"}},
	{Esophageal, []string{"esophagus", "esophageal", "oesophagus", "oesophageal", "esophageal adenocarcinoma", "gastroesophageal junction", "barrett"}},
	{Breast, []string{"breast", "mammary", "breast cancer", "ductal carcinoma", "lobular carcinoma", "invasive ductal carcinoma", "mastectomy"}},
	{Lung, []string{"lung", "pulmonary", "nsclc", "sclc", "bronchogenic", "lung cancer", "non-small cell lung cancer", "small cell lung cancer", "lobectomy"}},
	{Colorectal, []string{"colon", "colonic", "rectum", "rectal", "colorectal", "sigmoid colon", "colorectal cancer", "colectomy"}},
	{HeadAndNeck, []string{"head and neck", "oral cavity", "oropharynx", "oropharyngeal", "larynx", "laryngeal", "pharynx", "hypopharynx", "tongue"}},
}

// wordPattern compiles a phrase into a whole-word pattern tolerant of
// arbitrary whitespace between tokens.
func wordPattern(phrase string) *regexp.Regexp {
	tokens := strings.Fields(phrase)
	for i, tok := range tokens {
		tokens[i] = regexp.QuoteMeta(tok)
	}
	return regexp.MustCompile(`\b` + strings.Join(tokens, `\s+`) + `\b`)
}

type compiledKeyword struct {
	phrase string
	weight int
	re     *regexp.Regexp
}

type compiledKeywordSet struct {
	cancerType string
	keywords   []compiledKeyword
}

var compiledCancerKeywords = func() []compiledKeywordSet {
	out := make([]compiledKeywordSet, 0, len(cancerKeywords))
	for _, set := range cancerKeywords {
		cs := compiledKeywordSet{cancerType: set.cancerType}
		for _, kw := range set.keywords {
			cs.keywords = append(cs.keywords, compiledKeyword{
				phrase: kw,
				weight: len(strings.Fields(kw)),
				re:     wordPattern(kw),
			})
		}
		out = append(out, cs)
	}
	return out
}()

const numberPattern = `(\d+(?:\.\d+)?)`

var dimensionsPattern = numberPattern +
	`(?:\s*(?:x|by)\s*` + numberPattern + `)?` +
	`(?:\s*(?:x|by)\s*` + numberPattern + `)?` +
	`\s*(cm|mm)\b`

// Size patterns are tried in order; the first that yields any candidate wins.
var sizePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:tumou?r|mass|lesion|nodule|growth|neoplasm|carcinoma|thickening)\b[^.;\n\d]{0,40}?` + dimensionsPattern),
	regexp.MustCompile(`\b` + dimensionsPattern),
}

const countToken = `(\d+|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve)`

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var numericNodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b` + countToken + `\s*(?:/|of|out\s+of)\s*\d+\s+(?:[a-z]+\s+){0,2}?(?:lymph\s+)?nodes?\b`),
	regexp.MustCompile(`\b` + countToken + `\s+(?:[a-z]+\s+){0,2}?(?:lymph\s+)?nodes?\s+(?:are\s+|were\s+)?(?:involved|positive|enlarged|metastatic)\b`),
	regexp.MustCompile(`\b` + countToken + `\s+(?:positive|involved|enlarged|metastatic|suspicious)\s+(?:[a-z]+\s+)?(?:lymph\s+)?nodes?\b`),
	regexp.MustCompile(`\b(?:lymph\s+)?nodes?\s+(?:involved|positive)\s*[:=]\s*` + countToken + `\b`),
}

// Placeholder counts for qualitative descriptions of nodal burden.
const (
	QualitativeMultipleNodes = 5
	QualitativeSeveralNodes  = 3
	QualitativeNumerousNodes = 5
)

var qualitativeNodeCounts = map[string]int{
	"multiple": QualitativeMultipleNodes,
	"several":  QualitativeSeveralNodes,
	"numerous": QualitativeNumerousNodes,
}

var qualitativeNodePattern = regexp.MustCompile(`\b(multiple|several|numerous)\s+(?:[a-z]+\s+){0,2}?(?:lymph\s*)?nodes?\b`)

var negativeNodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bno\s+(?:evidence\s+of\s+)?(?:[a-z]+\s+){0,2}?(?:lymph\s*node|nodal)\s+(?:involvement|metastas[ie]s|disease|enlargement)\b`),
	regexp.MustCompile(`\b(?:lymph\s+)?nodes?\s+(?:are\s+|were\s+)?(?:negative|unremarkable|not\s+enlarged)\b`),
	regexp.MustCompile(`\bn0\b`),
}

var metastasisPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bdistant\s+metastas[ie]s\b`),
	regexp.MustCompile(`\bmetastatic\s+disease\b`),
	regexp.MustCompile(`\bmetastas[ie]s\s+(?:to|in|within|involving)\s+(?:the\s+)?(?:liver|lungs?|bones?|brain|adrenals?|peritoneum|skeleton)\b`),
	regexp.MustCompile(`\b(?:hepatic|pulmonary|osseous|bone|brain|adrenal|peritoneal)\s+metastas[ie]s\b`),
	regexp.MustCompile(`\bspread\s+to\s+(?:the\s+)?(?:liver|lungs?|bones?|brain)\b`),
	regexp.MustCompile(`\bdisseminated\s+disease\b`),
	regexp.MustCompile(`\bm1[abc]?\b`),
}

var negationCuePattern = regexp.MustCompile(`\b(?:no|without|negative|absent)\b`)

var liverInvasionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(?:liver|hepatic)\s+(?:invasion|infiltration|involvement)\b`),
	regexp.MustCompile(`\b(?:invad(?:es|ing|ed)|infiltrat(?:es|ing|ed)|extend(?:s|ing)\s+into)\s+(?:the\s+)?(?:adjacent\s+)?(?:liver|hepatic\s+parenchyma)\b`),
	regexp.MustCompile(`\binvasion\s+(?:of|into)\s+(?:the\s+)?(?:adjacent\s+)?liver\b`),
}
