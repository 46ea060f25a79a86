package extraction

import (
	"bytes"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	lineBreakRe       = regexp.MustCompile(`\s*\n\s*`)
	decimalCommaRe    = regexp.MustCompile(`(\d),(\d)`)

	symbolReplacer = strings.NewReplacer(
		"×", "x",
		"–", "-",
		"—", "-",
		"‑", "-",
		"\r\n", "\n",
		"\r", "\n",
	)
)

// DecodeReport turns raw report bytes into a string. Exports from older
// reporting systems are often Windows-1252; anything that is not valid UTF-8
// is decoded as such.
func DecodeReport(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := io.ReadAll(charmap.Windows1252.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// Normalize lower-cases text, strips diacritics, unifies dashes and the
// multiplication sign, and collapses whitespace while keeping line breaks.
func Normalize(text string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, text)
	if err != nil {
		folded = text
	}
	folded = symbolReplacer.Replace(folded)
	folded = strings.ToLower(folded)
	folded = decimalCommaRe.ReplaceAllString(folded, "$1.$2")
	folded = horizontalSpaceRe.ReplaceAllString(folded, " ")
	folded = lineBreakRe.ReplaceAllString(folded, "\n")
	return strings.TrimSpace(folded)
}

func hasReadableContent(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
