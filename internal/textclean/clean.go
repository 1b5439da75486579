package textclean

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Character classes shared by the patterns below. A word rune is a Unicode
// letter, a Unicode number or an underscore; whitespace is the Unicode
// whitespace set including the ASCII information separators.
const (
	wordClass  = `\p{L}\p{N}_`
	spaceClass = `\t\n\v\f\r\x{1c}-\x{1f}\x{85}\p{Z}`
)

var (
	urlPattern     = regexp.MustCompile(`https?://[^` + spaceClass + `]+|www\.[^` + spaceClass + `]+`)
	mentionPattern = regexp.MustCompile(`@[` + wordClass + `]+`)
	hashtagPattern = regexp.MustCompile(`#([` + wordClass + `]+)`)
	symbolPattern  = regexp.MustCompile(`[^` + wordClass + spaceClass + `]`)
	wordPattern    = regexp.MustCompile(`[` + wordClass + `]+`)

	emojiPattern = regexp.MustCompile(`[` +
		`\x{1F600}-\x{1F64F}` + // emoticons
		`\x{1F300}-\x{1F5FF}` + // symbols & pictographs
		`\x{1F680}-\x{1F6FF}` + // transport & map
		`\x{1F1E0}-\x{1F1FF}` + // flags
		`\x{2702}-\x{27B0}` +
		`\x{24C2}-\x{1F251}` +
		`\x{1F926}-\x{1F937}` +
		`\x{10000}-\x{10FFFF}` +
		`\x{2640}-\x{2642}` +
		`\x{2600}-\x{2B55}` +
		`\x{200D}\x{23CF}\x{23E9}\x{231A}\x{FE0F}\x{3030}` +
		`]+`)
)

// Clean runs the normalization pipeline over a raw comment. The steps run in
// a fixed order and each one sees the output of the previous step. Empty input
// yields an empty string.
func Clean(text string, normalizeSlang bool) string {
	if text == "" {
		return ""
	}

	// cases.Caser keeps state, so each call gets its own.
	text = cases.Lower(language.Indonesian).String(text)
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllString(text, "$1")
	text = emojiPattern.ReplaceAllString(text, "")
	text = symbolPattern.ReplaceAllString(text, " ")
	text = RemoveNumbers(text)

	if normalizeSlang {
		text = ExpandSlang(text)
	}

	return strings.Join(Tokenize(text), " ")
}

// CleanBatch cleans every text, preserving order.
func CleanBatch(texts []string, normalizeSlang bool) []string {
	cleaned := make([]string, len(texts))
	for i, text := range texts {
		cleaned[i] = Clean(text, normalizeSlang)
	}
	return cleaned
}

// RemoveNumbers drops words made only of decimal digits. Digits inside a
// longer word are kept.
func RemoveNumbers(text string) string {
	return wordPattern.ReplaceAllStringFunc(text, func(word string) string {
		for _, r := range word {
			if !unicode.IsDigit(r) {
				return word
			}
		}
		return ""
	})
}

// Tokenize splits text on whitespace.
func Tokenize(text string) []string {
	return strings.FieldsFunc(text, isSpace)
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}
