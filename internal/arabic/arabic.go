package arabic

import (
	"regexp"
	"strings"
)

// Chunk quality labels derived from Arabic character counts. These are
// descriptive metadata only and never used to filter content.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

const (
	LanguageArabic  = "Arabic"
	LanguageEnglish = "English"
)

var (
	// Everything outside the Arabic blocks, word characters, common
	// punctuation and whitespace is treated as a PDF extraction artifact.
	artifactRe = regexp.MustCompile(`[^\x{0600}-\x{06FF}\x{0750}-\x{077F}\x{08A0}-\x{08FF}\x{FB50}-\x{FDFF}\x{FE70}-\x{FEFF}\w\s\-\.\,\;\:\!\?\(\)\[\]\{\}\"\']+`)
	tatweelRe  = regexp.MustCompile(`[\x{0640}]+`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// Clean normalizes text extracted from a PDF: artifact runs become a single
// space, tatweel (elongation) characters are dropped, whitespace runs are
// collapsed and the result is trimmed. Total and side-effect-free.
func Clean(text string) string {
	text = artifactRe.ReplaceAllString(text, " ")
	text = tatweelRe.ReplaceAllString(text, "")
	text = spaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// CountChars returns the number of runes in the Arabic main block.
func CountChars(text string) int {
	n := 0
	for _, r := range text {
		if r >= 0x0600 && r <= 0x06FF {
			n++
		}
	}
	return n
}

// Contains reports whether the text has at least one Arabic character.
func Contains(text string) bool {
	return CountChars(text) > 0
}

// Detect returns the language label used in chunk metadata and for picking
// the chat prompt template.
func Detect(text string) string {
	if Contains(text) {
		return LanguageArabic
	}
	return LanguageEnglish
}

// Quality classifies a chunk by its Arabic character count: more than 100
// is high, more than 50 is medium, anything else is low.
func Quality(text string) string {
	switch n := CountChars(text); {
	case n > 100:
		return QualityHigh
	case n > 50:
		return QualityMedium
	default:
		return QualityLow
	}
}
