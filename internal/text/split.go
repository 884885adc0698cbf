package text

import (
	"strings"
	"unicode"
)

// clause terminators; the terminator stays attached to its clause.
func isBreak(r rune) bool {
	switch r {
	case '.', '!', '?', ';', ',', ':', '\n':
		return true
	}
	return false
}

// SplitSentences splits normalized text into synthesis units. Clauses are
// cut at punctuation and merged until a unit holds at least minLen runes
// (Chinese, Japanese) or minLen words (English). A short tail is folded into
// the previous unit. minLen <= 0 returns the text as a single unit.
func SplitSentences(text string, minLen int, lang string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if minLen <= 0 {
		return []string{text}
	}

	measure := runeLen
	sep := ""
	if strings.EqualFold(lang, "EN") {
		measure = wordLen
		sep = " "
	}

	clauses := splitClauses(text)

	var out []string
	var cur []string
	curLen := 0

	for _, c := range clauses {
		cur = append(cur, c)
		curLen += measure(c)
		if curLen >= minLen {
			out = append(out, strings.Join(cur, sep))
			cur = cur[:0]
			curLen = 0
		}
	}

	if len(cur) > 0 {
		tail := strings.Join(cur, sep)
		if len(out) > 0 && curLen < (minLen+1)/2 {
			out[len(out)-1] = out[len(out)-1] + sep + tail
		} else {
			out = append(out, tail)
		}
	}

	return out
}

// splitClauses cuts text after each break rune, dropping empty and
// punctuation-only pieces by attaching them to the preceding clause.
func splitClauses(text string) []string {
	var clauses []string
	start := 0

	flush := func(end int) {
		piece := strings.TrimSpace(text[start:end])
		start = end
		if piece == "" {
			return
		}
		if !hasContent(piece) && len(clauses) > 0 {
			clauses[len(clauses)-1] += piece
			return
		}
		clauses = append(clauses, piece)
	}

	for i, r := range text {
		if isBreak(r) && !isDecimalPoint(text, i, r) {
			flush(i + len(string(r)))
		}
	}
	if start < len(text) {
		flush(len(text))
	}

	return clauses
}

// isDecimalPoint keeps "3.14" and "1,000" together.
func isDecimalPoint(text string, i int, r rune) bool {
	if r != '.' && r != ',' {
		return false
	}
	if i == 0 || i+1 >= len(text) {
		return false
	}
	return isASCIIDigit(text[i-1]) && isASCIIDigit(text[i+1])
}

func isASCIIDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func hasContent(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// runeLen counts letters and digits, ignoring spaces and punctuation.
func runeLen(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			n++
		}
	}
	return n
}

func wordLen(s string) int {
	return len(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'' && r != '-')
	}))
}
