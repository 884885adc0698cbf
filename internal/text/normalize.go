package text

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// punctuation NFKC leaves alone but the lexicon only knows in ASCII form.
var punctReplacer = strings.NewReplacer(
	"。", ".",
	"、", ",",
	"…", "...",
	"“", "'",
	"”", "'",
	"‘", "'",
	"’", "'",
	"「", "'",
	"」", "'",
	"『", "'",
	"』", "'",
	"《", "'",
	"》", "'",
	"——", "-",
	"—", "-",
)

// Normalize prepares raw input text for synthesis.
// It applies NFKC (full-width forms fold to ASCII), maps CJK punctuation to
// its ASCII counterpart and normalizes line endings to \n. Internal
// whitespace runs collapse to one space, or to one \n when the run spans a
// line break. Empty or whitespace-only input is rejected.
func Normalize(s string) (string, error) {
	s = norm.NFKC.String(s)
	s = punctReplacer.Replace(s)

	// Normalize line endings: CRLF → LF, then bare CR → LF.
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = collapseSpace(strings.TrimSpace(s))

	if s == "" {
		return "", ErrEmptyText
	}

	return s, nil
}

func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var pending rune
	for _, r := range s {
		if unicode.IsSpace(r) {
			if pending != '\n' {
				pending = ' '
				if r == '\n' {
					pending = '\n'
				}
			}
			continue
		}
		if pending != 0 {
			b.WriteRune(pending)
			pending = 0
		}
		b.WriteRune(r)
	}

	return b.String()
}
