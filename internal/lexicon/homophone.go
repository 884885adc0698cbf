package lexicon

import (
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-pinyin"
)

// toned returns the first toned pinyin reading of a Han rune, e.g. "zhong1".
func toned(r rune) string {
	args := pinyin.NewArgs()
	args.Style = pinyin.Tone3
	readings := pinyin.Pinyin(string(r), args)
	if len(readings) == 0 || len(readings[0]) == 0 {
		return ""
	}
	return readings[0][0]
}

// homophone resolves a Han rune missing from the lexicon through another
// single-character entry with the same toned pinyin.
func (l *Lexicon) homophone(r rune) (Entry, bool) {
	l.homophoneOnce.Do(l.buildHomophones)

	py := toned(r)
	if py == "" {
		return Entry{}, false
	}

	word, ok := l.homophones[py]
	if !ok {
		return Entry{}, false
	}

	return l.entries[word], true
}

// buildHomophones indexes single Han characters by reading. When several
// characters share a reading, the smallest rune wins so the choice does not
// depend on map iteration order.
func (l *Lexicon) buildHomophones() {
	l.homophones = make(map[string]string)

	for word := range l.entries {
		if utf8.RuneCountInString(word) != 1 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(word)
		if !unicode.Is(unicode.Han, r) {
			continue
		}

		py := toned(r)
		if py == "" {
			continue
		}

		if cur, ok := l.homophones[py]; ok && cur < word {
			continue
		}
		l.homophones[py] = word
	}
}
