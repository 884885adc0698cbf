// Package lexicon converts sentences into phone and tone id sequences using a
// MeloTTS lexicon.txt / tokens.txt pair.
package lexicon

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Entry is the pronunciation of one lexicon word.
type Entry struct {
	Phones []int64
	Tones  []int64
}

// Lexicon maps words to phone/tone ids. It is read-only after Load and safe
// for concurrent use.
type Lexicon struct {
	entries      map[string]Entry
	tokens       map[string]int64
	maxWordRunes int

	homophoneOnce sync.Once
	homophones    map[string]string
}

// Load reads a lexicon file (`word p1..pn t1..tn` per line) and a token table
// (`symbol id` per line).
func Load(lexiconPath, tokensPath string) (*Lexicon, error) {
	tf, err := os.Open(tokensPath)
	if err != nil {
		return nil, fmt.Errorf("open tokens: %w", err)
	}
	defer tf.Close()

	lf, err := os.Open(lexiconPath)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer lf.Close()

	lex, err := Parse(lf, tf)
	if err != nil {
		return nil, err
	}

	slog.Debug("lexicon loaded",
		"lexicon", lexiconPath,
		"tokens", tokensPath,
		"words", len(lex.entries),
		"symbols", len(lex.tokens),
	)

	return lex, nil
}

// Parse builds a Lexicon from lexicon and token table readers.
func Parse(lexicon, tokens io.Reader) (*Lexicon, error) {
	tok, err := parseTokens(tokens)
	if err != nil {
		return nil, err
	}

	lex := &Lexicon{
		entries: make(map[string]Entry),
		tokens:  tok,
	}

	sc := newScanner(lexicon)
	line := 0
	skipped := 0

	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		n := len(fields) - 1
		if n == 0 || n%2 != 0 {
			return nil, fmt.Errorf("lexicon line %d: want word followed by equal phone and tone counts, got %d fields", line, len(fields))
		}

		word := strings.ToLower(fields[0])
		entry, ok, err := lex.parseEntry(fields[1:1+n/2], fields[1+n/2:])
		if err != nil {
			return nil, fmt.Errorf("lexicon line %d: %w", line, err)
		}
		if !ok {
			skipped++
			continue
		}

		if _, dup := lex.entries[word]; dup {
			continue
		}
		lex.entries[word] = entry

		if r := utf8.RuneCountInString(word); r > lex.maxWordRunes {
			lex.maxWordRunes = r
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	if len(lex.entries) == 0 {
		return nil, fmt.Errorf("lexicon has no entries")
	}

	if skipped > 0 {
		slog.Warn("lexicon entries with unknown phone symbols skipped", "count", skipped)
	}

	return lex, nil
}

func (l *Lexicon) parseEntry(phones, tones []string) (Entry, bool, error) {
	e := Entry{
		Phones: make([]int64, len(phones)),
		Tones:  make([]int64, len(tones)),
	}

	for i, p := range phones {
		id, ok := l.tokens[p]
		if !ok {
			return Entry{}, false, nil
		}
		e.Phones[i] = id
	}

	for i, t := range tones {
		v, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return Entry{}, false, fmt.Errorf("tone %q: %w", t, err)
		}
		e.Tones[i] = v
	}

	return e, true, nil
}

func parseTokens(r io.Reader) (map[string]int64, error) {
	tokens := make(map[string]int64)
	sc := newScanner(r)
	line := 0

	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r\n")
		if strings.TrimSpace(text) == "" {
			continue
		}

		// The symbol itself may be a space, so split at the last separator.
		cut := strings.LastIndexAny(text, " \t")
		if cut < 0 {
			return nil, fmt.Errorf("tokens line %d: want `symbol id`, got %q", line, text)
		}

		symbol := text[:cut]
		if strings.TrimSpace(symbol) != "" {
			symbol = strings.TrimSpace(symbol)
		}
		if symbol == "" {
			continue
		}

		id, err := strconv.ParseInt(strings.TrimSpace(text[cut+1:]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("tokens line %d: %w", line, err)
		}
		tokens[symbol] = id
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("token table is empty")
	}

	return tokens, nil
}

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return sc
}

// Len returns the number of words in the lexicon.
func (l *Lexicon) Len() int {
	return len(l.entries)
}

// Symbols returns the number of entries in the token table.
func (l *Lexicon) Symbols() int {
	return len(l.tokens)
}

// Lookup returns the pronunciation of a single word.
func (l *Lexicon) Lookup(word string) (Entry, bool) {
	e, ok := l.entries[strings.ToLower(word)]
	return e, ok
}

// Convert maps a sentence to phone and tone ids. Han text is matched
// greedily against the longest lexicon word; Latin words are looked up whole
// and spelled letter by letter when missing, with camelCase words split at
// each lower-to-upper transition; punctuation maps through the
// token table with tone 0. Han characters missing from the lexicon are
// replaced by a homophone with the same toned pinyin. Symbols that cannot be
// resolved are dropped.
func (l *Lexicon) Convert(sentence string) (phones, tones []int64) {
	runes := []rune(sentence)

	emit := func(e Entry) {
		phones = append(phones, e.Phones...)
		tones = append(tones, e.Tones...)
	}

	for i := 0; i < len(runes); {
		r := runes[i]

		switch {
		case unicode.IsSpace(r):
			i++

		case unicode.Is(unicode.Han, r):
			n, e, ok := l.matchHan(runes[i:])
			if ok {
				emit(e)
				i += n
				continue
			}
			if e, ok := l.homophone(r); ok {
				emit(e)
			} else {
				slog.Debug("lexicon: no pronunciation", "symbol", string(r))
			}
			i++

		case isWordRune(r):
			j := i + 1
			for j < len(runes) && isWordRune(runes[j]) && !unicode.Is(unicode.Han, runes[j]) &&
				!isCamelBoundary(runes[j-1], runes[j]) {
				j++
			}
			l.convertWord(string(runes[i:j]), emit)
			i = j

		default:
			if e, ok := l.punctuation(string(r)); ok {
				emit(e)
			} else {
				slog.Debug("lexicon: unknown symbol", "symbol", string(r))
			}
			i++
		}
	}

	return phones, tones
}

// matchHan finds the longest lexicon word at the start of runes.
func (l *Lexicon) matchHan(runes []rune) (int, Entry, bool) {
	maxN := min(l.maxWordRunes, len(runes))
	for n := maxN; n >= 1; n-- {
		if !allHan(runes[:n]) {
			continue
		}
		if e, ok := l.entries[string(runes[:n])]; ok {
			return n, e, true
		}
	}
	return 0, Entry{}, false
}

func (l *Lexicon) convertWord(word string, emit func(Entry)) {
	lower := strings.ToLower(word)
	if e, ok := l.entries[lower]; ok {
		emit(e)
		return
	}

	for _, r := range lower {
		if e, ok := l.entries[string(r)]; ok {
			emit(e)
			continue
		}
		if e, ok := l.punctuation(string(r)); ok {
			emit(e)
			continue
		}
		slog.Debug("lexicon: no pronunciation", "word", word, "symbol", string(r))
	}
}

func (l *Lexicon) punctuation(sym string) (Entry, bool) {
	if e, ok := l.entries[sym]; ok {
		return e, true
	}
	if id, ok := l.tokens[sym]; ok {
		return Entry{Phones: []int64{id}, Tones: []int64{0}}, true
	}
	return Entry{}, false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

func isCamelBoundary(prev, r rune) bool {
	return unicode.IsLower(prev) && unicode.IsUpper(r)
}

func allHan(runes []rune) bool {
	for _, r := range runes {
		if !unicode.Is(unicode.Han, r) {
			return false
		}
	}
	return true
}
