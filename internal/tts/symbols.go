package tts

// BlankID is the symbol interleaved around every phone.
const BlankID int64 = 0

// DefaultLanguageID is the language id the exported MeloTTS encoders expect
// for every position, blanks included.
const DefaultLanguageID int64 = 3

// PhonemeTrack is the lexicon output for one sentence. Phones and Tones have
// equal length.
type PhonemeTrack struct {
	Phones []int64
	Tones  []int64
}

// SymbolSequence is the encoder input for one sentence. All three slices have
// length 2*N+1 for a track of N phones.
type SymbolSequence struct {
	Phones    []int64
	Tones     []int64
	Languages []int64
}

func (s SymbolSequence) Len() int {
	return len(s.Phones)
}

// BuildSymbols surrounds every phone and tone with a blank and emits a
// constant language id per position. An empty track yields a single blank.
func BuildSymbols(track PhonemeTrack, languageID int64) SymbolSequence {
	phones := intersperse(track.Phones, BlankID)
	tones := intersperse(track.Tones, BlankID)

	langs := make([]int64, len(phones))
	for i := range langs {
		langs[i] = languageID
	}

	return SymbolSequence{Phones: phones, Tones: tones, Languages: langs}
}

func intersperse(ids []int64, blank int64) []int64 {
	out := make([]int64, 2*len(ids)+1)
	for i := range out {
		out[i] = blank
	}
	for k, id := range ids {
		out[2*k+1] = id
	}
	return out
}
