package text

import (
	"strings"
	"unicode/utf8"
)

// Chunk is one bounded piece of a longer text, synthesized on its own.
type Chunk struct {
	Index int
	Text  string
}

// Segment splits text into ordered chunks of at most maxLength runes.
//
// Text that already fits is returned as a single chunk. Otherwise sentences
// (terminated by runs of '.', '!' or '?') are packed greedily; a sentence that
// does not fit on its own is packed word by word when preserveWords is set,
// and a single word longer than maxLength is cut at rune boundaries. Without
// preserveWords the text is cut purely by rune count. Blank chunks are dropped.
func Segment(text string, maxLength int, preserveWords bool) []Chunk {
	if text == "" {
		return []Chunk{}
	}

	if maxLength < 1 {
		maxLength = 1
	}

	var parts []string

	if utf8.RuneCountInString(text) <= maxLength {
		parts = []string{text}
	} else if preserveWords {
		parts = packSentences(splitSentences(text), maxLength)
	} else {
		parts = splitRunes(text, maxLength)
	}

	chunks := make([]Chunk, 0, len(parts))

	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}

		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  part,
		})
	}

	return chunks
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func splitSentences(text string) []string {
	var sentences []string

	start := 0

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size

		if !isTerminator(r) {
			continue
		}

		// terminators are ASCII, so a run can be consumed byte-wise
		for i < len(text) && isTerminator(rune(text[i])) {
			i++
		}

		if s := strings.TrimSpace(text[start:i]); s != "" {
			sentences = append(sentences, s)
		}

		start = i
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func packSentences(sentences []string, maxLength int) []string {
	var result []string

	var current []string
	var length int

	flush := func() {
		if len(current) > 0 {
			result = append(result, strings.Join(current, " "))
		}

		current = nil
		length = 0
	}

	for _, sentence := range sentences {
		size := utf8.RuneCountInString(sentence)

		separator := 0

		if len(current) > 0 {
			separator = 1
		}

		if length+separator+size <= maxLength {
			current = append(current, sentence)
			length += separator + size

			continue
		}

		flush()

		if size > maxLength {
			result = append(result, packWords(sentence, maxLength)...)
			continue
		}

		current = []string{sentence}
		length = size
	}

	flush()

	return result
}

func packWords(segment string, maxLength int) []string {
	words := strings.Fields(segment)

	if len(words) == 0 {
		return splitRunes(segment, maxLength)
	}

	var result []string

	var current []string
	var length int

	for _, word := range words {
		size := utf8.RuneCountInString(word)

		if size > maxLength {
			if len(current) > 0 {
				result = append(result, strings.Join(current, " "))
			}

			current = nil
			length = 0

			result = append(result, splitRunes(word, maxLength)...)
			continue
		}

		separator := 0

		if len(current) > 0 {
			separator = 1
		}

		if length+separator+size <= maxLength {
			current = append(current, word)
			length += separator + size

			continue
		}

		if len(current) > 0 {
			result = append(result, strings.Join(current, " "))
		}

		current = []string{word}
		length = size
	}

	if len(current) > 0 {
		result = append(result, strings.Join(current, " "))
	}

	return result
}

func splitRunes(text string, maxLength int) []string {
	var result []string

	for len(text) > 0 {
		end := 0

		for n := 0; n < maxLength && end < len(text); n++ {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
		}

		result = append(result, text[:end])
		text = text[end:]
	}

	return result
}
