package linebuf

import "unicode"

// PrevWord returns the index of the start of the word before i.
func (b *Buffer) PrevWord(i int) int {
	b.check(i, len(b.text), "PrevWord")
	// Skip separators backward.
	for i > 0 && unicode.IsSpace(b.text[i-1]) {
		i--
	}
	// Skip word characters backward.
	for i > 0 && !unicode.IsSpace(b.text[i-1]) {
		i--
	}
	return i
}

// NextWord returns the index of the start of the word after i, or Len.
func (b *Buffer) NextWord(i int) int {
	b.check(i, len(b.text), "NextWord")
	for i < len(b.text) && !unicode.IsSpace(b.text[i]) {
		i++
	}
	for i < len(b.text) && unicode.IsSpace(b.text[i]) {
		i++
	}
	return i
}

// WordBefore returns the start index of the space-delimited token ending
// at i.
func (b *Buffer) WordBefore(i int) int {
	b.check(i, len(b.text), "WordBefore")
	for i > 0 && b.text[i-1] != ' ' {
		i--
	}
	return i
}
