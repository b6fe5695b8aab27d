// Package linebuf holds the logical input line and maps between character
// indices and screen cells.
package linebuf

import (
	"fmt"
	"sort"

	"ecmd/internal/console"
)

// Buffer is the line being edited. Start is the screen cell where the first
// character is drawn. Tab positions are kept sorted and always index a '\t'
// in the text.
type Buffer struct {
	text  []rune
	tabs  []int
	Start console.Point
}

// New returns an empty buffer starting at start.
func New(start console.Point) *Buffer {
	return &Buffer{Start: start}
}

// Len returns the number of characters in the line.
func (b *Buffer) Len() int { return len(b.text) }

// Text returns the line as a string.
func (b *Buffer) Text() string { return string(b.text) }

// RuneAt returns the character at i.
func (b *Buffer) RuneAt(i int) rune {
	b.check(i, len(b.text)-1, "RuneAt")
	return b.text[i]
}

// TabPositions returns a copy of the indices holding a tab.
func (b *Buffer) TabPositions() []int {
	return append([]int(nil), b.tabs...)
}

// HasTab reports whether the line contains a tab.
func (b *Buffer) HasTab() bool { return len(b.tabs) > 0 }

// Insert places r before index i. 0 <= i <= Len.
func (b *Buffer) Insert(i int, r rune) {
	b.check(i, len(b.text), "Insert")
	b.text = append(b.text, 0)
	copy(b.text[i+1:], b.text[i:])
	b.text[i] = r
	for k := range b.tabs {
		if b.tabs[k] >= i {
			b.tabs[k]++
		}
	}
	if r == '\t' {
		b.addTab(i)
	}
}

// Remove deletes the character at i. 0 <= i < Len.
func (b *Buffer) Remove(i int) {
	b.check(i, len(b.text)-1, "Remove")
	b.text = append(b.text[:i], b.text[i+1:]...)
	kept := b.tabs[:0]
	for _, t := range b.tabs {
		switch {
		case t == i:
			continue
		case t > i:
			t--
		}
		kept = append(kept, t)
	}
	b.tabs = kept
}

// RemoveRange deletes the characters in [from, to).
func (b *Buffer) RemoveRange(from, to int) {
	b.check(from, len(b.text), "RemoveRange")
	b.check(to, len(b.text), "RemoveRange")
	for i := to - 1; i >= from; i-- {
		b.Remove(i)
	}
}

// Overwrite replaces the character at i. 0 <= i < Len.
func (b *Buffer) Overwrite(i int, r rune) {
	b.check(i, len(b.text)-1, "Overwrite")
	was := b.text[i]
	b.text[i] = r
	switch {
	case was == '\t' && r != '\t':
		b.dropTab(i)
	case was != '\t' && r == '\t':
		b.addTab(i)
	}
}

// Append adds s at the end of the line.
func (b *Buffer) Append(s string) {
	for _, r := range s {
		b.Insert(len(b.text), r)
	}
}

// Reset empties the line. Start is kept.
func (b *Buffer) Reset() {
	b.text = b.text[:0]
	b.tabs = b.tabs[:0]
}

// Set replaces the line with s.
func (b *Buffer) Set(s string) {
	b.Reset()
	b.Append(s)
}

func (b *Buffer) addTab(i int) {
	k := sort.SearchInts(b.tabs, i)
	b.tabs = append(b.tabs, 0)
	copy(b.tabs[k+1:], b.tabs[k:])
	b.tabs[k] = i
}

func (b *Buffer) dropTab(i int) {
	k := sort.SearchInts(b.tabs, i)
	if k < len(b.tabs) && b.tabs[k] == i {
		b.tabs = append(b.tabs[:k], b.tabs[k+1:]...)
	}
}

func (b *Buffer) check(i, max int, op string) {
	if i < 0 || i > max {
		panic(fmt.Sprintf("linebuf: %s index %d out of range [0,%d]", op, i, max))
	}
}
