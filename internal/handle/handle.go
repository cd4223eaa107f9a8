// Package handle maps opaque integer tokens to owned values.
package handle

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// Table hands out the lowest free non-zero token for each inserted value.
// Token 0 is never issued so callers can use it as a null handle.
// Not safe for concurrent use.
type Table[T any] struct {
	live   *roaring.Bitmap
	values map[uint32]T
}

// NewTable creates an empty table.
func NewTable[T any]() *Table[T] {
	return &Table[T]{
		live:   roaring.New(),
		values: make(map[uint32]T),
	}
}

// lowestFree scans the live set in ascending order for the first gap.
func (t *Table[T]) lowestFree() uint32 {
	candidate := uint32(1)
	it := t.live.Iterator()
	for it.HasNext() {
		if it.Next() != candidate {
			break
		}
		candidate++
	}
	return candidate
}

// Insert stores v and returns its token.
func (t *Table[T]) Insert(v T) uint32 {
	tok := t.lowestFree()
	t.live.Add(tok)
	t.values[tok] = v
	return tok
}

// Get returns the value registered under tok.
func (t *Table[T]) Get(tok uint32) (T, bool) {
	if tok == 0 || !t.live.Contains(tok) {
		var zero T
		return zero, false
	}
	return t.values[tok], true
}

// Replace swaps the value registered under tok, keeping the token.
// It reports false if tok is not live.
func (t *Table[T]) Replace(tok uint32, v T) bool {
	if tok == 0 || !t.live.Contains(tok) {
		return false
	}
	t.values[tok] = v
	return true
}

// Remove unregisters tok and returns the value it held.
func (t *Table[T]) Remove(tok uint32) (T, bool) {
	v, ok := t.Get(tok)
	if !ok {
		return v, false
	}
	t.live.Remove(tok)
	delete(t.values, tok)
	return v, true
}

// Len returns the number of live tokens.
func (t *Table[T]) Len() int {
	return int(t.live.GetCardinality())
}

// Tokens returns the live tokens in ascending order.
func (t *Table[T]) Tokens() []uint32 {
	return t.live.ToArray()
}
