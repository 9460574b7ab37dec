package fressian

import "reflect"

// StructType is the struct-cache record: a registered shape identified by
// its tag and arity.
type StructType struct {
	Tag        string
	FieldCount int
}

type slotState uint8

const (
	slotEmpty slotState = iota
	slotInProgress
	slotFilled
)

type cacheSlot struct {
	state slotState
	value any
}

// ReadCache is the read-side dedup table. Slots are addressed by insertion
// order. A slot is reserved before its value is decoded so that a value can
// claim its index while its own fields are still being read; looking that
// index up before Fill is a circular reference.
type ReadCache struct {
	slots []cacheSlot
}

func (c *ReadCache) Len() int { return len(c.slots) }

// Reserve appends an in-progress slot and returns its index.
func (c *ReadCache) Reserve() int {
	c.slots = append(c.slots, cacheSlot{state: slotInProgress})
	return len(c.slots) - 1
}

// Fill stores v in slot i. The slot must still be in progress; a cache
// cleared while its value was being decoded no longer has it.
func (c *ReadCache) Fill(i int, v any) error {
	if i < 0 || i >= len(c.slots) || c.slots[i].state != slotInProgress {
		return &CacheIndexError{Index: i, Len: len(c.slots)}
	}
	c.slots[i] = cacheSlot{state: slotFilled, value: v}
	return nil
}

// Append stores an already decoded value and returns its index.
func (c *ReadCache) Append(v any) int {
	c.slots = append(c.slots, cacheSlot{state: slotFilled, value: v})
	return len(c.slots) - 1
}

// Lookup returns the value at index i.
func (c *ReadCache) Lookup(i int) (any, error) {
	if i < 0 || i >= len(c.slots) {
		return nil, &CacheIndexError{Index: i, Len: len(c.slots)}
	}
	switch s := c.slots[i]; s.state {
	case slotFilled:
		return s.value, nil
	case slotInProgress:
		return nil, &CircularReferenceError{Index: i}
	default:
		return nil, &CacheIndexError{Index: i, Len: len(c.slots)}
	}
}

// Clear empties the cache, dropping references to the cached values.
func (c *ReadCache) Clear() {
	clear(c.slots)
	c.slots = c.slots[:0]
}

// WriteCache assigns small integer indices to values written more than once.
type WriteCache interface {
	// Lookup returns the index previously assigned to v.
	Lookup(v any) (int, bool)
	// Intern assigns the next index to v.
	Intern(v any) (int, error)
	Len() int
}

// InternCache is the default WriteCache. Only comparable values can be
// interned.
type InternCache struct {
	index map[any]int
}

func NewInternCache() *InternCache {
	return &InternCache{index: make(map[any]int)}
}

func (c *InternCache) Len() int { return len(c.index) }

func (c *InternCache) Lookup(v any) (int, bool) {
	if !isComparable(v) {
		return 0, false
	}
	i, ok := c.index[v]
	return i, ok
}

func (c *InternCache) Intern(v any) (int, error) {
	if !isComparable(v) {
		return -1, ErrUncacheable
	}
	if i, ok := c.index[v]; ok {
		return i, nil
	}
	i := len(c.index)
	c.index[v] = i
	return i, nil
}

func isComparable(v any) bool {
	if v == nil {
		return true
	}
	// the dynamic check catches interface fields holding slices or maps
	return reflect.ValueOf(v).Comparable()
}
