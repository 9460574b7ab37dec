package fressian

import (
	"errors"
	"fmt"
)

var (
	ErrUnderrun             = errors.New("fressian: buffer underrun")
	ErrSeekOutOfBounds      = errors.New("fressian: seek out of bounds")
	ErrCircularReference    = errors.New("fressian: unresolved circular reference")
	ErrCacheIndexOutOfRange = errors.New("fressian: cache index out of range")
	ErrFooterMagic          = errors.New("fressian: footer magic mismatch")
	ErrFooterLength         = errors.New("fressian: footer length mismatch")
	ErrFooterChecksum       = errors.New("fressian: footer checksum mismatch")
	ErrInvalidRange         = errors.New("fressian: invalid byte range")
	ErrUncacheable          = errors.New("fressian: value is not cacheable")
	ErrNoObjectReader       = errors.New("fressian: no object reader configured")
	ErrNoObjectWriter       = errors.New("fressian: no object writer configured")
	ErrNotStruct            = errors.New("fressian: expected struct")
	ErrUnsupported          = errors.New("fressian: unsupported field type")
)

// UnderrunError reports a read that asked for more bytes than remain.
type UnderrunError struct {
	Requested int
	Available int
	Position  int
}

func (e *UnderrunError) Error() string {
	return fmt.Sprintf("fressian: buffer underrun at %d: requested %d bytes, %d available",
		e.Position, e.Requested, e.Available)
}

func (e *UnderrunError) Is(target error) bool { return target == ErrUnderrun }

// SeekError reports a seek past the valid extent of a stream.
type SeekError struct {
	Pos    int
	Extent int
}

func (e *SeekError) Error() string {
	return fmt.Sprintf("fressian: seek to %d outside [0, %d]", e.Pos, e.Extent)
}

func (e *SeekError) Is(target error) bool { return target == ErrSeekOutOfBounds }

// CacheIndexError reports a lookup beyond the populated part of a cache.
type CacheIndexError struct {
	Index int
	Len   int
}

func (e *CacheIndexError) Error() string {
	return fmt.Sprintf("fressian: cache index %d out of range (len %d)", e.Index, e.Len)
}

func (e *CacheIndexError) Is(target error) bool { return target == ErrCacheIndexOutOfRange }

// CircularReferenceError reports a lookup of a slot whose value is still
// being decoded.
type CircularReferenceError struct {
	Index int
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("fressian: unresolved circular reference to cache index %d", e.Index)
}

func (e *CircularReferenceError) Is(target error) bool { return target == ErrCircularReference }

// FooterError is returned by footer validation. Kind is one of
// ErrFooterMagic, ErrFooterLength or ErrFooterChecksum.
type FooterError struct {
	Kind     error
	Expected uint32
	Actual   uint32
	Position int
}

func (e *FooterError) Error() string {
	return fmt.Sprintf("%v at %d: expected %#x, got %#x", e.Kind, e.Position, e.Expected, e.Actual)
}

func (e *FooterError) Is(target error) bool { return target == e.Kind }

func (e *FooterError) Unwrap() error { return e.Kind }
