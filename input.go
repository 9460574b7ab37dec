package fressian

import (
	"fmt"

	"github.com/rawbytedev/fressian/internal/common"
	"github.com/rawbytedev/fressian/pkg/checksum"
)

type InputOptions struct {
	// DisableChecksum skips the checksum field during footer validation.
	DisableChecksum bool

	Handlers          Handlers[ReadHandler]
	ExtensionHandlers Handlers[ReadHandler]
	CoreHandlers      Handlers[ReadHandler]

	Reader ObjectReader
}

// InputStream reads primitives from a complete, fixed buffer. Reads never
// return partial data: a read that cannot be satisfied fails with an
// *UnderrunError and leaves the position untouched.
//
// An InputStream is not safe for concurrent use.
type InputStream struct {
	buf        []byte
	pos        int
	checkpoint int

	intScratch   [common.IntScratch]byte
	floatScratch [common.FloatScratch]byte

	StructCache   ReadCache
	PriorityCache ReadCache

	handlers    HandlerChain[ReadHandler]
	reader      ObjectReader
	useChecksum bool
}

// NewInputStream reads from buf. The stream takes ownership of buf.
func NewInputStream(buf []byte, opts InputOptions) *InputStream {
	return &InputStream{
		buf:         buf,
		handlers:    Chain(opts.Handlers, opts.ExtensionHandlers, opts.CoreHandlers),
		reader:      opts.Reader,
		useChecksum: !opts.DisableChecksum,
	}
}

// Require fails unless n bytes remain.
func (in *InputStream) Require(n int) error {
	if avail := in.Available(); n > avail {
		return &UnderrunError{Requested: n, Available: avail, Position: in.pos}
	}
	return nil
}

func (in *InputStream) ReadByte() (byte, error) {
	if err := in.Require(1); err != nil {
		return 0, err
	}
	b := in.buf[in.pos]
	in.pos++
	return b, nil
}

// ReadBytes fills dst[offset:offset+n].
func (in *InputStream) ReadBytes(dst []byte, offset, n int) error {
	if offset < 0 || n < 0 || offset+n > len(dst) {
		return ErrInvalidRange
	}
	if err := in.Require(n); err != nil {
		return err
	}
	in.pos += copy(dst[offset:offset+n], in.buf[in.pos:in.pos+n])
	return nil
}

func (in *InputStream) Available() int {
	if n := len(in.buf) - in.pos; n > 0 {
		return n
	}
	return 0
}

// Peek returns the next byte without consuming it; ok is false at the end
// of the buffer.
func (in *InputStream) Peek() (b byte, ok bool) {
	if in.pos >= len(in.buf) {
		return 0, false
	}
	return in.buf[in.pos], true
}

func (in *InputStream) ReadInt16() (int16, error) {
	v, err := in.ReadUint16()
	return int16(v), err
}

func (in *InputStream) ReadUint16() (uint16, error) {
	if err := in.ReadBytes(in.intScratch[:], 0, 2); err != nil {
		return 0, err
	}
	return common.Uint16(in.intScratch[:]), nil
}

func (in *InputStream) read24() error {
	if err := in.ReadBytes(in.intScratch[:], 0, 3); err != nil {
		return err
	}
	in.intScratch[3] = 0
	return nil
}

func (in *InputStream) ReadInt24() (int32, error) {
	if err := in.read24(); err != nil {
		return 0, err
	}
	return common.Int24(in.intScratch[:]), nil
}

func (in *InputStream) ReadUint24() (uint32, error) {
	if err := in.read24(); err != nil {
		return 0, err
	}
	return common.Uint24(in.intScratch[:]), nil
}

func (in *InputStream) ReadInt32() (int32, error) {
	v, err := in.ReadUint32()
	return int32(v), err
}

func (in *InputStream) ReadUint32() (uint32, error) {
	if err := in.ReadBytes(in.intScratch[:], 0, 4); err != nil {
		return 0, err
	}
	return common.Uint32(in.intScratch[:]), nil
}

func (in *InputStream) ReadInt64() (int64, error) {
	v, err := in.ReadUint64()
	return int64(v), err
}

func (in *InputStream) ReadUint64() (uint64, error) {
	if err := in.ReadBytes(in.floatScratch[:], 0, 8); err != nil {
		return 0, err
	}
	return common.Uint64(in.floatScratch[:]), nil
}

func (in *InputStream) ReadFloat32() (float32, error) {
	if err := in.ReadBytes(in.floatScratch[:], 0, 4); err != nil {
		return 0, err
	}
	return common.Float32(in.floatScratch[:]), nil
}

func (in *InputStream) ReadFloat64() (float64, error) {
	if err := in.ReadBytes(in.floatScratch[:], 0, 8); err != nil {
		return 0, err
	}
	return common.Float64(in.floatScratch[:]), nil
}

// Checksum returns the Adler-32 of the bytes read since the checkpoint.
func (in *InputStream) Checksum() uint32 {
	return checksum.Adler32(in.buf[in.checkpoint:in.pos])
}

func (in *InputStream) BytesRead() int { return in.pos - in.checkpoint }

func (in *InputStream) Reset() { in.checkpoint = in.pos }

// Seek moves the read position to pos, which may be anywhere in the buffer.
func (in *InputStream) Seek(pos int) error {
	if pos < 0 || pos > len(in.buf) {
		return &SeekError{Pos: pos, Extent: len(in.buf)}
	}
	in.pos = pos
	if in.checkpoint > pos {
		in.checkpoint = pos
	}
	return nil
}

func (in *InputStream) ClearCaches() {
	in.StructCache.Clear()
	in.PriorityCache.Clear()
}

func (in *InputStream) Position() int { return in.pos }
func (in *InputStream) Len() int      { return len(in.buf) }

// UsesChecksum reports whether footer validation checks the checksum.
func (in *InputStream) UsesChecksum() bool { return in.useChecksum }

// ReadObject decodes one value with the configured value reader.
func (in *InputStream) ReadObject() (any, error) {
	if in.reader == nil {
		return nil, ErrNoObjectReader
	}
	return in.reader.ReadObject(in)
}

// ReadAndCache reserves the next slot of c, decodes one value into it and
// returns the value. While the value is being decoded any lookup of its
// slot reports a circular reference.
func (in *InputStream) ReadAndCache(c *ReadCache) (any, error) {
	i := c.Reserve()
	v, err := in.ReadObject()
	if err != nil {
		return nil, err
	}
	if err := c.Fill(i, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Lookup resolves a back reference into c.
func (in *InputStream) Lookup(c *ReadCache, index int) (any, error) {
	return c.Lookup(index)
}

// HandleStruct decodes a struct with the handler registered for tag. Tags
// without a handler decode into a TaggedObject of fieldCount values.
func (in *InputStream) HandleStruct(tag string, fieldCount int) (any, error) {
	if h, ok := in.handlers.Lookup(tag); ok {
		return h.ReadStruct(in, tag, fieldCount)
	}
	if fieldCount < 0 {
		return nil, fmt.Errorf("%w: field count %d", ErrInvalidRange, fieldCount)
	}
	// the count comes off the wire, so the buffer bounds the allocation
	fields := make([]any, 0, min(fieldCount, in.Available()))
	for i := 0; i < fieldCount; i++ {
		v, err := in.ReadObject()
		if err != nil {
			return nil, err
		}
		fields = append(fields, v)
	}
	return &TaggedObject{Tag: tag, Fields: fields}, nil
}
