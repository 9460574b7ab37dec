package fressian

import (
	"github.com/rawbytedev/fressian/internal/common"
	"github.com/rawbytedev/fressian/pkg/checksum"
)

// DefaultCapacity is the initial buffer size of an OutputStream.
const DefaultCapacity = 32

type OutputOptions struct {
	InitialCapacity int
	// DisableChecksum drops the checksum field from footers written by
	// WriteFooter. Readers must be configured the same way.
	DisableChecksum bool

	Handlers          Handlers[WriteHandler]
	ExtensionHandlers Handlers[WriteHandler]
	CoreHandlers      Handlers[WriteHandler]

	Writer ObjectWriter
	// NewCache builds the struct and priority caches. Defaults to
	// NewInternCache.
	NewCache func() WriteCache
}

// OutputStream is a growable write buffer with a checkpoint marking the
// start of the segment covered by BytesWritten and Checksum.
//
// An OutputStream is not safe for concurrent use.
type OutputStream struct {
	buf        []byte // len(buf) is the capacity
	length     int
	checkpoint int

	intScratch   [common.IntScratch]byte
	floatScratch [common.FloatScratch]byte

	StructCache   WriteCache
	PriorityCache WriteCache

	handlers    HandlerChain[WriteHandler]
	writer      ObjectWriter
	newCache    func() WriteCache
	useChecksum bool
}

func NewOutputStream(opts OutputOptions) *OutputStream {
	size := opts.InitialCapacity
	if size <= 0 {
		size = DefaultCapacity
	}
	newCache := opts.NewCache
	if newCache == nil {
		newCache = func() WriteCache { return NewInternCache() }
	}
	out := &OutputStream{
		buf:         make([]byte, size),
		handlers:    Chain(opts.Handlers, opts.ExtensionHandlers, opts.CoreHandlers),
		writer:      opts.Writer,
		newCache:    newCache,
		useChecksum: !opts.DisableChecksum,
	}
	out.ClearCaches()
	return out
}

// ensure makes room for n more bytes. A growing buffer takes
// max(length+n, 2*capacity).
func (o *OutputStream) ensure(n int) {
	need := o.length + n
	if need <= len(o.buf) {
		return
	}
	size := 2 * len(o.buf)
	if need > size {
		size = need
	}
	buf := make([]byte, size)
	copy(buf, o.buf[:o.length])
	o.buf = buf
}

// WriteByte appends b. It never fails.
func (o *OutputStream) WriteByte(b byte) error {
	o.ensure(1)
	o.buf[o.length] = b
	o.length++
	return nil
}

// WriteBytes appends src[offset:offset+n].
func (o *OutputStream) WriteBytes(src []byte, offset, n int) error {
	if offset < 0 || n < 0 || offset+n > len(src) {
		return ErrInvalidRange
	}
	o.ensure(n)
	o.length += copy(o.buf[o.length:], src[offset:offset+n])
	return nil
}

// Write implements io.Writer.
func (o *OutputStream) Write(p []byte) (int, error) {
	o.ensure(len(p))
	o.length += copy(o.buf[o.length:], p)
	return len(p), nil
}

func (o *OutputStream) put(p []byte) {
	o.ensure(len(p))
	o.length += copy(o.buf[o.length:], p)
}

func (o *OutputStream) WriteInt16(v int16)   { o.put(common.PutUint16(o.intScratch[:], uint16(v))) }
func (o *OutputStream) WriteUint16(v uint16) { o.put(common.PutUint16(o.intScratch[:], v)) }

// WriteInt24 writes the low 24 bits of v.
func (o *OutputStream) WriteInt24(v int32) { o.put(common.PutUint24(o.intScratch[:], uint32(v))) }

// WriteUint24 writes the low 24 bits of v.
func (o *OutputStream) WriteUint24(v uint32) { o.put(common.PutUint24(o.intScratch[:], v)) }

func (o *OutputStream) WriteInt32(v int32)   { o.put(common.PutUint32(o.intScratch[:], uint32(v))) }
func (o *OutputStream) WriteUint32(v uint32) { o.put(common.PutUint32(o.intScratch[:], v)) }
func (o *OutputStream) WriteInt64(v int64)   { o.put(common.PutUint64(o.floatScratch[:], uint64(v))) }
func (o *OutputStream) WriteUint64(v uint64) { o.put(common.PutUint64(o.floatScratch[:], v)) }

func (o *OutputStream) WriteFloat32(v float32) { o.put(common.PutFloat32(o.floatScratch[:], v)) }
func (o *OutputStream) WriteFloat64(v float64) { o.put(common.PutFloat64(o.floatScratch[:], v)) }

// Checksum returns the Adler-32 of the bytes written since the checkpoint.
func (o *OutputStream) Checksum() uint32 {
	return checksum.Adler32(o.buf[o.checkpoint:o.length])
}

func (o *OutputStream) BytesWritten() int { return o.length - o.checkpoint }

// Reset moves the checkpoint to the current length. No data is discarded.
func (o *OutputStream) Reset() { o.checkpoint = o.length }

// Seek moves the write cursor back to pos; later writes overwrite from
// there. pos cannot exceed what has been written.
func (o *OutputStream) Seek(pos int) error {
	if pos < 0 || pos > o.length {
		return &SeekError{Pos: pos, Extent: o.length}
	}
	o.length = pos
	if o.checkpoint > pos {
		o.checkpoint = pos
	}
	return nil
}

// ClearCaches swaps in empty struct and priority caches.
func (o *OutputStream) ClearCaches() {
	o.StructCache = o.newCache()
	o.PriorityCache = o.newCache()
}

// Bytes returns the written bytes. The slice aliases the buffer and is
// only valid until the next write.
func (o *OutputStream) Bytes() []byte { return o.buf[:o.length] }

// Snapshot returns a copy of the written bytes.
func (o *OutputStream) Snapshot() []byte {
	out := make([]byte, o.length)
	copy(out, o.buf[:o.length])
	return out
}

func (o *OutputStream) Len() int { return o.length }
func (o *OutputStream) Cap() int { return len(o.buf) }

// UsesChecksum reports whether WriteFooter emits a checksum field.
func (o *OutputStream) UsesChecksum() bool { return o.useChecksum }

// Handler resolves the write handler for tag.
func (o *OutputStream) Handler(tag string) (WriteHandler, bool) {
	return o.handlers.Lookup(tag)
}

// WriteObject hands v to the configured value writer.
func (o *OutputStream) WriteObject(v any) error {
	if o.writer == nil {
		return ErrNoObjectWriter
	}
	return o.writer.WriteObject(o, v)
}

// WriteCached writes v unless cache already holds it, in which case only
// the index is returned and the caller emits a back reference. The index
// is assigned before v is written, mirroring the reader, which reserves a
// slot before decoding.
func (o *OutputStream) WriteCached(cache WriteCache, v any) (int, bool, error) {
	if i, ok := cache.Lookup(v); ok {
		return i, true, nil
	}
	i, err := cache.Intern(v)
	if err != nil {
		return -1, false, err
	}
	return i, false, o.WriteObject(v)
}
