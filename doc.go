// Package fressian is the byte-level engine of a self-describing binary
// format. It owns the bytes: a growable OutputStream and a bounded
// InputStream with little-endian primitives, Adler-32 checksums over a
// checkpointed segment, the footer protocol that ties a segment's length
// and checksum together, and the caches used for back references.
//
// Deciding what to encode, and which values deserve a cache slot, belongs to
// a value layer plugged in through ObjectReader, ObjectWriter and the tag
// handler tables.
//
// A typical message round trip:
//
//	out := fressian.NewOutputStream(fressian.OutputOptions{})
//	out.WriteInt32(42)
//	out.WriteFooter()
//
//	in := fressian.NewInputStream(out.Snapshot(), fressian.InputOptions{})
//	v, _ := in.ReadInt32()
//	if err := in.ReadFooter(); err != nil {
//		// corrupt or truncated
//	}
package fressian
