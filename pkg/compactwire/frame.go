// Package compactwire carries fressian messages over a byte stream. Each
// frame holds exactly one message closed by its footer:
//
//	[magic "FW" 2B][flags 1B][body length uint32 LE][body]
//
// With FlagCompressed set the body is zstd-compressed.
package compactwire

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Frame flags.
const (
	FlagCompressed byte = 1 << iota

	knownFlags = FlagCompressed
)

// HeaderSize is the fixed width of a frame header.
const HeaderSize = 7

var magic = [2]byte{'F', 'W'}

var (
	ErrBadMagic       = errors.New("compactwire: bad frame magic")
	ErrUnknownFlags   = errors.New("compactwire: unknown frame flags")
	ErrTruncatedFrame = errors.New("compactwire: truncated frame")
	ErrFrameTooLarge  = errors.New("compactwire: frame exceeds max size")
	ErrTrailingBytes  = errors.New("compactwire: bytes after message footer")
)

func putHeader(dst []byte, flags byte, n int) {
	dst[0], dst[1] = magic[0], magic[1]
	dst[2] = flags
	binary.LittleEndian.PutUint32(dst[3:], uint32(n))
}

func parseHeader(src []byte) (flags byte, n uint32, err error) {
	if src[0] != magic[0] || src[1] != magic[1] {
		return 0, 0, ErrBadMagic
	}
	flags = src[2]
	if flags&^knownFlags != 0 {
		return 0, 0, errors.Wrapf(ErrUnknownFlags, "flags %#02x", flags)
	}
	return flags, binary.LittleEndian.Uint32(src[3:]), nil
}
