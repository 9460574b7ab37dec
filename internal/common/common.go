package common

import (
	"encoding/binary"
	"math"
	"reflect"
)

// Scratch widths. Integer codecs use a 4-byte scratch, floating point (and
// raw 64-bit integers) an 8-byte one.
const (
	IntScratch   = 4
	FloatScratch = 8
)

// IsFixedKind reports whether k is a fixed-size primitive kind.
func IsFixedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// FixedSize returns the byte width for fixed-size primitive kinds.
func FixedSize(k reflect.Kind) int {
	switch k {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	default:
		return -1
	}
}

// PutUint16 encodes v into scratch and returns the 2 encoded bytes.
func PutUint16(scratch []byte, v uint16) []byte {
	binary.LittleEndian.PutUint16(scratch, v)
	return scratch[:2]
}

// PutUint24 widens v to a 4-byte little-endian word and returns its low 3
// bytes. Bits above 24 are discarded.
func PutUint24(scratch []byte, v uint32) []byte {
	binary.LittleEndian.PutUint32(scratch, v)
	return scratch[:3]
}

func PutUint32(scratch []byte, v uint32) []byte {
	binary.LittleEndian.PutUint32(scratch, v)
	return scratch[:4]
}

func PutUint64(scratch []byte, v uint64) []byte {
	binary.LittleEndian.PutUint64(scratch, v)
	return scratch[:8]
}

func PutFloat32(scratch []byte, v float32) []byte {
	binary.LittleEndian.PutUint32(scratch, math.Float32bits(v))
	return scratch[:4]
}

func PutFloat64(scratch []byte, v float64) []byte {
	binary.LittleEndian.PutUint64(scratch, math.Float64bits(v))
	return scratch[:8]
}

func Uint16(b []byte) uint16 { return binary.LittleEndian.Uint16(b) }

// Uint24 widens the 3 low bytes held in a 4-byte scratch. The caller has
// already zeroed scratch[3].
func Uint24(scratch []byte) uint32 { return binary.LittleEndian.Uint32(scratch) & 0x00ffffff }

// Int24 is Uint24 with the sign taken from bit 23.
func Int24(scratch []byte) int32 {
	return int32(Uint24(scratch)<<8) >> 8
}

func Uint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func Uint64(b []byte) uint64 { return binary.LittleEndian.Uint64(b) }

func Float32(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) }

func Float64(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) }
