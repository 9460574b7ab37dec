// Package checksum implements the Adler-32 checksum used by fressian footers.
//
// The sums are reduced modulo 65521 at most every 5552 bytes, the largest run
// for which the unreduced b accumulator cannot overflow 32 bits. A checksum can
// be resumed from a previous value, which lets a caller fold several byte
// ranges into one result without re-reading the earlier ones.
package checksum

import "hash"

const (
	mod  = 65521
	nmax = 5552

	// Size of an Adler-32 checksum in bytes.
	Size = 4
)

// Adler32 returns the Adler-32 checksum of p.
func Adler32(p []byte) uint32 { return UpdateAdler32(1, p) }

// UpdateAdler32 continues the checksum prev over p.
func UpdateAdler32(prev uint32, p []byte) uint32 {
	a, b := prev&0xffff, prev>>16
	for len(p) > 0 {
		var q []byte
		if len(p) > nmax {
			p, q = p[:nmax], p[nmax:]
		}
		for _, c := range p {
			a += uint32(c)
			b += a
		}
		a %= mod
		b %= mod
		p = q
	}
	return b<<16 | a
}

// Digest is a streaming Adler-32 hash.Hash32.
type Digest struct {
	sum uint32
}

var _ hash.Hash32 = (*Digest)(nil)

// NewAdler32 returns a Digest in its initial state.
func NewAdler32() *Digest { return &Digest{sum: 1} }

func (d *Digest) Reset()         { d.sum = 1 }
func (d *Digest) Size() int      { return Size }
func (d *Digest) BlockSize() int { return 4 }
func (d *Digest) Sum32() uint32  { return d.sum }

func (d *Digest) Write(p []byte) (int, error) {
	d.sum = UpdateAdler32(d.sum, p)
	return len(p), nil
}

// Sum appends the big-endian checksum to in, as hash/adler32 does.
func (d *Digest) Sum(in []byte) []byte {
	s := d.sum
	return append(in, byte(s>>24), byte(s>>16), byte(s>>8), byte(s))
}
