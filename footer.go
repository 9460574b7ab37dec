package fressian

// FooterMagic opens every footer.
const FooterMagic uint32 = 0xCFCFCFCF

// FooterSize returns the encoded footer width: magic, length and, when
// checksums are on, the checksum.
func FooterSize(withChecksum bool) int {
	if withChecksum {
		return 12
	}
	return 8
}

// WriteFooter closes the current segment: magic, the segment length and
// the Adler-32 of everything from the checkpoint through the length field.
// The checkpoint then moves past the footer.
func (o *OutputStream) WriteFooter() {
	n := o.BytesWritten()
	o.WriteUint32(FooterMagic)
	o.WriteUint32(uint32(n))
	if o.useChecksum {
		o.WriteUint32(o.Checksum())
	}
	o.Reset()
}

// ValidateFooter checks a footer whose magic has already been read.
// calculatedLength is the size of the segment as seen by the caller. Checks
// run in order and stop at the first failure: magic, length, checksum.
func (in *InputStream) ValidateFooter(calculatedLength int, magic uint32) error {
	if magic != FooterMagic {
		return &FooterError{Kind: ErrFooterMagic, Expected: FooterMagic, Actual: magic, Position: in.pos}
	}
	length, err := in.ReadUint32()
	if err != nil {
		return err
	}
	if int64(length) != int64(calculatedLength) {
		return &FooterError{Kind: ErrFooterLength, Expected: uint32(calculatedLength), Actual: length, Position: in.pos}
	}
	if !in.useChecksum {
		return nil
	}
	calculated := in.Checksum()
	stored, err := in.ReadUint32()
	if err != nil {
		return err
	}
	if stored != calculated {
		return &FooterError{Kind: ErrFooterChecksum, Expected: calculated, Actual: stored, Position: in.pos}
	}
	return nil
}

// ReadFooter reads and validates the footer ending the current segment,
// then starts a fresh segment with empty caches.
func (in *InputStream) ReadFooter() error {
	calculated := in.BytesRead()
	magic, err := in.ReadUint32()
	if err != nil {
		return err
	}
	if err := in.ValidateFooter(calculated, magic); err != nil {
		return err
	}
	in.Reset()
	in.ClearCaches()
	return nil
}
