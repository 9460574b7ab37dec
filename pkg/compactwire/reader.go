package compactwire

import (
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/rawbytedev/fressian"
	"github.com/rawbytedev/fressian/pkg/config"
)

// Reader decodes frames written by a Writer. Compressed frames are accepted
// whatever cfg.Compression says.
type Reader struct {
	r    io.Reader
	opts fressian.InputOptions
	dec  *zstd.Decoder
	cfg  config.Stream
	id   ksuid.KSUID
	log  logrus.FieldLogger

	hdr    [HeaderSize]byte
	frames int
}

func NewReader(r io.Reader, cfg config.Stream, opts fressian.InputOptions, o ...Option) (*Reader, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts.DisableChecksum = !cfg.Checksum
	rd := &Reader{r: r, opts: opts, cfg: cfg, id: ksuid.New()}
	rd.log = buildOptions(o).log.WithField("stream", rd.id.String())
	return rd, nil
}

// ReadMessage reads the next frame and hands its message to decode, then
// validates the footer. A nil decode skips straight to the footer. At a
// clean end of input ReadMessage returns io.EOF.
func (rd *Reader) ReadMessage(decode func(*fressian.InputStream) error) error {
	if _, err := io.ReadFull(rd.r, rd.hdr[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return rd.truncated(err)
	}
	flags, n, err := parseHeader(rd.hdr[:])
	if err != nil {
		rd.log.WithError(err).Warn("rejecting frame")
		return err
	}
	if int64(n) > int64(rd.cfg.MaxFrameSize) {
		rd.log.WithField("size", n).Warn("rejecting oversized frame")
		return errors.Wrapf(ErrFrameTooLarge, "%d > %d bytes", n, rd.cfg.MaxFrameSize)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(rd.r, body); err != nil {
		return rd.truncated(err)
	}
	if flags&FlagCompressed != 0 {
		if body, err = rd.decompress(body); err != nil {
			return err
		}
	}

	in := fressian.NewInputStream(body, rd.opts)
	if decode != nil {
		if err := decode(in); err != nil {
			return errors.Wrap(err, "compactwire: decode message")
		}
	} else if err := in.Seek(len(body) - fressian.FooterSize(in.UsesChecksum())); err != nil {
		return errors.Wrap(ErrTruncatedFrame, "frame shorter than a footer")
	}
	if err := in.ReadFooter(); err != nil {
		rd.log.WithError(err).WithField("frame", rd.frames+1).Warn("footer rejected")
		return errors.Wrap(err, "compactwire: footer")
	}
	if in.Available() != 0 {
		return errors.Wrapf(ErrTrailingBytes, "%d bytes", in.Available())
	}

	rd.frames++
	rd.log.WithFields(logrus.Fields{
		"frame":   rd.frames,
		"message": len(body),
		"body":    n,
	}).Debug("read frame")
	return nil
}

func (rd *Reader) decompress(body []byte) ([]byte, error) {
	if rd.dec == nil {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(uint64(rd.cfg.MaxFrameSize)))
		if err != nil {
			return nil, errors.Wrap(err, "compactwire: zstd decoder")
		}
		rd.dec = dec
	}
	out, err := rd.dec.DecodeAll(body, nil)
	if err != nil {
		return nil, errors.Wrap(err, "compactwire: decompress")
	}
	return out, nil
}

func (rd *Reader) truncated(err error) error {
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return errors.Wrapf(ErrTruncatedFrame, "after %d frames", rd.frames)
	}
	return errors.Wrap(err, "compactwire: read frame")
}

func (rd *Reader) ID() ksuid.KSUID { return rd.id }

func (rd *Reader) Frames() int { return rd.frames }

// Close releases the decompressor.
func (rd *Reader) Close() {
	if rd.dec != nil {
		rd.dec.Close()
	}
}
