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

type options struct {
	log logrus.FieldLogger
}

type Option func(*options)

// WithLogger routes frame logs to l instead of the logrus standard logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.log = l }
}

func buildOptions(opts []Option) options {
	o := options{log: logrus.StandardLogger()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// Writer encodes messages into frames. A Writer reuses one OutputStream, so
// caches never span frames.
type Writer struct {
	w   io.Writer
	out *fressian.OutputStream
	enc *zstd.Encoder
	cfg config.Stream
	id  ksuid.KSUID
	log logrus.FieldLogger

	hdr    [HeaderSize]byte
	zbuf   []byte
	frames int
}

// NewWriter returns a Writer on w. Capacity and checksum settings in cfg
// override the matching fields of opts.
func NewWriter(w io.Writer, cfg config.Stream, opts fressian.OutputOptions, o ...Option) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts.InitialCapacity = cfg.InitialCapacity
	opts.DisableChecksum = !cfg.Checksum

	wr := &Writer{
		w:   w,
		out: fressian.NewOutputStream(opts),
		cfg: cfg,
		id:  ksuid.New(),
	}
	wr.log = buildOptions(o).log.WithField("stream", wr.id.String())
	if cfg.Compression == config.CompressionZstd {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return nil, errors.Wrap(err, "compactwire: zstd encoder")
		}
		wr.enc = enc
	}
	return wr, nil
}

// WriteMessage runs encode against a clean stream, closes the message with
// a footer and writes it out as one frame.
func (wr *Writer) WriteMessage(encode func(*fressian.OutputStream) error) error {
	defer wr.rewind()
	if err := encode(wr.out); err != nil {
		return errors.Wrap(err, "compactwire: encode message")
	}
	wr.out.WriteFooter()

	body, flags := wr.out.Bytes(), byte(0)
	if wr.enc != nil {
		wr.zbuf = wr.enc.EncodeAll(body, wr.zbuf[:0])
		body, flags = wr.zbuf, FlagCompressed
	}
	if len(body) > wr.cfg.MaxFrameSize {
		wr.log.WithField("size", len(body)).Warn("dropping oversized frame")
		return errors.Wrapf(ErrFrameTooLarge, "%d > %d bytes", len(body), wr.cfg.MaxFrameSize)
	}

	putHeader(wr.hdr[:], flags, len(body))
	if _, err := wr.w.Write(wr.hdr[:]); err != nil {
		return errors.Wrap(err, "compactwire: write header")
	}
	if _, err := wr.w.Write(body); err != nil {
		return errors.Wrap(err, "compactwire: write body")
	}
	wr.frames++
	wr.log.WithFields(logrus.Fields{
		"frame":   wr.frames,
		"message": wr.out.Len(),
		"body":    len(body),
	}).Debug("wrote frame")
	return nil
}

func (wr *Writer) rewind() {
	_ = wr.out.Seek(0)
	wr.out.ClearCaches()
}

func (wr *Writer) ID() ksuid.KSUID { return wr.id }

// Frames returns the number of frames written so far.
func (wr *Writer) Frames() int { return wr.frames }

// Close releases the compressor. It does not close the underlying writer.
func (wr *Writer) Close() error {
	if wr.enc == nil {
		return nil
	}
	return wr.enc.Close()
}
