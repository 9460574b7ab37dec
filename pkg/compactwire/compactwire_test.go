package compactwire

import (
	"bytes"
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytedev/fressian"
	"github.com/rawbytedev/fressian/pkg/config"
)

type point struct {
	X, Y  int32
	Label string
}

func pointHandlers(t testing.TB) (fressian.OutputOptions, fressian.InputOptions) {
	h := fressian.NewStructHandler()
	require.NoError(t, h.Register("point", point{}))
	return fressian.OutputOptions{Handlers: h.WriteHandlers()},
		fressian.InputOptions{Handlers: h.ReadHandlers()}
}

func writePoints(t testing.TB, cfg config.Stream, pts []point) []byte {
	oo, _ := pointHandlers(t)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, cfg, oo)
	require.NoError(t, err)
	defer w.Close()
	for _, p := range pts {
		p := p
		require.NoError(t, w.WriteMessage(func(out *fressian.OutputStream) error {
			wh, _ := out.Handler("point")
			return wh.WriteStruct(out, "point", p)
		}))
	}
	require.Equal(t, len(pts), w.Frames())
	return buf.Bytes()
}

func readPoints(t testing.TB, cfg config.Stream, data []byte) ([]point, error) {
	_, iopts := pointHandlers(t)
	r, err := NewReader(bytes.NewReader(data), cfg, iopts)
	require.NoError(t, err)
	defer r.Close()
	var pts []point
	for {
		err := r.ReadMessage(func(in *fressian.InputStream) error {
			v, err := in.HandleStruct("point", 3)
			if err != nil {
				return err
			}
			pts = append(pts, *v.(*point))
			return nil
		})
		if err == io.EOF {
			return pts, nil
		}
		if err != nil {
			return pts, err
		}
	}
}

var samplePoints = []point{{1, 2, "a"}, {-3, 4, "bb"}, {0, 0, ""}, {1 << 20, -1 << 20, "far away"}}

func TestRoundTrip(t *testing.T) {
	zstdCfg := config.DefaultConfig().Stream
	zstdCfg.Compression = config.CompressionZstd
	noSum := config.DefaultConfig().Stream
	noSum.Checksum = false

	for name, cfg := range map[string]config.Stream{
		"plain":       config.DefaultConfig().Stream,
		"zstd":        zstdCfg,
		"no checksum": noSum,
	} {
		t.Run(name, func(t *testing.T) {
			data := writePoints(t, cfg, samplePoints)
			got, err := readPoints(t, cfg, data)
			require.NoError(t, err)
			require.Equal(t, samplePoints, got)
		})
	}
}

func TestFrameLayout(t *testing.T) {
	data := writePoints(t, config.DefaultConfig().Stream, samplePoints[:1])
	require.Equal(t, []byte{'F', 'W', 0}, data[:3])
	// 4+4 ints, 4 length + 1 label, 12 footer
	require.Equal(t, []byte{25, 0, 0, 0}, data[3:7])
	require.Len(t, data, HeaderSize+25)
}

func TestSkipToFooter(t *testing.T) {
	cfg := config.DefaultConfig().Stream
	data := writePoints(t, cfg, samplePoints)
	r, err := NewReader(bytes.NewReader(data), cfg, fressian.InputOptions{})
	require.NoError(t, err)
	for range samplePoints {
		require.NoError(t, r.ReadMessage(nil))
	}
	require.Equal(t, io.EOF, r.ReadMessage(nil))
	require.Equal(t, len(samplePoints), r.Frames())
}

func TestCorruptBody(t *testing.T) {
	cfg := config.DefaultConfig().Stream
	data := writePoints(t, cfg, samplePoints)
	data[HeaderSize] ^= 0x01

	log, hook := test.NewNullLogger()
	r, err := NewReader(bytes.NewReader(data), cfg, fressian.InputOptions{}, WithLogger(log))
	require.NoError(t, err)
	err = r.ReadMessage(nil)
	require.ErrorIs(t, err, fressian.ErrFooterChecksum)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, r.ID().String(), hook.LastEntry().Data["stream"])

	// without checksums the same corruption goes unnoticed
	noSum := cfg
	noSum.Checksum = false
	data = writePoints(t, noSum, samplePoints[:1])
	data[HeaderSize] ^= 0x01
	got, err := readPoints(t, noSum, data)
	require.NoError(t, err)
	require.NotEqual(t, samplePoints[:1], got)
}

func TestChecksumMismatchBetweenPeers(t *testing.T) {
	cfg := config.DefaultConfig().Stream
	data := writePoints(t, cfg, samplePoints[:1])
	noSum := cfg
	noSum.Checksum = false
	_, err := readPoints(t, noSum, data)
	require.ErrorIs(t, err, ErrTrailingBytes)
}

func TestTruncated(t *testing.T) {
	cfg := config.DefaultConfig().Stream
	data := writePoints(t, cfg, samplePoints)
	for _, cut := range []int{1, 3, HeaderSize + 2} {
		got, err := readPoints(t, cfg, data[:len(data)-cut])
		require.ErrorIs(t, err, ErrTruncatedFrame, "cut %d", cut)
		require.Len(t, got, len(samplePoints)-1)
	}
}

func TestRejectedHeaders(t *testing.T) {
	cfg := config.DefaultConfig().Stream
	data := writePoints(t, cfg, samplePoints[:1])

	bad := append([]byte(nil), data...)
	bad[0] = 'X'
	_, err := readPoints(t, cfg, bad)
	require.ErrorIs(t, err, ErrBadMagic)

	bad = append([]byte(nil), data...)
	bad[2] = 0x80
	_, err = readPoints(t, cfg, bad)
	require.ErrorIs(t, err, ErrUnknownFlags)

	small := cfg
	small.MaxFrameSize = 8
	_, err = readPoints(t, small, data)
	require.ErrorIs(t, err, ErrFrameTooLarge)

	var buf bytes.Buffer
	w, err := NewWriter(&buf, small, fressian.OutputOptions{})
	require.NoError(t, err)
	err = w.WriteMessage(func(out *fressian.OutputStream) error {
		_, err := out.Write(make([]byte, 16))
		return err
	})
	require.ErrorIs(t, err, ErrFrameTooLarge)
	require.Zero(t, buf.Len())
}

func TestEncodeErrorResetsStream(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, config.DefaultConfig().Stream, fressian.OutputOptions{})
	require.NoError(t, err)
	boom := errors.New("boom")
	err = w.WriteMessage(func(out *fressian.OutputStream) error {
		out.WriteInt32(7)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, buf.Len())

	require.NoError(t, w.WriteMessage(func(out *fressian.OutputStream) error {
		out.WriteInt32(8)
		return nil
	}))
	r, err := NewReader(&buf, config.DefaultConfig().Stream, fressian.InputOptions{})
	require.NoError(t, err)
	require.NoError(t, r.ReadMessage(func(in *fressian.InputStream) error {
		v, err := in.ReadInt32()
		assert.Equal(t, int32(8), v)
		return err
	}))
}

func TestInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig().Stream
	cfg.Compression = "brotli"
	_, err := NewWriter(io.Discard, cfg, fressian.OutputOptions{})
	require.Error(t, err)
	_, err = NewReader(bytes.NewReader(nil), cfg, fressian.InputOptions{})
	require.Error(t, err)
}

func BenchmarkWriteMessage(b *testing.B) {
	cfg := config.DefaultConfig().Stream
	oo, _ := pointHandlers(b)
	w, err := NewWriter(io.Discard, cfg, oo)
	require.NoError(b, err)
	p := samplePoints[3]
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = w.WriteMessage(func(out *fressian.OutputStream) error {
			wh, _ := out.Handler("point")
			return wh.WriteStruct(out, "point", p)
		})
	}
}
