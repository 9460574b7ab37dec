package fressian

import (
	"math"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mixedStruct struct {
	Val      string
	Mod      int8
	Data     []byte
	Integers int16
	Float3   float32
	Float6   float64
}

type intStruct struct {
	Int1  uint8
	Int2  int8
	Int3  uint16
	Int4  int16
	Int5  uint32
	Int6  int32
	Int7  uint64
	Int9  int64
	Const bool
}

type partlyExported struct {
	Name  string
	count int
	Score float64
}

func newStructCodec(t testing.TB) (*StructHandler, OutputOptions, InputOptions) {
	h := NewStructHandler()
	require.NoError(t, h.Register("mixed", mixedStruct{}))
	require.NoError(t, h.Register("ints", &intStruct{}))
	require.NoError(t, h.Register("partial", partlyExported{}))
	return h, OutputOptions{Handlers: h.WriteHandlers()}, InputOptions{Handlers: h.ReadHandlers()}
}

func roundTripStruct(t testing.TB, tag string, val any) any {
	h, oo, io := newStructCodec(t)
	out := NewOutputStream(oo)
	wh, ok := out.Handler(tag)
	require.True(t, ok)
	require.NoError(t, wh.WriteStruct(out, tag, val))
	out.WriteFooter()

	n, err := h.FieldCount(tag)
	require.NoError(t, err)
	in := NewInputStream(out.Snapshot(), io)
	res, err := in.HandleStruct(tag, n)
	require.NoError(t, err)
	require.NoError(t, in.ReadFooter())
	return res
}

func FuzzStructRoundTrip(f *testing.F) {
	f.Add("a", int8(1), []byte("b"), int16(2), float32(3), float64(4))
	f.Fuzz(func(t *testing.T, val string, mod int8, data []byte, integers int16, f3 float32, f6 float64) {
		if math.IsNaN(float64(f3)) || math.IsNaN(f6) {
			t.Skip("NaN never compares equal")
		}
		if data == nil {
			data = []byte{}
		}
		val0 := mixedStruct{Val: val, Mod: mod, Data: data, Integers: integers, Float3: f3, Float6: f6}
		res := roundTripStruct(t, "mixed", val0)
		require.Equal(t, &val0, res)
	})
}

func TestStructSimpleTypes(t *testing.T) {
	z := mixedStruct{Val: "azerty", Data: []byte("testing"), Mod: 17, Integers: 12, Float3: 12.3, Float6: 1236.2}
	res := roundTripStruct(t, "mixed", &z)
	require.Equal(t, &z, res)
}

func TestStructConstant(t *testing.T) {
	condition := func(z intStruct) bool {
		res := roundTripStruct(t, "ints", z)
		return assert.ObjectsAreEqual(&z, res)
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))
}

func TestStructFieldCount(t *testing.T) {
	h, _, io := newStructCodec(t)
	n, err := h.FieldCount("ints")
	require.NoError(t, err)
	require.Equal(t, 9, n)
	n, err = h.FieldCount("partial")
	require.NoError(t, err)
	require.Equal(t, 2, n) // unexported field skipped

	res := roundTripStruct(t, "partial", partlyExported{Name: "p", count: 7, Score: 1.5})
	require.Equal(t, &partlyExported{Name: "p", Score: 1.5}, res)

	in := NewInputStream(make([]byte, 64), io)
	_, err = in.HandleStruct("ints", 3)
	require.Error(t, err)
}

type myint int32

type embedsUnexported struct {
	myint
	Name string
}

func TestStructSkipsEmbeddedUnexported(t *testing.T) {
	h := NewStructHandler()
	require.NoError(t, h.Register("embed", embedsUnexported{}))
	n, err := h.FieldCount("embed")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	out := NewOutputStream(OutputOptions{Handlers: h.WriteHandlers()})
	require.NoError(t, h.WriteStruct(out, "embed", embedsUnexported{myint: 5, Name: "n"}))
	in := NewInputStream(out.Snapshot(), InputOptions{Handlers: h.ReadHandlers()})
	v, err := in.HandleStruct("embed", 1)
	require.NoError(t, err)
	require.Equal(t, &embedsUnexported{Name: "n"}, v)
	require.Equal(t, 0, in.Available())
}

func TestStructErrors(t *testing.T) {
	h := NewStructHandler()
	require.ErrorIs(t, h.Register("str", "abc"), ErrNotStruct)
	type withMap struct{ M map[string]int }
	require.ErrorIs(t, h.Register("map", withMap{}), ErrUnsupported)

	require.NoError(t, h.Register("mixed", mixedStruct{}))
	out := NewOutputStream(OutputOptions{})
	require.ErrorIs(t, h.WriteStruct(out, "mixed", 5), ErrNotStruct)
	require.Error(t, h.WriteStruct(out, "mixed", intStruct{}))
	require.Error(t, h.WriteStruct(out, "nope", mixedStruct{}))
}

func TestStructTruncated(t *testing.T) {
	_, oo, io := newStructCodec(t)
	out := NewOutputStream(oo)
	wh, _ := out.Handler("mixed")
	require.NoError(t, wh.WriteStruct(out, "mixed", mixedStruct{Val: "hello"}))
	buf := out.Snapshot()

	in := NewInputStream(buf[:len(buf)-3], io)
	_, err := in.HandleStruct("mixed", 6)
	require.ErrorIs(t, err, ErrUnderrun)
}

func BenchmarkStructEncoding(b *testing.B) {
	_, oo, _ := newStructCodec(b)
	out := NewOutputStream(oo)
	wh, _ := out.Handler("ints")
	z := intStruct{Int1: 1, Int2: 2, Int3: 16, Int4: 18, Int5: 1586, Int6: 15262, Int7: 1547544565, Int9: 15484565656}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = out.Seek(0)
		_ = wh.WriteStruct(out, "ints", z)
	}
}

func BenchmarkStructDecoding(b *testing.B) {
	_, oo, io := newStructCodec(b)
	out := NewOutputStream(oo)
	wh, _ := out.Handler("mixed")
	z := mixedStruct{Val: "azerty", Data: []byte("hello world"), Mod: 12, Integers: 100, Float3: 12.13, Float6: 100.5}
	_ = wh.WriteStruct(out, "mixed", z)
	buf := out.Snapshot()
	b.ReportAllocs()
	var res any
	for i := 0; i < b.N; i++ {
		in := NewInputStream(buf, io)
		res, _ = in.HandleStruct("mixed", 6)
	}
	require.Equal(b, &z, res)
}
