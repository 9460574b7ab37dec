package fressian

import "fmt"

// A minimal value layer used to drive the engine in tests.
const (
	codeInt32  = 0x01 // int32
	codeStruct = 0x02 // tag len u8, tag, field count u8, fields
	codeRef    = 0x03 // priority cache index u8
	codeCache  = 0x04 // value stored in the priority cache
	codeString = 0x05 // len u8, bytes
)

type testValues struct{}

func (testValues) ReadObject(in *InputStream) (any, error) {
	code, err := in.ReadByte()
	if err != nil {
		return nil, err
	}
	switch code {
	case codeInt32:
		return in.ReadInt32()
	case codeString:
		return readShortString(in)
	case codeStruct:
		tag, err := readShortString(in)
		if err != nil {
			return nil, err
		}
		n, err := in.ReadByte()
		if err != nil {
			return nil, err
		}
		return in.HandleStruct(tag, int(n))
	case codeRef:
		i, err := in.ReadByte()
		if err != nil {
			return nil, err
		}
		return in.Lookup(&in.PriorityCache, int(i))
	case codeCache:
		return in.ReadAndCache(&in.PriorityCache)
	}
	return nil, fmt.Errorf("unknown code %#x", code)
}

func readShortString(in *InputStream) (string, error) {
	n, err := in.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if err := in.ReadBytes(b, 0, int(n)); err != nil {
		return "", err
	}
	return string(b), nil
}

func (testValues) WriteObject(out *OutputStream, v any) error {
	switch v := v.(type) {
	case int32:
		_ = out.WriteByte(codeInt32)
		out.WriteInt32(v)
	case string:
		_ = out.WriteByte(codeString)
		writeShortString(out, v)
	case *TaggedObject:
		_ = out.WriteByte(codeStruct)
		writeShortString(out, v.Tag)
		_ = out.WriteByte(byte(len(v.Fields)))
		if h, ok := out.Handler(v.Tag); ok {
			return h.WriteStruct(out, v.Tag, v)
		}
		for _, f := range v.Fields {
			if err := out.WriteObject(f); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("cannot write %T", v)
	}
	return nil
}

func writeShortString(out *OutputStream, s string) {
	_ = out.WriteByte(byte(len(s)))
	_, _ = out.Write([]byte(s))
}

// writeCachedValue emits v through the priority cache: a back reference on
// a hit, a cache-and-read marker followed by the value otherwise.
func writeCachedValue(out *OutputStream, v any) error {
	if i, ok := out.PriorityCache.Lookup(v); ok {
		_ = out.WriteByte(codeRef)
		return out.WriteByte(byte(i))
	}
	_ = out.WriteByte(codeCache)
	_, _, err := out.WriteCached(out.PriorityCache, v)
	return err
}
