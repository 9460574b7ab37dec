package fressian

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rawbytedev/fressian/internal/common"
)

// StructHandler reads and writes registered Go structs field by field using
// the stream primitives. Exported fields are encoded in declaration order:
// fixed-width kinds at their natural width, strings and []byte as a uint32
// length followed by the raw bytes.
type StructHandler struct {
	mu    sync.RWMutex
	plans map[reflect.Type]*fieldPlan
	types map[string]reflect.Type
}

type fieldPlan struct {
	fieldCount int
	// minSize is the encoded size with every string and []byte empty.
	minSize int
	fields  []fieldInfo
}

type fieldInfo struct {
	idx  int
	kind reflect.Kind
}

func NewStructHandler() *StructHandler {
	return &StructHandler{
		plans: make(map[reflect.Type]*fieldPlan),
		types: make(map[string]reflect.Type),
	}
}

// Register binds tag to the struct type of prototype.
func (h *StructHandler) Register(tag string, prototype any) error {
	t := reflect.TypeOf(prototype)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return ErrNotStruct
	}
	if _, err := h.getPlan(t); err != nil {
		return err
	}
	h.mu.Lock()
	h.types[tag] = t
	h.mu.Unlock()
	return nil
}

// ReadHandlers returns a handler table covering every registered tag.
func (h *StructHandler) ReadHandlers() Handlers[ReadHandler] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	table := make(Handlers[ReadHandler], len(h.types))
	for tag := range h.types {
		table[tag] = h
	}
	return table
}

// WriteHandlers returns a handler table covering every registered tag.
func (h *StructHandler) WriteHandlers() Handlers[WriteHandler] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	table := make(Handlers[WriteHandler], len(h.types))
	for tag := range h.types {
		table[tag] = h
	}
	return table
}

// FieldCount returns the number of encoded fields of the struct registered
// under tag.
func (h *StructHandler) FieldCount(tag string) (int, error) {
	t, err := h.typeOf(tag)
	if err != nil {
		return 0, err
	}
	plan, err := h.getPlan(t)
	if err != nil {
		return 0, err
	}
	return plan.fieldCount, nil
}

func (h *StructHandler) typeOf(tag string) (reflect.Type, error) {
	h.mu.RLock()
	t, ok := h.types[tag]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("fressian: no struct registered for tag %q", tag)
	}
	return t, nil
}

func (h *StructHandler) getPlan(t reflect.Type) (*fieldPlan, error) {
	h.mu.RLock()
	if plan, ok := h.plans[t]; ok {
		h.mu.RUnlock()
		return plan, nil
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()

	// Double-check
	if plan, ok := h.plans[t]; ok {
		return plan, nil
	}

	plan := &fieldPlan{}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue // reflection cannot set unexported fields, embedded or not
		}
		kind := sf.Type.Kind()
		if !common.IsFixedKind(kind) && kind != reflect.String && !isByteSlice(sf.Type) {
			return nil, fmt.Errorf("%w: field %s of %s is %s", ErrUnsupported, sf.Name, t, sf.Type)
		}
		if common.IsFixedKind(kind) {
			plan.minSize += common.FixedSize(kind)
		} else {
			plan.minSize += 4
		}
		plan.fields = append(plan.fields, fieldInfo{idx: i, kind: kind})
	}
	plan.fieldCount = len(plan.fields)
	h.plans[t] = plan
	return plan, nil
}

func isByteSlice(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

// WriteStruct implements WriteHandler.
func (h *StructHandler) WriteStruct(out *OutputStream, tag string, val any) error {
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return ErrNotStruct
	}
	t, err := h.typeOf(tag)
	if err != nil {
		return err
	}
	if v.Type() != t {
		return fmt.Errorf("fressian: tag %q is bound to %s, got %s", tag, t, v.Type())
	}
	plan, err := h.getPlan(t)
	if err != nil {
		return err
	}
	for _, field := range plan.fields {
		writeField(out, v.Field(field.idx), field.kind)
	}
	return nil
}

func writeField(out *OutputStream, v reflect.Value, kind reflect.Kind) {
	switch kind {
	case reflect.Bool:
		if v.Bool() {
			_ = out.WriteByte(1)
		} else {
			_ = out.WriteByte(0)
		}
	case reflect.Int8:
		_ = out.WriteByte(byte(v.Int()))
	case reflect.Uint8:
		_ = out.WriteByte(byte(v.Uint()))
	case reflect.Int16:
		out.WriteInt16(int16(v.Int()))
	case reflect.Uint16:
		out.WriteUint16(uint16(v.Uint()))
	case reflect.Int32:
		out.WriteInt32(int32(v.Int()))
	case reflect.Uint32:
		out.WriteUint32(uint32(v.Uint()))
	case reflect.Int64:
		out.WriteInt64(v.Int())
	case reflect.Uint64:
		out.WriteUint64(v.Uint())
	case reflect.Float32:
		out.WriteFloat32(float32(v.Float()))
	case reflect.Float64:
		out.WriteFloat64(v.Float())
	case reflect.String:
		s := v.String()
		out.WriteUint32(uint32(len(s)))
		_, _ = out.Write([]byte(s))
	case reflect.Slice:
		b := v.Bytes()
		out.WriteUint32(uint32(len(b)))
		_, _ = out.Write(b)
	}
}

// ReadStruct implements ReadHandler. It returns a pointer to a new value of
// the registered type.
func (h *StructHandler) ReadStruct(in *InputStream, tag string, fieldCount int) (any, error) {
	t, err := h.typeOf(tag)
	if err != nil {
		return nil, err
	}
	plan, err := h.getPlan(t)
	if err != nil {
		return nil, err
	}
	if fieldCount != plan.fieldCount {
		return nil, fmt.Errorf("fressian: tag %q has %d fields, stream declares %d", tag, plan.fieldCount, fieldCount)
	}
	if err := in.Require(plan.minSize); err != nil {
		return nil, err
	}
	ptr := reflect.New(t)
	dst := ptr.Elem()
	for _, field := range plan.fields {
		if err := readField(in, dst.Field(field.idx), field.kind); err != nil {
			return nil, err
		}
	}
	return ptr.Interface(), nil
}

func readField(in *InputStream, dst reflect.Value, kind reflect.Kind) error {
	switch kind {
	case reflect.Bool:
		b, err := in.ReadByte()
		if err != nil {
			return err
		}
		dst.SetBool(b != 0)
	case reflect.Int8:
		b, err := in.ReadByte()
		if err != nil {
			return err
		}
		dst.SetInt(int64(int8(b)))
	case reflect.Uint8:
		b, err := in.ReadByte()
		if err != nil {
			return err
		}
		dst.SetUint(uint64(b))
	case reflect.Int16:
		n, err := in.ReadInt16()
		if err != nil {
			return err
		}
		dst.SetInt(int64(n))
	case reflect.Uint16:
		n, err := in.ReadUint16()
		if err != nil {
			return err
		}
		dst.SetUint(uint64(n))
	case reflect.Int32:
		n, err := in.ReadInt32()
		if err != nil {
			return err
		}
		dst.SetInt(int64(n))
	case reflect.Uint32:
		n, err := in.ReadUint32()
		if err != nil {
			return err
		}
		dst.SetUint(uint64(n))
	case reflect.Int64:
		n, err := in.ReadInt64()
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Uint64:
		n, err := in.ReadUint64()
		if err != nil {
			return err
		}
		dst.SetUint(n)
	case reflect.Float32:
		f, err := in.ReadFloat32()
		if err != nil {
			return err
		}
		dst.SetFloat(float64(f))
	case reflect.Float64:
		f, err := in.ReadFloat64()
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case reflect.String, reflect.Slice:
		n, err := in.ReadUint32()
		if err != nil {
			return err
		}
		if err := in.Require(int(n)); err != nil {
			return err
		}
		payload := make([]byte, n)
		if err := in.ReadBytes(payload, 0, int(n)); err != nil {
			return err
		}
		if kind == reflect.String {
			dst.SetString(string(payload))
		} else {
			dst.SetBytes(payload)
		}
	}
	return nil
}
