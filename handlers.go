package fressian

// ObjectReader decodes one complete value from the stream. It is the value
// layer sitting above the byte engine.
type ObjectReader interface {
	ReadObject(in *InputStream) (any, error)
}

// ObjectWriter encodes one complete value onto the stream.
type ObjectWriter interface {
	WriteObject(out *OutputStream, v any) error
}

// ReadHandler builds the value for a struct tag whose field count is known.
type ReadHandler interface {
	ReadStruct(in *InputStream, tag string, fieldCount int) (any, error)
}

type ReadHandlerFunc func(in *InputStream, tag string, fieldCount int) (any, error)

func (f ReadHandlerFunc) ReadStruct(in *InputStream, tag string, fieldCount int) (any, error) {
	return f(in, tag, fieldCount)
}

// WriteHandler emits the fields of v under tag.
type WriteHandler interface {
	WriteStruct(out *OutputStream, tag string, v any) error
}

type WriteHandlerFunc func(out *OutputStream, tag string, v any) error

func (f WriteHandlerFunc) WriteStruct(out *OutputStream, tag string, v any) error {
	return f(out, tag, v)
}

// Handlers maps tags to handlers.
type Handlers[H any] map[string]H

// HandlerChain resolves a tag against several tables; the first table that
// knows the tag wins.
type HandlerChain[H any] []Handlers[H]

// Chain orders tables so user handlers override extension handlers, which
// override core handlers.
func Chain[H any](user, extension, core Handlers[H]) HandlerChain[H] {
	chain := make(HandlerChain[H], 0, 3)
	for _, h := range []Handlers[H]{user, extension, core} {
		if len(h) > 0 {
			chain = append(chain, h)
		}
	}
	return chain
}

func (c HandlerChain[H]) Lookup(tag string) (H, bool) {
	for _, table := range c {
		if h, ok := table[tag]; ok {
			return h, true
		}
	}
	var zero H
	return zero, false
}

// TaggedObject is what HandleStruct produces for a tag nobody handles.
type TaggedObject struct {
	Tag    string
	Fields []any
}
