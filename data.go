package envelope

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"
	"unsafe"
)

// Data is a value accepted by Encrypt and Hash: either Text or Binary.
type Data interface {
	data()
}

// Text is textual input. It is encoded as UTF-8 before reaching the engine.
type Text string

// Binary is binary input. It is passed to the engine as-is, without copying.
type Binary []byte

func (Text) data()   {}
func (Binary) data() {}

// ToBytes returns the binary form of d. Binary values are returned unchanged
// (same backing array); Text is encoded into a newly allocated UTF-8 buffer.
// It panics on a Data implementation other than Text or Binary.
func ToBytes(d Data) []byte {
	b, err := toBytes(d)
	if err != nil {
		panic(err)
	}
	return b
}

// toBytes is ToBytes for the operations, which reject unknown variants
// instead of panicking.
func toBytes(d Data) ([]byte, error) {
	switch v := d.(type) {
	case Binary:
		return v, nil
	case Text:
		return []byte(v), nil
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: unknown data type %T", ErrInvalidArgument, d)
}

// ToText returns the textual form of d. Text is returned unchanged; Binary is
// decoded as UTF-8 with each maximal invalid subsequence replaced by U+FFFD.
// It panics on a Data implementation other than Text or Binary.
func ToText(d Data) string {
	switch v := d.(type) {
	case Text:
		return string(v)
	case Binary:
		return decodeUTF8(v)
	case nil:
		return ""
	}
	panic(fmt.Errorf("%w: unknown data type %T", ErrInvalidArgument, d))
}

// decodeUTF8 decodes b, replacing each maximal subpart of an ill-formed
// sequence with one U+FFFD, so "\xff\xfe" yields
// two replacement characters and a truncated "\xe2\x82" yields one.
func decodeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b) + 8)
	for len(b) > 0 {
		r, n := utf8.DecodeRune(b)
		if r != utf8.RuneError || n > 1 {
			sb.WriteRune(r)
			b = b[n:]
			continue
		}
		sb.WriteRune(utf8.RuneError)
		b = b[invalidPrefix(b):]
	}
	return sb.String()
}

// invalidPrefix returns the length of the maximal subpart of an ill-formed
// sequence at the start of b: the lead byte plus the continuation bytes that
// could still have completed it.
func invalidPrefix(b []byte) int {
	lead := b[0]
	var size int
	lo, hi := byte(0x80), byte(0xBF)
	switch {
	case lead >= 0xC2 && lead <= 0xDF:
		size = 2
	case lead == 0xE0:
		size, lo = 3, 0xA0
	case lead == 0xED:
		size, hi = 3, 0x9F
	case lead >= 0xE1 && lead <= 0xEF:
		size = 3
	case lead == 0xF0:
		size, lo = 4, 0x90
	case lead == 0xF4:
		size, hi = 4, 0x8F
	case lead >= 0xF1 && lead <= 0xF3:
		size = 4
	default:
		return 1
	}

	n := 1
	for n < size && n < len(b) {
		c := b[n]
		if c < lo || c > hi {
			break
		}
		lo, hi = 0x80, 0xBF
		n++
	}
	return n
}

// IsBinary reports whether v is a binary view: a byte slice, a slice of
// fixed-width integers or floats, a byte array or a *bytes.Buffer. Named
// slice types such as Salt, Nonce or json.RawMessage count by their element
// kind. Strings, maps, structs, key material and slices of non-numeric
// elements are not binary.
func IsBinary(v any) bool {
	switch v.(type) {
	case Binary, []byte, []int8, []uint16, []int16, []uint32, []int32,
		[]uint64, []int64, []float32, []float64, *bytes.Buffer:
		return true
	}
	rv := reflect.ValueOf(v)
	return isNumericSlice(rv) || isByteArray(rv)
}

// BinaryView returns the bytes underlying a value accepted by IsBinary.
// Slices are reinterpreted in place using host byte order; byte arrays passed
// by value are copied since the array itself is a copy.
func BinaryView(v any) (Binary, bool) {
	switch b := v.(type) {
	case Binary:
		return b, true
	case []byte:
		return b, true
	case []int8:
		return sliceBytes(b), true
	case []uint16:
		return sliceBytes(b), true
	case []int16:
		return sliceBytes(b), true
	case []uint32:
		return sliceBytes(b), true
	case []int32:
		return sliceBytes(b), true
	case []uint64:
		return sliceBytes(b), true
	case []int64:
		return sliceBytes(b), true
	case []float32:
		return sliceBytes(b), true
	case []float64:
		return sliceBytes(b), true
	case *bytes.Buffer:
		if b == nil {
			return nil, false
		}
		return b.Bytes(), true
	}

	rv := reflect.ValueOf(v)
	if isNumericSlice(rv) {
		if rv.Len() == 0 {
			return Binary{}, true
		}
		size := rv.Len() * int(rv.Type().Elem().Size())
		return unsafe.Slice((*byte)(rv.UnsafePointer()), size), true
	}
	if !isByteArray(rv) {
		return nil, false
	}
	if rv.Kind() == reflect.Pointer {
		return rv.Elem().Bytes(), true
	}
	out := make([]byte, rv.Len())
	reflect.Copy(reflect.ValueOf(out), rv)
	return out, true
}

// isNumericSlice matches slices, named or not, whose elements are bytes or
// fixed-width numbers.
func isNumericSlice(rv reflect.Value) bool {
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return false
	}
	switch rv.Type().Elem().Kind() {
	case reflect.Uint8, reflect.Int8, reflect.Uint16, reflect.Int16,
		reflect.Uint32, reflect.Int32, reflect.Uint64, reflect.Int64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// isByteArray matches [N]byte and *[N]byte.
func isByteArray(rv reflect.Value) bool {
	if !rv.IsValid() {
		return false
	}
	t := rv.Type()
	if t.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		t = t.Elem()
	}
	return t.Kind() == reflect.Array && t.Elem().Kind() == reflect.Uint8
}

type numeric interface {
	~int8 | ~uint16 | ~int16 | ~uint32 | ~int32 | ~uint64 | ~int64 | ~float32 | ~float64
}

func sliceBytes[T numeric](s []T) Binary {
	if len(s) == 0 {
		return Binary{}
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*int(unsafe.Sizeof(zero)))
}
