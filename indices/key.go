package indices

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"
)

// ErrUnsupportedKey is returned by Encode for keys of types it cannot
// serialize
var ErrUnsupportedKey = errors.New("unsupported key type")

// A keyFn serializes a type to a sortable byte sequence
type keyFn func(reflect.Value) []byte

// IndexKey is an interface that can be implemented to make any type encodable.
//
// The method should be a pure function that serializes the value as a byte
// sequence which later participates in lexicographical ordering. The sequence
// must not be a prefix of the serialization of another value of the same type.
type IndexKey interface {
	IndexKey() []byte
}

var indexKeyInterface = reflect.TypeOf((*IndexKey)(nil)).Elem()

var timeType = reflect.TypeOf(time.Time{})

var unixSecondsOffset = time.Time{}.Unix()

// Encode serializes a key returned by Definition.FromObject or
// Definition.FromArgs to a byte sequence suitable for radix-tree indices.
//
// The absent key (nil) is encoded as a single zero byte. Any other key is
// encoded as byte 1 followed by the serialization of the value, so absent keys
// sort first.
//
// All integer and floating point types, strings, booleans, time.Time, named
// types based on them, and types implementing IndexKey are supported.
//
// The type of the key is not encoded: values of different types may have
// equal encodings. Users storing keys of several types in one index must tell
// the types apart themselves.
func Encode(key any) ([]byte, error) {
	if key == nil {
		return []byte{0x00}, nil
	}
	v := reflect.ValueOf(key)
	keyFn := keyFnForType(v.Type())
	if keyFn == nil {
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKey, key)
	}
	return append([]byte{0x01}, keyFn(v)...), nil
}

func keyFnForType(t reflect.Type) keyFn {
	if t.Implements(indexKeyInterface) {
		return func(v reflect.Value) []byte {
			return v.Interface().(IndexKey).IndexKey()
		}
	}
	if t == timeType {
		return func(v reflect.Value) []byte {
			// Seconds (64 bits) since time.Time{} followed by nanoseconds (32
			// bits), so that time.Time{} is all zeros and the encoding is
			// monotonic. UnixNano() would overflow.
			b := make([]byte, 12)
			t := v.Interface().(time.Time)
			binary.BigEndian.PutUint64(b[:8], uint64(t.Unix()-unixSecondsOffset))
			binary.BigEndian.PutUint32(b[8:], uint32(t.Nanosecond()))
			return b
		}
	}
	switch t.Kind() {
	case reflect.Bool:
		return func(v reflect.Value) []byte {
			if v.Bool() {
				return []byte{1}
			}
			return []byte{0}
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		offset := 8 - t.Size()
		return func(v reflect.Value) []byte {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], v.Uint())
			return b[offset:]
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		offset := 8 - t.Size()
		return func(v reflect.Value) []byte {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], uint64(v.Int()))
			// inverting the sign bit makes the serializations sort naturally
			b[offset] ^= 0x80
			return b[offset:]
		}
	case reflect.Float32, reflect.Float64:
		return func(v reflect.Value) []byte {
			var b [8]byte
			f := v.Float()
			if f == 0 { // -0 == +0
				f = 0
			}
			n := math.Float64bits(f)
			// negative numbers sort in reverse, so invert them completely
			if n&(1<<63) != 0 {
				n = ^n
			} else {
				n |= 1 << 63
			}
			binary.BigEndian.PutUint64(b[:], n)
			return b[:]
		}
	case reflect.String:
		return func(v reflect.Value) []byte {
			// 00 inside the string is escaped as 00 ff and the string is
			// terminated by 00 01, so no encoding is a prefix of another
			s := v.String()
			b := make([]byte, 0, len(s)+2)
			for i := 0; i < len(s); i++ {
				b = append(b, s[i])
				if s[i] == 0x00 {
					b = append(b, 0xff)
				}
			}
			return append(b, 0x00, 0x01)
		}
	default:
		return nil
	}
}
