package indices

import (
	"reflect"
)

// Definition is a named key extractor for elements of type E. Definitions are
// created once, before the collections that use them, and never change.
//
// A definition is identified by its value: every constructor in this package
// returns a pointer, so sharing a definition among several collections
// preserves its identity.
type Definition[E any] interface {
	// Name returns a stable name, unique among the definitions of a collection
	Name() string
	// FromObject extracts the key of an element. A nil result means the key
	// is absent; elements with absent keys are indexed in a bucket of their
	// own.
	FromObject(obj E) any
	// FromArgs normalizes a lookup value to the form returned by FromObject.
	// Returns false if no element could have the value as its key.
	FromArgs(arg any) (any, bool)
}

// isNil reports whether v is nil or a nil pointer or interface
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
