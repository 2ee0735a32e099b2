package multisearch

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/ridge/multisearch/indices"
)

var (
	// ErrInvalidConfiguration is returned when a collection is created with an
	// unusable set of index definitions
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrNullArgument is the panic value (possibly wrapped) of operations
	// called with a nil element or index definition
	ErrNullArgument = errors.New("null argument")
)

// ValidateDefinitions checks a set of index definitions for use by a single
// collection: there must be at least one, none of them nil, all of them
// distinct, with distinct names.
func ValidateDefinitions[E any](defs []indices.Definition[E]) error {
	if len(defs) == 0 {
		return fmt.Errorf("%w: at least one index definition is required", ErrInvalidConfiguration)
	}
	names := map[string]bool{}
	seen := map[indices.Definition[E]]bool{}
	for i, def := range defs {
		if isNil(def) {
			return fmt.Errorf("%w: index definition #%d is nil", ErrInvalidConfiguration, i)
		}
		if !reflect.TypeOf(def).Comparable() {
			return fmt.Errorf("%w: index definition %s of type %T is not comparable", ErrInvalidConfiguration, def.Name(), def)
		}
		if seen[def] {
			return fmt.Errorf("%w: duplicate index definition %s", ErrInvalidConfiguration, def.Name())
		}
		if names[def.Name()] {
			return fmt.Errorf("%w: duplicate index name %s", ErrInvalidConfiguration, def.Name())
		}
		seen[def] = true
		names[def.Name()] = true
	}
	return nil
}

// CheckElement panics with ErrNullArgument if the element is nil
func CheckElement[E any](element E) {
	if isNil(element) {
		panic(fmt.Errorf("%w: nil element of type %T", ErrNullArgument, element))
	}
}

// CheckDefinition panics with ErrNullArgument if the index definition is nil
func CheckDefinition[E any](def indices.Definition[E]) {
	if isNil(def) {
		panic(fmt.Errorf("%w: nil index definition", ErrNullArgument))
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
