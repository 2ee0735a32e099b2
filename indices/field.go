package indices

import (
	"fmt"
	"reflect"
	"strings"
)

type fieldIndexDef[E any] struct {
	name       string
	index      []int
	t          reflect.Type // key type, pointer stripped
	indirect   bool         // E is a pointer to the struct
	ptr        bool         // the field is a pointer
	ignoreCase bool
}

type fieldConfig struct {
	ignoreCase bool
}

type fieldIndexOption interface {
	apply(fc *fieldConfig)
}

// IgnoreCase is an option to Field that makes the index case-insensitive (using
// Unicode lowercasing). The field must be a string, a named type based on a string,
// or a pointer to one of those. Values that only differ in case are considered
// equal. Lookup is case-insensitive.
var IgnoreCase ignoreCase

type ignoreCase struct{}

func (ignoreCase) apply(fc *fieldConfig) {
	fc.ignoreCase = true
}

// Field specifies an index on a single exported field of the struct E (or the
// struct E points to). The field must be of a comparable type, or a pointer to
// such type. A nil pointer is an absent key; a non-nil pointer is indexed by
// the value it points to.
//
// The only possible option is IgnoreCase.
//
// Field panics if the field does not exist or cannot be indexed.
func Field[E any](name string, options ...fieldIndexOption) Definition[E] {
	var fc fieldConfig
	for _, opt := range options {
		opt.apply(&fc)
	}

	st := reflect.TypeOf((*E)(nil)).Elem()
	fid := &fieldIndexDef[E]{name: name, ignoreCase: fc.ignoreCase}
	if st.Kind() == reflect.Ptr {
		st = st.Elem()
		fid.indirect = true
	}
	if st.Kind() != reflect.Struct {
		panic(fmt.Errorf("index %s: %s is not a struct", name, st))
	}
	field, ok := st.FieldByName(name)
	if !ok {
		panic(fmt.Errorf("field %s.%s not found", st, name))
	}
	if !field.IsExported() {
		panic(fmt.Errorf("field %s.%s is not exported", st, name))
	}
	fid.index = field.Index
	fid.t = field.Type
	if fid.t.Kind() == reflect.Ptr {
		fid.t = fid.t.Elem()
		fid.ptr = true
	}
	if !fid.t.Comparable() {
		panic(fmt.Errorf("field %s.%s has unsupported type %s", st, name, field.Type))
	}
	if fid.ignoreCase && fid.t.Kind() != reflect.String {
		panic(fmt.Errorf("field %s.%s must be string-based for case-insensitive indexing", st, name))
	}
	return fid
}

func (fid *fieldIndexDef[E]) Name() string {
	return fid.name
}

func (fid *fieldIndexDef[E]) FromObject(obj E) any {
	v := reflect.ValueOf(&obj).Elem()
	if fid.indirect {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	f, err := v.FieldByIndexErr(fid.index)
	if err != nil { // nil embedded pointer on the way to the field
		return nil
	}
	if fid.ptr {
		if f.IsNil() {
			return nil
		}
		f = f.Elem()
	}
	return fid.key(f)
}

func (fid *fieldIndexDef[E]) FromArgs(arg any) (any, bool) {
	if isNil(arg) {
		return nil, true
	}
	v := reflect.ValueOf(arg)
	if v.Kind() == reflect.Ptr && v.Type().Elem() == fid.t {
		v = v.Elem()
	}
	switch {
	case v.Type() == fid.t:
	case fid.t.Kind() == reflect.Interface && v.Type().Implements(fid.t):
		return v.Interface(), true
	default:
		return nil, false
	}
	return fid.key(v), true
}

func (fid *fieldIndexDef[E]) key(v reflect.Value) any {
	if fid.ignoreCase {
		return reflect.ValueOf(strings.ToLower(v.String())).Convert(fid.t).Interface()
	}
	return v.Interface()
}

func (fid *fieldIndexDef[E]) String() string {
	return fid.name
}
