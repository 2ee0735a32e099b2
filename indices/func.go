package indices

import (
	"fmt"
)

type funcIndexDef[E any, K comparable] struct {
	name string
	fn   func(E) (K, bool)
}

// Func specifies an index implemented by a key function. The function takes
// the element by value and returns its key. It must be pure: the same element
// must always produce the same key.
//
// Example:
//
//	var IndexLastName = indices.Func("lastName", func(p Person) string { return p.LastName })
//
// Lookups must pass a value of exactly type K (or a pointer to one):
//
//	c.Search(IndexLastName, "Ryan")
//
// A nil pointer or interface returned by the function is an absent key.
func Func[E any, K comparable](name string, fn func(E) K) Definition[E] {
	if fn == nil {
		panic(fmt.Errorf("index %s: nil key function", name))
	}
	return &funcIndexDef[E, K]{
		name: name,
		fn: func(obj E) (K, bool) {
			return fn(obj), true
		},
	}
}

// Optional is the same as Func, but the function also reports whether the
// element has a key at all. Elements for which it returns false are indexed
// under the absent key and can be found by looking up nil.
//
// Example:
//
//	var IndexManager = indices.Optional("manager", func(e Employee) (EmployeeID, bool) {
//	    return e.ManagerID, e.ManagerID != ""
//	})
func Optional[E any, K comparable](name string, fn func(E) (K, bool)) Definition[E] {
	if fn == nil {
		panic(fmt.Errorf("index %s: nil key function", name))
	}
	return &funcIndexDef[E, K]{name: name, fn: fn}
}

func (fid *funcIndexDef[E, K]) Name() string {
	return fid.name
}

func (fid *funcIndexDef[E, K]) FromObject(obj E) any {
	k, ok := fid.fn(obj)
	if !ok || isNil(k) {
		return nil
	}
	return k
}

func (fid *funcIndexDef[E, K]) FromArgs(arg any) (any, bool) {
	if isNil(arg) {
		return nil, true
	}
	if k, ok := arg.(K); ok {
		return k, true
	}
	if p, ok := arg.(*K); ok {
		return *p, true
	}
	return nil, false
}

func (fid *funcIndexDef[E, K]) String() string {
	return fid.name
}
