package multisearch

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"iter"
	"math"
	"reflect"

	"github.com/ridge/multisearch/indices"
	"github.com/ridge/must/v2"
	"golang.org/x/exp/slices"
)

// bucket is the list of positions of elements sharing one key under one index,
// in ascending (insertion) order
type bucket []int

type slot[E any] struct {
	element E
	live    bool
}

// Collection is an in-memory collection of elements of type E with a secondary
// index per index definition.
//
// Elements are kept in insertion order. Each element has a stable position
// that doesn't change until Clear.
//
// Collection is not safe for concurrent use. For concurrent readers use
// memstore.Store.
type Collection[E any] struct {
	defs     []indices.Definition[E]
	byDef    map[indices.Definition[E]]map[any]bucket
	elements []slot[E]
	live     int
}

// New creates an empty collection indexed by the given definitions. The set
// of definitions is fixed for the lifetime of the collection.
//
// Returns an error wrapping ErrInvalidConfiguration if defs is empty, or
// contains nil, duplicate definitions or duplicate names.
func New[E any](defs ...indices.Definition[E]) (*Collection[E], error) {
	if err := ValidateDefinitions(defs); err != nil {
		return nil, err
	}
	c := &Collection[E]{
		defs:  slices.Clone(defs),
		byDef: make(map[indices.Definition[E]]map[any]bucket, len(defs)),
	}
	for _, def := range defs {
		c.byDef[def] = map[any]bucket{}
	}
	return c, nil
}

// MustNew is the same as New, but panics on error. Use it for package-level
// collections with hardcoded definitions.
func MustNew[E any](defs ...indices.Definition[E]) *Collection[E] {
	return must.OK1(New(defs...))
}

// Add appends an element and indexes it under every index definition.
//
// Panics (wrapping ErrNullArgument) if the element is nil. Panics if an index
// produces a key that is not comparable.
func (c *Collection[E]) Add(element E) {
	CheckElement(element)
	keys := make([]any, len(c.defs))
	for i, def := range c.defs {
		key := def.FromObject(element)
		if key != nil && !reflect.ValueOf(key).Comparable() {
			panic(fmt.Errorf("index %s: key of type %T is not comparable", def.Name(), key))
		}
		keys[i] = key
	}
	pos := len(c.elements)
	for i, def := range c.defs {
		idx := c.byDef[def]
		idx[keys[i]] = append(idx[keys[i]], pos)
	}
	c.elements = append(c.elements, slot[E]{element: element, live: true})
	c.live++
}

// Contains returns true if an element equal to the given one is present.
// Elements are compared with reflect.DeepEqual, so this is a linear scan.
func (c *Collection[E]) Contains(element E) bool {
	for _, s := range c.elements {
		if s.live && reflect.DeepEqual(s.element, element) {
			return true
		}
	}
	return false
}

func (c *Collection[E]) lookup(def indices.Definition[E], value any) bucket {
	CheckDefinition(def)
	if !reflect.TypeOf(def).Comparable() {
		return nil
	}
	idx := c.byDef[def]
	if idx == nil {
		return nil
	}
	key, ok := def.FromArgs(value)
	if !ok || key != nil && !reflect.ValueOf(key).Comparable() {
		return nil
	}
	return idx[key]
}

// Has returns true if at least one element has the given key under the index.
//
// A nil value looks up elements with absent keys. An index definition unknown
// to the collection finds nothing. Panics (wrapping ErrNullArgument) if def is
// nil.
func (c *Collection[E]) Has(def indices.Definition[E], value any) bool {
	b := c.lookup(def, value)
	return len(b) > 0
}

// Count returns the number of elements having the given key under the index.
// Same lookup rules as Has.
func (c *Collection[E]) Count(def indices.Definition[E], value any) int {
	b := c.lookup(def, value)
	return len(b)
}

// Search returns all elements having the given key under the index, in the
// order they were added. Same lookup rules as Has.
//
// The result is never nil. It is a fresh slice owned by the caller.
func (c *Collection[E]) Search(def indices.Definition[E], value any) []E {
	b := c.lookup(def, value)
	res := make([]E, 0, len(b))
	for _, pos := range b {
		res = append(res, c.elements[pos].element)
	}
	return res
}

// Remove removes all elements having the given key under the index, and
// returns the number of removed elements. Same lookup rules as Has.
//
// The removed elements are detached from every index. Positions of the
// remaining elements don't change: the storage of removed elements is only
// reclaimed by Clear.
func (c *Collection[E]) Remove(def indices.Definition[E], value any) int {
	b := c.lookup(def, value)
	if len(b) == 0 {
		return 0
	}
	removed := slices.Clone(b)
	for _, pos := range removed {
		s := &c.elements[pos]
		for _, d := range c.defs {
			c.detach(d, d.FromObject(s.element), pos)
		}
		s.live = false
		var zero E
		s.element = zero
	}
	c.live -= len(removed)
	return len(removed)
}

func (c *Collection[E]) detach(def indices.Definition[E], key any, pos int) {
	idx := c.byDef[def]
	b, ok := idx[key]
	if !ok && isNaN(key) { // NaN keys are never found, neither are their buckets
		return
	}
	i, found := slices.BinarySearch(b, pos)
	if !found {
		panic("index is out of sync with elements")
	}
	b = slices.Delete(b, i, i+1)
	if len(b) == 0 {
		delete(idx, key)
		return
	}
	idx[key] = b
}

func isNaN(key any) bool {
	v := reflect.ValueOf(key)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(v.Float())
	default:
		return false
	}
}

// Len returns the number of elements
func (c *Collection[E]) Len() int {
	return c.live
}

// IsEmpty returns true if there are no elements
func (c *Collection[E]) IsEmpty() bool {
	return c.live == 0
}

// Clear removes all elements. The index definitions are retained.
func (c *Collection[E]) Clear() {
	c.elements = nil
	c.live = 0
	for _, def := range c.defs {
		c.byDef[def] = map[any]bucket{}
	}
}

// All returns a sequence of all elements in the order they were added. The
// sequence can be iterated many times. Do not modify the collection while
// iterating.
func (c *Collection[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		for _, s := range c.elements {
			if s.live && !yield(s.element) {
				return
			}
		}
	}
}

// List returns all elements in the order they were added. The result is a
// copy, so changing it does not change the collection.
func (c *Collection[E]) List() []E {
	res := make([]E, 0, c.live)
	for element := range c.All() {
		res = append(res, element)
	}
	return res
}

// Definitions returns the index definitions of the collection, in the order
// passed to New
func (c *Collection[E]) Definitions() []indices.Definition[E] {
	return slices.Clone(c.defs)
}

// Equal returns true if both collections have the same index definitions (the
// same values, in the same order) and equal elements (per reflect.DeepEqual)
// in the same order.
func (c *Collection[E]) Equal(other *Collection[E]) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	if len(c.defs) != len(other.defs) || c.live != other.live {
		return false
	}
	for i := range c.defs {
		if c.defs[i] != other.defs[i] {
			return false
		}
	}
	next, stop := iter.Pull(other.All())
	defer stop()
	for element := range c.All() {
		otherElement, ok := next()
		if !ok || !reflect.DeepEqual(element, otherElement) {
			return false
		}
	}
	return true
}

// Hash returns a hash code consistent with Equal: equal collections have
// equal hashes. It is derived from the index names and the number of
// elements; elements themselves are not hashed since E needn't be hashable.
func (c *Collection[E]) Hash() uint64 {
	h := fnv.New64a()
	for _, def := range c.defs {
		must.OK1(h.Write([]byte(def.Name())))
		must.OK1(h.Write([]byte{0}))
	}
	must.OK(binary.Write(h, binary.BigEndian, uint64(c.live)))
	return h.Sum64()
}
