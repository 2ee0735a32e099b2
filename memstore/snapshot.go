package memstore

import (
	"iter"

	"github.com/hashicorp/go-memdb"
	"github.com/ridge/multisearch"
	"github.com/ridge/multisearch/indices"
	"github.com/ridge/must/v2"
)

// Snapshot is a read-only view of a Store at the point in time it was
// created. Safe for concurrent use.
type Snapshot[E any] struct {
	store *Store[E]
	txn   *memdb.Txn
}

func (s *Snapshot[E]) get(def indices.Definition[E], value any) memdb.ResultIterator {
	multisearch.CheckDefinition(def)
	name, key, ok := s.store.lookup(def, value)
	if !ok {
		return nil
	}
	return must.OK1(s.txn.Get(table, name, key))
}

// Search returns all elements having the given key under the index, in the
// order they were added. Lookup rules are the same as for
// multisearch.Collection.Search. The result is never nil.
func (s *Snapshot[E]) Search(def indices.Definition[E], value any) []E {
	res := []E{}
	it := s.get(def, value)
	if it == nil {
		return res
	}
	for obj := it.Next(); obj != nil; obj = it.Next() {
		res = append(res, obj.(*record[E]).element)
	}
	return res
}

// Has returns true if at least one element has the given key under the index
func (s *Snapshot[E]) Has(def indices.Definition[E], value any) bool {
	it := s.get(def, value)
	return it != nil && it.Next() != nil
}

// Count returns the number of elements having the given key under the index
func (s *Snapshot[E]) Count(def indices.Definition[E], value any) int {
	it := s.get(def, value)
	if it == nil {
		return 0
	}
	n := 0
	for obj := it.Next(); obj != nil; obj = it.Next() {
		n++
	}
	return n
}

// All returns a sequence of all elements in the order they were added. The
// sequence can be iterated many times, always producing the same elements.
func (s *Snapshot[E]) All() iter.Seq[E] {
	return func(yield func(E) bool) {
		it := must.OK1(s.txn.Get(table, positionIndex))
		for obj := it.Next(); obj != nil; obj = it.Next() {
			if !yield(obj.(*record[E]).element) {
				return
			}
		}
	}
}

// Len returns the number of elements. Takes time proportional to it.
func (s *Snapshot[E]) Len() int {
	n := 0
	for range s.All() {
		n++
	}
	return n
}

// IsEmpty returns true if there are no elements
func (s *Snapshot[E]) IsEmpty() bool {
	return must.OK1(s.txn.Get(table, positionIndex)).Next() == nil
}
