package memstore

import (
	"fmt"
	"math"
	"reflect"

	"github.com/hashicorp/go-memdb"
	"github.com/ridge/multisearch"
	"github.com/ridge/multisearch/indices"
	"github.com/ridge/must/v2"
	"golang.org/x/exp/slices"
)

// Store is a multi-indexed store of elements of type E that supports
// concurrent readers.
//
// Writes are serialized. Reads are done through snapshots, which capture the
// state of the store at the moment they are taken and are not affected by
// later writes.
type Store[E any] struct {
	defs  []indices.Definition[E]
	slots map[indices.Definition[E]]int
	db    *memdb.MemDB
	types keyTypes

	next uint64 // next position; guarded by the memdb writer lock
}

func generateMemDBSchema[E any](defs []indices.Definition[E]) *memdb.DBSchema {
	indexes := map[string]*memdb.IndexSchema{
		positionIndex: {
			Name:    positionIndex,
			Unique:  true,
			Indexer: positionIndexer[E]{},
		},
	}
	for slot := range defs {
		name := indexName(slot)
		indexes[name] = &memdb.IndexSchema{
			Name:    name,
			Indexer: keyIndexer[E]{slot: slot},
		}
	}
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			table: {Name: table, Indexes: indexes},
		},
	}
}

// New creates an empty store indexed by the given definitions.
//
// Returns an error wrapping multisearch.ErrInvalidConfiguration under the same
// conditions as multisearch.New.
func New[E any](defs ...indices.Definition[E]) (*Store[E], error) {
	if err := multisearch.ValidateDefinitions(defs); err != nil {
		return nil, err
	}
	s := &Store[E]{
		defs:  slices.Clone(defs),
		slots: make(map[indices.Definition[E]]int, len(defs)),
		db:    must.OK1(memdb.NewMemDB(generateMemDBSchema(defs))),
	}
	for slot, def := range defs {
		s.slots[def] = slot
	}
	return s, nil
}

// Definitions returns the index definitions of the store, in the order passed
// to New
func (s *Store[E]) Definitions() []indices.Definition[E] {
	return slices.Clone(s.defs)
}

func (s *Store[E]) records(first uint64, elements []E) ([]*record[E], error) {
	recs := make([]*record[E], 0, len(elements))
	for i, element := range elements {
		multisearch.CheckElement(element)
		rec := &record[E]{
			position: first + uint64(i),
			element:  element,
			keys:     make([][]byte, 0, len(s.defs)),
		}
		for _, def := range s.defs {
			key, _, err := s.types.encode(def.FromObject(element), true)
			if err != nil {
				return nil, fmt.Errorf("index %s: %w", def.Name(), err)
			}
			rec.keys = append(rec.keys, key)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *Store[E]) write(reset bool, elements []E) error {
	txn := s.db.Txn(true)
	defer txn.Abort()

	first := s.next
	if reset {
		first = 0
	}
	recs, err := s.records(first, elements)
	if err != nil {
		return err
	}
	if reset {
		must.OK1(txn.DeleteAll(table, positionIndex))
	}
	for _, rec := range recs {
		must.OK(txn.Insert(table, rec))
	}
	s.next = first + uint64(len(recs))
	txn.Commit()
	return nil
}

// Add appends elements to the store. Either all of them are added or, if an
// error is returned, none.
//
// Returns an error wrapping indices.ErrUnsupportedKey if some key cannot be
// encoded. Panics (wrapping multisearch.ErrNullArgument) if an element is nil.
func (s *Store[E]) Add(elements ...E) error {
	return s.write(false, elements)
}

// Replace atomically replaces the whole content of the store. Snapshots taken
// before Replace keep seeing the old content; snapshots taken after see the
// new one, never a mix. On error, the store is not changed.
func (s *Store[E]) Replace(elements ...E) error {
	return s.write(true, elements)
}

// Clear removes all elements. The index definitions are retained.
func (s *Store[E]) Clear() {
	must.OK(s.write(true, nil))
}

// Remove removes all elements having the given key under the index, and
// returns the number of removed elements. Lookup rules are the same as for
// multisearch.Collection.Remove.
func (s *Store[E]) Remove(def indices.Definition[E], value any) int {
	multisearch.CheckDefinition(def)
	name, key, ok := s.lookup(def, value)
	if !ok {
		return 0
	}
	txn := s.db.Txn(true)
	defer txn.Abort()
	n := must.OK1(txn.DeleteAll(table, name, key))
	txn.Commit()
	return n
}

// lookup returns the memdb index name and encoded key for a lookup, or false
// if nothing can be found
func (s *Store[E]) lookup(def indices.Definition[E], value any) (string, []byte, bool) {
	if !reflect.TypeOf(def).Comparable() {
		return "", nil, false
	}
	slot, ok := s.slots[def]
	if !ok {
		return "", nil, false
	}
	k, ok := def.FromArgs(value)
	if !ok {
		return "", nil, false
	}
	if k != nil && !equalsItself(k) {
		return "", nil, false
	}
	key, ok, err := s.types.encode(k, false)
	if err != nil || !ok { // no element can have such key
		return "", nil, false
	}
	return indexName(slot), key, true
}

// equalsItself is false for keys a map lookup would never find: NaNs and
// non-comparable values
func equalsItself(k any) bool {
	v := reflect.ValueOf(k)
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return !math.IsNaN(v.Float())
	default:
		return v.Comparable()
	}
}

// Snapshot returns a read-only view of the store at the current moment. It is
// cheap and does not block writers.
func (s *Store[E]) Snapshot() *Snapshot[E] {
	return &Snapshot[E]{store: s, txn: s.db.Txn(false)}
}
