package memstore

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	table         = "elements"
	positionIndex = "id" // this is the constant primary index name expected by memdb
)

// record is the object stored in memdb: an element along with its position and
// pre-encoded keys, one per index definition
type record[E any] struct {
	position uint64
	element  E
	keys     [][]byte
}

func indexName(slot int) string {
	return fmt.Sprintf("index%d", slot)
}

func encodePosition(position uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, position)
	return b
}

// positionIndexer indexes records by position. Positions are encoded in big
// endian, so iteration follows insertion order.
type positionIndexer[E any] struct{}

func (positionIndexer[E]) FromArgs(args ...any) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.New("must provide only a single argument")
	}
	position, ok := args[0].(uint64)
	if !ok {
		return nil, fmt.Errorf("argument must be a uint64: %#v", args[0])
	}
	return encodePosition(position), nil
}

func (positionIndexer[E]) FromObject(obj any) (bool, []byte, error) {
	return true, encodePosition(obj.(*record[E]).position), nil
}

// keyIndexer indexes records by one of their pre-encoded keys. memdb appends
// the primary key to the values of non-unique indices, so records sharing a
// key are ordered by position.
type keyIndexer[E any] struct {
	slot int
}

func (ki keyIndexer[E]) FromArgs(args ...any) ([]byte, error) {
	if len(args) != 1 {
		return nil, errors.New("must provide only a single argument")
	}
	key, ok := args[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("argument must be an encoded key: %#v", args[0])
	}
	return key, nil
}

func (ki keyIndexer[E]) FromObject(obj any) (bool, []byte, error) {
	key := obj.(*record[E]).keys[ki.slot]
	// memdb appends to the returned slice, it must not share the record's
	// backing array
	return true, key[:len(key):len(key)], nil
}
