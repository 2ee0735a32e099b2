package memstore

import (
	"encoding/binary"
	"reflect"
	"sync"

	"github.com/ridge/multisearch/indices"
)

// keyTypes numbers the key types seen by a store.
//
// indices.Encode does not encode the type of a key, so an index whose keys
// are of several types (e.g. a field of interface type) could mix up int(1)
// and int64(1). Encoded keys are therefore prefixed by their type number.
type keyTypes struct {
	mu  sync.RWMutex
	ids map[reflect.Type]uint32
}

func (kt *keyTypes) id(t reflect.Type, register bool) (uint32, bool) {
	kt.mu.RLock()
	id, ok := kt.ids[t]
	kt.mu.RUnlock()
	if ok || !register {
		return id, ok
	}

	kt.mu.Lock()
	defer kt.mu.Unlock()
	if id, ok := kt.ids[t]; ok {
		return id, true
	}
	if kt.ids == nil {
		kt.ids = map[reflect.Type]uint32{}
	}
	id = uint32(len(kt.ids))
	kt.ids[t] = id
	return id, true
}

// encode encodes a key as 0x00 if absent, or as 0x01, the 4-byte type number
// and indices.Encode of the value otherwise.
//
// Unless register is set, keys of types never stored before are reported as
// not found (false).
func (kt *keyTypes) encode(key any, register bool) ([]byte, bool, error) {
	encoded, err := indices.Encode(key)
	if err != nil {
		return nil, false, err
	}
	if key == nil {
		return encoded, true, nil
	}
	id, ok := kt.id(reflect.TypeOf(key), register)
	if !ok {
		return nil, false, nil
	}
	res := make([]byte, 0, len(encoded)+4)
	res = append(res, encoded[0])
	res = binary.BigEndian.AppendUint32(res, id)
	return append(res, encoded[1:]...), true, nil
}
