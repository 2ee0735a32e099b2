// Package memstore provides Store, a multi-indexed store with the lookup
// semantics of multisearch.Collection that can be read concurrently.
//
// The store is kept in a memdb database: a set of immutable radix trees, one
// per index. A write produces new trees and swaps them in when committed, so a
// reader holding a Snapshot never sees a partial write and never blocks a
// writer.
//
//	store := must.OK1(memstore.New(IndexFirstName, IndexLastName))
//	must.OK(store.Add(persons...))
//
//	snapshot := store.Snapshot()
//	calebs := snapshot.Search(IndexFirstName, "Caleb")
//
// Keys are stored in encoded form (see indices.Encode), so every key produced
// by the index definitions must be encodable. Add reports an error otherwise.
package memstore
