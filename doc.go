// Package multisearch is an in-memory collection of elements searchable by
// several properties at once.
//
// A linear scan over a slice finds elements with a given property value in
// O(n). A Collection maintains a secondary index per property instead: a map
// from the property value (the key) to the positions of all elements having
// it. A lookup then costs O(1) plus the size of the result.
//
// # Index definitions
//
// The properties are described by index definitions from package indices.
// The set of definitions is given to New and never changes:
//
//	var (
//	    IndexFirstName = indices.Field[Person]("FirstName")
//	    IndexLastName  = indices.Field[Person]("LastName")
//	    IndexAge       = indices.Func("age", func(p Person) int { return p.Age })
//	)
//
//	c := multisearch.MustNew(IndexFirstName, IndexLastName, IndexAge)
//	c.Add(Person{FirstName: "Caleb", LastName: "Dominguez", Age: 1})
//	c.Add(Person{FirstName: "James", LastName: "Ryan", Age: 2})
//	c.Add(Person{FirstName: "Caleb", LastName: "Hawkins", Age: 4})
//
//	calebs := c.Search(IndexFirstName, "Caleb") // Dominguez, Hawkins
//
// Search always returns elements in the order they were added.
//
// # Absent keys
//
// Elements for which an index reports no key (for example, a nil pointer
// field) are indexed under the absent key. Passing nil to Search, Has, Count
// or Remove looks them up.
//
// # Errors
//
// New returns an error wrapping ErrInvalidConfiguration if the definitions are
// unusable. Passing a nil element or a nil index definition is a programming
// error: the method panics with an error wrapping ErrNullArgument. Looking up
// an index definition that the collection wasn't created with is not an
// error: nothing is found.
//
// # Removal
//
// Remove detaches all elements with the given key from every index. The other
// elements keep their positions; the space is reclaimed by Clear only.
//
// # Concurrency
//
// A Collection must not be used concurrently. Package memstore provides a
// store with the same lookup semantics that supports concurrent readers
// through immutable snapshots.
package multisearch
