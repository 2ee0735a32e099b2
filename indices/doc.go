// Package indices contains index definitions for multisearch collections.
//
// A collection keeps its elements in insertion order and maintains one
// secondary index per index definition, so that elements can be found by the
// value of a property without scanning the whole collection. To create a
// collection, first make some index definitions:
//
//	var (
//	    IndexFirstName = indices.Field[Person]("FirstName")
//	    IndexLastName  = indices.Field[Person]("LastName", indices.IgnoreCase)
//	    IndexAge       = indices.Func("age", func(p Person) int { return p.Age })
//	)
//
// IndexFirstName defines an index on the FirstName field. IndexLastName is
// matched case-insensitively. IndexAge is implemented by a key function; Func
// and Optional do not need reflection and work for any element type.
//
// Index definitions are immutable and can be shared among many collections.
// Each collection builds independent indices from them.
//
// When querying a collection, the Search method expects an index definition to
// choose the desired index. This is why they are assigned to variables in the
// snippet above.
//
//	people := c.Search(IndexFirstName, "Caleb")
//
// The lookup value must have exactly the key type of the index (or be a
// pointer to such value). For example, if the FirstName field is of a
// string-based Name type, the value passed to Search must be of that type, and
// cannot be a plain string. A value of a different type finds nothing.
//
// # Absent keys
//
// A definition may report that an element has no key: Optional functions
// returning false, Field on a nil pointer field, Func returning a nil pointer.
// Such elements are indexed under the absent key, and are found by passing nil
// (or a typed nil pointer) as the lookup value.
//
// # Encodable types
//
// Encode serializes keys to order-preserving byte sequences for radix-tree
// based stores. All integer and floating point types, strings, booleans,
// time.Time and all named types based on them are encodable. Any other type
// can be made encodable by implementing a method
//
//	IndexKey() []byte
package indices
