// Package people is the demo domain for multisearch: persons with first and
// last names and an age, and a loader for files of random names.
package people

import (
	"github.com/ridge/multisearch/indices"
)

// Person is a demo element
type Person struct {
	FirstName string
	LastName  string
	Age       int
}

// Index definitions for Person
var (
	IndexFirstName = indices.Field[Person]("FirstName")
	IndexLastName  = indices.Field[Person]("LastName")
	IndexAge       = indices.Func("age", func(p Person) int { return p.Age })
)

// Indices returns all index definitions for Person
func Indices() []indices.Definition[Person] {
	return []indices.Definition[Person]{IndexFirstName, IndexLastName, IndexAge}
}

// LinearSearch finds persons by scanning the whole slice. It is the baseline
// that indexed search is compared with.
func LinearSearch(persons []Person, def indices.Definition[Person], value any) []Person {
	key, ok := def.FromArgs(value)
	if !ok {
		return nil
	}
	var res []Person
	for _, p := range persons {
		if def.FromObject(p) == key {
			res = append(res, p)
		}
	}
	return res
}
