package people

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ridge/multisearch/indices"
)

// Query is a lookup of persons by one property
type Query struct {
	Property string
	Index    indices.Definition[Person]
	Value    any
}

func (q Query) String() string {
	return fmt.Sprintf("%s=%v", q.Property, q.Value)
}

// Lookup returns the index definition for a property name: first, last or age
func Lookup(property string) (indices.Definition[Person], bool) {
	switch property {
	case "first":
		return IndexFirstName, true
	case "last":
		return IndexLastName, true
	case "age":
		return IndexAge, true
	default:
		return nil, false
	}
}

// ParseQuery parses a query of the form PROPERTY=VALUE, e.g. first=Caleb or
// age=10
func ParseQuery(s string) (Query, error) {
	property, value, ok := strings.Cut(s, "=")
	if !ok {
		return Query{}, fmt.Errorf("query %q: expected PROPERTY=VALUE", s)
	}
	def, ok := Lookup(property)
	if !ok {
		return Query{}, fmt.Errorf("query %q: unknown property %q (expected first, last or age)", s, property)
	}
	q := Query{Property: property, Index: def, Value: value}
	if def == IndexAge {
		age, err := strconv.Atoi(value)
		if err != nil {
			return Query{}, fmt.Errorf("query %q: %w", s, err)
		}
		q.Value = age
	}
	return q, nil
}
