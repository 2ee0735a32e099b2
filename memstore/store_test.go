package memstore

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/ridge/multisearch"
	"github.com/ridge/multisearch/indices"
	"github.com/ridge/multisearch/test"
	"github.com/ridge/parallel"
	"github.com/stretchr/testify/require"
)

type person struct {
	FirstName string
	LastName  *string
	Age       int
}

func p(first string, last string, age int) person {
	return person{FirstName: first, LastName: &last, Age: age}
}

var (
	indexFirstName = indices.Field[person]("FirstName")
	indexLastName  = indices.Field[person]("LastName")
	indexAge       = indices.Func("age", func(p person) int { return p.Age })
)

func newStore(t *testing.T) *Store[person] {
	s, err := New(indexFirstName, indexLastName, indexAge)
	require.NoError(t, err)
	return s
}

func ages(persons []person) []int {
	res := make([]int, 0, len(persons))
	for _, p := range persons {
		res = append(res, p.Age)
	}
	return res
}

func TestNewInvalid(t *testing.T) {
	_, err := New[person]()
	require.ErrorIs(t, err, multisearch.ErrInvalidConfiguration)
	_, err = New(indexAge, indexAge)
	require.ErrorIs(t, err, multisearch.ErrInvalidConfiguration)
}

func TestSearch(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Add(
		p("Caleb", "Dominguez", 1),
		p("James", "Ryan", 2),
		p("Jacob", "Smith", 3),
		p("Caleb", "Hawkins", 4),
	))

	snap := s.Snapshot()
	require.Equal(t, []person{p("Caleb", "Dominguez", 1), p("Caleb", "Hawkins", 4)}, snap.Search(indexFirstName, "Caleb"))
	require.Equal(t, []person{p("James", "Ryan", 2)}, snap.Search(indexLastName, "Ryan"))
	require.Equal(t, []person{p("Jacob", "Smith", 3)}, snap.Search(indexAge, 3))
	require.True(t, snap.Has(indexFirstName, "James"))
	require.Equal(t, 2, snap.Count(indexFirstName, "Caleb"))
	require.Equal(t, 4, snap.Len())
	require.False(t, snap.IsEmpty())
}

func TestSearchMissing(t *testing.T) {
	s := newStore(t)
	snap := s.Snapshot()
	require.True(t, snap.IsEmpty())
	require.Equal(t, 0, snap.Len())
	res := snap.Search(indexFirstName, "Caleb")
	require.NotNil(t, res)
	require.Empty(t, res)

	require.NoError(t, s.Add(p("Caleb", "Dominguez", 1)))
	snap = s.Snapshot()
	require.Empty(t, snap.Search(indexFirstName, "Cal")) // no prefix matches
	require.Empty(t, snap.Search(indexFirstName, 1))
	require.Empty(t, snap.Search(indices.Field[person]("FirstName"), "Caleb"))
	require.False(t, snap.Has(indexAge, 2))
	require.Zero(t, snap.Count(indexLastName, nil))
}

func TestSearchNilDefinition(t *testing.T) {
	s := newStore(t)
	require.Panics(t, func() { s.Snapshot().Search(nil, "Caleb") })
	require.Panics(t, func() { s.Remove(nil, "Caleb") })
}

func TestAddNil(t *testing.T) {
	s, err := New(indices.Field[*person]("FirstName"))
	require.NoError(t, err)
	require.Panics(t, func() { _ = s.Add(&person{FirstName: "Caleb"}, nil) })
	require.True(t, s.Snapshot().IsEmpty())
}

func TestAbsentKey(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Add(p("Caleb", "Dominguez", 1), person{FirstName: "Colleen", Age: 6}, p("James", "", 2)))

	snap := s.Snapshot()
	require.Equal(t, []int{6}, ages(snap.Search(indexLastName, nil)))
	require.Equal(t, []int{6}, ages(snap.Search(indexLastName, (*string)(nil))))
	require.Equal(t, []int{2}, ages(snap.Search(indexLastName, "")))
	require.Empty(t, snap.Search(indexFirstName, nil))
}

func TestUnsupportedKey(t *testing.T) {
	type weird struct{ A, B int }
	def := indices.Func("weird", func(p person) weird { return weird{A: p.Age} })
	s, err := New(def)
	require.NoError(t, err)

	err = s.Add(p("Caleb", "Dominguez", 1))
	require.ErrorIs(t, err, indices.ErrUnsupportedKey)
	require.EqualError(t, err, "index weird: unsupported key type: memstore.weird")
	require.True(t, s.Snapshot().IsEmpty())
}

func TestAddIsAtomic(t *testing.T) {
	def := indices.Func("name", func(p person) any {
		if p.Age < 0 {
			return []int{} // not encodable
		}
		return p.FirstName
	})
	s, err := New(def)
	require.NoError(t, err)

	require.Error(t, s.Add(p("Caleb", "Dominguez", 1), p("Broken", "", -1)))
	require.True(t, s.Snapshot().IsEmpty())

	require.NoError(t, s.Add(p("Caleb", "Dominguez", 1)))
	require.Equal(t, []int{1}, ages(s.Snapshot().Search(def, "Caleb")))
}

func TestSnapshotIsolation(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Add(p("Caleb", "Dominguez", 1)))
	before := s.Snapshot()

	require.NoError(t, s.Add(p("Caleb", "Hawkins", 4)))
	after := s.Snapshot()

	require.Equal(t, []int{1}, ages(before.Search(indexFirstName, "Caleb")))
	require.Equal(t, []int{1, 4}, ages(after.Search(indexFirstName, "Caleb")))

	s.Clear()
	require.Equal(t, 1, before.Len())
	require.Equal(t, 2, after.Len())
	require.True(t, s.Snapshot().IsEmpty())
}

func TestReplace(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Add(p("Caleb", "Dominguez", 1), p("James", "Ryan", 2)))
	before := s.Snapshot()

	require.NoError(t, s.Replace(p("Jacob", "Smith", 3)))
	snap := s.Snapshot()
	require.Equal(t, []int{3}, ages(collect(snap)))
	require.False(t, snap.Has(indexFirstName, "Caleb"))
	require.Equal(t, []int{1, 2}, ages(collect(before)))

	require.NoError(t, s.Add(p("Caleb", "Hawkins", 4)))
	require.Equal(t, []int{3, 4}, ages(collect(s.Snapshot())))
}

func TestRemove(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Add(
		p("Caleb", "Dominguez", 1),
		p("Jacob", "Smith", 3),
		p("Caleb", "Hawkins", 4),
		p("Jacob", "Chen", 9),
	))
	before := s.Snapshot()

	require.Equal(t, 2, s.Remove(indexFirstName, "Jacob"))
	require.Zero(t, s.Remove(indexFirstName, "Jacob"))
	require.Zero(t, s.Remove(indexFirstName, 42))

	snap := s.Snapshot()
	require.Equal(t, []int{1, 4}, ages(collect(snap)))
	require.False(t, snap.Has(indexLastName, "Chen"))
	require.False(t, snap.Has(indexAge, 3))
	require.Equal(t, 4, before.Len())
}

func TestAll(t *testing.T) {
	s := newStore(t)
	for i := 0; i < 300; i++ {
		require.NoError(t, s.Add(p(fmt.Sprintf("N%d", i%7), "X", i)))
	}
	snap := s.Snapshot()
	all := collect(snap)
	require.Len(t, all, 300)
	for i, p := range all {
		require.Equal(t, i, p.Age)
	}

	// insertion order within a bucket, beyond one byte of positions
	res := snap.Search(indexFirstName, "N3")
	for i := 1; i < len(res); i++ {
		require.Less(t, res[i-1].Age, res[i].Age)
	}

	n := 0
	for range snap.All() {
		n++
		if n == 10 {
			break
		}
	}
	require.Equal(t, 10, n)
}

func TestConcurrentReaders(t *testing.T) {
	s := newStore(t)
	ctx := test.Context(t)

	// every batch has two Calebs and one James, readers must never see a
	// partial batch
	check := func(ctx context.Context) error {
		for ctx.Err() == nil {
			snap := s.Snapshot()
			calebs := snap.Count(indexFirstName, "Caleb")
			james := snap.Count(indexFirstName, "James")
			if calebs != 2*james || snap.Len() != calebs+james {
				return fmt.Errorf("inconsistent snapshot: %d Calebs, %d James, %d total", calebs, james, snap.Len())
			}
		}
		return nil
	}

	require.NoError(t, parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		for i := 0; i < 4; i++ {
			spawn(fmt.Sprintf("reader%d", i), parallel.Continue, check)
		}
		spawn("writer", parallel.Exit, func(ctx context.Context) error {
			for i := 0; i < 200; i++ {
				if err := s.Add(p("Caleb", "A", i), p("James", "B", i), p("Caleb", "C", i)); err != nil {
					return err
				}
			}
			return nil
		})
		return nil
	}))
	require.Equal(t, 600, s.Snapshot().Len())
}

func collect(snap *Snapshot[person]) []person {
	var res []person
	for p := range snap.All() {
		res = append(res, p)
	}
	return res
}

type item struct {
	Name   string
	Key    any
	Weight float64
}

var (
	indexItemName = indices.Field[item]("Name")
	indexKey      = indices.Field[item]("Key")
	indexWeight   = indices.Func("weight", func(i item) float64 { return i.Weight })
)

func names(items []item) []string {
	res := make([]string, 0, len(items))
	for _, i := range items {
		res = append(res, i.Name)
	}
	return res
}

func TestSearchMatchesCollection(t *testing.T) {
	items := []item{
		{Name: "a", Key: "a", Weight: 0},
		{Name: "a\x00b", Key: uint16(0x6100), Weight: math.Copysign(0, -1)},
		{Name: "a\x00", Key: int(1), Weight: 1},
		{Name: "b", Key: int64(1), Weight: math.NaN()},
		{Name: "", Key: nil, Weight: 2},
	}

	c := multisearch.MustNew(indexItemName, indexKey, indexWeight)
	for _, i := range items {
		c.Add(i)
	}
	s, err := New(indexItemName, indexKey, indexWeight)
	require.NoError(t, err)
	require.NoError(t, s.Add(items...))
	snap := s.Snapshot()

	tcs := []struct {
		def   indices.Definition[item]
		value any
	}{
		{indexItemName, "a"},
		{indexItemName, "a\x00"},
		{indexItemName, "a\x00b"},
		{indexItemName, ""},
		{indexItemName, "b"},
		{indexKey, "a"},
		{indexKey, uint16(0x6100)},
		{indexKey, int(1)},
		{indexKey, int64(1)},
		{indexKey, int32(1)},
		{indexKey, nil},
		{indexWeight, 0.0},
		{indexWeight, math.Copysign(0, -1)},
		{indexWeight, 1.0},
		{indexWeight, math.NaN()},
		{indexWeight, 2.0},
	}
	for _, tc := range tcs {
		expected := names(c.Search(tc.def, tc.value))
		require.Equal(t, expected, names(snap.Search(tc.def, tc.value)), "%s=%#v", tc.def.Name(), tc.value)
		require.Equal(t, len(expected), snap.Count(tc.def, tc.value), "%s=%#v", tc.def.Name(), tc.value)
	}

	require.Equal(t, []string{"a"}, names(snap.Search(indexItemName, "a")))
	require.Equal(t, []string{"a\x00"}, names(snap.Search(indexKey, int(1))))
	require.Equal(t, []string{"a", "a\x00b"}, names(snap.Search(indexWeight, 0.0)))
	require.Empty(t, snap.Search(indexWeight, math.NaN()))

	require.Equal(t, 1, s.Remove(indexKey, int(1)))
	require.Equal(t, []string{"b"}, names(s.Snapshot().Search(indexKey, int64(1))))
}
