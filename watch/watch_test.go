package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ridge/multisearch/memstore"
	"github.com/ridge/multisearch/people"
	"github.com/ridge/multisearch/test"
	"github.com/ridge/must/v2"
	"github.com/ridge/parallel"
	"github.com/stretchr/testify/require"
)

const timeout = 10 * time.Second

type env struct {
	t       *testing.T
	path    string
	store   *memstore.Store[people.Person]
	reloads chan *memstore.Snapshot[people.Person]
}

func newEnv(t *testing.T, content string) *env {
	e := &env{
		t:       t,
		path:    filepath.Join(t.TempDir(), "names.txt"),
		store:   must.OK1(memstore.New(people.Indices()...)),
		reloads: make(chan *memstore.Snapshot[people.Person]),
	}
	if content != "" {
		e.write(content)
	}

	config := Config{
		Path:    e.path,
		Age:     7,
		Backoff: BackoffConfig{Min: time.Millisecond, Max: 20 * time.Millisecond, Scale: 2},
		OnReload: func(ctx context.Context, snapshot *memstore.Snapshot[people.Person]) {
			select {
			case e.reloads <- snapshot:
			case <-ctx.Done():
			}
		},
	}
	group := test.Group(t)
	group.Spawn("watch", parallel.Fail, func(ctx context.Context) error {
		return Run(ctx, config, e.store)
	})
	return e
}

// write replaces the file atomically
func (e *env) write(content string) {
	tmp := e.path + ".tmp"
	require.NoError(e.t, os.WriteFile(tmp, []byte(content), 0o644))
	require.NoError(e.t, os.Rename(tmp, e.path))
}

// waitFor waits for a reload that results in the given number of persons
func (e *env) waitFor(count int) *memstore.Snapshot[people.Person] {
	deadline := time.After(timeout)
	for {
		select {
		case snapshot := <-e.reloads:
			if snapshot.Len() == count {
				return snapshot
			}
		case <-deadline:
			require.FailNow(e.t, "timed out waiting for reload", "expected %d persons", count)
		}
	}
}

func TestInitialLoad(t *testing.T) {
	e := newEnv(t, "Caleb Dominguez\nJames Ryan\n")
	snapshot := e.waitFor(2)
	require.Equal(t, 1, snapshot.Count(people.IndexFirstName, "Caleb"))
	require.Equal(t, 2, snapshot.Count(people.IndexAge, 7))
}

func TestReloadOnChange(t *testing.T) {
	e := newEnv(t, "Caleb Dominguez\n")
	e.waitFor(1)

	e.write("Caleb Dominguez\nJames Ryan\nCaleb Hawkins\n")
	snapshot := e.waitFor(3)
	require.Equal(t, 2, snapshot.Count(people.IndexFirstName, "Caleb"))
	require.Equal(t, 3, e.store.Snapshot().Len())
}

func TestReloadInPlace(t *testing.T) {
	e := newEnv(t, "Caleb Dominguez\n")
	e.waitFor(1)

	require.NoError(t, os.WriteFile(e.path, []byte("Jacob Smith\nJames Ryan\n"), 0o644))
	snapshot := e.waitFor(2)
	require.True(t, snapshot.Has(people.IndexLastName, "Smith"))
	require.False(t, snapshot.Has(people.IndexLastName, "Dominguez"))
}

func TestMalformedKeepsContent(t *testing.T) {
	e := newEnv(t, "Caleb Dominguez\nJames Ryan\n")
	e.waitFor(2)

	e.write("Caleb Dominguez\nCher\n")
	select {
	case snapshot := <-e.reloads:
		require.FailNow(t, "unexpected reload", "%d persons", snapshot.Len())
	case <-time.After(100 * time.Millisecond):
	}
	require.Equal(t, 2, e.store.Snapshot().Len())

	e.write("Jacob Smith\n")
	snapshot := e.waitFor(1)
	require.True(t, snapshot.Has(people.IndexFirstName, "Jacob"))
}

func TestWaitsForFile(t *testing.T) {
	e := newEnv(t, "")
	require.True(t, e.store.Snapshot().IsEmpty())

	e.write("Caleb Dominguez\n")
	e.waitFor(1)
}

func TestBackoff(t *testing.T) {
	b := newBackoff(BackoffConfig{Min: time.Second, Max: 5 * time.Second, Scale: 2})
	var delays []time.Duration
	for i := 0; i < 5; i++ {
		delays = append(delays, b.next())
	}
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}, delays)

	require.Equal(t, DefaultBackoff, newBackoff(BackoffConfig{}).config)
}

func TestBackoffPartialConfig(t *testing.T) {
	tcs := []struct {
		name   string
		config BackoffConfig
		exp    BackoffConfig
	}{
		{"no min", BackoffConfig{Max: time.Second, Scale: 3}, BackoffConfig{Min: DefaultBackoff.Min, Max: time.Second, Scale: 3}},
		{"no max", BackoffConfig{Min: time.Second}, BackoffConfig{Min: time.Second, Max: DefaultBackoff.Max, Scale: DefaultBackoff.Scale}},
		{"max below min", BackoffConfig{Min: time.Minute, Max: time.Second, Scale: 2}, BackoffConfig{Min: time.Minute, Max: time.Minute, Scale: 2}},
		{"scale not growing", BackoffConfig{Min: time.Millisecond, Max: time.Second, Scale: 0.5}, BackoffConfig{Min: time.Millisecond, Max: time.Second, Scale: DefaultBackoff.Scale}},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			b := newBackoff(tc.config)
			require.Equal(t, tc.exp, b.config)
			first := b.next()
			require.Equal(t, tc.exp.Min, first)
			require.GreaterOrEqual(t, b.next(), first)
		})
	}
}

func TestSleepCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(test.Context(t))
	cancel()
	require.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
	require.NoError(t, sleep(ctx, 0))
}
