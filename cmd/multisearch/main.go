package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ridge/multisearch"
	"github.com/ridge/multisearch/memstore"
	"github.com/ridge/multisearch/people"
	"github.com/ridge/multisearch/run"
	"github.com/ridge/multisearch/tlog"
	"github.com/ridge/multisearch/watch"
	"github.com/ridge/must/v2"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type config struct {
	file    string
	repeat  int
	age     int
	watch   bool
	queries []people.Query
}

// newFlagSet returns a flag set that also accepts the flags registered on
// pflag.CommandLine (the logging flags of package run). Parse errors are not
// printed: parseArgs returns them as run.UsageError for run.Tool to report.
func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	fs.AddFlagSet(pflag.CommandLine)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	return fs
}

func parseArgs(fs *pflag.FlagSet, args []string) (config, error) {
	var c config
	fs.IntVar(&c.repeat, "repeat", 1, "Load the file this many times; the i-th copy gets age --age+i")
	fs.IntVar(&c.age, "age", 0, "Age of the persons in the first copy")
	fs.BoolVar(&c.watch, "watch", false, "Keep watching the file and rerun the queries after every change")
	if err := fs.Parse(args); err != nil {
		return config{}, run.Usagef("%v", err)
	}

	if fs.NArg() < 1 {
		return config{}, run.Usagef("missing FILE argument")
	}
	if c.repeat < 1 {
		return config{}, run.Usagef("--repeat must be positive, got %d", c.repeat)
	}
	c.file = fs.Arg(0)
	for _, arg := range fs.Args()[1:] {
		q, err := people.ParseQuery(arg)
		if err != nil {
			return config{}, run.Usagef("%v", err)
		}
		c.queries = append(c.queries, q)
	}
	return c, nil
}

// defaultQueries looks up the properties of the first person
func defaultQueries(persons []people.Person, age int) []people.Query {
	if len(persons) == 0 {
		return nil
	}
	return []people.Query{
		{Property: "first", Index: people.IndexFirstName, Value: persons[0].FirstName},
		{Property: "last", Index: people.IndexLastName, Value: persons[0].LastName},
		{Property: "age", Index: people.IndexAge, Value: age},
	}
}

func load(ctx context.Context, c config) ([]people.Person, error) {
	logger := tlog.Get(ctx)

	started := time.Now()
	var persons []people.Person
	for i := 0; i < c.repeat; i++ {
		batch, err := people.LoadFile(ctx, c.file, c.age+i)
		if err != nil {
			return nil, err
		}
		persons = append(persons, batch...)
	}
	logger.Info("Loaded", zap.Int("count", len(persons)), zap.Duration("duration", time.Since(started)))
	return persons, nil
}

func compare(ctx context.Context, persons []people.Person, queries []people.Query) {
	logger := tlog.Get(ctx)

	started := time.Now()
	collection := must.OK1(multisearch.New(people.Indices()...))
	for _, p := range persons {
		collection.Add(p)
	}
	logger.Info("Indexed", zap.Int("count", collection.Len()), zap.Duration("duration", time.Since(started)))

	for _, q := range queries {
		started := time.Now()
		found := collection.Search(q.Index, q.Value)
		indexed := time.Since(started)

		started = time.Now()
		scanned := people.LinearSearch(persons, q.Index, q.Value)
		linear := time.Since(started)

		logger.Info("Searched",
			zap.Stringer("query", q),
			zap.Int("indexed", len(found)),
			zap.Duration("indexedDuration", indexed),
			zap.Int("linear", len(scanned)),
			zap.Duration("linearDuration", linear))
	}
}

func report(ctx context.Context, snapshot *memstore.Snapshot[people.Person], queries []people.Query) {
	logger := tlog.Get(ctx)
	for _, q := range queries {
		started := time.Now()
		n := snapshot.Count(q.Index, q.Value)
		logger.Info("Searched snapshot",
			zap.Stringer("query", q),
			zap.Int("found", n),
			zap.Int("total", snapshot.Len()),
			zap.Duration("duration", time.Since(started)))
	}
}

func follow(ctx context.Context, c config, queries []people.Query) error {
	store := must.OK1(memstore.New(people.Indices()...))
	return watch.Run(ctx, watch.Config{
		Path:    c.file,
		Age:     c.age,
		Backoff: watch.DefaultBackoff,
		OnReload: func(ctx context.Context, snapshot *memstore.Snapshot[people.Person]) {
			report(ctx, snapshot, queries)
		},
	}, store)
}

func main() {
	fs := newFlagSet()
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] FILE [PROPERTY=VALUE...]\n\nPROPERTY is first, last or age.\n\nFlags:\n", os.Args[0])
		fmt.Fprint(os.Stderr, fs.FlagUsages())
	}
	run.Server(func(ctx context.Context) error {
		c, err := parseArgs(fs, os.Args[1:])
		if err != nil {
			return err
		}

		persons, err := load(ctx, c)
		if err != nil {
			return err
		}
		queries := c.queries
		if len(queries) == 0 {
			queries = defaultQueries(persons, c.age)
		}
		compare(ctx, persons, queries)

		if !c.watch {
			return nil
		}
		return follow(ctx, c, queries)
	})
}
