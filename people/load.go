package people

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ridge/multisearch/tlog"
	"go.uber.org/zap"
)

// Load reads persons from a names file: one "First Last" pair per line.
// Everything before the first space is the first name, the rest is the last
// name. Blank lines are skipped. All persons get the given age.
func Load(ctx context.Context, r io.Reader, age int) ([]Person, error) {
	var res []Person
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		first, last, ok := strings.Cut(text, " ")
		if !ok {
			return nil, fmt.Errorf("line %d: expected first and last name, got %q", line, text)
		}
		res = append(res, Person{FirstName: first, LastName: strings.TrimSpace(last), Age: age})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	tlog.Get(ctx).Debug("Loaded persons", zap.Int("count", len(res)))
	return res, nil
}

// LoadFile is Load for a file
func LoadFile(ctx context.Context, path string, age int) ([]Person, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	res, err := Load(tlog.With(ctx, zap.String("file", path)), f, age)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return res, nil
}
