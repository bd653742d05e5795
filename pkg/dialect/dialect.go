// Package dialect captures the small set of SQL differences between the
// supported relation stores. Models write portable SQL and go through a
// Dialect for the few expressions that diverge.
package dialect

import (
	"fmt"
	"sort"
	"sync"
)

// Dialect describes one SQL dialect.
type Dialect struct {
	// Name is the dialect identifier, matching the adapter type.
	Name string
	// DefaultSchema is the schema unqualified relations resolve to.
	DefaultSchema string

	dateDiffDays func(start, end string) string
}

// DateDiffDays returns an expression computing whole days from start to end.
func (d *Dialect) DateDiffDays(start, end string) string {
	return d.dateDiffDays(start, end)
}

// CurrentDate returns the expression for the current date.
func (d *Dialect) CurrentDate() string {
	return "CURRENT_DATE"
}

// DateLiteral formats a DATE literal from an ISO yyyy-mm-dd string.
func (d *Dialect) DateLiteral(iso string) string {
	return fmt.Sprintf("DATE '%s'", iso)
}

var (
	mu       sync.RWMutex
	registry = make(map[string]*Dialect)
)

// Register adds a dialect to the registry.
func Register(d *Dialect) {
	mu.Lock()
	defer mu.Unlock()
	registry[d.Name] = d
}

// Get retrieves a dialect by name.
func Get(name string) (*Dialect, bool) {
	mu.RLock()
	defer mu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// List returns all registered dialect names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(&Dialect{
		Name:          "duckdb",
		DefaultSchema: "main",
		dateDiffDays: func(start, end string) string {
			return fmt.Sprintf("DATE_DIFF('day', %s, %s)", start, end)
		},
	})
	Register(&Dialect{
		Name:          "postgres",
		DefaultSchema: "public",
		dateDiffDays: func(start, end string) string {
			return fmt.Sprintf("(CAST(%s AS date) - CAST(%s AS date))", end, start)
		},
	})
}
