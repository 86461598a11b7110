package model

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// Metadata groups the tables of related classes.
// It is safe for concurrent use.
type Metadata struct {
	mu     sync.Mutex
	tables []*Table
	byName map[string]*Table
}

// NewMetadata creates an empty table group.
func NewMetadata() *Metadata {
	return &Metadata{byName: make(map[string]*Table)}
}

// Add registers t. Registering the same table twice is a no-op; registering
// a different table under a taken name fails with ErrDuplicateTable.
func (m *Metadata) Add(t *Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := t.QualifiedName()
	if existing, ok := m.byName[name]; ok {
		if existing == t {
			return nil
		}

		return fmt.Errorf("%w: %s", ErrDuplicateTable, name)
	}

	m.byName[name] = t
	m.tables = append(m.tables, t)

	return nil
}

func (m *Metadata) remove(t *Table) {
	m.mu.Lock()
	defer m.mu.Unlock()

	name := t.QualifiedName()
	if m.byName[name] != t {
		return
	}

	delete(m.byName, name)
	m.tables = slices.DeleteFunc(m.tables, func(x *Table) bool { return x == t })
}

// Table returns the table registered under its qualified name.
func (m *Metadata) Table(name string) (*Table, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.byName[name]

	return t, ok
}

// Tables returns the tables in registration order.
func (m *Metadata) Tables() []*Table {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*Table(nil), m.tables...)
}

// Sorted returns the tables so that every table follows the tables it
// references. References to tables outside the group are ignored.
func (m *Metadata) Sorted() ([]*Table, error) {
	tables := m.Tables()

	index := make(map[string]int, len(tables))
	for i, t := range tables {
		index[t.Name] = i
	}

	order, err := topoSort(len(tables), func(i int) []int {
		var deps []int

		for _, ref := range tables[i].References() {
			if j, ok := index[ref]; ok {
				deps = append(deps, j)
			}
		}

		return deps
	})
	if err != nil {
		return nil, err
	}

	out := make([]*Table, len(order))
	for k, i := range order {
		out[k] = tables[i]
	}

	return out, nil
}

// topoSort returns indices in dependency order.
//
// depsFn(i) yields indices that must come before i. When multiple nodes are
// available the smallest index is picked, so the result is deterministic.
func topoSort(n int, depsFn func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	indeg := make([]int, n)
	out := make([][]int, n)

	for i := range n {
		for _, d := range depsFn(i) {
			if d < 0 || d >= n {
				return nil, fmt.Errorf("dependency index out of range: %d depends on %d", i, d)
			}

			indeg[i]++
			out[d] = append(out[d], i)
		}
	}

	for i := range out {
		sort.Ints(out[i])
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, i)
		for _, j := range out[i] {
			indeg[j]--
			if indeg[j] == 0 {
				// keep ready sorted
				k := sort.SearchInts(ready, j)
				ready = append(ready, 0)
				copy(ready[k+1:], ready[k:])
				ready[k] = j
			}
		}
	}

	if len(order) != n {
		return nil, ErrDependencyCycle
	}

	return order, nil
}
