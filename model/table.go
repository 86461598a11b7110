package model

import (
	"reflect"
	"slices"
	"strings"

	"crucible/internal/common"
)

// Table is a relational table described by the classes mapped onto it.
type Table struct {
	Name        string
	Schema      string
	Columns     []*Column
	Constraints []Constraint
}

// Column is one column of a table.
type Column struct {
	Name string
	// Attribute names the class attribute holding the column value.
	Attribute string
	Type      reflect.Type
	Table     *Table

	PrimaryKey bool
	Nullable   bool
	Unique     bool
	Index      bool
	Length     int
	SQLType    string
	ForeignKey string
	Default    any
}

// ConstraintKind is the kind of a table-level constraint.
type ConstraintKind int

const (
	ConstraintUnique ConstraintKind = iota
	ConstraintCheck
	ConstraintIndex
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintUnique:
		return "unique"
	case ConstraintCheck:
		return "check"
	case ConstraintIndex:
		return "index"
	default:
		return common.UnknownStr
	}
}

// Constraint is a table-level constraint. Check constraints use Expr, the
// others use Columns.
type Constraint struct {
	Kind    ConstraintKind
	Name    string
	Columns []string
	Expr    string
}

// QualifiedName returns "schema.name", or the name alone without a schema.
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}

	return t.Schema + "." + t.Name
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}

// PrimaryKey returns the primary key columns in declaration order.
func (t *Table) PrimaryKey() []*Column {
	var out []*Column

	for _, c := range t.Columns {
		if c.PrimaryKey {
			out = append(out, c)
		}
	}

	return out
}

// References returns the names of the tables this table has foreign keys to.
func (t *Table) References() []string {
	var out []string

	for _, c := range t.Columns {
		ref, _, ok := SplitForeignKey(c.ForeignKey)
		if ok && ref != t.Name && !slices.Contains(out, ref) {
			out = append(out, ref)
		}
	}

	return out
}

// SplitForeignKey splits "table.column" into its parts. The schema of a
// "schema.table.column" reference is dropped.
func SplitForeignKey(ref string) (table, column string, ok bool) {
	i := strings.LastIndexByte(ref, '.')
	if i <= 0 || i == len(ref)-1 {
		return "", "", false
	}

	table = ref[:i]
	if j := strings.LastIndexByte(table, '.'); j >= 0 {
		table = table[j+1:]
	}

	return table, ref[i+1:], true
}
