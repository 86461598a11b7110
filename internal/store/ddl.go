package store

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"crucible/model"
)

// DDL renders the statements creating every table of md, referenced tables
// first. Statements are idempotent.
func DDL(d Dialect, md *model.Metadata) ([]string, error) {
	tables, err := md.Sorted()
	if err != nil {
		return nil, err
	}

	var stmts []string

	if d.Schemas() {
		seen := make(map[string]bool)

		for _, t := range tables {
			if t.Schema != "" && !seen[t.Schema] {
				seen[t.Schema] = true
				stmts = append(stmts, "CREATE SCHEMA IF NOT EXISTS "+quote(t.Schema)+";")
			}
		}
	}

	for _, t := range tables {
		create, err := createTable(d, t)
		if err != nil {
			return nil, err
		}

		stmts = append(stmts, create)
		stmts = append(stmts, createIndexes(d, t)...)
	}

	return stmts, nil
}

// Script joins the statements of DDL into one script.
func Script(d Dialect, md *model.Metadata) (string, error) {
	stmts, err := DDL(d, md)
	if err != nil {
		return "", err
	}

	return strings.Join(stmts, "\n\n") + "\n", nil
}

func createTable(d Dialect, t *model.Table) (string, error) {
	var lines []string

	for _, c := range t.Columns {
		typ, err := d.ColumnType(c)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
		}

		line := quote(c.Name) + " " + typ
		if !c.Nullable {
			line += " NOT NULL"
		}

		if c.Default != nil {
			lit, err := literal(c.Default)
			if err != nil {
				return "", fmt.Errorf("%s.%s: %w", t.Name, c.Name, err)
			}

			line += " DEFAULT " + lit
		}

		lines = append(lines, line)
	}

	if pk := t.PrimaryKey(); len(pk) > 0 {
		lines = append(lines, "PRIMARY KEY ("+columnList(pk)+")")
	}

	for _, c := range t.Columns {
		ref, col, ok := model.SplitForeignKey(c.ForeignKey)
		if !ok {
			continue
		}

		lines = append(lines, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			quote(c.Name), d.Table(&model.Table{Name: ref, Schema: t.Schema}), quote(col)))
	}

	for _, k := range t.Constraints {
		switch k.Kind {
		case model.ConstraintUnique:
			lines = append(lines, constraintName(k)+"UNIQUE ("+quoteAll(k.Columns)+")")
		case model.ConstraintCheck:
			lines = append(lines, constraintName(k)+"CHECK ("+k.Expr+")")
		}
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", d.Table(t), strings.Join(lines, ",\n  ")), nil
}

func createIndexes(d Dialect, t *model.Table) []string {
	var out []string

	for _, c := range t.Columns {
		switch {
		case c.Unique && !c.PrimaryKey:
			out = append(out, fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s);",
				quote(t.Name+"_"+c.Name+"_key"), d.Table(t), quote(c.Name)))
		case c.Index:
			out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
				quote(t.Name+"_"+c.Name+"_idx"), d.Table(t), quote(c.Name)))
		}
	}

	for _, k := range t.Constraints {
		if k.Kind != model.ConstraintIndex {
			continue
		}

		name := k.Name
		if name == "" {
			name = t.Name + "_" + strings.Join(k.Columns, "_") + "_idx"
		}

		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);",
			quote(name), d.Table(t), quoteAll(k.Columns)))
	}

	return out
}

func constraintName(k model.Constraint) string {
	if k.Name == "" {
		return ""
	}

	return "CONSTRAINT " + quote(k.Name) + " "
}

func columnList(cols []*model.Column) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	return quoteAll(names)
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}

	return strings.Join(quoted, ", ")
}

// literal renders a column default.
func literal(v any) (string, error) {
	rv := reflect.ValueOf(v)

	switch x := v.(type) {
	case time.Time:
		return "'" + x.UTC().Format(time.RFC3339Nano) + "'", nil
	case time.Duration:
		return strconv.FormatInt(int64(x), 10), nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return "TRUE", nil
		}

		return "FALSE", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	case reflect.String:
		return "'" + strings.ReplaceAll(rv.String(), "'", "''") + "'", nil
	default:
		return "", fmt.Errorf("%w: default of type %T", ErrUnsupportedType, v)
	}
}
