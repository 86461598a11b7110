package store

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"crucible/internal/match"
	"crucible/model"
)

// Dialect renders the parts of SQL that differ between databases.
type Dialect interface {
	// Name is the configuration name of the dialect.
	Name() string
	// Driver is the database/sql driver name.
	Driver() string
	// Placeholder returns the bind parameter for the n-th argument, from 1.
	Placeholder(n int) string
	// Table returns the quoted, qualified table name.
	Table(t *model.Table) string
	// ColumnType returns the SQL type of c.
	ColumnType(c *model.Column) (string, error)
	// Schemas reports whether CREATE SCHEMA is supported.
	Schemas() bool
}

var (
	SQLite   Dialect = sqliteDialect{}
	Postgres Dialect = postgresDialect{}
)

var dialects = map[string]Dialect{
	SQLite.Name():   SQLite,
	Postgres.Name(): Postgres,
}

// ParseDialect returns the dialect registered under name.
func ParseDialect(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if ok {
		return d, nil
	}

	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}

	if hints := match.Suggest(name, names); len(hints) > 0 {
		return nil, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownDialect, name, hints[0])
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string           { return "sqlite" }
func (sqliteDialect) Driver() string         { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }
func (sqliteDialect) Schemas() bool          { return false }

// Table ignores the schema: sqlite reads it as an attached database.
func (sqliteDialect) Table(t *model.Table) string { return quote(t.Name) }

func (sqliteDialect) ColumnType(c *model.Column) (string, error) {
	if c.SQLType != "" {
		return c.SQLType, nil
	}

	switch storage(c.Type) {
	case storeTime:
		return "TIMESTAMP", nil
	case storeBool, storeInt, storeUint:
		return "INTEGER", nil
	case storeFloat:
		return "REAL", nil
	case storeText, storeJSON:
		return "TEXT", nil
	case storeBytes:
		return "BLOB", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, c.Type)
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string             { return "postgres" }
func (postgresDialect) Driver() string           { return "pgx" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) Schemas() bool            { return true }

func (postgresDialect) Table(t *model.Table) string {
	if t.Schema == "" {
		return quote(t.Name)
	}

	return quote(t.Schema) + "." + quote(t.Name)
}

func (postgresDialect) ColumnType(c *model.Column) (string, error) {
	if c.SQLType != "" {
		return c.SQLType, nil
	}

	t := base(c.Type)

	switch storage(c.Type) {
	case storeTime:
		return "TIMESTAMPTZ", nil
	case storeBool:
		return "BOOLEAN", nil
	case storeInt, storeUint:
		if t.Size() <= 4 {
			return "INTEGER", nil
		}

		return "BIGINT", nil
	case storeFloat:
		if t.Kind() == reflect.Float32 {
			return "REAL", nil
		}

		return "DOUBLE PRECISION", nil
	case storeText:
		switch {
		case t == uuidType:
			return "UUID", nil
		case c.Length > 0:
			return "VARCHAR(" + strconv.Itoa(c.Length) + ")", nil
		default:
			return "TEXT", nil
		}
	case storeBytes:
		return "BYTEA", nil
	case storeJSON:
		return "JSONB", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, c.Type)
	}
}

// storageClass is how a Go value is kept in a column.
type storageClass int

const (
	storeUnsupported storageClass = iota
	storeTime
	storeText
	storeBool
	storeInt
	storeUint
	storeFloat
	storeBytes
	storeJSON
)

var (
	timeType            = reflect.TypeFor[time.Time]()
	uuidType            = reflect.TypeFor[uuid.UUID]()
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// base strips one level of pointer.
func base(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t.Elem()
	}

	return t
}

func storage(t reflect.Type) storageClass {
	t = base(t)

	switch {
	case t == timeType:
		return storeTime
	case t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType):
		return storeText
	}

	switch t.Kind() {
	case reflect.Bool:
		return storeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return storeInt
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return storeUint
	case reflect.Float32, reflect.Float64:
		return storeFloat
	case reflect.String:
		return storeText
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return storeBytes
		}

		return storeJSON
	case reflect.Array, reflect.Map, reflect.Struct, reflect.Interface:
		return storeJSON
	default:
		return storeUnsupported
	}
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
