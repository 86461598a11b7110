package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"crucible/model"
)

// Postgres error codes of objects created twice.
const (
	pgDuplicateObject = "42710"
	pgDuplicateTable  = "42P07"
)

// Store writes and reads persistence records through database/sql.
// It is safe for concurrent use.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger for executed statements.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps an open database.
func New(db *sql.DB, d Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: d,
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Open connects to dsn and checks the connection.
func Open(ctx context.Context, d Dialect, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open(d.Driver(), dsn)
	if err != nil {
		return nil, err
	}

	if d == SQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("store: connect %s: %w", d.Name(), err)
	}

	return New(db, d, opts...), nil
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the dialect of the store.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// CreateSchema creates the tables of md. Objects that already exist are
// skipped.
func (s *Store) CreateSchema(ctx context.Context, md *model.Metadata) error {
	stmts, err := DDL(s.dialect, md)
	if err != nil {
		return err
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && (pgErr.Code == pgDuplicateObject || pgErr.Code == pgDuplicateTable) {
				s.logger.Debug("store: ddl skipped", slog.String("reason", pgErr.Message))

				continue
			}

			return fmt.Errorf("store: apply ddl: %w", err)
		}
	}

	s.logger.Debug("store: schema created", slog.Int("statements", len(stmts)))

	return nil
}

// Insert writes the records in one transaction. A record spanning several
// tables gets one row per table, root table first. Unset columns are left
// to the database default.
func (s *Store) Insert(ctx context.Context, recs ...*model.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, rec := range recs {
		cls := rec.Class()

		tables := cls.Tables()
		if len(tables) == 0 {
			return fmt.Errorf("%w: %s", ErrAbstractClass, cls.Name)
		}

		for _, t := range tables {
			if err := s.insertRow(ctx, tx, rec, t); err != nil {
				return fmt.Errorf("store: insert %s into %s: %w", cls.Name, t.Name, err)
			}
		}
	}

	return tx.Commit()
}

func (s *Store) insertRow(ctx context.Context, tx *sql.Tx, rec *model.Record, t *model.Table) error {
	var (
		names []string
		marks []string
		args  []any
	)

	for _, c := range t.Columns {
		attr, ok := rec.Class().Attribute(c.Attribute)
		if !ok || attr.Kind != model.KindColumn || !rec.Has(c.Attribute) {
			continue
		}

		v, err := rec.Get(c.Attribute)
		if err != nil {
			return err
		}

		arg, err := encode(v, c.Type)
		if err != nil {
			return fmt.Errorf("%s: %w", c.Name, err)
		}

		names = append(names, quote(c.Name))
		args = append(args, arg)
		marks = append(marks, s.dialect.Placeholder(len(args)))
	}

	query := "INSERT INTO " + s.dialect.Table(t) + " DEFAULT VALUES"
	if len(names) > 0 {
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			s.dialect.Table(t), strings.Join(names, ", "), strings.Join(marks, ", "))
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	s.logger.Debug("store: row inserted", slog.String("table", t.Name), slog.Int("columns", len(names)))

	return nil
}

// Find returns the records of cls whose attribute equals value. Rows whose
// discriminator names a subclass are returned as records of that subclass.
func (s *Store) Find(ctx context.Context, cls *model.Class, attribute string, value any) ([]*model.Record, error) {
	attr, ok := cls.Attribute(attribute)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", model.ErrUnknownAttribute, cls.Name, attribute)
	}

	if attr.Kind != model.KindColumn {
		return nil, fmt.Errorf("%w: %s.%s", ErrNotColumn, cls.Name, attribute)
	}

	recs, err := s.query(ctx, cls, []condition{{attr: attr, value: value}})
	if err != nil {
		return nil, err
	}

	for i, rec := range recs {
		if recs[i], err = s.specialize(ctx, rec); err != nil {
			return nil, err
		}
	}

	return recs, nil
}

// Get returns the record of cls with the given primary key.
func (s *Store) Get(ctx context.Context, cls *model.Class, key ...any) (*model.Record, error) {
	pk := cls.PrimaryKey()
	if len(pk) == 0 || len(pk) != len(key) {
		return nil, fmt.Errorf("%w: %s has %d key columns, got %d values", ErrKeyMismatch, cls.Name, len(pk), len(key))
	}

	conds := make([]condition, len(pk))
	for i, attr := range pk {
		conds[i] = condition{attr: attr, value: key[i]}
	}

	recs, err := s.query(ctx, cls, conds)
	if err != nil {
		return nil, err
	}

	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s %v", ErrNotFound, cls.Name, key)
	}

	return s.specialize(ctx, recs[0])
}

// specialize reloads rec as the subclass its discriminator names.
func (s *Store) specialize(ctx context.Context, rec *model.Record) (*model.Record, error) {
	cls := rec.Class()

	d, ok := cls.Discriminator()
	if !ok {
		return rec, nil
	}

	identity, err := rec.Get(d.Name)
	if err != nil || identity == nil {
		return rec, err
	}

	sub, ok := cls.ByIdentity(identity)
	if !ok || sub == cls || !sub.IsA(cls) {
		return rec, nil
	}

	key := make([]any, 0, 1)
	for _, attr := range sub.PrimaryKey() {
		v, err := rec.Get(attr.Name)
		if err != nil {
			return nil, err
		}

		key = append(key, v)
	}

	return s.Get(ctx, sub, key...)
}

type condition struct {
	attr  *model.Attribute
	value any
}

func (s *Store) query(ctx context.Context, cls *model.Class, conds []condition) ([]*model.Record, error) {
	tables := cls.Tables()
	if len(tables) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAbstractClass, cls.Name)
	}

	alias := func(t *model.Table) string { return "t" + strconv.Itoa(slices.Index(tables, t)) }

	var (
		cols  []string
		attrs []*model.Attribute
	)

	for _, attr := range cls.Attributes() {
		if attr.Kind != model.KindColumn || attr.Column == nil || !slices.Contains(tables, attr.Column.Table) {
			continue
		}

		cols = append(cols, alias(attr.Column.Table)+"."+quote(attr.Column.Name))
		attrs = append(attrs, attr)
	}

	var b strings.Builder

	fmt.Fprintf(&b, "SELECT %s FROM %s t0", strings.Join(cols, ", "), s.dialect.Table(tables[0]))

	for i, t := range tables[1:] {
		var on []string
		for _, c := range t.PrimaryKey() {
			on = append(on, fmt.Sprintf("t%d.%s = t0.%s", i+1, quote(c.Name), quote(c.Name)))
		}

		fmt.Fprintf(&b, " JOIN %s t%d ON %s", s.dialect.Table(t), i+1, strings.Join(on, " AND "))
	}

	var (
		where []string
		args  []any
	)

	for _, cond := range conds {
		arg, err := encode(cond.value, cond.attr.Type)
		if err != nil {
			return nil, err
		}

		args = append(args, arg)
		where = append(where, alias(cond.attr.Column.Table)+"."+quote(cond.attr.Column.Name)+" = "+
			s.dialect.Placeholder(len(args)))
	}

	if filter, filterArgs := s.identityFilter(cls, alias, len(args)); filter != "" {
		where = append(where, filter)
		args = append(args, filterArgs...)
	}

	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("store: query %s: %w", cls.Name, err)
	}
	defer rows.Close()

	var out []*model.Record

	for rows.Next() {
		raw := make([]any, len(attrs))
		dest := make([]any, len(attrs))

		for i := range raw {
			dest[i] = &raw[i]
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}

		rec := cls.New()

		for i, attr := range attrs {
			v, err := decode(raw[i], attr.Type)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", cls.Name, attr.Name, err)
			}

			if err := rec.SetValue(attr.Name, v); err != nil {
				return nil, err
			}
		}

		out = append(out, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Debug("store: rows loaded", slog.String("class", cls.Name), slog.Int("rows", len(out)))

	return out, nil
}

// identityFilter restricts a single-table subclass to its own rows and the
// rows of its subclasses.
func (s *Store) identityFilter(cls *model.Class, alias func(*model.Table) string, offset int) (string, []any) {
	if cls.Mode != model.ModeSingleTable {
		return "", nil
	}

	d, ok := cls.Discriminator()
	if !ok {
		return "", nil
	}

	var identities []any

	var walk func(c *model.Class)
	walk = func(c *model.Class) {
		if id := c.Identity(); id != nil {
			identities = append(identities, id)
		}

		for _, sub := range c.Subclasses() {
			walk(sub)
		}
	}
	walk(cls)

	if len(identities) == 0 {
		return "", nil
	}

	marks := make([]string, len(identities))
	for i := range identities {
		marks[i] = s.dialect.Placeholder(offset + i + 1)
	}

	return fmt.Sprintf("%s.%s IN (%s)", alias(d.Column.Table), quote(d.Column.Name), strings.Join(marks, ", ")),
		identities
}
