package store

import "errors"

var (
	ErrUnknownDialect  = errors.New("store: unknown dialect")
	ErrUnsupportedType = errors.New("store: unsupported column type")
	ErrScan            = errors.New("store: cannot decode column value")
	ErrNotColumn       = errors.New("store: attribute is not a column")
	ErrAbstractClass   = errors.New("store: class has no table")
	ErrKeyMismatch     = errors.New("store: key values do not match the primary key")
	ErrNotFound        = errors.New("store: record not found")
)
