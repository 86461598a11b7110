// Package store persists model records in a relational database.
//
// It stands outside the conversion core: it renders the DDL of a
// model.Metadata, inserts records and loads them back, dispatching
// polymorphic rows to the class their discriminator names. SQLite is served
// by modernc.org/sqlite and PostgreSQL by the pgx stdlib driver.
//
// Values are stored by their Go shape: numbers, strings, booleans and
// byte slices natively, time.Time as a timestamp, text marshalers such as
// uuid.UUID and ulid.ULID as text, and any other container as JSON.
package store
