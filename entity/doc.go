// Package entity maps Go structs to persistence records and back.
//
// An Entity is a struct type registered with Define together with an explicit
// descriptor table: per-field options that rename, exclude, retype or attach
// custom converters to a field. Derive turns the struct and its options into
// an ordered list of Descriptors, and the Entity serves as the model.Source
// from which the persistence class is generated.
//
// ToPersistence converts an entity into a *model.Record, FromPersistence
// converts a record back. The reverse direction picks the most derived entity
// registered for the record class, so loading a Dog record as an Animal
// yields a *Dog. Both directions use a convert.Scope per top-level call, which
// keeps one result per source pointer and terminates reference cycles.
//
// Readonly[T] fields are never written on the forward path. A reverse
// conversion binds them to the source record and they load on first access.
// A Hybrid field maps onto a writable computed attribute and is written
// through its setter.
package entity
