// Package model builds persistence classes from entity definitions.
//
// A Class is the explicit schema object standing in for a generated mapped
// type: an ordered attribute list (columns, relationships and computed
// attributes), the table those columns live in, and the polymorphic
// configuration of its inheritance tree. A Record is one instance of a Class.
//
// The Generator builds each class at most once per Source and memoizes it.
// Relationship cycles are broken by linking a target class once it finishes
// building. Tables are grouped in a Metadata, which orders them by foreign key
// dependency for DDL.
//
// Supported inheritance modes:
//   - Single table: the subclass shares the parent table
//   - Joined: the subclass has its own table keyed by the parent primary key
//   - Concrete: the subclass has an independent table with all columns
package model
