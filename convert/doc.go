// Package convert resolves and runs value converters between pairs of Go
// types.
//
// A Registry holds an ordered list of factories. Resolve asks each factory in
// turn whether it can handle a (source, destination) pair; the first one that
// builds a converter wins and the result, success or failure, is cached for
// the registry lifetime.
//
// Built-in factories cover:
//   - Literal value sets declared with DeclareLiteral
//   - Pass-through of identical immutable types
//   - Pointers as optional values
//   - Interface unions declared with DeclareUnion
//   - Slices, arrays and sets, always duplicated
//   - Maps, always duplicated
//   - Typed records: struct to struct, map to struct and struct to map
//   - Opt-in primitive coercions from package primitive
//
// Converters receive a Scope, the identity map of one conversion call tree.
package convert
