// Package gen renders typed Go wrappers for persistence classes.
//
// Generation uses text/template + go/format. Every mapped class yields one
// file with a struct embedding *model.Record and:
//   - a typed getter per attribute
//   - a setter per column
//   - a Link method per relationship
//   - an As constructor checking the record class
package gen
