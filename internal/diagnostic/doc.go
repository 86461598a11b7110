// Package diagnostic collects configuration problems found while deriving
// entity schemas and building persistence classes.
//
// Problems are gathered rather than returned one by one so that a single
// failed build reports every misconfigured field at once:
//   - Excluded fields without a default
//   - Options naming fields the entity does not declare (with suggestions)
//   - Inheritance and discriminator misconfiguration
//   - Shadowed field definitions (info)
package diagnostic
