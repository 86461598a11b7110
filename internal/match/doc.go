// Package match provides identifier normalization, Levenshtein distance,
// reflect-level type compatibility scoring and candidate ranking.
//
// It backs two things:
//   - Column naming: SnakeCase turns Go field names into column names
//   - Diagnostics: Suggest proposes close field names for typos
package match
