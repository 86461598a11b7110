// Package main provides the crucible command over the shop example domain.
//
// crucible maps domain entities onto relational persistence records:
//   - prints or applies the schema DDL for sqlite and postgres
//   - generates typed record wrappers
//   - locks the schema in a YAML manifest and checks it for drift
//   - runs a persistence round trip demo
package main

import (
	"os"

	"crucible/cli"
	"crucible/examples/shop"
)

func main() {
	os.Exit(cli.Execute(shop.NewRegistry, cli.WithDemo(shop.Demo)))
}
