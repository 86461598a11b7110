//go:build mage

// Package main provides build targets for crucible using Mage.
//
// Usage:
//
//	mage build            Compile the crucible binary to bin/
//	mage test             Run unit tests
//	mage testIntegration  Run tests against a postgres container
//	mage generate         Regenerate stringer output
//	mage ddl              Print the sqlite DDL of the shop domain
//	mage stubs            Generate typed record wrappers into ./records
//	mage clean            Remove build artifacts
package main

import (
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "crucible"
	binaryDir  = "bin"
	cmdDir     = "./cmd/crucible"
)

// Build compiles the crucible binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}

	return sh.RunV("go", "build", "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestIntegration runs the tests tagged integration. Docker is required.
func TestIntegration() error {
	return sh.RunV("go", "test", "-tags", "integration", "./internal/store/...")
}

// Generate runs go generate.
func Generate() error {
	return sh.RunV("go", "generate", "./...")
}

// DDL prints the schema of the shop domain.
func DDL() error {
	mg.Deps(Build)

	return sh.RunV(filepath.Join(binaryDir, binaryName), "ddl")
}

// Stubs generates typed record wrappers for the shop domain.
func Stubs() error {
	mg.Deps(Build)

	return sh.RunV(filepath.Join(binaryDir, binaryName), "stubs")
}

// Clean removes build artifacts.
func Clean() error {
	return os.RemoveAll(binaryDir)
}
