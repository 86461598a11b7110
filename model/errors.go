package model

import (
	"errors"
	"fmt"

	"crucible/internal/diagnostic"
)

var (
	ErrConfiguration      = errors.New("invalid persistence configuration")
	ErrUnknownAttribute   = errors.New("unknown attribute")
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrAttributeType      = errors.New("value does not match attribute type")
	ErrReadonlyAttribute  = errors.New("attribute is computed")
	ErrNotRelationship    = errors.New("attribute is not a relationship")
	ErrUnlinked           = errors.New("relationship target is not built")
	ErrWrongClass         = errors.New("record class does not match relationship target")
	ErrDuplicateTable     = errors.New("table already registered")
	ErrDependencyCycle    = errors.New("foreign key cycle")
)

// ConfigurationError reports every problem found while building a class.
// It matches ErrConfiguration with errors.Is.
type ConfigurationError struct {
	Class       string
	Diagnostics diagnostic.Diagnostics
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("build %s: %v", e.Class, e.Diagnostics.Error())
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func attributeError(class, name string, err error) error {
	return fmt.Errorf("%s.%s: %w", class, name, err)
}
