package model

import (
	"crucible/internal/diagnostic"
)

// Source is anything the generator can build a class for. Sources are
// memoized by identity, so implementations are usually pointers.
type Source interface {
	Definition() Definition
}

// FactoryFunc customizes an automatically built class. Its result replaces
// the class.
type FactoryFunc func(base *Class) (*Class, error)

// Definition is the input of one class build.
type Definition struct {
	Name string
	// Parent is the source of the parent class, nil for a root.
	Parent Source
	Params Params
	// Attributes lists the attribute specs in order, inherited ones included.
	Attributes []AttributeSpec
	Factory    FactoryFunc
	// Existing attaches a class defined elsewhere; nothing is generated.
	Existing *Class
	// Diagnostics carries problems found while deriving the definition.
	Diagnostics diagnostic.Diagnostics
}

type staticSource struct{ def Definition }

func (s *staticSource) Definition() Definition { return s.def }

// NewSource returns a Source with a fixed definition.
func NewSource(def Definition) Source {
	return &staticSource{def: def}
}
