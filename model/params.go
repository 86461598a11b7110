package model

import (
	"fmt"
	"maps"

	"dario.cat/mergo"
)

// Params is the persistence configuration of one class.
//
// Along an inheritance chain the values are merged, the most derived class
// winning per key. Abstract, PolymorphicIdentity, ExtraAttributes and
// Constraints belong to the declaring class only.
type Params struct {
	TableName string
	Schema    string
	// Metadata groups the tables; the generator metadata is used when nil.
	Metadata *Metadata
	// PolymorphicOn names the discriminator attribute.
	PolymorphicOn string
	// Concrete gives the class an independent table.
	Concrete bool
	// MapperArgs and Options are carried verbatim for adapters.
	MapperArgs map[string]any
	Options    map[string]any

	Abstract            bool
	PolymorphicIdentity any
	ExtraAttributes     []AttributeSpec
	Constraints         []Constraint
}

// inheritable returns the part of p a subclass inherits.
func (p Params) inheritable() Params {
	return Params{
		TableName:     p.TableName,
		Schema:        p.Schema,
		PolymorphicOn: p.PolymorphicOn,
		Concrete:      p.Concrete,
		MapperArgs:    maps.Clone(p.MapperArgs),
		Options:       maps.Clone(p.Options),
	}
}

// MergeParams merges own over the inheritable part of parent.
func MergeParams(parent, own Params) (Params, error) {
	merged := parent.inheritable()

	// pointers are merged by hand, mergo would descend into the shared value
	layer := own
	layer.Metadata = nil
	layer.MapperArgs = maps.Clone(own.MapperArgs)
	layer.Options = maps.Clone(own.Options)

	if err := mergo.Merge(&merged, layer, mergo.WithOverride); err != nil {
		return Params{}, fmt.Errorf("merge params: %w", err)
	}

	merged.Metadata = parent.Metadata
	if own.Metadata != nil {
		merged.Metadata = own.Metadata
	}

	return merged, nil
}
