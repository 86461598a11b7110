// Package manifest records the persistence schema of a set of classes in a
// YAML lock file and reports drift between the lock and the current classes.
package manifest

import (
	"fmt"
	"slices"
	"strings"

	"crucible/internal/common"
	"crucible/model"
)

// CurrentVersion is written to new manifests.
const CurrentVersion = "1"

// Manifest is the locked schema.
type Manifest struct {
	Version string  `yaml:"version"`
	Classes []Class `yaml:"classes"`
}

// Class is the locked form of a persistence class.
type Class struct {
	Name          string      `yaml:"name"`
	Mode          string      `yaml:"mode"`
	Table         string      `yaml:"table,omitempty"`
	Parent        string      `yaml:"parent,omitempty"`
	Discriminator string      `yaml:"discriminator,omitempty"`
	Identity      string      `yaml:"identity,omitempty"`
	Attributes    []Attribute `yaml:"attributes"`
}

// Attribute is the locked form of a class attribute.
type Attribute struct {
	Name          string `yaml:"name"`
	Kind          string `yaml:"kind"`
	Type          string `yaml:"type"`
	Column        string `yaml:"column,omitempty"`
	PrimaryKey    bool   `yaml:"primary_key,omitempty"`
	Nullable      bool   `yaml:"nullable,omitempty"`
	ForeignKey    string `yaml:"foreign_key,omitempty"`
	Target        string `yaml:"target,omitempty"`
	BackPopulates string `yaml:"back_populates,omitempty"`
}

// FromClasses builds a manifest of the classes, ordered by name.
func FromClasses(classes []*model.Class) *Manifest {
	m := &Manifest{Version: CurrentVersion}

	for _, cls := range classes {
		m.Classes = append(m.Classes, fromClass(cls))
	}

	slices.SortFunc(m.Classes, func(a, b Class) int { return strings.Compare(a.Name, b.Name) })

	return m
}

// Class returns the locked class with the given name.
func (m *Manifest) Class(name string) (*Class, bool) {
	for i := range m.Classes {
		if m.Classes[i].Name == name {
			return &m.Classes[i], true
		}
	}

	return nil, false
}

// Attribute returns the locked attribute with the given name.
func (c *Class) Attribute(name string) (*Attribute, bool) {
	for i := range c.Attributes {
		if c.Attributes[i].Name == name {
			return &c.Attributes[i], true
		}
	}

	return nil, false
}

func fromClass(cls *model.Class) Class {
	out := Class{
		Name: cls.Name,
		Mode: cls.Mode.String(),
	}

	if cls.Table != nil {
		out.Table = cls.Table.QualifiedName()
	}

	if cls.Parent != nil {
		out.Parent = cls.Parent.Name
	}

	out.Discriminator = cls.Params.PolymorphicOn
	if id := cls.Identity(); id != nil {
		out.Identity = fmt.Sprint(id)
	}

	for _, attr := range cls.Attributes() {
		out.Attributes = append(out.Attributes, fromAttribute(attr))
	}

	return out
}

func fromAttribute(attr *model.Attribute) Attribute {
	out := Attribute{
		Name: attr.Name,
		Kind: attr.Kind.String(),
		Type: common.TypeName(attr.Type),
	}

	switch attr.Kind {
	case model.KindColumn:
		if c := attr.Column; c != nil {
			out.Column = c.Name
			out.PrimaryKey = c.PrimaryKey
			out.Nullable = c.Nullable
			out.ForeignKey = c.ForeignKey
		}
	case model.KindRelationship:
		if attr.Target != nil {
			out.Target = attr.Target.Name
		}

		out.BackPopulates = attr.Relation.BackPopulates
	}

	return out
}
