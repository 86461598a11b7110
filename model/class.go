package model

import (
	"fmt"
	"reflect"
	"slices"
)

// Class is a persistence class: the explicit schema of one mapped type.
type Class struct {
	Name string
	Mode InheritanceMode
	// Parent is the class of the parent source, abstract or not.
	Parent *Class
	// Table is nil for abstract classes.
	Table  *Table
	Params Params

	source     Source
	attrs      []*Attribute
	byName     map[string]*Attribute
	children   []*Class
	identities map[any]*Class
}

func newClass(name string, src Source) *Class {
	return &Class{
		Name:   name,
		source: src,
		byName: make(map[string]*Attribute),
	}
}

// Source returns the source the class was built from.
func (c *Class) Source() Source { return c.source }

// Abstract reports whether the class carries configuration only.
func (c *Class) Abstract() bool { return c.Mode == ModeAbstract }

// Identity returns the polymorphic identity of the class, or nil.
func (c *Class) Identity() any { return c.Params.PolymorphicIdentity }

// Attributes returns the attributes in declaration order, inherited first.
func (c *Class) Attributes() []*Attribute {
	return slices.Clone(c.attrs)
}

// Attribute returns the attribute with the given name.
func (c *Class) Attribute(name string) (*Attribute, bool) {
	a, ok := c.byName[name]

	return a, ok
}

// PrimaryKey returns the primary key attributes.
func (c *Class) PrimaryKey() []*Attribute {
	var out []*Attribute

	for _, a := range c.attrs {
		if a.Kind == KindColumn && a.Column != nil && a.Column.PrimaryKey {
			out = append(out, a)
		}
	}

	return out
}

// Tables returns the tables a record of the class spans, root table first.
func (c *Class) Tables() []*Table {
	var out []*Table

	for k := c; k != nil; k = k.Parent {
		if k.Table != nil && !slices.Contains(out, k.Table) {
			out = append(out, k.Table)
		}

		if k.Mode == ModeConcrete {
			break
		}
	}

	slices.Reverse(out)

	return out
}

// Root returns the topmost mapped class of the inheritance tree.
func (c *Class) Root() *Class {
	root := c

	for k := c.Parent; k != nil; k = k.Parent {
		if k.Mode != ModeAbstract {
			root = k
		}
	}

	return root
}

// IsA reports whether c is other or inherits from it.
func (c *Class) IsA(other *Class) bool {
	for k := c; k != nil; k = k.Parent {
		if k == other {
			return true
		}
	}

	return false
}

// Subclasses returns the direct subclasses in build order.
func (c *Class) Subclasses() []*Class {
	return slices.Clone(c.children)
}

// Discriminator returns the attribute holding the polymorphic identity.
func (c *Class) Discriminator() (*Attribute, bool) {
	if c.Params.PolymorphicOn == "" {
		return nil, false
	}

	return c.Attribute(c.Params.PolymorphicOn)
}

// ByIdentity returns the class of the inheritance tree registered under
// the polymorphic identity v.
func (c *Class) ByIdentity(v any) (*Class, bool) {
	root := c.Root()
	if root.identities == nil {
		return nil, false
	}

	cls, ok := root.identities[v]

	return cls, ok
}

// AddComputed adds a computed attribute. It is meant for factory hooks.
func (c *Class) AddComputed(name string, typ reflect.Type, fn ComputeFunc) error {
	if fn == nil {
		return attributeError(c.Name, name, ErrReadonlyAttribute)
	}

	return c.add(&Attribute{
		AttributeSpec: AttributeSpec{Name: name, Kind: KindComputed, Type: typ, Compute: fn},
		Owner:         c,
	})
}

// AddWritableComputed adds a computed attribute whose values are written
// back through set.
func (c *Class) AddWritableComputed(name string, typ reflect.Type, get ComputeFunc, set AssignFunc) error {
	if get == nil || set == nil {
		return attributeError(c.Name, name, ErrReadonlyAttribute)
	}

	return c.add(&Attribute{
		AttributeSpec: AttributeSpec{Name: name, Kind: KindComputed, Type: typ, Compute: get, Assign: set},
		Owner:         c,
	})
}

// New returns an empty record of the class, with the discriminator set to
// the class identity.
func (c *Class) New() *Record {
	rec := &Record{class: c, values: make(map[string]any)}

	if d, ok := c.Discriminator(); ok && c.Identity() != nil {
		rec.values[d.Name] = c.Identity()
	}

	return rec
}

func (c *Class) String() string {
	if c.Table == nil {
		return c.Name
	}

	return fmt.Sprintf("%s(%s)", c.Name, c.Table.QualifiedName())
}

func (c *Class) add(a *Attribute) error {
	if _, exists := c.byName[a.Name]; exists {
		return attributeError(c.Name, a.Name, ErrDuplicateAttribute)
	}

	c.attrs = append(c.attrs, a)
	c.byName[a.Name] = a

	return nil
}
