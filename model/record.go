package model

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// Record is an instance of a persistence class. It holds attribute values
// keyed by attribute name. A Record is not safe for concurrent mutation.
type Record struct {
	class  *Class
	values map[string]any
}

// Class returns the class of the record.
func (r *Record) Class() *Class { return r.class }

// Has reports whether a column or relationship value was set.
func (r *Record) Has(name string) bool {
	_, ok := r.values[name]

	return ok
}

// Get returns the value of an attribute. Computed attributes are evaluated on
// every call. Unset columns read as nil and unset relationships as a typed
// nil.
func (r *Record) Get(name string) (any, error) {
	attr, err := r.attribute(name)
	if err != nil {
		return nil, err
	}

	if attr.Kind == KindComputed {
		v, err := attr.Compute(r)
		if err != nil {
			return nil, attributeError(r.class.Name, name, err)
		}

		return v, nil
	}

	if v, ok := r.values[name]; ok {
		return v, nil
	}

	if attr.Kind == KindRelationship {
		return reflect.Zero(attr.Type).Interface(), nil
	}

	return nil, nil
}

// Value returns the attribute value typed as the attribute type. Unset
// values are the zero value.
func (r *Record) Value(name string) (reflect.Value, error) {
	attr, err := r.attribute(name)
	if err != nil {
		return reflect.Value{}, err
	}

	v, err := r.Get(name)
	if err != nil {
		return reflect.Value{}, err
	}

	out := reflect.New(attr.Type).Elem()
	if v == nil {
		return out, nil
	}

	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(attr.Type) {
		return reflect.Value{}, attributeError(r.class.Name, name,
			fmt.Errorf("%w: %s is not %s", ErrAttributeType, rv.Type(), attr.Type))
	}

	out.Set(rv)

	return out, nil
}

// Set assigns an attribute value after checking it against the attribute
// type. A nil v clears nilable attributes.
func (r *Record) Set(name string, v any) error {
	return r.SetValue(name, reflect.ValueOf(v))
}

// SetValue is Set for reflected values. An invalid v stands for nil.
func (r *Record) SetValue(name string, v reflect.Value) error {
	attr, err := r.attribute(name)
	if err != nil {
		return err
	}

	if attr.Kind == KindComputed && attr.Assign == nil {
		return attributeError(r.class.Name, name, ErrReadonlyAttribute)
	}

	if !v.IsValid() {
		if !nilable(attr.Type) {
			return attributeError(r.class.Name, name, fmt.Errorf("%w: nil for %s", ErrAttributeType, attr.Type))
		}

		if attr.Kind == KindComputed {
			return r.assign(attr, nil)
		}

		r.values[name] = reflect.Zero(attr.Type).Interface()

		return nil
	}

	if !v.Type().AssignableTo(attr.Type) {
		return attributeError(r.class.Name, name,
			fmt.Errorf("%w: %s is not %s", ErrAttributeType, v.Type(), attr.Type))
	}

	switch attr.Kind {
	case KindComputed:
		return r.assign(attr, v.Interface())
	case KindRelationship:
		if err := r.checkTargets(attr, v); err != nil {
			return err
		}
	}

	r.values[name] = v.Interface()

	return nil
}

func (r *Record) assign(attr *Attribute, v any) error {
	if err := attr.Assign(r, v); err != nil {
		return attributeError(r.class.Name, attr.Name, err)
	}

	return nil
}

// Link relates target to r through the relationship name and populates the
// mirrored relationship on target. A to-one relationship also copies the
// target primary key into its foreign key attribute.
func (r *Record) Link(name string, target *Record) error {
	attr, err := r.attribute(name)
	if err != nil {
		return err
	}

	if attr.Kind != KindRelationship {
		return attributeError(r.class.Name, name, ErrNotRelationship)
	}

	if target == nil {
		if attr.Many() {
			return attributeError(r.class.Name, name, fmt.Errorf("%w: nil collection member", ErrAttributeType))
		}

		delete(r.values, name)

		return nil
	}

	if err := r.attach(attr, target); err != nil {
		return err
	}

	if attr.Relation.BackPopulates == "" {
		return nil
	}

	back, err := target.attribute(attr.Relation.BackPopulates)
	if err != nil {
		return err
	}

	if back.Kind != KindRelationship {
		return attributeError(target.class.Name, back.Name, ErrNotRelationship)
	}

	return target.attach(back, r)
}

// Values returns a copy of the column values that were set.
func (r *Record) Values() map[string]any {
	out := make(map[string]any, len(r.values))

	for _, attr := range r.class.attrs {
		if v, ok := r.values[attr.Name]; ok && attr.Kind == KindColumn {
			out[attr.Name] = v
		}
	}

	return out
}

func (r *Record) String() string {
	var b strings.Builder

	b.WriteString(r.class.Name)
	b.WriteByte('{')

	first := true

	for _, attr := range r.class.attrs {
		v, ok := r.values[attr.Name]
		if !ok || attr.Kind != KindColumn {
			continue
		}

		if !first {
			b.WriteString(", ")
		}

		first = false

		fmt.Fprintf(&b, "%s=%v", attr.Name, v)
	}

	b.WriteByte('}')

	return b.String()
}

func (r *Record) attribute(name string) (*Attribute, error) {
	if r == nil || r.class == nil {
		return nil, fmt.Errorf("%w: %s on nil record", ErrUnknownAttribute, name)
	}

	attr, ok := r.class.Attribute(name)
	if !ok {
		return nil, attributeError(r.class.Name, name, ErrUnknownAttribute)
	}

	return attr, nil
}

// attach stores other in the relationship attr without back population.
func (r *Record) attach(attr *Attribute, other *Record) error {
	if err := r.checkTarget(attr, other); err != nil {
		return err
	}

	if !attr.Many() {
		r.values[attr.Name] = other

		return r.copyForeignKey(attr, other)
	}

	members, _ := r.values[attr.Name].([]*Record)
	if !slices.Contains(members, other) {
		r.values[attr.Name] = append(members, other)
	}

	return nil
}

func (r *Record) copyForeignKey(attr *Attribute, other *Record) error {
	if attr.Relation.ForeignKey == "" {
		return nil
	}

	pk := other.class.PrimaryKey()
	if len(pk) != 1 || !other.Has(pk[0].Name) {
		return nil
	}

	fk, err := r.attribute(attr.Relation.ForeignKey)
	if err != nil {
		return err
	}

	v := reflect.ValueOf(other.values[pk[0].Name])
	if fk.Type.Kind() == reflect.Pointer && v.Type() == fk.Type.Elem() {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		v = ptr
	}

	return r.SetValue(fk.Name, v)
}

func (r *Record) checkTargets(attr *Attribute, v reflect.Value) error {
	if !attr.Many() {
		if v.IsNil() {
			return nil
		}

		return r.checkTarget(attr, v.Interface().(*Record))
	}

	for _, other := range v.Interface().([]*Record) {
		if err := r.checkTarget(attr, other); err != nil {
			return err
		}
	}

	return nil
}

func (r *Record) checkTarget(attr *Attribute, other *Record) error {
	if attr.Target == nil {
		return attributeError(r.class.Name, attr.Name, ErrUnlinked)
	}

	if other == nil || !other.class.IsA(attr.Target) {
		return attributeError(r.class.Name, attr.Name, ErrWrongClass)
	}

	return nil
}
