package entity

import (
	"reflect"

	"crucible/convert"
	"crucible/model"
)

// factory converts between entity references and records: *E or a bound
// interface to *model.Record, and back.
type factory struct{ reg *Registry }

func (f factory) Matches(src, dst reflect.Type) bool {
	switch {
	case dst == model.RecordType():
		return f.entity(src) != nil
	case src == model.RecordType():
		return f.entity(dst) != nil
	default:
		return false
	}
}

func (f factory) Build(src, dst reflect.Type, _ convert.Resolver) (convert.Converter, bool) {
	if dst == model.RecordType() {
		return &toRecord{reg: f.reg, src: src}, true
	}

	return &fromRecord{reg: f.reg, as: f.entity(dst), dst: dst}, true
}

func (f factory) entity(t reflect.Type) *Entity {
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		return nil
	}

	e, _ := f.reg.Entity(t)

	return e
}

type toRecord struct {
	reg *Registry
	src reflect.Type
}

func (c *toRecord) Convert(scope *convert.Scope, src reflect.Value) (reflect.Value, error) {
	if src.Kind() == reflect.Interface {
		src = src.Elem()
	}

	if !src.IsValid() || src.IsNil() {
		return reflect.Zero(model.RecordType()), nil
	}

	rec, err := c.reg.toRecord(scope, src)
	if err != nil {
		return reflect.Value{}, err
	}

	return reflect.ValueOf(rec), nil
}

type fromRecord struct {
	reg *Registry
	as  *Entity
	dst reflect.Type
}

func (c *fromRecord) Convert(scope *convert.Scope, src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() || src.IsNil() {
		return reflect.Zero(c.dst), nil
	}

	return c.reg.fromRecord(scope, src.Interface().(*model.Record), c.as, c.dst)
}
