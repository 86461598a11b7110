package entity

import (
	"fmt"
	"reflect"
	"strings"

	"crucible/convert"
	"crucible/model"
)

var anyType = reflect.TypeFor[any]()

// Validator is implemented by entities that check themselves after reverse
// conversion.
type Validator interface {
	Validate() error
}

// ToPersistence converts v, an entity or a pointer to one, into a record of
// its class. Readonly and excluded fields are never read. Entities reachable
// from v are converted once each within the call.
func (r *Registry) ToPersistence(v any) (*model.Record, error) {
	src := reflect.ValueOf(v)
	if !src.IsValid() || (src.Kind() == reflect.Pointer && src.IsNil()) {
		return nil, ErrNilEntity
	}

	if src.Kind() != reflect.Pointer {
		ptr := reflect.New(src.Type())
		ptr.Elem().Set(src)
		src = ptr
	}

	return r.toRecord(convert.NewScope(), src)
}

// FromPersistence converts rec into the most derived entity of its class.
// When as is set, the record class must be the class of as or inherit from
// it.
func (r *Registry) FromPersistence(rec *model.Record, as *Entity) (any, error) {
	if rec == nil {
		return nil, ErrNilRecord
	}

	out, err := r.fromRecord(convert.NewScope(), rec, as, anyType)
	if err != nil {
		return nil, err
	}

	return out.Interface(), nil
}

// Load converts rec into T: a pointer to an entity, an entity struct, or an
// interface bound with DefineInterface. A pointer T yields exactly that
// entity; an interface T yields the most derived entity implementing it.
func Load[T any](r *Registry, rec *model.Record) (T, error) {
	var zero T

	t := reflect.TypeFor[T]()

	as, ok := r.Entity(t)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrUnknownEntity, t)
	}

	if rec == nil {
		return zero, ErrNilRecord
	}

	dst := t
	if t.Kind() == reflect.Struct {
		dst = reflect.PointerTo(t)
	}

	out, err := r.fromRecord(convert.NewScope(), rec, as, dst)
	if err != nil {
		return zero, err
	}

	if t.Kind() == reflect.Struct {
		out = out.Elem()
	}

	return out.Interface().(T), nil
}

func (r *Registry) toRecord(scope *convert.Scope, src reflect.Value) (*model.Record, error) {
	if cached, ok := scope.Lookup(src, model.RecordType()); ok {
		return cached.Interface().(*model.Record), nil
	}

	e, ok := r.Entity(src.Type())
	if !ok || e.ptr != src.Type() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntity, src.Type())
	}

	p, err := e.resolve()
	if err != nil {
		return nil, err
	}

	rec := p.cls.New()
	scope.Remember(src, model.RecordType(), reflect.ValueOf(rec))

	obj := src.Elem()

	// columns first, so that linking a relationship can fill its foreign key
	for _, relations := range []bool{false, true} {
		for _, fp := range p.fields {
			d := fp.desc
			if d.Exclude || d.Readonly || (fp.attr.Kind == model.KindComputed && fp.attr.Assign == nil) {
				continue
			}

			if (fp.attr.Kind == model.KindRelationship) != relations {
				continue
			}

			if fp.toErr != nil {
				return nil, fieldError(e, d, fp.toErr)
			}

			fv := obj.FieldByIndex(d.Index)
			if fp.attr == p.discriminator && fv.IsZero() {
				continue
			}

			out, err := fp.to.Convert(scope, fv)
			if err != nil {
				return nil, fieldError(e, d, err)
			}

			if err := assignAttribute(rec, fp.attr, out); err != nil {
				return nil, fieldError(e, d, err)
			}
		}
	}

	return rec, nil
}

func assignAttribute(rec *model.Record, attr *model.Attribute, v reflect.Value) error {
	if attr.Kind != model.KindRelationship {
		return rec.SetValue(attr.Name, v)
	}

	if !v.IsValid() || v.IsNil() {
		return nil
	}

	if !attr.Many() {
		return rec.Link(attr.Name, v.Interface().(*model.Record))
	}

	for _, member := range v.Interface().([]*model.Record) {
		if err := rec.Link(attr.Name, member); err != nil {
			return err
		}
	}

	return nil
}

func (r *Registry) fromRecord(scope *convert.Scope, rec *model.Record, as *Entity, dst reflect.Type) (reflect.Value, error) {
	e, err := r.dispatch(rec, as, dst)
	if err != nil {
		return reflect.Value{}, err
	}

	src := reflect.ValueOf(rec)
	if cached, ok := scope.Lookup(src, e.ptr); ok {
		return fit(cached, dst), nil
	}

	p, err := e.resolve()
	if err != nil {
		return reflect.Value{}, err
	}

	out := reflect.New(e.typ)
	scope.Remember(src, e.ptr, out)

	if err := populate(scope, rec, e, p, out.Elem()); err != nil {
		return reflect.Value{}, err
	}

	if v, ok := out.Interface().(Validator); ok {
		if err := v.Validate(); err != nil {
			return reflect.Value{}, &convert.ConversionError{
				Src: model.RecordType(),
				Dst: e.ptr,
				Err: fmt.Errorf("%w: %w", convert.ErrRejected, err),
			}
		}
	}

	return fit(out, dst), nil
}

// dispatch picks the entity to build for rec: the entity of the record class,
// or of the class registered under the record's polymorphic identity,
// narrowed to the most derived ancestor that fits dst.
func (r *Registry) dispatch(rec *model.Record, as *Entity, dst reflect.Type) (*Entity, error) {
	cls := rec.Class()

	if attr, ok := cls.Discriminator(); ok && rec.Has(attr.Name) {
		if v, err := rec.Get(attr.Name); err == nil && v != nil {
			if sub, ok := cls.ByIdentity(v); ok && sub.IsA(cls) {
				cls = sub
			}
		}
	}

	var e *Entity

	for k := cls; k != nil && e == nil; k = k.Parent {
		e, _ = r.ofClass(k)
	}

	if e == nil {
		return nil, fmt.Errorf("%w: no entity for class %s", ErrClassMismatch, cls.Name)
	}

	if as != nil && !e.IsA(as) {
		asCls, err := r.Class(as)
		if err != nil {
			return nil, err
		}

		if !cls.IsA(asCls) {
			return nil, fmt.Errorf("%w: %s record as %s", ErrClassMismatch, cls.Name, as.Name)
		}

		// the class is shared with an entity attached to it as well
		e = as
	}

	for k := e; k != nil; k = k.parent {
		if dst.Kind() == reflect.Interface && !k.ptr.Implements(dst) {
			continue
		}

		if dst.Kind() != reflect.Interface && k.ptr != dst {
			continue
		}

		return k, nil
	}

	return nil, fmt.Errorf("%w: %s record into %s", ErrClassMismatch, cls.Name, dst)
}

func populate(scope *convert.Scope, rec *model.Record, e *Entity, p *plan, obj reflect.Value) error {
	for _, fp := range p.fields {
		d := fp.desc
		fv := obj.FieldByIndex(d.Index)

		switch {
		case d.Exclude:
			setDefault(fv, d)
		case d.Readonly:
			b := &binding{scope: scope, rec: rec, attr: fp.attr.Name, conv: fp.from}
			if fp.fromErr != nil {
				b.err = fieldError(e, d, fp.fromErr)
			}

			fv.Addr().Interface().(slot).bind(b)
		default:
			if err := readField(scope, rec, fp, fv); err != nil {
				return fieldError(e, d, err)
			}
		}
	}

	return nil
}

func readField(scope *convert.Scope, rec *model.Record, fp fieldPlan, fv reflect.Value) error {
	d, attr := fp.desc, fp.attr

	if fp.fromErr != nil {
		return fp.fromErr
	}

	_, known := rec.Class().Attribute(attr.Name)
	if !known || (attr.Kind != model.KindComputed && !rec.Has(attr.Name)) {
		switch {
		case d.Default != nil:
			setDefault(fv, d)
		case attr.Kind == model.KindRelationship || nilable(fv.Type()):
			// left zero
		default:
			return &convert.ConversionError{Src: attr.Type, Dst: d.DeclaredType, Err: convert.ErrMissingValue}
		}

		return nil
	}

	v, err := rec.Value(attr.Name)
	if err != nil {
		return err
	}

	out, err := fp.from.Convert(scope, v)
	if err != nil {
		return err
	}

	if !out.IsValid() {
		return nil
	}

	if !out.Type().AssignableTo(fv.Type()) {
		return &convert.ConversionError{Src: out.Type(), Dst: fv.Type(), Err: convert.ErrTypeMismatch}
	}

	fv.Set(out)

	return nil
}

func setDefault(fv reflect.Value, d Descriptor) {
	if d.Default == nil {
		return
	}

	if v := reflect.ValueOf(d.Default()); v.IsValid() {
		fv.Set(v)
	}
}

// fit stores v in a value of type dst, wrapping it into an interface.
func fit(v reflect.Value, dst reflect.Type) reflect.Value {
	if v.Type() == dst {
		return v
	}

	out := reflect.New(dst).Elem()
	out.Set(v)

	return out
}

// fieldError locates err at field d of e. Conversion errors are copied with
// the field prepended to their path, since plans keep resolution failures.
func fieldError(e *Entity, d Descriptor, err error) error {
	ce, ok := err.(*convert.ConversionError)
	if !ok {
		return fmt.Errorf("%s.%s: %w", e.Name, d.SourceName, err)
	}

	out := *ce

	switch {
	case out.Path == "":
		out.Path = d.SourceName
	case strings.HasPrefix(out.Path, "["):
		out.Path = d.SourceName + out.Path
	default:
		out.Path = d.SourceName + "." + out.Path
	}

	return &out
}
