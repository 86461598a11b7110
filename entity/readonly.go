package entity

import (
	"reflect"

	"github.com/goccy/go-json"

	"crucible/convert"
	"crucible/model"
)

// Readonly is a field populated only by reverse conversion. The value is
// loaded from the backing record on first access and cached for the lifetime
// of the entity; a zero Readonly has no backing record.
//
// A Readonly is not safe for concurrent first access.
type Readonly[T any] struct {
	bound  *binding
	loaded bool
	value  T
}

// binding ties a slot to the record and conversion call it came from.
type binding struct {
	scope *convert.Scope
	rec   *model.Record
	attr  string
	conv  convert.Converter
	// err is the resolution failure of conv, reported on access.
	err error
}

func (b *binding) load() (reflect.Value, error) {
	if b.err != nil {
		return reflect.Value{}, b.err
	}

	v, err := b.rec.Value(b.attr)
	if err != nil {
		return reflect.Value{}, err
	}

	return b.conv.Convert(b.scope, v)
}

// slot is implemented by *Readonly[T] for every T.
type slot interface {
	bind(b *binding)
	valueType() reflect.Type
}

var slotType = reflect.TypeFor[slot]()

// slotValue returns T when t is Readonly[T].
func slotValue(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() != reflect.Struct || !reflect.PointerTo(t).Implements(slotType) {
		return nil, false
	}

	return reflect.New(t).Interface().(slot).valueType(), true
}

func (r *Readonly[T]) bind(b *binding) {
	r.bound = b
	r.loaded = false
}

func (r *Readonly[T]) valueType() reflect.Type { return reflect.TypeFor[T]() }

// Get returns the value, loading it on first access. It fails with
// ErrNotBacked when the entity was not produced by reverse conversion.
func (r *Readonly[T]) Get() (T, error) {
	var zero T

	if r.loaded {
		return r.value, nil
	}

	if r.bound == nil {
		return zero, ErrNotBacked
	}

	v, err := r.bound.load()
	if err != nil {
		return zero, err
	}

	if v.IsValid() && !(v.Kind() == reflect.Interface && v.IsNil()) {
		r.value = v.Interface().(T)
	}

	r.loaded = true

	return r.value, nil
}

// MustGet is like Get but panics on error.
func (r *Readonly[T]) MustGet() T {
	v, err := r.Get()
	if err != nil {
		panic("entity: " + err.Error())
	}

	return v
}

// Loaded reports whether the value was already loaded.
func (r *Readonly[T]) Loaded() bool { return r.loaded }

// Backed reports whether the slot is bound to a record.
func (r *Readonly[T]) Backed() bool { return r.bound != nil }

// MarshalJSON renders the loaded value, or null before the first access.
func (r Readonly[T]) MarshalJSON() ([]byte, error) {
	if !r.loaded {
		return []byte("null"), nil
	}

	return json.Marshal(r.value)
}
