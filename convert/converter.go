package convert

import (
	"fmt"
	"reflect"
)

// Converter turns a value of one type into a value of another.
// The source value always has the static source type of the resolved pair.
type Converter interface {
	Convert(scope *Scope, src reflect.Value) (reflect.Value, error)
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(scope *Scope, src reflect.Value) (reflect.Value, error)

func (f ConverterFunc) Convert(scope *Scope, src reflect.Value) (reflect.Value, error) {
	return f(scope, src)
}

// Factory builds converters for the type pairs it recognizes.
// Build may resolve nested pairs through r; it reports false when any
// required nested pair is unresolvable.
type Factory interface {
	Matches(src, dst reflect.Type) bool
	Build(src, dst reflect.Type, r Resolver) (Converter, bool)
}

// Resolver resolves nested type pairs while a factory builds.
type Resolver interface {
	Resolve(src, dst reflect.Type) (Converter, bool)
	Registry() *Registry
}

// Pair is a (source, destination) type pair.
type Pair struct{ Src, Dst reflect.Type }

func (p Pair) String() string {
	return fmt.Sprintf("%s -> %s", p.Src, p.Dst)
}

// Run converts v with c, checking that v can stand for the source type.
func Run[D any](c Converter, scope *Scope, v any) (D, error) {
	var zero D

	out, err := c.Convert(scope, reflect.ValueOf(v))
	if err != nil {
		return zero, err
	}

	if !out.IsValid() || (out.Kind() == reflect.Interface && out.IsNil()) {
		return zero, nil
	}

	d, ok := out.Interface().(D)
	if !ok {
		return zero, failure(out.Type(), reflect.TypeFor[D](), ErrTypeMismatch)
	}

	return d, nil
}

// assign stores v into a fresh value of type dst, wrapping into an interface
// when dst is one.
func assign(v reflect.Value, dst reflect.Type) reflect.Value {
	if v.IsValid() && v.Type() == dst {
		return v
	}

	out := reflect.New(dst).Elem()
	if v.IsValid() {
		out.Set(v)
	}

	return out
}

// deferred stands in for a pair whose resolution is still in progress
// further up the stack. It looks the finished converter up on first use.
type deferred struct {
	reg  *Registry
	pair Pair
}

func (d *deferred) Convert(scope *Scope, src reflect.Value) (reflect.Value, error) {
	conv, ok := d.reg.cached(d.pair)
	if !ok {
		return reflect.Value{}, failure(d.pair.Src, d.pair.Dst, ErrNoConverter)
	}

	return conv.Convert(scope, src)
}
