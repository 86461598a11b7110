package convert

import (
	"reflect"
)

// OptionalFactory treats pointers as optional values:
//   - *S to *D maps nil to nil and otherwise allocates a fresh *D
//   - *S to D fails with ErrMissingValue on nil
//   - S to *D wraps the converted value
type OptionalFactory struct{}

func (OptionalFactory) Matches(src, dst reflect.Type) bool {
	return Dispatch(src, dst) == DispatcherPointer
}

func (OptionalFactory) Build(src, dst reflect.Type, r Resolver) (Converter, bool) {
	srcPtr, dstPtr := src.Kind() == reflect.Pointer, dst.Kind() == reflect.Pointer

	inSrc, inDst := src, dst
	if srcPtr {
		inSrc = src.Elem()
	}

	if dstPtr {
		inDst = dst.Elem()
	}

	inner, ok := r.Resolve(inSrc, inDst)
	if !ok {
		return nil, false
	}

	return &optional{src: src, dst: dst, srcPtr: srcPtr, dstPtr: dstPtr, inner: inner}, true
}

type optional struct {
	src, dst       reflect.Type
	srcPtr, dstPtr bool
	inner          Converter
}

func (o *optional) Convert(scope *Scope, src reflect.Value) (reflect.Value, error) {
	if o.srcPtr && (!src.IsValid() || src.IsNil()) {
		if o.dstPtr {
			return reflect.Zero(o.dst), nil
		}

		return reflect.Value{}, failure(o.src, o.dst, ErrMissingValue)
	}

	if cached, ok := scope.Lookup(src, o.dst); ok {
		return cached, nil
	}

	in := src
	if o.srcPtr {
		in = src.Elem()
	}

	if !o.dstPtr {
		return o.inner.Convert(scope, in)
	}

	// register before filling so that cycles see the same pointer
	out := reflect.New(o.dst.Elem())
	scope.Remember(src, o.dst, out)

	v, err := o.inner.Convert(scope, in)
	if err != nil {
		return reflect.Value{}, err
	}

	out.Elem().Set(v)

	return out, nil
}
