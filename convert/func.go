package convert

import (
	"fmt"
	"path"
	"reflect"
	"runtime"
	"strings"

	"crucible/utils"
)

var errorType = reflect.TypeFor[error]()

// Func is a converter backed by a user supplied function.
type Func struct {
	Src, Dst     reflect.Type
	PackageAlias string
	Name         string
	HasBool      bool
	HasErr       bool

	fn reflect.Value
}

// ParseFunc inspects fn and wraps it as a converter.
//
// Supports signatures:
//   - func(src S) (dst D)
//   - func(src S) (dst D, bool)
//   - func(src S) (dst D, error)
//   - func(src S) (dst D, bool, error)
//
// A false bool rejects the value with ErrRejected.
func ParseFunc(fn any) (*Func, error) {
	if fn == nil {
		return nil, ErrNotAFunction
	}

	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func {
		return nil, ErrNotAFunction
	}

	if fnType.NumIn() != 1 || fnType.NumOut() == 0 || fnType.IsVariadic() {
		return nil, ErrNotAConverter
	}

	src := fnType.In(0)
	if src.Kind() == reflect.Pointer && src.Elem().Kind() == reflect.Pointer {
		return nil, ErrDoublePointer
	}

	dst := fnType.Out(0)
	if dst.Kind() == reflect.Pointer && dst.Elem().Kind() == reflect.Pointer {
		return nil, ErrDoublePointer
	}

	f := &Func{Src: src, Dst: dst, fn: fnVal}

	if fnPC := runtime.FuncForPC(fnVal.Pointer()); fnPC != nil {
		alias, name := utils.Unpack2(strings.SplitN(fnPC.Name(), ".", 2))
		f.Name = name
		f.PackageAlias = utils.Second(path.Split(alias))
	}

	switch fnType.NumOut() {
	default:
		return nil, ErrNotAConverter

	case 1:
		return f, nil

	case 2:
		last := fnType.Out(1)

		switch {
		default:
			return nil, ErrNotAConverter
		case last.Kind() == reflect.Bool:
			f.HasBool = true
		case isError(last):
			f.HasErr = true
		}
		return f, nil

	case 3:
		tbool, terr := fnType.Out(1), fnType.Out(2)
		if tbool.Kind() != reflect.Bool || !isError(terr) {
			return nil, ErrNotAConverter
		}

		f.HasBool = true
		f.HasErr = true
		return f, nil
	}
}

// MustParseFunc is like ParseFunc but panics on error.
func MustParseFunc(fn any) *Func {
	f, err := ParseFunc(fn)
	if err != nil {
		panic(fmt.Sprintf("convert: %T: %v", fn, err))
	}

	return f
}

func (f *Func) Convert(_ *Scope, src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() {
		src = reflect.New(f.Src).Elem()
	}

	if src.Type() != f.Src {
		if !src.Type().AssignableTo(f.Src) {
			return reflect.Value{}, failure(src.Type(), f.Dst, ErrTypeMismatch)
		}

		src = assign(src, f.Src)
	}

	out := f.fn.Call([]reflect.Value{src})

	if f.HasErr {
		if errVal := out[len(out)-1]; !isNil(errVal) {
			return reflect.Value{}, failure(f.Src, f.Dst, errVal.Interface().(error))
		}
	}

	if f.HasBool && !out[1].Bool() {
		return reflect.Value{}, failure(f.Src, f.Dst, ErrRejected)
	}

	return out[0], nil
}

func (f *Func) String() string {
	if f.PackageAlias == "" {
		return f.Name
	}

	return f.PackageAlias + "." + f.Name
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return !v.IsValid()
	}
}

func isError(t reflect.Type) bool {
	return t != nil && t.Implements(errorType)
}
