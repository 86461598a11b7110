package convert

import (
	"reflect"
	"unsafe"
)

// Scope is the identity map of one conversion call tree. It maps a source
// pointer, viewed as a given destination type, to the value it converted
// into. Converting the same pointer twice within a scope yields the same
// result, which preserves shared references and terminates cycles.
//
// A Scope is not safe for concurrent use. Methods on a nil Scope are no-ops.
type Scope struct {
	seen map[scopeKey]reflect.Value
}

type scopeKey struct {
	ptr unsafe.Pointer
	src reflect.Type
	dst reflect.Type
}

// NewScope creates an empty identity map.
func NewScope() *Scope {
	return &Scope{seen: make(map[scopeKey]reflect.Value)}
}

// Lookup returns the value src was already converted into for dst.
func (s *Scope) Lookup(src reflect.Value, dst reflect.Type) (reflect.Value, bool) {
	key, ok := identity(src, dst)
	if s == nil || !ok {
		return reflect.Value{}, false
	}

	v, ok := s.seen[key]

	return v, ok
}

// Remember records that src converts into out for dst. Values without
// pointer identity are ignored.
func (s *Scope) Remember(src reflect.Value, dst reflect.Type, out reflect.Value) {
	key, ok := identity(src, dst)
	if s == nil || !ok {
		return
	}

	s.seen[key] = out
}

// Len reports the number of remembered identities.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}

	return len(s.seen)
}

func identity(src reflect.Value, dst reflect.Type) (scopeKey, bool) {
	if !src.IsValid() || src.Kind() != reflect.Pointer || src.IsNil() {
		return scopeKey{}, false
	}

	return scopeKey{ptr: src.UnsafePointer(), src: src.Type(), dst: dst}, true
}
