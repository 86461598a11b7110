package convert

import (
	"fmt"
	"reflect"
	"slices"
)

// DeclareUnion registers interface I as a closed union of the member types,
// in preference order.
func DeclareUnion[I any](r *Registry, members ...reflect.Type) error {
	iface := reflect.TypeFor[I]()
	if iface.Kind() != reflect.Interface {
		return fmt.Errorf("%w: %s", ErrNotInterface, iface)
	}

	for _, m := range members {
		if m == nil || !m.Implements(iface) {
			return fmt.Errorf("%w: %v is not a member of %s", ErrNotMember, m, iface)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.unions[iface] = slices.Clone(members)
	r.cache.Clear()

	return nil
}

func (r *Registry) isUnion(t reflect.Type) bool {
	_, ok := r.unionMembers(t)

	return ok
}

func (r *Registry) unionMembers(t reflect.Type) ([]reflect.Type, bool) {
	if t.Kind() != reflect.Interface {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.unions[t]

	return members, ok
}

// UnionFactory converts through interfaces. For a declared union source each
// member is paired, at resolution time, with the first destination that has
// a converter; a destination union is tried member by member, identical
// member first. A plain interface destination accepts a duplicate of a
// concrete source that implements it.
type UnionFactory struct{}

func (UnionFactory) Matches(src, dst reflect.Type) bool {
	return src.Kind() == reflect.Interface || dst.Kind() == reflect.Interface
}

func (UnionFactory) Build(src, dst reflect.Type, r Resolver) (Converter, bool) {
	reg := r.Registry()
	srcMembers, srcUnion := reg.unionMembers(src)
	dstMembers, dstUnion := reg.unionMembers(dst)

	switch {
	case srcUnion:
		return buildUnionSource(src, dst, srcMembers, dstMembers, dstUnion, r)
	case src.Kind() == reflect.Interface:
		// a plain interface source cannot be proven convertible
		return nil, false
	case dstUnion:
		conv, ok := pairMember(src, dst, dstMembers, r)
		if !ok {
			return nil, false
		}

		return wrapInterface(conv, dst), true
	case src.Implements(dst):
		conv, ok := r.Resolve(src, src)
		if !ok {
			return nil, false
		}

		return wrapInterface(conv, dst), true
	default:
		return nil, false
	}
}

func buildUnionSource(
	src, dst reflect.Type,
	srcMembers, dstMembers []reflect.Type,
	dstUnion bool,
	r Resolver,
) (Converter, bool) {
	reg := r.Registry()

	if dstUnion && subsetOf(srcMembers, dstMembers) && allValueSafe(reg, srcMembers) {
		return &unionPass{src: src, dst: dst}, true
	}

	u := &union{src: src, dst: dst, branches: make(map[reflect.Type]Converter, len(srcMembers))}

	for _, m := range srcMembers {
		var (
			conv Converter
			ok   bool
		)

		if dstUnion {
			conv, ok = pairMember(m, dst, dstMembers, r)
		} else {
			conv, ok = r.Resolve(m, dst)
		}

		if !ok {
			return nil, false
		}

		u.branches[m] = conv
	}

	return u, true
}

// pairMember finds the destination member for one source type, preferring
// the identical member.
func pairMember(src, dst reflect.Type, dstMembers []reflect.Type, r Resolver) (Converter, bool) {
	if slices.Contains(dstMembers, src) {
		if conv, ok := r.Resolve(src, src); ok {
			return wrapInterface(conv, dst), true
		}
	}

	for _, d := range dstMembers {
		if d == src {
			continue
		}

		if conv, ok := r.Resolve(src, d); ok {
			return wrapInterface(conv, dst), true
		}
	}

	return nil, false
}

func subsetOf(sub, super []reflect.Type) bool {
	for _, t := range sub {
		if !slices.Contains(super, t) {
			return false
		}
	}

	return true
}

func allValueSafe(reg *Registry, types []reflect.Type) bool {
	for _, t := range types {
		if !reg.isValueSafe(t) {
			return false
		}
	}

	return true
}

func wrapInterface(conv Converter, iface reflect.Type) Converter {
	return ConverterFunc(func(scope *Scope, src reflect.Value) (reflect.Value, error) {
		v, err := conv.Convert(scope, src)
		if err != nil {
			return reflect.Value{}, err
		}

		return assign(v, iface), nil
	})
}

type unionPass struct{ src, dst reflect.Type }

func (u *unionPass) Convert(_ *Scope, src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() || src.IsNil() {
		return reflect.Zero(u.dst), nil
	}

	return assign(src.Elem(), u.dst), nil
}

type union struct {
	src, dst reflect.Type
	branches map[reflect.Type]Converter
}

func (u *union) Convert(scope *Scope, src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() || (src.Kind() == reflect.Interface && src.IsNil()) {
		if u.dst.Kind() == reflect.Interface {
			return reflect.Zero(u.dst), nil
		}

		return reflect.Value{}, failure(u.src, u.dst, ErrMissingValue)
	}

	member := src
	if src.Kind() == reflect.Interface {
		member = src.Elem()
	}

	conv, ok := u.branches[member.Type()]
	if !ok {
		return reflect.Value{}, failure(member.Type(), u.dst, ErrUnpairedMember)
	}

	return conv.Convert(scope, member)
}
