package convert

import (
	"fmt"
	"reflect"
	"strconv"

	"crucible/options"
)

var emptyStruct = reflect.ValueOf(struct{}{})

// SequenceFactory converts between slices, arrays and sets (map[T]struct{})
// element by element. The result is always a new container.
type SequenceFactory struct{}

func (SequenceFactory) Matches(src, dst reflect.Type) bool {
	return Dispatch(src, dst) == DispatcherSequence ||
		(src == dst && isSequence(src))
}

func (SequenceFactory) Build(src, dst reflect.Type, r Resolver) (Converter, bool) {
	lenient := r.Registry().Coercions().Has(options.CategoryUnsafeArray)

	if src.Kind() == reflect.Array && dst.Kind() == reflect.Array && src.Len() != dst.Len() && !lenient {
		return nil, false
	}

	elem, ok := r.Resolve(seqElem(src), seqElem(dst))
	if !ok {
		return nil, false
	}

	return &sequence{src: src, dst: dst, elem: elem, lenient: lenient}, true
}

func seqElem(t reflect.Type) reflect.Type {
	if isSet(t) {
		return t.Key()
	}

	return t.Elem()
}

type sequence struct {
	src, dst reflect.Type
	elem     Converter
	lenient  bool
}

func (s *sequence) Convert(scope *Scope, src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() {
		return reflect.Value{}, failure(s.src, s.dst, ErrMissingValue)
	}

	if src.Kind() != reflect.Array && src.IsNil() {
		return reflect.Zero(s.dst), nil
	}

	items, err := s.elements(scope, src)
	if err != nil {
		return reflect.Value{}, err
	}

	switch {
	case isSet(s.dst):
		out := reflect.MakeMapWithSize(s.dst, len(items))
		for _, item := range items {
			out.SetMapIndex(item, emptyStruct.Convert(s.dst.Elem()))
		}

		return out, nil

	case s.dst.Kind() == reflect.Array:
		if len(items) != s.dst.Len() && !s.lenient {
			return reflect.Value{}, failure(s.src, s.dst,
				fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(items), s.dst.Len()))
		}

		out := reflect.New(s.dst).Elem()
		for i := 0; i < len(items) && i < s.dst.Len(); i++ {
			out.Index(i).Set(items[i])
		}

		return out, nil

	default:
		out := reflect.MakeSlice(s.dst, len(items), len(items))
		for i, item := range items {
			out.Index(i).Set(item)
		}

		return out, nil
	}
}

func (s *sequence) elements(scope *Scope, src reflect.Value) ([]reflect.Value, error) {
	if isSet(s.src) {
		items := make([]reflect.Value, 0, src.Len())

		iter := src.MapRange()
		for iter.Next() {
			v, err := s.elem.Convert(scope, iter.Key())
			if err != nil {
				return nil, atPath(err, fmt.Sprintf("[%v]", iter.Key()))
			}

			items = append(items, v)
		}

		return items, nil
	}

	items := make([]reflect.Value, src.Len())
	for i := range src.Len() {
		v, err := s.elem.Convert(scope, src.Index(i))
		if err != nil {
			return nil, atPath(err, "["+strconv.Itoa(i)+"]")
		}

		items[i] = v
	}

	return items, nil
}
