package convert

import (
	"reflect"
	"strings"
)

// TagName is the struct tag consulted first when matching record fields.
const TagName = "crucible"

// RecordFactory converts typed records: struct to struct, map[string]V to
// struct and struct to map[string]V. Pointer fields of the destination are
// optional, every other field is required.
//
// Resolution fails closed when a required destination field has no source
// field, when a map source has unconstrained (interface) values and when the
// destination struct has unexported fields it could not fill.
type RecordFactory struct{}

func (RecordFactory) Matches(src, dst reflect.Type) bool {
	return Dispatch(src, dst) == DispatcherRecord || (src == dst && src.Kind() == reflect.Struct)
}

func (RecordFactory) Build(src, dst reflect.Type, r Resolver) (Converter, bool) {
	switch {
	case src.Kind() == reflect.Struct && dst.Kind() == reflect.Struct:
		return buildStructToStruct(src, dst, r)
	case src.Kind() == reflect.Map && dst.Kind() == reflect.Struct:
		return buildMapToStruct(src, dst, r)
	case src.Kind() == reflect.Struct && dst.Kind() == reflect.Map:
		return buildStructToMap(src, dst, r)
	default:
		return nil, false
	}
}

type fieldPlan struct {
	name     string
	key      string
	srcIndex int
	dstIndex int
	optional bool
	conv     Converter
}

func buildStructToStruct(src, dst reflect.Type, r Resolver) (Converter, bool) {
	if hasUnexported(dst) {
		return nil, false
	}

	rec := &record{src: src, dst: dst}

	for i := range dst.NumField() {
		df := dst.Field(i)
		if !df.IsExported() {
			continue
		}

		match := matchField(src, df)
		if !match.Found {
			if df.Type.Kind() == reflect.Pointer {
				continue
			}

			return nil, false
		}

		sf := src.Field(match.SrcIndex)

		conv, ok := r.Resolve(sf.Type, df.Type)
		if !ok {
			return nil, false
		}

		rec.fields = append(rec.fields, fieldPlan{name: df.Name, srcIndex: match.SrcIndex, dstIndex: i, conv: conv})
	}

	return rec, true
}

func buildMapToStruct(src, dst reflect.Type, r Resolver) (Converter, bool) {
	if hasUnexported(dst) || (src.Elem().Kind() == reflect.Interface && !r.Registry().isUnion(src.Elem())) {
		return nil, false
	}

	rec := &record{src: src, dst: dst}

	for i := range dst.NumField() {
		df := dst.Field(i)
		if !df.IsExported() {
			continue
		}

		conv, ok := r.Resolve(src.Elem(), df.Type)
		if !ok {
			return nil, false
		}

		rec.fields = append(rec.fields, fieldPlan{
			name:     df.Name,
			key:      fieldKey(df),
			dstIndex: i,
			optional: df.Type.Kind() == reflect.Pointer,
			conv:     conv,
		})
	}

	return rec, true
}

func buildStructToMap(src, dst reflect.Type, r Resolver) (Converter, bool) {
	rec := &record{src: src, dst: dst}

	for i := range src.NumField() {
		sf := src.Field(i)
		if !sf.IsExported() {
			continue
		}

		conv, ok := r.Resolve(sf.Type, dst.Elem())
		if !ok {
			return nil, false
		}

		rec.fields = append(rec.fields, fieldPlan{
			name:     sf.Name,
			key:      fieldKey(sf),
			srcIndex: i,
			optional: sf.Type.Kind() == reflect.Pointer,
			conv:     conv,
		})
	}

	return rec, true
}

func hasUnexported(t reflect.Type) bool {
	for i := range t.NumField() {
		if !t.Field(i).IsExported() {
			return true
		}
	}

	return false
}

type record struct {
	src, dst reflect.Type
	fields   []fieldPlan
}

func (rec *record) Convert(scope *Scope, src reflect.Value) (reflect.Value, error) {
	if !src.IsValid() {
		return reflect.Value{}, failure(rec.src, rec.dst, ErrMissingValue)
	}

	switch {
	case rec.src.Kind() == reflect.Map:
		return rec.fromMap(scope, src)
	case rec.dst.Kind() == reflect.Map:
		return rec.toMap(scope, src)
	}

	out := reflect.New(rec.dst).Elem()

	for _, f := range rec.fields {
		v, err := f.conv.Convert(scope, src.Field(f.srcIndex))
		if err != nil {
			return reflect.Value{}, atPath(err, f.name)
		}

		out.Field(f.dstIndex).Set(v)
	}

	return out, nil
}

func (rec *record) fromMap(scope *Scope, src reflect.Value) (reflect.Value, error) {
	out := reflect.New(rec.dst).Elem()

	for _, f := range rec.fields {
		mv := src.MapIndex(reflect.ValueOf(f.key).Convert(rec.src.Key()))
		if !mv.IsValid() {
			if f.optional {
				continue
			}

			return reflect.Value{}, failure(rec.src, rec.dst, &MissingKeyError{Key: f.key, Dst: rec.dst})
		}

		v, err := f.conv.Convert(scope, mv)
		if err != nil {
			return reflect.Value{}, atPath(err, f.name)
		}

		out.Field(f.dstIndex).Set(v)
	}

	return out, nil
}

func (rec *record) toMap(scope *Scope, src reflect.Value) (reflect.Value, error) {
	out := reflect.MakeMapWithSize(rec.dst, len(rec.fields))

	for _, f := range rec.fields {
		fv := src.Field(f.srcIndex)
		if f.optional && fv.IsNil() {
			continue
		}

		v, err := f.conv.Convert(scope, fv)
		if err != nil {
			return reflect.Value{}, atPath(err, f.name)
		}

		out.SetMapIndex(reflect.ValueOf(f.key).Convert(rec.dst.Key()), v)
	}

	return out, nil
}

// FieldMatch is the outcome of looking a destination field up on a source struct.
type FieldMatch struct {
	SrcName  string
	SrcIndex int
	Found    bool
}

// matchField tries: `crucible:"SrcName"`, json tag match, exact name, case-insensitive name.
// Only exported top-level source fields take part.
func matchField(src reflect.Type, dstField reflect.StructField) FieldMatch {
	exported := func(yield func(int, reflect.StructField) bool) {
		for i := range src.NumField() {
			if sf := src.Field(i); sf.IsExported() && !yield(i, sf) {
				return
			}
		}
	}

	// 1) crucible tag
	if tag := tagName(dstField, TagName); tag != "" {
		for i, sf := range exported {
			if sf.Name == tag || tagName(sf, TagName) == tag {
				return FieldMatch{SrcName: sf.Name, SrcIndex: i, Found: true}
			}
		}
	}

	// 2) json tag (match by json name)
	if dstJSON := tagName(dstField, "json"); dstJSON != "" {
		for i, sf := range exported {
			if tagName(sf, "json") == dstJSON {
				return FieldMatch{SrcName: sf.Name, SrcIndex: i, Found: true}
			}
		}
	}

	// 3) exact name
	for i, sf := range exported {
		if sf.Name == dstField.Name {
			return FieldMatch{SrcName: sf.Name, SrcIndex: i, Found: true}
		}
	}

	// 4) case-insensitive
	for i, sf := range exported {
		if strings.EqualFold(sf.Name, dstField.Name) {
			return FieldMatch{SrcName: sf.Name, SrcIndex: i, Found: true}
		}
	}

	return FieldMatch{}
}

// fieldKey is the mapping key a record field reads from or writes to.
func fieldKey(f reflect.StructField) string {
	if tag := tagName(f, TagName); tag != "" {
		return tag
	}

	if tag := tagName(f, "json"); tag != "" {
		return tag
	}

	return f.Name
}

func tagName(f reflect.StructField, key string) string {
	tag := f.Tag.Get(key)
	if tag == "" || tag == "-" {
		return ""
	}
	// trim options
	if idx := strings.IndexByte(tag, ','); idx >= 0 {
		tag = tag[:idx]
	}
	return tag
}
