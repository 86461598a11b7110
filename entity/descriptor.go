package entity

import (
	"log/slog"
	"reflect"
	"slices"
	"strings"

	"crucible/convert"
	"crucible/internal/diagnostic"
	"crucible/internal/match"
	"crucible/model"
)

// Descriptor says how one entity field maps to a persistence attribute.
type Descriptor struct {
	// SourceName is the Go field name.
	SourceName string
	// Index is the field index path within the entity struct.
	Index      []int
	TargetName string
	// DeclaredType is the field type, or T for a Readonly[T] field.
	DeclaredType reflect.Type
	TargetType   reflect.Type
	Exclude      bool
	Readonly     bool
	ToTarget     convert.Converter
	FromTarget   convert.Converter
	// Attribute is the attribute the field contributes to the persistence
	// class. It is nil for excluded fields and for readonly fields exposing
	// an attribute the class gets from elsewhere, such as a factory hook.
	Attribute *model.AttributeSpec
	// Default produces the value used when the record holds none.
	Default func() any
	// Owner is the entity that declared or last configured the field.
	Owner *Entity
}

func (d Descriptor) clone() Descriptor {
	d.Index = slices.Clone(d.Index)
	if d.Attribute != nil {
		spec := *d.Attribute
		d.Attribute = &spec
	}

	return d
}

// Derive returns the descriptors of e in field declaration order. The fields
// of an embedded parent entity or mixin struct are flattened at its position,
// and a field declared or configured again by e shadows the inherited
// descriptor in place.
//
// The result is memoized once it has no errors.
func Derive(e *Entity) ([]Descriptor, diagnostic.Diagnostics) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.derived != nil {
		return cloneAll(e.derived), e.warnings
	}

	descs, diags := e.derive()
	if !diags.HasErrors() {
		e.derived = descs
		e.warnings = diags

		return cloneAll(descs), diags
	}

	return descs, diags
}

func cloneAll(descs []Descriptor) []Descriptor {
	out := make([]Descriptor, len(descs))
	for i, d := range descs {
		out[i] = d.clone()
	}

	return out
}

func (e *Entity) derive() ([]Descriptor, diagnostic.Diagnostics) {
	var diags diagnostic.Diagnostics

	descs := e.collect(e.typ, nil, &diags)

	for _, fo := range e.cfg.fields {
		i := slices.IndexFunc(descs, func(d Descriptor) bool { return d.SourceName == fo.name })
		if i < 0 {
			diags.AddError(diagnostic.CodeUnknownField, e.Name, fo.name, "no such field",
				match.Suggest(fo.name, sourceNames(descs))...)

			continue
		}

		d := descs[i]
		if d.Owner != e {
			e.reg.logger.Debug("entity: field shadows parent descriptor",
				slog.String("entity", e.Name),
				slog.String("field", d.SourceName),
				slog.String("parent", d.Owner.Name),
			)

			d = d.clone()
			d.Owner = e
		}

		for _, opt := range fo.opts {
			if err := opt(&d); err != nil {
				diags.AddError(diagnostic.CodeUnsupportedField, e.Name, fo.name, err.Error())
			}
		}

		descs[i] = d
	}

	for i := range descs {
		if descs[i].Owner == e {
			e.finish(&descs[i], &diags)
		}
	}

	return descs, diags
}

// collect walks the fields of t. Index is the path of t within the entity.
func (e *Entity) collect(t reflect.Type, index []int, diags *diagnostic.Diagnostics) []Descriptor {
	var out []Descriptor

	for i := range t.NumField() {
		f := t.Field(i)
		idx := append(slices.Clone(index), i)

		name, skip := tagName(f)
		if skip {
			continue
		}

		if f.Anonymous {
			switch {
			case f.Type.Kind() == reflect.Pointer:
				diags.AddError(diagnostic.CodeUnsupportedField, e.Name, f.Name,
					"embedded pointers are not supported, embed the struct value")

				continue
			case e.parent != nil && index == nil && f.Type == e.parent.typ:
				out = e.inherit(out, idx, diags)

				continue
			case f.Type.Kind() == reflect.Struct:
				if _, ok := slotValue(f.Type); !ok {
					out = merge(out, e.collect(f.Type, idx, diags))

					continue
				}
			}
		}

		if !f.IsExported() {
			continue
		}

		out = merge(out, []Descriptor{e.describe(f, name, idx)})
	}

	return out
}

// inherit flattens the descriptors of the parent entity.
func (e *Entity) inherit(out []Descriptor, idx []int, diags *diagnostic.Diagnostics) []Descriptor {
	parent, pdiags := Derive(e.parent)
	if pdiags.HasErrors() {
		diags.Errorf(diagnostic.CodeUnsupportedField, e.Name, e.parent.Name,
			"parent entity is invalid: %v", pdiags.Error())
	}

	for i := range parent {
		parent[i].Index = append(slices.Clone(idx), parent[i].Index...)
	}

	return merge(out, parent)
}

// merge appends descs, replacing descriptors with the same source name in
// place.
func merge(out, descs []Descriptor) []Descriptor {
	for _, d := range descs {
		i := slices.IndexFunc(out, func(o Descriptor) bool { return o.SourceName == d.SourceName })
		if i < 0 {
			out = append(out, d)

			continue
		}

		out[i] = d
	}

	return out
}

func (e *Entity) describe(f reflect.StructField, name string, idx []int) Descriptor {
	d := Descriptor{
		SourceName:   f.Name,
		Index:        idx,
		TargetName:   name,
		DeclaredType: f.Type,
		Owner:        e,
	}

	if t, ok := slotValue(f.Type); ok {
		d.Readonly = true
		d.DeclaredType = t
	}

	d.TargetType = d.DeclaredType

	if target, many, ok := e.reg.relationTarget(d.DeclaredType); ok {
		d.TargetType = model.RecordType()
		if many {
			d.TargetType = model.RecordsType()
		}

		d.Attribute = &model.AttributeSpec{
			Kind:     model.KindRelationship,
			Type:     d.TargetType,
			Relation: model.RelationSpec{Target: target},
		}
	} else if !d.Readonly {
		d.Attribute = &model.AttributeSpec{Kind: model.KindColumn}
	}

	return d
}

// finish completes a descriptor owned by e once its options are applied.
func (e *Entity) finish(d *Descriptor, diags *diagnostic.Diagnostics) {
	if d.Exclude {
		d.Attribute = nil

		if d.Default == nil {
			diags.AddError(diagnostic.CodeExcludeWithoutDefault, e.Name, d.SourceName,
				"excluded field has no default")
		}

		return
	}

	if d.Attribute == nil {
		return
	}

	d.Attribute.Name = d.TargetName
	if d.Attribute.Kind != model.KindRelationship {
		d.Attribute.Type = d.TargetType
	}
}

// tagName reads the `crucible:"name"` tag. A "-" tag drops the field.
func tagName(f reflect.StructField) (string, bool) {
	tag, _, _ := strings.Cut(f.Tag.Get("crucible"), ",")

	switch tag {
	case "-":
		return "", true
	case "":
		return match.SnakeCase(f.Name), false
	default:
		return tag, false
	}
}

func sourceNames(descs []Descriptor) []string {
	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.SourceName
	}

	return names
}
