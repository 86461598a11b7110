package entity

import (
	"fmt"
	"reflect"

	"github.com/goccy/go-json"

	"crucible/convert"
	"crucible/model"
)

// Option configures an entity at Define time.
type Option func(*config)

type config struct {
	name     string
	params   model.Params
	factory  model.FactoryFunc
	existing *model.Class
	fields   []fieldOptions
}

type fieldOptions struct {
	name string
	opts []FieldOption
}

// Name overrides the entity name, which defaults to the struct type name.
func Name(name string) Option {
	return func(c *config) { c.name = name }
}

// Table sets the table name.
func Table(name string) Option {
	return func(c *config) { c.params.TableName = name }
}

// Schema sets the table schema.
func Schema(name string) Option {
	return func(c *config) { c.params.Schema = name }
}

// Abstract marks the entity as configuration only: subclasses inherit its
// fields and parameters, but it has no table of its own.
func Abstract() Option {
	return func(c *config) { c.params.Abstract = true }
}

// PolymorphicOn names the discriminator attribute of an inheritance tree.
func PolymorphicOn(attr string) Option {
	return func(c *config) { c.params.PolymorphicOn = attr }
}

// Identity sets the polymorphic identity stored in the discriminator.
func Identity(v any) Option {
	return func(c *config) { c.params.PolymorphicIdentity = v }
}

// Concrete gives the subclass an independent table holding every column.
func Concrete() Option {
	return func(c *config) { c.params.Concrete = true }
}

// Metadata groups the entity table with others.
func Metadata(m *model.Metadata) Option {
	return func(c *config) { c.params.Metadata = m }
}

// WithParams replaces the persistence parameters. Options given after it
// still apply on top.
func WithParams(p model.Params) Option {
	return func(c *config) { c.params = p }
}

// ExtraAttributes injects attributes that have no entity field.
func ExtraAttributes(specs ...model.AttributeSpec) Option {
	return func(c *config) { c.params.ExtraAttributes = append(c.params.ExtraAttributes, specs...) }
}

// Constraints adds table constraints.
func Constraints(cs ...model.Constraint) Option {
	return func(c *config) { c.params.Constraints = append(c.params.Constraints, cs...) }
}

// Factory customizes the generated class.
func Factory(fn model.FactoryFunc) Option {
	return func(c *config) { c.factory = fn }
}

// Existing attaches the entity to a class defined elsewhere.
func Existing(cls *model.Class) Option {
	return func(c *config) { c.existing = cls }
}

// Field configures the field with the given Go name. Inherited fields may be
// configured too; the result shadows the parent descriptor.
func Field(name string, opts ...FieldOption) Option {
	return func(c *config) {
		c.fields = append(c.fields, fieldOptions{name: name, opts: opts})
	}
}

// FieldOption adjusts one descriptor.
type FieldOption func(d *Descriptor) error

func column(d *Descriptor, fn func(spec *model.ColumnSpec)) error {
	if d.Attribute == nil || d.Attribute.Kind != model.KindColumn {
		return fmt.Errorf("%w: column option on %s field", ErrInvalidOption, kindOf(d))
	}

	fn(&d.Attribute.Column)

	return nil
}

func kindOf(d *Descriptor) string {
	switch {
	case d.Attribute != nil:
		return d.Attribute.Kind.String()
	case d.Readonly:
		return "readonly"
	default:
		return "unmapped"
	}
}

// Column replaces the column configuration.
func Column(spec model.ColumnSpec) FieldOption {
	return func(d *Descriptor) error {
		return column(d, func(c *model.ColumnSpec) { *c = spec })
	}
}

func PrimaryKey() FieldOption {
	return func(d *Descriptor) error {
		return column(d, func(c *model.ColumnSpec) { c.PrimaryKey = true })
	}
}

func Nullable() FieldOption {
	return func(d *Descriptor) error {
		return column(d, func(c *model.ColumnSpec) { c.Nullable = true })
	}
}

func Unique() FieldOption {
	return func(d *Descriptor) error {
		return column(d, func(c *model.ColumnSpec) { c.Unique = true })
	}
}

func Indexed() FieldOption {
	return func(d *Descriptor) error {
		return column(d, func(c *model.ColumnSpec) { c.Index = true })
	}
}

func Length(n int) FieldOption {
	return func(d *Descriptor) error {
		return column(d, func(c *model.ColumnSpec) { c.Length = n })
	}
}

func SQLType(t string) FieldOption {
	return func(d *Descriptor) error {
		return column(d, func(c *model.ColumnSpec) { c.SQLType = t })
	}
}

// ForeignKey references another column as "table.column".
func ForeignKey(ref string) FieldOption {
	return func(d *Descriptor) error {
		return column(d, func(c *model.ColumnSpec) { c.ForeignKey = ref })
	}
}

// Relation configures a relationship field. The target is inferred from the
// field type unless spec names one.
func Relation(spec model.RelationSpec) FieldOption {
	return func(d *Descriptor) error {
		if d.Attribute == nil || d.Attribute.Kind != model.KindRelationship {
			if spec.Target == nil || (d.TargetType != model.RecordType() && d.TargetType != model.RecordsType()) {
				return fmt.Errorf("%w: %s is not an entity reference", ErrInvalidOption, d.DeclaredType)
			}

			d.Attribute = &model.AttributeSpec{Kind: model.KindRelationship, Type: d.TargetType}
		}

		if spec.Target != nil {
			d.Attribute.Relation.Target = spec.Target
		}

		d.Attribute.Relation.BackPopulates = spec.BackPopulates
		d.Attribute.Relation.ForeignKey = spec.ForeignKey

		return nil
	}
}

// BackPopulates names the relationship on the target mirroring this one.
func BackPopulates(name string) FieldOption {
	return func(d *Descriptor) error {
		if d.Attribute == nil || d.Attribute.Kind != model.KindRelationship {
			return fmt.Errorf("%w: back population on %s field", ErrInvalidOption, kindOf(d))
		}

		d.Attribute.Relation.BackPopulates = name

		return nil
	}
}

// RelationKey names the local column that receives the target primary key.
func RelationKey(attr string) FieldOption {
	return func(d *Descriptor) error {
		if d.Attribute == nil || d.Attribute.Kind != model.KindRelationship {
			return fmt.Errorf("%w: relation key on %s field", ErrInvalidOption, kindOf(d))
		}

		d.Attribute.Relation.ForeignKey = attr

		return nil
	}
}

// Computed exposes a computed attribute through a Readonly field.
func Computed(fn model.ComputeFunc) FieldOption {
	return func(d *Descriptor) error {
		if !d.Readonly {
			return fmt.Errorf("%w: computed attribute needs a Readonly field", ErrInvalidOption)
		}

		d.Attribute = &model.AttributeSpec{Kind: model.KindComputed, Compute: fn}

		return nil
	}
}

// Hybrid maps a plain field onto a writable computed attribute. Forward
// conversion writes the field through set; reverse conversion reads get.
func Hybrid(get model.ComputeFunc, set model.AssignFunc) FieldOption {
	return func(d *Descriptor) error {
		if d.Readonly {
			return fmt.Errorf("%w: writable computed attribute on a Readonly field", ErrInvalidOption)
		}

		if get == nil || set == nil {
			return fmt.Errorf("%w: writable computed attribute needs get and set", ErrInvalidOption)
		}

		d.Attribute = &model.AttributeSpec{Kind: model.KindComputed, Compute: get, Assign: set}

		return nil
	}
}

// Rename sets the persistence attribute name.
func Rename(name string) FieldOption {
	return func(d *Descriptor) error {
		if name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidOption)
		}

		d.TargetName = name

		return nil
	}
}

// TargetType sets the persistence attribute type.
func TargetType(t reflect.Type) FieldOption {
	return func(d *Descriptor) error {
		if t == nil {
			return fmt.Errorf("%w: nil target type", ErrInvalidOption)
		}

		if d.Attribute != nil && d.Attribute.Kind == model.KindRelationship {
			return fmt.Errorf("%w: relationship type is fixed", ErrInvalidOption)
		}

		d.TargetType = t

		return nil
	}
}

// Exclude keeps the field out of the persistence class. Reverse conversion
// fills it from its default, which must be set.
func Exclude() FieldOption {
	return func(d *Descriptor) error {
		d.Exclude = true

		return nil
	}
}

// Default is used when the record holds no value for the field.
func Default(v any) FieldOption {
	return func(d *Descriptor) error {
		if d.Readonly {
			return fmt.Errorf("%w: readonly fields have no default", ErrInvalidOption)
		}

		if v != nil && !reflect.TypeOf(v).AssignableTo(d.DeclaredType) {
			return fmt.Errorf("%w: default %T for %s", ErrInvalidOption, v, d.DeclaredType)
		}

		if v == nil && !nilable(d.DeclaredType) {
			return fmt.Errorf("%w: nil default for %s", ErrInvalidOption, d.DeclaredType)
		}

		d.Default = func() any { return v }

		return nil
	}
}

// DefaultFunc is like Default, calling fn for every value.
func DefaultFunc[T any](fn func() T) FieldOption {
	return func(d *Descriptor) error {
		if d.Readonly {
			return fmt.Errorf("%w: readonly fields have no default", ErrInvalidOption)
		}

		if !reflect.TypeFor[T]().AssignableTo(d.DeclaredType) {
			return fmt.Errorf("%w: default %s for %s", ErrInvalidOption, reflect.TypeFor[T](), d.DeclaredType)
		}

		d.Default = func() any { return fn() }

		return nil
	}
}

// ToTarget overrides the forward converter.
func ToTarget(c convert.Converter) FieldOption {
	return func(d *Descriptor) error {
		d.ToTarget = c

		return nil
	}
}

// FromTarget overrides the reverse converter.
func FromTarget(c convert.Converter) FieldOption {
	return func(d *Descriptor) error {
		d.FromTarget = c

		return nil
	}
}

// ConvertWith overrides both converters with plain functions, in any form
// convert.ParseFunc accepts. The target type follows the result of to
// unless TargetType says otherwise.
func ConvertWith(to, from any) FieldOption {
	return func(d *Descriptor) error {
		toFn, err := convert.ParseFunc(to)
		if err != nil {
			return fmt.Errorf("%w: to converter: %w", ErrInvalidOption, err)
		}

		fromFn, err := convert.ParseFunc(from)
		if err != nil {
			return fmt.Errorf("%w: from converter: %w", ErrInvalidOption, err)
		}

		if !d.DeclaredType.AssignableTo(toFn.Src) || !fromFn.Dst.AssignableTo(d.DeclaredType) {
			return fmt.Errorf("%w: converters %s and %s do not fit %s",
				ErrInvalidOption, toFn, fromFn, d.DeclaredType)
		}

		if d.TargetType == d.DeclaredType {
			d.TargetType = toFn.Dst
		}

		d.ToTarget, d.FromTarget = toFn, fromFn

		return nil
	}
}

var textType = reflect.TypeFor[string]()

// AsJSON stores the field as JSON text.
func AsJSON() FieldOption {
	return func(d *Descriptor) error {
		if d.Attribute == nil || d.Attribute.Kind != model.KindColumn {
			return fmt.Errorf("%w: json encoding of %s field", ErrInvalidOption, kindOf(d))
		}

		declared := d.DeclaredType
		d.TargetType = textType

		d.ToTarget = convert.ConverterFunc(func(_ *convert.Scope, src reflect.Value) (reflect.Value, error) {
			b, err := json.Marshal(src.Interface())
			if err != nil {
				return reflect.Value{}, &convert.ConversionError{Src: declared, Dst: textType, Err: err}
			}

			return reflect.ValueOf(string(b)), nil
		})

		d.FromTarget = convert.ConverterFunc(func(_ *convert.Scope, src reflect.Value) (reflect.Value, error) {
			out := reflect.New(declared)
			if !src.IsValid() || src.String() == "" {
				return out.Elem(), nil
			}

			if err := json.Unmarshal([]byte(src.String()), out.Interface()); err != nil {
				return reflect.Value{}, &convert.ConversionError{Src: textType, Dst: declared, Err: err}
			}

			return out.Elem(), nil
		})

		return nil
	}
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
