package model

import (
	"reflect"

	"crucible/internal/common"
)

// AttributeKind says how an attribute stores its value.
type AttributeKind int

const (
	KindColumn AttributeKind = iota
	KindRelationship
	KindComputed
)

func (k AttributeKind) String() string {
	switch k {
	case KindColumn:
		return "column"
	case KindRelationship:
		return "relationship"
	case KindComputed:
		return "computed"
	default:
		return common.UnknownStr
	}
}

var (
	recordType  = reflect.TypeFor[*Record]()
	recordsType = reflect.TypeFor[[]*Record]()
)

// RecordType is the value type of to-one relationships.
func RecordType() reflect.Type { return recordType }

// RecordsType is the value type of to-many relationships.
func RecordsType() reflect.Type { return recordsType }

// ComputeFunc derives the value of a computed attribute from its record.
type ComputeFunc func(rec *Record) (any, error)

// AssignFunc writes a value of a computed attribute back into the
// attributes it is derived from. v is nil or of the attribute type.
type AssignFunc func(rec *Record, v any) error

// AttributeSpec declares one attribute of a class.
type AttributeSpec struct {
	Name string
	Kind AttributeKind
	// Type is the Go type of the stored value: the column type, *Record or
	// []*Record for relationships, the result type for computed attributes.
	Type     reflect.Type
	Column   ColumnSpec
	Relation RelationSpec
	Compute  ComputeFunc
	// Assign makes a computed attribute writable.
	Assign AssignFunc
}

// ColumnSpec configures the column behind a column attribute.
type ColumnSpec struct {
	PrimaryKey bool
	// Nullable is implied for pointer, slice and map types.
	Nullable bool
	Unique   bool
	Index    bool
	// Length bounds text columns; zero means unbounded.
	Length int
	// SQLType overrides the column type picked by the dialect.
	SQLType string
	// ForeignKey references another column as "table.column".
	ForeignKey string
	Default    any
}

// RelationSpec configures a relationship attribute.
type RelationSpec struct {
	Target Source
	// BackPopulates names the relationship on the target that mirrors this one.
	BackPopulates string
	// ForeignKey names the local column attribute that receives the target
	// primary key when a to-one relationship is linked.
	ForeignKey string
}

// Attribute is an attribute of a built class.
type Attribute struct {
	AttributeSpec
	// Owner is the class that declared the attribute.
	Owner *Class
	// Column is set for column attributes.
	Column *Column
	// Target is set for relationships once the target class is built.
	Target *Class
}

// Many reports whether a relationship holds a collection.
func (a *Attribute) Many() bool {
	return a.Kind == KindRelationship && a.Type == recordsType
}

func (a *Attribute) String() string {
	return a.Name + " " + a.Kind.String() + " " + common.TypeName(a.Type)
}

func nilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}
