package model

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"crucible/internal/diagnostic"
	"crucible/internal/match"
)

// Generator builds persistence classes and memoizes them per Source.
// It is safe for concurrent use; builds are serialized.
type Generator struct {
	logger   *slog.Logger
	metadata *Metadata

	mu       sync.Mutex
	classes  map[Source]*Class
	order    []*Class
	creating map[Source]struct{}
	links    dealer
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger for build output.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithMetadata sets the table group used by classes without their own.
func WithMetadata(m *Metadata) Option {
	return func(g *Generator) {
		if m != nil {
			g.metadata = m
		}
	}
}

// NewGenerator creates a generator with an empty metadata.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		logger:   slog.New(slog.DiscardHandler),
		metadata: NewMetadata(),
		classes:  make(map[Source]*Class),
		creating: make(map[Source]struct{}),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Metadata returns the default table group.
func (g *Generator) Metadata() *Metadata { return g.metadata }

// Lookup returns the class built for src, if any.
func (g *Generator) Lookup(src Source) (*Class, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	cls, ok := g.classes[src]

	return cls, ok
}

// Classes returns the built classes in build order.
func (g *Generator) Classes() []*Class {
	g.mu.Lock()
	defer g.mu.Unlock()

	return append([]*Class(nil), g.order...)
}

// GetOrBuild returns the class for src, building it and the classes it
// depends on first. A class is built at most once; a failed build is retried
// on the next call.
func (g *Generator) GetOrBuild(src Source) (*Class, error) {
	if src == nil {
		return nil, errors.New("nil source")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return g.build(src)
}

func (g *Generator) build(src Source) (*Class, error) {
	if cls, ok := g.classes[src]; ok {
		return cls, nil
	}

	if _, ok := g.creating[src]; ok {
		return nil, fmt.Errorf("%w: %T inherits from itself", ErrConfiguration, src)
	}

	def := src.Definition()
	if def.Diagnostics.HasErrors() {
		return nil, &ConfigurationError{Class: def.Name, Diagnostics: def.Diagnostics}
	}

	if def.Existing != nil {
		g.commit(src, def.Existing)

		return def.Existing, nil
	}

	g.creating[src] = struct{}{}
	defer delete(g.creating, src)

	var parent *Class

	if def.Parent != nil {
		p, err := g.build(def.Parent)
		if err != nil {
			return nil, err
		}

		parent = p
	}

	b, err := g.newBuilder(src, def, parent)
	if err != nil {
		return nil, err
	}

	b.inherit()
	b.declare(def.Attributes)
	b.declare(def.Params.ExtraAttributes)
	b.validate()

	if b.diags.HasErrors() {
		return nil, &ConfigurationError{Class: def.Name, Diagnostics: b.diags}
	}

	if err := g.resolveRelations(src, b.cls); err != nil {
		return nil, err
	}

	undo, err := b.register()
	if err != nil {
		return nil, err
	}

	cls := b.cls

	if def.Factory != nil {
		custom, err := def.Factory(cls)
		if err != nil {
			undo()

			return nil, fmt.Errorf("%w: %s factory: %w", ErrConfiguration, def.Name, err)
		}

		if custom == nil {
			undo()

			var diags diagnostic.Diagnostics
			diags.AddError(diagnostic.CodeFactory, def.Name, "", "factory returned no class")

			return nil, &ConfigurationError{Class: def.Name, Diagnostics: diags}
		}

		cls = custom
	}

	g.commit(src, cls)

	g.logger.Debug("model: built class",
		slog.String("class", cls.Name),
		slog.String("mode", cls.Mode.String()),
		slog.String("table", tableName(cls.Table)),
		slog.Int("attributes", len(cls.attrs)),
	)

	return cls, nil
}

func (g *Generator) commit(src Source, cls *Class) {
	g.classes[src] = cls
	if !slices.Contains(g.order, cls) {
		g.order = append(g.order, cls)
	}

	g.links.Done(src, cls)
}

// resolveRelations builds relationship targets eagerly, except for targets
// still being built up the stack, which are linked once they are done.
func (g *Generator) resolveRelations(src Source, cls *Class) error {
	for _, attr := range cls.attrs {
		if attr.Kind != KindRelationship || attr.Owner != cls {
			continue
		}

		target := attr.Relation.Target
		if _, busy := g.creating[target]; busy || target == src {
			g.links.Needs(target, attr)

			continue
		}

		tc, err := g.build(target)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", cls.Name, attr.Name, err)
		}

		attr.Target = tc
	}

	return nil
}

func tableName(t *Table) string {
	if t == nil {
		return ""
	}

	return t.QualifiedName()
}

// builder assembles one class.
type builder struct {
	cls      *Class
	own      Params
	mapped   *Class
	metadata *Metadata
	diags    diagnostic.Diagnostics
	// columns are added to the table on register, so that a failed build
	// leaves a shared table untouched
	columns   []*Column
	inherited map[string]struct{}
}

func (g *Generator) newBuilder(src Source, def Definition, parent *Class) (*builder, error) {
	merged := def.Params
	if parent != nil {
		var err error

		merged, err = MergeParams(parent.Params, def.Params)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrConfiguration, def.Name, err)
		}
	}

	cls := newClass(def.Name, src)
	cls.Parent = parent
	cls.Params = merged

	b := &builder{cls: cls, own: def.Params, metadata: merged.Metadata}
	if b.metadata == nil {
		b.metadata = g.metadata
	}

	for p := parent; p != nil; p = p.Parent {
		if !p.Abstract() {
			b.mapped = p

			break
		}
	}

	switch {
	case def.Params.Abstract:
		cls.Mode = ModeAbstract
	case b.mapped == nil:
		cls.Mode = ModeRoot
		cls.Table = &Table{Name: b.tableName(), Schema: merged.Schema}
	case merged.Concrete:
		cls.Mode = ModeConcrete
		if def.Params.TableName == "" {
			b.diags.AddError(diagnostic.CodeConcreteTable, def.Name, "",
				"concrete subclass needs its own table name")
		}

		cls.Table = &Table{Name: b.tableName(), Schema: merged.Schema}
	case merged.TableName == "" || merged.TableName == b.mapped.Table.Name:
		cls.Mode = ModeSingleTable
		cls.Table = b.mapped.Table
	default:
		cls.Mode = ModeJoined
		cls.Table = &Table{Name: merged.TableName, Schema: merged.Schema}
	}

	return b, nil
}

func (b *builder) tableName() string {
	if b.cls.Params.TableName != "" {
		return b.cls.Params.TableName
	}

	return match.SnakeCase(b.cls.Name)
}

// inherit copies the attributes of the mapped parent into the class.
// Attributes of abstract parents arrive through the flattened specs.
func (b *builder) inherit() {
	parent := b.mapped
	if parent == nil {
		return
	}

	b.inherited = make(map[string]struct{}, len(parent.attrs))

	for _, pa := range parent.attrs {
		attr := pa
		b.inherited[pa.Name] = struct{}{}

		switch {
		case b.cls.Mode == ModeConcrete && pa.Kind == KindColumn:
			attr = &Attribute{AttributeSpec: pa.AttributeSpec, Owner: b.cls, Target: pa.Target}
			attr.Column = b.column(pa.AttributeSpec, false)
		case b.cls.Mode == ModeJoined && pa.Kind == KindColumn && pa.Column.PrimaryKey:
			key := *pa.Column
			key.Table = b.cls.Table
			key.ForeignKey = pa.Column.Table.Name + "." + pa.Column.Name
			b.columns = append(b.columns, &key)
		}

		b.add(attr)
	}
}

func (b *builder) add(attr *Attribute) {
	if err := b.cls.add(attr); err != nil {
		b.diags.AddError(diagnostic.CodeDuplicateField, b.cls.Name, attr.Name, err.Error())
	}
}

// declare adds the attributes the class does not inherit.
func (b *builder) declare(specs []AttributeSpec) {
	for _, spec := range specs {
		if existing, ok := b.cls.Attribute(spec.Name); ok {
			if _, inherited := b.inherited[spec.Name]; inherited {
				if existing.Kind != spec.Kind || existing.Type != spec.Type {
					b.diags.AddWarning(diagnostic.CodeShadowedField, b.cls.Name, spec.Name,
						"redeclared inherited attribute keeps the parent definition")
				}

				continue
			}

			b.diags.AddError(diagnostic.CodeDuplicateField, b.cls.Name, spec.Name, "attribute declared twice")

			continue
		}

		attr := &Attribute{AttributeSpec: spec, Owner: b.cls}

		switch spec.Kind {
		case KindColumn:
			if spec.Type == nil {
				b.diags.AddError(diagnostic.CodeUnsupportedField, b.cls.Name, spec.Name, "column has no type")

				continue
			}

			if b.cls.Table != nil {
				attr.Column = b.column(spec, b.cls.Mode == ModeSingleTable)
				if attr.Column == nil {
					continue
				}
			} else {
				attr.Column = &Column{Name: spec.Name, Attribute: spec.Name, Type: spec.Type}
			}
		case KindRelationship:
			if spec.Type != recordType && spec.Type != recordsType {
				b.diags.Errorf(diagnostic.CodeUnsupportedField, b.cls.Name, spec.Name,
					"relationship type must be %s or %s", recordType, recordsType)

				continue
			}

			if spec.Relation.Target == nil {
				b.diags.AddError(diagnostic.CodeUnsupportedField, b.cls.Name, spec.Name, "relationship has no target")

				continue
			}
		case KindComputed:
			if spec.Compute == nil {
				b.diags.AddError(diagnostic.CodeUnsupportedField, b.cls.Name, spec.Name,
					"computed attribute has no function")

				continue
			}
		}

		b.add(attr)
	}
}

// column queues the column for spec and returns it, or nil on a clash.
func (b *builder) column(spec AttributeSpec, forceNullable bool) *Column {
	col := &Column{
		Name:       spec.Name,
		Attribute:  spec.Name,
		Type:       spec.Type,
		PrimaryKey: spec.Column.PrimaryKey,
		Nullable:   spec.Column.Nullable || nilable(spec.Type) || (forceNullable && !spec.Column.PrimaryKey),
		Unique:     spec.Column.Unique,
		Index:      spec.Column.Index,
		Length:     spec.Column.Length,
		SQLType:    spec.Column.SQLType,
		ForeignKey: spec.Column.ForeignKey,
		Default:    spec.Column.Default,
		Table:      b.cls.Table,
	}

	_, exists := b.cls.Table.Column(col.Name)
	if exists || slices.ContainsFunc(b.columns, func(c *Column) bool { return c.Name == col.Name }) {
		b.diags.Errorf(diagnostic.CodeColumnClash, b.cls.Name, spec.Name,
			"column %q already exists in table %q", col.Name, b.cls.Table.Name)

		return nil
	}

	b.columns = append(b.columns, col)

	return col
}

func (b *builder) validate() {
	cls := b.cls
	if cls.Mode == ModeAbstract {
		return
	}

	if len(cls.PrimaryKey()) == 0 {
		b.diags.AddError(diagnostic.CodeMissingPrimaryKey, cls.Name, "", "class has no primary key column")
	}

	on := cls.Params.PolymorphicOn
	identity := cls.Params.PolymorphicIdentity

	if on != "" {
		d, ok := cls.Attribute(on)

		switch {
		case !ok:
			b.diags.AddError(diagnostic.CodeDiscriminator, cls.Name, on, "discriminator attribute does not exist",
				match.Suggest(on, attributeNames(cls))...)
		case d.Kind != KindColumn:
			b.diags.AddError(diagnostic.CodeDiscriminator, cls.Name, on, "discriminator must be a column")
		case identity != nil && !reflect.TypeOf(identity).AssignableTo(d.Type):
			b.diags.Errorf(diagnostic.CodeDiscriminator, cls.Name, on,
				"identity %v does not fit discriminator type %s", identity, d.Type)
		}
	} else if identity != nil {
		b.diags.AddError(diagnostic.CodeDiscriminator, cls.Name, "", "polymorphic identity without discriminator")
	}

	if identity == nil {
		return
	}

	if !reflect.TypeOf(identity).Comparable() {
		b.diags.Errorf(diagnostic.CodeDuplicateIdentity, cls.Name, "", "identity %v is not comparable", identity)

		return
	}

	if other, taken := b.root().identities[identity]; taken {
		b.diags.Errorf(diagnostic.CodeDuplicateIdentity, cls.Name, "",
			"identity %v is already used by %s", identity, other.Name)
	}
}

// register publishes the class in its table, tree and metadata.
func (b *builder) register() (undo func(), err error) {
	cls := b.cls

	var undos []func()

	undo = func() {
		for i := len(undos) - 1; i >= 0; i-- {
			undos[i]()
		}
	}

	if cls.Mode != ModeAbstract {
		if cls.Mode != ModeSingleTable {
			if err := b.metadata.Add(cls.Table); err != nil {
				var diags diagnostic.Diagnostics
				diags.AddError(diagnostic.CodeDuplicateTable, cls.Name, "", err.Error())

				return nil, &ConfigurationError{Class: cls.Name, Diagnostics: diags}
			}

			undos = append(undos, func() { b.metadata.remove(cls.Table) })
		}

		table := cls.Table
		columns, constraints := len(table.Columns), len(table.Constraints)
		table.Columns = append(table.Columns, b.columns...)
		table.Constraints = append(table.Constraints, b.own.Constraints...)
		undos = append(undos, func() {
			table.Columns = table.Columns[:columns]
			table.Constraints = table.Constraints[:constraints]
		})

		if identity := cls.Params.PolymorphicIdentity; identity != nil {
			root := b.root()
			if root.identities == nil {
				root.identities = make(map[any]*Class)
			}

			prev, had := root.identities[identity]
			root.identities[identity] = cls
			undos = append(undos, func() {
				if had {
					root.identities[identity] = prev
				} else {
					delete(root.identities, identity)
				}
			})
		}
	}

	if parent := cls.Parent; parent != nil {
		parent.children = append(parent.children, cls)
		undos = append(undos, func() {
			parent.children = slices.DeleteFunc(parent.children, func(c *Class) bool { return c == cls })
		})
	}

	return undo, nil
}

func (b *builder) root() *Class {
	if b.mapped == nil {
		return b.cls
	}

	return b.mapped.Root()
}

func attributeNames(cls *Class) []string {
	names := make([]string, 0, len(cls.attrs))
	for _, a := range cls.attrs {
		names = append(names, a.Name)
	}

	return names
}
