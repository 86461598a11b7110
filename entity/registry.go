package entity

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"crucible/convert"
	"crucible/internal/diagnostic"
	"crucible/model"
	"crucible/options"
)

// Registry holds defined entities together with the converter registry and
// the class generator they use. It is safe for concurrent use once every
// entity is defined.
type Registry struct {
	conv      *convert.Registry
	gen       *model.Generator
	logger    *slog.Logger
	coercions options.CategoryEnum

	mu       sync.RWMutex
	byType   map[reflect.Type]*Entity
	ifaces   map[reflect.Type]*Entity
	byClass  map[*model.Class]*Entity
	entities []*Entity
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithConverters sets the converter registry. The entity factory is
// prepended to it, so it should not be shared with another Registry.
func WithConverters(c *convert.Registry) RegistryOption {
	return func(r *Registry) { r.conv = c }
}

// WithGenerator sets the class generator.
func WithGenerator(g *model.Generator) RegistryOption {
	return func(r *Registry) { r.gen = g }
}

// WithLogger sets the logger shared with the default converter registry and
// generator.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithCoercions enables coercion categories on the default converter
// registry. It has no effect together with WithConverters.
func WithCoercions(categories options.CategoryEnum) RegistryOption {
	return func(r *Registry) { r.coercions = categories }
}

// NewRegistry creates an empty entity registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger:  slog.New(slog.DiscardHandler),
		byType:  make(map[reflect.Type]*Entity),
		ifaces:  make(map[reflect.Type]*Entity),
		byClass: make(map[*model.Class]*Entity),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.conv == nil {
		r.conv = convert.New(convert.WithCoercions(r.coercions), convert.WithLogger(r.logger))
	}

	if r.gen == nil {
		r.gen = model.NewGenerator(model.WithLogger(r.logger))
	}

	r.conv.Prepend(factory{reg: r})

	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})

	return defaultRegistry
}

// Converters returns the converter registry.
func (r *Registry) Converters() *convert.Registry { return r.conv }

// Generator returns the class generator.
func (r *Registry) Generator() *model.Generator { return r.gen }

// Define registers the struct type T as an entity. A registered entity
// embedded by value in T becomes its parent.
func Define[T any](r *Registry, opts ...Option) (*Entity, error) {
	return r.define(reflect.TypeFor[T](), opts)
}

// MustDefine is like Define but panics on error.
func MustDefine[T any](r *Registry, opts ...Option) *Entity {
	e, err := Define[T](r, opts...)
	if err != nil {
		panic("entity: " + err.Error())
	}

	return e
}

func (r *Registry) define(t reflect.Type, opts []Option) (*Entity, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}

	cfg := config{name: t.Name()}
	for _, opt := range opts {
		opt(&cfg)
	}

	r.mu.Lock()

	if _, dup := r.byType[t]; dup {
		r.mu.Unlock()

		return nil, fmt.Errorf("%w: %s", ErrAlreadyDefined, t)
	}

	e := &Entity{Name: cfg.name, reg: r, typ: t, ptr: reflect.PointerTo(t), cfg: cfg}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}

		parent, ok := r.byType[f.Type]
		if !ok {
			continue
		}

		if e.parent != nil {
			e.diags.Errorf(diagnostic.CodeUnsupportedField, e.Name, f.Name,
				"embeds a second parent entity besides %s", e.parent.Name)

			continue
		}

		e.parent = parent
	}

	r.byType[t] = e
	r.entities = append(r.entities, e)
	r.mu.Unlock()

	r.conv.Invalidate()

	parentName := ""
	if e.parent != nil {
		parentName = e.parent.Name
	}

	r.logger.Debug("entity: defined",
		slog.String("entity", e.Name),
		slog.String("type", t.String()),
		slog.String("parent", parentName),
	)

	return e, nil
}

// DefineInterface binds the interface I to base, so that fields of type I
// refer to base or any entity derived from it.
func DefineInterface[I any](r *Registry, base *Entity) error {
	t := reflect.TypeFor[I]()
	if t.Kind() != reflect.Interface {
		return fmt.Errorf("%w: %s", convert.ErrNotInterface, t)
	}

	if base == nil || !base.ptr.Implements(t) {
		return fmt.Errorf("%w: %v does not implement %s", ErrNotImplemented, base, t)
	}

	r.mu.Lock()
	r.ifaces[t] = base
	r.mu.Unlock()

	r.conv.Invalidate()

	return nil
}

// Lookup returns the entity of T, which may be the struct, a pointer to it or
// an interface bound with DefineInterface.
func Lookup[T any](r *Registry) (*Entity, bool) {
	return r.Entity(reflect.TypeFor[T]())
}

// Entity returns the entity of t, which may be the struct, a pointer to it or
// an interface bound with DefineInterface.
func (r *Registry) Entity(t reflect.Type) (*Entity, bool) {
	if t == nil {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	switch t.Kind() {
	case reflect.Pointer:
		e, ok := r.byType[t.Elem()]
		return e, ok
	case reflect.Interface:
		e, ok := r.ifaces[t]
		return e, ok
	default:
		e, ok := r.byType[t]
		return e, ok
	}
}

// Entities returns the entities in definition order.
func (r *Registry) Entities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.entities)
}

// Class returns the persistence class of e, building it on first use.
func (r *Registry) Class(e *Entity) (*model.Class, error) {
	if e == nil || e.reg != r {
		return nil, fmt.Errorf("%w: %v", ErrUnknownEntity, e)
	}

	cls, err := r.gen.GetOrBuild(e)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if _, ok := r.byClass[cls]; !ok {
		r.byClass[cls] = e
	}
	r.mu.Unlock()

	return cls, nil
}

// BuildAll builds the class of every entity in definition order. Calling it
// at startup surfaces configuration errors early.
func (r *Registry) BuildAll() error {
	var errs []error

	for _, e := range r.Entities() {
		if _, err := r.Class(e); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// ofClass returns the entity a class was built for.
func (r *Registry) ofClass(cls *model.Class) (*Entity, bool) {
	r.mu.RLock()
	e, ok := r.byClass[cls]
	r.mu.RUnlock()

	if ok {
		return e, true
	}

	if e, ok := cls.Source().(*Entity); ok && e.reg == r {
		return e, true
	}

	for _, e := range r.Entities() {
		if c, ok := r.gen.Lookup(e); ok && c == cls {
			return e, true
		}
	}

	return nil, false
}

// relationTarget reports whether t refers to entities: *E, an interface bound
// to an entity, or a slice of either.
func (r *Registry) relationTarget(t reflect.Type) (*Entity, bool, bool) {
	many := false
	if t.Kind() == reflect.Slice {
		t, many = t.Elem(), true
	}

	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface {
		return nil, false, false
	}

	e, ok := r.Entity(t)

	return e, many, ok
}
