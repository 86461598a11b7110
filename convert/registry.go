package convert

import (
	"log/slog"
	"reflect"
	"slices"
	"sync"

	"crucible/internal/common"
	"crucible/options"
)

// Registry resolves converters for type pairs and caches the outcome.
// It is safe for concurrent use. Declarations and Prepend reset the cache,
// so they belong to startup, before conversions run.
type Registry struct {
	logger    *slog.Logger
	coercions options.CategoryEnum

	// mu guards declarations, the factory list and cache writes
	mu         sync.Mutex
	factories  []Factory
	unions     map[reflect.Type][]reflect.Type
	literals   map[reflect.Type]*literalSet
	immutables map[reflect.Type]struct{}

	// cache maps Pair to entry
	cache sync.Map
}

type entry struct {
	conv Converter
	ok   bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithFactories replaces the default factory order.
func WithFactories(factories ...Factory) Option {
	return func(r *Registry) {
		r.factories = slices.Clone(factories)
	}
}

// WithCoercions enables primitive coercion categories.
func WithCoercions(categories options.CategoryEnum) Option {
	return func(r *Registry) {
		r.coercions = categories
	}
}

// WithLogger sets the logger used for resolution debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// DefaultFactories returns the built-in factory order.
func DefaultFactories() []Factory {
	return []Factory{
		LiteralFactory{},
		NoopFactory{},
		OptionalFactory{},
		UnionFactory{},
		SequenceFactory{},
		MappingFactory{},
		RecordFactory{},
		CoercionFactory{},
	}
}

// New creates a registry with the default factories unless WithFactories
// says otherwise.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:     slog.New(slog.DiscardHandler),
		factories:  DefaultFactories(),
		unions:     make(map[reflect.Type][]reflect.Type),
		literals:   make(map[reflect.Type]*literalSet),
		immutables: make(map[reflect.Type]struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the process-wide registry with default factories and no
// coercions.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
	})

	return defaultRegistry
}

// Registry returns r itself, so that a Registry is a Resolver.
func (r *Registry) Registry() *Registry { return r }

// Coercions reports the enabled coercion categories.
func (r *Registry) Coercions() options.CategoryEnum { return r.coercions }

// Logger returns the registry logger.
func (r *Registry) Logger() *slog.Logger { return r.logger }

// Prepend puts factories in front of the existing ones.
func (r *Registry) Prepend(factories ...Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = append(slices.Clone(factories), r.factories...)
	r.cache.Clear()
}

// DeclareImmutable marks types whose values may be shared between both
// representations even though they contain references.
func (r *Registry) DeclareImmutable(types ...reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, t := range types {
		r.immutables[t] = struct{}{}
	}

	r.cache.Clear()
}

// Invalidate drops every cached resolution. Factories that depend on
// registrations made elsewhere call it when those change.
func (r *Registry) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache.Clear()
}

// Resolve returns the converter for the pair, or false when no factory
// can build one.
func (r *Registry) Resolve(src, dst reflect.Type) (Converter, bool) {
	if src == nil || dst == nil {
		return nil, false
	}

	if conv, ok, hit := r.load(Pair{src, dst}); hit {
		return conv, ok
	}

	return newResolution(r).Resolve(src, dst)
}

// MustResolve is like Resolve but panics on failure.
func (r *Registry) MustResolve(src, dst reflect.Type) Converter {
	conv, ok := r.Resolve(src, dst)
	if !ok {
		panic("convert: " + Pair{src, dst}.String() + ": " + ErrNoConverter.Error())
	}

	return conv
}

func (r *Registry) load(pair Pair) (Converter, bool, bool) {
	v, hit := r.cache.Load(pair)
	if !hit {
		return nil, false, false
	}

	e := v.(entry)

	return e.conv, e.ok, true
}

func (r *Registry) cached(pair Pair) (Converter, bool) {
	conv, ok, _ := r.load(pair)

	return conv, ok
}

func (r *Registry) store(pair Pair, conv Converter, ok bool) (Converter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// another goroutine may have finished the same pair first
	if prev, prevOK, hit := r.load(pair); hit {
		return prev, prevOK
	}

	r.cache.Store(pair, entry{conv: conv, ok: ok})

	return conv, ok
}

func (r *Registry) snapshot() []Factory {
	r.mu.Lock()
	defer r.mu.Unlock()

	return slices.Clone(r.factories)
}

// resolution is one top-level Resolve call. It remembers pairs being built
// so that recursive types resolve to a deferred self reference. Outcomes stay
// local until the top-level pair finishes; a success that relied on a
// deferred pair reaches the registry only if that pair resolved too.
type resolution struct {
	reg       *Registry
	factories []Factory
	stack     []Pair
	deps      map[Pair]map[Pair]struct{}
	results   map[Pair]outcome
}

type outcome struct {
	entry

	deps []Pair
}

func newResolution(r *Registry) *resolution {
	return &resolution{
		reg:     r,
		deps:    make(map[Pair]map[Pair]struct{}),
		results: make(map[Pair]outcome),
	}
}

func (s *resolution) Registry() *Registry { return s.reg }

func (s *resolution) Resolve(src, dst reflect.Type) (Converter, bool) {
	if src == nil || dst == nil {
		return nil, false
	}

	pair := Pair{src, dst}
	if conv, ok, hit := s.reg.load(pair); hit {
		return conv, ok
	}

	if out, done := s.results[pair]; done {
		if out.ok && len(out.deps) > 0 {
			s.dependOn(pair)
		}

		return out.conv, out.ok
	}

	if slices.Contains(s.stack, pair) {
		s.dependOn(pair)

		return &deferred{reg: s.reg, pair: pair}, true
	}

	if s.factories == nil {
		s.factories = s.reg.snapshot()
	}

	s.stack = append(s.stack, pair)
	conv, ok := s.build(src, dst)
	s.stack = s.stack[:len(s.stack)-1]

	s.reg.logger.Debug("converter resolved",
		slog.String("src", common.TypeName(src)),
		slog.String("dst", common.TypeName(dst)),
		slog.String("shape", Dispatch(src, dst).String()),
		slog.Bool("ok", ok),
	)

	out := outcome{entry: entry{conv: conv, ok: ok}}
	for dep := range s.deps[pair] {
		if dep != pair {
			out.deps = append(out.deps, dep)
		}
	}

	delete(s.deps, pair)
	s.results[pair] = out

	if len(s.stack) > 0 {
		return conv, ok
	}

	return s.commit(pair)
}

// dependOn records that the pairs being built rely on dep. For a pair still
// on the stack those are the pairs above it; a finished pair is embedded by
// the whole stack.
func (s *resolution) dependOn(dep Pair) {
	frames := s.stack
	if i := slices.Index(s.stack, dep); i >= 0 {
		frames = s.stack[i+1:]
	}

	for _, p := range frames {
		set, ok := s.deps[p]
		if !ok {
			set = make(map[Pair]struct{})
			s.deps[p] = set
		}

		set[dep] = struct{}{}
	}
}

// commit stores the outcomes of the resolution in the registry and returns
// the stored outcome of top. Failures are always stored. A success that
// relied on a failed pair is dropped and resolves afresh on the next call.
func (s *resolution) commit(top Pair) (Converter, bool) {
	broken := make(map[Pair]bool)

	for changed := true; changed; {
		changed = false

		for p, out := range s.results {
			if !out.ok || broken[p] {
				continue
			}

			for _, dep := range out.deps {
				if !s.results[dep].ok || broken[dep] {
					broken[p] = true
					changed = true

					break
				}
			}
		}
	}

	for p, out := range s.results {
		if p != top && !broken[p] {
			s.reg.store(p, out.conv, out.ok)
		}
	}

	if broken[top] {
		// resolve top again against the failures cached above
		return s.reg.Resolve(top.Src, top.Dst)
	}

	out := s.results[top]

	return s.reg.store(top, out.conv, out.ok)
}

func (s *resolution) build(src, dst reflect.Type) (Converter, bool) {
	for _, f := range s.factories {
		if !f.Matches(src, dst) {
			continue
		}

		if conv, ok := f.Build(src, dst, s); ok {
			return conv, true
		}
	}

	return nil, false
}
