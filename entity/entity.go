package entity

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"crucible/convert"
	"crucible/internal/diagnostic"
	"crucible/model"
)

// Entity is a struct type registered with a Registry. It is the model.Source
// of its persistence class.
type Entity struct {
	Name string

	reg    *Registry
	typ    reflect.Type
	ptr    reflect.Type
	parent *Entity
	cfg    config
	// diags holds problems found at Define time
	diags diagnostic.Diagnostics

	mu       sync.Mutex
	derived  []Descriptor
	warnings diagnostic.Diagnostics
	plan     *plan
}

// Type returns the entity struct type.
func (e *Entity) Type() reflect.Type { return e.typ }

// Parent returns the embedded parent entity, or nil.
func (e *Entity) Parent() *Entity { return e.parent }

// IsA reports whether e is other or embeds it, directly or not.
func (e *Entity) IsA(other *Entity) bool {
	for k := e; k != nil; k = k.parent {
		if k == other {
			return true
		}
	}

	return false
}

func (e *Entity) String() string { return e.Name }

// Definition implements model.Source.
func (e *Entity) Definition() model.Definition {
	descs, diags := Derive(e)

	def := model.Definition{
		Name:     e.Name,
		Params:   e.cfg.params,
		Factory:  e.cfg.factory,
		Existing: e.cfg.existing,
	}

	def.Diagnostics.Merge(e.diags)
	def.Diagnostics.Merge(diags)

	if e.parent != nil {
		def.Parent = e.parent
	}

	for _, d := range descs {
		if d.Exclude || d.Attribute == nil {
			continue
		}

		def.Attributes = append(def.Attributes, *d.Attribute)
	}

	return def
}

// plan holds the converters of every descriptor of one entity, resolved
// against its class.
type plan struct {
	cls    *model.Class
	fields []fieldPlan
	// discriminator is the attribute holding the polymorphic identity
	discriminator *model.Attribute
}

type fieldPlan struct {
	desc Descriptor
	attr *model.Attribute
	to   convert.Converter
	from convert.Converter
	// toErr and fromErr hold resolution failures, reported when the
	// direction is used
	toErr, fromErr error
}

// resolve returns the conversion plan, building the class if needed.
func (e *Entity) resolve() (*plan, error) {
	cls, err := e.reg.Class(e)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if p := e.plan; p != nil {
		e.mu.Unlock()

		return p, nil
	}
	e.mu.Unlock()

	descs, diags := Derive(e)
	if diags.HasErrors() {
		return nil, &model.ConfigurationError{Class: e.Name, Diagnostics: diags}
	}

	p := &plan{cls: cls}
	p.discriminator, _ = cls.Discriminator()

	conv := e.reg.conv

	for _, d := range descs {
		fp := fieldPlan{desc: d}

		if d.Exclude {
			p.fields = append(p.fields, fp)

			continue
		}

		attr, ok := cls.Attribute(d.TargetName)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s has no attribute %q in %s",
				ErrNoAttribute, e.Name, d.SourceName, d.TargetName, cls.Name)
		}

		fp.attr = attr

		if !d.Readonly {
			fp.to, fp.toErr = converter(conv, d.ToTarget, d.DeclaredType, attr.Type)
		}

		fp.from, fp.fromErr = converter(conv, d.FromTarget, attr.Type, d.DeclaredType)

		p.fields = append(p.fields, fp)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.plan == nil {
		e.plan = p

		e.reg.logger.Debug("entity: conversion plan ready",
			slog.String("entity", e.Name),
			slog.String("class", cls.String()),
			slog.Int("fields", len(p.fields)),
		)
	}

	return e.plan, nil
}

func converter(reg *convert.Registry, override convert.Converter, src, dst reflect.Type) (convert.Converter, error) {
	if override != nil {
		return override, nil
	}

	if c, ok := reg.Resolve(src, dst); ok {
		return c, nil
	}

	return nil, &convert.ConversionError{Src: src, Dst: dst, Err: convert.ErrNoConverter}
}
