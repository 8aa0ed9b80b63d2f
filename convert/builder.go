package convert

import (
	"github.com/omniscale/osmconvert/element"
	"github.com/omniscale/osmconvert/mapping"
	"github.com/pkg/errors"
)

// LayerBuilder declares the geometry and attributes of a layer. The first
// error is kept and all following calls are ignored.
type LayerBuilder struct {
	c     *Converter
	layer *mapping.LayerSchema
	err   error
}

func (b *LayerBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
		b.c.configErr(err)
	}
}

// Geometry sets the geometry kind: point, linestring or multipolygon.
func (b *LayerBuilder) Geometry(kind string) *LayerBuilder {
	if b.err == nil {
		b.fail(b.layer.SetGeometryKind(kind))
	}
	return b
}

// Attribute appends an attribute of type integer, string, bool or real.
func (b *LayerBuilder) Attribute(name, typ string) *LayerBuilder {
	if b.err == nil {
		b.fail(b.layer.AddTypedAttribute(name, typ))
	}
	return b
}

func (b *LayerBuilder) Err() error { return b.err }

// Schema returns the declared layer, nil if the declaration failed.
func (b *LayerBuilder) Schema() *mapping.LayerSchema { return b.layer }

// RuleBuilder configures a single rule. The first error is kept and all
// following calls are ignored.
type RuleBuilder struct {
	c    *Converter
	rule *mapping.Rule
	err  error
}

func (b *RuleBuilder) fail(err error) {
	if b.err == nil {
		b.err = err
		b.c.configErr(err)
	}
}

// Matching adds another condition. All conditions of a rule need to match.
func (b *RuleBuilder) Matching(key string, spec interface{}) *RuleBuilder {
	if b.err != nil {
		return b
	}
	if b.c.rules.Frozen() {
		b.fail(&mapping.ConfigError{Op: "match", Name: key, Err: mapping.ErrFrozen})
		return b
	}
	ms, err := mapping.ClassifyMatch(spec)
	if err != nil {
		b.fail(err)
		return b
	}
	b.fail(b.rule.AddCondition(key, ms))
	return b
}

// ToLayer sets the target layer. It needs to be called once before Attr.
func (b *RuleBuilder) ToLayer(name string) *RuleBuilder {
	if b.err == nil {
		b.fail(b.rule.ToLayer(name))
	}
	return b
}

// Attr binds an attribute of the target layer. Without source the tag with
// the attribute name is used.
func (b *RuleBuilder) Attr(name string, src ...mapping.AttributeSource) *RuleBuilder {
	if b.err != nil {
		return b
	}
	var s mapping.AttributeSource
	switch len(src) {
	case 0:
		s = mapping.SameKey()
	case 1:
		s = src[0]
	default:
		b.fail(&mapping.ConfigError{Op: "attribute", Name: name,
			Err: errors.Wrap(mapping.ErrInvalidAttribute, "more than one source")})
		return b
	}
	b.fail(b.rule.Bind(name, s))
	return b
}

func (b *RuleBuilder) Err() error { return b.err }

// Rule returns the configured rule, nil if the declaration failed.
func (b *RuleBuilder) Rule() *mapping.Rule { return b.rule }

// Layer declares a new layer with point geometry and no attributes.
func (c *Converter) Layer(name string) *LayerBuilder {
	b := &LayerBuilder{c: c}
	l, err := c.registry.Declare(name)
	if err != nil {
		b.fail(err)
		return b
	}
	b.layer = l
	return b
}

// Rule adds a new rule for entities of kind with the tag key matching
// spec. spec is classified with mapping.ClassifyMatch.
func (c *Converter) Rule(kind element.Kind, key string, spec interface{}) *RuleBuilder {
	b := &RuleBuilder{c: c}
	if c.rules.Frozen() {
		b.fail(&mapping.ConfigError{Op: "rule", Name: key, Err: mapping.ErrFrozen})
		return b
	}
	ms, err := mapping.ClassifyMatch(spec)
	if err != nil {
		b.fail(err)
		return b
	}
	r, err := c.rules.Add(kind, key, ms)
	if err != nil {
		b.fail(err)
		return b
	}
	b.rule = r
	return b
}

func (c *Converter) Node(key string, spec interface{}) *RuleBuilder {
	return c.Rule(element.Node, key, spec)
}

func (c *Converter) Way(key string, spec interface{}) *RuleBuilder {
	return c.Rule(element.Way, key, spec)
}

func (c *Converter) Area(key string, spec interface{}) *RuleBuilder {
	return c.Rule(element.Area, key, spec)
}
