package convert

import (
	"github.com/omniscale/osmconvert/element"
	"github.com/omniscale/osmconvert/mapping"
	"github.com/omniscale/osmconvert/mapping/config"
	"github.com/pkg/errors"
)

// Load declares all layers and rules of a mapping file. It returns the
// first configuration error.
func (c *Converter) Load(m *config.Mapping) error {
	for _, l := range m.Layers {
		b := c.Layer(l.Name)
		if l.Geometry != "" {
			b.Geometry(l.Geometry)
		}
		for _, a := range l.Attributes {
			b.Attribute(a.Name, a.Type)
		}
		if err := b.Err(); err != nil {
			return err
		}
	}

	for _, r := range m.Rules {
		if err := c.loadRule(r); err != nil {
			return err
		}
	}
	return nil
}

func (c *Converter) loadRule(r *config.Rule) error {
	kind, err := element.ParseKind(r.Entity)
	if err != nil {
		err = &mapping.ConfigError{Op: "rule", Name: r.Entity, Err: err}
		c.configErr(err)
		return err
	}
	if len(r.Match) == 0 {
		err := &mapping.ConfigError{Op: "rule", Name: r.Entity, Err: errors.Wrap(mapping.ErrInvalidMatch, "no conditions")}
		c.configErr(err)
		return err
	}

	var b *RuleBuilder
	for i, cond := range r.Match {
		spec, err := matchSpec(cond)
		if err != nil {
			c.configErr(err)
			return err
		}
		if i == 0 {
			b = c.Rule(kind, cond.Key, spec)
		} else {
			b.Matching(cond.Key, spec)
		}
	}
	b.ToLayer(r.Layer)

	for _, binding := range r.Attributes {
		src, err := attributeSource(binding)
		if err != nil {
			c.configErr(err)
			return err
		}
		b.Attr(binding.Name, src)
	}
	return b.Err()
}

func matchSpec(cond *config.Condition) (mapping.MatchSpec, error) {
	raw, isRegexp, err := cond.Raw()
	if err != nil {
		return mapping.MatchSpec{}, &mapping.ConfigError{Op: "match", Name: cond.Key, Err: errors.Wrap(mapping.ErrInvalidMatch, err.Error())}
	}
	if isRegexp {
		return mapping.PatternString(raw.(string))
	}
	return mapping.ClassifyMatch(raw)
}

// sources by name for the source field of attribute bindings
var namedSources = map[string]mapping.AttributeSource{
	"id":            mapping.EntityID(),
	"matched_key":   mapping.MatchedKey(),
	"matched_value": mapping.MatchedValue(),
}

func attributeSource(b *config.Binding) (mapping.AttributeSource, error) {
	switch {
	case b.Func != "":
		fn, err := mapping.DerivedByName(b.Func, b.Args)
		if err != nil {
			return mapping.AttributeSource{}, err
		}
		return mapping.Derived(fn), nil
	case b.Source != "":
		src, ok := namedSources[b.Source]
		if !ok {
			return mapping.AttributeSource{}, &mapping.ConfigError{Op: "attribute", Name: b.Name,
				Err: errors.Wrapf(mapping.ErrInvalidAttribute, "unknown source %q", b.Source)}
		}
		return src, nil
	case b.Key != "":
		return mapping.OtherKey(b.Key), nil
	}
	return mapping.SameKey(), nil
}
