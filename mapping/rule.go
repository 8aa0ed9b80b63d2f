package mapping

import (
	"strings"

	"github.com/omniscale/osmconvert/element"
	"github.com/pkg/errors"
)

// Rule maps entities of one kind that match all conditions to a layer.
type Rule struct {
	Kind       element.Kind
	Conditions []Condition
	Layer      *LayerSchema

	bindings map[string]AttributeSource
	// values for all layer attributes in column order, set by Freeze
	columns []column
	table   *RuleTable
}

type column struct {
	attr Attribute
	src  *AttributeSource
}

func (r *Rule) frozen() bool { return r.table.frozen }

// AddCondition adds another condition. All conditions need to match.
func (r *Rule) AddCondition(key string, spec MatchSpec) error {
	if r.frozen() {
		return configError("match", key, ErrFrozen)
	}
	if key == "" {
		return configError("match", key, errors.Wrap(ErrInvalidMatch, "empty key"))
	}
	if err := spec.validate(); err != nil {
		return err
	}
	r.Conditions = append(r.Conditions, Condition{Key: key, Spec: spec})
	return nil
}

// ToLayer sets the target layer. The layer needs to be declared and its
// geometry type needs to be buildable from the entity kind of the rule.
func (r *Rule) ToLayer(name string) error {
	if r.frozen() {
		return configError("to_layer", name, ErrFrozen)
	}
	if r.Layer != nil {
		return configError("to_layer", name, ErrLayerAlreadySet)
	}
	l, ok := r.table.registry.Layer(name)
	if !ok {
		return configError("to_layer", name, ErrUnknownLayer)
	}
	if err := r.checkGeometry(l); err != nil {
		return err
	}
	r.Layer = l
	return nil
}

func (r *Rule) checkGeometry(l *LayerSchema) error {
	if want := r.Kind.GeometryType(); want != l.Geometry {
		return configError("to_layer", l.Name,
			errors.Wrapf(ErrGeometryMismatch, "%s rules produce %s, layer is %s", r.Kind, want, l.Geometry))
	}
	return nil
}

// Bind sets the source of a declared attribute of the target layer.
func (r *Rule) Bind(name string, src AttributeSource) error {
	if r.frozen() {
		return configError("attribute", name, ErrFrozen)
	}
	if r.Layer == nil {
		return configError("attribute", name, ErrLayerNotSet)
	}
	if _, ok := r.Layer.Attribute(name); !ok {
		return configError("attribute", name, errors.Wrapf(ErrUnknownAttribute, "layer %q", r.Layer.Name))
	}
	if _, ok := r.bindings[name]; ok {
		return configError("attribute", name, ErrDuplicate)
	}
	if err := src.validate(); err != nil {
		return configError("attribute", name, err)
	}
	if r.bindings == nil {
		r.bindings = make(map[string]AttributeSource)
	}
	r.bindings[name] = src
	return nil
}

// Binding returns the source that is bound to the attribute.
func (r *Rule) Binding(name string) (AttributeSource, bool) {
	src, ok := r.bindings[name]
	return src, ok
}

func (r *Rule) compile() error {
	if r.Layer == nil {
		return configError("to_layer", r.String(), ErrLayerNotSet)
	}
	if err := r.checkGeometry(r.Layer); err != nil {
		return err
	}
	r.columns = make([]column, len(r.Layer.Attributes))
	for i, attr := range r.Layer.Attributes {
		r.columns[i].attr = attr
		if src, ok := r.bindings[attr.Name]; ok {
			src := src
			r.columns[i].src = &src
		}
	}
	return nil
}

// Match returns the match for the entity tags if all conditions match.
// The key and value of the first condition are used for the match.
func (r *Rule) Match(e *element.Entity) (Match, bool) {
	var m Match
	for i, c := range r.Conditions {
		v, ok := c.Match(e.Tags)
		if !ok {
			return Match{}, false
		}
		if i == 0 {
			m = Match{Key: c.Key, Value: v, Rule: r}
		}
	}
	return m, len(r.Conditions) > 0
}

func (r *Rule) String() string {
	conds := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		conds[i] = c.String()
	}
	s := r.Kind.String() + "[" + strings.Join(conds, ",") + "]"
	if r.Layer != nil {
		s += "->" + r.Layer.Name
	}
	return s
}

// Match is a single rule match of an entity.
type Match struct {
	Key   string
	Value string
	Rule  *Rule
}

// Row returns the values for all attributes of the target layer in column
// order. Unbound attributes are nil.
func (m *Match) Row(e *element.Entity) []interface{} {
	row := make([]interface{}, len(m.Rule.columns))
	for i, c := range m.Rule.columns {
		if c.src != nil {
			row[i] = c.src.value(c.attr, e, m)
		}
	}
	return row
}
