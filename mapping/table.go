package mapping

import (
	"github.com/omniscale/osmconvert/element"
	"github.com/omniscale/osmconvert/geom"
)

// RuleTable holds all rules per entity kind in declaration order.
type RuleTable struct {
	registry *Registry
	rules    map[element.Kind][]*Rule
	frozen   bool
}

func NewRuleTable(reg *Registry) *RuleTable {
	return &RuleTable{
		registry: reg,
		rules:    make(map[element.Kind][]*Rule),
	}
}

func (t *RuleTable) Registry() *Registry { return t.registry }

// Add creates a new rule with a single condition. The rule needs a target
// layer before the table is frozen.
func (t *RuleTable) Add(kind element.Kind, key string, spec MatchSpec) (*Rule, error) {
	if t.frozen {
		return nil, configError("rule", key, ErrFrozen)
	}
	if kind.GeometryType() == geom.UnknownType {
		return nil, configError("rule", kind.String(), ErrInvalidMatch)
	}
	r := &Rule{Kind: kind, table: t}
	if err := r.AddCondition(key, spec); err != nil {
		return nil, err
	}
	t.rules[kind] = append(t.rules[kind], r)
	return r, nil
}

func (t *RuleTable) Rules(kind element.Kind) []*Rule {
	return t.rules[kind]
}

// Len returns the number of rules of all kinds.
func (t *RuleTable) Len() int {
	n := 0
	for _, rules := range t.rules {
		n += len(rules)
	}
	return n
}

// Freeze checks all rules, prepares the rows and freezes the table and the
// registry. The first invalid rule is returned as error and nothing is
// frozen.
func (t *RuleTable) Freeze() error {
	if t.frozen {
		return nil
	}
	for _, kind := range element.Kinds {
		for _, r := range t.rules[kind] {
			if err := r.compile(); err != nil {
				return err
			}
		}
	}
	t.frozen = true
	t.registry.Freeze()
	return nil
}

func (t *RuleTable) Frozen() bool { return t.frozen }

// Match returns all matches of the entity in rule declaration order. An
// entity can match multiple rules, also of the same layer.
func (t *RuleTable) Match(e *element.Entity) []Match {
	var matches []Match
	for _, r := range t.rules[e.Kind] {
		if m, ok := r.Match(e); ok {
			matches = append(matches, m)
		}
	}
	return matches
}
