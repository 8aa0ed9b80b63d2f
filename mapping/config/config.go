// Package config contains the structure of YAML mapping files.
package config

import (
	"fmt"
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type Mapping struct {
	Layers []*Layer `yaml:"layers"`
	Rules  []*Rule  `yaml:"rules"`
}

type Layer struct {
	Name       string       `yaml:"name"`
	Geometry   string       `yaml:"geometry"`
	Attributes []*Attribute `yaml:"attributes"`
}

type Attribute struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type Rule struct {
	Entity     string       `yaml:"entity"`
	Match      []*Condition `yaml:"match"`
	Layer      string       `yaml:"layer"`
	Attributes []*Binding   `yaml:"attributes"`
}

// Condition matches the value of Key. Only one of Value, Values or Regexp
// can be set.
type Condition struct {
	Key    string   `yaml:"key"`
	Value  *string  `yaml:"value"`
	Values []string `yaml:"values"`
	Regexp string   `yaml:"regexp"`
}

// Binding sets the source of an attribute. Without Key, Source and Func
// the tag with the attribute name is used.
type Binding struct {
	Name   string                 `yaml:"name"`
	Key    string                 `yaml:"key"`
	Source string                 `yaml:"source"`
	Func   string                 `yaml:"func"`
	Args   map[string]interface{} `yaml:"args"`
}

// Raw returns the match value as it is accepted by mapping.ClassifyMatch.
// Regexp values are returned as string and need to be compiled with
// mapping.PatternString.
func (c *Condition) Raw() (interface{}, bool, error) {
	n := 0
	if c.Value != nil {
		n++
	}
	if c.Values != nil {
		n++
	}
	if c.Regexp != "" {
		n++
	}
	if n != 1 {
		return nil, false, fmt.Errorf("match for key '%s' needs exactly one of value, values or regexp", c.Key)
	}
	switch {
	case c.Value != nil:
		return *c.Value, false, nil
	case c.Values != nil:
		return c.Values, false, nil
	}
	return c.Regexp, true, nil
}

func (b *Binding) validate() error {
	n := 0
	for _, s := range []string{b.Key, b.Source, b.Func} {
		if s != "" {
			n++
		}
	}
	if n > 1 {
		return fmt.Errorf("attribute '%s' needs at most one of key, source or func", b.Name)
	}
	return nil
}

func (m *Mapping) validate() error {
	for _, l := range m.Layers {
		if l.Name == "" {
			return errors.New("layer without name")
		}
	}
	for i, r := range m.Rules {
		if r.Entity == "" {
			return fmt.Errorf("rule %d without entity", i)
		}
		if len(r.Match) == 0 {
			return fmt.Errorf("rule %d without match", i)
		}
		for _, c := range r.Match {
			if c.Key == "" {
				return fmt.Errorf("rule %d: match without key", i)
			}
			if _, _, err := c.Raw(); err != nil {
				return fmt.Errorf("rule %d: %s", i, err)
			}
		}
		for _, b := range r.Attributes {
			if err := b.validate(); err != nil {
				return fmt.Errorf("rule %d: %s", i, err)
			}
		}
	}
	return nil
}

// Parse decodes a YAML mapping. Unknown fields are errors.
func Parse(b []byte) (*Mapping, error) {
	m := &Mapping{}
	if err := yaml.UnmarshalStrict(b, m); err != nil {
		return nil, errors.Wrap(err, "parsing mapping")
	}
	if err := m.validate(); err != nil {
		return nil, errors.Wrap(err, "invalid mapping")
	}
	return m, nil
}

func FromFile(filename string) (*Mapping, error) {
	b, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mapping %s", filename)
	}
	return Parse(b)
}
