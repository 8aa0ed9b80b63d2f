package mapping

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	osm "github.com/omniscale/go-osm"
	"github.com/pkg/errors"
)

type MatchKind int

const (
	MatchAny MatchKind = iota + 1
	MatchExact
	MatchOneOf
	MatchPattern
)

func (k MatchKind) String() string {
	switch k {
	case MatchAny:
		return "any"
	case MatchExact:
		return "exact"
	case MatchOneOf:
		return "one-of"
	case MatchPattern:
		return "pattern"
	}
	return fmt.Sprintf("match(%d)", int(k))
}

// Wildcard values that match any value of a present key. "__any__" is
// accepted for compatibility with imposm mapping files.
const (
	Wildcard       = "*"
	legacyWildcard = "__any__"
	valueSeparator = "|"
)

// MatchSpec decides whether a tag value matches. The kind is fixed when the
// spec is created. A MatchSpec never matches a missing key.
type MatchSpec struct {
	kind   MatchKind
	value  string
	values map[string]struct{}
	re     *regexp.Regexp
}

func Any() MatchSpec { return MatchSpec{kind: MatchAny} }

func Exact(v string) MatchSpec { return MatchSpec{kind: MatchExact, value: v} }

func OneOf(values ...string) MatchSpec {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return MatchSpec{kind: MatchOneOf, values: set}
}

// Regexp matches values with re. The pattern is not anchored, use ^ and $
// for full matches.
func Regexp(re *regexp.Regexp) MatchSpec { return MatchSpec{kind: MatchPattern, re: re} }

// PatternString compiles expr and returns a pattern MatchSpec.
func PatternString(expr string) (MatchSpec, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return MatchSpec{}, configError("match", expr, errors.Wrap(ErrInvalidMatch, err.Error()))
	}
	return Regexp(re), nil
}

// ClassifyMatch builds a MatchSpec from a dynamically typed value:
//
//	"*" or "__any__"            any value
//	"a|b|c"                     one of the alternatives
//	"value"                     exact value
//	[]string                    one of the values
//	*regexp.Regexp              pattern
//	MatchSpec                   as is
func ClassifyMatch(raw interface{}) (MatchSpec, error) {
	var spec MatchSpec
	switch v := raw.(type) {
	case MatchSpec:
		spec = v
	case *MatchSpec:
		if v == nil {
			return MatchSpec{}, configError("match", "", ErrInvalidMatch)
		}
		spec = *v
	case string:
		switch {
		case v == Wildcard || v == legacyWildcard:
			spec = Any()
		case strings.Contains(v, valueSeparator):
			spec = OneOf(strings.Split(v, valueSeparator)...)
			for _, alt := range strings.Split(v, valueSeparator) {
				if alt == "" {
					return MatchSpec{}, configError("match", v, errors.Wrap(ErrInvalidMatch, "empty alternative"))
				}
			}
		default:
			spec = Exact(v)
		}
	case []string:
		spec = OneOf(v...)
	case *regexp.Regexp:
		if v == nil {
			return MatchSpec{}, configError("match", "", ErrInvalidMatch)
		}
		spec = Regexp(v)
	default:
		return MatchSpec{}, configError("match", fmt.Sprintf("%v", raw), errors.Wrapf(ErrInvalidMatch, "unsupported type %T", raw))
	}
	if err := spec.validate(); err != nil {
		return MatchSpec{}, err
	}
	return spec, nil
}

func (m MatchSpec) validate() error {
	switch m.kind {
	case MatchAny, MatchExact:
		return nil
	case MatchOneOf:
		if len(m.values) == 0 {
			return configError("match", "", errors.Wrap(ErrInvalidMatch, "empty value set"))
		}
		return nil
	case MatchPattern:
		if m.re == nil {
			return configError("match", "", errors.Wrap(ErrInvalidMatch, "missing pattern"))
		}
		return nil
	}
	return configError("match", "", ErrInvalidMatch)
}

func (m MatchSpec) Kind() MatchKind { return m.kind }

// Match returns whether the value of a tag matches. ok is false for
// missing tags.
func (m MatchSpec) Match(val string, ok bool) bool {
	if !ok {
		return false
	}
	switch m.kind {
	case MatchAny:
		return true
	case MatchExact:
		return val == m.value
	case MatchOneOf:
		_, found := m.values[val]
		return found
	case MatchPattern:
		return m.re.MatchString(val)
	}
	return false
}

func (m MatchSpec) String() string {
	switch m.kind {
	case MatchAny:
		return Wildcard
	case MatchExact:
		return m.value
	case MatchOneOf:
		values := make([]string, 0, len(m.values))
		for v := range m.values {
			values = append(values, v)
		}
		sort.Strings(values)
		return strings.Join(values, valueSeparator)
	case MatchPattern:
		return "/" + m.re.String() + "/"
	}
	return "<invalid>"
}

// Condition matches the value of a single key.
type Condition struct {
	Key  string
	Spec MatchSpec
}

// Match returns the matched value.
func (c Condition) Match(tags osm.Tags) (string, bool) {
	v, ok := tags[c.Key]
	if c.Spec.Match(v, ok) {
		return v, true
	}
	return "", false
}

func (c Condition) String() string {
	return c.Key + "=" + c.Spec.String()
}
