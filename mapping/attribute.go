package mapping

import (
	"fmt"
	"sort"
	"strings"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmconvert/element"
	"github.com/pkg/errors"
)

type SourceKind int

const (
	SameKeySource SourceKind = iota + 1
	OtherKeySource
	DerivedSource
	EntityIDSource
	MatchedKeySource
	MatchedValueSource
)

// DerivedFunc computes an attribute value from all tags of an entity.
// The result is coerced to the attribute type.
type DerivedFunc func(tags osm.Tags) interface{}

// AttributeSource describes where the value of an attribute comes from.
type AttributeSource struct {
	kind SourceKind
	key  string
	fn   DerivedFunc
}

// SameKey reads the tag with the same name as the attribute.
func SameKey() AttributeSource { return AttributeSource{kind: SameKeySource} }

// OtherKey reads the tag key.
func OtherKey(key string) AttributeSource { return AttributeSource{kind: OtherKeySource, key: key} }

func Derived(fn DerivedFunc) AttributeSource { return AttributeSource{kind: DerivedSource, fn: fn} }

// EntityID is the OSM ID of the entity.
func EntityID() AttributeSource { return AttributeSource{kind: EntityIDSource} }

// MatchedKey is the key of the first condition of the matching rule.
func MatchedKey() AttributeSource { return AttributeSource{kind: MatchedKeySource} }

// MatchedValue is the tag value of the first condition of the matching rule.
func MatchedValue() AttributeSource { return AttributeSource{kind: MatchedValueSource} }

func (s AttributeSource) Kind() SourceKind { return s.kind }

func (s AttributeSource) validate() error {
	switch s.kind {
	case SameKeySource, EntityIDSource, MatchedKeySource, MatchedValueSource:
		return nil
	case OtherKeySource:
		if s.key == "" {
			return errors.Wrap(ErrInvalidAttribute, "empty key")
		}
		return nil
	case DerivedSource:
		if s.fn == nil {
			return errors.Wrap(ErrInvalidAttribute, "missing function")
		}
		return nil
	}
	return ErrInvalidAttribute
}

// value returns the attribute value already coerced to typ.
func (s AttributeSource) value(attr Attribute, e *element.Entity, m *Match) interface{} {
	switch s.kind {
	case SameKeySource:
		v, ok := e.Tags[attr.Name]
		return attr.Type.FromTag(v, ok)
	case OtherKeySource:
		v, ok := e.Tags[s.key]
		return attr.Type.FromTag(v, ok)
	case DerivedSource:
		return attr.Type.Coerce(s.fn(e.Tags))
	case EntityIDSource:
		return attr.Type.Coerce(e.ID)
	case MatchedKeySource:
		return attr.Type.FromTag(m.Key, true)
	case MatchedValueSource:
		return attr.Type.FromTag(m.Value, true)
	}
	return nil
}

func (s AttributeSource) String() string {
	switch s.kind {
	case SameKeySource:
		return "same-key"
	case OtherKeySource:
		return "key(" + s.key + ")"
	case DerivedSource:
		return "derived"
	case EntityIDSource:
		return "id"
	case MatchedKeySource:
		return "matched-key"
	case MatchedValueSource:
		return "matched-value"
	}
	return "<invalid>"
}

// Direction returns 1 for oneway=yes|true|1, -1 for oneway=-1 and 0
// otherwise.
func Direction(tags osm.Tags) interface{} {
	return direction(tags["oneway"])
}

func direction(val string) int {
	if val == "1" || val == "yes" || val == "true" {
		return 1
	} else if val == "-1" {
		return -1
	}
	return 0
}

// MakeDerived creates a DerivedFunc for a named function with args from a
// mapping file.
type MakeDerived func(args map[string]interface{}) (DerivedFunc, error)

var derivedFuncs = map[string]MakeDerived{
	"direction":  makeDirection,
	"categorize": MakeCategorize,
}

// RegisterDerived makes a named derived function available for mapping
// files.
func RegisterDerived(name string, mk MakeDerived) {
	derivedFuncs[name] = mk
}

// DerivedByName creates the named derived function.
func DerivedByName(name string, args map[string]interface{}) (DerivedFunc, error) {
	mk, ok := derivedFuncs[name]
	if !ok {
		names := make([]string, 0, len(derivedFuncs))
		for n := range derivedFuncs {
			names = append(names, n)
		}
		sort.Strings(names)
		return nil, configError("derived", name,
			errors.Wrapf(ErrUnknownDerived, "available: %s", strings.Join(names, ", ")))
	}
	fn, err := mk(args)
	if err != nil {
		return nil, configError("derived", name, err)
	}
	return fn, nil
}

func makeDirection(args map[string]interface{}) (DerivedFunc, error) {
	key := "oneway"
	if k, ok := args["key"]; ok {
		s, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("'key' in 'args' for direction not a string but %T", k)
		}
		key = s
	}
	return func(tags osm.Tags) interface{} {
		return direction(tags[key])
	}, nil
}

// MakeCategorize maps the value of the first of the keys with a known
// value to its category, or to the default category.
//
//	args:
//	  keys: [highway, railway]
//	  values: {motorway: 1, primary: 2}
//	  default: 9
func MakeCategorize(args map[string]interface{}) (DerivedFunc, error) {
	_keys, ok := args["keys"]
	if !ok {
		return nil, errors.New("missing 'keys' in 'args' for categorize")
	}
	rawKeys, ok := _keys.([]interface{})
	if !ok {
		return nil, fmt.Errorf("'keys' in 'args' for categorize not a list but %T", _keys)
	}
	keys := make([]string, 0, len(rawKeys))
	for _, k := range rawKeys {
		s, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("key in keys not a string but %T", k)
		}
		keys = append(keys, s)
	}

	_values, ok := args["values"]
	if !ok {
		return nil, errors.New("missing 'values' in 'args' for categorize")
	}
	categories := make(map[string]int)
	addCategory := func(value, category interface{}) error {
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("category in values not a string key but %T", value)
		}
		c, ok := category.(int)
		if !ok {
			return fmt.Errorf("category in values not an int but %T", category)
		}
		categories[v] = c
		return nil
	}
	switch values := _values.(type) {
	case map[interface{}]interface{}:
		for v, c := range values {
			if err := addCategory(v, c); err != nil {
				return nil, err
			}
		}
	case map[string]interface{}:
		for v, c := range values {
			if err := addCategory(v, c); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("'values' in 'args' for categorize not a dictionary but %T", _values)
	}

	_default, ok := args["default"]
	if !ok {
		return nil, errors.New("missing 'default' in 'args' for categorize")
	}
	defaultCategory, ok := _default.(int)
	if !ok {
		return nil, fmt.Errorf("'default' in 'args' for categorize not an int but %T", _default)
	}

	return func(tags osm.Tags) interface{} {
		for _, k := range keys {
			v, ok := tags[k]
			if !ok {
				continue
			}
			if cat, ok := categories[v]; ok {
				return cat
			}
		}
		return defaultCategory
	}, nil
}
