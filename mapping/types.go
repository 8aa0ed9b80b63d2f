package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// AttributeType is the type of a layer attribute. All values of an
// attribute are coerced to this type before they are written.
type AttributeType int

const (
	InvalidType AttributeType = iota
	Integer
	String
	Bool
	Real
)

var attributeTypes = map[string]AttributeType{
	"integer": Integer,
	"int":     Integer,
	"string":  String,
	"text":    String,
	"bool":    Bool,
	"boolean": Bool,
	"real":    Real,
	"float":   Real,
	"double":  Real,
}

// ParseAttributeType parses a type name like "integer" or "string".
func ParseAttributeType(s string) (AttributeType, error) {
	if t, ok := attributeTypes[strings.ToLower(s)]; ok {
		return t, nil
	}
	return InvalidType, ErrUnknownType
}

func (t AttributeType) String() string {
	switch t {
	case Integer:
		return "integer"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Real:
		return "real"
	}
	return fmt.Sprintf("type(%d)", int(t))
}

func (t AttributeType) valid() bool {
	return t >= Integer && t <= Real
}

// FromTag converts a tag value. A missing tag (ok == false) is always nil.
func (t AttributeType) FromTag(val string, ok bool) interface{} {
	if !ok {
		return nil
	}
	switch t {
	case Integer:
		v, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return nil
		}
		return v
	case Real:
		v, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case Bool:
		if val == "" || val == "0" || val == "false" || val == "no" {
			return false
		}
		return true
	case String:
		return val
	}
	return nil
}

// Coerce converts the result of a derived function or a built-in source
// to t. Values that can not be represented are nil.
func (t AttributeType) Coerce(v interface{}) interface{} {
	switch v := v.(type) {
	case nil:
		return nil
	case string:
		return t.FromTag(v, true)
	case bool:
		switch t {
		case Bool:
			return v
		case Integer:
			if v {
				return int64(1)
			}
			return int64(0)
		case Real:
			if v {
				return 1.0
			}
			return 0.0
		case String:
			return strconv.FormatBool(v)
		}
	case int:
		return t.fromInt(int64(v))
	case int8:
		return t.fromInt(int64(v))
	case int16:
		return t.fromInt(int64(v))
	case int32:
		return t.fromInt(int64(v))
	case int64:
		return t.fromInt(v)
	case uint8:
		return t.fromInt(int64(v))
	case uint16:
		return t.fromInt(int64(v))
	case uint32:
		return t.fromInt(int64(v))
	case uint:
		return t.fromUint(uint64(v))
	case uint64:
		return t.fromUint(v)
	case float32:
		return t.fromFloat(float64(v))
	case float64:
		return t.fromFloat(v)
	case fmt.Stringer:
		return t.FromTag(v.String(), true)
	}
	return nil
}

func (t AttributeType) fromInt(v int64) interface{} {
	switch t {
	case Integer:
		return v
	case Real:
		return float64(v)
	case Bool:
		return v != 0
	case String:
		return strconv.FormatInt(v, 10)
	}
	return nil
}

func (t AttributeType) fromUint(v uint64) interface{} {
	if v > math.MaxInt64 {
		switch t {
		case Real:
			return float64(v)
		case Bool:
			return true
		case String:
			return strconv.FormatUint(v, 10)
		}
		return nil
	}
	return t.fromInt(int64(v))
}

func (t AttributeType) fromFloat(v float64) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	switch t {
	case Integer:
		if v != math.Trunc(v) || v >= 1<<63 || v < -(1<<63) {
			return nil
		}
		return int64(v)
	case Real:
		return v
	case Bool:
		return v != 0
	case String:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return nil
}
