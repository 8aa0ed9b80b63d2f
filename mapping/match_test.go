package mapping

import (
	"regexp"
	"testing"

	"github.com/pkg/errors"
)

func TestClassifyMatch(t *testing.T) {
	for _, test := range []struct {
		raw  interface{}
		kind MatchKind
	}{
		{"*", MatchAny},
		{"__any__", MatchAny},
		{"bar", MatchExact},
		{"", MatchExact},
		{"pub|cafe", MatchOneOf},
		{[]string{"pub", "cafe"}, MatchOneOf},
		{regexp.MustCompile("^pub"), MatchPattern},
		{Exact("x"), MatchExact},
		{OneOf("a"), MatchOneOf},
	} {
		spec, err := ClassifyMatch(test.raw)
		if err != nil {
			t.Errorf("%v: %s", test.raw, err)
			continue
		}
		if spec.Kind() != test.kind {
			t.Errorf("%v: %v != %v", test.raw, spec.Kind(), test.kind)
		}
	}
}

func TestClassifyMatchErrors(t *testing.T) {
	for _, raw := range []interface{}{
		42,
		nil,
		"pub||cafe",
		"|",
		[]string{},
		MatchSpec{},
		(*regexp.Regexp)(nil),
	} {
		_, err := ClassifyMatch(raw)
		if err == nil {
			t.Errorf("expected error for %#v", raw)
			continue
		}
		if !IsConfigError(err) {
			t.Errorf("%#v: not a config error: %s", raw, err)
		}
	}
}

func TestMatchSpec(t *testing.T) {
	for _, test := range []struct {
		spec MatchSpec
		val  string
		ok   bool
		want bool
	}{
		{Any(), "anything", true, true},
		{Any(), "", true, true},
		{Any(), "", false, false},
		{Exact("bar"), "bar", true, true},
		{Exact("bar"), "barx", true, false},
		{Exact("bar"), "bar", false, false},
		{OneOf("pub", "cafe"), "pub", true, true},
		{OneOf("pub", "cafe"), "cafe", true, true},
		{OneOf("pub", "cafe"), "bar", true, false},
		{OneOf("pub", "cafe"), "pub|cafe", true, false},
		{Regexp(regexp.MustCompile("^(motorway|trunk)(_link)?$")), "trunk_link", true, true},
		{Regexp(regexp.MustCompile("^(motorway|trunk)(_link)?$")), "primary", true, false},
		{Regexp(regexp.MustCompile(".*")), "", false, false},
	} {
		if got := test.spec.Match(test.val, test.ok); got != test.want {
			t.Errorf("%s.Match(%q, %v) = %v", test.spec, test.val, test.ok, got)
		}
	}
}

func TestSetIsNotStringContainment(t *testing.T) {
	spec, err := ClassifyMatch("pub|cafe")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []string{"pu", "ub", "caf", "pub|"} {
		if spec.Match(v, true) {
			t.Errorf("%q should not match", v)
		}
	}
}

func TestPatternString(t *testing.T) {
	spec, err := PatternString("^a+$")
	if err != nil {
		t.Fatal(err)
	}
	if !spec.Match("aaa", true) || spec.Match("ab", true) {
		t.Error(spec)
	}
	_, err = PatternString("([")
	if !errors.Is(err, ErrInvalidMatch) {
		t.Fatal(err)
	}
}

func TestMatchSpecString(t *testing.T) {
	if s := OneOf("cafe", "pub").String(); s != "cafe|pub" {
		t.Error(s)
	}
	if s := Any().String(); s != "*" {
		t.Error(s)
	}
}
