package mapping

import (
	"testing"

	"github.com/omniscale/osmconvert/element"
	"github.com/omniscale/osmconvert/geom"
	"github.com/pkg/errors"
)

func assertConfigError(t *testing.T, err error, target error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsConfigError(err) {
		t.Fatalf("not a config error: %s", err)
	}
	if target != nil && !errors.Is(err, target) {
		t.Fatalf("expected %v, got %s", target, err)
	}
}

func TestDeclare(t *testing.T) {
	reg := NewRegistry()
	l, err := reg.Declare("pois")
	if err != nil {
		t.Fatal(err)
	}
	if l.Geometry != geom.PointType || len(l.Attributes) != 0 {
		t.Error("unexpected defaults", l)
	}
	if _, err := reg.Declare("pois"); err == nil {
		t.Fatal("expected error")
	}
	_, err = reg.Declare("pois")
	assertConfigError(t, err, ErrDuplicate)

	reg.Declare("roads")
	layers := reg.Layers()
	if len(layers) != 2 || layers[0].Name != "pois" || layers[1].Name != "roads" {
		t.Fatal(layers)
	}
}

func TestAddAttribute(t *testing.T) {
	reg := NewRegistry()
	l, _ := reg.Declare("pois")
	if err := l.AddAttribute("osm_id", Integer); err != nil {
		t.Fatal(err)
	}
	if err := l.AddAttribute("name", String); err != nil {
		t.Fatal(err)
	}
	assertConfigError(t, l.AddAttribute("name", Integer), ErrDuplicate)
	assertConfigError(t, l.AddAttribute("x", InvalidType), ErrUnknownType)
	assertConfigError(t, l.AddAttribute("geometry", String), ErrReservedName)
	assertConfigError(t, l.AddAttribute("id", Integer), ErrReservedName)

	a, ok := l.Attribute("name")
	if !ok || a.Index != 1 || a.Type != String {
		t.Fatal(a)
	}
}

func TestSetGeometry(t *testing.T) {
	reg := NewRegistry()
	l, _ := reg.Declare("a")
	if err := l.SetGeometry(geom.MultiPolygonType); err != nil {
		t.Fatal(err)
	}
	assertConfigError(t, l.SetGeometry(geom.UnknownType), nil)

	if err := l.SetGeometryKind("LineString"); err != nil || l.Geometry != geom.LineStringType {
		t.Fatal(err, l.Geometry)
	}
	assertConfigError(t, l.SetGeometryKind("circle"), geom.ErrUnknownType)
}

func TestAddTypedAttribute(t *testing.T) {
	reg := NewRegistry()
	l, _ := reg.Declare("a")
	if err := l.AddTypedAttribute("width", "double"); err != nil {
		t.Fatal(err)
	}
	if a, _ := l.Attribute("width"); a.Type != Real {
		t.Error(a)
	}
	assertConfigError(t, l.AddTypedAttribute("speed", "decimal"), ErrUnknownType)
	assertConfigError(t, l.AddTypedAttribute("width", "string"), ErrDuplicate)
}

func TestRuleConfigErrors(t *testing.T) {
	reg := NewRegistry()
	l, _ := reg.Declare("pois")
	l.AddAttribute("name", String)
	reg.Declare("roads")
	roads, _ := reg.Layer("roads")
	roads.SetGeometry(geom.LineStringType)
	table := NewRuleTable(reg)

	r, err := table.Add(element.Node, "amenity", Any())
	if err != nil {
		t.Fatal(err)
	}
	// bind before to_layer
	assertConfigError(t, r.Bind("name", SameKey()), ErrLayerNotSet)
	assertConfigError(t, r.ToLayer("unknown"), ErrUnknownLayer)
	// node rule, linestring layer
	assertConfigError(t, r.ToLayer("roads"), ErrGeometryMismatch)

	if err := r.ToLayer("pois"); err != nil {
		t.Fatal(err)
	}
	assertConfigError(t, r.ToLayer("pois"), ErrLayerAlreadySet)
	assertConfigError(t, r.Bind("type", SameKey()), ErrUnknownAttribute)
	if err := r.Bind("name", SameKey()); err != nil {
		t.Fatal(err)
	}
	assertConfigError(t, r.Bind("name", OtherKey("other")), ErrDuplicate)
	r2, _ := table.Add(element.Node, "shop", Any())
	r2.ToLayer("pois")
	assertConfigError(t, r2.Bind("name", OtherKey("")), ErrInvalidAttribute)
	assertConfigError(t, r2.Bind("name", Derived(nil)), ErrInvalidAttribute)

	_, err = table.Add(element.Node, "", Any())
	assertConfigError(t, err, ErrInvalidMatch)
	_, err = table.Add(element.Node, "a", MatchSpec{})
	assertConfigError(t, err, ErrInvalidMatch)
}

func TestFreeze(t *testing.T) {
	reg := NewRegistry()
	l, _ := reg.Declare("pois")
	table := NewRuleTable(reg)
	r, _ := table.Add(element.Node, "amenity", Any())

	// rule without layer
	assertConfigError(t, table.Freeze(), ErrLayerNotSet)
	if table.Frozen() || reg.Frozen() {
		t.Fatal("frozen after failed freeze")
	}
	r.ToLayer("pois")

	// geometry changed after to_layer
	l.SetGeometry(geom.LineStringType)
	assertConfigError(t, table.Freeze(), ErrGeometryMismatch)
	l.SetGeometry(geom.PointType)

	if err := table.Freeze(); err != nil {
		t.Fatal(err)
	}
	if !reg.Frozen() {
		t.Fatal("registry not frozen")
	}

	_, err := reg.Declare("other")
	assertConfigError(t, err, ErrFrozen)
	assertConfigError(t, l.AddAttribute("name", String), ErrFrozen)
	assertConfigError(t, l.SetGeometry(geom.PointType), ErrFrozen)
	_, err = table.Add(element.Node, "shop", Any())
	assertConfigError(t, err, ErrFrozen)
	assertConfigError(t, r.AddCondition("name", Any()), ErrFrozen)
	assertConfigError(t, r.Bind("name", SameKey()), ErrFrozen)
}
