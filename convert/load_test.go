package convert

import (
	"context"
	"reflect"
	"regexp"
	"testing"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmconvert/database"
	"github.com/omniscale/osmconvert/mapping"
	"github.com/omniscale/osmconvert/mapping/config"
	"github.com/omniscale/osmconvert/reader"
	"github.com/pkg/errors"
)

const roadsMapping = `
layers:
  - name: roads
    geometry: linestring
    attributes:
      - {name: osm_id, type: integer}
      - {name: oneway, type: integer}
      - {name: type, type: string}
      - {name: name, type: string}
  - name: pois
    attributes:
      - {name: class, type: string}
      - {name: name, type: string}
rules:
  - entity: way
    match:
      - {key: highway, regexp: '^(motorway|trunk)(_link)?$'}
    layer: roads
    attributes:
      - {name: osm_id, source: id}
      - {name: oneway, func: direction}
      - {name: type, key: highway}
      - {name: name}
  - entity: node
    match:
      - {key: amenity, values: [pub, cafe]}
      - {key: name, value: '*'}
    layer: pois
    attributes:
      - {name: class, source: matched_value}
      - {name: name}
`

func testEntities() reader.Source {
	return reader.NewSlice(
		node(1, osm.Tags{"amenity": "pub", "name": "Fox"}),
		node(2, osm.Tags{"amenity": "cafe"}),
		node(3, osm.Tags{"amenity": "bar", "name": "Bar"}),
		way(4, osm.Tags{"highway": "trunk_link", "oneway": "yes", "name": "A1"}, 0, 0, 1, 1),
		way(5, osm.Tags{"highway": "primary"}, 0, 0, 1, 1),
	)
}

func TestLoadEqualsBuilder(t *testing.T) {
	m, err := config.Parse([]byte(roadsMapping))
	if err != nil {
		t.Fatal(err)
	}
	loaded := database.NewMemory()
	c := New(loaded, Options{})
	if err := c.Load(m); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background(), testEntities()); err != nil {
		t.Fatal(err)
	}

	built := database.NewMemory()
	c = New(built, Options{})
	c.Layer("roads").Geometry("linestring").
		Attribute("osm_id", "integer").
		Attribute("oneway", "integer").
		Attribute("type", "string").
		Attribute("name", "string")
	c.Layer("pois").Attribute("class", "string").Attribute("name", "string")
	c.Way("highway", regexp.MustCompile(`^(motorway|trunk)(_link)?$`)).ToLayer("roads").
		Attr("name").
		Attr("type", mapping.OtherKey("highway")).
		Attr("oneway", mapping.Derived(mapping.Direction)).
		Attr("osm_id", mapping.EntityID())
	c.Node("amenity", "pub|cafe").Matching("name", "*").ToLayer("pois").
		Attr("class", mapping.MatchedValue()).
		Attr("name")
	if err := c.Err(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Run(context.Background(), testEntities()); err != nil {
		t.Fatal(err)
	}

	for _, layer := range []string{"roads", "pois"} {
		if !reflect.DeepEqual(loaded.Records[layer], built.Records[layer]) {
			t.Errorf("%s: %v != %v", layer, loaded.Records[layer], built.Records[layer])
		}
	}
	if len(built.Records["pois"]) != 1 || !reflect.DeepEqual(built.Records["pois"][0].Values, []interface{}{"pub", "Fox"}) {
		t.Error(built.Records["pois"])
	}
	if len(built.Records["roads"]) != 1 || !reflect.DeepEqual(built.Records["roads"][0].Values, []interface{}{int64(4), int64(1), "trunk_link", "A1"}) {
		t.Error(built.Records["roads"])
	}
}

func TestLoadErrors(t *testing.T) {
	for _, tc := range []struct {
		doc    string
		target error
	}{
		{`
layers: [{name: pois, geometry: circle}]`, nil},
		{`
layers: [{name: pois, attributes: [{name: n, type: decimal}]}]`, mapping.ErrUnknownType},
		{`
layers: [{name: pois}]
rules: [{entity: relation, match: [{key: a, value: b}], layer: pois}]`, nil},
		{`
layers: [{name: pois}]
rules: [{entity: node, match: [{key: a, regexp: '('}], layer: pois}]`, mapping.ErrInvalidMatch},
		{`
layers: [{name: pois}]
rules: [{entity: node, match: [{key: a, value: b}], layer: roads}]`, mapping.ErrUnknownLayer},
		{`
layers: [{name: pois}]
rules: [{entity: way, match: [{key: a, value: b}], layer: pois}]`, mapping.ErrGeometryMismatch},
		{`
layers: [{name: pois, attributes: [{name: n, type: string}]}]
rules: [{entity: node, match: [{key: a, value: b}], layer: pois, attributes: [{name: x}]}]`, mapping.ErrUnknownAttribute},
		{`
layers: [{name: pois, attributes: [{name: n, type: string}]}]
rules: [{entity: node, match: [{key: a, value: b}], layer: pois, attributes: [{name: n, source: tags}]}]`, mapping.ErrInvalidAttribute},
		{`
layers: [{name: pois, attributes: [{name: n, type: string}]}]
rules: [{entity: node, match: [{key: a, value: b}], layer: pois, attributes: [{name: n, func: unknown}]}]`, mapping.ErrUnknownDerived},
	} {
		m, err := config.Parse([]byte(tc.doc))
		if err != nil {
			t.Errorf("%s: %s", tc.doc, err)
			continue
		}
		c := New(database.NewMemory(), Options{})
		err = c.Load(m)
		if !mapping.IsConfigError(err) {
			t.Errorf("%s: expected config error, got %v", tc.doc, err)
			continue
		}
		if tc.target != nil && !errors.Is(err, tc.target) {
			t.Errorf("%s: expected %v, got %v", tc.doc, tc.target, err)
		}
		if c.Err() == nil {
			t.Errorf("%s: error not recorded", tc.doc)
		}
	}
}
