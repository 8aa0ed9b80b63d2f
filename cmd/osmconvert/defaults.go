package main

import (
	"regexp"

	"github.com/omniscale/osmconvert/convert"
	"github.com/omniscale/osmconvert/mapping"
)

// defaultMapping declares the layers of the demo conversion: natural POIs,
// roads, cycleways, railways, waterways, boundaries, landuse and water.
func defaultMapping(c *convert.Converter) error {
	c.Layer("natural_pois").Geometry("point").
		Attribute("osm_id", "string").
		Attribute("type", "string").
		Attribute("name", "string")

	c.Layer("roads").Geometry("linestring").
		Attribute("osm_id", "integer").
		Attribute("type", "string").
		Attribute("name", "string").
		Attribute("ref", "string").
		Attribute("oneway", "integer").
		Attribute("maxspeed", "integer")

	c.Layer("cycleways").Geometry("linestring").
		Attribute("osm_id", "integer").
		Attribute("name", "string")

	c.Layer("railways").Geometry("linestring").
		Attribute("osm_id", "integer").
		Attribute("name", "string")

	c.Layer("waterways").Geometry("linestring").
		Attribute("osm_id", "integer").
		Attribute("type", "string").
		Attribute("name", "string")

	c.Layer("boundaries").Geometry("multipolygon").
		Attribute("osm_id", "integer").
		Attribute("level", "integer").
		Attribute("name", "string")

	c.Layer("landuse").Geometry("multipolygon").
		Attribute("osm_id", "integer").
		Attribute("type", "string").
		Attribute("name", "string")

	c.Layer("water").Geometry("multipolygon").
		Attribute("osm_id", "integer").
		Attribute("type", "string").
		Attribute("name", "string")

	id := mapping.EntityID()

	c.Node("natural", "tree|peak|spring").ToLayer("natural_pois").
		Attr("osm_id", id).
		Attr("type", mapping.OtherKey("natural")).
		Attr("name")

	c.Way("waterway", "stream|river|ditch|canal|drain").ToLayer("waterways").
		Attr("osm_id", id).
		Attr("type", mapping.OtherKey("waterway")).
		Attr("name")

	c.Way("highway", regexp.MustCompile(`^(motorway|trunk|primary|secondary)(_link)?$`)).ToLayer("roads").
		Attr("osm_id", id).
		Attr("type", mapping.OtherKey("highway")).
		Attr("ref").
		Attr("name").
		Attr("oneway", mapping.Derived(mapping.Direction)).
		Attr("maxspeed")

	c.Way("highway", "cycleway").ToLayer("cycleways").
		Attr("osm_id", id).
		Attr("name")

	c.Way("railway", "rail").ToLayer("railways").
		Attr("osm_id", id).
		Attr("name")

	c.Area("boundary", "administrative").ToLayer("boundaries").
		Attr("osm_id", id).
		Attr("level", mapping.OtherKey("admin_level")).
		Attr("name")

	c.Area("landuse", "forest|grass|residential|farm|meadow|farmland|industrial|farmyard|cemetery|commercial|quarry|orchard|vineyard|allotments|retail|construction|recreation_ground|village_green").
		ToLayer("landuse").
		Attr("osm_id", id).
		Attr("type", mapping.OtherKey("landuse")).
		Attr("name")

	c.Area("natural", "water").ToLayer("water").
		Attr("osm_id", id).
		Attr("type", mapping.OtherKey("natural")).
		Attr("name")

	return c.Err()
}
