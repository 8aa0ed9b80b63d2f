// Package geom contains the geometries that are written to the output layers
// and their WKB/WKT encodings.
package geom

import (
	"strings"

	osm "github.com/omniscale/go-osm"
	"github.com/pkg/errors"
)

var (
	ErrorOneNodeWay = errors.New("need at least two separate nodes for way")
	ErrorNoRing     = errors.New("linestrings do not form ring")
	ErrUnknownType  = errors.New("unknown geometry type")
)

// Type is the geometry type of an output layer.
type Type int

const (
	UnknownType Type = iota
	PointType
	LineStringType
	MultiPolygonType
)

func (t Type) String() string {
	switch t {
	case PointType:
		return "point"
	case LineStringType:
		return "linestring"
	case MultiPolygonType:
		return "multipolygon"
	}
	return "unknown"
}

// ParseType returns the Type for point, linestring or multipolygon.
// polygon is accepted for multipolygon.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "point":
		return PointType, nil
	case "linestring":
		return LineStringType, nil
	case "multipolygon", "polygon":
		return MultiPolygonType, nil
	}
	return UnknownType, errors.Wrapf(ErrUnknownType, "%q", s)
}

// Geometry is a geometry that can be written to a layer.
type Geometry interface {
	Type() Type
	// WKB returns the little endian OGC WKB without SRID.
	WKB() []byte
	WKT() string
}

type Point struct {
	Long, Lat float64
}

type LineString []Point

// Ring is a closed LineString, first point equals last point.
type Ring []Point

// Polygon is an exterior ring with optional holes.
type Polygon []Ring

type MultiPolygon []Polygon

func (Point) Type() Type        { return PointType }
func (LineString) Type() Type   { return LineStringType }
func (MultiPolygon) Type() Type { return MultiPolygonType }

func NewPoint(nd osm.Node) Point {
	return Point{Long: nd.Long, Lat: nd.Lat}
}

func NewLineString(nodes []osm.Node) (LineString, error) {
	nodes = unduplicateNodes(nodes)
	if len(nodes) < 2 {
		return nil, ErrorOneNodeWay
	}
	ls := make(LineString, len(nodes))
	for i, nd := range nodes {
		ls[i] = Point{Long: nd.Long, Lat: nd.Lat}
	}
	return ls, nil
}

// NewMultiPolygonFromRing builds a MultiPolygon with a single polygon from
// the nodes of a closed way.
func NewMultiPolygonFromRing(nodes []osm.Node) (MultiPolygon, error) {
	nodes = unduplicateNodes(nodes)
	if len(nodes) < 4 {
		return nil, ErrorNoRing
	}
	first, last := nodes[0], nodes[len(nodes)-1]
	if first.Long != last.Long || first.Lat != last.Lat {
		return nil, ErrorNoRing
	}
	ring := make(Ring, len(nodes))
	for i, nd := range nodes {
		ring[i] = Point{Long: nd.Long, Lat: nd.Lat}
	}
	return MultiPolygon{Polygon{ring}}, nil
}

// unduplicateNodes removes consecutive nodes with the same coordinates.
func unduplicateNodes(nodes []osm.Node) []osm.Node {
	if len(nodes) < 2 {
		return nodes
	}
	foundDup := false
	for i := 1; i < len(nodes); i++ {
		if nodes[i-1].Long == nodes[i].Long && nodes[i-1].Lat == nodes[i].Lat {
			foundDup = true
			break
		}
	}
	if !foundDup {
		return nodes
	}

	result := make([]osm.Node, 0, len(nodes))
	result = append(result, nodes[0])
	for i := 1; i < len(nodes); i++ {
		if nodes[i-1].Long == nodes[i].Long && nodes[i-1].Lat == nodes[i].Lat {
			continue
		}
		result = append(result, nodes[i])
	}
	return result
}
