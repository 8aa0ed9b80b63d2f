// Package element defines the entities that are delivered by an entity
// stream: nodes, ways and areas with their tags and a fallible geometry
// accessor.
package element

import (
	"fmt"
	"strings"

	osm "github.com/omniscale/go-osm"
	"github.com/omniscale/osmconvert/geom"
	"github.com/pkg/errors"
)

type Kind int

const (
	Node Kind = iota
	Way
	Area
)

// Kinds lists all entity kinds in stream order.
var Kinds = []Kind{Node, Way, Area}

func (k Kind) String() string {
	switch k {
	case Node:
		return "node"
	case Way:
		return "way"
	case Area:
		return "area"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "node":
		return Node, nil
	case "way":
		return Way, nil
	case "area":
		return Area, nil
	}
	return 0, errors.Errorf("unknown entity kind %q", s)
}

// GeometryType returns the only geometry type that can be built for this kind.
func (k Kind) GeometryType() geom.Type {
	switch k {
	case Node:
		return geom.PointType
	case Way:
		return geom.LineStringType
	case Area:
		return geom.MultiPolygonType
	}
	return geom.UnknownType
}

// Coords resolves node references to nodes with coordinates.
type Coords interface {
	GetCoords(refs []int64) ([]osm.Node, error)
}

// GeometryFunc builds the geometry of an entity.
type GeometryFunc func() (geom.Geometry, error)

type Entity struct {
	Kind Kind
	ID   int64
	Tags osm.Tags
	geom GeometryFunc
}

// New returns an entity with a custom geometry builder.
func New(kind Kind, id int64, tags osm.Tags, g GeometryFunc) *Entity {
	return &Entity{Kind: kind, ID: id, Tags: tags, geom: g}
}

func NewNode(n *osm.Node) *Entity {
	pt := geom.NewPoint(*n)
	return &Entity{
		Kind: Node,
		ID:   n.ID,
		Tags: n.Tags,
		geom: func() (geom.Geometry, error) { return pt, nil },
	}
}

// NewWay returns a way entity. The node coordinates are taken from w.Nodes
// if present, otherwise they are resolved with coords when the geometry is
// requested.
func NewWay(w *osm.Way, coords Coords) *Entity {
	return &Entity{
		Kind: Way,
		ID:   w.ID,
		Tags: w.Tags,
		geom: func() (geom.Geometry, error) {
			nodes, err := wayNodes(w, coords)
			if err != nil {
				return nil, err
			}
			return geom.NewLineString(nodes)
		},
	}
}

// NewArea returns an area entity for a closed way. The area uses the ID of
// the way.
func NewArea(w *osm.Way, coords Coords) *Entity {
	return &Entity{
		Kind: Area,
		ID:   w.ID,
		Tags: w.Tags,
		geom: func() (geom.Geometry, error) {
			if !w.IsClosed() {
				return nil, geom.ErrorNoRing
			}
			nodes, err := wayNodes(w, coords)
			if err != nil {
				return nil, err
			}
			return geom.NewMultiPolygonFromRing(nodes)
		},
	}
}

func wayNodes(w *osm.Way, coords Coords) ([]osm.Node, error) {
	if len(w.Nodes) > 0 {
		return w.Nodes, nil
	}
	if coords == nil {
		return nil, errors.New("no coordinates available")
	}
	return coords.GetCoords(w.Refs)
}

// Geometry builds the geometry of the entity. Any failure is returned as
// *GeometryError.
func (e *Entity) Geometry() (geom.Geometry, error) {
	if e.geom == nil {
		return nil, &GeometryError{Kind: e.Kind, ID: e.ID, Err: errors.New("no geometry")}
	}
	g, err := e.geom()
	if err != nil {
		return nil, &GeometryError{Kind: e.Kind, ID: e.ID, Err: err}
	}
	return g, nil
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s/%d %v", e.Kind, e.ID, (map[string]string)(e.Tags))
}

// ErrGeometryUnavailable matches all *GeometryError with errors.Is.
var ErrGeometryUnavailable = errors.New("geometry unavailable")

// GeometryError reports that the geometry of a single entity could not be
// built, e.g. because node coordinates are missing.
type GeometryError struct {
	Kind Kind
	ID   int64
	Err  error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("geometry unavailable for %s %d: %v", e.Kind, e.ID, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

func (e *GeometryError) Is(target error) bool {
	return target == ErrGeometryUnavailable
}
