package mapping

import (
	"github.com/omniscale/osmconvert/geom"
)

// Reserved column names of every output table.
const (
	IDColumn       = "id"
	GeometryColumn = "geometry"
)

type Attribute struct {
	Name  string
	Type  AttributeType
	Index int
}

// LayerSchema describes one output layer: a name, a single geometry type
// and an ordered list of typed attributes.
type LayerSchema struct {
	Name       string
	Geometry   geom.Type
	Attributes []Attribute
	index      map[string]int
	registry   *Registry
}

// SetGeometry changes the geometry type of the layer. Only point,
// linestring and multipolygon layers are supported.
func (l *LayerSchema) SetGeometry(t geom.Type) error {
	if l.registry.frozen {
		return configError("set_geometry", l.Name, ErrFrozen)
	}
	switch t {
	case geom.PointType, geom.LineStringType, geom.MultiPolygonType:
	default:
		return configError("set_geometry", l.Name, geom.ErrUnknownType)
	}
	l.Geometry = t
	return nil
}

// SetGeometryKind parses the geometry type name and sets it.
func (l *LayerSchema) SetGeometryKind(kind string) error {
	if l.registry.frozen {
		return configError("set_geometry", l.Name, ErrFrozen)
	}
	t, err := geom.ParseType(kind)
	if err != nil {
		return configError("set_geometry", l.Name, err)
	}
	return l.SetGeometry(t)
}

// AddTypedAttribute parses the attribute type name and adds the attribute.
func (l *LayerSchema) AddTypedAttribute(name, typ string) error {
	if l.registry.frozen {
		return configError("add_attribute", name, ErrFrozen)
	}
	t, err := ParseAttributeType(typ)
	if err != nil {
		return configError("add_attribute", name, err)
	}
	return l.AddAttribute(name, t)
}

// AddAttribute appends a new attribute. Names must be unique within the
// layer and must not collide with the id and geometry columns.
func (l *LayerSchema) AddAttribute(name string, typ AttributeType) error {
	if l.registry.frozen {
		return configError("add_attribute", name, ErrFrozen)
	}
	if name == "" || name == IDColumn || name == GeometryColumn {
		return configError("add_attribute", name, ErrReservedName)
	}
	if !typ.valid() {
		return configError("add_attribute", name, ErrUnknownType)
	}
	if _, ok := l.index[name]; ok {
		return configError("add_attribute", name, ErrDuplicate)
	}
	l.index[name] = len(l.Attributes)
	l.Attributes = append(l.Attributes, Attribute{Name: name, Type: typ, Index: len(l.Attributes)})
	return nil
}

func (l *LayerSchema) Attribute(name string) (Attribute, bool) {
	i, ok := l.index[name]
	if !ok {
		return Attribute{}, false
	}
	return l.Attributes[i], true
}

// Registry holds all declared layers in declaration order.
type Registry struct {
	layers map[string]*LayerSchema
	order  []*LayerSchema
	frozen bool
}

func NewRegistry() *Registry {
	return &Registry{layers: make(map[string]*LayerSchema)}
}

// Declare adds a new point layer without attributes.
func (r *Registry) Declare(name string) (*LayerSchema, error) {
	if r.frozen {
		return nil, configError("declare", name, ErrFrozen)
	}
	if name == "" {
		return nil, configError("declare", name, ErrUnknownLayer)
	}
	if _, ok := r.layers[name]; ok {
		return nil, configError("declare", name, ErrDuplicate)
	}
	l := &LayerSchema{
		Name:     name,
		Geometry: geom.PointType,
		index:    make(map[string]int),
		registry: r,
	}
	r.layers[name] = l
	r.order = append(r.order, l)
	return l, nil
}

func (r *Registry) Layer(name string) (*LayerSchema, bool) {
	l, ok := r.layers[name]
	return l, ok
}

// Layers returns all layers in declaration order.
func (r *Registry) Layers() []*LayerSchema {
	return append([]*LayerSchema(nil), r.order...)
}

func (r *Registry) Freeze()      { r.frozen = true }
func (r *Registry) Frozen() bool { return r.frozen }
