package spatialite

import (
	"fmt"
	"strings"

	"github.com/omniscale/osmconvert/database/sql"
	"github.com/omniscale/osmconvert/geom"
	"github.com/omniscale/osmconvert/mapping"
)

// QueryBuilder builds SQLite statements. With Spatial the geometry column is
// managed by SpatiaLite, otherwise the WKB is stored in a BLOB column.
type QueryBuilder struct {
	Spatial bool
}

func columnType(t mapping.AttributeType) string {
	switch t {
	case mapping.Integer, mapping.Bool:
		return "INTEGER"
	case mapping.Real:
		return "REAL"
	default:
		return "TEXT"
	}
}

func geometryType(t geom.Type) string {
	switch t {
	case geom.LineStringType:
		return "LINESTRING"
	case geom.MultiPolygonType:
		return "MULTIPOLYGON"
	default:
		return "POINT"
	}
}

func quote(name string) string {
	return `"` + strings.Replace(name, `"`, `""`, -1) + `"`
}

func literal(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}

func (q *QueryBuilder) TableExistsSQL(schema string, table string) string {
	return fmt.Sprintf(`SELECT EXISTS(SELECT * FROM sqlite_master WHERE type='table' AND name=%s)`,
		literal(table))
}

func (q *QueryBuilder) CreateSchemaSQL(schema string) string {
	return ""
}

func (q *QueryBuilder) CreateTableSQL(spec *sql.TableSpec) string {
	geomCol := "BLOB"
	if q.Spatial {
		geomCol = geometryType(spec.GeometryType)
	}
	cols := []string{
		mapping.IDColumn + " INTEGER PRIMARY KEY",
		quote(mapping.GeometryColumn) + " " + geomCol,
	}
	for _, col := range spec.Columns {
		cols = append(cols, quote(col.Name)+" "+columnType(col.Type))
	}
	return fmt.Sprintf(`CREATE TABLE %s (
            %s
        );`,
		quote(spec.FullName),
		strings.Join(cols, ",\n            "),
	)
}

// PopulateGeometryColumnSQL registers the inline geometry column in the
// SpatiaLite metadata.
func (q *QueryBuilder) PopulateGeometryColumnSQL(spec *sql.TableSpec) string {
	if !q.Spatial {
		return ""
	}
	return fmt.Sprintf("SELECT RecoverGeometryColumn(%s, %s, %d, '%s', 'XY');",
		literal(spec.FullName), literal(mapping.GeometryColumn), spec.Srid, geometryType(spec.GeometryType))
}

func (q *QueryBuilder) InsertSQL(spec *sql.TableSpec) string {
	var cols []string
	var vars []string
	for _, name := range spec.ColumnNames() {
		cols = append(cols, quote(name))
		vars = append(vars, "?")
	}
	if q.Spatial {
		vars[0] = fmt.Sprintf("GeomFromWKB(?, %d)", spec.Srid)
	}
	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quote(spec.FullName),
		strings.Join(cols, ", "),
		strings.Join(vars, ", "),
	)
}

func (q *QueryBuilder) CreateGeometryIndexSQL(spec *sql.TableSpec) string {
	if !q.Spatial {
		return ""
	}
	return fmt.Sprintf(`SELECT CreateSpatialIndex(%s, %s)`,
		literal(spec.FullName), literal(mapping.GeometryColumn))
}
