package postgis

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/omniscale/osmconvert/database/sql"
	"github.com/omniscale/osmconvert/geom"
	"github.com/omniscale/osmconvert/mapping"
)

type QueryBuilder struct{}

func columnType(t mapping.AttributeType) string {
	switch t {
	case mapping.Integer:
		return "BIGINT"
	case mapping.Bool:
		return "BOOL"
	case mapping.Real:
		return "DOUBLE PRECISION"
	default:
		return "VARCHAR"
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

func literal(s string) string {
	return "'" + strings.Replace(s, "'", "''", -1) + "'"
}

func tableName(spec *sql.TableSpec) string {
	return pq.QuoteIdentifier(spec.Schema) + "." + pq.QuoteIdentifier(spec.FullName)
}

func (q *QueryBuilder) TableExistsSQL(schema string, table string) string {
	return fmt.Sprintf(`SELECT EXISTS(SELECT * FROM information_schema.tables WHERE table_name=%s AND table_schema=%s)`,
		literal(table), literal(schema))
}

func (q *QueryBuilder) CreateSchemaSQL(schema string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schema))
}

func (q *QueryBuilder) CreateTableSQL(spec *sql.TableSpec) string {
	cols := []string{
		mapping.IDColumn + " SERIAL PRIMARY KEY",
		fmt.Sprintf("%s geometry(%s, %d)", pq.QuoteIdentifier(mapping.GeometryColumn), geometryType(spec.GeometryType), spec.Srid),
	}
	for _, col := range spec.Columns {
		cols = append(cols, pq.QuoteIdentifier(col.Name)+" "+columnType(col.Type))
	}
	return fmt.Sprintf(`CREATE TABLE %s (
            %s
        );`,
		tableName(spec),
		strings.Join(cols, ",\n            "),
	)
}

// PopulateGeometryColumnSQL returns "", typed geometry columns are
// registered by PostGIS.
func (q *QueryBuilder) PopulateGeometryColumnSQL(spec *sql.TableSpec) string {
	return ""
}

func (q *QueryBuilder) InsertSQL(spec *sql.TableSpec) string {
	var cols []string
	var vars []string
	for _, name := range spec.ColumnNames() {
		cols = append(cols, pq.QuoteIdentifier(name))
		vars = append(vars, fmt.Sprintf("$%d", len(vars)+1))
	}
	vars[0] = fmt.Sprintf("ST_GeomFromWKB(%s, %d)", vars[0], spec.Srid)

	return fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		tableName(spec),
		strings.Join(cols, ", "),
		strings.Join(vars, ", "),
	)
}

func (q *QueryBuilder) CopySQL(spec *sql.TableSpec) string {
	return pq.CopyInSchema(spec.Schema, spec.FullName, spec.ColumnNames()...)
}

// GeometryValue returns hex encoded EWKB, the text input format of
// PostGIS geometries.
func (q *QueryBuilder) GeometryValue(wkb []byte, srid int) (interface{}, error) {
	if wkb == nil {
		return nil, nil
	}
	hex, err := geom.EWKBHex(wkb, srid)
	if err != nil {
		return nil, err
	}
	return string(hex), nil
}

func (q *QueryBuilder) CreateGeometryIndexSQL(spec *sql.TableSpec) string {
	return fmt.Sprintf(`CREATE INDEX %s ON %s USING GIST (%s)`,
		pq.QuoteIdentifier(spec.FullName+"_geom"), tableName(spec), pq.QuoteIdentifier(mapping.GeometryColumn))
}
