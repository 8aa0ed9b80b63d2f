package postgis

import (
	"strings"
	"testing"

	"github.com/omniscale/osmconvert/database/sql"
	"github.com/omniscale/osmconvert/geom"
	"github.com/omniscale/osmconvert/mapping"
)

func TestParseParams(t *testing.T) {
	for _, tc := range []struct {
		url    string
		params Params
	}{
		{
			"postgis://user@localhost/osm?sslmode=require&prefix=osm_&schema=import&bulk=false",
			Params{DSN: "dbname=osm host=localhost sslmode=require user=user", Schema: "import", Prefix: "osm_", Bulk: false},
		},
		{
			"postgres://db.example.org:5433/gis?sslmode=disable",
			Params{DSN: "dbname=gis host=db.example.org port=5433 sslmode=disable", Schema: "public", Bulk: true},
		},
	} {
		p, err := ParseParams(tc.url)
		if err != nil {
			t.Fatal(err)
		}
		if p != tc.params {
			t.Errorf("%s: %#v != %#v", tc.url, p, tc.params)
		}
	}

	if _, err := ParseParams("postgis://localhost/osm?bulk=maybe"); err == nil {
		t.Error("expected error for invalid bulk param")
	}
	if _, err := ParseParams("mysql://localhost/osm"); err == nil {
		t.Error("expected error for invalid scheme")
	}
}

func TestDisableDefaultSsl(t *testing.T) {
	t.Setenv("PGSSLMODE", "")
	if p := disableDefaultSslOnLocalhost("host=localhost"); p != "host=localhost" {
		t.Error("PGSSLMODE is set, got", p)
	}
	if p := disableDefaultSslOnLocalhost("host=localhost sslmode=require"); p != "host=localhost sslmode=require" {
		t.Error(p)
	}
	if p := disableDefaultSslOnLocalhost("host=example.org"); p != "host=example.org" {
		t.Error(p)
	}
}

func roadsSpec() *sql.TableSpec {
	return &sql.TableSpec{
		Name:     "roads",
		FullName: "osm_roads",
		Schema:   "import",
		Columns: []sql.ColumnSpec{
			{Name: "osm_id", Type: mapping.Integer},
			{Name: "name", Type: mapping.String},
			{Name: "bridge", Type: mapping.Bool},
			{Name: "width", Type: mapping.Real},
		},
		GeometryType: geom.LineStringType,
		Srid:         4326,
	}
}

func TestQueryBuilder(t *testing.T) {
	qb := &QueryBuilder{}
	spec := roadsSpec()

	for _, tc := range []struct {
		sql, want string
	}{
		{qb.InsertSQL(spec), `INSERT INTO "import"."osm_roads" ("geometry", "osm_id", "name", "bridge", "width") VALUES (ST_GeomFromWKB($1, 4326), $2, $3, $4, $5)`},
		{qb.CopySQL(spec), `COPY "import"."osm_roads" ("geometry", "osm_id", "name", "bridge", "width") FROM STDIN`},
		{qb.PopulateGeometryColumnSQL(spec), ``},
		{qb.CreateGeometryIndexSQL(spec), `CREATE INDEX "osm_roads_geom" ON "import"."osm_roads" USING GIST ("geometry")`},
		{qb.CreateSchemaSQL("import"), `CREATE SCHEMA IF NOT EXISTS "import"`},
		{qb.TableExistsSQL("import", "osm_roads"), `SELECT EXISTS(SELECT * FROM information_schema.tables WHERE table_name='osm_roads' AND table_schema='import')`},
	} {
		if tc.sql != tc.want {
			t.Errorf("\n%s\n!=\n%s", tc.sql, tc.want)
		}
	}

	create := qb.CreateTableSQL(spec)
	for _, part := range []string{
		`CREATE TABLE "import"."osm_roads"`,
		"id SERIAL PRIMARY KEY,\n            \"geometry\" geometry(LINESTRING, 4326),",
		`"osm_id" BIGINT`,
		`"name" VARCHAR`,
		`"bridge" BOOL`,
		`"width" DOUBLE PRECISION`,
	} {
		if !strings.Contains(create, part) {
			t.Errorf("%q not in %s", part, create)
		}
	}
	if strings.Index(create, "osm_id") > strings.Index(create, "width") {
		t.Error("columns not in declaration order", create)
	}
}

func TestGeometryValue(t *testing.T) {
	qb := &QueryBuilder{}
	v, err := qb.GeometryValue(geom.Point{Long: 1, Lat: 2}.WKB(), 4326)
	if err != nil {
		t.Fatal(err)
	}
	// little endian point with SRID flag and 4326
	if s := v.(string); !strings.HasPrefix(s, "0101000020e6100000") {
		t.Error(s)
	}
	v, err = qb.GeometryValue(nil, 4326)
	if err != nil || v != nil {
		t.Error("expected nil for missing geometry", v, err)
	}
}
