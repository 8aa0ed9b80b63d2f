// Package postgis writes layers into PostGIS tables.
package postgis

import (
	sqld "database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/omniscale/osmconvert/database"
	"github.com/omniscale/osmconvert/database/sql"
	"github.com/pkg/errors"
)

// Params are the parsed connection options.
type Params struct {
	// DSN is passed to lib/pq.
	DSN    string
	Schema string
	Prefix string
	Bulk   bool
}

// ParseParams parses postgis:// and postgres:// URLs. The query parameters
// prefix, schema and bulk (default true) configure the writer.
func ParseParams(connection string) (Params, error) {
	if strings.HasPrefix(connection, "postgis://") {
		connection = strings.Replace(connection, "postgis", "postgres", 1)
	}

	dsn, err := pq.ParseURL(connection)
	if err != nil {
		return Params{}, errors.Wrap(err, "parsing postgres url")
	}
	dsn = disableDefaultSslOnLocalhost(dsn)

	p := Params{Schema: "public", Bulk: true}
	var schema, bulk string
	dsn, p.Prefix = stripParam(dsn, "prefix")
	dsn, schema = stripParam(dsn, "schema")
	dsn, bulk = stripParam(dsn, "bulk")
	if schema != "" {
		p.Schema = schema
	}
	switch bulk {
	case "", "true", "1", "yes":
	case "false", "0", "no":
		p.Bulk = false
	default:
		return Params{}, errors.Errorf("invalid bulk param %q", bulk)
	}
	p.DSN = dsn
	return p, nil
}

func New(conf database.Config) (database.DB, error) {
	params, err := ParseParams(conf.ConnectionParams)
	if err != nil {
		return nil, err
	}

	db := &sql.SQLDB{}
	db.Config = conf
	if db.Config.Srid == 0 {
		db.Config.Srid = 4326
	}
	db.Schema = params.Schema
	db.Prefix = params.Prefix
	db.Worker = 4
	db.BulkSupported = params.Bulk
	db.QB = &QueryBuilder{}

	db.Db, err = sqld.Open("postgres", params.DSN)
	if err != nil {
		return nil, err
	}
	// check that the connection actually works
	if err := db.Db.Ping(); err != nil {
		db.Db.Close()
		return nil, errors.Wrap(err, "connecting to postgres")
	}
	return db, nil
}

func init() {
	database.Register("postgres", New)
	database.Register("postgis", New)
}
