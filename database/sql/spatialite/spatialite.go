// Package spatialite writes layers into SQLite files, with or without the
// SpatiaLite extension.
package spatialite

import (
	sqld "database/sql"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
	"github.com/omniscale/osmconvert/database"
	"github.com/omniscale/osmconvert/database/sql"
	"github.com/pkg/errors"
)

const spatialiteDriver = "sqlite3_with_spatialite"

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sqld.Register(spatialiteDriver,
			&sqlite3.SQLiteDriver{
				Extensions: []string{"mod_spatialite"},
			})
	})
}

// ErrOutputExists is returned when the SQLite file is already present.
var ErrOutputExists = errors.New("output file already exists")

// Path returns the file name of a spatialite:// or sqlite:// connection.
func Path(params string) string {
	for _, prefix := range []string{"spatialite://", "sqlite://", "spatialite:", "sqlite:"} {
		if strings.HasPrefix(params, prefix) {
			return params[len(prefix):]
		}
	}
	return params
}

func filename(dsn string) string {
	if i := strings.IndexByte(dsn, '?'); i >= 0 {
		dsn = dsn[:i]
	}
	return strings.TrimPrefix(dsn, "file:")
}

// New opens a SpatiaLite database.
func New(conf database.Config) (database.DB, error) {
	db, err := open(conf, true)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// NewPlain opens a SQLite database without the SpatiaLite extension.
// Geometries are stored as WKB.
func NewPlain(conf database.Config) (database.DB, error) {
	db, err := open(conf, false)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func open(conf database.Config, spatial bool) (*sql.SQLDB, error) {
	db := &sql.SQLDB{}
	db.Worker = 1
	db.BulkSupported = false
	db.Config = conf
	if db.Config.Srid == 0 {
		db.Config.Srid = 4326
	}
	db.Config.ConnectionParams = Path(conf.ConnectionParams)
	db.QB = &QueryBuilder{Spatial: spatial}

	fname := filename(db.Config.ConnectionParams)
	if fname == "" {
		return nil, errors.New("missing sqlite file name")
	}
	if fname != ":memory:" {
		if _, err := os.Stat(fname); err == nil {
			return nil, errors.Wrapf(ErrOutputExists, "%s", fname)
		}
	}

	driver := "sqlite3"
	if spatial {
		registerDriver()
		driver = spatialiteDriver
	}

	var err error
	db.Db, err = sqld.Open(driver, db.Config.ConnectionParams)
	if err != nil {
		return nil, err
	}
	// single writer, also keeps :memory: databases on one connection
	db.Db.SetMaxOpenConns(1)

	if err := initDB(db.Db, spatial); err != nil {
		db.Db.Close()
		return nil, err
	}
	return db, nil
}

func initDB(db *sqld.DB, spatial bool) error {
	for _, pragma := range []string{
		"PRAGMA synchronous = OFF;",
		"PRAGMA journal_mode = MEMORY;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return &sql.SQLError{Query: pragma, OriginalError: err}
		}
	}
	if !spatial {
		return nil
	}
	s := "SELECT InitSpatialMetaData(1);"
	var ok interface{}
	if err := db.QueryRow(s).Scan(&ok); err != nil {
		return &sql.SQLError{Query: s, OriginalError: err}
	}
	return nil
}

func init() {
	database.Register("spatialite", New)
	database.Register("sqlite", NewPlain)
}
