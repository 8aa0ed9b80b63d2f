// Package sql implements the table handling shared by the SQL writers.
// Dialects provide a QueryBuilder.
package sql

import (
	"database/sql"
	"fmt"

	"github.com/omniscale/osmconvert/database"
	"github.com/omniscale/osmconvert/geom"
	"github.com/omniscale/osmconvert/logging"
	"github.com/omniscale/osmconvert/mapping"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var log = logging.NewLogger("SQL")

var ErrTableExists = errors.New("table already exists")

type SQLError struct {
	Query         string
	OriginalError error
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s", e.OriginalError.Error(), e.Query)
}

func (e *SQLError) Unwrap() error { return e.OriginalError }

type SQLInsertError struct {
	SQLError
	Data interface{}
}

func (e *SQLInsertError) Error() string {
	return fmt.Sprintf("SQL Error: %s in query %s (%+v)", e.OriginalError.Error(), e.Query, e.Data)
}

type ColumnSpec struct {
	Name string
	Type mapping.AttributeType
}

// TableSpec is the table of a single layer: the internal id column, the
// geometry column and one column per attribute.
type TableSpec struct {
	Name         string
	FullName     string
	Schema       string
	Columns      []ColumnSpec
	GeometryType geom.Type
	Srid         int
}

func NewTableSpec(sdb *SQLDB, l *mapping.LayerSchema) *TableSpec {
	spec := &TableSpec{
		Name:         l.Name,
		FullName:     sdb.Prefix + l.Name,
		Schema:       sdb.Schema,
		GeometryType: l.Geometry,
		Srid:         sdb.Config.Srid,
	}
	for _, a := range l.Attributes {
		spec.Columns = append(spec.Columns, ColumnSpec{Name: a.Name, Type: a.Type})
	}
	return spec
}

// ColumnNames returns the geometry column and all attribute columns in
// insert order.
func (spec *TableSpec) ColumnNames() []string {
	cols := make([]string, 0, len(spec.Columns)+1)
	cols = append(cols, mapping.GeometryColumn)
	for _, c := range spec.Columns {
		cols = append(cols, c.Name)
	}
	return cols
}

type QueryBuilder interface {
	TableExistsSQL(schema, table string) string
	// CreateSchemaSQL returns "" if the dialect has no schemas.
	CreateSchemaSQL(schema string) string
	// CreateTableSQL includes the geometry column as second column.
	CreateTableSQL(spec *TableSpec) string
	// PopulateGeometryColumnSQL registers the geometry column after
	// CreateTableSQL. Returns "" if nothing needs to be registered.
	PopulateGeometryColumnSQL(spec *TableSpec) string
	InsertSQL(spec *TableSpec) string
	// CreateGeometryIndexSQL returns "" if no index is supported.
	CreateGeometryIndexSQL(spec *TableSpec) string
}

// BulkQueryBuilder is implemented by dialects with bulk import support
// (COPY).
type BulkQueryBuilder interface {
	CopySQL(spec *TableSpec) string
	// GeometryValue converts the WKB for the bulk statement.
	GeometryValue(wkb []byte, srid int) (interface{}, error)
}

type SQLDB struct {
	Db            *sql.DB
	Config        database.Config
	Schema        string
	Prefix        string
	QB            QueryBuilder
	Tables        map[string]*TableSpec
	tableOrder    []*TableSpec
	txRouter      *TxRouter
	Worker        int
	BulkSupported bool
}

func (sdb *SQLDB) createSchema(schema string) error {
	if schema == "" || schema == "public" {
		return nil
	}
	sql := sdb.QB.CreateSchemaSQL(schema)
	if sql == "" {
		return nil
	}
	if _, err := sdb.Db.Exec(sql); err != nil {
		return &SQLError{sql, err}
	}
	return nil
}

func createTable(tx *sql.Tx, spec *TableSpec, qb QueryBuilder) error {
	exists, err := tableExists(tx, qb, spec.Schema, spec.FullName)
	if err != nil {
		return err
	}
	if exists {
		return errors.Wrapf(ErrTableExists, "%s", spec.FullName)
	}

	sql := qb.CreateTableSQL(spec)
	if _, err := tx.Exec(sql); err != nil {
		return &SQLError{sql, err}
	}
	return populateGeometryColumn(tx, spec, qb)
}

func populateGeometryColumn(tx *sql.Tx, spec *TableSpec, qb QueryBuilder) error {
	sql := qb.PopulateGeometryColumnSQL(spec)
	if sql == "" {
		return nil
	}
	row := tx.QueryRow(sql)
	var void interface{}
	if err := row.Scan(&void); err != nil {
		return &SQLError{sql, err}
	}
	return nil
}

// Init creates the schema and one table per layer. Existing tables are
// not replaced.
func (sdb *SQLDB) Init(layers []*mapping.LayerSchema) error {
	sdb.Tables = make(map[string]*TableSpec, len(layers))
	sdb.tableOrder = nil
	for _, l := range layers {
		spec := NewTableSpec(sdb, l)
		sdb.Tables[l.Name] = spec
		sdb.tableOrder = append(sdb.tableOrder, spec)
	}

	if err := sdb.createSchema(sdb.Schema); err != nil {
		return err
	}

	tx, err := sdb.Db.Begin()
	if err != nil {
		return err
	}
	defer rollbackIfTx(&tx)
	for _, spec := range sdb.tableOrder {
		if err := createTable(tx, spec, sdb.QB); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	tx = nil
	return nil
}

func (sdb *SQLDB) Begin() error {
	if sdb.txRouter != nil {
		return errors.New("transaction already open")
	}
	txr, err := newTxRouter(sdb, sdb.BulkSupported)
	if err != nil {
		return err
	}
	sdb.txRouter = txr
	return nil
}

func (sdb *SQLDB) Insert(rec database.Record) error {
	if sdb.txRouter == nil {
		return errors.New("no open transaction")
	}
	return sdb.txRouter.Insert(rec)
}

func (sdb *SQLDB) End() error {
	if sdb.txRouter == nil {
		return nil
	}
	txr := sdb.txRouter
	sdb.txRouter = nil
	return txr.End()
}

func (sdb *SQLDB) Abort() error {
	if sdb.txRouter == nil {
		return nil
	}
	txr := sdb.txRouter
	sdb.txRouter = nil
	return txr.Abort()
}

// Finish creates spatial indices on all tables.
func (sdb *SQLDB) Finish() error {
	defer log.StopStep(log.StartStep("Creating geometry indices"))

	var g errgroup.Group
	if sdb.Worker > 0 {
		g.SetLimit(sdb.Worker)
	}
	for _, spec := range sdb.tableOrder {
		spec := spec
		g.Go(func() error { return createIndex(sdb, spec) })
	}
	return g.Wait()
}

func createIndex(sdb *SQLDB, spec *TableSpec) error {
	sql := sdb.QB.CreateGeometryIndexSQL(spec)
	if sql == "" {
		return nil
	}
	step := log.StartStep(fmt.Sprintf("Creating geometry index on %s", spec.FullName))
	_, err := sdb.Db.Exec(sql)
	log.StopStep(step)
	if err != nil {
		return &SQLError{sql, err}
	}
	return nil
}

func (sdb *SQLDB) Close() error {
	if sdb.txRouter != nil {
		sdb.Abort()
	}
	return sdb.Db.Close()
}
