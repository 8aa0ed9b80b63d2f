package sql

import (
	"database/sql"
	"sync"

	"github.com/omniscale/osmconvert/database"
)

type TableTx interface {
	Begin(*sql.Tx) error
	Insert(rec database.Record) error
	// End closes all statements. It does not commit the transaction.
	End() error
	Commit() error
	Rollback()
}

// syncTableTx inserts with a prepared statement on a shared transaction.
type syncTableTx struct {
	Tx         *sql.Tx
	Spec       *TableSpec
	InsertStmt *sql.Stmt
	InsertSql  string
}

func NewSynchronousTableTx(sdb *SQLDB, spec *TableSpec) TableTx {
	return &syncTableTx{
		Spec:      spec,
		InsertSql: sdb.QB.InsertSQL(spec),
	}
}

func (tt *syncTableTx) Begin(tx *sql.Tx) error {
	tt.Tx = tx
	stmt, err := tt.Tx.Prepare(tt.InsertSql)
	if err != nil {
		return &SQLError{tt.InsertSql, err}
	}
	tt.InsertStmt = stmt
	return nil
}

func (tt *syncTableTx) Insert(rec database.Record) error {
	args := append(append(make([]interface{}, 0, len(rec.Values)+1), rec.Geometry), rec.Values...)
	_, err := tt.InsertStmt.Exec(args...)
	if err != nil {
		return &SQLInsertError{SQLError{tt.InsertSql, err}, rec.EntityID}
	}
	return nil
}

func (tt *syncTableTx) End() error {
	if tt.InsertStmt == nil {
		return nil
	}
	err := tt.InsertStmt.Close()
	tt.InsertStmt = nil
	return err
}

// Commit is a no-op, the shared transaction is committed by the TxRouter.
func (tt *syncTableTx) Commit() error { return tt.End() }

func (tt *syncTableTx) Rollback() { tt.End() }

// bulkTableTx inserts with COPY in its own transaction. Rows are executed by
// a goroutine in insert order.
type bulkTableTx struct {
	Db         *sql.DB
	Tx         *sql.Tx
	Spec       *TableSpec
	InsertStmt *sql.Stmt
	InsertSql  string
	qb         BulkQueryBuilder
	wg         *sync.WaitGroup
	rows       chan []interface{}

	mu  sync.Mutex
	err error
}

func NewBulkTableTx(sdb *SQLDB, spec *TableSpec, qb BulkQueryBuilder) TableTx {
	return &bulkTableTx{
		Db:        sdb.Db,
		Spec:      spec,
		InsertSql: qb.CopySQL(spec),
		qb:        qb,
		wg:        &sync.WaitGroup{},
	}
}

func (tt *bulkTableTx) Begin(_ *sql.Tx) error {
	tx, err := tt.Db.Begin()
	if err != nil {
		return err
	}
	tt.Tx = tx

	stmt, err := tt.Tx.Prepare(tt.InsertSql)
	if err != nil {
		return &SQLError{tt.InsertSql, err}
	}
	tt.InsertStmt = stmt

	tt.rows = make(chan []interface{}, 64)
	tt.wg.Add(1)
	go tt.loop()
	return nil
}

func (tt *bulkTableTx) loop() {
	defer tt.wg.Done()
	for row := range tt.rows {
		if tt.failed() != nil {
			continue
		}
		if _, err := tt.InsertStmt.Exec(row...); err != nil {
			tt.setErr(&SQLInsertError{SQLError{tt.InsertSql, err}, row})
		}
	}
}

func (tt *bulkTableTx) failed() error {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return tt.err
}

func (tt *bulkTableTx) setErr(err error) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if tt.err == nil {
		tt.err = err
	}
}

// Insert queues the record. Errors of earlier records are returned with
// the next Insert or with Commit.
func (tt *bulkTableTx) Insert(rec database.Record) error {
	if err := tt.failed(); err != nil {
		return err
	}
	g, err := tt.qb.GeometryValue(rec.Geometry, tt.Spec.Srid)
	if err != nil {
		return err
	}
	row := append(append(make([]interface{}, 0, len(rec.Values)+1), g), rec.Values...)
	tt.rows <- row
	return nil
}

func (tt *bulkTableTx) End() error {
	if tt.rows != nil {
		close(tt.rows)
		tt.wg.Wait()
		tt.rows = nil
	}
	return tt.failed()
}

func (tt *bulkTableTx) Commit() error {
	if err := tt.End(); err != nil {
		tt.Rollback()
		return err
	}
	// flush COPY
	if _, err := tt.InsertStmt.Exec(); err != nil {
		tt.Rollback()
		return &SQLError{tt.InsertSql, err}
	}
	if err := tt.InsertStmt.Close(); err != nil {
		tt.Rollback()
		return err
	}
	tt.InsertStmt = nil
	err := tt.Tx.Commit()
	tt.Tx = nil
	return err
}

func (tt *bulkTableTx) Rollback() {
	tt.End()
	if tt.InsertStmt != nil {
		tt.InsertStmt.Close()
		tt.InsertStmt = nil
	}
	rollbackIfTx(&tt.Tx)
	tt.Tx = nil
}
