package sql

import (
	"database/sql"

	"github.com/omniscale/osmconvert/database"
	"github.com/pkg/errors"
)

// TxRouter routes inserts to the TableTx of the layer.
type TxRouter struct {
	Tables map[string]TableTx
	order  []TableTx
	tx     *sql.Tx
}

// newTxRouter opens one TableTx per table. Without bulkImport all tables
// share a single transaction.
func newTxRouter(sdb *SQLDB, bulkImport bool) (*TxRouter, error) {
	txr := TxRouter{
		Tables: make(map[string]TableTx),
	}

	var bqb BulkQueryBuilder
	if bulkImport {
		var ok bool
		bqb, ok = sdb.QB.(BulkQueryBuilder)
		if !ok {
			return nil, errors.New("bulk import not supported by query builder")
		}
	} else {
		tx, err := sdb.Db.Begin()
		if err != nil {
			return nil, err
		}
		txr.tx = tx
	}

	for _, spec := range sdb.tableOrder {
		var tt TableTx
		if bulkImport {
			tt = NewBulkTableTx(sdb, spec, bqb)
		} else {
			tt = NewSynchronousTableTx(sdb, spec)
		}
		if err := tt.Begin(txr.tx); err != nil {
			txr.Abort()
			return nil, err
		}
		txr.Tables[spec.Name] = tt
		txr.order = append(txr.order, tt)
	}

	return &txr, nil
}

// End commits all tables. With bulk import each table commits on its own
// and the first error is returned after all tables are handled.
func (txr *TxRouter) End() error {
	if txr.tx != nil {
		for _, tt := range txr.order {
			if err := tt.End(); err != nil {
				txr.tx.Rollback()
				return err
			}
		}
		return txr.tx.Commit()
	}

	var firstErr error
	for _, tt := range txr.order {
		if firstErr != nil {
			tt.Rollback()
			continue
		}
		if err := tt.Commit(); err != nil {
			firstErr = err
		}
	}
	return firstErr
}

func (txr *TxRouter) Abort() error {
	if txr.tx != nil {
		for _, tt := range txr.order {
			tt.End()
		}
		return txr.tx.Rollback()
	}
	for _, tt := range txr.order {
		tt.Rollback()
	}
	return nil
}

func (txr *TxRouter) Insert(rec database.Record) error {
	tt, ok := txr.Tables[rec.Layer]
	if !ok {
		return errors.Errorf("unknown table %s", rec.Layer)
	}
	return tt.Insert(rec)
}
