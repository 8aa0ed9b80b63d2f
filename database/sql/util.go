package sql

import (
	"database/sql"
)

// tableExists checks schema.table within tx. Dialects return a single
// boolean row.
func tableExists(tx *sql.Tx, qb QueryBuilder, schema, table string) (bool, error) {
	query := qb.TableExistsSQL(schema, table)
	var exists bool
	if err := tx.QueryRow(query).Scan(&exists); err != nil {
		return false, &SQLError{query, err}
	}
	return exists, nil
}

// rollbackIfTx rolls back *tx unless it was already committed and set to nil.
func rollbackIfTx(tx **sql.Tx) {
	if *tx == nil {
		return
	}
	if err := (*tx).Rollback(); err != nil && err != sql.ErrTxDone {
		log.Errorf("rollback failed: %s", err)
	}
}
