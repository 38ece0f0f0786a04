package application

import (
	"database/sql"
	"log"
)

// safeRollback rolls a transaction back and logs when the rollback itself
// fails for a reason other than the transaction already being finished.
func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		log.Printf("transaction rollback failed: %v", err)
	}
}
