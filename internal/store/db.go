package store

import "database/sql"

// DB is the subset of database/sql operations the stores use. Both *sql.DB
// and *sql.Tx satisfy it, so a store can be rebound to a transaction with
// WithTx when an operation writes more than one record.
type DB interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
