package repository

import (
	"database/sql"
	"strings"
)

// queryer is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repository methods take an optional *sql.Tx so callers can group several
// operations into one atomic unit; pick selects the right executor.
type queryer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func pick(db *sql.DB, tx *sql.Tx) queryer {
	if tx != nil {
		return tx
	}
	return db
}

// prefixed qualifies every column in a comma-separated column list with a
// table alias, for use in joined queries.
func prefixed(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
