// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

/*
Package diff implements a hierarchical checksum comparator between two SQL
tables, possibly on separate database servers.

It builds cascading checksum/summary tables on both sides, descends the
cascade to locate differing keys and merges the two ordered result streams,
and resolves whole-subtree insert/delete differences in bulk. See Process.
*/
package diff

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	_ "github.com/alexbrainman/odbc"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tablecmp/tablecmp/dlog"
)

// Driver names accepted by Open.
const (
	OdbcDriver    = "odbc"
	Sqlite3Driver = "sqlite3"
)

// Open opens a database connection for one side of a comparison.
//
// driver is either OdbcDriver (connStr is an ODBC DSN reaching a remote
// MS SQL/MySQL/PostgreSQL-style server), Sqlite3Driver, or a sql.Register'd
// SQLite driver variant whose name starts with Sqlite3Driver (connStr is a
// file path or "file::memory:?cache=shared" for a local/test side; see
// package sqlitefn for the variant this module tests against). If
// isFacetRequired is true and the driver didn't already imply a facet, the
// server is probed to guess one (see detectFacet).
func Open(connStr, driver string, isFacetRequired bool) (*sql.DB, Facet, error) {

	if driver == "" {
		driver = Sqlite3Driver
	}

	dbConn, err := sql.Open(driver, connStr)
	if err != nil {
		return nil, DefaultFacet, err
	}
	if err := dbConn.Ping(); err != nil {
		dbConn.Close()
		return nil, DefaultFacet, err
	}

	facet := DefaultFacet
	if strings.HasPrefix(driver, Sqlite3Driver) {
		facet = SqliteFacet
	}
	if isFacetRequired && facet == DefaultFacet {
		facet = detectFacet(dbConn)
	}

	return dbConn, facet, nil
}

// SelectRows runs query and invokes cvt for every returned row, in order.
// It is the building block every component that streams results (the
// walker, the bulk resolver) is written against.
func SelectRows(dbConn *sql.DB, query string, cvt func(rows *sql.Rows) error) error {
	return SelectRowsContext(context.Background(), dbConn, query, cvt)
}

// SelectRowsContext is SelectRows with an explicit context, used so a
// cancelled sibling side interrupts an in-flight query promptly (§5).
// Every query it runs is traced through dlog.LogSql.
func SelectRowsContext(ctx context.Context, dbConn *sql.DB, query string, cvt func(rows *sql.Rows) error) error {
	if dbConn == nil {
		return errors.New("diff: invalid database connection")
	}
	dlog.LogSql(query)

	rows, err := dbConn.QueryContext(ctx, query)
	if err != nil {
		return &SQLError{SQL: query, Err: err}
	}
	defer rows.Close()

	for rows.Next() {
		if err := cvt(rows); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &SQLError{SQL: query, Err: err}
	}
	return nil
}

// Exec runs a statement outside of any transaction (CREATE/DROP TABLE).
func Exec(dbConn *sql.DB, query string) error {
	return ExecContext(context.Background(), dbConn, query)
}

// ExecContext is Exec with an explicit context. Every statement it runs is
// traced through dlog.LogSql.
func ExecContext(ctx context.Context, dbConn *sql.DB, query string) error {
	if dbConn == nil {
		return errors.New("diff: invalid database connection")
	}
	dlog.LogSql(query)
	if _, err := dbConn.ExecContext(ctx, query); err != nil {
		return &SQLError{SQL: query, Err: err}
	}
	return nil
}

// selectScalarInt64 runs a single-row, single-column query and returns it
// as int64; used for the level-0 COUNT(*) probe.
func selectScalarInt64(ctx context.Context, dbConn *sql.DB, query string) (int64, error) {
	dlog.LogSql(query)
	var n int64
	row := dbConn.QueryRowContext(ctx, query)
	if err := row.Scan(&n); err != nil {
		return 0, &SQLError{SQL: query, Err: err}
	}
	return n, nil
}
