// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

package diff

import (
	"database/sql"
	"strings"
)

// Facet identifies the SQL server family a side is connected to.
//
// It only selects the form of the CREATE TABLE ... AS SELECT statements
// the cascade builders emit (see buildLevelZero and buildSummaries):
// SqliteFacet omits the column definitions, every other facet includes
// them. Dialect templates come from Side.Dialect or Options.Dialect
// whatever the facet.
type Facet uint8

const (
	DefaultFacet Facet = iota // unknown or generic facet
	SqliteFacet               // SQLite facet
	PgSqlFacet                // PostgreSQL facet
	MySqlFacet                // MySQL / MariaDB facet
	MsSqlFacet                // MS SQL facet
)

// String is the printable form of a Facet.
func (facet Facet) String() string {
	switch facet {
	case SqliteFacet:
		return "SQLite"
	case PgSqlFacet:
		return "PostgreSQL"
	case MySqlFacet:
		return "MySQL"
	case MsSqlFacet:
		return "MS SQL"
	}
	return "default"
}

// detectFacet probes the server version string to guess its facet.
// Best effort only: a caller that knows the facet should set it explicitly
// rather than rely on detection.
func detectFacet(dbConn *sql.DB) Facet {

	facet := DefaultFacet

	// PostgreSQL check goes first: some odbc drivers wedge after the first
	// failed query against an unrelated server, so order matters here.
	_ = SelectRows(dbConn,
		"SELECT LOWER(VERSION())",
		func(rows *sql.Rows) error {
			var s sql.NullString
			if err := rows.Scan(&s); err != nil {
				return err
			}
			if s.Valid {
				v := s.String
				if strings.Contains(v, "postgresql") {
					facet = PgSqlFacet
				}
				if facet == DefaultFacet && (strings.Contains(v, "mysql") || strings.Contains(v, "mariadb")) {
					facet = MySqlFacet
				}
			}
			return nil
		})
	if facet != DefaultFacet {
		return facet
	}

	_ = SelectRows(dbConn,
		"SELECT COUNT(*) FROM sqlite_master",
		func(rows *sql.Rows) error {
			var n sql.NullInt64
			if err := rows.Scan(&n); err != nil {
				return err
			}
			if n.Valid {
				facet = SqliteFacet
			}
			return nil
		})
	if facet != DefaultFacet {
		return facet
	}

	_ = SelectRows(dbConn,
		"SELECT LOWER(@@VERSION)",
		func(rows *sql.Rows) error {
			var s sql.NullString
			if err := rows.Scan(&s); err != nil {
				return err
			}
			if s.Valid {
				facet = MsSqlFacet
			}
			return nil
		})
	return facet
}
