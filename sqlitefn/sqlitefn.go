// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

/*
Package sqlitefn registers the scalar and aggregate SQL functions the diff
package's default Dialect expects (CRC32, BIT_XOR, CONCAT_WS) on a named
SQLite driver variant.

Stock SQLite has none of the three: no CRC32 scalar, no BIT_XOR aggregate,
and (depending on build) no CONCAT_WS. The reference stack this module is
built from (github.com/mattn/go-sqlite3) exposes exactly the hook needed
to add them without forking the driver: a sql.Register'd driver name with
a ConnectHook that runs once per new connection.

Importing this package registers the DriverName driver as a side effect;
callers open it the same way they'd open "sqlite3":

	db, err := sql.Open(sqlitefn.DriverName, "file::memory:?cache=shared")
*/
package sqlitefn

import (
	"database/sql"
	"hash/crc32"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"
)

// DriverName is the sql.Register'd name of the SQLite driver variant with
// CRC32/BIT_XOR/CONCAT_WS registered on every new connection.
const DriverName = "sqlite3_tablecmp"

var registerOnce sync.Once

func init() {
	registerOnce.Do(func() {
		sql.Register(DriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				if err := conn.RegisterFunc("CRC32", crc32Scalar, true); err != nil {
					return err
				}
				if err := conn.RegisterFunc("CONCAT_WS", concatWs, true); err != nil {
					return err
				}
				return conn.RegisterAggregator("BIT_XOR", newBitXorAgg, true)
			},
		})
	})
}

// crc32Scalar implements the CRC32 scalar function the default Dialect
// uses as its checksum function (§3). It returns an int64 since go-sqlite3
// maps Go integer return values onto SQLite's single INTEGER storage
// class; the value is always within the unsigned 32-bit range the design
// assumes for idc/cks columns.
func crc32Scalar(s string) int64 {
	return int64(crc32.ChecksumIEEE([]byte(s)))
}

// concatWs implements CONCAT_WS(sep, ...) over an arbitrary number of
// already-coalesced string arguments, the default Dialect's Concat
// template target.
func concatWs(sep string, args ...string) string {
	return strings.Join(args, sep)
}

// bitXorAgg is the aggregator backing BIT_XOR, the default Dialect's
// aggregate function: folding checksums up the cascade must be
// associative, commutative, and sensitive to any single bit flip among
// its members (§3's invariant on the XOR-like aggregate).
type bitXorAgg struct {
	xor int64
}

func newBitXorAgg() *bitXorAgg { return &bitXorAgg{} }

func (a *bitXorAgg) Step(v int64) { a.xor ^= v }

func (a *bitXorAgg) Done() (int64, error) { return a.xor, nil }
