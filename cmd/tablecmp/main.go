// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

/*
tablecmp is a command line tool comparing a table across two database
connections by a primary key, classifying every row as inserted, updated,
or deleted on the right side relative to the left.

Arguments for tablecmp can be specified on the command line or through an
ini-file:

	tablecmp -ini my.ini

Command line arguments take precedence over ini-file options.

Left connection, right connection, and table are required:

	tablecmp -Tablecmp.LeftConnection "file:left.sqlite" -Tablecmp.LeftDriver sqlite3 \
	         -Tablecmp.RightConnection "file:right.sqlite" -Tablecmp.RightDriver sqlite3 \
	         -Tablecmp.Table orders -Tablecmp.Keys order_id -Tablecmp.Columns status,total

By default both sides share the same key and column list; specifying them
once is enough. To run both cascades concurrently:

	tablecmp ... -Tablecmp.Parallel

To cap how many rows a single cascade level may investigate before giving
up (protects against a worst-case, all-different domain):

	tablecmp ... -Tablecmp.MaxReport 5000

To see progress as each cascade level builds and is walked:

	tablecmp ... -Tablecmp.Verbose 2
*/
package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/tablecmp/tablecmp/config"
	"github.com/tablecmp/tablecmp/diff"
	"github.com/tablecmp/tablecmp/dlog"
	"github.com/tablecmp/tablecmp/sqlitefn"
)

func main() {
	defer exitOnPanic()

	if err := mainBody(os.Args); err != nil {
		dlog.Log(err.Error())
		os.Exit(1)
	}
	dlog.Log("Done.")
}

func mainBody(args []string) error {

	runOpts, logOpts, err := config.New()
	if err != nil {
		return errors.New("invalid arguments: " + err.Error())
	}
	dlog.New(logOpts)

	leftConn := runOpts.String(config.LeftConnection)
	rightConn := runOpts.String(config.RightConnection)
	table := runOpts.String(config.Table)

	if leftConn == "" || rightConn == "" {
		return errors.New("left and right connection strings are required")
	}
	if table == "" {
		return errors.New("table name is required")
	}
	dlog.Log("Table ", table)

	leftDriver := driverName(runOpts.String(config.LeftDriver))
	rightDriver := driverName(runOpts.String(config.RightDriver))

	leftDb, leftFacet, err := diff.Open(leftConn, leftDriver, true)
	if err != nil {
		return errors.New("left connection failed: " + err.Error())
	}
	defer leftDb.Close()

	rightDb, rightFacet, err := diff.Open(rightConn, rightDriver, true)
	if err != nil {
		return errors.New("right connection failed: " + err.Error())
	}
	defer rightDb.Close()

	keys := splitList(runOpts.String(config.KeyCols))
	cols := splitList(runOpts.String(config.ValueCols))

	left := diff.Side{
		Conn:  leftDb,
		Facet: leftFacet,
		Table: table,
		Keys:  keys,
		Cols:  cols,
	}
	right := diff.Side{
		Conn:  rightDb,
		Facet: rightFacet,
		Table: table,
		Keys:  keys,
		Cols:  cols,
	}

	opts := diff.Options{
		Factor:    runOpts.Int(config.Factor, 0),
		MaxLevels: runOpts.Int(config.MaxLevels, 0),
		MaxReport: runOpts.Int(config.MaxReport, 0),
		Where:     runOpts.String(config.Where),
		Prefix:    runOpts.String(config.Prefix),
		Parallel:  runOpts.Bool(config.Parallel),
		Verbose:   runOpts.Int(config.Verbose, 0),
	}
	if runOpts.IsExist(config.Temporary) {
		isTemp := runOpts.Bool(config.Temporary)
		opts.Temporary = &isTemp
	}
	if n := runOpts.Int(config.KeyLen, 0); n > 0 {
		left.KeyLen = n
		right.KeyLen = n
	}

	cmp, err := diff.New(left, right, opts)
	if err != nil {
		return errors.New("invalid comparison setup: " + err.Error())
	}

	stats, err := cmp.Process(context.Background(), nil)
	if err != nil {
		return errors.New("compare failed: " + err.Error())
	}

	return stats.Print(os.Stdout, runOpts.String("Tablecmp.Lang"))
}

// driverName maps a user-facing driver name to the registered driver this
// binary opens connections through. SQLite connections use the sqlitefn
// variant (CRC32/BIT_XOR/CONCAT_WS registered on every connection) rather
// than bare sqlite3, since the default Dialect depends on those functions
// existing; ODBC-reached servers are expected to supply their own.
func driverName(s string) string {
	switch strings.ToLower(s) {
	case "odbc":
		return diff.OdbcDriver
	case "", "sqlite3", "sqlite":
		return sqlitefn.DriverName
	default:
		return s
	}
}

// splitList splits a comma-separated list into trimmed, non-empty parts.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// exitOnPanic logs and translates any panic into a process exit code,
// rather than letting the runtime print a bare stack trace.
func exitOnPanic() {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case error:
		dlog.Log(e.Error())
	case string:
		dlog.Log(e)
	default:
		dlog.Log("FAILED")
	}
	os.Exit(2)
}
