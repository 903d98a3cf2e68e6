package diff

import (
	"context"
	"strconv"
)

// levelZeroTable returns the name of a side's leaf checksum table.
func levelZeroTable(name string) string { return name + "_0" }

// summaryTable returns the name of a side's level-k summary table, k >= 1.
func summaryTable(name string, level int) string { return name + "_" + strconv.Itoa(level) }

// buildLevelZero emits the level-0 CREATE TABLE ... AS SELECT (§4.2) and
// returns the resulting row count (or opts.NumRecords, if the caller
// supplied an override to skip the COUNT(*) probe).
func buildLevelZero(ctx context.Context, side resolvedSide, opts Options) (int64, error) {

	d := side.Dialect

	idExpr := d.concatKey(side.Keys)
	idcExpr := d.checksumOf(idExpr)
	cksExpr := d.checksumOf(d.concatAll(side.Keys, side.Cols))

	selectPart := "SELECT " + idExpr + " AS id, " + idcExpr + " AS idc, " + cksExpr + " AS cks FROM " + side.Table
	if opts.Where != "" {
		selectPart += " WHERE " + opts.Where
	}

	// §4.2's "CREATE TABLE (col defs) AS SELECT ..." single-statement form
	// is MySQL-specific (create_definition alongside a query_expression);
	// SQLite rejects explicit column defs on a CTAS, so that facet falls
	// back to the bare "CREATE TABLE ... AS SELECT" form and lets SQLite
	// infer column affinities from the SELECT list instead.
	var q string
	if side.Facet == SqliteFacet {
		q = "CREATE " + temporaryKeyword(*opts.Temporary) + "TABLE " + levelZeroTable(side.name) + " AS " + selectPart
	} else {
		q = "CREATE " + temporaryKeyword(*opts.Temporary) + "TABLE " + levelZeroTable(side.name) +
			" (id VARCHAR(" + strconv.Itoa(side.KeyLen) + ") NOT NULL, idc INTEGER UNSIGNED NOT NULL, cks INTEGER UNSIGNED NOT NULL) AS " +
			selectPart
	}

	if err := ExecContext(ctx, side.Conn, q); err != nil {
		return 0, err
	}

	if opts.NumRecords != 0 {
		return opts.NumRecords, nil
	}
	return selectScalarInt64(ctx, side.Conn, "SELECT COUNT(*) FROM "+levelZeroTable(side.name))
}
