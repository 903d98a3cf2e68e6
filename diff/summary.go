package diff

import "context"

// buildSummaries emits the level 1..len(masks)-1 cascade (§4.3).
//
// masks is indexed the way computeMasks leaves it: masks[0] is the largest,
// unused value; masks[len(masks)-1] is 0, the root's mask. Level k in this
// function's sense is "k levels above the leaf", i.e. it builds <name>_k
// tables for k = 1 .. len(masks)-1, each folding the previous level's
// checksum table with masks[k] — which falls monotonically to 0 as k
// climbs to len(masks)-1, so the last table built is the root, aggregated
// into a single group.
func buildSummaries(ctx context.Context, side resolvedSide, masks []uint32, opts Options) error {

	d := side.Dialect
	levels := len(masks) - 1 // number of summary levels above the leaf

	for k := 1; k <= levels; k++ {
		// masks[k] falls monotonically to 0 as k climbs to levels (the
		// root), so each level aggregates more coarsely than the last and
		// the root collapses to a single group (see computeMasks).
		mask := masks[k]
		prevName := cascadeLevelName(side.name, k-1)
		curName := cascadeLevelName(side.name, k)

		groupExpr := "idc & " + quoteMaskLiteral(mask)
		selectPart := "SELECT " + groupExpr + " AS idc, " + d.aggregateOf("cks") + " AS cks " +
			"FROM " + prevName + " GROUP BY " + groupExpr

		// see buildLevelZero: SQLite cannot combine explicit column defs
		// with a CTAS, MySQL requires nothing else.
		var q string
		if side.Facet == SqliteFacet {
			q = "CREATE " + temporaryKeyword(*opts.Temporary) + "TABLE " + curName + " AS " + selectPart
		} else {
			q = "CREATE " + temporaryKeyword(*opts.Temporary) + "TABLE " + curName +
				" (idc INTEGER UNSIGNED NOT NULL, cks INTEGER UNSIGNED NOT NULL) AS " + selectPart
		}

		if err := ExecContext(ctx, side.Conn, q); err != nil {
			return err
		}
	}
	return nil
}

// cascadeLevelName returns the table name for leaf-distance level k of a
// side's cascade: k=0 is the leaf checksum table, k>=1 are summaries.
func cascadeLevelName(name string, k int) string {
	if k == 0 {
		return levelZeroTable(name)
	}
	return summaryTable(name, k)
}

// dropCascade drops every level of one side's cascade, root first and the
// leaf last, in reverse build order, ignoring individual errors so a partial failure
// doesn't stop the rest of cleanup (§4.5, §7: "ignoring errors during
// that cleanup").
func dropCascade(ctx context.Context, side resolvedSide, numLevels int) {
	for k := numLevels; k >= 0; k-- {
		_ = ExecContext(ctx, side.Conn, "DROP TABLE "+cascadeLevelName(side.name, k))
	}
}
