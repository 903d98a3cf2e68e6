package diff

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tablecmp/tablecmp/dlog"
)

// Comparator compares two SQL tables keyed by a user-defined primary key
// and streams per-row classifications of insert, update, or delete (§1).
type Comparator struct {
	left  Side
	right Side
	opts  Options
}

// New validates and resolves two Sides plus Options into a Comparator.
// Any field missing on the right side is defaulted from the left side's
// value (§6); this merge happens once, here, never at use time (§9).
func New(left, right Side, opts Options) (*Comparator, error) {

	resolved := opts.resolve()

	l, err := resolveSide(left, right, resolved)
	if err != nil {
		return nil, err
	}
	r, err := resolveSide(right, left, resolved)
	if err != nil {
		return nil, err
	}

	return &Comparator{left: l, right: r, opts: resolved}, nil
}

// Stats summarizes one Process run (§6).
type Stats struct {
	LeftCount    int64
	RightCount   int64
	Factor       int
	Levels       int
	Updates      int
	Inserts      int
	Deletes      int
	ChecksumTime time.Duration
	SummaryTime  time.Duration
	MergeTime    time.Duration
	BulkTime     time.Duration
}

// Total returns the total number of differences found.
func (s Stats) Total() int { return s.Updates + s.Inserts + s.Deletes }

// logPhase writes a progress message through dlog.Log when verbose is high
// enough to want it (§7, §10): 1 reports phase transitions, 2 adds
// per-level walk progress (see walk).
func logPhase(verbose int, atLeast int, args ...interface{}) {
	if verbose >= atLeast {
		dlog.Log(args...)
	}
}

// Process builds both cascades, walks them, resolves any deferred bulk
// subtrees, and streams results to callback in the order described by §5.
// If callback is nil, results are written to stdout as "<type> <key>"
// lines (§6). Process never returns partial results: on any error the
// cascade tables already created are dropped (if Cleanup is set) before
// the error is returned.
func (c *Comparator) Process(ctx context.Context, callback Callback) (*Stats, error) {

	emit := callback
	if emit == nil {
		emit = func(ev Event) error {
			_, err := fmt.Fprintln(os.Stdout, ev.Type.String(), ev.Key)
			return err
		}
	}

	left := resolvedSide{Side: c.left, name: c.opts.Prefix + "_1"}
	right := resolvedSide{Side: c.right, name: c.opts.Prefix + "_2"}

	builtLeft, builtRight := -1, -1 // highest cascade level index successfully created per side
	cleanup := func() {
		if !*c.opts.Cleanup {
			return
		}
		dctx := context.Background() // cleanup must run even if ctx was cancelled
		if builtLeft >= 0 {
			dropCascade(dctx, left, builtLeft)
		}
		if builtRight >= 0 {
			dropCascade(dctx, right, builtRight)
		}
	}

	stats := &Stats{Factor: c.opts.Factor}

	t0 := time.Now()
	leftCount, rightCount, err := buildLevelZeroBoth(ctx, left, right, c.opts)
	stats.ChecksumTime = time.Since(t0)
	if err != nil {
		builtLeft, builtRight = 0, 0 // either side's level-0 table may exist
		cleanup()
		return nil, err
	}
	builtLeft, builtRight = 0, 0
	stats.LeftCount, stats.RightCount = leftCount, rightCount
	logPhase(c.opts.Verbose, 1, "level 0 built: left=", leftCount, "right=", rightCount)

	size := leftCount
	if rightCount > size {
		size = rightCount
	}
	if size == 0 {
		cleanup()
		return nil, ErrEmptyDomain
	}

	masks := computeMasks(size, c.opts.Factor, c.opts.MaxLevels)
	stats.Levels = len(masks)

	t1 := time.Now()
	if err := buildSummariesBoth(ctx, left, right, masks, c.opts); err != nil {
		builtLeft, builtRight = len(masks)-1, len(masks)-1
		cleanup()
		return nil, err
	}
	builtLeft, builtRight = len(masks)-1, len(masks)-1
	stats.SummaryTime = time.Since(t1)
	logPhase(c.opts.Verbose, 1, "summaries built:", len(masks)-1, "levels above the leaf")

	t2 := time.Now()
	fetch := func(fctx context.Context, isLeft bool, level int, where string) ([]levelRow, error) {
		side := left
		if !isLeft {
			side = right
		}
		return fetchLevel(fctx, side, level, where)
	}
	result, err := walk(ctx, masks, c.opts.MaxReport, c.opts.Verbose, fetch, emit)
	stats.MergeTime = time.Since(t2)
	if err != nil {
		cleanup()
		return nil, err
	}
	stats.Updates = result.Updates
	stats.Inserts = result.Inserts
	stats.Deletes = result.Deletes
	logPhase(c.opts.Verbose, 1, "walk complete: updates=", result.Updates, "inserts=", result.Inserts, "deletes=", result.Deletes)

	t3 := time.Now()
	bulkIns, bulkDel, err := resolveBulkBoth(ctx, left, right, result, c.opts.Parallel, emit)
	stats.BulkTime = time.Since(t3)
	if err != nil {
		cleanup()
		return nil, err
	}
	stats.Inserts += bulkIns
	stats.Deletes += bulkDel
	logPhase(c.opts.Verbose, 1, "bulk resolution complete: inserts=", bulkIns, "deletes=", bulkDel)

	cleanup()
	return stats, nil
}

// buildLevelZeroBoth builds both sides' level-0 tables, concurrently if
// Options.Parallel is set. An error on either side cancels the other
// (§5, §7) via the shared errgroup context.
func buildLevelZeroBoth(ctx context.Context, left, right resolvedSide, opts Options) (int64, int64, error) {

	if !opts.Parallel {
		lc, err := buildLevelZero(ctx, left, opts)
		if err != nil {
			return 0, 0, err
		}
		rc, err := buildLevelZero(ctx, right, opts)
		if err != nil {
			return lc, 0, err
		}
		return lc, rc, nil
	}

	var lc, rc int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lc, err = buildLevelZero(gctx, left, opts)
		return err
	})
	g.Go(func() error {
		var err error
		rc, err = buildLevelZero(gctx, right, opts)
		return err
	})
	if err := g.Wait(); err != nil {
		return lc, rc, err
	}
	return lc, rc, nil
}

// buildSummariesBoth builds both sides' summary cascades, concurrently if
// Options.Parallel is set.
func buildSummariesBoth(ctx context.Context, left, right resolvedSide, masks []uint32, opts Options) error {

	if !opts.Parallel {
		if err := buildSummaries(ctx, left, masks, opts); err != nil {
			return err
		}
		return buildSummaries(ctx, right, masks, opts)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return buildSummaries(gctx, left, masks, opts) })
	g.Go(func() error { return buildSummaries(gctx, right, masks, opts) })
	return g.Wait()
}

// fetchLevel retrieves one level's ordered rows for one side, selecting
// the id column only at the leaf (level 0), per §4.4 step 2. Column order
// in the SELECT matches the Scan order (§9's decision on the "select_one"
// open question).
func fetchLevel(ctx context.Context, side resolvedSide, level int, where string) ([]levelRow, error) {

	isLeaf := level == 0
	table := cascadeLevelName(side.name, level)

	q := "SELECT idc, cks"
	if isLeaf {
		q += ", id"
	}
	q += " FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY idc, cks"

	var rows []levelRow
	err := SelectRowsContext(ctx, side.Conn, q, func(r *sql.Rows) error {
		var row levelRow
		if isLeaf {
			if err := r.Scan(&row.Idc, &row.Cks, &row.Id); err != nil {
				return err
			}
		} else {
			if err := r.Scan(&row.Idc, &row.Cks); err != nil {
				return err
			}
		}
		rows = append(rows, row)
		return nil
	})
	return rows, err
}
