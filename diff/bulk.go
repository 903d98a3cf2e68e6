package diff

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// resolveBulk turns a side's deferred whole-subtree entries into concrete
// keys by scanning its level-0 table under the disjunction of bitmask
// predicates (§4.5), and returns how many keys it emitted. changeType is
// the classification reported for every key this side yields (Insert for
// the left side's left-only subtrees, Delete for the right side's
// right-only subtrees).
func resolveBulk(ctx context.Context, side resolvedSide, entries []maskEntry, changeType ChangeType, emit Callback) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	q := "SELECT id FROM " + levelZeroTable(side.name) + " WHERE " + bulkPredicate(entries) + " ORDER BY id"

	var keys []string
	err := SelectRowsContext(ctx, side.Conn, q, func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		keys = append(keys, id)
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, k := range keys {
		if err := emit(Event{Type: changeType, Key: k}); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// bulkPredicate renders "(idc & mask0 = idc0) OR (idc & mask1 = idc1) OR ..."
func bulkPredicate(entries []maskEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString(" OR ")
		}
		b.WriteString("(idc & ")
		b.WriteString(quoteMaskLiteral(e.Mask))
		b.WriteString(" = ")
		b.WriteString(strconv.FormatUint(uint64(e.Idc), 10))
		b.WriteByte(')')
	}
	return b.String()
}

// resolveBulkBoth resolves both sides' deferred subtrees and returns how
// many keys each side yielded. When parallel is true and both lists are
// non-empty, the two scans run concurrently (§4.5); the two resulting key
// streams are each emitted in ascending id order, but the two streams may
// interleave with each other since they run on independent goroutines
// (§5: "between sides in parallel mode there is no cross-side ordering").
func resolveBulkBoth(ctx context.Context, left, right resolvedSide, result *walkResult, parallel bool, emit Callback) (int, int, error) {

	if !parallel || len(result.MaskInsert) == 0 || len(result.MaskDelete) == 0 {
		nIns, err := resolveBulk(ctx, left, result.MaskInsert, Insert, emit)
		if err != nil {
			return 0, 0, err
		}
		nDel, err := resolveBulk(ctx, right, result.MaskDelete, Delete, emit)
		if err != nil {
			return nIns, 0, err
		}
		return nIns, nDel, nil
	}

	// two goroutines may call emit concurrently; serialize so a callback
	// that isn't itself thread-safe (the common case) still sees one
	// event at a time.
	var mu sync.Mutex
	safeEmit := func(ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		return emit(ev)
	}

	var nIns, nDel int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nIns, err = resolveBulk(gctx, left, result.MaskInsert, Insert, safeEmit)
		return err
	})
	g.Go(func() error {
		var err error
		nDel, err = resolveBulk(gctx, right, result.MaskDelete, Delete, safeEmit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nIns, nDel, err
	}
	return nIns, nDel, nil
}
