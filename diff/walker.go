package diff

import (
	"context"
	"strconv"
	"strings"

	"github.com/tablecmp/tablecmp/dlog"
)

// ChangeType classifies one row-level difference (§6).
type ChangeType int

const (
	Insert ChangeType = iota
	Update
	Delete
)

// String is the printable form used by the default stdout writer.
func (c ChangeType) String() string {
	switch c {
	case Insert:
		return "insert"
	case Update:
		return "update"
	case Delete:
		return "delete"
	}
	return "unknown"
}

// Event is one classified difference: a change type and the textual
// primary key that identifies the affected row (§6).
type Event struct {
	Type ChangeType
	Key  string
}

// Callback receives one Event at a time, in the order described by §5. A
// non-nil return aborts the walk and propagates from Process.
type Callback func(Event) error

// levelRow is one row of either a leaf checksum table (Id populated) or a
// summary table (Id empty).
type levelRow struct {
	Idc uint32
	Cks uint32
	Id  string
}

// maskEntry names a whole subtree deferred to the bulk resolver: every
// level-0 row whose idc & Mask == Idc is wholly present on one side and
// wholly absent on the other (§4.5).
type maskEntry struct {
	Idc  uint32
	Mask uint32
}

// walkResult accumulates everything produced by descending the cascade.
type walkResult struct {
	Updates     int
	Inserts     int
	Deletes     int
	MaskInsert  []maskEntry // left-only whole subtrees
	MaskDelete  []maskEntry // right-only whole subtrees
	LevelsWalked int
}

// walk descends both cascades from the root to the leaf checksum table,
// merge-joining the two ordered result streams at each level (§4.4).
//
// masks indexes the same way buildSummaries does: masks[level] is the
// grouping mask cascade level "level" was built with (see
// cascadeLevelName), falling to masks[len(masks)-1]==0 at the root;
// level 0, the leaf, has no mask of its own. fetch retrieves one level's
// ordered rows for the side named by isLeft; walk calls it for the left
// side and then for the right side, one after the other, at every level.
func walk(
	ctx context.Context,
	masks []uint32,
	maxReport int,
	verbose int,
	fetch func(ctx context.Context, isLeft bool, level int, whereClause string) ([]levelRow, error),
	emit Callback,
) (*walkResult, error) {

	result := &walkResult{}
	var investigate []uint32 // idc values to examine at the current level; nil means "examine everything" (root)

	for i := 0; i < len(masks); i++ {
		level := len(masks) - 1 - i
		isLeaf := level == 0
		result.LevelsWalked++

		var where string
		if i > 0 {
			if len(investigate) == 0 {
				break // no further differences possible
			}
			if maxReport > 0 && len(investigate) > maxReport {
				return nil, &EffortExceededError{Level: level, Size: len(investigate), Limit: maxReport}
			}
			where = investigateWhere(masks[level+1], investigate)
		}

		leftRows, err := fetch(ctx, true, level, where)
		if err != nil {
			return nil, err
		}
		rightRows, err := fetch(ctx, false, level, where)
		if err != nil {
			return nil, err
		}

		ownMask := masks[level]
		next, err := mergeJoinLevel(leftRows, rightRows, isLeaf, ownMask, emit, result)
		if err != nil {
			return nil, err
		}
		if verbose >= 2 {
			dlog.Log("level", level, "left rows=", len(leftRows), "right rows=", len(rightRows), "investigate=", len(next))
		}
		investigate = next
	}

	return result, nil
}

// investigateWhere renders "idc & parentMask IN (v1,v2,...)". The values
// are internally computed uint32s, never caller-supplied strings, so
// direct integer formatting carries no injection risk (§4.1).
func investigateWhere(parentMask uint32, investigate []uint32) string {
	var b strings.Builder
	b.WriteString("idc & ")
	b.WriteString(quoteMaskLiteral(parentMask))
	b.WriteString(" IN (")
	for i, v := range investigate {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(v), 10))
	}
	b.WriteByte(')')
	return b.String()
}

// mergeJoinLevel merges two (idc,cks)-ordered streams for one cascade
// level (§4.4 step 3). idc values are unique within a side's result set
// at this level (summary tables are GROUP BY idc&mask; leaf-level idc
// collisions across distinct keys are the explicitly accepted,
// probabilistic risk named in §1's non-goals), so a single-pointer merge
// on idc is sufficient.
func mergeJoinLevel(left, right []levelRow, isLeaf bool, ownMask uint32, emit Callback, result *walkResult) ([]uint32, error) {

	var next []uint32
	i, j := 0, 0

	for i < len(left) || j < len(right) {
		switch {
		case j == len(right) || (i < len(left) && left[i].Idc < right[j].Idc):
			if isLeaf {
				if err := emit(Event{Type: Insert, Key: left[i].Id}); err != nil {
					return nil, err
				}
				result.Inserts++
			} else {
				result.MaskInsert = append(result.MaskInsert, maskEntry{Idc: left[i].Idc, Mask: ownMask})
			}
			i++

		case i == len(left) || right[j].Idc < left[i].Idc:
			if isLeaf {
				if err := emit(Event{Type: Delete, Key: right[j].Id}); err != nil {
					return nil, err
				}
				result.Deletes++
			} else {
				result.MaskDelete = append(result.MaskDelete, maskEntry{Idc: right[j].Idc, Mask: ownMask})
			}
			j++

		default: // left[i].Idc == right[j].Idc
			if left[i].Cks != right[j].Cks {
				if isLeaf {
					if err := emit(Event{Type: Update, Key: left[i].Id}); err != nil {
						return nil, err
					}
					result.Updates++
				} else {
					next = append(next, left[i].Idc)
				}
			}
			i++
			j++
		}
	}

	return next, nil
}
