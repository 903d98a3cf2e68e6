package diff

import (
	"errors"
	"fmt"
)

// ErrEmptyDomain is returned by Process when both sides' level-0 row
// counts are zero: there is nothing to compare, and this is not treated
// as a failure (§7).
var ErrEmptyDomain = errors.New("diff: both sides are empty, nothing to compare")

// ErrInvariant signals the merge-join reached a state the design says is
// unreachable. It only ever fires on a bug, never on caller input.
var ErrInvariant = errors.New("diff: internal invariant violation")

// InvalidInputError reports a missing or malformed required option. New
// returns it synchronously, before any Process call (§7).
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return "diff: invalid input: " + e.Reason }

// EffortExceededError reports that the investigation set at some cascade
// level grew past MaxReport (§3, §4.4).
type EffortExceededError struct {
	Level int // cascade level (0 = leaf checksum table)
	Size  int // actual investigation-set size
	Limit int // configured MaxReport
}

func (e *EffortExceededError) Error() string {
	return fmt.Sprintf("diff: effort exceeded at level %d: %d keys to investigate (limit %d)", e.Level, e.Size, e.Limit)
}

// SQLError wraps any error returned by the underlying database driver
// with the statement that was running when it occurred (§7).
type SQLError struct {
	SQL string
	Err error
}

func (e *SQLError) Error() string { return "diff: sql error: " + e.Err.Error() + ": " + e.SQL }
func (e *SQLError) Unwrap() error { return e.Err }
