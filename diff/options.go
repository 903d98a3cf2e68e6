package diff

import (
	"database/sql"
)

// Side describes one of the two tables being compared (§3).
type Side struct {
	Conn    *sql.DB  // database connection, owned by the caller
	Facet   Facet    // server family; selects the CREATE TABLE form the cascade builders emit
	Table   string   // table identifier, possibly schema-qualified
	Keys    []string // ordered primary-key column names
	Cols    []string // ordered data column names to compare
	KeyLen  int      // max storable length of the textual key, default 255
	Dialect Dialect  // per-side SQL templates; zero value means "use Options.Dialect"
}

// resolved is a Side after defaulting, carrying the name this side's
// cascade tables use.
type resolvedSide struct {
	Side
	name string // "<prefix>_1" or "<prefix>_2"
}

// Options holds every comparison knob from §3's table. Zero-value fields
// are replaced by their defaults (see Options.resolve) at Comparator
// construction time.
type Options struct {
	Factor     int     // folding factor, clamped to [1,30], default 7
	MaxLevels  int     // cap on cascade levels, 0 = no cap
	MaxReport  int     // abort threshold for investigate-set size; 0 selects the default 32, a negative value disables the check
	Sep        string  // default ":"; not read when building SQL: keys are joined by the separator written into the Concat template
	Where      string  // optional SQL predicate applied at level 0
	Prefix     string  // intermediate table name prefix, default "cmp"
	Dialect    Dialect // default SQL templates both sides inherit unless overridden per-Side
	Temporary  *bool   // whether cascade tables are session-scoped temporaries, default true
	Cleanup    *bool   // whether to drop cascade tables when done, default !Temporary
	Parallel   bool    // whether the two sides build/resolve concurrently
	NumRecords int64   // override for the level-0 COUNT(*) probe, 0 = actually count
	Verbose    int     // diagnostic verbosity 0..3
}

const (
	defaultFactor    = 7
	defaultMaxReport = 32
	defaultKeyLen    = 255
	defaultSep       = ":"
	defaultPrefix    = "cmp"
)

func boolPtr(b bool) *bool { return &b }

// resolve fills in every Options zero-value with its documented default
// and clamps Factor into [1,30] (§9). It never mutates the caller's
// Options.
func (o Options) resolve() Options {
	r := o

	if r.Factor <= 0 {
		r.Factor = defaultFactor
	}
	if r.Factor > 30 {
		r.Factor = 30
	}
	if r.MaxReport == 0 {
		r.MaxReport = defaultMaxReport
	}
	if r.MaxReport < 0 {
		r.MaxReport = 0 // explicit negative disables the check (walk skips it when MaxReport is 0)
	}
	if r.Sep == "" {
		r.Sep = defaultSep
	}
	if r.Prefix == "" {
		r.Prefix = defaultPrefix
	}
	if r.Dialect == (Dialect{}) {
		r.Dialect = DefaultDialect()
	}
	if r.Temporary == nil {
		r.Temporary = boolPtr(true)
	}
	if r.Cleanup == nil {
		r.Cleanup = boolPtr(!*r.Temporary)
	}
	return r
}

// resolveSide applies §3's invariant defaults (keys="id", keylen=255) and,
// per §6's constructor rule, defaults any field missing on s from other's
// value (New calls it once for each side, with the opposite side as
// other). This is an explicit, one-time merge step
// (§9: "represent as an explicit merge step ... do not consult the other
// side at use time"), never a live fallback read during the walk.
func resolveSide(s, other Side, opts Options) (Side, error) {
	r := s

	if r.Conn == nil {
		return Side{}, &InvalidInputError{Reason: "missing database connection"}
	}
	if r.Table == "" {
		return Side{}, &InvalidInputError{Reason: "missing table name"}
	}
	if len(r.Keys) == 0 {
		if len(other.Keys) > 0 {
			r.Keys = append([]string(nil), other.Keys...)
		} else {
			r.Keys = []string{"id"}
		}
	}
	if len(r.Cols) == 0 {
		if len(other.Cols) > 0 {
			r.Cols = append([]string(nil), other.Cols...)
		} else {
			return Side{}, &InvalidInputError{Reason: "missing comparison columns"}
		}
	}
	if r.KeyLen <= 0 {
		if other.KeyLen > 0 {
			r.KeyLen = other.KeyLen
		} else {
			r.KeyLen = defaultKeyLen
		}
	}
	if r.Dialect == (Dialect{}) {
		if other.Dialect != (Dialect{}) {
			r.Dialect = other.Dialect
		} else {
			r.Dialect = opts.Dialect
		}
	}
	if err := r.Dialect.validate(); err != nil {
		return Side{}, err
	}
	return r, nil
}
