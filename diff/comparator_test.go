// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

package diff

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/tablecmp/tablecmp/sqlitefn"
)

// openTestSide creates an isolated in-memory SQLite database (one per test
// per side, named after t.Name() so parallel subtests never collide on a
// shared-cache URI) with an "orders" source table, and returns the open
// handle plus its detected Facet.
func openTestSide(t *testing.T, label string) (*sql.DB, Facet) {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, label)

	dbConn, facet, err := Open(dsn, sqlitefn.DriverName, true)
	if err != nil {
		t.Fatalf("open %s side: %v", label, err)
	}
	// one in-memory database per side: a second pooled connection must see
	// the same shared-cache instance, not a fresh empty one.
	dbConn.SetMaxOpenConns(1)

	if err := Exec(dbConn, "CREATE TABLE orders (order_id INTEGER PRIMARY KEY, status TEXT, total INTEGER)"); err != nil {
		t.Fatalf("create orders on %s: %v", label, err)
	}
	return dbConn, facet
}

func insertOrder(t *testing.T, dbConn *sql.DB, id int, status string, total int) {
	t.Helper()
	q := fmt.Sprintf("INSERT INTO orders (order_id, status, total) VALUES (%d,'%s',%d)", id, status, total)
	if err := Exec(dbConn, q); err != nil {
		t.Fatalf("insert order %d: %v", id, err)
	}
}

func TestProcessEndToEnd(t *testing.T) {
	leftDb, leftFacet := openTestSide(t, "left")
	defer leftDb.Close()
	rightDb, rightFacet := openTestSide(t, "right")
	defer rightDb.Close()

	// common rows, order_id 1..10, identical on both sides except 5
	for i := 1; i <= 10; i++ {
		status := "shipped"
		if i == 5 {
			insertOrder(t, leftDb, i, "pending", 100+i)
			insertOrder(t, rightDb, i, "shipped", 100+i) // update: status differs
			continue
		}
		insertOrder(t, leftDb, i, status, 100+i)
		insertOrder(t, rightDb, i, status, 100+i)
	}
	insertOrder(t, leftDb, 11, "new", 999)    // left-only: insert
	insertOrder(t, rightDb, 12, "new", 888)   // right-only: delete

	left := Side{Conn: leftDb, Facet: leftFacet, Table: "orders", Keys: []string{"order_id"}, Cols: []string{"status", "total"}}
	right := Side{Conn: rightDb, Facet: rightFacet, Table: "orders", Keys: []string{"order_id"}, Cols: []string{"status", "total"}}

	isTemp := false // regular tables: visible across pooled connections under shared cache
	opts := Options{Prefix: "cmp_e2e", Temporary: &isTemp}

	cmp, err := New(left, right, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var events []Event
	stats, err := cmp.Process(context.Background(), func(ev Event) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if stats.LeftCount != 11 || stats.RightCount != 11 {
		t.Errorf("row counts = %d/%d, want 11/11", stats.LeftCount, stats.RightCount)
	}
	if stats.Total() != 3 {
		t.Errorf("total diffs = %d, want 3: %+v", stats.Total(), events)
	}

	var gotInsert, gotUpdate, gotDelete bool
	for _, ev := range events {
		switch {
		case ev.Type == Insert && ev.Key == "11":
			gotInsert = true
		case ev.Type == Update && ev.Key == "5":
			gotUpdate = true
		case ev.Type == Delete && ev.Key == "12":
			gotDelete = true
		}
	}
	if !gotInsert {
		t.Errorf("missing insert for key 11: %+v", events)
	}
	if !gotUpdate {
		t.Errorf("missing update for key 5: %+v", events)
	}
	if !gotDelete {
		t.Errorf("missing delete for key 12: %+v", events)
	}

	// cleanup defaults to true when Temporary is false; cascade tables must
	// be gone afterward.
	if err := Exec(leftDb, "SELECT 1 FROM cmp_e2e_1_0 LIMIT 1"); err == nil {
		t.Errorf("expected level-0 table to be dropped after cleanup")
	}
}

func TestProcessEmptyDomain(t *testing.T) {
	leftDb, leftFacet := openTestSide(t, "left")
	defer leftDb.Close()
	rightDb, rightFacet := openTestSide(t, "right")
	defer rightDb.Close()

	left := Side{Conn: leftDb, Facet: leftFacet, Table: "orders", Keys: []string{"order_id"}, Cols: []string{"status"}}
	right := Side{Conn: rightDb, Facet: rightFacet, Table: "orders", Keys: []string{"order_id"}, Cols: []string{"status"}}

	isTemp := false
	cmp, err := New(left, right, Options{Prefix: "cmp_empty", Temporary: &isTemp})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = cmp.Process(context.Background(), func(Event) error { return nil })
	if err != ErrEmptyDomain {
		t.Fatalf("Process on two empty tables = %v, want ErrEmptyDomain", err)
	}
}

func TestProcessMissingColumnsIsInvalidInput(t *testing.T) {
	leftDb, leftFacet := openTestSide(t, "left")
	defer leftDb.Close()
	rightDb, rightFacet := openTestSide(t, "right")
	defer rightDb.Close()

	left := Side{Conn: leftDb, Facet: leftFacet, Table: "orders", Keys: []string{"order_id"}}
	right := Side{Conn: rightDb, Facet: rightFacet, Table: "orders", Keys: []string{"order_id"}}

	_, err := New(left, right, Options{})
	if err == nil {
		t.Fatal("expected an error when neither side supplies comparison columns")
	}
	if _, ok := err.(*InvalidInputError); !ok {
		t.Errorf("expected *InvalidInputError, got %T: %v", err, err)
	}
}

// TestProcessDeepCascade uses a small Factor against a few hundred rows so
// computeMasks produces several real summary levels above the leaf (unlike
// the other end-to-end tests here, which stay too shallow to exercise more
// than one or two), catching a cascade that aggregates the wrong direction
// even though the leaf-level classifications still come out right.
func TestProcessDeepCascade(t *testing.T) {
	leftDb, leftFacet := openTestSide(t, "left")
	defer leftDb.Close()
	rightDb, rightFacet := openTestSide(t, "right")
	defer rightDb.Close()

	const n = 500
	updated := map[int]bool{17: true, 118: true, 249: true, 380: true, 491: true}
	for i := 1; i <= n; i++ {
		if updated[i] {
			insertOrder(t, leftDb, i, "pending", 100+i)
			insertOrder(t, rightDb, i, "shipped", 100+i)
			continue
		}
		insertOrder(t, leftDb, i, "shipped", 100+i)
		insertOrder(t, rightDb, i, "shipped", 100+i)
	}
	leftOnly := []int{n + 1, n + 50, n + 200}
	for _, id := range leftOnly {
		insertOrder(t, leftDb, id, "new", 999)
	}
	rightOnly := []int{n + 2, n + 75, n + 300}
	for _, id := range rightOnly {
		insertOrder(t, rightDb, id, "new", 888)
	}

	left := Side{Conn: leftDb, Facet: leftFacet, Table: "orders", Keys: []string{"order_id"}, Cols: []string{"status", "total"}}
	right := Side{Conn: rightDb, Facet: rightFacet, Table: "orders", Keys: []string{"order_id"}, Cols: []string{"status", "total"}}

	isTemp := false
	cmp, err := New(left, right, Options{Prefix: "cmp_deep", Temporary: &isTemp, Factor: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	gotUpdates := map[string]bool{}
	gotInserts := map[string]bool{}
	gotDeletes := map[string]bool{}
	stats, err := cmp.Process(context.Background(), func(ev Event) error {
		switch ev.Type {
		case Update:
			gotUpdates[ev.Key] = true
		case Insert:
			gotInserts[ev.Key] = true
		case Delete:
			gotDeletes[ev.Key] = true
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if stats.Levels < 4 {
		t.Fatalf("test needs a deeper cascade to be meaningful, got %d levels", stats.Levels)
	}

	if len(gotUpdates) != len(updated) {
		t.Errorf("updates = %v, want keys for %v", gotUpdates, updated)
	}
	for id := range updated {
		if !gotUpdates[fmt.Sprint(id)] {
			t.Errorf("missing update for key %d", id)
		}
	}
	if len(gotInserts) != len(leftOnly) {
		t.Errorf("inserts = %v, want %v", gotInserts, leftOnly)
	}
	for _, id := range leftOnly {
		if !gotInserts[fmt.Sprint(id)] {
			t.Errorf("missing insert for key %d", id)
		}
	}
	if len(gotDeletes) != len(rightOnly) {
		t.Errorf("deletes = %v, want %v", gotDeletes, rightOnly)
	}
	for _, id := range rightOnly {
		if !gotDeletes[fmt.Sprint(id)] {
			t.Errorf("missing delete for key %d", id)
		}
	}
}

func TestProcessEffortExceeded(t *testing.T) {
	leftDb, leftFacet := openTestSide(t, "left")
	defer leftDb.Close()
	rightDb, rightFacet := openTestSide(t, "right")
	defer rightDb.Close()

	// every row differs. Factor 2 puts summary levels between the root and
	// the leaf, so the differing groups carried down to a level outnumber a
	// deliberately tiny MaxReport (with the default Factor, 20 rows give
	// only a root and a leaf, and the root always carries a single idc).
	for i := 1; i <= 20; i++ {
		insertOrder(t, leftDb, i, "a", i)
		insertOrder(t, rightDb, i, "b", i)
	}

	left := Side{Conn: leftDb, Facet: leftFacet, Table: "orders", Keys: []string{"order_id"}, Cols: []string{"status", "total"}}
	right := Side{Conn: rightDb, Facet: rightFacet, Table: "orders", Keys: []string{"order_id"}, Cols: []string{"status", "total"}}

	isTemp := false
	cmp, err := New(left, right, Options{Prefix: "cmp_effort", Temporary: &isTemp, MaxReport: 1, Factor: 2})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = cmp.Process(context.Background(), func(Event) error { return nil })
	if _, ok := err.(*EffortExceededError); !ok {
		t.Fatalf("expected *EffortExceededError, got %T: %v", err, err)
	}
}
