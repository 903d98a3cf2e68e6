// Copyright (c) 2016 OpenM++
// This code is licensed under the MIT license (see LICENSE.txt for details)

package diff

import (
	"database/sql"
	"reflect"
	"testing"
)

// fakeConn is a non-nil *sql.DB placeholder; resolveSide only checks it
// for nilness, never dereferences it.
func fakeConn() *sql.DB {
	dbConn, _ := sql.Open("sqlite3", "file::memory:")
	return dbConn
}

func TestResolveSideDefaultsKeysFromOther(t *testing.T) {
	conn := fakeConn()
	defer conn.Close()

	other := Side{Keys: []string{"a", "b"}, Cols: []string{"x"}}
	s := Side{Conn: conn, Table: "t"}

	r, err := resolveSide(s, other, defaultOptionsForTest())
	if err != nil {
		t.Fatalf("resolveSide: %v", err)
	}
	if !reflect.DeepEqual(r.Keys, []string{"a", "b"}) {
		t.Errorf("Keys = %v, want inherited from other", r.Keys)
	}
	if !reflect.DeepEqual(r.Cols, []string{"x"}) {
		t.Errorf("Cols = %v, want inherited from other", r.Cols)
	}
}

func TestResolveSideDefaultsKeysToId(t *testing.T) {
	conn := fakeConn()
	defer conn.Close()

	s := Side{Conn: conn, Table: "t", Cols: []string{"x"}}
	r, err := resolveSide(s, Side{}, defaultOptionsForTest())
	if err != nil {
		t.Fatalf("resolveSide: %v", err)
	}
	if !reflect.DeepEqual(r.Keys, []string{"id"}) {
		t.Errorf("Keys = %v, want [id]", r.Keys)
	}
	if r.KeyLen != defaultKeyLen {
		t.Errorf("KeyLen = %d, want default %d", r.KeyLen, defaultKeyLen)
	}
}

func TestResolveSideMissingColsIsError(t *testing.T) {
	conn := fakeConn()
	defer conn.Close()

	s := Side{Conn: conn, Table: "t"}
	if _, err := resolveSide(s, Side{}, defaultOptionsForTest()); err == nil {
		t.Fatal("expected an error when no side supplies comparison columns")
	}
}

func TestResolveSideMissingConnOrTable(t *testing.T) {
	conn := fakeConn()
	defer conn.Close()

	if _, err := resolveSide(Side{Table: "t", Cols: []string{"x"}}, Side{}, defaultOptionsForTest()); err == nil {
		t.Error("expected an error for a missing connection")
	}
	if _, err := resolveSide(Side{Conn: conn, Cols: []string{"x"}}, Side{}, defaultOptionsForTest()); err == nil {
		t.Error("expected an error for a missing table")
	}
}

func TestOptionsResolveClampsFactor(t *testing.T) {
	r := Options{Factor: 1000}.resolve()
	if r.Factor != 30 {
		t.Errorf("Factor = %d, want clamped to 30", r.Factor)
	}
	r = Options{Factor: -5}.resolve()
	if r.Factor != defaultFactor {
		t.Errorf("Factor = %d, want default %d for non-positive input", r.Factor, defaultFactor)
	}
}

func TestOptionsResolveCleanupDefaultsToNotTemporary(t *testing.T) {
	r := Options{}.resolve()
	if !*r.Temporary {
		t.Error("Temporary should default to true")
	}
	if *r.Cleanup {
		t.Error("Cleanup should default to false when Temporary defaults to true")
	}

	isTemp := false
	r = Options{Temporary: &isTemp}.resolve()
	if !*r.Cleanup {
		t.Error("Cleanup should default to true when Temporary is explicitly false")
	}
}

// defaultOptionsForTest mirrors what Comparator.New computes internally,
// exposed here so option-resolution tests don't need a live Comparator.
func defaultOptionsForTest() Options { return Options{}.resolve() }
