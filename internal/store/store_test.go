package store

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func appendAll(t *testing.T, s Store, pairs [][2]string) {
	t.Helper()
	for _, p := range pairs {
		if err := s.Append(p[0], p[1]); err != nil {
			t.Fatalf("Append(%q, %q) error = %v", p[0], p[1], err)
		}
	}
}

func checkRoundTrip(t *testing.T, s Store) {
	t.Helper()
	pairs := [][2]string{
		{"a.log", "first"},
		{"b.log", "second"},
		{"a.log", "third"},
	}
	appendAll(t, s, pairs)

	records, err := s.QueryAll()
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(records) != len(pairs) {
		t.Fatalf("QueryAll() returned %d records, want %d", len(records), len(pairs))
	}
	var lastID int64
	for i, r := range records {
		if r.FileID != pairs[i][0] || r.Message != pairs[i][1] {
			t.Errorf("record %d = (%q, %q), want (%q, %q)", i, r.FileID, r.Message, pairs[i][0], pairs[i][1])
		}
		if r.ID <= lastID {
			t.Errorf("record %d id %d not greater than previous %d", i, r.ID, lastID)
		}
		lastID = r.ID
	}
}

func TestMemory_RoundTrip(t *testing.T) {
	checkRoundTrip(t, NewMemory(0))
}

func TestMemory_Ring(t *testing.T) {
	m := NewMemory(3)
	for i := 0; i < 5; i++ {
		if err := m.Append("f", string(rune('a'+i))); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	records, err := m.QueryAll()
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	var got []string
	var ids []int64
	for _, r := range records {
		got = append(got, r.Message)
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(got, []string{"c", "d", "e"}) {
		t.Errorf("messages = %v, want [c d e]", got)
	}
	if !reflect.DeepEqual(ids, []int64{3, 4, 5}) {
		t.Errorf("ids = %v, want [3 4 5]", ids)
	}
}

func TestMemory_QueryReturnsCopy(t *testing.T) {
	m := NewMemory(0)
	m.Append("f", "x")

	records, _ := m.QueryAll()
	records[0].Message = "mutated"

	again, _ := m.QueryAll()
	if again[0].Message != "x" {
		t.Error("QueryAll should return an independent copy")
	}
}

func TestMemory_Closed(t *testing.T) {
	m := NewMemory(0)
	m.Close()
	if err := m.Append("f", "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Append() after Close error = %v, want ErrClosed", err)
	}
	if _, err := m.QueryAll(); !errors.Is(err, ErrClosed) {
		t.Errorf("QueryAll() after Close error = %v, want ErrClosed", err)
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "run.db3"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	checkRoundTrip(t, s)
}

func TestSQLite_EmptyQuery(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "run.db3"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer s.Close()

	records, err := s.QueryAll()
	if err != nil {
		t.Fatalf("QueryAll() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("QueryAll() = %v, want empty", records)
	}
}

func TestSQLite_ExistingTableFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.db3")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	s.Close()

	if _, err := OpenSQLite(path); err == nil {
		t.Error("OpenSQLite() on existing database should fail creating schema")
	}
}

func TestSQLite_Closed(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "run.db3"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := s.Append("f", "x"); !errors.Is(err, ErrClosed) {
		t.Errorf("Append() after Close error = %v, want ErrClosed", err)
	}
}

func TestSessionPath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	now := time.UnixMilli(1700000000123)

	path, err := SessionPath(dir, now)
	if err != nil {
		t.Fatalf("SessionPath() error = %v", err)
	}
	if want := filepath.Join(dir, "1700000000123.db3"); path != want {
		t.Errorf("SessionPath() = %q, want %q", path, want)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Errorf("SessionPath() did not create %q", dir)
	}
}

func TestOpen(t *testing.T) {
	now := time.UnixMilli(42)

	s, err := Open(Options{Backend: BackendSQLite, Dir: t.TempDir()}, now)
	if err != nil {
		t.Fatalf("Open(sqlite) error = %v", err)
	}
	sq, ok := s.(*SQLite)
	if !ok {
		t.Fatalf("Open(sqlite) returned %T", s)
	}
	if !strings.HasSuffix(sq.Path(), "42.db3") {
		t.Errorf("sqlite path = %q, want suffix 42.db3", sq.Path())
	}
	s.Close()

	m, err := Open(Options{Backend: BackendMemory, Capacity: 10}, now)
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if _, ok := m.(*Memory); !ok {
		t.Errorf("Open(memory) returned %T", m)
	}

	if _, err := Open(Options{Backend: "postgres"}, now); err == nil {
		t.Error("Open() with unknown backend should fail")
	}
}
