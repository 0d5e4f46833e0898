package store

import (
	"context"
	"net/url"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testQuotaStore(t *testing.T, quotaBytes int64) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quota.db")
	st, err := OpenWithOptions(path, Options{QuotaBytes: quotaBytes})
	if err != nil {
		t.Fatalf("open quota store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSQLiteDSN(t *testing.T) {
	if _, err := sqliteDSN("", Options{}); err == nil {
		t.Fatal("expected error for empty path")
	}

	dsn, err := sqliteDSN("/tmp/catalog.db", Options{QuotaBytes: 1 << 20})
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if !strings.HasPrefix(dsn, "file:///tmp/catalog.db?") {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	pragmas := u.Query()["_pragma"]
	for _, want := range []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(1)",
		"busy_timeout(5000)",
		"max_page_count(256)",
	} {
		if !slices.Contains(pragmas, want) {
			t.Fatalf("expected pragma %s in %v", want, pragmas)
		}
	}

	dsn, err = sqliteDSN("/tmp/catalog.db", Options{})
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}
	if strings.Contains(dsn, "max_page_count") {
		t.Fatalf("expected no page cap without quota: %s", dsn)
	}
}

func TestQuotaPages(t *testing.T) {
	tests := []struct {
		quota int64
		want  int64
	}{
		{quota: 0, want: 0},
		{quota: -1, want: 0},
		{quota: 100, want: 1},
		{quota: 4096, want: 1},
		{quota: 10 << 20, want: 2560},
	}
	for _, tt := range tests {
		if got := quotaPages(tt.quota); got != tt.want {
			t.Fatalf("quotaPages(%d) = %d, want %d", tt.quota, got, tt.want)
		}
	}
}

func TestReady(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if err := st.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := st.Ready(ctx); err == nil {
		t.Fatal("expected closed store to be unready")
	}

	var nilStore *Store
	if err := nilStore.Ready(ctx); err == nil {
		t.Fatal("expected nil store to be unready")
	}
}

func TestOpenWithRetry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retry.db")
	st, err := OpenWithRetry(context.Background(), path, Options{}, 2)
	if err != nil {
		t.Fatalf("open with retry: %v", err)
	}
	defer st.Close()

	if _, err := OpenWithRetry(context.Background(), "", Options{}, 2); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestInfo(t *testing.T) {
	st := testQuotaStore(t, 1<<20)
	ctx := context.Background()

	if _, err := st.UpsertInstrument(ctx, newInstrument(1, "uno")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	info, err := st.Info(ctx)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.SchemaVersion != len(migrations) {
		t.Fatalf("expected schema version %d, got %d", len(migrations), info.SchemaVersion)
	}
	if info.Instruments != 1 || info.Blobs != 0 {
		t.Fatalf("unexpected counts: %+v", info)
	}
	if info.MaxPageCount != 256 {
		t.Fatalf("expected max page count 256, got %d", info.MaxPageCount)
	}
	if info.PageSize != defaultPageSize {
		t.Fatalf("expected page size %d, got %d", defaultPageSize, info.PageSize)
	}
	if info.QuotaBytes != 1<<20 {
		t.Fatalf("expected quota bytes echoed, got %d", info.QuotaBytes)
	}
}
