package index_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aldric/tavle/internal/apperr"
	"github.com/aldric/tavle/internal/index"
	"github.com/aldric/tavle/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSyncIndexesVault(t *testing.T) {
	db := testutil.TestDB(t)
	_, store := testutil.TestVault(t)

	if err := store.Write("a.md", []byte("# Alpha\n\nlinks to [[b]]")); err != nil {
		t.Fatal(err)
	}
	if err := store.Write("sub/b.md", []byte("---\ntitle: Beta\ntags: [work]\n---\nbody")); err != nil {
		t.Fatal(err)
	}

	if err := index.Sync(db, store, discardLogger()); err != nil {
		t.Fatalf("sync: %v", err)
	}

	a, err := db.GetNote("a.md")
	if err != nil {
		t.Fatal(err)
	}
	if a.Title != "Alpha" {
		t.Errorf("title = %q", a.Title)
	}
	b, err := db.GetNote("sub/b.md")
	if err != nil {
		t.Fatal(err)
	}
	if b.Title != "Beta" || len(b.Tags) != 1 || b.Tags[0] != "work" {
		t.Errorf("b = %+v", b)
	}
	back, err := db.Backlinks("b")
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0] != "a.md" {
		t.Errorf("backlinks = %v", back)
	}
}

func TestSyncRemovesStaleEntries(t *testing.T) {
	db := testutil.TestDB(t)
	_, store := testutil.TestVault(t)

	if err := store.Write("gone.md", []byte("ephemeral")); err != nil {
		t.Fatal(err)
	}
	if err := index.Sync(db, store, discardLogger()); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete("gone.md"); err != nil {
		t.Fatal(err)
	}

	if err := index.Sync(db, store, discardLogger()); err != nil {
		t.Fatal(err)
	}
	if _, err := db.GetNote("gone.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("stale entry survived sync: %v", err)
	}
}

func TestSyncSkipsUnchanged(t *testing.T) {
	db := testutil.TestDB(t)
	_, store := testutil.TestVault(t)

	if err := store.Write("a.md", []byte("stable")); err != nil {
		t.Fatal(err)
	}
	if err := index.Sync(db, store, discardLogger()); err != nil {
		t.Fatal(err)
	}
	before, err := db.GetNote("a.md")
	if err != nil {
		t.Fatal(err)
	}

	if err := index.Sync(db, store, discardLogger()); err != nil {
		t.Fatal(err)
	}
	after, err := db.GetNote("a.md")
	if err != nil {
		t.Fatal(err)
	}
	if after.Checksum != before.Checksum || after.ModifiedAt != before.ModifiedAt {
		t.Fatalf("unchanged file was re-stamped: %+v -> %+v", before, after)
	}
}
