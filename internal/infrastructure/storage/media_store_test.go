package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goldmine/exercise-archive/internal/infrastructure/storage"
)

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestMediaStoreWriteAndRemove(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := storage.NewMediaStore(root)
	ctx := context.Background()

	if err := store.Write(ctx, "QM1/2024HS/Series 1/ex1.pdf", strings.NewReader("pdf-1")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if got := readFile(t, root, "QM1/2024HS/Series 1/ex1.pdf"); got != "pdf-1" {
		t.Fatalf("unexpected content: %q", got)
	}

	if err := store.Remove(ctx, "QM1/2024HS/Series 1/ex1.pdf"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := store.Remove(ctx, "QM1/2024HS/Series 1/ex1.pdf"); err != nil {
		t.Fatalf("remove of missing file must not fail: %v", err)
	}
}

func TestMediaStoreRejectsTraversal(t *testing.T) {
	t.Parallel()

	store := storage.NewMediaStore(t.TempDir())
	ctx := context.Background()

	if err := store.Write(ctx, "../outside.pdf", strings.NewReader("x")); err == nil {
		t.Fatal("expected traversal rejection")
	}
	if err := store.Write(ctx, "/abs.pdf", strings.NewReader("x")); err == nil {
		t.Fatal("expected absolute path rejection")
	}
}

func TestMediaStoreSnapshotKeepsFirstCopy(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := storage.NewMediaStore(root)
	ctx := context.Background()

	live := "QM1/2024HS/Series 3/ex3.pdf"
	snapDir := "QM1/2024HS/_archive/series_7_6f1f9c7e"

	if err := store.Write(ctx, live, strings.NewReader("ORIGINAL")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := store.Snapshot(ctx, []string{live}, snapDir); err != nil {
		t.Fatalf("first snapshot failed: %v", err)
	}

	// The live file changes, then a retry snapshots the same paths again.
	if err := store.Write(ctx, live, strings.NewReader("NEW")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	if err := store.Snapshot(ctx, []string{live}, snapDir); err != nil {
		t.Fatalf("second snapshot failed: %v", err)
	}

	if got := readFile(t, root, snapDir+"/ex3.pdf"); got != "ORIGINAL" {
		t.Fatalf("snapshot was replaced, got %q", got)
	}
}

func TestMediaStoreSnapshotSkipsMissingAndEmpty(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := storage.NewMediaStore(root)
	ctx := context.Background()

	if err := store.Snapshot(ctx, []string{"", "QM1/2024HS/gone.pdf"}, "QM1/2024HS/_archive/s"); err != nil {
		t.Fatalf("snapshot of missing sources must not fail: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "QM1/2024HS/_archive/s")); !os.IsNotExist(err) {
		t.Fatalf("no snapshot dir expected, stat err: %v", err)
	}
}

func TestMediaStoreRestore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := storage.NewMediaStore(root)
	ctx := context.Background()

	live := "QM1/2024HS/Series 3/ex3.pdf"
	snapDir := "QM1/2024HS/_archive/series_7_6f1f9c7e"

	if err := store.Write(ctx, live, strings.NewReader("ORIGINAL")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := store.Snapshot(ctx, []string{live}, snapDir); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if err := store.Write(ctx, live, strings.NewReader("NEW")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}

	if err := store.Restore(ctx, snapDir, []string{live, "", "QM1/2024HS/never-snapshotted.pdf"}); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if got := readFile(t, root, live); got != "ORIGINAL" {
		t.Fatalf("live file not restored, got %q", got)
	}
}
