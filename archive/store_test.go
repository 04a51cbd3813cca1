package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestDirStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := NewDirStore(filepath.Join(root, "mirror"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	ctx := context.Background()

	src := filepath.Join(root, "Daily_2024_01_02.zip")
	if err := os.WriteFile(src, []byte("archive-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	name := filepath.Join("fut_rpt", "Daily_2024_01_02.zip")
	ok, err := store.Exists(ctx, name)
	if err != nil {
		t.Fatalf("Failed to check existence: %v", err)
	}
	if ok {
		t.Fatal("Expected archive to be absent before upload")
	}

	if err := store.Upload(ctx, src, name); err != nil {
		t.Fatalf("Failed to upload: %v", err)
	}

	ok, err = store.Exists(ctx, name)
	if err != nil || !ok {
		t.Fatalf("Expected archive to exist after upload, got ok=%v err=%v", ok, err)
	}

	dest := filepath.Join(root, "fetched", "Daily_2024_01_02.zip")
	if err := store.Fetch(ctx, name, dest); err != nil {
		t.Fatalf("Failed to fetch: %v", err)
	}
	raw, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "archive-bytes" {
		t.Errorf("Fetched content mismatch: %q", raw)
	}
}

func TestDirStoreRequiresRoot(t *testing.T) {
	if _, err := NewDirStore(""); err == nil {
		t.Error("Expected error for empty mirror root, got nil")
	}
}

func TestDirStoreFetchMissing(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	err = store.Fetch(context.Background(), "nope.zip", filepath.Join(t.TempDir(), "out.zip"))
	if err == nil {
		t.Error("Expected error for missing archive, got nil")
	}
}
