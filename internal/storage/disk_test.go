package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "history.db")
	if err := os.WriteFile(db, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	index := filepath.Join(dir, "indices", "medical")
	if err := os.MkdirAll(filepath.Join(index, "store"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(index, "index_meta.json"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(index, "store", "root.bolt"), []byte("xyz"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := DiskUsageBytes(db)
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Errorf("single file: got %d bytes, want 5", got)
	}

	got, err = DiskUsageBytes(db, index, "", filepath.Join(dir, "openfda"))
	if err != nil {
		t.Fatal(err)
	}
	if got != 10 {
		t.Errorf("combined: got %d bytes, want 10", got)
	}
}
