package task

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(path, stamp, stamp); err != nil {
		t.Fatalf("failed to age %s: %v", name, err)
	}
	return path
}

func TestCleanupOldFilesRemovesOnlyExpired(t *testing.T) {
	dir := t.TempDir()
	old := writeAged(t, dir, "old.tmp", 2*time.Hour)
	fresh := writeAged(t, dir, "fresh.tmp", time.Minute)

	removed, err := CleanupOldFiles(dir, time.Hour, "")
	if err != nil {
		t.Fatalf("CleanupOldFiles failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("expired file should be gone")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh file should survive: %v", err)
	}
}

func TestCleanupOldFilesHonorsPattern(t *testing.T) {
	dir := t.TempDir()
	tmp := writeAged(t, dir, "upload.tmp", 2*time.Hour)
	audio := writeAged(t, dir, "track.mp3", 2*time.Hour)

	removed, err := CleanupOldFiles(dir, time.Hour, "*.tmp")
	if err != nil {
		t.Fatalf("CleanupOldFiles failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want only the tmp file", removed)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Fatal("tmp file should be gone")
	}
	if _, err := os.Stat(audio); err != nil {
		t.Fatalf("non-matching file should survive: %v", err)
	}
}

func TestCleanupOldFilesSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}
	stamp := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(sub, stamp, stamp); err != nil {
		t.Fatalf("failed to age subdir: %v", err)
	}

	removed, err := CleanupOldFiles(dir, time.Hour, "")
	if err != nil {
		t.Fatalf("CleanupOldFiles failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(sub); err != nil {
		t.Fatalf("directory should survive: %v", err)
	}
}

func TestCleanupOldFilesMissingDirIsBenign(t *testing.T) {
	removed, err := CleanupOldFiles(filepath.Join(t.TempDir(), "missing"), time.Hour, "")
	if err != nil {
		t.Fatalf("missing directory must not error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed = %d, want 0", removed)
	}
}
