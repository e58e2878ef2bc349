package filesystem

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomicNonExistentDirectory(t *testing.T) {
	if _, err := WriteFileAtomic("/does/not/exist/file", []byte{}, 0600, nil); err == nil {
		t.Error("atomic file write did not fail for non-existent directory")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "file")
	contents := []byte{0, 1, 2, 3, 4, 5, 6}

	result, err := WriteFileAtomic(target, contents, 0600, nil)
	if err != nil {
		t.Fatal("atomic file write failed:", err)
	}
	if result.ParentSyncError != nil {
		t.Error("unexpected parent directory sync error:", result.ParentSyncError)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal("unable to read back file:", err)
	} else if !bytes.Equal(data, contents) {
		t.Error("file contents did not match expected")
	}

	entries, err := os.ReadDir(directory)
	if err != nil {
		t.Fatal("unable to list directory:", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one directory entry after atomic write, found %d", len(entries))
	}
}

func TestWriteFileAtomicOverwrite(t *testing.T) {
	directory := t.TempDir()
	target := filepath.Join(directory, "file")

	if _, err := WriteFileAtomic(target, []byte("first"), 0600, nil); err != nil {
		t.Fatal("first atomic file write failed:", err)
	}
	if _, err := WriteFileAtomic(target, []byte("second"), 0600, nil); err != nil {
		t.Fatal("second atomic file write failed:", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatal("unable to read back file:", err)
	} else if string(data) != "second" {
		t.Errorf("file contents %q did not match expected %q", data, "second")
	}
}
