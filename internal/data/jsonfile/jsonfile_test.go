package jsonfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type payload struct {
	Name    string `json:"name"`
	Counter int    `json:"counter"`
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	in := payload{Name: "Acme", Counter: 7}
	if err := Write(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	var out payload
	if err := Read(path, &out); err != nil {
		t.Fatalf("read: %v", err)
	}
	if out != in {
		t.Fatalf("got %+v, want %+v", out, in)
	}
}

func TestReadMissingFile(t *testing.T) {
	var out payload
	err := Read(filepath.Join(t.TempDir(), "missing.json"), &out)
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v, want os.ErrNotExist", err)
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")

	for i := 0; i < 3; i++ {
		if err := Write(path, payload{Counter: i}); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want only data.json", len(entries))
	}
}
