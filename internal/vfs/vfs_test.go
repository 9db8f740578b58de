package vfs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func TestLayeredPrefersMemory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "k.cpp")
	if err := os.WriteFile(path, []byte("disk"), 0o600); err != nil {
		t.Fatal(err)
	}

	l := NewLayered(OS())
	got, err := l.ReadFile(path)
	if err != nil || string(got) != "disk" {
		t.Fatalf("base read = %q, %v", got, err)
	}

	l.AddFile(path, []byte("memory"))
	got, err = l.ReadFile(path)
	if err != nil || string(got) != "memory" {
		t.Fatalf("overlay read = %q, %v", got, err)
	}

	// disk stays untouched
	onDisk, _ := os.ReadFile(path)
	if string(onDisk) != "disk" {
		t.Fatalf("overlay leaked to disk: %q", onDisk)
	}
}

func TestLayeredGeneratedFileNotOnDisk(t *testing.T) {
	dir := t.TempDir()
	ii := filepath.Join(dir, "k.cpp.ii")

	l := NewLayered(nil)
	l.AddFile(ii, []byte("# 1 \"k.cpp\"\n"))

	if !IsFile(l, ii) {
		t.Fatal("generated file should be visible through the overlay")
	}
	if _, err := os.Stat(ii); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("generated file must not be written to disk, stat err = %v", err)
	}
	info, err := l.Stat(ii)
	if err != nil || info.Size() != 12 || info.Name() != "k.cpp.ii" {
		t.Fatalf("Stat = %+v, %v", info, err)
	}
}

func TestMemFSMissingAndCopies(t *testing.T) {
	m := NewMem()
	if _, err := m.ReadFile("nope.h"); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}

	data := []byte("abc")
	m.AddFile("a.h", data)
	data[0] = 'X'
	got, _ := m.ReadFile("a.h")
	if string(got) != "abc" {
		t.Fatalf("MemFS must copy input, got %q", got)
	}
	got[1] = 'Y'
	again, _ := m.ReadFile("./a.h")
	if string(again) != "abc" {
		t.Fatalf("MemFS must copy output, got %q", again)
	}
	if names := m.Names(); len(names) != 1 || filepath.Base(names[0]) != "a.h" {
		t.Fatalf("Names = %v", names)
	}
}
