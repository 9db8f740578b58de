// Package vfs provides the read-only filesystem view the expansion stages
// work against: the operating system as the base layer and an in-memory
// layer on top for generated files such as the intermediate .ii output.
package vfs

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FS is the surface the preprocessor and pipeline read through.
type FS interface {
	ReadFile(name string) ([]byte, error)
	Stat(name string) (fs.FileInfo, error)
}

type osFS struct{}

// OS returns the host filesystem.
func OS() FS { return osFS{} }

func (osFS) ReadFile(name string) ([]byte, error) {
	// #nosec G304 -- include paths come from the command line
	return os.ReadFile(name)
}

func (osFS) Stat(name string) (fs.FileInfo, error) { return os.Stat(name) }

// Clean maps a path to the key used by in-memory layers.
func Clean(name string) string {
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	return filepath.ToSlash(filepath.Clean(name))
}

// MemFS holds files in memory. It is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	mtime time.Time
}

func NewMem() *MemFS {
	return &MemFS{files: make(map[string][]byte), mtime: time.Now()}
}

// AddFile stores a copy of data under name, replacing any previous content.
func (m *MemFS) AddFile(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[Clean(name)] = bytes.Clone(data)
}

func (m *MemFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[Clean(name)]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return bytes.Clone(data), nil
}

func (m *MemFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := Clean(name)
	data, ok := m.files[key]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: fs.ErrNotExist}
	}
	return memInfo{name: filepath.Base(key), size: int64(len(data)), mtime: m.mtime}, nil
}

// Names lists stored paths in sorted order.
func (m *MemFS) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.files))
	for name := range m.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

type memInfo struct {
	name  string
	size  int64
	mtime time.Time
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return i.size }
func (i memInfo) Mode() fs.FileMode  { return 0o444 }
func (i memInfo) ModTime() time.Time { return i.mtime }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }

// Layered overlays an in-memory layer on a base FS. Lookups consult the
// memory layer first. Writes only ever land in memory.
type Layered struct {
	base FS
	top  *MemFS
}

func NewLayered(base FS) *Layered {
	if base == nil {
		base = OS()
	}
	return &Layered{base: base, top: NewMem()}
}

// AddFile publishes an in-memory file visible to later reads.
func (l *Layered) AddFile(name string, data []byte) { l.top.AddFile(name, data) }

// Top exposes the in-memory layer.
func (l *Layered) Top() *MemFS { return l.top }

func (l *Layered) ReadFile(name string) ([]byte, error) {
	if data, err := l.top.ReadFile(name); err == nil {
		return data, nil
	}
	return l.base.ReadFile(name)
}

func (l *Layered) Stat(name string) (fs.FileInfo, error) {
	if info, err := l.top.Stat(name); err == nil {
		return info, nil
	}
	return l.base.Stat(name)
}

// IsFile reports whether name resolves to a regular file in fsys.
func IsFile(fsys FS, name string) bool {
	info, err := fsys.Stat(name)
	return err == nil && !info.IsDir()
}
