//go:build unix

package objfile

import (
	"fmt"
	"os"

	"fortio.org/safecast"
	"golang.org/x/sys/unix"
)

// mapFile maps path read-only. Empty files are returned as an empty slice.
func mapFile(path string) ([]byte, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		return nil, nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() == 0 {
		return []byte{}, func() error { return nil }, nil
	}
	size, err := safecast.Conv[int](info.Size())
	if err != nil {
		return nil, nil, err
	}
	fd, err := safecast.Conv[int](f.Fd())
	if err != nil {
		return nil, nil, err
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	return data, func() error { return unix.Munmap(data) }, nil
}
