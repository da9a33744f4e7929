//go:build linux

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

// dropCache asks the kernel to evict path from the page cache so the next
// sort reads it from disk.
func dropCache(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if err := unix.Fdatasync(int(f.Fd())); err != nil {
		return err
	}
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED)
}
