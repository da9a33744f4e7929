//go:build !linux && !darwin

package blockio

import "os"

// fallocateFile sets the file size. It may not reserve actual disk blocks
// on all filesystems.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
