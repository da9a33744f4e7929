//go:build darwin

package blockio

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for an output whose final length is known.
// On macOS, uses fcntl F_PREALLOCATE for space reservation.
func fallocateFile(file *os.File, size int64) error {
	fst := unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Offset:  0,
		Length:  size,
	}
	if err := unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &fst); err != nil {
		return unix.Ftruncate(int(file.Fd()), size)
	}
	// F_PREALLOCATE only reserves space, it doesn't set the size
	return unix.Ftruncate(int(file.Fd()), size)
}
