//go:build linux

package verify

import "golang.org/x/sys/unix"

// adviseSequential asks the kernel to read ahead aggressively on a mapping
// that is scanned once from start to end. Errors are ignored.
func adviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}
