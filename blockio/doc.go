// Package blockio implements the block I/O layer of the sorting engine.
//
// Files are flat arrays of little-endian int64 elements with no header.
// All transfers happen in blocks, and every block transfer is recorded on an
// explicit Counter owned by the caller. The counter counts block operations,
// not bytes: a short read at end of file or a partial final block written by
// Flush each count as one operation.
package blockio
