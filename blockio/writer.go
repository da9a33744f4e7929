package blockio

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Writer appends elements to a file through a buffer of bufferSize bytes,
// emptying the buffer one block at a time.
type Writer struct {
	f         *os.File
	path      string
	counter   *Counter
	blockSize int
	buf       []byte
	n         int   // buffered bytes
	count     int64 // elements appended
	reserved  int64 // bytes preallocated
}

// CreateWriter creates (or truncates) path for block writes recorded on counter.
func CreateWriter(path string, counter *Counter, blockSize, bufferSize int) (*Writer, error) {
	if err := ValidateBlockSize(blockSize); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}
	bufferSize = bufferBytes(bufferSize)
	return &Writer{
		f:         f,
		path:      path,
		counter:   counter,
		blockSize: min(blockSize, bufferSize),
		buf:       make([]byte, bufferSize),
	}, nil
}

// Path returns the file path.
func (w *Writer) Path() string { return w.path }

// Count returns the number of elements appended so far.
func (w *Writer) Count() int64 { return w.count }

// Preallocate reserves space for the given number of elements. Close trims
// the file if fewer elements were written.
func (w *Writer) Preallocate(elements int64) error {
	if elements <= 0 {
		return nil
	}
	size := elements * ElementSize
	if err := fallocateFile(w.f, size); err != nil {
		return fmt.Errorf("preallocate %s: %w", w.path, err)
	}
	w.reserved = size
	return nil
}

// WriteBlock writes p, which must not exceed one block, and counts one write.
func (w *Writer) WriteBlock(p []byte) error {
	if len(p) > w.blockSize {
		return fmt.Errorf("write %s: %d bytes exceeds block size %d", w.path, len(p), w.blockSize)
	}
	_, err := w.f.Write(p)
	w.counter.addWrite()
	if err != nil {
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return nil
}

// Append buffers v, flushing first if the buffer is full.
func (w *Writer) Append(v int64) error {
	if w.n == len(w.buf) {
		if err := w.Flush(); err != nil {
			return err
		}
	}
	Put(w.buf[w.n:], 0, v)
	w.n += ElementSize
	w.count++
	return nil
}

// AppendSlice buffers every element of vs.
func (w *Writer) AppendSlice(vs []int64) error {
	for len(vs) > 0 {
		if w.n == len(w.buf) {
			if err := w.Flush(); err != nil {
				return err
			}
		}
		k := Encode(w.buf[w.n:], vs)
		w.n += k * ElementSize
		w.count += int64(k)
		vs = vs[k:]
	}
	return nil
}

// appendBytes buffers already-encoded elements.
func (w *Writer) appendBytes(p []byte) error {
	for len(p) > 0 {
		if w.n == len(w.buf) {
			if err := w.Flush(); err != nil {
				return err
			}
		}
		k := copy(w.buf[w.n:], p)
		w.n += k
		w.count += int64(k / ElementSize)
		p = p[k:]
	}
	return nil
}

// Flush writes the buffered bytes in block-sized chunks. A trailing partial
// block is written as is and counts as one write.
func (w *Writer) Flush() error {
	for off := 0; off < w.n; off += w.blockSize {
		end := min(off+w.blockSize, w.n)
		if err := w.WriteBlock(w.buf[off:end]); err != nil {
			return err
		}
	}
	w.n = 0
	return nil
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	err := w.Flush()
	if err == nil && w.reserved > w.count*ElementSize {
		err = w.f.Truncate(w.count * ElementSize)
	}
	return errors.Join(err, w.f.Close())
}

// Abort closes the file without flushing buffered elements.
func (w *Writer) Abort() error {
	return w.f.Close()
}

// Copy streams every remaining element of src into dst and returns the
// number of elements copied.
func Copy(dst *Writer, src *Reader) (int64, error) {
	var n int64
	for {
		if src.pos >= src.end {
			if err := src.refill(); err != nil {
				if err == io.EOF {
					return n, nil
				}
				return n, err
			}
		}
		chunk := src.buf[src.pos:src.end]
		if err := dst.appendBytes(chunk); err != nil {
			return n, err
		}
		src.pos = src.end
		n += int64(len(chunk) / ElementSize)
	}
}
