package blockio

import (
	"errors"
	"fmt"
	"io"
	"os"

	exterrors "github.com/tamirms/extsort/errors"
)

// Reader reads a file of elements one block at a time.
//
// The transfer unit is min(blockSize, bufferSize): a stream whose buffer is
// smaller than a block transfers one buffer per operation. Next and Fill
// consume elements through a buffer of bufferSize bytes, refilling it with
// as many block reads as it takes.
type Reader struct {
	f         *os.File
	path      string
	counter   *Counter
	blockSize int
	size      int64 // file size in bytes
	offset    int64 // bytes transferred from the file so far

	buf []byte
	pos int // next unread byte in buf
	end int // valid bytes in buf
}

// OpenReader opens path for block reads recorded on counter.
func OpenReader(path string, counter *Counter, blockSize, bufferSize int) (*Reader, error) {
	if err := ValidateBlockSize(blockSize); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		return nil, errors.Join(err, f.Close())
	}
	if st.Size()%ElementSize != 0 {
		primaryErr := fmt.Errorf("%w: %s has %d bytes", exterrors.ErrMisalignedInput, path, st.Size())
		return nil, errors.Join(primaryErr, f.Close())
	}
	bufferSize = bufferBytes(bufferSize)
	fadviseSequential(int(f.Fd()), 0, st.Size())
	return &Reader{
		f:         f,
		path:      path,
		counter:   counter,
		blockSize: min(blockSize, bufferSize),
		size:      st.Size(),
		buf:       make([]byte, bufferSize),
	}, nil
}

// Path returns the file path.
func (r *Reader) Path() string { return r.path }

// Len returns the number of elements in the file.
func (r *Reader) Len() int64 { return r.size / ElementSize }

// Blocks returns the number of transfer units in the file. The last one
// may be partial.
func (r *Reader) Blocks() int64 {
	bs := int64(r.blockSize)
	return (r.size + bs - 1) / bs
}

// BlockSize returns the transfer unit in bytes.
func (r *Reader) BlockSize() int { return r.blockSize }

// Remaining returns the number of elements not yet consumed.
func (r *Reader) Remaining() int64 {
	return (r.size - r.offset + int64(r.end-r.pos)) / ElementSize
}

// ReadBlock transfers the next block into p and returns the number of whole
// elements read. At most min(len(p), blockSize) bytes are used; when fewer
// bytes remain in the file, the unused tail of that window is zeroed.
// Each call that reaches the file counts exactly one read. Once the file is
// exhausted ReadBlock returns io.EOF without touching the file.
func (r *Reader) ReadBlock(p []byte) (int, error) {
	if r.offset >= r.size {
		return 0, io.EOF
	}
	n := min(len(p), r.blockSize)
	n -= n % ElementSize
	if n == 0 {
		return 0, io.ErrShortBuffer
	}
	want := int(min(int64(n), r.size-r.offset))
	got, err := io.ReadFull(r.f, p[:want])
	r.counter.addRead()
	r.offset += int64(got)
	if err != nil {
		return got / ElementSize, fmt.Errorf("read %s: %w", r.path, err)
	}
	clear(p[want:n])
	return want / ElementSize, nil
}

// ReadBlockAt transfers the block with the given index into p. It
// repositions the stream: buffered elements are discarded and subsequent
// reads continue after the block.
func (r *Reader) ReadBlockAt(index int64, p []byte) (int, error) {
	off := index * int64(r.blockSize)
	if index < 0 || off >= r.size {
		return 0, io.EOF
	}
	if _, err := r.f.Seek(off, io.SeekStart); err != nil {
		return 0, fmt.Errorf("seek %s: %w", r.path, err)
	}
	r.offset = off
	r.pos, r.end = 0, 0
	return r.ReadBlock(p)
}

// refill replaces the buffer contents with the next bytes of the file.
func (r *Reader) refill() error {
	r.pos, r.end = 0, 0
	for r.end < len(r.buf) && r.offset < r.size {
		n, err := r.ReadBlock(r.buf[r.end:])
		r.end += n * ElementSize
		if err != nil {
			return err
		}
	}
	if r.end == 0 {
		return io.EOF
	}
	return nil
}

// Next returns the next element, or io.EOF when the file is exhausted.
func (r *Reader) Next() (int64, error) {
	if r.pos >= r.end {
		if err := r.refill(); err != nil {
			return 0, err
		}
	}
	v := Get(r.buf[r.pos:], 0)
	r.pos += ElementSize
	return v, nil
}

// Fill decodes up to len(dst) elements into dst. It returns io.EOF only
// when no element could be read.
func (r *Reader) Fill(dst []int64) (int, error) {
	n := 0
	for n < len(dst) {
		if r.pos >= r.end {
			if err := r.refill(); err != nil {
				if err == io.EOF && n > 0 {
					return n, nil
				}
				return n, err
			}
		}
		k := Decode(dst[n:], r.buf[r.pos:r.end])
		r.pos += k * ElementSize
		n += k
	}
	return n, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
