// Package arena owns the temporary files of one sort invocation.
//
// Every run and partition file is created through an Arena and tracked in
// its live set until released. Paths are derived from a Key, the recursion
// depth (or merge pass) and index of the file, plus a per-arena sequence
// number, inside a scratch directory that is unique to the invocation. The
// scratch directory is created lazily, so a sort that never spills creates
// nothing on disk.
package arena

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tamirms/extsort/blockio"
)

// Kind distinguishes run files from partition files.
type Kind string

const (
	Run       Kind = "run"
	Partition Kind = "part"
)

// Key identifies a temp file within one invocation.
type Key struct {
	Kind  Kind
	Depth int // merge pass for runs, recursion depth for partitions
	Index int
}

// Arena tracks the temp files of one sort invocation.
type Arena struct {
	parent  string
	dir     string
	seq     uint64
	live    map[string]Key
	created int
	closed  bool
}

// New returns an Arena whose scratch directory will be created under
// parent (os.TempDir() if empty) on first use.
func New(parent string) *Arena {
	if parent == "" {
		parent = os.TempDir()
	}
	return &Arena{
		parent: parent,
		live:   make(map[string]Key),
	}
}

// Dir returns the scratch directory, or "" if nothing was created yet.
func (a *Arena) Dir() string { return a.dir }

// Created returns the number of temp files created over the arena's life.
func (a *Arena) Created() int { return a.created }

// Live returns the number of temp files created and not yet released.
func (a *Arena) Live() int { return len(a.live) }

// LivePaths returns the live temp files in lexical order.
func (a *Arena) LivePaths() []string {
	paths := make([]string, 0, len(a.live))
	for p := range a.live {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (a *Arena) ensureDir() error {
	if a.dir != "" {
		return nil
	}
	dir, err := os.MkdirTemp(a.parent, "extsort-*")
	if err != nil {
		return fmt.Errorf("create scratch directory in %s: %w", a.parent, err)
	}
	a.dir = dir
	return nil
}

// Path reserves a unique path for k without creating the file.
func (a *Arena) Path(k Key) (string, error) {
	if a.closed {
		return "", errors.New("arena: closed")
	}
	if err := a.ensureDir(); err != nil {
		return "", err
	}
	a.seq++
	name := fmt.Sprintf("%s-d%03d-i%05d-s%06d.bin", k.Kind, k.Depth, k.Index, a.seq)
	return filepath.Join(a.dir, name), nil
}

// Create creates a temp file for k and returns a writer on it. The file is
// live until Release or Detach.
func (a *Arena) Create(k Key, counter *blockio.Counter, blockSize, bufferSize int) (*blockio.Writer, error) {
	path, err := a.Path(k)
	if err != nil {
		return nil, err
	}
	w, err := blockio.CreateWriter(path, counter, blockSize, bufferSize)
	if err != nil {
		return nil, fmt.Errorf("create %s file: %w", k.Kind, err)
	}
	a.live[path] = k
	a.created++
	return w, nil
}

// Release deletes a live temp file.
func (a *Arena) Release(path string) error {
	if _, ok := a.live[path]; !ok {
		return fmt.Errorf("arena: %s is not a live temp file", path)
	}
	delete(a.live, path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file: %w", err)
	}
	return nil
}

// Detach forgets a live temp file without deleting it, after it has been
// moved out of the arena.
func (a *Arena) Detach(path string) {
	delete(a.live, path)
}

// Close removes every live temp file and the scratch directory. Idempotent:
// safe to call on both error paths and normal completion.
func (a *Arena) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	var errs []error
	for _, p := range a.LivePaths() {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove temp file: %w", err))
		}
	}
	a.live = nil

	if a.dir != "" {
		if err := os.RemoveAll(a.dir); err != nil {
			errs = append(errs, fmt.Errorf("remove scratch directory: %w", err))
		}
		a.dir = ""
	}
	return errors.Join(errs...)
}
