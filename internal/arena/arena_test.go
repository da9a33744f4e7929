package arena

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLazyDirectory(t *testing.T) {
	parent := t.TempDir()
	a := New(parent)
	require.Empty(t, a.Dir())
	require.NoError(t, a.Close())

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestPathsAreUnique(t *testing.T) {
	a := New(t.TempDir())
	defer a.Close()

	seen := make(map[string]bool)
	for range 3 {
		for _, k := range []Key{{Partition, 1, 0}, {Partition, 1, 1}, {Run, 0, 0}} {
			p, err := a.Path(k)
			require.NoError(t, err)
			require.False(t, seen[p], "duplicate path %s", p)
			seen[p] = true
			require.Equal(t, a.Dir(), filepath.Dir(p))
		}
	}
}

func TestSeparateArenasDoNotCollide(t *testing.T) {
	parent := t.TempDir()
	a, b := New(parent), New(parent)
	defer a.Close()
	defer b.Close()

	pa, err := a.Path(Key{Run, 0, 0})
	require.NoError(t, err)
	pb, err := b.Path(Key{Run, 0, 0})
	require.NoError(t, err)
	require.NotEqual(t, pa, pb)
	require.NotEqual(t, a.Dir(), b.Dir())
}

func TestCreateReleaseClose(t *testing.T) {
	parent := t.TempDir()
	a := New(parent)

	w1, err := a.Create(Key{Run, 0, 0}, nil, 4096, 4096)
	require.NoError(t, err)
	require.NoError(t, w1.Append(1))
	require.NoError(t, w1.Close())

	w2, err := a.Create(Key{Run, 0, 1}, nil, 4096, 4096)
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	require.Equal(t, 2, a.Live())
	require.Equal(t, 2, a.Created())

	require.NoError(t, a.Release(w1.Path()))
	require.Equal(t, 1, a.Live())
	_, err = os.Stat(w1.Path())
	require.True(t, os.IsNotExist(err))

	require.Error(t, a.Release(w1.Path()), "double release must fail")

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	_, err = os.Stat(w2.Path())
	require.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(parent)
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = a.Path(Key{Run, 0, 2})
	require.Error(t, err)
}

func TestDetach(t *testing.T) {
	a := New(t.TempDir())
	w, err := a.Create(Key{Run, 1, 0}, nil, 4096, 4096)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	moved := filepath.Join(t.TempDir(), "moved.bin")
	require.NoError(t, os.Rename(w.Path(), moved))
	a.Detach(w.Path())
	require.Equal(t, 0, a.Live())
	require.NoError(t, a.Close())

	_, err = os.Stat(moved)
	require.NoError(t, err)
}

func TestUnwritableParent(t *testing.T) {
	a := New(filepath.Join(t.TempDir(), "does", "not", "exist"))
	_, err := a.Create(Key{Run, 0, 0}, nil, 4096, 4096)
	require.Error(t, err)
	require.NoError(t, a.Close())
}
