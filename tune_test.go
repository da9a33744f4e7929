package extsort

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	exterrors "github.com/tamirms/extsort/errors"
)

func tuneInput(t *testing.T) string {
	t.Helper()
	return writeInts(t, t.TempDir(), "sample.bin", randomInts(newTestRNG(t), 3000, 0))
}

func requireArgmin(t *testing.T, res *TuneResult) {
	t.Helper()
	require.NotEmpty(t, res.Measurements)
	for i, m := range res.Measurements {
		if i > 0 {
			require.Less(t, res.Measurements[i-1].Arity, m.Arity)
		}
		require.GreaterOrEqual(t, m.Cost(), res.Cost)
		if m.Cost() == res.Cost {
			require.GreaterOrEqual(t, m.Arity, res.Arity, "ties go to the smaller arity")
		}
	}
	require.GreaterOrEqual(t, res.Arity, res.Searched.Min)
	require.LessOrEqual(t, res.Arity, res.Searched.Max)
	require.Equal(t, len(res.Measurements), res.Evaluations)
}

func TestTuneExhaustive(t *testing.T) {
	in := tuneInput(t)
	tmp := t.TempDir()
	r := ArityRange{Min: 2, Max: 16}

	res, err := Tune(context.Background(), in, 64, 1024, r, WithTuneTempDir(tmp))
	require.NoError(t, err)
	requireArgmin(t, res)
	require.Equal(t, r.Len(), res.Evaluations)
	require.False(t, res.Clamped)
	require.Equal(t, Exhaustive, res.Strategy)
	requireEmptyDir(t, tmp)

	t.Run("Parallel", func(t *testing.T) {
		par, err := Tune(context.Background(), in, 64, 1024, r,
			WithTuneWorkers(4), WithTuneTempDir(tmp))
		require.NoError(t, err)
		require.Equal(t, res.Arity, par.Arity)
		require.Len(t, par.Measurements, len(res.Measurements))
		for i := range res.Measurements {
			require.Equal(t, res.Measurements[i].Reads, par.Measurements[i].Reads)
			require.Equal(t, res.Measurements[i].Writes, par.Measurements[i].Writes)
		}
		requireEmptyDir(t, tmp)
	})
}

func TestTuneSearchStrategies(t *testing.T) {
	in := tuneInput(t)
	r := ArityRange{Min: 2, Max: 30}
	for _, s := range []Strategy{BinarySearch, TernarySearch} {
		t.Run(s.String(), func(t *testing.T) {
			res, err := Tune(context.Background(), in, 64, 1024, r,
				WithStrategy(s), WithTuneTempDir(t.TempDir()))
			require.NoError(t, err)
			requireArgmin(t, res)
			require.Less(t, res.Evaluations, r.Len())
			require.Equal(t, s, res.Strategy)
		})
	}
}

func TestTuneQuickSortTrials(t *testing.T) {
	in := tuneInput(t)
	res, err := Tune(context.Background(), in, 64, 1024, ArityRange{Min: 2, Max: 6},
		WithTuneAlgorithm(AlgoQuickSort),
		WithTrials(3),
		WithSortOptions(WithSeed(11)),
		WithTuneTempDir(t.TempDir()),
	)
	require.NoError(t, err)
	requireArgmin(t, res)
	require.Equal(t, AlgoQuickSort, res.Algorithm)
	for _, m := range res.Measurements {
		require.Positive(t, m.Reads)
		require.Positive(t, m.Writes)
	}
}

func TestTuneClampsRange(t *testing.T) {
	in := tuneInput(t)
	// 64 bytes hold 8 elements: at most 7 input buffers.
	res, err := Tune(context.Background(), in, 64, 64, ArityRange{Min: 2, Max: 20},
		WithTuneTempDir(t.TempDir()))
	require.NoError(t, err)
	require.True(t, res.Clamped)
	require.Equal(t, ArityRange{Min: 2, Max: 20}, res.Requested)
	require.Equal(t, ArityRange{Min: 2, Max: 7}, res.Searched)
	require.Equal(t, 6, res.Evaluations)
	requireArgmin(t, res)
}

func TestTuneErrors(t *testing.T) {
	in := tuneInput(t)
	ctx := context.Background()

	_, err := Tune(ctx, in, 64, 64, ArityRange{Min: 10, Max: 20})
	require.ErrorIs(t, err, exterrors.ErrArityInfeasible)

	_, err = Tune(ctx, in, 64, 1024, ArityRange{Min: 1, Max: 4})
	require.ErrorIs(t, err, exterrors.ErrInvalidArityRange)

	_, err = Tune(ctx, in, 64, 1024, ArityRange{Min: 5, Max: 4})
	require.ErrorIs(t, err, exterrors.ErrInvalidArityRange)

	_, err = Tune(ctx, in, 64, 16, ArityRange{Min: 2, Max: 4})
	require.ErrorIs(t, err, exterrors.ErrMemoryBudgetTooSmall)

	_, err = Tune(ctx, in, 7, 1024, ArityRange{Min: 2, Max: 4})
	require.ErrorIs(t, err, exterrors.ErrInvalidBlockSize)

	_, err = Tune(ctx, in+".missing", 64, 1024, ArityRange{Min: 2, Max: 4})
	require.ErrorContains(t, err, "open test file")

	_, err = Tune(ctx, in, 64, 1024, ArityRange{Min: 2, Max: 4}, WithStrategy(Strategy(7)))
	require.ErrorIs(t, err, exterrors.ErrUnknownStrategy)
}

func TestTuneCancelled(t *testing.T) {
	in := tuneInput(t)
	for _, workers := range []int{1, 4} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Tune(ctx, in, 64, 1024, ArityRange{Min: 2, Max: 8},
			WithTuneWorkers(workers), WithTuneTempDir(t.TempDir()))
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestDefaultArityRange(t *testing.T) {
	require.Equal(t, ArityRange{Min: 2, Max: 512}, DefaultArityRange(4096))
	require.Equal(t, ArityRange{Min: 2, Max: 2}, DefaultArityRange(8))
	require.Equal(t, 511, ArityRange{Min: 2, Max: 512}.Len())
}
