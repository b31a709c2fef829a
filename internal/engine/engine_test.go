package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlignBatchSize(t *testing.T) {
	assert.Equal(t, 64, AlignBatchSize(1, 64))
	assert.Equal(t, 64, AlignBatchSize(64, 64))
	assert.Equal(t, 128, AlignBatchSize(65, 64))
	assert.Equal(t, 0, AlignBatchSize(0, 64))
	assert.Equal(t, 17, AlignBatchSize(17, 0))
}

func TestAlignBatchSizeIdempotent(t *testing.T) {
	for _, n := range []int{0, 1, 7, 8, 63, 64, 65, 1000} {
		aligned := AlignBatchSize(n, 64)
		assert.Equal(t, aligned, AlignBatchSize(aligned, 64), "align(align(%d))", n)
	}
}

func TestMaxBatchSize(t *testing.T) {
	device := &Device{MaxBatch: 1000}
	assert.Equal(t, 960, MaxBatchSize(device, 64))
	assert.Equal(t, 1000, MaxBatchSize(device, 0))

	// the device cap aligned down is still a multiple
	assert.Equal(t, 0, MaxBatchSize(device, 64)%64)
}

func TestPreparePrefixes(t *testing.T) {
	got := PreparePrefixes([]string{" ABC ", "", "   ", "XYZ", "\tA\t"})
	assert.Equal(t, []string{"ABC", "XYZ", "A"}, got)

	assert.Empty(t, PreparePrefixes(nil))
	assert.Empty(t, PreparePrefixes([]string{"", " "}))
}

func TestNewContextSelectsBackend(t *testing.T) {
	ctx, err := NewContext(false)
	require.NoError(t, err)
	assert.Equal(t, DefaultName(), ctx.Device().Name)
	assert.Equal(t, ctx.Device().PreferredMultiple, ctx.PreferredMultiple())

	cpuCtx, err := NewContext(true)
	require.NoError(t, err)
	assert.Equal(t, "cpu", cpuCtx.Device().Name)
	assert.NotEqual(t, ctx.Device().Name, cpuCtx.Device().Name)
}

func TestRegistryBuiltins(t *testing.T) {
	for _, name := range []string{"pipeline", "cpu"} {
		device, ok := Get(name)
		require.True(t, ok, "expected %s backend to be registered", name)
		assert.Greater(t, device.PreferredMultiple, 0)
		assert.Greater(t, device.MaxBatch, 0)
		assert.Greater(t, device.DefaultBatch, 0)
	}
	assert.Contains(t, Names(), DefaultName())
}

func TestRegisterValidation(t *testing.T) {
	assert.ErrorIs(t, Register("", &Device{}), ErrBackendInvalid)
	assert.ErrorIs(t, Register("pipeline", &Device{}), ErrBackendRegistered)
}

func TestPrepareNormalizesAndValidates(t *testing.T) {
	ctx, err := NewContext(true)
	require.NoError(t, err)

	search, err := ctx.Prepare([]string{"ALGO", "", "  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"ALGO"}, search.Prefixes())

	_, err = ctx.Prepare([]string{"algo"})
	assert.ErrorIs(t, err, ErrInvalidPrefix)

	_, err = ctx.Prepare([]string{"A1"})
	assert.ErrorIs(t, err, ErrInvalidPrefix)

	long := make([]byte, 59)
	for i := range long {
		long[i] = 'A'
	}
	_, err = ctx.Prepare([]string{string(long)})
	assert.ErrorIs(t, err, ErrPrefixTooLong)
}
