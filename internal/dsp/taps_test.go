package dsp

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFloat32File(t *testing.T, vals []float32) string {
	t.Helper()
	raw := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[i*4:i*4+4], math.Float32bits(v))
	}
	path := filepath.Join(t.TempDir(), "taps.bin")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestLoadRealTaps(t *testing.T) {
	path := writeFloat32File(t, []float32{0.1, 0.2, 0.3})
	taps, err := LoadRealTaps(path)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, taps)
}

func TestLoadRealTapsRejectsTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0o644))
	_, err := LoadRealTaps(path)
	assert.Error(t, err)
}

func TestLoadComplexTaps(t *testing.T) {
	path := writeFloat32File(t, []float32{1, 2, 3, 4})
	taps, err := LoadComplexTaps(path)
	require.NoError(t, err)
	require.Len(t, taps, 2)
	assert.Equal(t, complex64(complex(1, 2)), taps[0])
	assert.Equal(t, complex64(complex(3, 4)), taps[1])
}

func TestLoadComplexTapsRejectsOddCount(t *testing.T) {
	path := writeFloat32File(t, []float32{1, 2, 3})
	_, err := LoadComplexTaps(path)
	assert.Error(t, err)
}

func TestLoadRealTapsMissingFile(t *testing.T) {
	_, err := LoadRealTaps(filepath.Join(t.TempDir(), "does-not-exist.bin"))
	assert.Error(t, err)
}
