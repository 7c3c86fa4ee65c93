package dsp

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// LoadRealTaps reads a flat little-endian float32 file into a real tap
// vector, used for the symmetric FIR/FFT kernels (spec "optional filter
// specification", SPEC_FULL.md §C.2).
func LoadRealTaps(path string) ([]float32, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dsp: reading tap file %s: %w", path, err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("dsp: tap file %s length %d is not a multiple of 4 bytes", path, len(raw))
	}
	n := len(raw) / 4
	taps := make([]float32, n)
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4 : i*4+4])
		taps[i] = math.Float32frombits(bits)
	}
	return taps, nil
}

// LoadComplexTaps reads a flat little-endian interleaved real/imaginary
// float32 file into a complex tap vector, used for the asymmetric FIR/FFT
// kernels.
func LoadComplexTaps(path string) ([]complex64, error) {
	flat, err := LoadRealTaps(path)
	if err != nil {
		return nil, err
	}
	if len(flat)%2 != 0 {
		return nil, fmt.Errorf("dsp: complex tap file %s has an odd float32 count", path)
	}
	n := len(flat) / 2
	taps := make([]complex64, n)
	for i := 0; i < n; i++ {
		taps[i] = complex(flat[2*i], flat[2*i+1])
	}
	return taps, nil
}
