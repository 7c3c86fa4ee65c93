// Package format implements the sample-format catalog (spec §6): the wire
// encoding of each I/Q pair and the decode/encode scaling rules.
package format

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Format identifies a wire sample format.
type Format int

const (
	CS8 Format = iota
	CU8
	CS16
	CU16
	CS32
	CU32
	CF32
	SC16Q11
)

// String implements fmt.Stringer.
func (f Format) String() string {
	switch f {
	case CS8:
		return "CS8"
	case CU8:
		return "CU8"
	case CS16:
		return "CS16"
	case CU16:
		return "CU16"
	case CS32:
		return "CS32"
	case CU32:
		return "CU32"
	case CF32:
		return "CF32"
	case SC16Q11:
		return "SC16Q11"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps a catalog name to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "CS8":
		return CS8, nil
	case "CU8":
		return CU8, nil
	case "CS16":
		return CS16, nil
	case "CU16":
		return CU16, nil
	case "CS32":
		return CS32, nil
	case "CU32":
		return CU32, nil
	case "CF32":
		return CF32, nil
	case "SC16Q11":
		return SC16Q11, nil
	default:
		return 0, fmt.Errorf("format: unknown sample format %q", name)
	}
}

// BytesPerPair returns the wire width of one I/Q pair, per the spec §6 table.
func (f Format) BytesPerPair() int {
	switch f {
	case CS8, CU8:
		return 2
	case CS16, CU16, SC16Q11:
		return 4
	case CS32, CU32, CF32:
		return 8
	default:
		panic("format: BytesPerPair of unknown format")
	}
}

// clampRound rounds v to the nearest integer and clamps to [lo, hi].
func clampRound(v, lo, hi float64) float64 {
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Decode converts raw bytes of n I/Q pairs in format f into complex64
// samples, applying gain post-decode (spec §6, "Gain is a scalar multiplier
// applied post-decode, pre-filter.").
func (f Format) Decode(raw []byte, n int, gain float32, dst []complex64) {
	width := f.BytesPerPair()
	for i := 0; i < n; i++ {
		b := raw[i*width : (i+1)*width]
		var re, im float64
		switch f {
		case CS8:
			re = float64(int8(b[0])) / 128
			im = float64(int8(b[1])) / 128
		case CU8:
			re = (float64(b[0]) - 127.5) / 128
			im = (float64(b[1]) - 127.5) / 128
		case CS16:
			re = float64(int16(binary.LittleEndian.Uint16(b[0:2]))) / 32768
			im = float64(int16(binary.LittleEndian.Uint16(b[2:4]))) / 32768
		case CU16:
			re = (float64(binary.LittleEndian.Uint16(b[0:2])) - 32767.5) / 32768
			im = (float64(binary.LittleEndian.Uint16(b[2:4])) - 32767.5) / 32768
		case CS32:
			re = float64(int32(binary.LittleEndian.Uint32(b[0:4]))) / 2147483648
			im = float64(int32(binary.LittleEndian.Uint32(b[4:8]))) / 2147483648
		case CU32:
			re = (float64(binary.LittleEndian.Uint32(b[0:4])) - 2147483647.5) / 2147483648
			im = (float64(binary.LittleEndian.Uint32(b[4:8])) - 2147483647.5) / 2147483648
		case CF32:
			re = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])))
			im = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])))
		case SC16Q11:
			re = float64(int16(binary.LittleEndian.Uint16(b[0:2]))) / 2048
			im = float64(int16(binary.LittleEndian.Uint16(b[2:4]))) / 2048
		default:
			panic("format: Decode of unknown format")
		}
		dst[i] = complex(float32(re)*gain, float32(im)*gain)
	}
}

// Encode converts n complex64 samples into raw bytes of format f, clamping
// per the spec §6 table.
func (f Format) Encode(src []complex64, n int, dst []byte) {
	width := f.BytesPerPair()
	for i := 0; i < n; i++ {
		re := float64(real(src[i]))
		im := float64(imag(src[i]))
		b := dst[i*width : (i+1)*width]
		switch f {
		case CS8:
			b[0] = byte(int8(clampRound(re*127, -128, 127)))
			b[1] = byte(int8(clampRound(im*127, -128, 127)))
		case CU8:
			b[0] = byte(clampRound(re*127+127.5, 0, 255))
			b[1] = byte(clampRound(im*127+127.5, 0, 255))
		case CS16:
			binary.LittleEndian.PutUint16(b[0:2], uint16(int16(clampRound(re*32767, -32768, 32767))))
			binary.LittleEndian.PutUint16(b[2:4], uint16(int16(clampRound(im*32767, -32768, 32767))))
		case CU16:
			binary.LittleEndian.PutUint16(b[0:2], uint16(clampRound(re*32767+32767.5, 0, 65535)))
			binary.LittleEndian.PutUint16(b[2:4], uint16(clampRound(im*32767+32767.5, 0, 65535)))
		case CS32:
			binary.LittleEndian.PutUint32(b[0:4], uint32(int32(clampRound(re*2147483647, -2147483648, 2147483647))))
			binary.LittleEndian.PutUint32(b[4:8], uint32(int32(clampRound(im*2147483647, -2147483648, 2147483647))))
		case CU32:
			binary.LittleEndian.PutUint32(b[0:4], uint32(clampRound(re*2147483647+2147483647.5, 0, 4294967295)))
			binary.LittleEndian.PutUint32(b[4:8], uint32(clampRound(im*2147483647+2147483647.5, 0, 4294967295)))
		case CF32:
			binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(float32(re)))
			binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(float32(im)))
		case SC16Q11:
			binary.LittleEndian.PutUint16(b[0:2], uint16(int16(clampRound(re*2048, -32768, 32767))))
			binary.LittleEndian.PutUint16(b[2:4], uint16(int16(clampRound(im*2048, -32768, 32767))))
		default:
			panic("format: Encode of unknown format")
		}
	}
}
