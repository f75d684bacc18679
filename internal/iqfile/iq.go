package iqfile

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"
)

// DataFormat is the sample encoding of an IQ data file.
type DataFormat string

const (
	// FormatCF32 is interleaved little-endian float32 I/Q.
	FormatCF32 DataFormat = "cf32_le"
	// FormatCI16 is interleaved little-endian int16 I/Q scaled to full scale.
	FormatCI16 DataFormat = "ci16_le"
)

func (f DataFormat) String() string { return string(f) }

// ParseDataFormat converts a string to a DataFormat. An empty string selects FormatCF32.
func ParseDataFormat(s string) (DataFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cf32_le", "cf32", "":
		return FormatCF32, nil
	case "ci16_le", "ci16":
		return FormatCI16, nil
	default:
		return "", fmt.Errorf("iqfile: unsupported data format %q", s)
	}
}

func (f DataFormat) sampleSize() int {
	if f == FormatCI16 {
		return 4
	}
	return 8
}

// Decode reads every sample from r.
func Decode(r io.Reader, format DataFormat) ([]complex128, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("iqfile: read samples: %w", err)
	}
	size := format.sampleSize()
	if len(buf)%size != 0 {
		return nil, fmt.Errorf("iqfile: %d bytes is not a whole number of %s samples", len(buf), format)
	}

	out := make([]complex128, len(buf)/size)
	for n := range out {
		off := n * size
		switch format {
		case FormatCI16:
			i16 := int16(binary.LittleEndian.Uint16(buf[off : off+2]))
			q16 := int16(binary.LittleEndian.Uint16(buf[off+2 : off+4]))
			out[n] = complex(float64(i16)/math.MaxInt16, float64(q16)/math.MaxInt16)
		default:
			i := math.Float32frombits(binary.LittleEndian.Uint32(buf[off : off+4]))
			q := math.Float32frombits(binary.LittleEndian.Uint32(buf[off+4 : off+8]))
			out[n] = complex(float64(i), float64(q))
		}
	}
	return out, nil
}

// Encode writes samples to w. FormatCI16 clips each component to [-1, 1].
func Encode(w io.Writer, data []complex128, format DataFormat) error {
	bw := bufio.NewWriter(w)
	var sample [8]byte
	size := format.sampleSize()
	for _, v := range data {
		switch format {
		case FormatCI16:
			binary.LittleEndian.PutUint16(sample[0:2], uint16(toInt16(real(v))))
			binary.LittleEndian.PutUint16(sample[2:4], uint16(toInt16(imag(v))))
		default:
			binary.LittleEndian.PutUint32(sample[0:4], math.Float32bits(float32(real(v))))
			binary.LittleEndian.PutUint32(sample[4:8], math.Float32bits(float32(imag(v))))
		}
		if _, err := bw.Write(sample[:size]); err != nil {
			return fmt.Errorf("iqfile: write samples: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("iqfile: write samples: %w", err)
	}
	return nil
}

func toInt16(v float64) int16 {
	return int16(math.Max(math.Min(v, 1), -1) * math.MaxInt16)
}
