// Package signal provides an API to manipulate digital signals. It allows to:
// 	- keep non-interleaved blocks of float64 samples
// 	- convert interleaved data to non-interleaved and back
//	- convert bit depth for int signals
package signal

import (
	"math"
	"time"
)

// Block is a non-interleaved float64 signal. First dimension is a channel,
// second is a sample.
type Block [][]float64

// Buffer is a block with its own sample rate. It's used to keep decoded
// audio files in memory.
type Buffer struct {
	Block
	SampleRate int
}

// Duration returns duration of the buffer.
func (b Buffer) Duration() time.Duration {
	return DurationOf(b.SampleRate, int64(b.Size()))
}

// InterInt is an interleaved int signal.
type InterInt struct {
	Data        []int
	NumChannels int
	BitDepth
}

// BitDepth contains values required for int-to-float and backward conversion.
type BitDepth int

const (
	// BitDepth8 is 8 bit depth.
	BitDepth8 = BitDepth(8)
	// BitDepth16 is 16 bit depth.
	BitDepth16 = BitDepth(16)
	// BitDepth24 is 24 bit depth.
	BitDepth24 = BitDepth(24)
	// BitDepth32 is 32 bit depth.
	BitDepth32 = BitDepth(32)
)

// devider is used when int to float conversion is done.
func (bitDepth BitDepth) devider() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8
	case BitDepth16:
		return math.MaxInt16
	case BitDepth24:
		return 1<<23 - 1
	case BitDepth32:
		return math.MaxInt32
	default:
		return 1
	}
}

// multiplier is used when float to int conversion is done.
func (bitDepth BitDepth) multiplier() int {
	switch bitDepth {
	case BitDepth8:
		return math.MaxInt8 - 1
	case BitDepth16:
		return math.MaxInt16 - 1
	case BitDepth24:
		return 1<<23 - 2
	case BitDepth32:
		return math.MaxInt32 - 1
	default:
		return 1
	}
}

// DurationOf returns time duration of passed samples for this sample rate.
func DurationOf(sampleRate int, samples int64) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(samples) / float64(sampleRate) * float64(time.Second))
}

// SamplesIn returns number of samples in duration for this sample rate.
// The result is rounded to the nearest sample.
func SamplesIn(sampleRate int, d time.Duration) int {
	return int(math.Round(d.Seconds() * float64(sampleRate)))
}

// Alloc returns a zeroed block of specified dimensions.
func Alloc(numChannels, size int) Block {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, size)
	}
	return result
}

// NumChannels returns number of channels in this block.
func (b Block) NumChannels() int {
	return len(b)
}

// Size returns number of samples in single channel of this block.
func (b Block) Size() int {
	if b.NumChannels() == 0 {
		return 0
	}
	return len(b[0])
}

// Zero sets all samples of the block to zero.
func (b Block) Zero() {
	for i := range b {
		clear(b[i])
	}
}

// CopyFrom copies samples of source into the block. Number of copied
// samples per channel is returned.
func (b Block) CopyFrom(source Block) int {
	var n int
	for i := range b {
		if i < len(source) {
			n = copy(b[i], source[i])
		}
	}
	return n
}

// Reslice assigns views of length n over backing into b. Both blocks must
// have the same number of channels and backing must be at least n long.
// It doesn't allocate.
func (b Block) Reslice(backing Block, n int) {
	for i := range b {
		b[i] = backing[i][:n]
	}
}

// Append source block to existing one. New block is returned if b is nil.
func (b Block) Append(source Block) Block {
	if b == nil {
		b = make([][]float64, source.NumChannels())
		for i := range b {
			b[i] = make([]float64, 0, source.Size())
		}
	}
	for i := range source {
		b[i] = append(b[i], source[i]...)
	}
	return b
}

// Slice creates a new copy of block from start position with defined length.
// If block doesn't have enough samples - shorten block is returned.
//
// if start >= block size, nil is returned
// if start + len >= block size, len is decreased till the end of slice
// if start < 0, nil is returned
func (b Block) Slice(start int, len int) Block {
	if b == nil || start >= b.Size() || start < 0 {
		return nil
	}
	end := start + len
	if end > b.Size() {
		end = b.Size()
	}
	result := make([][]float64, b.NumChannels())
	for i := range b {
		result[i] = append(result[i], b[i][start:end]...)
	}
	return result
}

// AsFloat64 converts interleaved int signal to float64 block.
func (ints InterInt) AsFloat64() Block {
	if ints.Data == nil || ints.NumChannels == 0 {
		return nil
	}
	floats := make([][]float64, ints.NumChannels)
	bufSize := int(math.Ceil(float64(len(ints.Data)) / float64(ints.NumChannels)))

	// determine the devider for bit depth conversion
	devider := float64(ints.BitDepth.devider())

	for i := range floats {
		floats[i] = make([]float64, bufSize)
		pos := 0
		for j := i; j < len(ints.Data); j = j + ints.NumChannels {
			floats[i][pos] = float64(ints.Data[j]) / devider
			pos++
		}
	}
	return floats
}

// AsInterInt converts block to interleaved int. Samples out of [-1, 1]
// range are clipped.
func (b Block) AsInterInt(bitDepth BitDepth) []int {
	ints := make([]int, b.Size()*b.NumChannels())
	b.PutInterInt(ints, bitDepth)
	return ints
}

// PutInterInt writes block into interleaved int slice. Samples out of
// [-1, 1] range are clipped. Number of written frames is returned.
func (b Block) PutInterInt(ints []int, bitDepth BitDepth) int {
	numChannels := b.NumChannels()
	if numChannels == 0 {
		return 0
	}
	multiplier := float64(bitDepth.multiplier())
	frames := min(b.Size(), len(ints)/numChannels)
	for j := range b {
		for i := 0; i < frames; i++ {
			ints[i*numChannels+j] = int(clip(b[j][i]) * multiplier)
		}
	}
	return frames
}

// PutInterFloat32 writes block into interleaved float32 slice. Number of
// written frames is returned.
func (b Block) PutInterFloat32(floats []float32) int {
	numChannels := b.NumChannels()
	if numChannels == 0 {
		return 0
	}
	frames := min(b.Size(), len(floats)/numChannels)
	for j := range b {
		for i := 0; i < frames; i++ {
			floats[i*numChannels+j] = float32(b[j][i])
		}
	}
	return frames
}

func clip(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
