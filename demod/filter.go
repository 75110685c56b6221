// {{{ Copyright (c) The WebSDR-Transceiver Authors, 2026
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

package demod

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
)

// FilterKind selects the channel filter implementation.
type FilterKind int

const (
	// Biquad is a second order IIR low-pass. It is cheap, and settles fast
	// enough for interactive tuning.
	Biquad FilterKind = iota

	// FIR is a windowed-sinc low-pass with a Hamming window, giving a more
	// controlled passband at the cost of a longer delay line.
	FIR
)

// String returns the name of the FilterKind.
func (k FilterKind) String() string {
	switch k {
	case Biquad:
		return "biquad"
	case FIR:
		return "fir"
	default:
		return fmt.Sprintf("FilterKind(%d)", int(k))
	}
}

// ParseFilterKind will parse "biquad" or "fir".
func ParseFilterKind(s string) (FilterKind, error) {
	switch s {
	case "biquad", "iir":
		return Biquad, nil
	case "fir":
		return FIR, nil
	default:
		return Biquad, fmt.Errorf("demod: unknown filter kind %q", s)
	}
}

// Filter is a stateful single channel filter.
type Filter interface {
	Process(float64) float64
	Reset()
}

// clampCutoff keeps a normalized cutoff inside the open interval (0, 0.5).
func clampCutoff(cutoff float64) float64 {
	return math.Min(math.Max(cutoff, 1e-6), 0.5-1e-6)
}

type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	x1, x2 float64
	y1, y2 float64
}

// NewBiquadLowPass will design a second order low-pass filter with the
// normalized cutoff frequency and resonance q (0.707 is Butterworth).
func NewBiquadLowPass(cutoff, q float64) Filter {
	if q <= 0 {
		q = math.Sqrt2 / 2
	}
	w0 := tau * clampCutoff(cutoff)
	sin, cos := math.Sincos(w0)
	alpha := sin / (2 * q)
	a0 := 1 + alpha

	return &biquad{
		b0: (1 - cos) / 2 / a0,
		b1: (1 - cos) / a0,
		b2: (1 - cos) / 2 / a0,
		a1: -2 * cos / a0,
		a2: (1 - alpha) / a0,
	}
}

func (f *biquad) Process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

func (f *biquad) Reset() {
	f.x1, f.x2, f.y1, f.y2 = 0, 0, 0, 0
}

type fir struct {
	taps []float64

	// line holds the history twice over, so that the window starting at pos
	// is always contiguous, newest sample first.
	line []float64
	pos  int
}

// NewFIRLowPass will design a windowed-sinc low-pass filter with the given
// number of taps and normalized cutoff frequency. The taps are scaled for
// unity gain at DC.
func NewFIRLowPass(length int, cutoff float64) Filter {
	if length < 1 {
		length = 1
	}
	cutoff = clampCutoff(cutoff)

	taps := window.Hamming(length)
	mid := float64(length-1) / 2
	for i := range taps {
		x := float64(i) - mid
		if x == 0 {
			taps[i] *= 2 * cutoff
			continue
		}
		taps[i] *= math.Sin(tau*cutoff*x) / (math.Pi * x)
	}
	if sum := floats.Sum(taps); sum != 0 {
		floats.Scale(1/sum, taps)
	}

	return &fir{
		taps: taps,
		line: make([]float64, length*2),
	}
}

func (f *fir) Process(x float64) float64 {
	n := len(f.taps)
	f.pos--
	if f.pos < 0 {
		f.pos = n - 1
	}
	f.line[f.pos] = x
	f.line[f.pos+n] = x
	return floats.Dot(f.taps, f.line[f.pos:f.pos+n])
}

func (f *fir) Reset() {
	for i := range f.line {
		f.line[i] = 0
	}
	f.pos = 0
}

// ChannelFilter is a pair of independent filters, one for the in-phase
// stream and one for the quadrature stream.
type ChannelFilter struct {
	i Filter
	q Filter
}

// NewChannelFilter will build the I and Q filters of the requested kind.
func NewChannelFilter(kind FilterKind, cutoff, q float64, taps int) *ChannelFilter {
	build := func() Filter {
		if kind == FIR {
			return NewFIRLowPass(taps, cutoff)
		}
		return NewBiquadLowPass(cutoff, q)
	}
	return &ChannelFilter{i: build(), q: build()}
}

// Process will filter one complex sample.
func (c *ChannelFilter) Process(sample complex128) complex128 {
	return complex(c.i.Process(real(sample)), c.q.Process(imag(sample)))
}

// Reset will clear the filter memory of both channels.
func (c *ChannelFilter) Reset() {
	c.i.Reset()
	c.q.Reset()
}

// vim: foldmethod=marker
