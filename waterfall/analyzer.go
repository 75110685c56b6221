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

package waterfall

import (
	"errors"
	"math"
	"math/cmplx"

	dspfft "github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/floats"
	"hz.tools/sdr"
	"hz.tools/sdr/fft"
)

// emptyBin is the level reported for bins with no energy at all.
const emptyBin = -150.0

// ErrFFTSize is returned for an Analyzer smaller than two bins.
var ErrFFTSize = errors.New("waterfall: fft size must be at least 2")

// Analyzer turns a stream of IQ samples into SpectrumFrames: Blackman
// window, FFT, DC moved to the center bin, magnitude in dB relative to a
// full scale tone.
type Analyzer struct {
	size      int
	window    []float64
	windowSum float64

	pending sdr.SamplesC64

	// Set when a planner was given.
	plan fft.Plan
	in   sdr.SamplesC64
	out  []complex64

	// Used otherwise.
	scratch []complex128
}

// NewAnalyzer creates an Analyzer producing frames of size bins. If planner
// is nil, a pure Go FFT is used.
func NewAnalyzer(size int, planner fft.Planner) (*Analyzer, error) {
	if size < 2 {
		return nil, ErrFFTSize
	}

	w := window.Blackman(size)
	a := &Analyzer{
		size:      size,
		window:    w,
		windowSum: floats.Sum(w),
		pending:   make(sdr.SamplesC64, 0, size),
	}

	if planner != nil {
		a.in = make(sdr.SamplesC64, size)
		a.out = make([]complex64, size)
		plan, err := planner(a.in, a.out, fft.Forward)
		if err != nil {
			return nil, err
		}
		a.plan = plan
	} else {
		a.scratch = make([]complex128, size)
	}
	return a, nil
}

// Size is the number of bins per frame.
func (a *Analyzer) Size() int {
	return a.size
}

// Analyze consumes iq and returns one frame per complete block of Size
// samples. Leftover samples are kept for the next call.
func (a *Analyzer) Analyze(iq sdr.SamplesC64) ([][]float32, error) {
	var frames [][]float32
	for len(iq) > 0 {
		n := a.size - len(a.pending)
		if n > len(iq) {
			n = len(iq)
		}
		a.pending = append(a.pending, iq[:n]...)
		iq = iq[n:]

		if len(a.pending) < a.size {
			break
		}
		frame, err := a.frame(a.pending)
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
		a.pending = a.pending[:0]
	}
	return frames, nil
}

func (a *Analyzer) frame(block sdr.SamplesC64) ([]float32, error) {
	mag := func(i int) float64 { return cmplx.Abs(a.scratch[i]) }

	if a.plan != nil {
		for i, s := range block {
			a.in[i] = s * complex(float32(a.window[i]), 0)
		}
		if err := a.plan.Transform(); err != nil {
			return nil, err
		}
		mag = func(i int) float64 { return cmplx.Abs(complex128(a.out[i])) }
	} else {
		for i, s := range block {
			a.scratch[i] = complex128(s) * complex(a.window[i], 0)
		}
		copy(a.scratch, dspfft.FFT(a.scratch))
	}

	frame := make([]float32, a.size)
	half := a.size / 2
	for i := range frame {
		m := mag((i + half) % a.size)
		if m <= 0 {
			frame[i] = emptyBin
			continue
		}
		frame[i] = float32(20 * math.Log10(m/a.windowSum))
	}
	return frame, nil
}

// Close releases the FFT plan, if any.
func (a *Analyzer) Close() error {
	if a.plan == nil {
		return nil
	}
	return a.plan.Close()
}

// vim: foldmethod=marker
