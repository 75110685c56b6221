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
	"math"
)

const (
	// Peaks at or outside these bounds are taken to be garbage, and do not
	// move the ceiling.
	minValidPeak = -200.0
	maxValidPeak = 100.0

	// Only every peakStride-th bin is looked at when finding the peak.
	peakStride = 16
)

// Gain tracks the display ceiling of the waterfall. The ceiling chases the
// frame peak quickly on the way up (Attack) and slowly on the way down
// (Release); the floor sits Range dB below it.
type Gain struct {
	Ceiling    float64
	Range      float64
	Attack     float64
	Release    float64
	Brightness float64
}

// Update moves the ceiling toward peak. It returns false if the peak was
// out of range and ignored.
func (g *Gain) Update(peak float64) bool {
	if !(peak > minValidPeak && peak < maxValidPeak) {
		return false
	}
	if peak > g.Ceiling {
		g.Ceiling += (peak - g.Ceiling) * g.Attack
	} else {
		g.Ceiling -= (g.Ceiling - peak) * g.Release
	}
	return true
}

// Bounds returns the dB values mapped to the bottom and the top of the
// palette, with the brightness offset applied.
func (g Gain) Bounds() (floor, ceiling float64) {
	ceiling = g.Ceiling - g.Brightness
	return ceiling - g.Range, ceiling
}

// Normalize maps a dB value onto [0, 1].
func (g Gain) Normalize(db float64) float64 {
	floor, ceiling := g.Bounds()
	if ceiling <= floor {
		return 0
	}
	t := (db - floor) / (ceiling - floor)
	if !(t > 0) {
		return 0
	}
	return math.Min(t, 1)
}

// peak returns the largest of a subsample of the frame.
func peak(frame []float32) float64 {
	p := math.Inf(-1)
	for i := 0; i < len(frame); i += peakStride {
		if v := float64(frame[i]); v > p {
			p = v
		}
	}
	return p
}

// vim: foldmethod=marker
