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

package jitter

import (
	"math"
	"time"
)

// DefaultRamp is the time constant of volume changes.
const DefaultRamp = 50 * time.Millisecond

// Ramp is a gain that approaches its target exponentially, sample by
// sample, so volume changes do not click.
type Ramp struct {
	current float64
	target  float64
	coeff   float64
}

// NewRamp creates a Ramp already settled at gain.
func NewRamp(sampleRate float64, timeConstant time.Duration, gain float64) *Ramp {
	coeff := 1.0
	if n := timeConstant.Seconds() * sampleRate; n > 0 {
		coeff = 1 - math.Exp(-1/n)
	}
	gain = clampGain(gain)
	return &Ramp{current: gain, target: gain, coeff: coeff}
}

func clampGain(g float64) float64 {
	return math.Min(math.Max(g, 0), 1)
}

// SetTarget sets the gain to approach, clamped to [0, 1].
func (r *Ramp) SetTarget(gain float64) {
	r.target = clampGain(gain)
}

// Target returns the gain being approached.
func (r *Ramp) Target() float64 {
	return r.target
}

// Value returns the gain applied to the last sample.
func (r *Ramp) Value() float64 {
	return r.current
}

// Apply scales samples in place.
func (r *Ramp) Apply(samples []float32) {
	for i := range samples {
		if r.current != r.target {
			r.current += (r.target - r.current) * r.coeff
			if math.Abs(r.target-r.current) < 1e-6 {
				r.current = r.target
			}
		}
		samples[i] = float32(float64(samples[i]) * r.current)
	}
}

// vim: foldmethod=marker
