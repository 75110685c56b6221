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
	"math"
	"math/cmplx"
)

const tau = math.Pi * 2

// Oscillator is a numerically controlled oscillator producing a complex
// sinusoid at a frequency relative to the sample rate.
type Oscillator struct {
	phase float64
	step  float64
}

// NewOscillator will create an Oscillator running at the normalized
// frequency freq (cycles per sample).
func NewOscillator(freq float64) *Oscillator {
	o := &Oscillator{}
	o.SetFrequency(freq)
	return o
}

// SetFrequency will change the normalized frequency. The phase is kept, but
// there is no promise of phase continuity across the change.
func (o *Oscillator) SetFrequency(freq float64) {
	o.step = tau * freq
}

// Frequency returns the normalized frequency of the Oscillator.
func (o *Oscillator) Frequency() float64 {
	return o.step / tau
}

// Next advances the phase by one sample and returns cos + j·sin of the
// new phase.
func (o *Oscillator) Next() complex128 {
	o.phase = math.Mod(o.phase+o.step, tau)
	s, c := math.Sincos(o.phase)
	return complex(c, s)
}

// Mix will translate the sample down by the Oscillator frequency, by
// multiplying it against the conjugate of the next oscillator value.
func (o *Oscillator) Mix(sample complex128) complex128 {
	return sample * cmplx.Conj(o.Next())
}

// Reset will set the phase back to zero.
func (o *Oscillator) Reset() {
	o.phase = 0
}

// vim: foldmethod=marker
