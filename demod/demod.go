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
	"errors"
	"math"

	"hz.tools/rf"
	"hz.tools/sdr"
)

var (
	// ErrSampleRate will be returned if the IQ sample rate is zero, or lower
	// than the audio rate.
	ErrSampleRate = errors.New("demod: invalid sample rate")

	// ErrBandwidth will be returned if the channel bandwidth is not positive.
	ErrBandwidth = errors.New("demod: invalid bandwidth")
)

// DefaultQ is the Butterworth resonance used for the Biquad filter.
const DefaultQ = 0.7071

// DefaultTaps is the FIR length used when none is configured.
const DefaultTaps = 63

// Config will define how the demodulator should decode audio from the iq
// data.
type Config struct {
	// SampleRate is the rate of the incoming IQ samples.
	SampleRate uint

	// AudioRate is the requested audio rate. If SampleRate is not an exact
	// multiple of AudioRate, the nearest integer ratio is used and the
	// effective audio rate will drift slightly.
	AudioRate uint

	// Offset of the suppressed carrier from the center of the IQ data.
	Offset rf.Hz

	// Bandwidth of the channel filter.
	Bandwidth rf.Hz

	// Filter picks the channel filter implementation.
	Filter FilterKind

	// Q of the Biquad filter. Zero means DefaultQ.
	Q float64

	// Taps of the FIR filter. Zero means DefaultTaps.
	Taps int
}

// Demodulator recovers single sideband audio from a complex IQ stream:
// mix down by the NCO, low-pass both channels, decimate, and keep the
// in-phase part.
//
// It is meant to be called incrementally over one continuous stream, the
// oscillator phase and filter memory carry over between calls.
type Demodulator struct {
	config     Config
	osc        *Oscillator
	filter     *ChannelFilter
	decimation int
	count      int
}

// New will create a Demodulator.
func New(cfg Config) (*Demodulator, error) {
	if cfg.SampleRate == 0 || cfg.AudioRate == 0 {
		return nil, ErrSampleRate
	}
	decimation := int(math.Round(float64(cfg.SampleRate) / float64(cfg.AudioRate)))
	if decimation < 1 {
		return nil, ErrSampleRate
	}
	if cfg.Bandwidth <= 0 {
		return nil, ErrBandwidth
	}
	if cfg.Q <= 0 {
		cfg.Q = DefaultQ
	}
	if cfg.Taps <= 0 {
		cfg.Taps = DefaultTaps
	}

	d := &Demodulator{
		config:     cfg,
		decimation: decimation,
		osc:        NewOscillator(float64(cfg.Offset) / float64(cfg.SampleRate)),
	}
	d.filter = d.newFilter()
	return d, nil
}

func (d *Demodulator) newFilter() *ChannelFilter {
	return NewChannelFilter(
		d.config.Filter,
		float64(d.config.Bandwidth)/float64(d.config.SampleRate),
		d.config.Q,
		d.config.Taps,
	)
}

// Config returns the current configuration.
func (d *Demodulator) Config() Config {
	return d.config
}

// Decimation returns the integer ratio between the IQ and audio rates.
func (d *Demodulator) Decimation() int {
	return d.decimation
}

// SampleRate will return the effective *audio* sample rate.
func (d *Demodulator) SampleRate() float64 {
	return float64(d.config.SampleRate) / float64(d.decimation)
}

// Retune moves the oscillator to a new offset. Filter memory is kept.
func (d *Demodulator) Retune(offset rf.Hz) {
	d.config.Offset = offset
	d.osc.SetFrequency(float64(offset) / float64(d.config.SampleRate))
}

// SetBandwidth will rebuild the channel filter for the new bandwidth,
// which also drops any filter memory. A non-positive bandwidth is ignored.
func (d *Demodulator) SetBandwidth(bw rf.Hz) {
	if bw <= 0 {
		return
	}
	d.config.Bandwidth = bw
	d.filter = d.newFilter()
}

// Reset will clear oscillator phase, filter memory and the decimation
// counter, for use between independent sessions.
func (d *Demodulator) Reset() {
	d.osc.Reset()
	d.filter.Reset()
	d.count = 0
}

// Demodulate will process iq and append the resulting audio samples to dst.
func (d *Demodulator) Demodulate(dst []float32, iq sdr.SamplesC64) []float32 {
	for _, sample := range iq {
		filtered := d.filter.Process(d.osc.Mix(complex128(sample)))
		if d.count == 0 {
			dst = append(dst, float32(real(filtered)))
		}
		d.count++
		if d.count == d.decimation {
			d.count = 0
		}
	}
	return dst
}

// vim: foldmethod=marker
