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
	"testing"

	"hz.tools/rf"
	"hz.tools/sdr"
)

func tone(n int, freq, sampleRate float64) sdr.SamplesC64 {
	out := make(sdr.SamplesC64, n)
	for i := range out {
		s, c := math.Sincos(tau * freq * float64(i) / sampleRate)
		out[i] = complex64(complex(c, s))
	}
	return out
}

func rms(samples []float32) float64 {
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func TestOscillatorNext(t *testing.T) {
	o := NewOscillator(0.25)
	want := []complex128{complex(0, 1), complex(-1, 0), complex(0, -1), complex(1, 0)}
	for i, w := range want {
		if got := o.Next(); cmplx.Abs(got-w) > 1e-9 {
			t.Errorf("Next() #%d = %v, want %v", i, got, w)
		}
	}
}

func TestOscillatorMixToDC(t *testing.T) {
	o := NewOscillator(0.1)
	in := tone(64, 0.1, 1)
	first := o.Mix(complex128(in[0]))
	for i, s := range in {
		if i == 0 {
			continue
		}
		if got := o.Mix(complex128(s)); cmplx.Abs(got-first) > 1e-4 {
			t.Fatalf("Mix() #%d = %v, want %v", i, got, first)
		}
	}
}

func TestDecimationCount(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate uint
		audioRate  uint
	}{
		{"ratio 1", 48000, 48000},
		{"ratio 5", 240000, 48000},
		{"ratio 10", 480000, 48000},
		{"ratio 41", 1968000, 48000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(Config{
				SampleRate: tt.sampleRate,
				AudioRate:  tt.audioRate,
				Bandwidth:  3 * rf.KHz,
			})
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			r := int(tt.sampleRate / tt.audioRate)
			if d.Decimation() != r {
				t.Fatalf("Decimation() = %d, want %d", d.Decimation(), r)
			}

			const n = 100
			iq := tone(n*r, 1000, float64(tt.sampleRate))

			// Feed in uneven pieces; the counter must carry over.
			var out []float32
			for len(iq) > 0 {
				k := 7
				if k > len(iq) {
					k = len(iq)
				}
				out = d.Demodulate(out, iq[:k])
				iq = iq[k:]
			}
			if len(out) != n {
				t.Errorf("len(audio) = %d, want %d", len(out), n)
			}
		})
	}
}

func TestNearestDecimation(t *testing.T) {
	d, err := New(Config{SampleRate: 2000000, AudioRate: 48000, Bandwidth: 3 * rf.KHz})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.Decimation() != 42 {
		t.Errorf("Decimation() = %d, want 42", d.Decimation())
	}
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero sample rate", Config{AudioRate: 48000, Bandwidth: 1}, ErrSampleRate},
		{"zero audio rate", Config{SampleRate: 48000, Bandwidth: 1}, ErrSampleRate},
		{"audio faster than iq", Config{SampleRate: 8000, AudioRate: 48000, Bandwidth: 1}, ErrSampleRate},
		{"zero bandwidth", Config{SampleRate: 48000, AudioRate: 48000}, ErrBandwidth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err != tt.want {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPassband(t *testing.T) {
	const (
		sampleRate = 480000
		audioRate  = 48000
		offset     = 10000
	)

	for _, kind := range []FilterKind{Biquad, FIR} {
		t.Run(kind.String(), func(t *testing.T) {
			run := func(freq float64) []float32 {
				d, err := New(Config{
					SampleRate: sampleRate,
					AudioRate:  audioRate,
					Offset:     offset,
					Bandwidth:  3 * rf.KHz,
					Filter:     kind,
				})
				if err != nil {
					t.Fatalf("New() error = %v", err)
				}
				out := d.Demodulate(nil, tone(sampleRate/10, freq, sampleRate))
				// Skip the filter settling time.
				return out[200:]
			}

			in := run(offset)
			mean := 0.0
			for _, s := range in {
				mean += float64(s)
			}
			mean /= float64(len(in))
			if mean < 0.5 {
				t.Fatalf("in-band mean = %f, want a near-DC level above 0.5", mean)
			}
			for i, s := range in {
				if math.Abs(float64(s)-mean) > 0.01 {
					t.Fatalf("in-band sample %d = %f, want constant %f", i, s, mean)
				}
			}

			out := run(offset + 50000)
			if ratio := rms(out) / rms(in); ratio > 0.05 {
				t.Errorf("out-of-band / in-band = %f, want below 0.05", ratio)
			}
		})
	}
}

func TestSetBandwidthResetsFilter(t *testing.T) {
	d, err := New(Config{SampleRate: 48000, AudioRate: 48000, Bandwidth: 3 * rf.KHz})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	d.Demodulate(nil, tone(100, 0, 48000))
	d.SetBandwidth(6 * rf.KHz)

	// A fresh filter fed zeros must stay at zero.
	out := d.Demodulate(nil, make(sdr.SamplesC64, 10))
	for i, s := range out {
		if s != 0 {
			t.Fatalf("audio[%d] = %f after SetBandwidth, want 0", i, s)
		}
	}
	if d.Config().Bandwidth != 6*rf.KHz {
		t.Errorf("Bandwidth = %v, want 6KHz", d.Config().Bandwidth)
	}
}

func TestFIRUnityDC(t *testing.T) {
	f := NewFIRLowPass(31, 0.05)
	var y float64
	for i := 0; i < 100; i++ {
		y = f.Process(1)
	}
	if math.Abs(y-1) > 1e-9 {
		t.Errorf("FIR DC gain = %f, want 1", y)
	}
}

func TestParseFilterKind(t *testing.T) {
	for _, kind := range []FilterKind{Biquad, FIR} {
		got, err := ParseFilterKind(kind.String())
		if err != nil || got != kind {
			t.Errorf("ParseFilterKind(%q) = %v, %v", kind.String(), got, err)
		}
	}
	if _, err := ParseFilterKind("ssb"); err == nil {
		t.Errorf("ParseFilterKind(ssb) error = nil, want an error")
	}
}

// vim: foldmethod=marker
