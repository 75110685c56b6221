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
	"hz.tools/sdr"
)

// Reader will allow for the reading of demodulated audio samples from an
// IQ stream.
type Reader struct {
	reader sdr.Reader
	demod  *Demodulator

	iq    sdr.SamplesC64
	audio []float32
}

// NewReader will create a new Reader, to read audio from an IQ stream. The
// SampleRate of cfg is taken from the reader.
func NewReader(reader sdr.Reader, cfg Config) (*Reader, error) {
	switch reader.SampleFormat() {
	case sdr.SampleFormatC64:
	default:
		return nil, sdr.ErrSampleFormatMismatch
	}

	cfg.SampleRate = reader.SampleRate()
	demod, err := New(cfg)
	if err != nil {
		return nil, err
	}

	return &Reader{
		reader: reader,
		demod:  demod,
	}, nil
}

// Demodulator returns the Demodulator, to retune it between reads.
func (r *Reader) Demodulator() *Demodulator {
	return r.demod
}

// SampleRate will return the *audio* sample rate.
func (r *Reader) SampleRate() uint {
	return uint(r.demod.SampleRate())
}

// Read will (partially?) fill the buffer with audio samples.
func (r *Reader) Read(audio []float32) (int, error) {
	need := len(audio) * r.demod.Decimation()
	if cap(r.iq) < need {
		r.iq = make(sdr.SamplesC64, need)
	}
	buf := r.iq[:need]

	i, err := sdr.ReadFull(r.reader, buf)
	if err != nil {
		return 0, err
	}

	r.audio = r.demod.Demodulate(r.audio[:0], buf[:i])
	return copy(audio, r.audio), nil
}

// vim: foldmethod=marker
