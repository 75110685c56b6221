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

package websdr

import (
	"encoding/binary"
	"errors"
	"math"

	"hz.tools/rf"
	"hz.tools/sdr"
)

// ErrFrameLength is returned when a binary frame does not hold a whole
// number of samples.
var ErrFrameLength = errors.New("websdr: frame length is not a whole number of samples")

// Event is an inbound message from the transport. The set of events is
// closed; a Receiver matches on the concrete type.
type Event interface {
	event()
}

// GraphicsFrame is one SpectrumFrame of magnitudes in dB.
type GraphicsFrame struct {
	Bins []float32
}

// AudioFrame is a chunk of demodulated PCM audio.
type AudioFrame struct {
	Samples []float32
}

// IQFrame is a block of raw baseband samples, to be analysed and
// demodulated locally.
type IQFrame struct {
	Samples sdr.SamplesC64
}

// WorkerAssigned is the backend granting a worker. A zero Frequency means
// the requested frequency was kept.
type WorkerAssigned struct {
	Worker    string
	Frequency rf.Hz
	Warning   string
}

// WorkerReleased is the backend taking the worker back.
type WorkerReleased struct{}

// ServerFull is the backend refusing a request for lack of workers.
type ServerFull struct{}

// TuningCorrection is a tuning pushed by the backend. Zero values mean
// unchanged.
type TuningCorrection struct {
	Frequency rf.Hz
	Bandwidth rf.Hz
	Message   string
}

// ConnectionChanged reports the transport connecting or going away.
type ConnectionChanged struct {
	Connected bool
}

// TransportError reports a transport that failed to connect.
type TransportError struct {
	Err error
}

func (GraphicsFrame) event()     {}
func (AudioFrame) event()        {}
func (IQFrame) event()           {}
func (WorkerAssigned) event()    {}
func (WorkerReleased) event()    {}
func (ServerFull) event()        {}
func (TuningCorrection) event()  {}
func (ConnectionChanged) event() {}
func (TransportError) event()    {}

// isFrame reports whether ev carries sample data for the DSP context.
func isFrame(ev Event) bool {
	switch ev.(type) {
	case GraphicsFrame, AudioFrame, IQFrame:
		return true
	default:
		return false
	}
}

// DecodeFloat32 decodes little-endian float32 values.
func DecodeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, ErrFrameLength
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// DecodeIQ decodes interleaved little-endian float32 I and Q values.
func DecodeIQ(b []byte) (sdr.SamplesC64, error) {
	if len(b)%8 != 0 {
		return nil, ErrFrameLength
	}
	out := make(sdr.SamplesC64, len(b)/8)
	for i := range out {
		re := math.Float32frombits(binary.LittleEndian.Uint32(b[i*8:]))
		im := math.Float32frombits(binary.LittleEndian.Uint32(b[i*8+4:]))
		out[i] = complex(re, im)
	}
	return out, nil
}

// EncodeFloat32 is the inverse of DecodeFloat32.
func EncodeFloat32(dst []byte, samples []float32) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(s))
	}
	return dst
}

// EncodeIQ is the inverse of DecodeIQ.
func EncodeIQ(dst []byte, samples sdr.SamplesC64) []byte {
	for _, s := range samples {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(real(s)))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(imag(s)))
	}
	return dst
}

// vim: foldmethod=marker
