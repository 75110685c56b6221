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
	"errors"
	"time"

	"go.uber.org/zap"
	"hz.tools/rf"
	"hz.tools/sdr/fft"

	"github.com/Biblink02/WebSDR-Transceiver/demod"
	"github.com/Biblink02/WebSDR-Transceiver/jitter"
	"github.com/Biblink02/WebSDR-Transceiver/tuner"
	"github.com/Biblink02/WebSDR-Transceiver/waterfall"
)

var (
	// ErrSampleRate is returned when the IQ or audio rate is missing.
	ErrSampleRate = errors.New("websdr: sample rate and audio rate must be set")

	// ErrPeriod is returned for a non-positive output period.
	ErrPeriod = errors.New("websdr: output period must be positive")

	// ErrQueueDepth is returned for a non-positive queue depth.
	ErrQueueDepth = errors.New("websdr: queue depth must be positive")

	// ErrStarted is returned by Start on a Receiver that was already
	// started or stopped.
	ErrStarted = errors.New("websdr: receiver already started")
)

// Config controls a Receiver.
type Config struct {
	// CenterFrequency is the frequency at DC of the IQ stream, and at the
	// middle of each SpectrumFrame.
	CenterFrequency rf.Hz

	// SampleRate is the rate of the IQ stream.
	SampleRate uint

	// AudioRate is the rate of audio chunks, received or demodulated.
	AudioRate uint

	// Tuner is the initial tuning and the session limits. A zero
	// Tuner.Frequency is replaced by the CenterFrequency.
	Tuner tuner.Config

	// Filter, Q and Taps select the channel filter of the local
	// demodulator.
	Filter demod.FilterKind
	Q      float64
	Taps   int

	// Playback selects how audio chunks reach the Audio channel.
	Playback jitter.Strategy

	// Jitter configures the jitter buffer of the Scheduled strategy.
	Jitter jitter.Config

	// OutputPeriod is the number of samples per audio chunk handed out by
	// the Scheduled strategy.
	OutputPeriod int

	// VolumeRamp is the time constant of volume changes.
	VolumeRamp time.Duration

	// Waterfall configures the spectrum engine. When both hardware bounds
	// are zero they are derived from the CenterFrequency and SampleRate.
	Waterfall waterfall.Config

	// AnalyzeIQ turns IQ frames into SpectrumFrames of FFTSize bins.
	AnalyzeIQ bool
	FFTSize   int

	// Planner runs the FFTs of the analyzer. nil uses a pure Go FFT.
	Planner fft.Planner

	// QueueDepth is the capacity of each channel between the contexts.
	QueueDepth int

	// Logger receives the receiver logs. nil discards them.
	Logger *zap.Logger
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	center := 739675 * rf.KHz
	return Config{
		CenterFrequency: center,
		SampleRate:      2000000,
		AudioRate:       48000,
		Tuner:           tuner.DefaultConfig(center),
		Filter:          demod.Biquad,
		Q:               demod.DefaultQ,
		Taps:            demod.DefaultTaps,
		Playback:        jitter.Scheduled,
		Jitter:          jitter.DefaultConfig(),
		OutputPeriod:    2048,
		VolumeRamp:      jitter.DefaultRamp,
		Waterfall:       waterfall.DefaultConfig(0, 0),
		AnalyzeIQ:       true,
		FFTSize:         1024,
		QueueDepth:      64,
	}
}

// Validate checks the settings that are not checked by the component
// constructors.
func (c Config) Validate() error {
	if c.SampleRate == 0 || c.AudioRate == 0 {
		return ErrSampleRate
	}
	if c.OutputPeriod <= 0 {
		return ErrPeriod
	}
	if c.QueueDepth <= 0 {
		return ErrQueueDepth
	}
	if c.AnalyzeIQ && c.FFTSize <= 0 {
		return waterfall.ErrFFTSize
	}
	return nil
}

// withDefaults fills in the values derived from the CenterFrequency.
func (c Config) withDefaults() Config {
	if c.Tuner.Frequency == 0 {
		c.Tuner.Frequency = c.CenterFrequency
	}
	if c.Waterfall.HardwareLow == 0 && c.Waterfall.HardwareHigh == 0 {
		half := rf.Hz(c.SampleRate) / 2
		c.Waterfall.HardwareLow = c.CenterFrequency - half
		c.Waterfall.HardwareHigh = c.CenterFrequency + half
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// outputInterval is how often the Scheduled strategy hands out a period.
func (c Config) outputInterval() time.Duration {
	return time.Duration(float64(c.OutputPeriod) / float64(c.AudioRate) * float64(time.Second))
}

// vim: foldmethod=marker
