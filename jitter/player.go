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
	"fmt"
	"time"
)

// Strategy selects how queued audio reaches the sink.
type Strategy int

const (
	// Scheduled holds chunks in the jitter Buffer and hands out fixed size
	// periods on each Pull.
	Scheduled Strategy = iota

	// Immediate passes each chunk through as soon as it arrives.
	Immediate
)

func (s Strategy) String() string {
	switch s {
	case Scheduled:
		return "scheduled"
	case Immediate:
		return "immediate"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses "scheduled" or "immediate".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "scheduled":
		return Scheduled, nil
	case "immediate":
		return Immediate, nil
	default:
		return Scheduled, fmt.Errorf("jitter: unknown playback strategy %q", s)
	}
}

// PlayerConfig controls a Player.
type PlayerConfig struct {
	Buffer   Config
	Strategy Strategy

	// SampleRate of the audio, used for the volume ramp.
	SampleRate float64

	// Period is the number of samples handed out per Pull.
	Period int

	// Ramp is the time constant of volume changes.
	Ramp time.Duration

	// Volume is the starting gain, in [0, 1].
	Volume float64
}

// Player is the audio sink side of the receiver: a jitter Buffer or a
// pass-through, followed by a volume ramp.
type Player struct {
	strategy Strategy
	buffer   *Buffer
	ramp     *Ramp
	period   int
}

// NewPlayer creates a Player.
func NewPlayer(cfg PlayerConfig) (*Player, error) {
	buffer, err := New(cfg.Buffer)
	if err != nil {
		return nil, err
	}
	if cfg.Period <= 0 || cfg.SampleRate <= 0 {
		return nil, ErrConfig
	}
	return &Player{
		strategy: cfg.Strategy,
		buffer:   buffer,
		ramp:     NewRamp(cfg.SampleRate, cfg.Ramp, cfg.Volume),
		period:   cfg.Period,
	}, nil
}

// Strategy returns the playback strategy.
func (p *Player) Strategy() Strategy {
	return p.strategy
}

// Buffer returns the jitter buffer.
func (p *Player) Buffer() *Buffer {
	return p.buffer
}

// Period returns the number of samples per Pull.
func (p *Player) Period() int {
	return p.period
}

// SetVolume sets the target gain in [0, 1].
func (p *Player) SetVolume(gain float64) {
	p.ramp.SetTarget(gain)
}

// Ingest takes ownership of chunk. With the Immediate strategy the chunk is
// returned scaled and ready to play; otherwise it is queued and nil is
// returned. dropped counts chunks lost to an overflow.
func (p *Player) Ingest(chunk []float32) (out []float32, dropped int) {
	if p.strategy == Immediate {
		if len(chunk) == 0 {
			return nil, 0
		}
		p.ramp.Apply(chunk)
		return chunk, 0
	}
	return nil, p.buffer.Push(chunk)
}

// Pull returns the next period of audio, silence while buffering. It
// returns nil with the Immediate strategy.
func (p *Player) Pull() (out []float32, underrun bool) {
	if p.strategy == Immediate {
		return nil, false
	}
	out = make([]float32, p.period)
	underrun = p.buffer.Pull(out)
	p.ramp.Apply(out)
	return out, underrun
}

// Stop drops any queued audio. Calling it again is a no-op.
func (p *Player) Stop() {
	p.buffer.Reset()
}

// vim: foldmethod=marker
