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
	"errors"
)

// ErrConfig is returned for a Config that can not work, such as a retained
// tail larger than the queue.
var ErrConfig = errors.New("jitter: invalid buffer config")

// State is the playback state of a Buffer.
type State int

const (
	// Buffering withholds playback until enough chunks are queued.
	Buffering State = iota

	// Playing drains queued chunks into the output.
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "PLAYING"
	}
	return "BUFFERING"
}

// Config controls a Buffer.
type Config struct {
	// Threshold is the number of queued chunks needed to start playing.
	Threshold int

	// MaxQueue is the number of queued chunks past which older chunks are
	// dropped.
	MaxQueue int

	// Retain is the number of newest chunks kept when dropping.
	Retain int
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		Threshold: 4,
		MaxQueue:  50,
		Retain:    10,
	}
}

// Stats are counters kept by a Buffer.
type Stats struct {
	Underruns uint64
	Dropped   uint64
	Overflows uint64
}

// Buffer is a jitter buffer of PCM chunks. It owns the chunks pushed into
// it, and is not safe for concurrent use.
type Buffer struct {
	config Config
	queue  [][]float32
	offset int
	state  State
	stats  Stats
}

// New creates an empty Buffer in the Buffering state.
func New(cfg Config) (*Buffer, error) {
	if cfg.Threshold < 1 || cfg.MaxQueue < cfg.Threshold || cfg.Retain < 1 || cfg.Retain > cfg.MaxQueue {
		return nil, ErrConfig
	}
	return &Buffer{
		config: cfg,
		queue:  make([][]float32, 0, cfg.MaxQueue+1),
	}, nil
}

// State returns the playback state.
func (b *Buffer) State() State {
	return b.state
}

// Len returns the number of queued chunks, including a partly played one.
func (b *Buffer) Len() int {
	return len(b.queue)
}

// Stats returns the counters.
func (b *Buffer) Stats() Stats {
	return b.stats
}

// Push queues a chunk. If the queue grows past MaxQueue, all but the newest
// Retain chunks are dropped and playback goes back to buffering. The number
// of dropped chunks is returned.
func (b *Buffer) Push(chunk []float32) int {
	if len(chunk) == 0 {
		return 0
	}
	b.queue = append(b.queue, chunk)
	if len(b.queue) <= b.config.MaxQueue {
		return 0
	}

	dropped := len(b.queue) - b.config.Retain
	n := copy(b.queue, b.queue[dropped:])
	for i := n; i < len(b.queue); i++ {
		b.queue[i] = nil
	}
	b.queue = b.queue[:n]
	b.offset = 0
	b.state = Buffering

	b.stats.Overflows++
	b.stats.Dropped += uint64(dropped)
	return dropped
}

// Pull fills out with queued samples, in order. While buffering, or once
// the queue runs dry, the rest of out is zeroed. It returns true on an
// underrun, when playing ran out of samples.
func (b *Buffer) Pull(out []float32) bool {
	if b.state == Buffering {
		if len(b.queue) < b.config.Threshold {
			zero(out)
			return false
		}
		b.state = Playing
	}

	n := 0
	for len(b.queue) > 0 && n < len(out) {
		chunk := b.queue[0]
		copied := copy(out[n:], chunk[b.offset:])
		n += copied
		b.offset += copied

		if b.offset >= len(chunk) {
			b.queue[0] = nil
			b.queue = b.queue[1:]
			b.offset = 0
		}
	}

	if n < len(out) {
		zero(out[n:])
		if len(b.queue) == 0 {
			b.state = Buffering
			b.stats.Underruns++
			return true
		}
	}
	return false
}

// Reset drops everything queued and goes back to buffering.
func (b *Buffer) Reset() {
	for i := range b.queue {
		b.queue[i] = nil
	}
	b.queue = b.queue[:0]
	b.offset = 0
	b.state = Buffering
}

func zero(s []float32) {
	for i := range s {
		s[i] = 0
	}
}

// vim: foldmethod=marker
