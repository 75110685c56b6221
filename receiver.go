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
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"hz.tools/rf"

	"github.com/Biblink02/WebSDR-Transceiver/jitter"
	"github.com/Biblink02/WebSDR-Transceiver/tuner"
	"github.com/Biblink02/WebSDR-Transceiver/waterfall"
)

// Notice is a transient, user facing notification.
type Notice = tuner.Notice

// CommandSender delivers commands to the backend. Send may block; it is
// only called from the control context.
type CommandSender interface {
	Send(ctx context.Context, cmd tuner.Command) error
}

// ConnectionStatus is the state of the transport as last reported.
type ConnectionStatus int

const (
	// Connecting is the status until the transport reports in.
	Connecting ConnectionStatus = iota
	Connected
	Disconnected
	ConnectionError
)

func (c ConnectionStatus) String() string {
	switch c {
	case Connected:
		return "CONNECTED"
	case Disconnected:
		return "DISCONNECTED"
	case ConnectionError:
		return "ERROR"
	default:
		return "CONNECTING"
	}
}

// Status is a read-only snapshot of the Receiver.
type Status struct {
	Connection ConnectionStatus
	Session    tuner.Snapshot
	Jitter     jitter.Stats
	Waterfall  waterfall.Stats

	// Dropped counts frames that arrived while they could not be used,
	// including frames lost to a full queue.
	Dropped uint64
}

// Receiver runs the receiver pipeline: a control context owning the tuner
// Session, and a DSP context owning the demodulator, the waterfall and the
// audio player. The transport feeds it through Deliver, which never
// blocks.
type Receiver struct {
	config Config
	log    *zap.Logger
	sender CommandSender

	session *tuner.Session
	dsp     *dsp

	frames  chan Event
	control chan Event
	intents chan func(*tuner.Session) tuner.Update
	dspCtl  chan dspCommand

	bitmaps chan waterfall.Bitmap
	audio   chan []float32
	notices chan Notice
	updates chan Status

	mu      sync.Mutex
	status  Status
	started bool

	cancel   context.CancelFunc
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewReceiver creates a Receiver sending its commands through sender.
func NewReceiver(cfg Config, sender CommandSender) (*Receiver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	session, err := tuner.NewSession(cfg.Tuner)
	if err != nil {
		return nil, err
	}

	r := &Receiver{
		config:  cfg,
		log:     cfg.Logger,
		sender:  sender,
		session: session,

		frames:  make(chan Event, cfg.QueueDepth),
		control: make(chan Event, cfg.QueueDepth),
		intents: make(chan func(*tuner.Session) tuner.Update, cfg.QueueDepth),
		dspCtl:  make(chan dspCommand, cfg.QueueDepth),

		bitmaps: make(chan waterfall.Bitmap, cfg.QueueDepth),
		audio:   make(chan []float32, cfg.QueueDepth),
		notices: make(chan Notice, cfg.QueueDepth),
		updates: make(chan Status, 1),

		done: make(chan struct{}),
	}
	r.status.Session = session.Snapshot()

	r.dsp, err = newDSP(r, session.Snapshot())
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Start runs the control and DSP contexts until ctx is done or Stop is
// called.
func (r *Receiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return ErrStarted
	}
	select {
	case <-r.done:
		return ErrStarted
	default:
	}
	r.started = true

	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(2)
	go func() {
		defer r.wg.Done()
		r.runControl(ctx)
	}()
	go func() {
		defer r.wg.Done()
		r.dsp.run(ctx)
	}()
	r.log.Info("receiver started",
		zap.Stringer("center", r.config.CenterFrequency),
		zap.Uint("sample_rate", r.config.SampleRate),
		zap.Uint("audio_rate", r.config.AudioRate),
		zap.Stringer("playback", r.config.Playback),
	)
	return nil
}

// Stop shuts the pipeline down and closes the output channels. Calling it
// again is a no-op.
func (r *Receiver) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.mu.Lock()
		cancel := r.cancel
		r.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		r.wg.Wait()
		r.dsp.close()

		close(r.bitmaps)
		close(r.audio)
		close(r.notices)
		close(r.updates)
		r.log.Info("receiver stopped")
	})
}

// Deliver hands an inbound event to the pipeline. It never blocks: when
// the queue for the event is full, the event is dropped.
func (r *Receiver) Deliver(ev Event) {
	queue := r.control
	if isFrame(ev) {
		queue = r.frames
	}
	select {
	case queue <- ev:
	default:
		r.countDrop()
		if isFrame(ev) {
			r.log.Debug("frame queue full, dropping frame", zap.String("event", fmt.Sprintf("%T", ev)))
		} else {
			r.log.Warn("control queue full, dropping event", zap.String("event", fmt.Sprintf("%T", ev)))
		}
	}
}

// Frames returns the stream of waterfall bitmaps.
func (r *Receiver) Frames() <-chan waterfall.Bitmap {
	return r.bitmaps
}

// Audio returns the stream of playable audio chunks.
func (r *Receiver) Audio() <-chan []float32 {
	return r.audio
}

// Notices returns the stream of user facing notifications.
func (r *Receiver) Notices() <-chan Notice {
	return r.notices
}

// Updates returns a channel holding the latest Status whenever it changes.
// Intermediate values are skipped when the reader falls behind.
func (r *Receiver) Updates() <-chan Status {
	return r.updates
}

// Status returns the current Status.
func (r *Receiver) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// AudioRate returns the rate of the chunks on the Audio channel.
func (r *Receiver) AudioRate() uint {
	return r.config.AudioRate
}

// ToggleListening requests a worker, or releases the one held.
func (r *Receiver) ToggleListening() {
	r.intent(func(s *tuner.Session) tuner.Update {
		return s.Toggle()
	})
}

// SetVolume sets the volume, 0 to 100.
func (r *Receiver) SetVolume(volume int) {
	r.intent(func(s *tuner.Session) tuner.Update {
		return s.SetVolume(volume)
	})
}

// SetFrequency tunes to frequency, keeping the bandwidth.
func (r *Receiver) SetFrequency(frequency rf.Hz) {
	r.intent(func(s *tuner.Session) tuner.Update {
		return s.Tune(frequency, s.Snapshot().Bandwidth)
	})
}

// SetBandwidth changes the bandwidth, keeping the frequency.
func (r *Receiver) SetBandwidth(bandwidth rf.Hz) {
	r.intent(func(s *tuner.Session) tuner.Update {
		return s.Tune(s.Snapshot().Frequency, bandwidth)
	})
}

// SetView moves the visible window of the waterfall. A bitmap of the new
// window is emitted without waiting for the next frame.
func (r *Receiver) SetView(view waterfall.ViewWindow) {
	r.toDSP(setView{view: view})
}

// SetPalette switches to a builtin palette by name.
func (r *Receiver) SetPalette(name string) error {
	p, ok := waterfall.PaletteByName(name)
	if !ok {
		return fmt.Errorf("%w: unknown palette %q", waterfall.ErrPalette, name)
	}
	r.toDSP(setPalette{palette: p})
	return nil
}

// SetBrightness sets the waterfall brightness offset in dB.
func (r *Receiver) SetBrightness(db float64) {
	r.toDSP(setBrightness{db: db})
}

// SetHeight changes the number of rows of waterfall history.
func (r *Receiver) SetHeight(height int) error {
	if height <= 0 {
		return waterfall.ErrHeight
	}
	r.toDSP(setHeight{height: height})
	return nil
}

// intent queues fn to run against the Session in the control context.
func (r *Receiver) intent(fn func(*tuner.Session) tuner.Update) {
	select {
	case r.intents <- fn:
	case <-r.done:
	}
}

func (r *Receiver) toDSP(cmd dspCommand) {
	select {
	case r.dspCtl <- cmd:
	case <-r.done:
	}
}

func (r *Receiver) countDrop() {
	r.mu.Lock()
	r.status.Dropped++
	r.mu.Unlock()
}

// publish updates the Status under lock and offers it on Updates.
func (r *Receiver) publish(fn func(*Status)) {
	r.mu.Lock()
	fn(&r.status)
	status := r.status
	r.mu.Unlock()

	select {
	case <-r.done:
		return
	default:
	}
	select {
	case <-r.updates:
	default:
	}
	select {
	case r.updates <- status:
	default:
	}
}

func (r *Receiver) notify(n Notice) {
	select {
	case r.notices <- n:
	default:
		r.log.Debug("notice queue full", zap.String("summary", n.Summary))
	}
}

// vim: foldmethod=marker
