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

package tuner

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"hz.tools/rf"
)

// ErrConfig is returned for an unusable session Config.
var ErrConfig = errors.New("tuner: invalid session config")

// State of a Session.
type State int

const (
	// Idle holds no worker.
	Idle State = iota

	// Requesting waits for the backend to assign a worker.
	Requesting

	// Listening holds a worker; audio flows.
	Listening

	// Full means the backend had no worker to give. It reverts to Idle on
	// its own.
	Full

	// Error means the last request could not be sent.
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Requesting:
		return "REQUESTING"
	case Listening:
		return "LISTENING"
	case Full:
		return "FULL"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Config controls a Session.
type Config struct {
	// Frequency and Bandwidth are the initial tuning.
	Frequency rf.Hz
	Bandwidth rf.Hz

	// MinBandwidth and MaxBandwidth bound the bandwidth the UI may set.
	MinBandwidth rf.Hz
	MaxBandwidth rf.Hz

	// Volume is the initial volume, 0 to 100.
	Volume int

	// FullTimeout is how long the Full state lasts.
	FullTimeout time.Duration
}

// DefaultConfig returns the stock settings, tuned to
// frequency.
func DefaultConfig(frequency rf.Hz) Config {
	return Config{
		Frequency:    frequency,
		Bandwidth:    15 * rf.KHz,
		MinBandwidth: 500,
		MaxBandwidth: 200 * rf.KHz,
		Volume:       100,
		FullTimeout:  2 * time.Second,
	}
}

// Update describes what a Session call changed, for the caller to act on.
type Update struct {
	// Changed is set when the State changed.
	Changed bool

	// Retune is set when the tuned frequency changed.
	Retune bool

	// BandwidthChanged is set when the bandwidth changed.
	BandwidthChanged bool

	// VolumeChanged is set when the volume changed.
	VolumeChanged bool

	// StartAudio and StopAudio gate the audio path.
	StartAudio bool
	StopAudio  bool

	// Dropped is set when the event did not apply to the current state.
	Dropped bool

	Notice *Notice
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	State     State
	Worker    string
	Attempt   string
	Frequency rf.Hz
	Bandwidth rf.Hz
	Volume    int
}

type tuning struct {
	frequency rf.Hz
	bandwidth rf.Hz
}

// Session is the tuner session state machine. It does no I/O: commands are
// queued until Flush, and time only enters through Full and Expire. A
// Session is not safe for concurrent use.
type Session struct {
	config Config

	state     State
	worker    string
	attempt   string
	frequency rf.Hz
	bandwidth rf.Hz
	volume    int

	fullUntil time.Time
	cancelled bool

	outbox []Command
	sent   tuning
}

// NewSession creates an Idle Session.
func NewSession(cfg Config) (*Session, error) {
	if cfg.MinBandwidth <= 0 || cfg.MaxBandwidth < cfg.MinBandwidth {
		return nil, ErrConfig
	}
	if cfg.FullTimeout <= 0 {
		return nil, ErrConfig
	}
	s := &Session{
		config:    cfg,
		frequency: cfg.Frequency,
		volume:    clampVolume(cfg.Volume),
	}
	s.bandwidth = s.clampBandwidth(cfg.Bandwidth)
	return s, nil
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func (s *Session) clampBandwidth(bw rf.Hz) rf.Hz {
	if bw < s.config.MinBandwidth {
		return s.config.MinBandwidth
	}
	if bw > s.config.MaxBandwidth {
		return s.config.MaxBandwidth
	}
	return bw
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		State:     s.state,
		Worker:    s.worker,
		Attempt:   s.attempt,
		Frequency: s.frequency,
		Bandwidth: s.bandwidth,
		Volume:    s.volume,
	}
}

func (s *Session) setState(state State, u *Update) {
	if s.state != state {
		s.state = state
		u.Changed = true
	}
}

// Request asks for a worker at the current tuning. It only applies to Idle
// and Error.
func (s *Session) Request() Update {
	var u Update
	if s.state != Idle && s.state != Error {
		u.Dropped = true
		return u
	}
	s.attempt = uuid.NewString()
	s.cancelled = false
	s.outbox = append(s.outbox, RequestWorker{Frequency: s.frequency, Bandwidth: s.bandwidth})
	s.setState(Requesting, &u)
	return u
}

// Release gives up the worker. While Requesting, the request is cancelled:
// if it was already sent, a later assignment is released right away.
func (s *Session) Release() Update {
	var u Update
	switch s.state {
	case Listening:
		s.outbox = append(s.outbox, ReleaseWorker{})
		s.worker = ""
		u.StopAudio = true
		s.setState(Idle, &u)
	case Requesting:
		if !s.unqueueRequest() {
			s.cancelled = true
		}
		s.setState(Idle, &u)
	default:
		u.Dropped = true
	}
	return u
}

// unqueueRequest drops a RequestWorker that was never flushed.
func (s *Session) unqueueRequest() bool {
	for i, cmd := range s.outbox {
		if _, ok := cmd.(RequestWorker); ok {
			s.outbox = append(s.outbox[:i], s.outbox[i+1:]...)
			return true
		}
	}
	return false
}

// Toggle requests a worker when there is none, and releases it otherwise.
func (s *Session) Toggle() Update {
	switch s.state {
	case Idle, Error:
		return s.Request()
	case Requesting, Listening:
		return s.Release()
	default:
		return Update{Dropped: true}
	}
}

// Tune changes the local tuning, clamping the bandwidth. A Tune command is
// queued only while Listening, replacing one that is still queued.
func (s *Session) Tune(frequency, bandwidth rf.Hz) Update {
	var u Update
	bandwidth = s.clampBandwidth(bandwidth)
	if frequency != s.frequency {
		s.frequency = frequency
		u.Retune = true
	}
	if bandwidth != s.bandwidth {
		s.bandwidth = bandwidth
		u.BandwidthChanged = true
	}
	if s.state != Listening {
		return u
	}

	cmd := Tune{Frequency: s.frequency, Bandwidth: s.bandwidth}
	if n := len(s.outbox); n > 0 {
		if _, ok := s.outbox[n-1].(Tune); ok {
			s.outbox[n-1] = cmd
			return u
		}
	}
	s.outbox = append(s.outbox, cmd)
	return u
}

// SetVolume sets the volume, clamped to 0..100.
func (s *Session) SetVolume(volume int) Update {
	volume = clampVolume(volume)
	if volume == s.volume {
		return Update{}
	}
	s.volume = volume
	return Update{VolumeChanged: true}
}

// Assigned handles a worker assignment. A zero frequency means the backend
// kept the requested one; warning, if set, is surfaced as a Notice.
func (s *Session) Assigned(worker string, frequency rf.Hz, warning string) Update {
	var u Update
	if s.state != Requesting {
		if s.state == Idle && s.cancelled {
			s.cancelled = false
			s.outbox = append(s.outbox, ReleaseWorker{})
			return u
		}
		u.Dropped = true
		return u
	}

	s.worker = worker
	if frequency != 0 {
		s.sent.frequency = frequency
		if frequency != s.frequency {
			s.frequency = frequency
			u.Retune = true
		}
	}
	// The worker sits where the request put it; local tuning made while
	// waiting still has to reach it.
	if local := (tuning{frequency: s.frequency, bandwidth: s.bandwidth}); local != s.sent {
		s.outbox = append(s.outbox, Tune{Frequency: s.frequency, Bandwidth: s.bandwidth})
	}
	if warning != "" {
		u.Notice = &Notice{Severity: SeverityWarn, Summary: "Frequency adjusted", Detail: warning}
	}
	u.StartAudio = true
	s.setState(Listening, &u)
	return u
}

// Released handles the backend taking the worker back.
func (s *Session) Released() Update {
	var u Update
	if s.state != Listening {
		u.Dropped = true
		return u
	}
	s.worker = ""
	s.dropTunes()
	u.StopAudio = true
	s.setState(Idle, &u)
	return u
}

func (s *Session) dropTunes() {
	out := s.outbox[:0]
	for _, cmd := range s.outbox {
		if _, ok := cmd.(Tune); !ok {
			out = append(out, cmd)
		}
	}
	s.outbox = out
}

// Full handles a capacity refusal. The Session reverts to Idle once Expire
// is called at or after now plus the FullTimeout.
func (s *Session) Full(now time.Time) Update {
	var u Update
	switch s.state {
	case Requesting, Listening:
	default:
		s.cancelled = false
		u.Dropped = true
		return u
	}
	if s.state == Listening {
		u.StopAudio = true
	}
	s.worker = ""
	s.dropTunes()
	s.fullUntil = now.Add(s.config.FullTimeout)
	u.Notice = &Notice{
		Severity: SeverityWarn,
		Summary:  "Server Busy",
		Detail:   "No audio workers available.",
	}
	s.setState(Full, &u)
	return u
}

// Deadline returns when the Full state ends.
func (s *Session) Deadline() (time.Time, bool) {
	if s.state != Full {
		return time.Time{}, false
	}
	return s.fullUntil, true
}

// Expire moves Full back to Idle once its deadline has passed.
func (s *Session) Expire(now time.Time) Update {
	var u Update
	if s.state == Full && !now.Before(s.fullUntil) {
		s.setState(Idle, &u)
	}
	return u
}

// Correction applies a tuning pushed by the backend. Zero values mean
// unchanged. No command is sent back.
func (s *Session) Correction(frequency, bandwidth rf.Hz, message string) Update {
	var u Update
	if s.state != Listening {
		u.Dropped = true
		return u
	}
	if frequency != 0 && frequency != s.frequency {
		s.frequency = frequency
		u.Retune = true
	}
	if bandwidth != 0 {
		if bw := s.clampBandwidth(bandwidth); bw != s.bandwidth {
			s.bandwidth = bw
			u.BandwidthChanged = true
		}
	}
	s.sent = tuning{frequency: s.frequency, bandwidth: s.bandwidth}
	if message != "" {
		u.Notice = &Notice{Severity: SeverityInfo, Summary: "Tuning corrected", Detail: message}
	}
	return u
}

// Disconnected forces the Session to Idle and forgets anything queued.
func (s *Session) Disconnected() Update {
	var u Update
	if s.state == Listening {
		u.StopAudio = true
	}
	s.worker = ""
	s.cancelled = false
	s.outbox = nil
	s.setState(Idle, &u)
	return u
}

// SendFailed reports a command that could not be sent. A failed request
// puts the Session in Error.
func (s *Session) SendFailed(cmd Command, err error) Update {
	var u Update
	if _, ok := cmd.(RequestWorker); ok && s.state == Requesting {
		u.Notice = &Notice{Severity: SeverityError, Summary: "Request failed", Detail: err.Error()}
		s.setState(Error, &u)
	}
	return u
}

// Pending returns the number of queued commands.
func (s *Session) Pending() int {
	return len(s.outbox)
}

// Flush returns the queued commands in order and empties the queue. A Tune
// for the tuning the backend already has is left out.
func (s *Session) Flush() []Command {
	if len(s.outbox) == 0 {
		return nil
	}
	out := make([]Command, 0, len(s.outbox))
	for _, cmd := range s.outbox {
		switch c := cmd.(type) {
		case Tune:
			t := tuning{frequency: c.Frequency, bandwidth: c.Bandwidth}
			if t == s.sent {
				continue
			}
			s.sent = t
		case RequestWorker:
			s.sent = tuning{frequency: c.Frequency, bandwidth: c.Bandwidth}
		}
		out = append(out, cmd)
	}
	s.outbox = s.outbox[:0]
	return out
}

// vim: foldmethod=marker
