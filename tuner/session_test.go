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
	"testing"
	"time"

	"hz.tools/rf"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(DefaultConfig(7 * rf.MHz))
	if err != nil {
		t.Fatalf("NewSession() error = %v", err)
	}
	return s
}

func names(cmds []Command) map[string]int {
	out := map[string]int{}
	for _, cmd := range cmds {
		out[cmd.Name()]++
	}
	return out
}

func TestRequestTuneRelease(t *testing.T) {
	s := newSession(t)

	var sent []Command
	s.Request()
	sent = append(sent, s.Flush()...)
	s.Assigned("w1", 0, "")
	s.Tune(7100*rf.KHz, 10*rf.KHz)
	s.Tune(7200*rf.KHz, 12*rf.KHz)
	s.Release()
	sent = append(sent, s.Flush()...)

	got := names(sent)
	for _, name := range []string{"request_worker", "tune", "release_worker"} {
		if got[name] != 1 {
			t.Errorf("%s sent %d times, want 1", name, got[name])
		}
	}
	if len(sent) != 3 {
		t.Fatalf("sent = %v, want 3 commands", sent)
	}
	tune, ok := sent[1].(Tune)
	if !ok {
		t.Fatalf("sent[1] = %v, want a Tune", sent[1])
	}
	if tune.Frequency != 7200*rf.KHz || tune.Bandwidth != 12*rf.KHz {
		t.Errorf("tune = %v, want the latest values", tune)
	}
	if s.State() != Idle {
		t.Errorf("State() = %v, want IDLE", s.State())
	}
}

func TestTuneSuppressedWhenNotListening(t *testing.T) {
	s := newSession(t)
	u := s.Tune(7100*rf.KHz, 10*rf.KHz)
	if !u.Retune || !u.BandwidthChanged {
		t.Errorf("Tune() = %+v, want the local tuning to change", u)
	}
	if cmds := s.Flush(); len(cmds) != 0 {
		t.Errorf("Flush() = %v, want nothing", cmds)
	}

	// The request carries the local tuning.
	s.Request()
	cmds := s.Flush()
	want := RequestWorker{Frequency: 7100 * rf.KHz, Bandwidth: 10 * rf.KHz}
	if len(cmds) != 1 || cmds[0] != want {
		t.Errorf("Flush() = %v, want [%v]", cmds, want)
	}
}

func TestTuneBackToSentValue(t *testing.T) {
	s := newSession(t)
	s.Request()
	s.Flush()
	s.Assigned("w1", 0, "")
	snap := s.Snapshot()

	// Drag away and back before the flush: nothing to send.
	s.Tune(snap.Frequency+rf.KHz, snap.Bandwidth)
	s.Tune(snap.Frequency, snap.Bandwidth)
	if cmds := s.Flush(); len(cmds) != 0 {
		t.Errorf("Flush() = %v, want nothing", cmds)
	}
}

func TestAssignedCorrection(t *testing.T) {
	s := newSession(t)
	s.Request()
	u := s.Assigned("w2", 7050*rf.KHz, "frequency out of range")
	if !u.Changed || !u.StartAudio || !u.Retune {
		t.Errorf("Assigned() = %+v", u)
	}
	if u.Notice == nil || u.Notice.Severity != SeverityWarn {
		t.Errorf("Assigned() notice = %v, want a warning", u.Notice)
	}
	snap := s.Snapshot()
	if snap.State != Listening || snap.Worker != "w2" || snap.Frequency != 7050*rf.KHz {
		t.Errorf("Snapshot() = %+v", snap)
	}
	if snap.Attempt == "" {
		t.Errorf("Snapshot().Attempt is empty")
	}
}

func TestTuneWhileRequesting(t *testing.T) {
	s := newSession(t)
	s.Request()
	s.Flush()

	s.Tune(7100*rf.KHz, 15*rf.KHz)
	s.Assigned("w1", 0, "")
	if f := s.Snapshot().Frequency; f != 7100*rf.KHz {
		t.Errorf("Frequency = %v, want 7.1MHz", f)
	}

	cmds := s.Flush()
	want := Tune{Frequency: 7100 * rf.KHz, Bandwidth: 15 * rf.KHz}
	if len(cmds) != 1 || cmds[0] != want {
		t.Fatalf("Flush() = %v, want [%v]", cmds, want)
	}

	// Tuning to the same place again sends nothing more.
	s.Tune(7100*rf.KHz, 15*rf.KHz)
	if cmds := s.Flush(); len(cmds) != 0 {
		t.Errorf("Flush() = %v, want nothing", cmds)
	}
}

func TestAssignedFrequencyWins(t *testing.T) {
	s := newSession(t)
	s.Request()
	s.Flush()

	s.Tune(7100*rf.KHz, 15*rf.KHz)
	s.Assigned("w1", 7050*rf.KHz, "")
	if f := s.Snapshot().Frequency; f != 7050*rf.KHz {
		t.Errorf("Frequency = %v, want 7.05MHz", f)
	}
	if cmds := s.Flush(); len(cmds) != 0 {
		t.Errorf("Flush() = %v, want nothing", cmds)
	}
}

func TestServerCorrection(t *testing.T) {
	s := newSession(t)
	s.Request()
	s.Flush()
	s.Assigned("w1", 0, "")

	u := s.Correction(7300*rf.KHz, 20*rf.KHz, "bandwidth limited")
	if !u.Retune || !u.BandwidthChanged || u.Changed || u.StopAudio {
		t.Errorf("Correction() = %+v", u)
	}
	if u.Notice == nil || u.Notice.Detail != "bandwidth limited" {
		t.Errorf("Correction() notice = %v", u.Notice)
	}
	if cmds := s.Flush(); len(cmds) != 0 {
		t.Errorf("Flush() = %v, want no command for a correction", cmds)
	}

	// A bandwidth-only correction keeps the frequency.
	u = s.Correction(0, 8*rf.KHz, "")
	if u.Retune || !u.BandwidthChanged || u.Notice != nil {
		t.Errorf("Correction() = %+v", u)
	}
	if f := s.Snapshot().Frequency; f != 7300*rf.KHz {
		t.Errorf("Frequency = %v, want 7.3MHz", f)
	}
}

func TestCorrectionDroppedWhenIdle(t *testing.T) {
	s := newSession(t)
	if u := s.Correction(7300*rf.KHz, 0, ""); !u.Dropped {
		t.Errorf("Correction() = %+v, want dropped", u)
	}
	if f := s.Snapshot().Frequency; f != 7*rf.MHz {
		t.Errorf("Frequency = %v, want unchanged", f)
	}
}

func TestFullReverts(t *testing.T) {
	s := newSession(t)
	s.Request()
	now := time.Unix(1000, 0)
	u := s.Full(now)
	if s.State() != Full || u.Notice == nil || u.Notice.Summary != "Server Busy" {
		t.Fatalf("Full() = %+v, State() = %v", u, s.State())
	}

	deadline, ok := s.Deadline()
	if !ok || !deadline.Equal(now.Add(2*time.Second)) {
		t.Errorf("Deadline() = %v, %v", deadline, ok)
	}
	if u := s.Expire(now.Add(time.Second)); u.Changed {
		t.Errorf("Expire() before the deadline changed state")
	}
	if u := s.Expire(deadline); !u.Changed || s.State() != Idle {
		t.Errorf("Expire() = %+v, State() = %v, want IDLE", u, s.State())
	}
	if _, ok := s.Deadline(); ok {
		t.Errorf("Deadline() ok after expiry")
	}
}

func TestFullWhileListeningStopsAudio(t *testing.T) {
	s := newSession(t)
	s.Request()
	s.Assigned("w1", 0, "")
	if u := s.Full(time.Now()); !u.StopAudio {
		t.Errorf("Full() = %+v, want StopAudio", u)
	}
	if s.Snapshot().Worker != "" {
		t.Errorf("worker kept after Full")
	}
}

func TestReleased(t *testing.T) {
	s := newSession(t)
	if u := s.Released(); !u.Dropped {
		t.Errorf("Released() while idle = %+v, want dropped", u)
	}
	s.Request()
	s.Assigned("w1", 0, "")
	if u := s.Released(); !u.StopAudio || !u.Changed || s.State() != Idle {
		t.Errorf("Released() = %+v, State() = %v", u, s.State())
	}
}

func TestCancelRequest(t *testing.T) {
	t.Run("before flush", func(t *testing.T) {
		s := newSession(t)
		s.Toggle()
		s.Toggle()
		if cmds := s.Flush(); len(cmds) != 0 {
			t.Errorf("Flush() = %v, want nothing", cmds)
		}
		if u := s.Assigned("w1", 0, ""); !u.Dropped {
			t.Errorf("Assigned() = %+v, want dropped", u)
		}
	})

	t.Run("after flush", func(t *testing.T) {
		s := newSession(t)
		s.Toggle()
		s.Flush()
		s.Toggle()
		if s.State() != Idle {
			t.Fatalf("State() = %v, want IDLE", s.State())
		}
		s.Assigned("w1", 0, "")
		cmds := s.Flush()
		if len(cmds) != 1 || cmds[0] != (ReleaseWorker{}) {
			t.Errorf("Flush() = %v, want [release_worker]", cmds)
		}
		if s.State() != Idle {
			t.Errorf("State() = %v, want IDLE", s.State())
		}
	})
}

func TestDisconnected(t *testing.T) {
	s := newSession(t)
	s.Request()
	s.Assigned("w1", 0, "")
	s.Tune(7100*rf.KHz, 10*rf.KHz)
	u := s.Disconnected()
	if !u.StopAudio || !u.Changed || s.State() != Idle {
		t.Errorf("Disconnected() = %+v, State() = %v", u, s.State())
	}
	if s.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", s.Pending())
	}

	// Disconnecting twice is harmless.
	if u := s.Disconnected(); u.Changed || u.StopAudio {
		t.Errorf("second Disconnected() = %+v", u)
	}
}

func TestSendFailed(t *testing.T) {
	s := newSession(t)
	s.Request()
	cmds := s.Flush()
	u := s.SendFailed(cmds[0], errors.New("broken pipe"))
	if s.State() != Error || u.Notice == nil || u.Notice.Severity != SeverityError {
		t.Errorf("SendFailed() = %+v, State() = %v", u, s.State())
	}

	// Error allows another attempt.
	s.Request()
	if s.State() != Requesting {
		t.Errorf("State() = %v, want REQUESTING", s.State())
	}
}

func TestClamps(t *testing.T) {
	s := newSession(t)
	s.Tune(7*rf.MHz, rf.MHz)
	if bw := s.Snapshot().Bandwidth; bw != 200*rf.KHz {
		t.Errorf("Bandwidth = %v, want 200kHz", bw)
	}
	s.Tune(7*rf.MHz, 1)
	if bw := s.Snapshot().Bandwidth; bw != 500 {
		t.Errorf("Bandwidth = %v, want 500Hz", bw)
	}

	for _, tc := range []struct{ in, want int }{
		{-5, 0}, {42, 42}, {150, 100},
	} {
		s.SetVolume(tc.in)
		if v := s.Snapshot().Volume; v != tc.want {
			t.Errorf("SetVolume(%d): Volume = %d, want %d", tc.in, v, tc.want)
		}
	}
}

func TestNewSessionValidation(t *testing.T) {
	cfg := DefaultConfig(7 * rf.MHz)
	cfg.FullTimeout = 0
	if _, err := NewSession(cfg); err != ErrConfig {
		t.Errorf("NewSession() error = %v, want ErrConfig", err)
	}
	cfg = DefaultConfig(7 * rf.MHz)
	cfg.MaxBandwidth = cfg.MinBandwidth - 1
	if _, err := NewSession(cfg); err != ErrConfig {
		t.Errorf("NewSession() error = %v, want ErrConfig", err)
	}
}

func TestStateString(t *testing.T) {
	for state, want := range map[State]string{
		Idle: "IDLE", Requesting: "REQUESTING", Listening: "LISTENING", Full: "FULL", Error: "ERROR",
	} {
		if state.String() != want {
			t.Errorf("%d.String() = %q, want %q", int(state), state.String(), want)
		}
	}
}

// vim: foldmethod=marker
