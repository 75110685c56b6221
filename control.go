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
	"time"

	"go.uber.org/zap"

	"github.com/Biblink02/WebSDR-Transceiver/tuner"
)

// maxBatch bounds how many queued messages the control context handles
// before it flushes commands.
const maxBatch = 32

// runControl is the control context. It owns the Session: every intent
// and control event is applied here, and the resulting commands are sent
// once per batch so bursts of tune intents coalesce.
func (r *Receiver) runControl(ctx context.Context) {
	var (
		timer  *time.Timer
		expire <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.control:
			r.handleControl(ev)
		case fn := <-r.intents:
			r.apply(fn(r.session))
		case <-expire:
			timer, expire = nil, nil
			r.apply(r.session.Expire(time.Now()))
		}
		r.drain()
		r.flush(ctx)

		if deadline, ok := r.session.Deadline(); ok {
			if timer == nil {
				timer = time.NewTimer(time.Until(deadline))
				expire = timer.C
			}
		} else if timer != nil {
			timer.Stop()
			timer, expire = nil, nil
		}

		snap := r.session.Snapshot()
		r.publish(func(s *Status) { s.Session = snap })
	}
}

// drain handles whatever is already queued, up to maxBatch messages.
func (r *Receiver) drain() {
	for i := 0; i < maxBatch; i++ {
		select {
		case ev := <-r.control:
			r.handleControl(ev)
		case fn := <-r.intents:
			r.apply(fn(r.session))
		default:
			return
		}
	}
}

func (r *Receiver) handleControl(ev Event) {
	switch ev := ev.(type) {
	case WorkerAssigned:
		r.apply(r.session.Assigned(ev.Worker, ev.Frequency, ev.Warning))
	case WorkerReleased:
		r.apply(r.session.Released())
	case ServerFull:
		r.apply(r.session.Full(time.Now()))
	case TuningCorrection:
		r.apply(r.session.Correction(ev.Frequency, ev.Bandwidth, ev.Message))
	case ConnectionChanged:
		status := Disconnected
		if ev.Connected {
			status = Connected
			r.log.Info("transport connected")
		} else {
			r.log.Warn("transport disconnected")
			r.apply(r.session.Disconnected())
		}
		r.publish(func(s *Status) { s.Connection = status })
	case TransportError:
		r.log.Warn("transport error", zap.Error(ev.Err))
		r.apply(r.session.Disconnected())
		r.publish(func(s *Status) { s.Connection = ConnectionError })
		r.notify(Notice{
			Severity: tuner.SeverityError,
			Summary:  "Connection error",
			Detail:   fmt.Sprint(ev.Err),
		})
	default:
		r.log.Debug("unexpected event on the control queue", zap.String("event", fmt.Sprintf("%T", ev)))
	}
}

// apply carries out an Update: DSP reconfiguration, notices and logs.
func (r *Receiver) apply(u tuner.Update) {
	snap := r.session.Snapshot()
	if u.Dropped {
		r.log.Debug("event does not apply", zap.Stringer("state", snap.State))
	}
	if u.Changed {
		r.log.Info("session",
			zap.Stringer("state", snap.State),
			zap.String("worker", snap.Worker),
			zap.String("attempt", snap.Attempt),
			zap.Stringer("frequency", snap.Frequency),
		)
	}
	if u.Retune {
		r.toDSP(retune{offset: snap.Frequency - r.config.CenterFrequency})
	}
	if u.BandwidthChanged {
		r.toDSP(setBandwidth{bandwidth: snap.Bandwidth})
	}
	if u.VolumeChanged {
		r.toDSP(setVolume{gain: float64(snap.Volume) / 100})
	}
	if u.StartAudio {
		r.toDSP(setListening{on: true})
	}
	if u.StopAudio {
		r.toDSP(setListening{on: false})
	}
	if u.Notice != nil {
		switch u.Notice.Severity {
		case tuner.SeverityWarn:
			r.log.Warn(u.Notice.Summary, zap.String("detail", u.Notice.Detail))
		case tuner.SeverityError:
			r.log.Error(u.Notice.Summary, zap.String("detail", u.Notice.Detail))
		default:
			r.log.Info(u.Notice.Summary, zap.String("detail", u.Notice.Detail))
		}
		r.notify(*u.Notice)
	}
}

// flush sends the queued commands in order.
func (r *Receiver) flush(ctx context.Context) {
	for _, cmd := range r.session.Flush() {
		if err := r.sender.Send(ctx, cmd); err != nil {
			r.log.Error("send failed", zap.String("command", cmd.Name()), zap.Error(err))
			r.apply(r.session.SendFailed(cmd, err))
			continue
		}
		r.log.Debug("sent", zap.String("command", cmd.Name()))
	}
}

// vim: foldmethod=marker
