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
	"time"

	"go.uber.org/zap"
	"hz.tools/rf"

	"github.com/Biblink02/WebSDR-Transceiver/demod"
	"github.com/Biblink02/WebSDR-Transceiver/jitter"
	"github.com/Biblink02/WebSDR-Transceiver/tuner"
	"github.com/Biblink02/WebSDR-Transceiver/waterfall"
)

// dspCommand reconfigures the DSP context. It is applied on the DSP
// goroutine.
type dspCommand interface {
	applyTo(d *dsp)
}

type retune struct{ offset rf.Hz }
type setBandwidth struct{ bandwidth rf.Hz }
type setVolume struct{ gain float64 }
type setListening struct{ on bool }
type setView struct{ view waterfall.ViewWindow }
type setPalette struct{ palette *waterfall.Palette }
type setBrightness struct{ db float64 }
type setHeight struct{ height int }

func (c retune) applyTo(d *dsp) {
	d.demod.Retune(c.offset)
}

func (c setBandwidth) applyTo(d *dsp) {
	// A new bandwidth always starts from clean filter memory.
	d.demod.SetBandwidth(c.bandwidth)
}

func (c setVolume) applyTo(d *dsp) {
	d.player.SetVolume(c.gain)
}

func (c setListening) applyTo(d *dsp) {
	if d.listening == c.on {
		return
	}
	d.listening = c.on
	if !c.on {
		d.player.Stop()
		d.demod.Reset()
	}
}

func (c setView) applyTo(d *dsp) {
	if bm, ok := d.engine.SetView(c.view); ok {
		d.emitBitmap(bm)
	}
}

func (c setPalette) applyTo(d *dsp) {
	d.engine.SetPalette(c.palette)
}

func (c setBrightness) applyTo(d *dsp) {
	d.engine.SetBrightness(c.db)
}

func (c setHeight) applyTo(d *dsp) {
	if err := d.engine.SetHeight(c.height); err != nil {
		d.log.Warn("waterfall height", zap.Error(err))
	}
}

// dsp is the DSP context. Everything in it is owned by its goroutine;
// only finished bitmaps and audio chunks leave it.
type dsp struct {
	r   *Receiver
	log *zap.Logger

	demod    *demod.Demodulator
	engine   *waterfall.Engine
	analyzer *waterfall.Analyzer
	player   *jitter.Player
	interval time.Duration

	listening bool
	pcm       []float32
}

func newDSP(r *Receiver, snap tuner.Snapshot) (*dsp, error) {
	cfg := r.config

	dm, err := demod.New(demod.Config{
		SampleRate: cfg.SampleRate,
		AudioRate:  cfg.AudioRate,
		Offset:     snap.Frequency - cfg.CenterFrequency,
		Bandwidth:  snap.Bandwidth,
		Filter:     cfg.Filter,
		Q:          cfg.Q,
		Taps:       cfg.Taps,
	})
	if err != nil {
		return nil, err
	}

	engine, err := waterfall.New(cfg.Waterfall)
	if err != nil {
		return nil, err
	}

	player, err := jitter.NewPlayer(jitter.PlayerConfig{
		Buffer:     cfg.Jitter,
		Strategy:   cfg.Playback,
		SampleRate: float64(cfg.AudioRate),
		Period:     cfg.OutputPeriod,
		Ramp:       cfg.VolumeRamp,
		Volume:     float64(snap.Volume) / 100,
	})
	if err != nil {
		return nil, err
	}

	d := &dsp{
		r:        r,
		log:      r.log.Named("dsp"),
		demod:    dm,
		engine:   engine,
		player:   player,
		interval: cfg.outputInterval(),
	}

	if cfg.AnalyzeIQ {
		d.analyzer, err = waterfall.NewAnalyzer(cfg.FFTSize, cfg.Planner)
		if err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *dsp) run(ctx context.Context) {
	var tick <-chan time.Time
	if d.player.Strategy() == jitter.Scheduled {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.r.dspCtl:
			cmd.applyTo(d)
		case ev := <-d.r.frames:
			// Reconfiguration queued before this frame applies to it.
			d.drainCommands()
			d.handleFrame(ev)
		case <-tick:
			d.pull()
		}
	}
}

func (d *dsp) drainCommands() {
	for {
		select {
		case cmd := <-d.r.dspCtl:
			cmd.applyTo(d)
		default:
			return
		}
	}
}

func (d *dsp) handleFrame(ev Event) {
	switch ev := ev.(type) {
	case GraphicsFrame:
		d.spectrum(ev.Bins)
	case AudioFrame:
		if !d.listening {
			d.dropped("audio frame while not listening")
			return
		}
		d.ingest(ev.Samples)
	case IQFrame:
		if d.analyzer != nil {
			frames, err := d.analyzer.Analyze(ev.Samples)
			if err != nil {
				d.log.Warn("spectrum analysis failed", zap.Error(err))
			}
			for _, frame := range frames {
				d.spectrum(frame)
			}
		}
		if d.listening {
			d.pcm = d.demod.Demodulate(d.pcm[:0], ev.Samples)
			if len(d.pcm) > 0 {
				// The player owns what it is given.
				chunk := make([]float32, len(d.pcm))
				copy(chunk, d.pcm)
				d.ingest(chunk)
			}
		}
	}
}

func (d *dsp) spectrum(frame []float32) {
	bm, ok := d.engine.Process(frame)
	stats := d.engine.Stats()
	d.r.publish(func(s *Status) { s.Waterfall = stats })
	if !ok {
		return
	}
	d.emitBitmap(bm)
}

func (d *dsp) ingest(chunk []float32) {
	out, dropped := d.player.Ingest(chunk)
	if dropped > 0 {
		d.log.Warn("audio queue overflow", zap.Int("dropped", dropped))
		d.publishJitter()
	}
	if out != nil {
		d.emitAudio(out)
	}
}

func (d *dsp) pull() {
	if !d.listening {
		return
	}
	out, underrun := d.player.Pull()
	if underrun {
		d.log.Debug("audio underrun")
		d.publishJitter()
	}
	d.emitAudio(out)
}

func (d *dsp) publishJitter() {
	stats := d.player.Buffer().Stats()
	d.r.publish(func(s *Status) { s.Jitter = stats })
}

func (d *dsp) dropped(why string) {
	d.log.Debug("dropping frame", zap.String("reason", why))
	d.r.countDrop()
}

func (d *dsp) emitBitmap(bm waterfall.Bitmap) {
	select {
	case d.r.bitmaps <- bm:
	default:
		d.log.Debug("bitmap queue full")
	}
}

func (d *dsp) emitAudio(chunk []float32) {
	select {
	case d.r.audio <- chunk:
	default:
		d.log.Debug("audio queue full")
	}
}

func (d *dsp) close() {
	d.player.Stop()
	if d.analyzer != nil {
		if err := d.analyzer.Close(); err != nil {
			d.log.Warn("closing analyzer", zap.Error(err))
		}
	}
}

// vim: foldmethod=marker
