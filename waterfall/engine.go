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

package waterfall

import (
	"errors"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"hz.tools/rf"
)

var (
	// ErrHardwareRange is returned when the hardware frequency range is
	// empty.
	ErrHardwareRange = errors.New("waterfall: hardware range is empty")

	// ErrHeight is returned for a non-positive waterfall height.
	ErrHeight = errors.New("waterfall: height must be positive")

	// ErrGain is returned for a non-positive range, or an attack or
	// release rate outside (0, 1].
	ErrGain = errors.New("waterfall: invalid gain settings")
)

// ViewWindow is the visible slice of the spectrum.
type ViewWindow struct {
	Center rf.Hz
	Span   rf.Hz
	Pan    rf.Hz
}

// Range returns the lowest and highest visible frequency.
func (v ViewWindow) Range() (low, high rf.Hz) {
	c := v.Center + v.Pan
	return c - v.Span/2, c + v.Span/2
}

// Config controls the waterfall Engine.
type Config struct {
	// HardwareLow and HardwareHigh are the frequencies at the first and past
	// the last bin of each SpectrumFrame.
	HardwareLow  rf.Hz
	HardwareHigh rf.Hz

	// Width is the initial bin count. The history is resized to match the
	// first frame anyway.
	Width int

	// Height is the number of rows of history.
	Height int

	// Ceiling is the starting ceiling in dB.
	Ceiling float64

	// Range, Attack, Release and Brightness seed the Gain.
	Range      float64
	Attack     float64
	Release    float64
	Brightness float64

	// Palette is the name of a builtin palette.
	Palette string

	// Smooth rescales history bilinearly on resize instead of picking the
	// nearest neighbour.
	Smooth bool

	// View is the initial ViewWindow. The zero value shows the whole
	// hardware range.
	View ViewWindow
}

// DefaultConfig returns the stock settings for the
// given hardware range.
func DefaultConfig(low, high rf.Hz) Config {
	return Config{
		HardwareLow:  low,
		HardwareHigh: high,
		Height:       512,
		Ceiling:      -20,
		Range:        60,
		Attack:       0.2,
		Release:      0.02,
		Palette:      DefaultPalette,
	}
}

// Bitmap is an immutable snapshot of the visible part of the waterfall,
// ready to hand to a renderer.
type Bitmap struct {
	Image *image.RGBA

	// Low and High are the frequencies covered by the Image.
	Low  rf.Hz
	High rf.Hz

	// Floor and Ceiling are the dB bounds the palette was mapped over when
	// the newest row was drawn.
	Floor   float64
	Ceiling float64

	// Seq counts processed frames.
	Seq uint64
}

// Stats are counters kept by the Engine.
type Stats struct {
	Frames  uint64
	Ignored uint64
}

// Engine folds SpectrumFrames into a colored, scrolling history, and
// extracts the visible window from it.
type Engine struct {
	low, high rf.Hz
	view      ViewWindow

	gain    Gain
	palette *Palette
	history *History
	row     []color.RGBA

	stats Stats
}

// New will create an Engine.
func New(cfg Config) (*Engine, error) {
	if cfg.HardwareHigh <= cfg.HardwareLow {
		return nil, ErrHardwareRange
	}
	if cfg.Height <= 0 {
		return nil, ErrHeight
	}
	if !(cfg.Range > 0) || !validRate(cfg.Attack) || !validRate(cfg.Release) {
		return nil, ErrGain
	}
	if cfg.View.Span <= 0 {
		cfg.View = ViewWindow{
			Center: (cfg.HardwareLow + cfg.HardwareHigh) / 2,
			Span:   cfg.HardwareHigh - cfg.HardwareLow,
		}
	}
	palette, _ := PaletteByName(cfg.Palette)

	var scaler draw.Scaler = draw.NearestNeighbor
	if cfg.Smooth {
		scaler = draw.BiLinear
	}

	return &Engine{
		low:  cfg.HardwareLow,
		high: cfg.HardwareHigh,
		view: cfg.View,
		gain: Gain{
			Ceiling:    cfg.Ceiling,
			Range:      cfg.Range,
			Attack:     cfg.Attack,
			Release:    cfg.Release,
			Brightness: cfg.Brightness,
		},
		palette: palette,
		history: NewHistory(cfg.Width, cfg.Height, scaler),
	}, nil
}

func validRate(r float64) bool {
	return r > 0 && r <= 1
}

// Gain returns a copy of the gain state.
func (e *Engine) Gain() Gain {
	return e.gain
}

// Stats returns the frame counters.
func (e *Engine) Stats() Stats {
	return e.stats
}

// Palette returns the palette in use.
func (e *Engine) Palette() *Palette {
	return e.palette
}

// History returns the history buffer. It must not leave the goroutine that
// owns the Engine.
func (e *Engine) History() *History {
	return e.history
}

// View returns the current ViewWindow.
func (e *Engine) View() ViewWindow {
	return e.view
}

// SetPalette switches the palette used for rows drawn from now on.
func (e *Engine) SetPalette(p *Palette) {
	if p != nil {
		e.palette = p
	}
}

// SetBrightness changes the brightness offset in dB.
func (e *Engine) SetBrightness(b float64) {
	e.gain.Brightness = b
}

// SetHeight resizes the history, keeping its content.
func (e *Engine) SetHeight(height int) error {
	if height <= 0 {
		return ErrHeight
	}
	e.history.Resize(e.history.Width(), height)
	return nil
}

// SetView moves the visible window, and extracts a bitmap for it.
func (e *Engine) SetView(v ViewWindow) (Bitmap, bool) {
	e.view = v
	return e.extract()
}

// Process folds one SpectrumFrame of dB values into the history, and
// returns the bitmap of the visible window. Empty frames are ignored.
func (e *Engine) Process(frame []float32) (Bitmap, bool) {
	if len(frame) == 0 {
		e.stats.Ignored++
		return Bitmap{}, false
	}
	e.stats.Frames++

	if len(frame) != e.history.Width() {
		e.history.Resize(len(frame), e.history.Height())
	}

	e.gain.Update(peak(frame))

	if cap(e.row) < len(frame) {
		e.row = make([]color.RGBA, len(frame))
	}
	row := e.row[:len(frame)]
	for i, db := range frame {
		row[i] = e.palette.Lookup(e.gain.Normalize(float64(db)))
	}
	e.history.Push(row)

	return e.extract()
}

// columns maps the view onto history columns.
func (e *Engine) columns() (x0, x1 int) {
	span := float64(e.high - e.low)
	width := float64(e.history.Width())
	low, high := e.view.Range()
	start := float64(low-e.low) / span
	end := float64(high-e.low) / span

	x0 = int(math.Floor(start * width))
	x1 = x0 + int(math.Ceil((end-start)*width))
	return x0, x1
}

func (e *Engine) extract() (Bitmap, bool) {
	x0, x1 := e.columns()
	if x0 < 0 {
		x0 = 0
	}
	if x1 > e.history.Width() {
		x1 = e.history.Width()
	}
	img := e.history.Extract(x0, x1)
	if img == nil {
		return Bitmap{}, false
	}

	width := float64(e.history.Width())
	binWidth := float64(e.high-e.low) / width
	floor, ceiling := e.gain.Bounds()
	return Bitmap{
		Image:   img,
		Low:     e.low + rf.Hz(float64(x0)*binWidth),
		High:    e.low + rf.Hz(float64(x1)*binWidth),
		Floor:   floor,
		Ceiling: ceiling,
		Seq:     e.stats.Frames,
	}, true
}

// vim: foldmethod=marker
