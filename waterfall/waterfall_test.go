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
	"image/color"
	"math"
	"testing"

	"hz.tools/rf"
	"hz.tools/sdr"
)

func constant(n int, db float32) []float32 {
	frame := make([]float32, n)
	for i := range frame {
		frame[i] = db
	}
	return frame
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig(100*rf.MHz, 102*rf.MHz)
	cfg.Height = 8
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return e
}

func TestPaletteEnds(t *testing.T) {
	for _, name := range PaletteNames() {
		t.Run(name, func(t *testing.T) {
			p, ok := PaletteByName(name)
			if !ok {
				t.Fatalf("PaletteByName(%q) not found", name)
			}
			first := p.stops[0].Color
			last := p.stops[len(p.stops)-1].Color
			if got := p.Lookup(0); got != first {
				t.Errorf("Lookup(0) = %v, want %v", got, first)
			}
			if got := p.Lookup(1); got != last {
				t.Errorf("Lookup(1) = %v, want %v", got, last)
			}
			if got := p.Lookup(-3); got != first {
				t.Errorf("Lookup(-3) = %v, want %v", got, first)
			}
			if got := p.Lookup(math.NaN()); got != first {
				t.Errorf("Lookup(NaN) = %v, want %v", got, first)
			}
		})
	}
}

func TestPaletteMidpoint(t *testing.T) {
	p, _ := PaletteByName("greyscale")
	got := p.Index(128)
	if got.R != 128 || got.G != 128 || got.B != 128 || got.A != 0xff {
		t.Errorf("Index(128) = %v, want grey 128", got)
	}
}

func TestPaletteUnknownFallsBack(t *testing.T) {
	p, ok := PaletteByName("no-such-palette")
	if ok {
		t.Errorf("PaletteByName() ok = true, want false")
	}
	if p.Name() != DefaultPalette {
		t.Errorf("Name() = %q, want %q", p.Name(), DefaultPalette)
	}
}

func TestNewPaletteValidation(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	tests := []struct {
		name  string
		stops []Stop
	}{
		{"one stop", []Stop{{0, red}}},
		{"bad start", []Stop{{0.1, red}, {1, red}}},
		{"bad end", []Stop{{0, red}, {0.9, red}}},
		{"unsorted", []Stop{{0, red}, {0.6, red}, {0.4, red}, {1, red}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPalette(tt.name, tt.stops); !errors.Is(err, ErrPalette) {
				t.Errorf("NewPalette() error = %v, want ErrPalette", err)
			}
		})
	}
}

func TestNewGainValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no range", func(c *Config) { c.Range = 0 }},
		{"nan range", func(c *Config) { c.Range = math.NaN() }},
		{"no attack", func(c *Config) { c.Attack = 0 }},
		{"attack above one", func(c *Config) { c.Attack = 1.5 }},
		{"no release", func(c *Config) { c.Release = 0 }},
		{"negative release", func(c *Config) { c.Release = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(100*rf.MHz, 102*rf.MHz)
			cfg.Height = 8
			tt.mutate(&cfg)
			if _, err := New(cfg); !errors.Is(err, ErrGain) {
				t.Errorf("New() error = %v, want ErrGain", err)
			}
		})
	}
}

func TestGainIgnoresInvalidPeaks(t *testing.T) {
	g := Gain{Ceiling: -20, Range: 60, Attack: 0.5, Release: 0.5}
	for _, p := range []float64{-200, -500, 100, 250, math.NaN()} {
		if g.Update(p) {
			t.Errorf("Update(%v) = true, want false", p)
		}
	}
	if g.Ceiling != -20 {
		t.Errorf("Ceiling = %v, want -20", g.Ceiling)
	}
}

func TestGainAttackFasterThanRelease(t *testing.T) {
	g := Gain{Ceiling: -50, Attack: 0.2, Release: 0.02}
	g.Update(-40)
	up := g.Ceiling - -50
	g = Gain{Ceiling: -50, Attack: 0.2, Release: 0.02}
	g.Update(-60)
	down := -50 - g.Ceiling
	if !(up > down) {
		t.Errorf("rise %v not faster than fall %v", up, down)
	}
}

func TestCeilingConverges(t *testing.T) {
	for _, m := range []float32{-80, 10} {
		e := newTestEngine(t)
		for i := 0; i < 2000; i++ {
			e.Process(constant(256, m))
		}
		if got := e.Gain().Ceiling; math.Abs(got-float64(m)) > 0.01 {
			t.Errorf("Ceiling = %v, want %v", got, m)
		}
	}
}

func TestProcessScrollsHistory(t *testing.T) {
	e := newTestEngine(t)
	p := e.Palette()

	// The first frame sets a strong peak, the second is far below the floor.
	e.Process(constant(16, -20))
	e.Process(constant(16, -150))

	h := e.History()
	if h.Width() != 16 {
		t.Fatalf("Width() = %d, want 16", h.Width())
	}
	if got, want := h.At(0, 0), p.Index(0); got != want {
		t.Errorf("newest row = %v, want %v", got, want)
	}
	if got, want := h.At(0, 1), p.Index(255); got != want {
		t.Errorf("older row = %v, want %v", got, want)
	}
	if got := h.At(0, 2); got != (color.RGBA{A: 0xff}) {
		t.Errorf("untouched row = %v, want black", got)
	}
}

func TestEmptyFrameIgnored(t *testing.T) {
	e := newTestEngine(t)
	if _, ok := e.Process(nil); ok {
		t.Errorf("Process(nil) emitted a bitmap")
	}
	if s := e.Stats(); s.Ignored != 1 || s.Frames != 0 {
		t.Errorf("Stats() = %+v, want one ignored frame", s)
	}
}

func TestViewExtraction(t *testing.T) {
	tests := []struct {
		name      string
		view      ViewWindow
		wantWidth int
		wantLow   rf.Hz
	}{
		{"whole range", ViewWindow{Center: 101 * rf.MHz, Span: 2 * rf.MHz}, 100, 100 * rf.MHz},
		{"left half", ViewWindow{Center: 100.5 * rf.MHz, Span: 1 * rf.MHz}, 50, 100 * rf.MHz},
		{"panned right half", ViewWindow{Center: 101 * rf.MHz, Span: 1 * rf.MHz, Pan: 0.5 * rf.MHz}, 50, 101 * rf.MHz},
		{"clipped", ViewWindow{Center: 102 * rf.MHz, Span: 1 * rf.MHz}, 25, 101.5 * rf.MHz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t)
			e.Process(constant(100, -60))
			bm, ok := e.SetView(tt.view)
			if !ok {
				t.Fatalf("SetView() emitted nothing")
			}
			if got := bm.Image.Bounds().Dx(); got != tt.wantWidth {
				t.Errorf("width = %d, want %d", got, tt.wantWidth)
			}
			if got := bm.Image.Bounds().Dy(); got != 8 {
				t.Errorf("height = %d, want 8", got)
			}
			if math.Abs(float64(bm.Low-tt.wantLow)) > 1 {
				t.Errorf("Low = %v, want %v", bm.Low, tt.wantLow)
			}
		})
	}
}

func TestViewOutsideRange(t *testing.T) {
	e := newTestEngine(t)
	e.Process(constant(100, -60))
	if _, ok := e.SetView(ViewWindow{Center: 200 * rf.MHz, Span: rf.MHz}); ok {
		t.Errorf("SetView() outside the hardware range emitted a bitmap")
	}
}

func TestBitmapIsSnapshot(t *testing.T) {
	e := newTestEngine(t)
	bm, _ := e.Process(constant(16, -20))
	before := bm.Image.RGBAAt(0, 0)
	e.Process(constant(16, -150))
	if after := bm.Image.RGBAAt(0, 0); after != before {
		t.Errorf("bitmap changed after later frame: %v -> %v", before, after)
	}
}

func TestResizeKeepsContent(t *testing.T) {
	h := NewHistory(4, 4, nil)
	red := color.RGBA{R: 255, A: 255}
	h.Push([]color.RGBA{red, red, red, red})
	h.Resize(8, 8)
	if h.Width() != 8 || h.Height() != 8 {
		t.Fatalf("size = %dx%d, want 8x8", h.Width(), h.Height())
	}
	if got := h.At(7, 0); got != red {
		t.Errorf("At(7, 0) = %v, want %v", got, red)
	}
	if got := h.At(0, 7); got != (color.RGBA{A: 0xff}) {
		t.Errorf("At(0, 7) = %v, want black", got)
	}
}

func TestSetHeight(t *testing.T) {
	e := newTestEngine(t)
	e.Process(constant(16, -20))
	if err := e.SetHeight(0); !errors.Is(err, ErrHeight) {
		t.Errorf("SetHeight(0) error = %v, want ErrHeight", err)
	}
	if err := e.SetHeight(32); err != nil {
		t.Fatalf("SetHeight(32) error = %v", err)
	}
	if got := e.History().Height(); got != 32 {
		t.Errorf("Height() = %d, want 32", got)
	}
}

func TestAnalyzerTone(t *testing.T) {
	const size = 64
	a, err := NewAnalyzer(size, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	defer a.Close()

	iq := make(sdr.SamplesC64, size*2+10)
	for i := range iq {
		// Bin 8 above DC.
		s, c := math.Sincos(2 * math.Pi * 8 * float64(i) / size)
		iq[i] = complex64(complex(c, s))
	}

	frames, err := a.Analyze(iq)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	frame := frames[0]
	best := 0
	for i := range frame {
		if frame[i] > frame[best] {
			best = i
		}
	}
	if best != size/2+8 {
		t.Errorf("peak bin = %d, want %d", best, size/2+8)
	}
	if math.Abs(float64(frame[best])) > 0.1 {
		t.Errorf("peak level = %f dB, want 0 dB", frame[best])
	}

	// The 10 leftover samples complete a frame with size-10 more.
	frames, _ = a.Analyze(iq[:size-10])
	if len(frames) != 1 {
		t.Errorf("len(frames) = %d, want 1", len(frames))
	}
}

func TestAnalyzerSize(t *testing.T) {
	if _, err := NewAnalyzer(1, nil); !errors.Is(err, ErrFFTSize) {
		t.Errorf("NewAnalyzer(1) error = %v, want ErrFFTSize", err)
	}
}

// vim: foldmethod=marker
