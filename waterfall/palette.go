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
	"fmt"
	"image/color"
	"math"
	"sort"
)

// ErrPalette will be returned when a list of stops does not describe a
// gradient over [0, 1].
var ErrPalette = errors.New("waterfall: invalid palette")

// DefaultPalette is used when an unknown palette name is requested.
const DefaultPalette = "classic"

// Stop is one color of a gradient, at Position in [0, 1].
type Stop struct {
	Position float64
	Color    color.RGBA
}

// Palette is a gradient resolved into a 256 entry lookup table.
type Palette struct {
	name  string
	stops []Stop
	table [256]color.RGBA
}

// NewPalette will check the stops, and resolve them into a lookup table.
// Stops must be sorted by position, with the first at 0 and the last at 1.
func NewPalette(name string, stops []Stop) (*Palette, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("%w: %q needs at least two stops", ErrPalette, name)
	}
	if stops[0].Position != 0 || stops[len(stops)-1].Position != 1 {
		return nil, fmt.Errorf("%w: %q must start at 0 and end at 1", ErrPalette, name)
	}
	for i := 1; i < len(stops); i++ {
		if stops[i].Position < stops[i-1].Position {
			return nil, fmt.Errorf("%w: %q stops are not sorted", ErrPalette, name)
		}
	}

	p := &Palette{
		name:  name,
		stops: append([]Stop(nil), stops...),
	}
	for i := range p.table {
		p.table[i] = p.resolve(float64(i) / 255)
	}
	return p, nil
}

func (p *Palette) resolve(t float64) color.RGBA {
	s1, s2 := p.stops[0], p.stops[len(p.stops)-1]
	for j := 0; j < len(p.stops)-1; j++ {
		if t >= p.stops[j].Position && t <= p.stops[j+1].Position {
			s1, s2 = p.stops[j], p.stops[j+1]
			break
		}
	}

	span := s2.Position - s1.Position
	if span <= 0 {
		return s2.Color
	}
	k := (t - s1.Position) / span
	lerp := func(a, b uint8) uint8 {
		return uint8(math.Round(float64(a) + (float64(b)-float64(a))*k))
	}
	return color.RGBA{
		R: lerp(s1.Color.R, s2.Color.R),
		G: lerp(s1.Color.G, s2.Color.G),
		B: lerp(s1.Color.B, s2.Color.B),
		A: 0xff,
	}
}

// Name returns the palette name.
func (p *Palette) Name() string {
	return p.name
}

// Lookup returns the color for a normalized magnitude t, clamped to [0, 1].
func (p *Palette) Lookup(t float64) color.RGBA {
	if !(t > 0) {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return p.table[int(math.Round(t*255))]
}

// Index returns entry i of the lookup table.
func (p *Palette) Index(i uint8) color.RGBA {
	return p.table[i]
}

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

var builtin = map[string]*Palette{}

func mustRegister(name string, stops []Stop) {
	p, err := NewPalette(name, stops)
	if err != nil {
		panic(err)
	}
	builtin[name] = p
}

func init() {
	mustRegister("classic", []Stop{
		{0.00, rgb(0, 0, 0)},
		{0.20, rgb(0, 0, 128)},
		{0.40, rgb(0, 0, 255)},
		{0.60, rgb(0, 255, 255)},
		{0.80, rgb(255, 255, 0)},
		{1.00, rgb(255, 0, 0)},
	})
	mustRegister("inferno", []Stop{
		{0.00, rgb(0, 0, 4)},
		{0.25, rgb(87, 16, 110)},
		{0.50, rgb(188, 55, 84)},
		{0.75, rgb(249, 140, 10)},
		{1.00, rgb(252, 255, 212)},
	})
	mustRegister("ocean", []Stop{
		{0.00, rgb(0, 0, 20)},
		{0.33, rgb(0, 100, 180)},
		{0.66, rgb(0, 200, 200)},
		{1.00, rgb(230, 255, 255)},
	})
	mustRegister("greyscale", []Stop{
		{0.00, rgb(0, 0, 0)},
		{1.00, rgb(255, 255, 255)},
	})
}

// PaletteByName returns a builtin palette. Unknown names get the classic
// palette, and ok set to false.
func PaletteByName(name string) (p *Palette, ok bool) {
	p, ok = builtin[name]
	if !ok {
		return builtin[DefaultPalette], false
	}
	return p, true
}

// PaletteNames lists the builtin palettes.
func PaletteNames() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// vim: foldmethod=marker
