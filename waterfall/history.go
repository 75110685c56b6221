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
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// History is the scrolling 2-D buffer behind the waterfall. Row 0 is the
// newest row, older rows move down by one on every Push.
type History struct {
	img    *image.RGBA
	scaler draw.Scaler
}

// NewHistory allocates a black history of the given size. The scaler is
// used to carry old content over on Resize; nil means nearest neighbour.
func NewHistory(width, height int, scaler draw.Scaler) *History {
	if scaler == nil {
		scaler = draw.NearestNeighbor
	}
	return &History{
		img:    blank(width, height),
		scaler: scaler,
	}
}

func blank(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
	return img
}

// Width is the number of columns (frequency bins).
func (h *History) Width() int {
	return h.img.Rect.Dx()
}

// Height is the number of rows kept.
func (h *History) Height() int {
	return h.img.Rect.Dy()
}

// Push will scroll the history down by one row and write row as the newest
// row. Extra colors are ignored, missing ones are left black.
func (h *History) Push(row []color.RGBA) {
	if h.Width() == 0 || h.Height() == 0 {
		return
	}
	stride := h.img.Stride
	copy(h.img.Pix[stride:], h.img.Pix[:len(h.img.Pix)-stride])

	line := h.img.Pix[:stride]
	for x := 0; x < h.Width(); x++ {
		c := color.RGBA{A: 0xff}
		if x < len(row) {
			c = row[x]
		}
		line[x*4+0] = c.R
		line[x*4+1] = c.G
		line[x*4+2] = c.B
		line[x*4+3] = c.A
	}
}

// Resize will reallocate the history and rescale the old content into it.
func (h *History) Resize(width, height int) {
	if width == h.Width() && height == h.Height() {
		return
	}
	old := h.img
	h.img = blank(width, height)
	if old.Rect.Empty() || h.img.Rect.Empty() {
		return
	}
	h.scaler.Scale(h.img, h.img.Bounds(), old, old.Bounds(), draw.Src, nil)
}

// Extract copies the columns [x0, x1) of every row into a new image. The
// range is clipped to the buffer; nil is returned if nothing is left.
func (h *History) Extract(x0, x1 int) *image.RGBA {
	if x0 < 0 {
		x0 = 0
	}
	if x1 > h.Width() {
		x1 = h.Width()
	}
	if x1 <= x0 || h.Height() == 0 {
		return nil
	}

	out := image.NewRGBA(image.Rect(0, 0, x1-x0, h.Height()))
	for y := 0; y < h.Height(); y++ {
		src := h.img.Pix[y*h.img.Stride+x0*4 : y*h.img.Stride+x1*4]
		copy(out.Pix[y*out.Stride:], src)
	}
	return out
}

// At returns the color at column x of row y, for tests and probes.
func (h *History) At(x, y int) color.RGBA {
	return h.img.RGBAAt(x, y)
}

// vim: foldmethod=marker
