// Package report lays out and renders the printable documents: evaluation forms and certificates.
package report

import (
	"math"

	"github.com/pkg/errors"
)

// PageLayout is a page size and its margins, in millimeters.
type PageLayout struct {
	Orientation  string // "P" or "L"
	Width        float64
	Height       float64
	MarginTop    float64
	MarginBottom float64
	MarginLeft   float64
	MarginRight  float64
}

// A4 returns a portrait A4 page with 15mm margins.
func A4() PageLayout {
	return PageLayout{Orientation: "P", Width: 210, Height: 297, MarginTop: 15, MarginBottom: 15, MarginLeft: 15, MarginRight: 15}
}

// A4Landscape returns a landscape A4 page with 20mm margins.
func A4Landscape() PageLayout {
	return PageLayout{Orientation: "L", Width: 297, Height: 210, MarginTop: 20, MarginBottom: 20, MarginLeft: 20, MarginRight: 20}
}

// ContentHeight is the usable height of a page.
func (l PageLayout) ContentHeight() float64 {
	return l.Height - l.MarginTop - l.MarginBottom
}

// ContentWidth is the usable width of a page.
func (l PageLayout) ContentWidth() float64 {
	return l.Width - l.MarginLeft - l.MarginRight
}

// Block is a unit of content to lay out. Atomic blocks are never split across
// pages unless they are taller than a whole page.
type Block struct {
	Height float64
	Atomic bool
}

// Placement puts the part [Offset, Offset+Height) of a block at Y on a page.
type Placement struct {
	Block  int // index of the block
	Y      float64
	Offset float64
	Height float64
}

type Page struct {
	Placements []Placement
}

// minSlice is the smallest leftover space worth starting a slice in.
const minSlice = 0.5

// fitTolerance absorbs the rounding drift of summed heights.
const fitTolerance = 1e-9

// Paginate packs blocks onto pages top to bottom.
// A block that fits the remaining space goes on the current page. An atomic block
// that fits an empty page moves whole to the next page. Any other block is sliced
// across pages, starting in the space left on the current one.
// Every new page starts at the top margin.
func Paginate(blocks []Block, layout PageLayout) ([]Page, error) {
	avail := layout.ContentHeight()
	if avail <= 0 || layout.ContentWidth() <= 0 {
		return nil, errors.Errorf("page %gx%g has no room inside its margins", layout.Width, layout.Height)
	}

	pages := []Page{{}}
	cursor := 0.0
	place := func(idx int, offset, height float64) {
		p := &pages[len(pages)-1]
		p.Placements = append(p.Placements, Placement{Block: idx, Y: layout.MarginTop + cursor, Offset: offset, Height: height})
		cursor += height
	}
	newPage := func() {
		pages = append(pages, Page{})
		cursor = 0
	}

	for i, b := range blocks {
		if b.Height < 0 || math.IsNaN(b.Height) || math.IsInf(b.Height, 0) {
			return nil, errors.Errorf("block %d has an invalid height %g", i, b.Height)
		}
		if cursor+b.Height <= avail+fitTolerance {
			place(i, 0, b.Height)
			continue
		}
		if b.Atomic && b.Height <= avail+fitTolerance {
			newPage()
			place(i, 0, b.Height)
			continue
		}

		if avail-cursor < minSlice {
			newPage()
		}
		for offset := 0.0; ; {
			rest, room := b.Height-offset, avail-cursor
			if rest <= room+fitTolerance {
				place(i, offset, rest)
				break
			}
			place(i, offset, room)
			offset += room
			newPage()
		}
	}
	return pages, nil
}
