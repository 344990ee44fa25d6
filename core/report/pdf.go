package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 5.5 // mm, for 10pt text
)

type element struct {
	Block
	draw func(x, y float64)
}

// Renderer composes a document out of blocks, paginates it and writes it as a PDF.
// Heights are measured with the same fonts used for drawing.
type Renderer struct {
	pdf    *fpdf.Fpdf
	layout PageLayout
	tr     func(string) string
	elems  []element
	footer string
}

func NewRenderer(layout PageLayout, title, author string) *Renderer {
	short, long := layout.Width, layout.Height
	if short > long {
		short, long = long, short
	}
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: layout.Orientation,
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: short, Ht: long},
	})
	pdf.SetMargins(layout.MarginLeft, layout.MarginTop, layout.MarginRight)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetAuthor(author, true)
	pdf.SetCreator(author, true)
	pdf.AliasNbPages("")

	return &Renderer{
		pdf:    pdf,
		layout: layout,
		tr:     pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

// SetFooter prints text and the page number at the bottom of every page.
func (r *Renderer) SetFooter(text string) {
	r.footer = text
}

func (r *Renderer) width() float64 {
	return r.layout.ContentWidth()
}

func (r *Renderer) add(height float64, atomic bool, draw func(x, y float64)) {
	r.elems = append(r.elems, element{Block: Block{Height: height, Atomic: atomic}, draw: draw})
}

// lines wraps text to width with the current font.
func (r *Renderer) lines(text string, width float64) []string {
	var out []string
	for _, para := range strings.Split(r.tr(text), "\n") {
		if strings.TrimSpace(para) == "" {
			out = append(out, "")
			continue
		}
		out = append(out, r.pdf.SplitText(para, width)...)
	}
	return out
}

// Title adds a large centered line.
func (r *Renderer) Title(text string, size float64) {
	h := size * 0.5
	r.add(h+2, true, func(x, y float64) {
		r.pdf.SetFont(fontFamily, "B", size)
		r.pdf.SetXY(x, y)
		r.pdf.CellFormat(r.width(), h, r.tr(text), "", 0, "C", false, 0, "")
	})
}

// Heading adds a bold shaded line.
func (r *Renderer) Heading(text string) {
	h := lineHeight + 2
	r.add(h+2, true, func(x, y float64) {
		r.pdf.SetFont(fontFamily, "B", 11)
		r.pdf.SetFillColor(230, 236, 245)
		r.pdf.SetXY(x, y+1)
		r.pdf.CellFormat(r.width(), h, r.tr(text), "", 0, "L", true, 0, "")
	})
}

// Paragraph adds wrapped text. A non-atomic paragraph may break across pages.
func (r *Renderer) Paragraph(text string, atomic bool, align string) {
	r.pdf.SetFont(fontFamily, "", 10)
	lines := r.lines(text, r.width())
	r.add(float64(len(lines))*lineHeight+1, atomic, func(x, y float64) {
		r.pdf.SetFont(fontFamily, "", 10)
		for i, ln := range lines {
			r.pdf.SetXY(x, y+float64(i)*lineHeight)
			r.pdf.CellFormat(r.width(), lineHeight, ln, "", 0, align, false, 0, "")
		}
	})
}

// Fields adds label/value rows kept together.
func (r *Renderer) Fields(rows [][2]string) {
	const labelWidth = 45.0
	r.pdf.SetFont(fontFamily, "", 10)
	wrapped := make([][]string, len(rows))
	total := 0.0
	for i, row := range rows {
		wrapped[i] = r.lines(row[1], r.width()-labelWidth)
		if len(wrapped[i]) == 0 {
			wrapped[i] = []string{""}
		}
		total += float64(len(wrapped[i])) * lineHeight
	}
	r.add(total+2, true, func(x, y float64) {
		for i, row := range rows {
			r.pdf.SetXY(x, y)
			r.pdf.SetFont(fontFamily, "B", 10)
			r.pdf.CellFormat(labelWidth, lineHeight, r.tr(row[0]), "", 0, "L", false, 0, "")
			r.pdf.SetFont(fontFamily, "", 10)
			for j, ln := range wrapped[i] {
				r.pdf.SetXY(x+labelWidth, y+float64(j)*lineHeight)
				r.pdf.CellFormat(r.width()-labelWidth, lineHeight, ln, "", 0, "L", false, 0, "")
			}
			y += float64(len(wrapped[i])) * lineHeight
		}
	})
}

// Table adds a header row and one atomic block per row. widths are fractions of the content width.
func (r *Renderer) Table(header []string, widths []float64, rows [][]string) {
	cols := make([]float64, len(widths))
	for i, w := range widths {
		cols[i] = w * r.width()
	}
	row := func(cells []string, bold, fill bool) {
		style := ""
		if bold {
			style = "B"
		}
		r.pdf.SetFont(fontFamily, style, 10)
		wrapped := make([][]string, len(cols))
		n := 1
		for i := range cols {
			if i < len(cells) {
				wrapped[i] = r.lines(cells[i], cols[i]-2)
			}
			if len(wrapped[i]) > n {
				n = len(wrapped[i])
			}
		}
		h := float64(n)*lineHeight + 1
		border := "D"
		if fill {
			border = "FD"
		}
		r.add(h, true, func(x, y float64) {
			r.pdf.SetFont(fontFamily, style, 10)
			r.pdf.SetFillColor(242, 242, 242)
			cx := x
			for i, w := range cols {
				r.pdf.Rect(cx, y, w, h, border)
				for j, ln := range wrapped[i] {
					r.pdf.SetXY(cx+1, y+0.5+float64(j)*lineHeight)
					r.pdf.CellFormat(w-2, lineHeight, ln, "", 0, "L", false, 0, "")
				}
				cx += w
			}
		})
	}
	row(header, true, true)
	for _, cells := range rows {
		row(cells, false, false)
	}
}

// Image adds a PNG of size x size mm, centered.
func (r *Renderer) Image(name string, png []byte, size float64) {
	r.pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	r.add(size+2, true, func(x, y float64) {
		r.pdf.ImageOptions(name, x+(r.width()-size)/2, y+1, size, size, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	})
}

// Signature adds a signature line with the signer's name under it.
func (r *Renderer) Signature(name, caption string) {
	const w = 70.0
	r.add(4*lineHeight, true, func(x, y float64) {
		lx := x + r.width() - w
		r.pdf.SetXY(lx, y+lineHeight)
		r.pdf.SetFont(fontFamily, "B", 10)
		r.pdf.CellFormat(w, lineHeight, r.tr(name), "B", 0, "C", false, 0, "")
		r.pdf.SetXY(lx, y+2*lineHeight)
		r.pdf.SetFont(fontFamily, "I", 9)
		r.pdf.CellFormat(w, lineHeight, r.tr(caption), "", 0, "C", false, 0, "")
	})
}

func (r *Renderer) Spacer(height float64) {
	r.add(height, false, func(float64, float64) {})
}

// Blocks returns the blocks added so far.
func (r *Renderer) Blocks() []Block {
	blocks := make([]Block, len(r.elems))
	for i, e := range r.elems {
		blocks[i] = e.Block
	}
	return blocks
}

// Write paginates the blocks and writes the PDF to w.
// A block placed in slices is drawn once per slice, clipped to the slice.
func (r *Renderer) Write(w io.Writer) error {
	pages, err := Paginate(r.Blocks(), r.layout)
	if err != nil {
		return err
	}

	if r.footer != "" {
		r.pdf.SetFooterFunc(func() {
			r.pdf.SetXY(r.layout.MarginLeft, r.layout.Height-r.layout.MarginBottom+3)
			r.pdf.SetFont(fontFamily, "I", 8)
			r.pdf.CellFormat(r.width()/2, 4, r.tr(r.footer), "", 0, "L", false, 0, "")
			r.pdf.CellFormat(r.width()/2, 4, fmt.Sprintf("Page %d of {nb}", r.pdf.PageNo()), "", 0, "R", false, 0, "")
		})
	}

	x := r.layout.MarginLeft
	for _, page := range pages {
		r.pdf.AddPage()
		for _, pl := range page.Placements {
			e := r.elems[pl.Block]
			if pl.Offset == 0 && pl.Height == e.Height {
				e.draw(x, pl.Y)
				continue
			}
			r.pdf.ClipRect(0, pl.Y, r.layout.Width, pl.Height, false)
			e.draw(x, pl.Y-pl.Offset)
			r.pdf.ClipEnd()
		}
	}
	if err := r.pdf.Error(); err != nil {
		return errors.Wrap(err, "composing pdf")
	}
	return errors.Wrap(r.pdf.Output(w), "writing pdf")
}
