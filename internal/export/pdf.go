package export

import (
	"fmt"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"

	"SyncBoard/internal/state"
)

// WritePDF renders strokes onto one A4 landscape page, scaled to fit, and
// writes the document to w.
func WritePDF(w io.Writer, strokes []state.Stroke) error {
	p := gofpdf.New("L", "mm", "A4", "")
	p.SetTitle("LocalBoard", true)
	p.AddPage()
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	if r, ok := state.Bounds(strokes); ok {
		pageW, pageH := p.GetPageSize()
		left, top, right, bottom := p.GetMargins()
		availW := pageW - left - right
		availH := pageH - top - bottom

		r.MinX -= margin
		r.MinY -= margin
		r.MaxX += margin
		r.MaxY += margin
		scale := min(availW/r.Width(), availH/r.Height())

		toPage := func(pt state.Point) (float64, float64) {
			return left + (pt.X-r.MinX)*scale, top + (pt.Y-r.MinY)*scale
		}

		for _, s := range strokes {
			c := inkOf(s)
			p.SetDrawColor(int(c.R), int(c.G), int(c.B))
			p.SetFillColor(int(c.R), int(c.G), int(c.B))
			p.SetLineWidth(s.Width * scale)

			if len(s.Points) == 1 {
				x, y := toPage(s.Points[0])
				p.Circle(x, y, s.Width*scale/2, "F")
				continue
			}
			for i := 1; i < len(s.Points); i++ {
				x1, y1 := toPage(s.Points[i-1])
				x2, y2 := toPage(s.Points[i])
				p.Line(x1, y1, x2, y2)
			}
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("rendering PDF: %w", err)
	}
	return nil
}

// PDF writes strokes to a PDF file at path.
func PDF(path string, strokes []state.Stroke) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WritePDF(f, strokes); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
