// Package export renders boards to printable formats.
package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/qadash/whiteboard/internal/engine"
)

const (
	pageMargin   = 24.0
	minPageSide  = 200.0
	labelSize    = 9.0
	defaultColor = "#111827"
)

type rgb struct{ r, g, b int }

// parseColor accepts #rgb and #rrggbb. ok is false for anything else,
// including "transparent" and the empty string.
func parseColor(s string) (rgb, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}, true
}

// PDFOptions controls document metadata.
type PDFOptions struct {
	Title     string
	CreatedAt time.Time
}

// WritePDF renders compiled draw commands onto a single page sized to the
// drawing. Selection outlines are skipped. Images are drawn as labelled
// placeholders since their sources are not fetched.
func WritePDF(w io.Writer, commands []engine.DrawCommand, opts PDFOptions) error {
	bounds, ok := drawingBounds(commands)
	if !ok {
		bounds = engine.Rect{Width: minPageSide, Height: minPageSide}
	}
	pageW := max(bounds.Width, minPageSide) + 2*pageMargin
	pageH := max(bounds.Height, minPageSide) + 2*pageMargin
	orientation := "P"
	if pageW > pageH {
		orientation = "L"
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pageW, Ht: pageH},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if !opts.CreatedAt.IsZero() {
		pdf.SetCreationDate(opts.CreatedAt)
	}
	pdf.AddPage()

	r := &pdfRenderer{
		pdf: pdf,
		dx:  pageMargin - bounds.X,
		dy:  pageMargin - bounds.Y,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
	}
	for _, cmd := range commands {
		r.draw(cmd)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func drawingBounds(commands []engine.DrawCommand) (engine.Rect, bool) {
	var (
		union engine.Rect
		found bool
	)
	for _, cmd := range commands {
		if cmd.Op == engine.OpSelection {
			continue
		}
		box := commandBox(cmd)
		if !found {
			union, found = box, true
			continue
		}
		union = union.Union(box)
	}
	return union, found
}

func commandBox(cmd engine.DrawCommand) engine.Rect {
	if cmd.Op == engine.OpLine && len(cmd.Points) == 4 {
		x1, y1, x2, y2 := cmd.Points[0], cmd.Points[1], cmd.Points[2], cmd.Points[3]
		return engine.Rect{X: min(x1, x2), Y: min(y1, y2), Width: max(x1, x2) - min(x1, x2), Height: max(y1, y2) - min(y1, y2)}
	}
	return engine.Rect{X: cmd.X, Y: cmd.Y, Width: cmd.Width, Height: cmd.Height}
}

type pdfRenderer struct {
	pdf    *gofpdf.Fpdf
	dx, dy float64
	tr     func(string) string
}

func (r *pdfRenderer) draw(cmd engine.DrawCommand) {
	if cmd.Op == engine.OpSelection {
		return
	}

	r.pdf.SetAlpha(clampOpacity(cmd.Opacity), "Normal")
	stroke, hasStroke := parseColor(cmd.Stroke)
	if !hasStroke {
		stroke, _ = parseColor(defaultColor)
	}
	r.pdf.SetDrawColor(stroke.r, stroke.g, stroke.b)
	r.pdf.SetLineWidth(max(cmd.StrokeWidth, 0.1))
	if cmd.Dashed {
		r.pdf.SetDashPattern([]float64{4, 3}, 0)
	} else {
		r.pdf.SetDashPattern([]float64{}, 0)
	}

	x, y := cmd.X+r.dx, cmd.Y+r.dy
	switch cmd.Op {
	case engine.OpRect, engine.OpFrame:
		r.pdf.Rect(x, y, cmd.Width, cmd.Height, r.fillStyle(cmd.Fill))
	case engine.OpText:
		r.text(cmd, x, y)
	case engine.OpImage:
		r.pdf.Rect(x, y, cmd.Width, cmd.Height, "D")
		r.pdf.Line(x, y, x+cmd.Width, y+cmd.Height)
		r.pdf.Line(x+cmd.Width, y, x, y+cmd.Height)
	case engine.OpLine:
		if len(cmd.Points) == 4 {
			r.pdf.Line(cmd.Points[0]+r.dx, cmd.Points[1]+r.dy, cmd.Points[2]+r.dx, cmd.Points[3]+r.dy)
		}
	}

	if cmd.Label != "" {
		r.pdf.SetTextColor(stroke.r, stroke.g, stroke.b)
		r.pdf.SetFont("Helvetica", "B", labelSize)
		r.pdf.Text(x, y-3, r.tr(cmd.Label))
	}
}

func (r *pdfRenderer) fillStyle(fill string) string {
	c, ok := parseColor(fill)
	if !ok {
		return "D"
	}
	r.pdf.SetFillColor(c.r, c.g, c.b)
	return "FD"
}

func (r *pdfRenderer) text(cmd engine.DrawCommand, x, y float64) {
	size := cmd.FontSize
	if size <= 0 {
		size = 16
	}
	c, ok := parseColor(cmd.TextColor)
	if !ok {
		c, _ = parseColor(defaultColor)
	}
	r.pdf.SetTextColor(c.r, c.g, c.b)
	r.pdf.SetFont("Helvetica", "", size)
	// baseline sits one font size below the box top
	r.pdf.Text(x, y+size, r.tr(cmd.Text))
}

func clampOpacity(o float64) float64 {
	return min(max(o, 0), 1)
}
