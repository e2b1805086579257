package svg

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/Envinorma/ocr-utils/internal/alto"
	"github.com/Envinorma/ocr-utils/internal/table"
)

var (
	// ErrNoPages is returned when composing an empty page list.
	ErrNoPages = errors.New("expecting at least one page to generate SVG")
	// ErrPageDimensionMismatch is returned when pages differ in size.
	ErrPageDimensionMismatch = errors.New("expecting only one page dimension")
)

const (
	defaultFontSize = 32
	stampSize       = 96
	stampMargin     = 8
)

// Options control page composition.
type Options struct {
	// FontSize is the rendered text size in SVG units.
	FontSize int
	// Cells holds the detected table cells per page index. They are drawn
	// with their borders and their own text lines.
	Cells map[int][]table.DetectedCell
	// Stamp, when non-empty, is encoded as a QR code in the bottom-right
	// corner of the last page.
	Stamp string
}

// Option mutates composition options.
type Option func(*Options)

// WithFontSize overrides the default text size.
func WithFontSize(size int) Option {
	return func(o *Options) { o.FontSize = size }
}

// WithCells attaches detected table cells to page indexes.
func WithCells(cells map[int][]table.DetectedCell) Option {
	return func(o *Options) { o.Cells = cells }
}

// WithStamp embeds a QR code carrying the given content.
func WithStamp(content string) Option {
	return func(o *Options) { o.Stamp = content }
}

// ComposePages builds one SVG document from the recognized pages, stacked
// vertically. All pages must share the same pixel dimensions.
func ComposePages(pages []alto.Page, opts ...Option) (*Document, error) {
	options := Options{FontSize: defaultFontSize}
	for _, opt := range opts {
		opt(&options)
	}

	if len(pages) == 0 {
		return nil, ErrNoPages
	}
	width, height := pages[0].Width, pages[0].Height
	for _, page := range pages[1:] {
		if page.Width != width || page.Height != height {
			return nil, fmt.Errorf("%w: %dx%d vs %dx%d",
				ErrPageDimensionMismatch, int(width), int(height), int(page.Width), int(page.Height))
		}
	}

	nbPages := len(pages)
	doc := &Document{Width: width, Height: height * float64(nbPages)}

	// White background first, then text, then the page frame on top.
	doc.Add(Rect{X: 0, Y: 0, Width: doc.Width, Height: doc.Height, Fill: "white"})

	for pageIndex, page := range pages {
		offset := height * float64(pageIndex)
		for _, line := range page.Lines() {
			doc.Add(lineToText(line, offset, options.FontSize))
		}
		for _, cell := range options.Cells[pageIndex] {
			addCell(doc, cell, offset, options.FontSize)
		}
	}

	doc.Add(
		Line{X1: 0, Y1: 0, X2: 0, Y2: doc.Height, Stroke: "black"},
		Line{X1: width, Y1: 0, X2: width, Y2: doc.Height, Stroke: "black"},
	)
	for i := 0; i <= nbPages; i++ {
		y := doc.Height / float64(nbPages) * float64(i)
		doc.Add(Line{X1: 0, Y1: y, X2: width, Y2: y, Stroke: "black"})
	}

	if options.Stamp != "" {
		stamp, err := stampImage(options.Stamp, doc.Width, doc.Height)
		if err != nil {
			return nil, err
		}
		doc.Add(stamp)
	}

	return doc, nil
}

// ComposeFile converts an ALTO file to an SVG document.
func ComposeFile(f *alto.File, opts ...Option) (*Document, error) {
	return ComposePages(f.Layout.Pages, opts...)
}

func lineToText(line alto.TextLine, offset float64, fontSize int) Text {
	return Text{
		X:        int(line.HPos),
		Y:        int(line.VPos + offset),
		FontSize: fontSize,
		Fill:     "black",
		Content:  line.Text(),
	}
}

// addCell draws the cell border and its text lines, both relative to the
// cell's contour on the page.
func addCell(doc *Document, cell table.DetectedCell, offset float64, fontSize int) {
	ct := cell.Contour
	x0, x1 := float64(ct.X0), float64(ct.X1)
	y0, y1 := float64(ct.Y0)+offset, float64(ct.Y1)+offset
	doc.Add(
		Line{X1: x0, Y1: y0, X2: x1, Y2: y0, Stroke: "black"},
		Line{X1: x0, Y1: y1, X2: x1, Y2: y1, Stroke: "black"},
		Line{X1: x0, Y1: y0, X2: x0, Y2: y1, Stroke: "black"},
		Line{X1: x1, Y1: y0, X2: x1, Y2: y1, Stroke: "black"},
	)
	for _, line := range cell.Lines {
		doc.Add(Text{
			X:        ct.X0 + int(line.HPos),
			Y:        ct.Y0 + int(line.VPos+offset),
			FontSize: fontSize,
			Fill:     "black",
			Content:  line.Text(),
		})
	}
}

// stampImage renders the content as a QR code PNG and embeds it as a data
// URI in the bottom-right corner.
func stampImage(content string, docWidth, docHeight float64) (Image, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, stampSize)
	if err != nil {
		return Image{}, fmt.Errorf("encode stamp: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("data:image/png;base64,")
	buf.WriteString(base64.StdEncoding.EncodeToString(png))
	return Image{
		X:      docWidth - stampSize - stampMargin,
		Y:      docHeight - stampSize - stampMargin,
		Width:  stampSize,
		Height: stampSize,
		Href:   buf.String(),
	}, nil
}
