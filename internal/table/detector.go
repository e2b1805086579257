package table

import (
	"context"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/Envinorma/ocr-utils/internal/ocr"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the table package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Detector finds bordered tables on page images and recognizes the content
// of each cell with the configured OCR engine.
type Detector struct {
	Engine ocr.Engine
	Lang   string
	DPI    int
}

// NewDetector builds a detector around an OCR engine.
func NewDetector(engine ocr.Engine, lang string, dpi int) *Detector {
	return &Detector{Engine: engine, Lang: lang, DPI: dpi}
}

// ExtractCells detects cell contours and recognizes each cell's content.
func (d *Detector) ExtractCells(ctx context.Context, img image.Image) ([]DetectedCell, error) {
	contours := ExtractContours(img)
	log.WithField("contours", len(contours)).Debug("Cell contours extracted")

	cells := make([]DetectedCell, 0, len(contours))
	for i, contour := range contours {
		region := contour.Rect()
		res, err := d.Engine.Recognize(ctx, ocr.Input{
			Image:  img,
			Lang:   d.Lang,
			DPI:    d.DPI,
			Region: &region,
		})
		if err != nil {
			return nil, fmt.Errorf("ocr on cell %d %v: %w", i, region, err)
		}
		cells = append(cells, NewDetectedCell(contour, res.Page.Lines()))
	}
	return cells, nil
}

// ExtractTables detects and returns the tables of the image, with their
// position on the page.
func (d *Detector) ExtractTables(ctx context.Context, img image.Image) ([]LocatedTable, error) {
	_, tables, _, err := d.extractCellsAndTables(ctx, img, false)
	return tables, err
}

// ExtractAndHideTables detects tables and returns a copy of the image with
// each detected table covered by a white rectangle.
func (d *Detector) ExtractAndHideTables(ctx context.Context, img image.Image) (image.Image, []LocatedTable, error) {
	masked, tables, _, err := d.extractCellsAndTables(ctx, img, true)
	return masked, tables, err
}

// DetectAndMask detects tables and returns the masked page image, the
// reconstructed tables and the raw detected cells.
func (d *Detector) DetectAndMask(ctx context.Context, img image.Image) (image.Image, []LocatedTable, []DetectedCell, error) {
	return d.extractCellsAndTables(ctx, img, true)
}

// ExtractAndHideCells detects cells and returns a copy of the image with
// each detected cell covered by a white rectangle.
func (d *Detector) ExtractAndHideCells(ctx context.Context, img image.Image) (image.Image, []DetectedCell, error) {
	cells, err := d.ExtractCells(ctx, img)
	if err != nil {
		return nil, nil, err
	}
	rects := make([]image.Rectangle, 0, len(cells))
	for _, cell := range cells {
		rects = append(rects, cell.Contour.Rect())
	}
	return maskRectangles(img, rects), cells, nil
}

func (d *Detector) extractCellsAndTables(ctx context.Context, img image.Image, hide bool) (image.Image, []LocatedTable, []DetectedCell, error) {
	cells, err := d.ExtractCells(ctx, img)
	if err != nil {
		return nil, nil, nil, err
	}

	groups := GroupByProximity(cells, func(a, b DetectedCell) bool {
		return contoursAreNeighbors(a.Contour, b.Contour)
	})

	tables := make([]LocatedTable, 0, len(groups))
	for _, group := range groups {
		t, err := buildTable(group)
		if err != nil {
			return nil, nil, nil, err
		}
		tables = append(tables, t)
	}
	log.WithFields(logrus.Fields{
		"cells":  len(cells),
		"tables": len(tables),
	}).Debug("Tables reconstructed")

	out := img
	if hide {
		out = HideTables(img, tables)
	}
	return out, tables, cells, nil
}
