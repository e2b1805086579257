// Package ocr abstracts the text recognition engines used by the pipeline.
package ocr

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"

	"github.com/Envinorma/ocr-utils/internal/alto"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the ocr package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Input is a single image (or a region of it) submitted for recognition.
type Input struct {
	// Image is the decoded page image.
	Image image.Image
	// Lang is the Tesseract language code (e.g. "eng", "fra").
	Lang string
	// DPI is the effective resolution of the image; zero means unknown.
	DPI int
	// Region restricts recognition to a subsection of the image.
	// Nil means the full image is processed. Line coordinates in the
	// result are relative to the region origin.
	Region *image.Rectangle
}

// Result is the recognition output for one input.
type Result struct {
	// PlainText is the linearized recognized text.
	PlainText string
	// Page carries the positioned lines in ALTO form.
	Page *alto.Page
}

// Engine recognizes text on images.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// NewEngine builds an engine by name. The empty name selects the default
// tesseract command-line engine.
func NewEngine(variant string) (Engine, error) {
	switch variant {
	case "tesseract", "":
		return NewTesseractCLI()
	case "gosseract":
		log.Info("Using in-process gosseract engine")
		return NewGosseractEngine(), nil
	default:
		return nil, fmt.Errorf("unknown ocr engine: %s", variant)
	}
}

// minRegionHeight is the region height in pixels below which the crop is
// upscaled before recognition. Tesseract degrades quickly on small glyphs.
const minRegionHeight = 40

// prepareImage crops the input to its region, converts it to grayscale and
// upscales small crops. It returns the image to recognize and the scale
// factor that was applied (1.0 when no scaling happened).
func prepareImage(in Input) (image.Image, float64) {
	img := in.Image
	if in.Region != nil {
		img = imaging.Crop(img, *in.Region)
	}
	img = imaging.Grayscale(img)

	scale := 1.0
	bounds := img.Bounds()
	if in.Region != nil && bounds.Dy() > 0 && bounds.Dy() < minRegionHeight {
		scale = float64(minRegionHeight) / float64(bounds.Dy())
		dst := image.NewGray(image.Rect(0, 0, int(float64(bounds.Dx())*scale), minRegionHeight))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)
		img = dst
	}
	return img, scale
}

// rescalePage maps line coordinates of a page recognized on an upscaled crop
// back to the original crop coordinates.
func rescalePage(page *alto.Page, scale float64) {
	if scale == 1.0 {
		return
	}
	page.Width /= scale
	page.Height /= scale
	for si := range page.PrintSpaces {
		space := &page.PrintSpaces[si]
		for ci := range space.ComposedBlocks {
			for bi := range space.ComposedBlocks[ci].TextBlocks {
				rescaleLines(space.ComposedBlocks[ci].TextBlocks[bi].Lines, scale)
			}
		}
		for bi := range space.TextBlocks {
			rescaleLines(space.TextBlocks[bi].Lines, scale)
		}
	}
}

func rescaleLines(lines []alto.TextLine, scale float64) {
	for i := range lines {
		lines[i].HPos /= scale
		lines[i].VPos /= scale
		lines[i].Width /= scale
		lines[i].Height /= scale
		for j := range lines[i].Strings {
			lines[i].Strings[j].HPos /= scale
			lines[i].Strings[j].VPos /= scale
			lines[i].Strings[j].Width /= scale
			lines[i].Strings[j].Height /= scale
		}
	}
}
