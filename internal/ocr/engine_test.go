package ocr

import (
	"image"
	"image/color"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Envinorma/ocr-utils/internal/alto"
)

func TestNewEngineUnknown(t *testing.T) {
	_, err := NewEngine("cuneiform")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ocr engine")
}

func TestNewEngineTesseract(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract binary not installed")
	}
	engine, err := NewEngine("")
	require.NoError(t, err)
	assert.Equal(t, "tesseract", engine.Name())
}

func TestNewEngineGosseract(t *testing.T) {
	engine, err := NewEngine("gosseract")
	require.NoError(t, err)
	assert.Equal(t, "gosseract", engine.Name())
}

func testImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

func TestPrepareImageFullPage(t *testing.T) {
	img, scale := prepareImage(Input{Image: testImage(100, 80)})
	assert.Equal(t, 1.0, scale)
	assert.Equal(t, 100, img.Bounds().Dx())
	assert.Equal(t, 80, img.Bounds().Dy())
}

func TestPrepareImageCropsRegion(t *testing.T) {
	region := image.Rect(10, 10, 60, 60)
	img, scale := prepareImage(Input{Image: testImage(100, 100), Region: &region})
	assert.Equal(t, 1.0, scale)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 50, img.Bounds().Dy())
}

func TestPrepareImageUpscalesSmallRegion(t *testing.T) {
	region := image.Rect(0, 0, 100, 20)
	img, scale := prepareImage(Input{Image: testImage(200, 200), Region: &region})
	assert.Equal(t, 2.0, scale)
	assert.Equal(t, minRegionHeight, img.Bounds().Dy())
	assert.Equal(t, 200, img.Bounds().Dx())
}

func TestRescalePage(t *testing.T) {
	page := &alto.Page{
		Width:  200,
		Height: 40,
		PrintSpaces: []alto.PrintSpace{PrintSpaceFromLines([]alto.TextLine{{
			HPos: 20, VPos: 10, Width: 100, Height: 20,
			Strings: []alto.String{{Content: "x", HPos: 20, VPos: 10, Width: 100, Height: 20}},
		}})},
	}

	rescalePage(page, 2.0)

	assert.Equal(t, 100.0, page.Width)
	assert.Equal(t, 20.0, page.Height)
	line := page.Lines()[0]
	assert.Equal(t, 10.0, line.HPos)
	assert.Equal(t, 5.0, line.VPos)
	assert.Equal(t, 50.0, line.Width)
	assert.Equal(t, 10.0, line.Strings[0].Height)
}

func TestRescalePageNoop(t *testing.T) {
	page := &alto.Page{Width: 200, Height: 40}
	rescalePage(page, 1.0)
	assert.Equal(t, 200.0, page.Width)
}

func TestTesseractArgs(t *testing.T) {
	e := &TesseractCLI{bin: "tesseract"}

	args := e.args("in.png", "out", Input{Lang: "fra", DPI: 300})
	assert.Equal(t, []string{"in.png", "out", "-l", "fra", "--dpi", "300", "alto"}, args)

	args = e.args("in.png", "out", Input{})
	assert.Equal(t, []string{"in.png", "out", "alto"}, args)
}
