package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/Envinorma/ocr-utils/internal/alto"
	"github.com/Envinorma/ocr-utils/internal/config"
	"github.com/Envinorma/ocr-utils/internal/ocr"
	"github.com/Envinorma/ocr-utils/internal/table"
)

type fakeSource struct {
	images []image.Image
}

func (s *fakeSource) PageCount() int { return len(s.images) }

func (s *fakeSource) PageDimensions(index int) (float64, float64, error) {
	b := s.images[index].Bounds()
	return float64(b.Dx()), float64(b.Dy()), nil
}

func (s *fakeSource) RenderPage(index int, dpi int) (image.Image, error) {
	return s.images[index], nil
}

func (s *fakeSource) Close() error { return nil }

type fakeEngine struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if e.err != nil {
		return ocr.Result{}, e.err
	}
	b := in.Image.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	if in.Region != nil {
		w, h = float64(in.Region.Dx()), float64(in.Region.Dy())
	}
	line := alto.TextLine{HPos: 5, VPos: 10, Strings: []alto.String{{Content: "recognized"}}}
	page := &alto.Page{
		Width:       w,
		Height:      h,
		PrintSpaces: []alto.PrintSpace{{TextBlocks: []alto.TextBlock{{Lines: []alto.TextLine{line}}}}},
	}
	return ocr.Result{PlainText: "recognized", Page: page}, nil
}

func blankImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return img
}

// gridImage draws a 2x2 bordered table covering the whole 400x400 image.
func gridImage() image.Image {
	img := blankImage(400, 400).(*image.Gray)
	for _, level := range []int{2, 199, 396} {
		for t := 0; t < 3; t++ {
			for i := 0; i < 400; i++ {
				img.SetGray(level+t, i, color.Gray{Y: 0})
				img.SetGray(i, level+t, color.Gray{Y: 0})
			}
		}
	}
	return img
}

func TestRunWithoutTables(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		InputPath:  "doc.pdf",
		OutputPath: filepath.Join(dir, "out.svg"),
		Lang:       "eng",
		DPI:        300,
		Workers:    2,
	}
	src := &fakeSource{images: []image.Image{blankImage(100, 100), blankImage(100, 100)}}
	engine := &fakeEngine{}

	project := NewProject(cfg, src, engine)
	if project.Detector != nil {
		t.Fatal("Expected no detector when table detection is off")
	}

	if err := project.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if engine.calls != 2 {
		t.Errorf("Expected 2 OCR calls, got %d", engine.calls)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "<svg") || !strings.Contains(out, ">recognized<") {
		t.Errorf("Unexpected SVG output:\n%s", out)
	}
}

func TestRunWithTables(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		InputPath:    "doc.pdf",
		OutputPath:   filepath.Join(dir, "out.svg"),
		Lang:         "eng",
		DPI:          300,
		Workers:      1,
		DetectTables: true,
		TablesOut:    filepath.Join(dir, "tables.yaml"),
		MaskedOut:    filepath.Join(dir, "masked.png"),
	}
	src := &fakeSource{images: []image.Image{gridImage()}}
	engine := &fakeEngine{}

	project := NewProject(cfg, src, engine)
	if project.Detector == nil {
		t.Fatal("Expected detector when table detection is on")
	}

	if err := project.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// 4 cells + 1 full page.
	if engine.calls != 5 {
		t.Errorf("Expected 5 OCR calls, got %d", engine.calls)
	}

	layout, err := table.ReadLayout(cfg.TablesOut)
	if err != nil {
		t.Fatalf("ReadLayout failed: %v", err)
	}
	if len(layout.Tables) != 1 {
		t.Fatalf("Expected 1 table in layout, got %d", len(layout.Tables))
	}
	if layout.Tables[0].Page != 0 {
		t.Errorf("Expected table on page 0, got %d", layout.Tables[0].Page)
	}

	if _, err := os.Stat(cfg.MaskedOut); err != nil {
		t.Errorf("Expected masked image to be written: %v", err)
	}

	data, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, ">recognized<") {
		t.Errorf("Expected cell text in SVG output:\n%s", out)
	}
}

func TestRunNoPages(t *testing.T) {
	cfg := &config.Config{OutputPath: filepath.Join(t.TempDir(), "out.svg")}
	project := NewProject(cfg, &fakeSource{}, &fakeEngine{})

	if err := project.Run(context.Background()); !errors.Is(err, ErrNoPages) {
		t.Errorf("Expected ErrNoPages, got %v", err)
	}
}

func TestRunEngineError(t *testing.T) {
	cfg := &config.Config{
		OutputPath: filepath.Join(t.TempDir(), "out.svg"),
		Workers:    1,
	}
	src := &fakeSource{images: []image.Image{blankImage(10, 10)}}
	project := NewProject(cfg, src, &fakeEngine{err: fmt.Errorf("ocr broke")})

	err := project.Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "ocr broke") {
		t.Errorf("Expected wrapped engine error, got %v", err)
	}
}

func TestPageSuffixedPath(t *testing.T) {
	if got := pageSuffixedPath("/tmp/masked.png", 2); got != "/tmp/masked_page2.png" {
		t.Errorf("Unexpected suffixed path: %s", got)
	}
	if got := pageSuffixedPath("masked", 0); got != "masked_page0" {
		t.Errorf("Unexpected suffixed path: %s", got)
	}
}
