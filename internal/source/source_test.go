package source

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
}

func TestImageSourceSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.png")
	writeTestPNG(t, path, 120, 80)

	src, err := NewImageSource(path)
	if err != nil {
		t.Fatalf("NewImageSource failed: %v", err)
	}
	defer src.Close()

	if src.PageCount() != 1 {
		t.Fatalf("Expected 1 page, got %d", src.PageCount())
	}

	w, h, err := src.PageDimensions(0)
	if err != nil {
		t.Fatalf("PageDimensions failed: %v", err)
	}
	if w != 120 || h != 80 {
		t.Errorf("Unexpected dimensions: %fx%f", w, h)
	}

	img, err := src.RenderPage(0, 300)
	if err != nil {
		t.Fatalf("RenderPage failed: %v", err)
	}
	if img.Bounds().Dx() != 120 {
		t.Errorf("Unexpected rendered width: %d", img.Bounds().Dx())
	}
}

func TestImageSourceDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "b.png"), 10, 10)
	writeTestPNG(t, filepath.Join(dir, "a.png"), 10, 10)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	src, err := NewImageSource(dir)
	if err != nil {
		t.Fatalf("NewImageSource failed: %v", err)
	}
	defer src.Close()

	if src.PageCount() != 2 {
		t.Errorf("Expected 2 pages, got %d", src.PageCount())
	}
}

func TestImageSourceMissing(t *testing.T) {
	if _, err := NewImageSource(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatal("Expected error for missing input, got nil")
	}
}

func TestDetectKind(t *testing.T) {
	dir := t.TempDir()

	pngPath := filepath.Join(dir, "img.png")
	writeTestPNG(t, pngPath, 10, 10)

	pdfPath := filepath.Join(dir, "doc.pdf")
	if err := os.WriteFile(pdfPath, []byte("%PDF-1.4\n%%EOF\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	altoPath := filepath.Join(dir, "page.xml")
	altoContent := `<?xml version="1.0" encoding="UTF-8"?><alto><Layout/></alto>`
	if err := os.WriteFile(altoPath, []byte(altoContent), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	tests := []struct {
		path string
		want Kind
	}{
		{pngPath, KindImage},
		{pdfPath, KindPDF},
		{altoPath, KindALTO},
		{dir, KindImage},
	}
	for _, tt := range tests {
		kind, err := DetectKind(tt.path)
		if err != nil {
			t.Errorf("DetectKind(%s) failed: %v", tt.path, err)
			continue
		}
		if kind != tt.want {
			t.Errorf("DetectKind(%s) = %s, want %s", tt.path, kind, tt.want)
		}
	}

	if _, err := DetectKind(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing path, got nil")
	}

	binPath := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(binPath, []byte{0x01, 0x02, 0x03, 0x04}, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := DetectKind(binPath); err == nil {
		t.Error("Expected error for unsupported input type, got nil")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	pngPath := filepath.Join(dir, "img.png")
	writeTestPNG(t, pngPath, 10, 10)

	src, err := Open(pngPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer src.Close()
	if src.PageCount() != 1 {
		t.Errorf("Expected 1 page, got %d", src.PageCount())
	}

	altoPath := filepath.Join(dir, "page.xml")
	if err := os.WriteFile(altoPath, []byte(`<?xml version="1.0"?><alto/>`), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := Open(altoPath); err == nil {
		t.Error("Expected error when opening an ALTO file as page source, got nil")
	}
}
