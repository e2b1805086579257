package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Envinorma/ocr-utils/internal/alto"
)

// TesseractCLI shells out to the tesseract binary and parses its ALTO XML
// output. This is the default engine and requires tesseract on the PATH.
type TesseractCLI struct {
	bin string
}

// NewTesseractCLI locates the tesseract binary.
func NewTesseractCLI() (*TesseractCLI, error) {
	bin, err := exec.LookPath("tesseract")
	if err != nil {
		return nil, fmt.Errorf("tesseract binary not found: %w", err)
	}
	log.WithField("bin", bin).Info("Using tesseract command-line engine")
	return &TesseractCLI{bin: bin}, nil
}

func (e *TesseractCLI) Name() string { return "tesseract" }

// Recognize runs tesseract on the input and returns the parsed ALTO page.
func (e *TesseractCLI) Recognize(ctx context.Context, in Input) (Result, error) {
	img, scale := prepareImage(in)

	dir, err := os.MkdirTemp("", "ocrutils_")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "input.png")
	if err := writePNG(inputPath, img); err != nil {
		return Result{}, fmt.Errorf("write ocr input: %w", err)
	}

	outBase := filepath.Join(dir, "out")
	cmd := exec.CommandContext(ctx, e.bin, e.args(inputPath, outBase, in)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return Result{}, fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	file, err := alto.ParseFile(outBase + ".xml")
	if err != nil {
		return Result{}, fmt.Errorf("read tesseract output: %w", err)
	}
	page, err := alto.OnePage(file)
	if err != nil {
		return Result{}, err
	}
	rescalePage(page, scale)

	log.WithFields(logrus.Fields{
		"lang":  in.Lang,
		"lines": len(page.Lines()),
	}).Debug("Tesseract recognition done")

	return Result{PlainText: page.Text(), Page: page}, nil
}

// args builds the tesseract invocation: input, output base, language and DPI
// options, and the alto output config.
func (e *TesseractCLI) args(inputPath, outBase string, in Input) []string {
	args := []string{inputPath, outBase}
	if in.Lang != "" {
		args = append(args, "-l", in.Lang)
	}
	if in.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(in.DPI))
	}
	return append(args, "alto")
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
