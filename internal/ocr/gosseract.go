package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/Envinorma/ocr-utils/internal/alto"
)

// GosseractEngine performs recognition in-process through libtesseract.
// It avoids the per-call process spawn of the CLI engine at the cost of a
// cgo dependency.
type GosseractEngine struct {
	clientFactory func() *gosseract.Client
}

// NewGosseractEngine constructs an in-process tesseract engine.
func NewGosseractEngine() *GosseractEngine {
	return &GosseractEngine{clientFactory: gosseract.NewClient}
}

func (e *GosseractEngine) Name() string { return "gosseract" }

// Recognize runs libtesseract on the input and synthesizes an ALTO page from
// the line-level bounding boxes.
func (e *GosseractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	img, scale := prepareImage(in)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return Result{}, fmt.Errorf("encode ocr input: %w", err)
	}

	client := e.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return Result{}, fmt.Errorf("set image: %w", err)
	}
	if in.Lang != "" {
		if err := client.SetLanguage(in.Lang); err != nil {
			return Result{}, fmt.Errorf("set language %s: %w", in.Lang, err)
		}
	}
	if in.DPI > 0 {
		if err := client.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := client.Text()
	if err != nil {
		return Result{}, fmt.Errorf("recognize text: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return Result{}, fmt.Errorf("line bounding boxes: %w", err)
	}

	lines := make([]alto.TextLine, 0, len(boxes))
	for _, b := range boxes {
		content := strings.TrimSpace(b.Word)
		if content == "" {
			continue
		}
		lines = append(lines, alto.TextLine{
			HPos:   float64(b.Box.Min.X),
			VPos:   float64(b.Box.Min.Y),
			Width:  float64(b.Box.Dx()),
			Height: float64(b.Box.Dy()),
			Strings: []alto.String{{
				Content:    content,
				HPos:       float64(b.Box.Min.X),
				VPos:       float64(b.Box.Min.Y),
				Width:      float64(b.Box.Dx()),
				Height:     float64(b.Box.Dy()),
				Confidence: b.Confidence / 100.0,
			}},
		})
	}

	bounds := img.Bounds()
	page := &alto.Page{
		ID:          "page_0",
		Width:       float64(bounds.Dx()),
		Height:      float64(bounds.Dy()),
		PrintSpaces: []alto.PrintSpace{PrintSpaceFromLines(lines)},
	}
	rescalePage(page, scale)

	return Result{PlainText: strings.TrimSpace(text), Page: page}, nil
}

// PrintSpaceFromLines wraps loose lines in the block structure ALTO expects.
func PrintSpaceFromLines(lines []alto.TextLine) alto.PrintSpace {
	return alto.PrintSpace{TextBlocks: []alto.TextBlock{{Lines: lines}}}
}
