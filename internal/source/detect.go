package source

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the detected type of an input path.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindImage
	KindALTO
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindImage:
		return "image"
	case KindALTO:
		return "alto"
	default:
		return "unknown"
	}
}

// DetectKind sniffs the content type of the input. Directories are treated
// as image collections.
func DetectKind(path string) (Kind, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return KindUnknown, fmt.Errorf("input not found at path %s: %w", path, err)
	}
	if fi.IsDir() {
		return KindImage, nil
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		return KindUnknown, fmt.Errorf("detect input type of %s: %w", path, err)
	}

	switch {
	case mime.Is("application/pdf"):
		return KindPDF, nil
	case strings.HasPrefix(mime.String(), "image/"):
		return KindImage, nil
	case mime.Is("text/xml"), mime.Is("application/xml"):
		return KindALTO, nil
	default:
		return KindUnknown, fmt.Errorf("unsupported input type %s for %s", mime.String(), path)
	}
}

// Open builds the source matching the detected input kind. ALTO inputs have
// no raster pages and are rejected here.
func Open(path string) (Source, error) {
	kind, err := DetectKind(path)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindPDF:
		return NewFitzPDFSource(path)
	case KindImage:
		return NewImageSource(path)
	default:
		return nil, fmt.Errorf("no page source for %s input %s", kind, path)
	}
}
