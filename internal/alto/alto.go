// Package alto decodes ALTO XML layout files as produced by Tesseract.
package alto

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// File is the root <alto> element.
type File struct {
	XMLName xml.Name `xml:"alto"`
	Layout  Layout   `xml:"Layout"`
}

type Layout struct {
	Pages []Page `xml:"Page"`
}

// Page is a single physical page with pixel dimensions.
type Page struct {
	ID          string       `xml:"ID,attr"`
	Width       float64      `xml:"WIDTH,attr"`
	Height      float64      `xml:"HEIGHT,attr"`
	PrintSpaces []PrintSpace `xml:"PrintSpace"`
}

// PrintSpace holds the text blocks of a page. Tesseract nests TextBlocks
// inside ComposedBlocks, but plain TextBlock children are also valid ALTO.
type PrintSpace struct {
	ComposedBlocks []ComposedBlock `xml:"ComposedBlock"`
	TextBlocks     []TextBlock     `xml:"TextBlock"`
}

type ComposedBlock struct {
	TextBlocks []TextBlock `xml:"TextBlock"`
}

type TextBlock struct {
	Lines []TextLine `xml:"TextLine"`
}

// TextLine is a single recognized line with its position in page pixels.
type TextLine struct {
	HPos    float64  `xml:"HPOS,attr"`
	VPos    float64  `xml:"VPOS,attr"`
	Width   float64  `xml:"WIDTH,attr"`
	Height  float64  `xml:"HEIGHT,attr"`
	Strings []String `xml:"String"`
}

// String is a single recognized word.
type String struct {
	Content    string  `xml:"CONTENT,attr"`
	HPos       float64 `xml:"HPOS,attr"`
	VPos       float64 `xml:"VPOS,attr"`
	Width      float64 `xml:"WIDTH,attr"`
	Height     float64 `xml:"HEIGHT,attr"`
	Confidence float64 `xml:"WC,attr"`
}

// Parse decodes an ALTO XML document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode alto xml: %w", err)
	}
	return &f, nil
}

// ParseFile reads and decodes an ALTO XML file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// OnePage returns the single page of the file and errors when the file does
// not contain exactly one page.
func OnePage(f *File) (*Page, error) {
	if n := len(f.Layout.Pages); n != 1 {
		return nil, fmt.Errorf("expecting 1 page in alto file, got %d", n)
	}
	return &f.Layout.Pages[0], nil
}

// Lines returns all text lines of the page in document order.
func (p *Page) Lines() []TextLine {
	var lines []TextLine
	for _, space := range p.PrintSpaces {
		for _, composed := range space.ComposedBlocks {
			for _, block := range composed.TextBlocks {
				lines = append(lines, block.Lines...)
			}
		}
		for _, block := range space.TextBlocks {
			lines = append(lines, block.Lines...)
		}
	}
	return lines
}

// Text joins the words of the line with single spaces.
func (l TextLine) Text() string {
	words := make([]string, 0, len(l.Strings))
	for _, s := range l.Strings {
		words = append(words, s.Content)
	}
	return strings.Join(words, " ")
}

// Text joins all lines of the page with newlines.
func (p *Page) Text() string {
	lines := p.Lines()
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		parts = append(parts, line.Text())
	}
	return strings.Join(parts, "\n")
}
