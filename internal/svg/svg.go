// Package svg serializes recognized pages into a single SVG document.
package svg

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// Rect is an <rect> element.
type Rect struct {
	XMLName xml.Name `xml:"rect"`
	X       float64  `xml:"x,attr"`
	Y       float64  `xml:"y,attr"`
	Width   float64  `xml:"width,attr"`
	Height  float64  `xml:"height,attr"`
	Fill    string   `xml:"fill,attr"`
}

// Line is a <line> element.
type Line struct {
	XMLName xml.Name `xml:"line"`
	X1      float64  `xml:"x1,attr"`
	Y1      float64  `xml:"y1,attr"`
	X2      float64  `xml:"x2,attr"`
	Y2      float64  `xml:"y2,attr"`
	Stroke  string   `xml:"stroke,attr"`
}

// Text is a <text> element.
type Text struct {
	XMLName  xml.Name `xml:"text"`
	X        int      `xml:"x,attr"`
	Y        int      `xml:"y,attr"`
	FontSize int      `xml:"font-size,attr"`
	Fill     string   `xml:"fill,attr"`
	Content  string   `xml:",chardata"`
}

// Image is an <image> element with an inline data URI.
type Image struct {
	XMLName xml.Name `xml:"image"`
	X       float64  `xml:"x,attr"`
	Y       float64  `xml:"y,attr"`
	Width   float64  `xml:"width,attr"`
	Height  float64  `xml:"height,attr"`
	Href    string   `xml:"href,attr"`
}

// Document is a complete SVG drawing. Elements are rendered in insertion
// order.
type Document struct {
	Width    float64
	Height   float64
	Elements []any
}

// Add appends elements to the drawing.
func (d *Document) Add(elements ...any) {
	d.Elements = append(d.Elements, elements...)
}

// MarshalXML writes the <svg> root with its attributes and children.
func (d *Document) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	start := xml.StartElement{
		Name: xml.Name{Local: "svg"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: "http://www.w3.org/2000/svg"},
			{Name: xml.Name{Local: "version"}, Value: "1.2"},
			{Name: xml.Name{Local: "baseProfile"}, Value: "tiny"},
			{Name: xml.Name{Local: "width"}, Value: fmt.Sprintf("%dpx", int(d.Width))},
			{Name: xml.Name{Local: "height"}, Value: fmt.Sprintf("%dpx", int(d.Height))},
		},
	}
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for _, element := range d.Elements {
		if err := e.Encode(element); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// WriteTo serializes the document as indented XML.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if _, err := io.WriteString(cw, xml.Header); err != nil {
		return cw.n, err
	}
	enc := xml.NewEncoder(cw)
	enc.Indent("", "  ")
	if err := enc.Encode(d); err != nil {
		return cw.n, err
	}
	if err := enc.Close(); err != nil {
		return cw.n, err
	}
	_, err := io.WriteString(cw, "\n")
	return cw.n, err
}

// Save writes the document to a file.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := d.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
