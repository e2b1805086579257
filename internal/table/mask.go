package table

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Rect returns the bounding box of the table as an image.Rectangle.
func (t LocatedTable) Rect() image.Rectangle {
	return image.Rect(t.HPos, t.VPos, t.HPos+t.Width, t.VPos+t.Height)
}

// HideTables returns a copy of the image with every table covered by a white
// rectangle.
func HideTables(img image.Image, tables []LocatedTable) image.Image {
	rects := make([]image.Rectangle, 0, len(tables))
	for _, t := range tables {
		rects = append(rects, t.Rect())
	}
	return maskRectangles(img, rects)
}

func maskRectangles(img image.Image, rects []image.Rectangle) *image.RGBA {
	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	xdraw.Copy(out, bounds.Min, img, bounds, xdraw.Src, nil)
	for _, rect := range rects {
		xdraw.Draw(out, rect.Intersect(bounds), image.White, image.Point{}, xdraw.Src)
	}
	return out
}
