// Package table detects bordered tables on page images and rebuilds their
// grid structure with per-cell OCR.
package table

import (
	"fmt"
	"image"
	"image/color"
)

// proximityThreshold is the pixel distance under which two coordinates are
// considered the same table border.
const proximityThreshold = 10

// binarizationThreshold separates ink from paper in the grayscale image.
const binarizationThreshold = 200

// Contour is the bounding box of a connected region, in page pixels.
type Contour struct {
	X0 int `yaml:"x_0"`
	X1 int `yaml:"x_1"`
	Y0 int `yaml:"y_0"`
	Y1 int `yaml:"y_1"`
}

// NewContour validates the coordinate ordering.
func NewContour(x0, x1, y0, y1 int) (Contour, error) {
	if x0 > x1+1 || y0 > y1+1 {
		return Contour{}, fmt.Errorf("contour (%d,%d,%d,%d) is not correct", x0, x1, y0, y1)
	}
	return Contour{X0: x0, X1: x1, Y0: y0, Y1: y1}, nil
}

// Rect converts the contour to an image.Rectangle.
func (c Contour) Rect() image.Rectangle {
	return image.Rect(c.X0, c.Y0, c.X1, c.Y1)
}

func (c Contour) width() int  { return c.X1 - c.X0 }
func (c Contour) height() int { return c.Y1 - c.Y0 }
func (c Contour) area() int   { return c.width() * c.height() }

// isEmpty reports whether the contour is too thin to be a table cell.
func (c Contour) isEmpty() bool {
	return abs(c.width()) <= 4*proximityThreshold || abs(c.height()) <= 4*proximityThreshold
}

// isFullPage reports whether the contour covers almost the whole image.
func isFullPage(c Contour, bounds image.Rectangle) bool {
	imgArea := bounds.Dx() * bounds.Dy()
	if imgArea == 0 {
		return false
	}
	return float64(c.area())/float64(imgArea) >= 0.95
}

// ExtractContours finds the cell contours of bordered tables on the image.
// The grid lines are isolated with axis-aligned morphological filtering, the
// line mask is inverted and the remaining connected regions are the cell
// interiors.
func ExtractContours(img image.Image) []Contour {
	bin := binarizeInverted(img)

	kernelV := bin.Bounds().Dy() / 300
	kernelH := bin.Bounds().Dx() / 300
	vertical := extractAxisLines(bin, 0, 1, kernelV)
	horizontal := extractAxisLines(bin, 1, 0, kernelH)

	lines := combine(vertical, horizontal)
	cells := erode2x2(invert(lines), 2)

	var contours []Contour
	for _, rect := range findComponents(cells) {
		ct := Contour{X0: rect.Min.X, X1: rect.Max.X, Y0: rect.Min.Y, Y1: rect.Max.Y}
		if ct.isEmpty() || isFullPage(ct, bin.Bounds()) {
			continue
		}
		contours = append(contours, ct)
	}
	return contours
}

// binarizeInverted maps ink pixels to white (255) and paper to black (0).
func binarizeInverted(img image.Image) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			if g.Y <= binarizationThreshold {
				out.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return out
}

// extractAxisLines keeps only runs of ink that are long in the (dx,dy)
// direction: erosion removes everything shorter than the kernel, dilation
// restores what survived. Three iterations each, matching the line length
// ratio of one three-hundredth of the page dimension.
func extractAxisLines(img *image.Gray, dx, dy, kernel int) *image.Gray {
	if kernel < 2 {
		kernel = 2
	}
	out := img
	for i := 0; i < 3; i++ {
		out = morph1D(out, dx, dy, kernel, false)
	}
	for i := 0; i < 3; i++ {
		out = morph1D(out, dx, dy, kernel, true)
	}
	return out
}

// morph1D applies a one-dimensional min (erode) or max (dilate) filter along
// the direction (dx,dy) with the given kernel length.
func morph1D(img *image.Gray, dx, dy, kernel int, dilate bool) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	half := kernel / 2
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			var acc uint8
			if !dilate {
				acc = 255
			}
			for k := -half; k <= half; k++ {
				px, py := x+k*dx, y+k*dy
				var v uint8
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					v = img.GrayAt(px, py).Y
				}
				if dilate && v > acc {
					acc = v
				}
				if !dilate && v < acc {
					acc = v
				}
			}
			out.SetGray(x, y, color.Gray{Y: acc})
		}
	}
	return out
}

// combine merges the vertical and horizontal line masks.
func combine(a, b *image.Gray) *image.Gray {
	bounds := a.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			va, vb := a.GrayAt(x, y).Y, b.GrayAt(x, y).Y
			if vb > va {
				va = vb
			}
			out.SetGray(x, y, color.Gray{Y: va})
		}
	}
	return out
}

func invert(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetGray(x, y, color.Gray{Y: 255 - img.GrayAt(x, y).Y})
		}
	}
	return out
}

// erode2x2 shrinks white regions so that adjacent cells separated by thin
// grid lines do not merge into one component.
func erode2x2(img *image.Gray, iterations int) *image.Gray {
	out := img
	for i := 0; i < iterations; i++ {
		bounds := out.Bounds()
		next := image.NewGray(bounds)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				minVal := uint8(255)
				for ky := 0; ky < 2; ky++ {
					for kx := 0; kx < 2; kx++ {
						px, py := x+kx, y+ky
						var v uint8
						if px < bounds.Max.X && py < bounds.Max.Y {
							v = out.GrayAt(px, py).Y
						}
						if v < minVal {
							minVal = v
						}
					}
				}
				next.SetGray(x, y, color.Gray{Y: minVal})
			}
		}
		out = next
	}
	return out
}

// findComponents returns the bounding rectangles of connected white regions.
func findComponents(img *image.Gray) []image.Rectangle {
	bounds := img.Bounds()
	visited := make([][]bool, bounds.Dy())
	for i := range visited {
		visited[i] = make([]bool, bounds.Dx())
	}

	var components []image.Rectangle
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if img.GrayAt(x, y).Y > 128 && !visited[y-bounds.Min.Y][x-bounds.Min.X] {
				components = append(components, floodFill(img, visited, x, y))
			}
		}
	}
	return components
}

// floodFill performs flood fill from the start pixel and returns the
// bounding rectangle of the filled component.
func floodFill(img *image.Gray, visited [][]bool, startX, startY int) image.Rectangle {
	bounds := img.Bounds()
	minX, minY := startX, startY
	maxX, maxY := startX, startY

	stack := []image.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < bounds.Min.X || p.X >= bounds.Max.X || p.Y < bounds.Min.Y || p.Y >= bounds.Max.Y {
			continue
		}
		if visited[p.Y-bounds.Min.Y][p.X-bounds.Min.X] || img.GrayAt(p.X, p.Y).Y <= 128 {
			continue
		}
		visited[p.Y-bounds.Min.Y][p.X-bounds.Min.X] = true

		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}

		stack = append(stack,
			image.Point{X: p.X + 1, Y: p.Y},
			image.Point{X: p.X - 1, Y: p.Y},
			image.Point{X: p.X, Y: p.Y + 1},
			image.Point{X: p.X, Y: p.Y - 1},
		)
	}

	return image.Rect(minX, minY, maxX+1, maxY+1)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
