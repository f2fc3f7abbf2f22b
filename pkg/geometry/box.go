// Package geometry provides the bounding-box type shared by the detection
// and recognition layers.
package geometry

import "image"

// Box is an axis-aligned bounding box in [x1, y1, x2, y2] order. It marshals
// to a plain four-element JSON array, which is the wire format used for all
// detection results.
type Box [4]int

// NewBox creates a Box from corner coordinates.
func NewBox(x1, y1, x2, y2 int) Box {
	return Box{x1, y1, x2, y2}
}

// FromRect converts an image.Rectangle to a Box.
func FromRect(r image.Rectangle) Box {
	return Box{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y}
}

// Rect converts the Box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b[0], b[1], b[2], b[3])
}

// Width returns the horizontal extent of the box.
func (b Box) Width() int {
	return b[2] - b[0]
}

// Height returns the vertical extent of the box.
func (b Box) Height() int {
	return b[3] - b[1]
}

// Area returns the box area. Degenerate boxes report zero.
func (b Box) Area() int {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Clamp restricts the box to an image of the given dimensions. The result is
// guaranteed to lie within [0,width]x[0,height]; it may be empty.
func (b Box) Clamp(width, height int) Box {
	c := b
	if c[0] < 0 {
		c[0] = 0
	}
	if c[1] < 0 {
		c[1] = 0
	}
	if c[2] > width {
		c[2] = width
	}
	if c[3] > height {
		c[3] = height
	}
	if c[2] < c[0] {
		c[2] = c[0]
	}
	if c[3] < c[1] {
		c[3] = c[1]
	}
	return c
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.Area() == 0
}

// Offset translates the box by (dx, dy). Used to remap plate coordinates
// from vehicle-local space back to frame-global space.
func (b Box) Offset(dx, dy int) Box {
	return Box{b[0] + dx, b[1] + dy, b[2] + dx, b[3] + dy}
}
