package canvas

import (
	"image/color"
	"math"

	"github.com/dshills/inkwell/internal/engine/stroke"
)

// Rasterization of stroke segments into the pixel buffer. All functions
// here assume the canvas lock is held.

// stamp paints a brush dot at p.
func (c *Canvas) stamp(p stroke.Point, col color.RGBA, width float64) {
	c.dot(int(math.Round(p.X)), int(math.Round(p.Y)), col, width)
}

// line paints a segment from a to b using Bresenham's algorithm, stamping
// the brush at every step.
func (c *Canvas) line(a, b stroke.Point, col color.RGBA, width float64) {
	x0, y0 := int(math.Round(a.X)), int(math.Round(a.Y))
	x1, y1 := int(math.Round(b.X)), int(math.Round(b.Y))

	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		c.dot(x0, y0, col, width)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// dot fills a disc of the brush width centered at (x, y), clipped to the
// buffer.
func (c *Canvas) dot(x, y int, col color.RGBA, width float64) {
	r := int(width / 2)
	if r <= 0 {
		c.setPixel(x, y, col)
		return
	}
	for oy := -r; oy <= r; oy++ {
		for ox := -r; ox <= r; ox++ {
			if ox*ox+oy*oy <= r*r {
				c.setPixel(x+ox, y+oy, col)
			}
		}
	}
}

func (c *Canvas) setPixel(x, y int, col color.RGBA) {
	if x < 0 || y < 0 || x >= c.width || y >= c.height {
		return
	}
	c.img.SetRGBA(x, y, col)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
