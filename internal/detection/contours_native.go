//go:build !gocv

package detection

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/effect"
)

// moore lists the 8 neighbours clockwise (on screen, Y down), starting east.
var moore = [8]image.Point{
	{X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1},
	{X: -1, Y: 0}, {X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1},
}

const west = 4

// findContours binarizes and opens the grayscale raster, then traces the
// outer border of every external foreground blob.
func findContours(gray *image.Gray, p Params) ([]contour, error) {
	mask, width, height := foregroundMask(gray, p)
	return traceExternal(mask, width, height), nil
}

// foregroundMask returns a row-major mask where true marks a lot pixel.
//
// Lots are painted white on black before the opening (erode, then dilate).
// The cut-off compares intensity bytes exactly; bild's segment.Threshold
// would re-weight the already gray pixels and truncate.
func foregroundMask(gray *image.Gray, p Params) ([]bool, int, int) {
	gb := gray.Bounds()
	bin := image.NewGray(gb)
	for y := gb.Min.Y; y < gb.Max.Y; y++ {
		for x := gb.Min.X; x < gb.Max.X; x++ {
			if gray.Pix[gray.PixOffset(x, y)] < p.Threshold {
				bin.Pix[bin.PixOffset(x, y)] = 0xff
			}
		}
	}

	var opened image.Image = bin
	if radius := float64(p.KernelSize / 2); radius > 0 {
		opened = effect.Dilate(effect.Erode(bin, radius), radius)
	}
	fg := clone.AsShallowRGBA(opened)

	bounds := fg.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	mask := make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := fg.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)
			mask[y*width+x] = fg.Pix[i] > 127
		}
	}
	return mask, width, height
}

// binaryImage is a foreground mask with bounds-checked access.
type binaryImage struct {
	mask   []bool
	width  int
	height int
}

func (b *binaryImage) at(p image.Point) bool {
	if p.X < 0 || p.Y < 0 || p.X >= b.width || p.Y >= b.height {
		return false
	}
	return b.mask[p.Y*b.width+p.X]
}

// traceExternal returns the outer border of each 8-connected foreground blob
// that is reachable from the image border through background, in raster
// order of each blob's top-left pixel.
//
// A blob whose first raster pixel sits right of a hole pixel lies inside
// another blob and is skipped, matching external-only retrieval.
func traceExternal(mask []bool, width, height int) []contour {
	b := &binaryImage{mask: mask, width: width, height: height}
	outside := outsideBackground(b)
	visited := make([]bool, width*height)

	contours := make([]contour, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if !mask[i] || visited[i] {
				continue
			}
			nested := x > 0 && !outside[i-1]
			fillComponent(b, visited, image.Point{X: x, Y: y})
			if nested {
				continue
			}
			contours = append(contours, compressChain(b.traceBorder(image.Point{X: x, Y: y})))
		}
	}
	return contours
}

// outsideBackground marks background pixels 4-connected to the image border.
// Background left unmarked belongs to holes.
func outsideBackground(b *binaryImage) []bool {
	outside := make([]bool, b.width*b.height)
	stack := make([]image.Point, 0)

	push := func(x, y int) {
		i := y*b.width + x
		if !b.mask[i] && !outside[i] {
			outside[i] = true
			stack = append(stack, image.Point{X: x, Y: y})
		}
	}

	for x := 0; x < b.width; x++ {
		push(x, 0)
		push(x, b.height-1)
	}
	for y := 0; y < b.height; y++ {
		push(0, y)
		push(b.width-1, y)
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X > 0 {
			push(p.X-1, p.Y)
		}
		if p.X < b.width-1 {
			push(p.X+1, p.Y)
		}
		if p.Y > 0 {
			push(p.X, p.Y-1)
		}
		if p.Y < b.height-1 {
			push(p.X, p.Y+1)
		}
	}
	return outside
}

// fillComponent marks every pixel 8-connected to start as visited.
//
// Uses an explicit stack rather than recursion so large blobs cannot
// overflow the goroutine stack.
func fillComponent(b *binaryImage, visited []bool, start image.Point) {
	stack := []image.Point{start}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !b.at(p) {
			continue
		}
		i := p.Y*b.width + p.X
		if visited[i] {
			continue
		}
		visited[i] = true

		for _, d := range moore {
			stack = append(stack, p.Add(d))
		}
	}
}

// traceBorder follows the outer boundary of the blob containing start using
// Moore-neighbour tracing. start must be the blob's first pixel in raster
// order, so its west neighbour is background.
//
// Tracing stops when the walk is back at start and about to repeat its first
// move. The returned chain is closed implicitly.
func (b *binaryImage) traceBorder(start image.Point) []image.Point {
	chain := []image.Point{start}
	cur, back := start, west
	var second image.Point
	limit := 4*b.width*b.height + 8

	for steps := 0; steps < limit; steps++ {
		next, nextBack, ok := b.step(cur, back)
		if !ok {
			// isolated pixel
			return chain
		}
		if steps == 0 {
			second = next
		} else if cur == start && next == second {
			chain = chain[:len(chain)-1]
			break
		}
		cur, back = next, nextBack
		chain = append(chain, cur)
	}
	return chain
}

// step scans the neighbours of cur clockwise, starting just after the
// backtrack direction, and returns the first foreground pixel together with
// the direction from it to the last background pixel examined.
func (b *binaryImage) step(cur image.Point, back int) (image.Point, int, bool) {
	for i := 1; i <= 8; i++ {
		d := (back + i) % 8
		n := cur.Add(moore[d])
		if !b.at(n) {
			continue
		}
		prev := cur.Add(moore[(back+i-1)%8])
		return n, direction(prev.Sub(n)), true
	}
	return image.Point{}, 0, false
}

// direction returns the index in moore of a unit step.
func direction(d image.Point) int {
	for i, m := range moore {
		if m == d {
			return i
		}
	}
	return west
}
