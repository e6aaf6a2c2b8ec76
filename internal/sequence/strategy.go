package sequence

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/lotplan-mcp/internal/lots"
)

// Default tolerances, in pixels.
const (
	DefaultRowTolerance       = 25.0
	MaxRowTolerance           = 40.0
	DefaultWallTolerance      = 30.0
	DefaultSingleRowTolerance = 40.0
)

// Strategy orders the members of one zone.
//
// The set of strategies is closed: LinearScan, RowGrouped, PerimeterWalk and
// SingleRow are the only implementations.
type Strategy interface {
	fmt.Stringer

	// apply returns the members in sequence order. stray lists members the
	// strategy could not place by its own rule and appended at the end.
	apply(ms []member) (ordered, stray []member)
	validate() error
}

// LinearScan sorts by (cy, cx), or by (cy, -cx) when RightToLeft is set.
type LinearScan struct {
	RightToLeft bool
}

func (s LinearScan) String() string {
	if s.RightToLeft {
		return "right-to-left-top-down"
	}
	return "left-to-right-top-down"
}

func (s LinearScan) apply(ms []member) ([]member, []member) {
	out := cloneMembers(ms)
	if s.RightToLeft {
		sortBy(out, byY, byNegX)
	} else {
		sortBy(out, byY, byX)
	}
	return out, nil
}

func (s LinearScan) validate() error { return nil }

// RowGrouped buckets members into rows and reads each row left to right.
// Rows are read in the order they were discovered, top to bottom.
type RowGrouped struct {
	// Tolerance is the maximum vertical distance to a row's first member.
	// Zero means DefaultRowTolerance.
	Tolerance float64
}

func (s RowGrouped) tolerance() float64 {
	if s.Tolerance == 0 {
		return DefaultRowTolerance
	}
	return s.Tolerance
}

func (s RowGrouped) String() string {
	return fmt.Sprintf("row-grouped(tol=%g)", s.tolerance())
}

func (s RowGrouped) apply(ms []member) ([]member, []member) {
	var out []member
	for _, row := range groupRows(ms, s.tolerance()) {
		sortBy(row, byX)
		out = append(out, row...)
	}
	return out, nil
}

func (s RowGrouped) validate() error {
	return checkRowTolerance(s.Tolerance)
}

// PerimeterWalk walks the zone's bounding box clockwise, starting at the
// bottom of the left wall: left wall upwards, top wall rightwards, right wall
// downwards, bottom wall leftwards. Members on no wall follow in input order.
type PerimeterWalk struct {
	// Tolerance is the wall band width. Zero means DefaultWallTolerance.
	Tolerance float64

	// Rotate moves the last element of the walk to the second position.
	// It only applies to walks of more than two members.
	Rotate bool
}

func (s PerimeterWalk) tolerance() float64 {
	if s.Tolerance == 0 {
		return DefaultWallTolerance
	}
	return s.Tolerance
}

func (s PerimeterWalk) String() string {
	if s.Rotate {
		return fmt.Sprintf("perimeter-walk(tol=%g,rotate)", s.tolerance())
	}
	return fmt.Sprintf("perimeter-walk(tol=%g)", s.tolerance())
}

func (s PerimeterWalk) apply(ms []member) ([]member, []member) {
	if len(ms) == 0 {
		return nil, nil
	}

	xs := make([]float64, len(ms))
	ys := make([]float64, len(ms))
	for i, m := range ms {
		xs[i], ys[i] = m.x, m.y
	}
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)
	tol := s.tolerance()

	claimed := make([]bool, len(ms))
	wall := func(on func(member) bool, keys ...func(member) float64) []member {
		var w []member
		for i, m := range ms {
			if !claimed[i] && on(m) {
				w = append(w, m)
				claimed[i] = true
			}
		}
		sortBy(w, keys...)
		return w
	}

	left := wall(func(m member) bool { return m.x < minX+tol }, byNegY)
	top := wall(func(m member) bool { return m.y < minY+tol }, byX)
	right := wall(func(m member) bool { return m.x > maxX-tol }, byY)
	bottom := wall(func(m member) bool { return m.y > maxY-tol }, byNegX)

	walk := make([]member, 0, len(ms))
	walk = append(walk, left...)
	walk = append(walk, top...)
	walk = append(walk, right...)
	walk = append(walk, bottom...)

	var interior []member
	for i, m := range ms {
		if !claimed[i] {
			interior = append(interior, m)
		}
	}
	walk = append(walk, interior...)

	if s.Rotate && len(walk) > 2 {
		last := walk[len(walk)-1]
		copy(walk[2:], walk[1:len(walk)-1])
		walk[1] = last
	}
	return walk, nil
}

func (s PerimeterWalk) validate() error {
	if s.Tolerance < 0 || math.IsNaN(s.Tolerance) {
		return fmt.Errorf("wall tolerance must be positive, got %g", s.Tolerance)
	}
	return nil
}

// SingleRow is for zones known to occupy one physical row. It takes the first
// discovered row and sorts it by cx.
//
// Members outside that row are not dropped. They are numbered after it, row
// by row and left to right, and reported as strays so numbers stay
// contiguous. Plans that expect those lots to stay unnumbered should split
// them into a zone of their own.
type SingleRow struct {
	// Tolerance is the row grouping tolerance. Zero means
	// DefaultSingleRowTolerance.
	Tolerance float64
}

func (s SingleRow) tolerance() float64 {
	if s.Tolerance == 0 {
		return DefaultSingleRowTolerance
	}
	return s.Tolerance
}

func (s SingleRow) String() string {
	return fmt.Sprintf("single-row(tol=%g)", s.tolerance())
}

func (s SingleRow) apply(ms []member) ([]member, []member) {
	rows := groupRows(ms, s.tolerance())
	if len(rows) == 0 {
		return nil, nil
	}

	var out, stray []member
	for i, row := range rows {
		sortBy(row, byX)
		out = append(out, row...)
		if i > 0 {
			stray = append(stray, row...)
		}
	}
	return out, stray
}

func (s SingleRow) validate() error {
	return checkRowTolerance(s.Tolerance)
}

func checkRowTolerance(t float64) error {
	if t < 0 || t > MaxRowTolerance || math.IsNaN(t) {
		return fmt.Errorf("row tolerance must be in (0, %g], got %g", MaxRowTolerance, t)
	}
	return nil
}

// member is a lot with its centroid unpacked.
type member struct {
	lot  lots.Lot
	x, y float64
}

func byX(m member) float64    { return m.x }
func byY(m member) float64    { return m.y }
func byNegX(m member) float64 { return -m.x }
func byNegY(m member) float64 { return -m.y }

// sortBy sorts lexicographically on keys, then on lot index.
func sortBy(ms []member, keys ...func(member) float64) {
	sort.SliceStable(ms, func(i, j int) bool {
		for _, k := range keys {
			a, b := k(ms[i]), k(ms[j])
			if a != b {
				return a < b
			}
		}
		return ms[i].lot.Index < ms[j].lot.Index
	})
}

// groupRows sorts by cy and places each member in the first row whose first
// member is strictly closer than tol vertically.
func groupRows(ms []member, tol float64) [][]member {
	sorted := cloneMembers(ms)
	sortBy(sorted, byY)

	var rows [][]member
	for _, m := range sorted {
		placed := false
		for i := range rows {
			if math.Abs(rows[i][0].y-m.y) < tol {
				rows[i] = append(rows[i], m)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, []member{m})
		}
	}
	return rows
}

func cloneMembers(ms []member) []member {
	out := make([]member, len(ms))
	copy(out, ms)
	return out
}
