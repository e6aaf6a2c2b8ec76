// Package sequence derives per-zone lot numbers.
//
// Each zone is ordered by one Strategy, optionally followed by a swap of the
// final two elements, and numbered 1..N by position. Ordering only ever reads
// pixel-space centroids. Sorts are stable and fall back to the lot index, so
// the same input always yields the same numbers.
package sequence

import (
	"fmt"
	"sort"

	"github.com/ironsheep/lotplan-mcp/internal/lots"
	"github.com/ironsheep/lotplan-mcp/internal/zoning"
)

// Plan is the ordering configuration of one zone.
type Plan struct {
	Strategy Strategy

	// SwapLast exchanges the final two elements after ordering.
	// Skipped for zones with fewer than two members.
	SwapLast bool
}

// Validate checks the strategy parameters.
func (p Plan) Validate() error {
	if p.Strategy == nil {
		return fmt.Errorf("no ordering strategy")
	}
	return p.Strategy.validate()
}

func (p Plan) String() string {
	if p.Strategy == nil {
		return "<none>"
	}
	if p.SwapLast {
		return p.Strategy.String() + "+swap-last"
	}
	return p.Strategy.String()
}

func (p Plan) order(members []lots.Lot) (ordered, stray []member, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	ms, err := toMembers(members)
	if err != nil {
		return nil, nil, err
	}

	ordered, stray = p.Strategy.apply(ms)
	if p.SwapLast && len(ordered) >= 2 {
		n := len(ordered)
		ordered[n-1], ordered[n-2] = ordered[n-2], ordered[n-1]
	}
	return ordered, stray, nil
}

// Order returns members in sequence order. Every member must have a centroid.
func Order(members []lots.Lot, plan Plan) ([]lots.Lot, error) {
	ordered, _, err := plan.order(members)
	if err != nil {
		return nil, err
	}
	return fromMembers(ordered), nil
}

// GroupRows buckets members into rows the way RowGrouped does, without
// sorting inside rows. Rows come back top to bottom.
func GroupRows(members []lots.Lot, tolerance float64) ([][]lots.Lot, error) {
	if tolerance <= 0 {
		return nil, fmt.Errorf("row tolerance must be positive, got %g", tolerance)
	}
	ms, err := toMembers(members)
	if err != nil {
		return nil, err
	}
	rows := groupRows(ms, tolerance)
	out := make([][]lots.Lot, len(rows))
	for i, row := range rows {
		out[i] = fromMembers(row)
	}
	return out, nil
}

// Number assigns 1-based sequence numbers by position.
func Number(zone string, ordered []lots.Lot) []lots.Assignment {
	out := make([]lots.Assignment, len(ordered))
	for i, l := range ordered {
		out[i] = lots.Assignment{Index: l.Index, Zone: zone, Number: i + 1}
	}
	return out
}

// Outcome is the result of sequencing a whole partition.
type Outcome struct {
	// Assignments holds one entry per lot, sorted by lot index.
	// Lots in lots.Sentinel have Number 0.
	Assignments []lots.Assignment

	// Orders maps each sequenced zone to its lot indices in number order.
	Orders map[string][]int

	// Warnings lists non-fatal irregularities, such as members a single-row
	// zone had to number after its row.
	Warnings []string
}

// Sequence orders and numbers every zone of p. Every configured zone needs a
// plan; the sentinel zone is never sequenced.
//
// On error no assignments are returned.
func Sequence(p *zoning.Partition, plans map[string]Plan) (*Outcome, error) {
	out := &Outcome{Orders: make(map[string][]int)}

	for _, zone := range p.Names {
		members := p.Zone(zone)
		if zone == lots.Sentinel {
			for _, l := range members {
				out.Assignments = append(out.Assignments, lots.Assignment{Index: l.Index, Zone: zone})
			}
			continue
		}

		plan, ok := plans[zone]
		if !ok {
			return nil, fmt.Errorf("zone %q has no ordering plan", zone)
		}
		ordered, stray, err := plan.order(members)
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", zone, err)
		}
		if len(ordered) == 0 {
			continue
		}

		indices := make([]int, len(ordered))
		for i, m := range ordered {
			indices[i] = m.lot.Index
		}
		out.Orders[zone] = indices
		out.Assignments = append(out.Assignments, Number(zone, fromMembers(ordered))...)

		if len(stray) > 0 {
			strayIdx := make([]int, len(stray))
			for i, m := range stray {
				strayIdx[i] = m.lot.Index
			}
			out.Warnings = append(out.Warnings, fmt.Sprintf(
				"zone %q: %d lot(s) outside the first row numbered after it: %v", zone, len(stray), strayIdx))
		}
	}

	sort.SliceStable(out.Assignments, func(i, j int) bool {
		return out.Assignments[i].Index < out.Assignments[j].Index
	})
	return out, nil
}

// toMembers unpacks centroids and puts members in lot-index order.
func toMembers(in []lots.Lot) ([]member, error) {
	ms := make([]member, len(in))
	for i, l := range in {
		if l.Centroid == nil {
			return nil, fmt.Errorf("lot %d has no centroid", l.Index)
		}
		ms[i] = member{lot: l, x: l.Centroid.X, y: l.Centroid.Y}
	}
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].lot.Index < ms[j].lot.Index })
	return ms, nil
}

func fromMembers(ms []member) []lots.Lot {
	out := make([]lots.Lot, len(ms))
	for i, m := range ms {
		out[i] = m.lot
	}
	return out
}
