// Package pipeline composes lot extraction, zone classification and
// sequencing into a single pure run.
//
// A run reads one decoded raster and one configuration and returns the
// detected lots with their (zone, number) assignments. It holds no state
// between calls; identical inputs produce identical results.
package pipeline

import (
	"fmt"
	"image"
	"log"
	"sort"

	"github.com/ironsheep/lotplan-mcp/internal/config"
	"github.com/ironsheep/lotplan-mcp/internal/detection"
	"github.com/ironsheep/lotplan-mcp/internal/geo"
	"github.com/ironsheep/lotplan-mcp/internal/lots"
	"github.com/ironsheep/lotplan-mcp/internal/sequence"
)

// Options adjusts a run.
type Options struct {
	// Mapper converts outline vertices to rendering space.
	// Nil means geo.FlipY over the image height.
	Mapper geo.Mapper

	// Verbose logs per-zone counts.
	Verbose bool
}

// ZoneSummary describes one zone after sequencing.
type ZoneSummary struct {
	Name     string `json:"name"`
	Strategy string `json:"strategy,omitempty"`
	Count    int    `json:"count"`

	// Order lists lot indices in number order. Empty for the sentinel zone.
	Order []int `json:"order,omitempty"`
}

// Result is the outcome of one run.
type Result struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Lots are in discovery order; Lots[i].Index == i.
	Lots []lots.Lot `json:"lots"`

	// Assignments holds one entry per lot, in the same order as Lots.
	Assignments []lots.Assignment `json:"assignments"`

	// Zones lists every configured zone in priority order, then the sentinel.
	Zones []ZoneSummary `json:"zones"`

	Stats    detection.Stats `json:"stats"`
	Warnings []string        `json:"warnings,omitempty"`
}

// Run extracts, classifies and numbers the lots of img.
func Run(img image.Image, plan *config.Plan, opts Options) (*Result, error) {
	if plan == nil {
		return nil, fmt.Errorf("no configuration")
	}

	classifier, plans, err := plan.Build()
	if err != nil {
		return nil, err
	}

	extracted, err := detection.ExtractLots(img, plan.Extraction, opts.Mapper)
	if err != nil {
		return nil, fmt.Errorf("lot extraction failed: %w", err)
	}

	partition := classifier.Partition(extracted.Lots)
	outcome, err := sequence.Sequence(partition, plans)
	if err != nil {
		return nil, fmt.Errorf("sequencing failed: %w", err)
	}

	res := &Result{
		Width:       extracted.Width,
		Height:      extracted.Height,
		Lots:        extracted.Lots,
		Assignments: outcome.Assignments,
		Stats:       extracted.Stats,
		Warnings:    outcome.Warnings,
	}
	for _, name := range partition.Names {
		zs := ZoneSummary{Name: name, Count: len(partition.Zone(name)), Order: outcome.Orders[name]}
		if p, ok := plans[name]; ok {
			zs.Strategy = p.String()
		}
		res.Zones = append(res.Zones, zs)
	}

	for _, w := range res.Warnings {
		log.Printf("WARNING: %s", w)
	}
	if opts.Verbose {
		log.Printf("Detected %d lots in %dx%d image (%+v)", len(res.Lots), res.Width, res.Height, res.Stats)
		for _, zs := range res.Zones {
			log.Printf("  zone %-10s %3d lot(s) %s", zs.Name, zs.Count, zs.Strategy)
		}
	}

	return res, nil
}

// Assignment returns the assignment of the lot with the given index.
func (r *Result) Assignment(index int) (lots.Assignment, bool) {
	i := sort.Search(len(r.Assignments), func(i int) bool { return r.Assignments[i].Index >= index })
	if i < len(r.Assignments) && r.Assignments[i].Index == index {
		return r.Assignments[i], true
	}
	return lots.Assignment{}, false
}

// Lookup finds a lot by its zone and sequence number.
func (r *Result) Lookup(zone string, number int) (lots.Lot, bool) {
	if number < 1 || zone == lots.Sentinel {
		return lots.Lot{}, false
	}
	for _, a := range r.Assignments {
		if a.Zone == zone && a.Number == number {
			return r.lot(a.Index)
		}
	}
	return lots.Lot{}, false
}

// AssignmentMap returns index -> (zone, number) for every lot.
func (r *Result) AssignmentMap() map[int]lots.Key {
	m := make(map[int]lots.Key, len(r.Assignments))
	for _, a := range r.Assignments {
		m[a.Index] = a.Key()
	}
	return m
}

// Numbered returns the assignments that carry a sequence number, ordered by
// zone priority and number.
func (r *Result) Numbered() []lots.Assignment {
	rank := make(map[string]int, len(r.Zones))
	for i, z := range r.Zones {
		rank[z.Name] = i
	}

	var out []lots.Assignment
	for _, a := range r.Assignments {
		if a.Numbered() {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Zone != out[j].Zone {
			return rank[out[i].Zone] < rank[out[j].Zone]
		}
		return out[i].Number < out[j].Number
	})
	return out
}

func (r *Result) lot(index int) (lots.Lot, bool) {
	if index >= 0 && index < len(r.Lots) && r.Lots[index].Index == index {
		return r.Lots[index], true
	}
	for _, l := range r.Lots {
		if l.Index == index {
			return l, true
		}
	}
	return lots.Lot{}, false
}
