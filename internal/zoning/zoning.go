// Package zoning assigns lots to named zones ("manzanas") using static
// rectangular rules.
//
// A zone is a conjunction of axis-aligned half-planes over the lot centroid in
// pixel space. Zones are evaluated in declaration order and the first match
// wins, so overlapping rules are legal and resolved by position. Lots matching
// no rule, or without a centroid, land in lots.Sentinel.
//
// The rule table is ground truth for one site plan. It is loaded from
// configuration, never derived from the image.
package zoning

import (
	"fmt"
	"strings"

	"github.com/ironsheep/lotplan-mcp/internal/geo"
	"github.com/ironsheep/lotplan-mcp/internal/lots"
)

// Zone is a named rectangular predicate.
type Zone struct {
	Name string
	When []Constraint
}

// Contains reports whether every constraint holds for p.
func (z Zone) Contains(p geo.Pixel) bool {
	for _, c := range z.When {
		if !c.Holds(p) {
			return false
		}
	}
	return true
}

func (z Zone) String() string {
	parts := make([]string, len(z.When))
	for i, c := range z.When {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%s: %s", z.Name, strings.Join(parts, " and "))
}

// Classifier evaluates zones in a fixed priority order.
type Classifier struct {
	zones []Zone
}

// NewClassifier validates the zone table and returns a classifier.
//
// Zone names must be unique, non-empty and different from lots.Sentinel.
// Every zone needs at least one constraint; an unconstrained zone would
// swallow every later one.
func NewClassifier(zones []Zone) (*Classifier, error) {
	seen := make(map[string]bool, len(zones))
	for i, z := range zones {
		switch {
		case strings.TrimSpace(z.Name) == "":
			return nil, fmt.Errorf("zone #%d has no name", i+1)
		case z.Name == lots.Sentinel:
			return nil, fmt.Errorf("zone #%d uses the reserved name %q", i+1, lots.Sentinel)
		case seen[z.Name]:
			return nil, fmt.Errorf("zone %q declared twice", z.Name)
		case len(z.When) == 0:
			return nil, fmt.Errorf("zone %q has no constraints", z.Name)
		}
		seen[z.Name] = true
	}

	cp := make([]Zone, len(zones))
	copy(cp, zones)
	return &Classifier{zones: cp}, nil
}

// Zones returns the zones in priority order.
func (c *Classifier) Zones() []Zone {
	out := make([]Zone, len(c.zones))
	copy(out, c.zones)
	return out
}

// Classify returns the first zone whose predicate holds for p, or
// lots.Sentinel.
func (c *Classifier) Classify(p geo.Pixel) string {
	for _, z := range c.zones {
		if z.Contains(p) {
			return z.Name
		}
	}
	return lots.Sentinel
}

// Partition is the result of classifying a lot set.
type Partition struct {
	// Names lists every configured zone in priority order, followed by
	// lots.Sentinel. Zones with no members are included.
	Names []string

	// Members maps a zone name to its lots, in input order.
	Members map[string][]lots.Lot
}

// Zone returns the members of one zone.
func (p *Partition) Zone(name string) []lots.Lot {
	return p.Members[name]
}

// Len returns the total number of lots across all zones.
func (p *Partition) Len() int {
	n := 0
	for _, members := range p.Members {
		n += len(members)
	}
	return n
}

// Partition classifies every lot. Each lot ends up in exactly one zone.
func (c *Classifier) Partition(all []lots.Lot) *Partition {
	p := &Partition{
		Names:   make([]string, 0, len(c.zones)+1),
		Members: make(map[string][]lots.Lot, len(c.zones)+1),
	}
	for _, z := range c.zones {
		p.Names = append(p.Names, z.Name)
	}
	p.Names = append(p.Names, lots.Sentinel)

	for _, lot := range all {
		zone := lots.Sentinel
		if lot.Centroid != nil {
			zone = c.Classify(*lot.Centroid)
		}
		p.Members[zone] = append(p.Members[zone], lot)
	}
	return p
}
