// Package config loads the site-plan configuration: extraction parameters,
// the ordered zone table, per-zone ordering plans and lot types.
//
// The configuration is a single JSON document read once at startup. Unknown
// fields are rejected, and so are unknown strategy names: silently falling
// back to a default strategy shifts lot numbers without any visible error.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/lotplan-mcp/internal/detection"
	"github.com/ironsheep/lotplan-mcp/internal/lots"
	"github.com/ironsheep/lotplan-mcp/internal/sequence"
	"github.com/ironsheep/lotplan-mcp/internal/zoning"
)

// EnvPath names the environment variable holding the default config path.
const EnvPath = "LOTPLAN_CONFIG"

// Strategy names accepted in "order.strategy".
const (
	StrategyLeftToRight   = "left-to-right-top-down"
	StrategyRightToLeft   = "right-to-left-top-down"
	StrategyRowGrouped    = "row-grouped"
	StrategyPerimeterWalk = "perimeter-walk"
	StrategySingleRow     = "single-row"
)

// DefaultLotType is used when the document does not set default_lot_type.
const DefaultLotType = "Tipo A1"

// Plan is the decoded configuration document.
type Plan struct {
	Name           string              `json:"name,omitempty"`
	Extraction     detection.Params    `json:"extraction"`
	Zones          []Zone              `json:"zones"`
	LotTypes       map[string][]string `json:"lot_types,omitempty"`
	DefaultLotType string              `json:"default_lot_type,omitempty"`
}

// Zone is one entry of the zone table. Order matters: the first zone whose
// constraints all hold claims the lot.
type Zone struct {
	Name  string   `json:"name"`
	When  []string `json:"when"`
	Order *Order   `json:"order,omitempty"`
}

// Order selects the ordering strategy of a zone. A nil Order means
// left-to-right-top-down.
type Order struct {
	Strategy      string  `json:"strategy"`
	RowTolerance  float64 `json:"row_tolerance,omitempty"`
	WallTolerance float64 `json:"wall_tolerance,omitempty"`
	Rotate        bool    `json:"rotate,omitempty"`
	SwapLast      bool    `json:"swap_last,omitempty"`
}

// Error is a configuration error located by zone and field.
type Error struct {
	Zone  string
	Field string
	Msg   string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Zone != "" {
		fmt.Fprintf(&b, ": zone %q", e.Zone)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, ": %s", e.Field)
	}
	fmt.Fprintf(&b, ": %s", e.Msg)
	return b.String()
}

// DefaultPath returns the path from LOTPLAN_CONFIG, or "".
func DefaultPath() string {
	return strings.TrimSpace(os.Getenv(EnvPath))
}

// Load reads and validates the configuration file at path.
func Load(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Parse decodes and validates a configuration held in memory.
func Parse(raw []byte) (*Plan, error) {
	return Decode(bytes.NewReader(raw))
}

// Decode reads one JSON document from r. Extraction parameters not present in
// the document keep their defaults.
func Decode(r io.Reader) (*Plan, error) {
	p := &Plan{Extraction: detection.DefaultParams()}

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if dec.More() {
		return nil, errors.New("failed to decode config: trailing data after document")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the whole document. The returned error is a *Error.
func (p *Plan) Validate() error {
	if err := p.Extraction.Validate(); err != nil {
		return &Error{Field: "extraction", Msg: err.Error()}
	}
	if len(p.Zones) == 0 {
		return &Error{Field: "zones", Msg: "at least one zone is required"}
	}
	if _, _, err := p.Build(); err != nil {
		return err
	}
	return p.validateLotTypes()
}

// Build compiles the zone table into a classifier and per-zone plans.
func (p *Plan) Build() (*zoning.Classifier, map[string]sequence.Plan, error) {
	zones := make([]zoning.Zone, 0, len(p.Zones))
	plans := make(map[string]sequence.Plan, len(p.Zones))

	for i, zc := range p.Zones {
		name := strings.TrimSpace(zc.Name)
		if name == "" {
			return nil, nil, &Error{Field: fmt.Sprintf("zones[%d].name", i), Msg: "must not be empty"}
		}
		if name == lots.Sentinel {
			return nil, nil, &Error{Zone: name, Field: "name", Msg: "reserved for unassigned lots"}
		}
		if _, dup := plans[name]; dup {
			return nil, nil, &Error{Zone: name, Field: "name", Msg: "declared more than once"}
		}
		if len(zc.When) == 0 {
			return nil, nil, &Error{Zone: name, Field: "when", Msg: "at least one constraint is required"}
		}

		z := zoning.Zone{Name: name}
		for j, expr := range zc.When {
			cs, err := zoning.ParseConstraint(expr)
			if err != nil {
				return nil, nil, &Error{Zone: name, Field: fmt.Sprintf("when[%d]", j), Msg: err.Error()}
			}
			z.When = append(z.When, cs...)
		}

		plan, err := zc.Order.plan()
		if err != nil {
			var ce *Error
			if errors.As(err, &ce) {
				ce.Zone = name
				return nil, nil, ce
			}
			return nil, nil, &Error{Zone: name, Field: "order", Msg: err.Error()}
		}

		zones = append(zones, z)
		plans[name] = plan
	}

	classifier, err := zoning.NewClassifier(zones)
	if err != nil {
		return nil, nil, &Error{Field: "zones", Msg: err.Error()}
	}
	return classifier, plans, nil
}

func (o *Order) plan() (sequence.Plan, error) {
	if o == nil {
		return sequence.Plan{Strategy: sequence.LinearScan{}}, nil
	}

	reject := func(field, strategy string) error {
		return &Error{Field: "order." + field, Msg: fmt.Sprintf("not valid for strategy %q", strategy)}
	}

	var s sequence.Strategy
	switch o.Strategy {
	case StrategyLeftToRight, StrategyRightToLeft:
		switch {
		case o.RowTolerance != 0:
			return sequence.Plan{}, reject("row_tolerance", o.Strategy)
		case o.WallTolerance != 0:
			return sequence.Plan{}, reject("wall_tolerance", o.Strategy)
		case o.Rotate:
			return sequence.Plan{}, reject("rotate", o.Strategy)
		}
		s = sequence.LinearScan{RightToLeft: o.Strategy == StrategyRightToLeft}
	case StrategyRowGrouped:
		if o.WallTolerance != 0 {
			return sequence.Plan{}, reject("wall_tolerance", o.Strategy)
		}
		if o.Rotate {
			return sequence.Plan{}, reject("rotate", o.Strategy)
		}
		s = sequence.RowGrouped{Tolerance: o.RowTolerance}
	case StrategyPerimeterWalk:
		if o.RowTolerance != 0 {
			return sequence.Plan{}, reject("row_tolerance", o.Strategy)
		}
		s = sequence.PerimeterWalk{Tolerance: o.WallTolerance, Rotate: o.Rotate}
	case StrategySingleRow:
		if o.WallTolerance != 0 {
			return sequence.Plan{}, reject("wall_tolerance", o.Strategy)
		}
		if o.Rotate {
			return sequence.Plan{}, reject("rotate", o.Strategy)
		}
		s = sequence.SingleRow{Tolerance: o.RowTolerance}
	case "":
		return sequence.Plan{}, &Error{Field: "order.strategy", Msg: "missing"}
	default:
		return sequence.Plan{}, &Error{Field: "order.strategy", Msg: fmt.Sprintf("unknown strategy %q", o.Strategy)}
	}

	plan := sequence.Plan{Strategy: s, SwapLast: o.SwapLast}
	if err := plan.Validate(); err != nil {
		return sequence.Plan{}, &Error{Field: "order", Msg: err.Error()}
	}
	return plan, nil
}

func (p *Plan) validateLotTypes() error {
	known := make(map[string]bool, len(p.Zones))
	for _, z := range p.Zones {
		known[strings.TrimSpace(z.Name)] = true
	}

	owner := make(map[lots.Key]string)
	for label, ids := range p.LotTypes {
		if strings.TrimSpace(label) == "" {
			return &Error{Field: "lot_types", Msg: "empty type label"}
		}
		for _, id := range ids {
			key, err := ParseKey(id)
			if err != nil {
				return &Error{Field: "lot_types." + label, Msg: err.Error()}
			}
			if !known[key.Zone] {
				return &Error{Zone: key.Zone, Field: "lot_types." + label, Msg: fmt.Sprintf("lot %s refers to an unknown zone", id)}
			}
			if prev, dup := owner[key]; dup && prev != label {
				return &Error{Zone: key.Zone, Field: "lot_types." + label, Msg: fmt.Sprintf("lot %s already has type %q", id, prev)}
			}
			owner[key] = label
		}
	}
	return nil
}

// LotType returns the type label of a lot, or the default type.
func (p *Plan) LotType(k lots.Key) string {
	for label, ids := range p.LotTypes {
		for _, id := range ids {
			if key, err := ParseKey(id); err == nil && key == k {
				return label
			}
		}
	}
	if p.DefaultLotType != "" {
		return p.DefaultLotType
	}
	return DefaultLotType
}

// ParseKey splits a lot label such as "D11" into zone and number. The number
// is the trailing run of digits.
func ParseKey(id string) (lots.Key, error) {
	id = strings.TrimSpace(id)
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i == 0 || i == len(id) {
		return lots.Key{}, fmt.Errorf("invalid lot id %q: want zone followed by number", id)
	}
	n, err := strconv.Atoi(id[i:])
	if err != nil || n < 1 {
		return lots.Key{}, fmt.Errorf("invalid lot id %q: bad number", id)
	}
	return lots.Key{Zone: id[:i], Number: n}, nil
}
