package zoning

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ironsheep/lotplan-mcp/internal/geo"
)

// Axis selects the pixel coordinate a constraint tests.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// Op is a comparison operator.
type Op int

const (
	Less Op = iota
	LessEqual
	Greater
	GreaterEqual
)

func (o Op) String() string {
	switch o {
	case LessEqual:
		return "<="
	case Greater:
		return ">"
	case GreaterEqual:
		return ">="
	default:
		return "<"
	}
}

// flip mirrors the operator so "v < x" can be rewritten as "x > v".
func (o Op) flip() Op {
	switch o {
	case Less:
		return Greater
	case LessEqual:
		return GreaterEqual
	case Greater:
		return Less
	default:
		return LessEqual
	}
}

// Constraint is an axis-aligned half-plane over pixel coordinates.
type Constraint struct {
	Axis  Axis
	Op    Op
	Value float64
}

// Holds reports whether p lies in the half-plane.
func (c Constraint) Holds(p geo.Pixel) bool {
	v := p.X
	if c.Axis == AxisY {
		v = p.Y
	}
	switch c.Op {
	case Less:
		return v < c.Value
	case LessEqual:
		return v <= c.Value
	case Greater:
		return v > c.Value
	default:
		return v >= c.Value
	}
}

func (c Constraint) String() string {
	return fmt.Sprintf("%s %s %s", c.Axis, c.Op, strconv.FormatFloat(c.Value, 'f', -1, 64))
}

// ParseConstraint parses one constraint expression.
//
// Accepted forms, with tokens separated by spaces:
//
//	x > 1400
//	1400 < x
//	770 < x <= 1400
//
// The chained form yields two constraints.
func ParseConstraint(expr string) ([]Constraint, error) {
	tokens := strings.Fields(expr)
	switch len(tokens) {
	case 3:
		c, err := parseComparison(tokens[0], tokens[1], tokens[2])
		if err != nil {
			return nil, fmt.Errorf("invalid constraint %q: %w", expr, err)
		}
		return []Constraint{c}, nil
	case 5:
		lower, err := parseComparison(tokens[0], tokens[1], tokens[2])
		if err != nil {
			return nil, fmt.Errorf("invalid constraint %q: %w", expr, err)
		}
		upper, err := parseComparison(tokens[2], tokens[3], tokens[4])
		if err != nil {
			return nil, fmt.Errorf("invalid constraint %q: %w", expr, err)
		}
		if _, err := parseAxis(tokens[2]); err != nil {
			return nil, fmt.Errorf("invalid constraint %q: chained form needs the axis in the middle", expr)
		}
		return []Constraint{lower, upper}, nil
	default:
		return nil, fmt.Errorf("invalid constraint %q: expected \"x > 10\" or \"10 < x <= 20\"", expr)
	}
}

// parseComparison accepts "axis op value" or "value op axis".
func parseComparison(left, op, right string) (Constraint, error) {
	o, err := parseOp(op)
	if err != nil {
		return Constraint{}, err
	}

	if axis, err := parseAxis(left); err == nil {
		v, err := strconv.ParseFloat(right, 64)
		if err != nil {
			return Constraint{}, fmt.Errorf("bad number %q", right)
		}
		return Constraint{Axis: axis, Op: o, Value: v}, nil
	}

	axis, err := parseAxis(right)
	if err != nil {
		return Constraint{}, fmt.Errorf("no axis in %q %s %q", left, op, right)
	}
	v, err := strconv.ParseFloat(left, 64)
	if err != nil {
		return Constraint{}, fmt.Errorf("bad number %q", left)
	}
	return Constraint{Axis: axis, Op: o.flip(), Value: v}, nil
}

func parseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

func parseOp(s string) (Op, error) {
	switch s {
	case "<":
		return Less, nil
	case "<=":
		return LessEqual, nil
	case ">":
		return Greater, nil
	case ">=":
		return GreaterEqual, nil
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}
