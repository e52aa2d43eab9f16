package metabolic

import (
	"fmt"
	"strconv"
	"strings"
)

// Arrow tokens recognised in reaction equations. "->" style arrows make the
// reaction irreversible forward, "<-" style reverse-only, and "<=>"/"<->"
// reversible within the default bound magnitude.
var equationArrows = []string{"<=>", "<->", "-->", "<--", "->", "<-"}

// ParseEquation builds a reaction from a stoichiometry string such as
// "2 glc_e + atp_c -> g6p_c". Species on the left receive negative
// coefficients, species on the right positive; numeric prefixes scale the
// coefficient. Bounds follow the arrow direction.
func ParseEquation(id, equation string) (Reaction, error) {
	arrow := ""
	for _, candidate := range equationArrows {
		if strings.Contains(equation, candidate) {
			arrow = candidate
			break
		}
	}
	if arrow == "" {
		return Reaction{}, fmt.Errorf("reaction %s equation %q has no arrow", id, equation)
	}
	sides := strings.SplitN(equation, arrow, 2)
	stoichiometry := make(map[string]float64)
	if err := parseEquationSide(sides[0], -1, stoichiometry); err != nil {
		return Reaction{}, fmt.Errorf("reaction %s: %w", id, err)
	}
	if err := parseEquationSide(sides[1], 1, stoichiometry); err != nil {
		return Reaction{}, fmt.Errorf("reaction %s: %w", id, err)
	}
	if len(stoichiometry) == 0 {
		return Reaction{}, fmt.Errorf("reaction %s equation %q is empty", id, equation)
	}
	rxn := Reaction{ID: id, Stoichiometry: stoichiometry}
	switch arrow {
	case "<=>", "<->":
		rxn.LowerBound = -DefaultBound
		rxn.UpperBound = DefaultBound
	case "<-", "<--":
		rxn.LowerBound = -DefaultBound
	default:
		rxn.UpperBound = DefaultBound
	}
	return rxn, nil
}

func parseEquationSide(side string, sign float64, into map[string]float64) error {
	for _, term := range strings.Split(side, "+") {
		fields := strings.Fields(term)
		switch len(fields) {
		case 0:
			continue
		case 1:
			into[fields[0]] += sign
		case 2:
			coefficient, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				return fmt.Errorf("bad coefficient %q", fields[0])
			}
			into[fields[1]] += sign * coefficient
		default:
			return fmt.Errorf("bad term %q", strings.TrimSpace(term))
		}
	}
	return nil
}
