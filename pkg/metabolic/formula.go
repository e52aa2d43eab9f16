package metabolic

// chargeKey is the pseudo-element under which net charge imbalance is
// reported alongside elemental imbalances.
const chargeKey = "charge"

// parseFormula expands an elemental formula such as "C6H12O6" or "Fe2S" into
// element counts. Element symbols are one uppercase letter followed by
// optional lowercase letters; counts default to 1.
func parseFormula(formula string) (map[string]float64, bool) {
	counts := make(map[string]float64)
	i := 0
	for i < len(formula) {
		c := formula[i]
		if c < 'A' || c > 'Z' {
			return nil, false
		}
		start := i
		i++
		for i < len(formula) && formula[i] >= 'a' && formula[i] <= 'z' {
			i++
		}
		element := formula[start:i]
		count := 0.0
		digits := 0
		for i < len(formula) && formula[i] >= '0' && formula[i] <= '9' {
			count = count*10 + float64(formula[i]-'0')
			digits++
			i++
		}
		if digits == 0 {
			count = 1
		}
		counts[element] += count
	}
	return counts, true
}

// CheckMassBalance computes the elemental and charge imbalance of a reaction:
// for each element, the sum over the stoichiometry of coefficient times atom
// count. An empty mapping means the reaction is balanced. Metabolites without
// a parseable formula fail with FormulaError. The check is a diagnostic and
// never blocks a solve.
func (m *Model) CheckMassBalance(reactionID string) (map[string]float64, error) {
	rxn, ok := m.reactions[reactionID]
	if !ok {
		return nil, NotFoundError{Kind: KindReaction, ID: reactionID}
	}
	balance := make(map[string]float64)
	for metID, coefficient := range rxn.Stoichiometry {
		met, ok := m.metabolites[metID]
		if !ok {
			return nil, UnknownMetaboliteError{ReactionID: reactionID, MetaboliteID: metID}
		}
		counts, ok := parseFormula(met.Formula)
		if !ok || met.Formula == "" {
			return nil, FormulaError{MetaboliteID: metID, Formula: met.Formula}
		}
		for element, count := range counts {
			balance[element] += coefficient * count
		}
		if met.Charge != 0 {
			balance[chargeKey] += coefficient * float64(met.Charge)
		}
	}
	for key, value := range balance {
		if value > -1e-9 && value < 1e-9 {
			delete(balance, key)
		}
	}
	return balance, nil
}
