package metabolic

import "testing"

func TestParseEquationIrreversible(t *testing.T) {
	rxn, err := ParseEquation("HEX", "2 glc_c + atp_c -> g6p_c")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := map[string]float64{"glc_c": -2, "atp_c": -1, "g6p_c": 1}
	for id, coefficient := range want {
		if rxn.Stoichiometry[id] != coefficient {
			t.Fatalf("%s coefficient = %g, want %g", id, rxn.Stoichiometry[id], coefficient)
		}
	}
	if rxn.LowerBound != 0 || rxn.UpperBound != DefaultBound {
		t.Fatalf("bounds = [%g, %g]", rxn.LowerBound, rxn.UpperBound)
	}
}

func TestParseEquationReversible(t *testing.T) {
	rxn, err := ParseEquation("PGI", "g6p_c <=> f6p_c")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rxn.LowerBound != -DefaultBound || rxn.UpperBound != DefaultBound {
		t.Fatalf("bounds = [%g, %g]", rxn.LowerBound, rxn.UpperBound)
	}
	rxn, err = ParseEquation("PGI2", "g6p_c <-> f6p_c")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rxn.LowerBound != -DefaultBound || rxn.UpperBound != DefaultBound {
		t.Fatalf("bounds = [%g, %g]", rxn.LowerBound, rxn.UpperBound)
	}
}

func TestParseEquationReverseOnly(t *testing.T) {
	rxn, err := ParseEquation("R", "a_c <- b_c")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rxn.LowerBound != -DefaultBound || rxn.UpperBound != 0 {
		t.Fatalf("bounds = [%g, %g]", rxn.LowerBound, rxn.UpperBound)
	}
}

func TestParseEquationLongArrows(t *testing.T) {
	rxn, err := ParseEquation("R", "a_c --> b_c")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rxn.Stoichiometry["a_c"] != -1 || rxn.Stoichiometry["b_c"] != 1 {
		t.Fatalf("stoichiometry = %v", rxn.Stoichiometry)
	}
	if rxn.LowerBound != 0 || rxn.UpperBound != DefaultBound {
		t.Fatalf("bounds = [%g, %g]", rxn.LowerBound, rxn.UpperBound)
	}
}

func TestParseEquationErrors(t *testing.T) {
	if _, err := ParseEquation("R", "a_c b_c"); err == nil {
		t.Fatal("missing arrow must fail")
	}
	if _, err := ParseEquation("R", "x2 glc a_c -> b_c"); err == nil {
		t.Fatal("malformed term must fail")
	}
	if _, err := ParseEquation("R", " -> "); err == nil {
		t.Fatal("empty equation must fail")
	}
}
