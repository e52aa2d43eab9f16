package metabolic

import (
	"errors"
	"testing"
)

func TestScopeRestoresBoundsObjectiveAndGeneState(t *testing.T) {
	m := testNetwork(t)
	if err := m.SetObjective("HEX", 1); err != nil {
		t.Fatalf("set objective: %v", err)
	}

	scope := m.Begin()
	if err := m.SetBounds("EX_glc", -5, 5); err != nil {
		t.Fatalf("set bounds: %v", err)
	}
	if err := m.SetObjectiveCoefficient("HEX", 0); err != nil {
		t.Fatalf("clear objective: %v", err)
	}
	if err := m.SetGeneFunctional("g1", false); err != nil {
		t.Fatalf("set gene: %v", err)
	}
	if err := scope.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	rxn, _ := m.GetReaction("EX_glc")
	if rxn.LowerBound != -10 || rxn.UpperBound != DefaultBound {
		t.Fatalf("bounds not restored: [%g, %g]", rxn.LowerBound, rxn.UpperBound)
	}
	if m.Objective()["HEX"] != 1 {
		t.Fatalf("objective not restored: %v", m.Objective())
	}
	gene, _ := m.GetGene("g1")
	if !gene.Functional {
		t.Fatal("gene state not restored")
	}
}

func TestWithRestoresOnError(t *testing.T) {
	m := testNetwork(t)
	failure := errors.New("solver exploded")
	err := m.With(func(m *Model) error {
		if err := m.KnockOutReaction("GLCt"); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("With must return fn's error unchanged, got %v", err)
	}
	rxn, _ := m.GetReaction("GLCt")
	if rxn.KnockedOut() {
		t.Fatal("perturbation leaked out of failed With")
	}
}

func TestNestedScopesRestoreIndependently(t *testing.T) {
	m := testNetwork(t)
	outer := m.Begin()
	if err := m.SetBounds("EX_glc", -20, 20); err != nil {
		t.Fatalf("outer set bounds: %v", err)
	}
	inner := m.Begin()
	if err := m.SetBounds("EX_glc", -1, 1); err != nil {
		t.Fatalf("inner set bounds: %v", err)
	}

	if err := outer.Close(); !errors.Is(err, ErrScopeNotInnermost) {
		t.Fatalf("closing outer before inner must fail, got %v", err)
	}

	if err := inner.Close(); err != nil {
		t.Fatalf("close inner: %v", err)
	}
	rxn, _ := m.GetReaction("EX_glc")
	if rxn.LowerBound != -20 || rxn.UpperBound != 20 {
		t.Fatalf("inner close must restore to outer's state: [%g, %g]", rxn.LowerBound, rxn.UpperBound)
	}

	if err := outer.Close(); err != nil {
		t.Fatalf("close outer: %v", err)
	}
	rxn, _ = m.GetReaction("EX_glc")
	if rxn.LowerBound != -10 || rxn.UpperBound != DefaultBound {
		t.Fatalf("outer close must restore original bounds: [%g, %g]", rxn.LowerBound, rxn.UpperBound)
	}

	if err := inner.Close(); !errors.Is(err, ErrScopeClosed) {
		t.Fatalf("double close must fail, got %v", err)
	}
}

func TestScopeRemovesStructuralAdditions(t *testing.T) {
	m := testNetwork(t)
	err := m.With(func(m *Model) error {
		rxn := Reaction{ID: "TMP", Stoichiometry: map[string]float64{"tmp_c": 1}, UpperBound: 1, GeneRule: "g9"}
		return m.AddReaction(rxn, Metabolite{ID: "tmp_c"})
	})
	if err != nil {
		t.Fatalf("with: %v", err)
	}
	if _, err := m.GetReaction("TMP"); err == nil {
		t.Fatal("scoped reaction survived close")
	}
	if _, err := m.GetMetabolite("tmp_c"); err == nil {
		t.Fatal("scoped metabolite survived close")
	}
	if _, err := m.GetGene("g9"); err == nil {
		t.Fatal("scoped auto-registered gene survived close")
	}
}

func TestScopeRestoresRemovedReaction(t *testing.T) {
	m := testNetwork(t)
	err := m.With(func(m *Model) error {
		return m.RemoveReaction("HEX")
	})
	if err != nil {
		t.Fatalf("with: %v", err)
	}
	rxn, err := m.GetReaction("HEX")
	if err != nil {
		t.Fatalf("removed reaction not restored: %v", err)
	}
	if rxn.GeneRule != "g3 and g4" {
		t.Fatalf("restored reaction lost its rule: %q", rxn.GeneRule)
	}
	if got := m.ReactionsDisabledBy("g3"); len(got) != 1 || got[0] != "HEX" {
		t.Fatalf("restored reaction's parsed rule must still evaluate, got %v", got)
	}
}

func TestMutationsOutsideScopesAreNotRecorded(t *testing.T) {
	m := testNetwork(t)
	if err := m.SetBounds("EX_glc", -3, 3); err != nil {
		t.Fatalf("set bounds: %v", err)
	}
	if err := m.With(func(*Model) error { return nil }); err != nil {
		t.Fatalf("with: %v", err)
	}
	rxn, _ := m.GetReaction("EX_glc")
	if rxn.LowerBound != -3 || rxn.UpperBound != 3 {
		t.Fatalf("unscoped mutation reverted: [%g, %g]", rxn.LowerBound, rxn.UpperBound)
	}
}

func TestWithSurfacesDanglingNestedScope(t *testing.T) {
	m := testNetwork(t)
	err := m.With(func(m *Model) error {
		m.Begin() // left open on purpose
		return nil
	})
	if !errors.Is(err, ErrScopeNotInnermost) {
		t.Fatalf("with err = %v, want ErrScopeNotInnermost", err)
	}

	wantErr := errors.New("study failed")
	err = m.With(func(m *Model) error {
		m.Begin()
		return wantErr
	})
	if !errors.Is(err, wantErr) || !errors.Is(err, ErrScopeNotInnermost) {
		t.Fatalf("with err = %v, want both fn and close errors", err)
	}
}
