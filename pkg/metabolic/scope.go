package metabolic

import "errors"

// ErrScopeNotInnermost is returned when a scope is closed while a more
// recently opened scope on the same model is still open.
var ErrScopeNotInnermost = errors.New("metabolic: scope is not the innermost open scope")

// ErrScopeClosed is returned when a scope is closed twice.
var ErrScopeClosed = errors.New("metabolic: scope already closed")

type entryKind int

const (
	entryBounds entryKind = iota
	entryObjective
	entryGeneState
	entryGeneAdded
	entryMetaboliteAdded
	entryReactionAdded
	entryReactionRemoved
)

// scopeEntry records the prior value of one mutation so it can be restored
// exactly on scope exit.
type scopeEntry struct {
	kind        entryKind
	id          string
	lower       float64
	upper       float64
	coefficient float64
	functional  bool
	reaction    Reaction
}

// Scope records the mutations applied to a model through its public mutators
// while the scope is open and restores every prior value, in reverse order,
// when closed. Scopes nest as a stack: each scope restores only the
// mutations recorded while it was the innermost open scope, and scopes must
// close innermost-first.
type Scope struct {
	model  *Model
	log    []scopeEntry
	closed bool
}

// Begin opens a perturbation scope on the model.
func (m *Model) Begin() *Scope {
	s := &Scope{model: m}
	m.scopes = append(m.scopes, s)
	return s
}

// With runs fn inside a perturbation scope and restores the model on every
// exit path, including when fn fails. A close failure means the perturbation
// was not fully reverted (fn left a nested scope open), so it is joined into
// the returned error rather than discarded.
func (m *Model) With(fn func(*Model) error) (err error) {
	s := m.Begin()
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(m)
}

func (m *Model) record(entry scopeEntry) {
	if len(m.scopes) == 0 {
		return
	}
	s := m.scopes[len(m.scopes)-1]
	s.log = append(s.log, entry)
}

// Close replays the scope's log in reverse order, restoring each prior value
// exactly, then discards the log. Restoration writes bypass mutation
// recording so an enclosing scope never replays another scope's reverts.
func (s *Scope) Close() error {
	if s.closed {
		return ErrScopeClosed
	}
	m := s.model
	if len(m.scopes) == 0 || m.scopes[len(m.scopes)-1] != s {
		return ErrScopeNotInnermost
	}
	m.scopes = m.scopes[:len(m.scopes)-1]
	s.closed = true
	for i := len(s.log) - 1; i >= 0; i-- {
		s.restore(s.log[i])
	}
	s.log = nil
	return nil
}

func (s *Scope) restore(entry scopeEntry) {
	m := s.model
	switch entry.kind {
	case entryBounds:
		rxn, ok := m.reactions[entry.id]
		if !ok {
			return
		}
		rxn.LowerBound = entry.lower
		rxn.UpperBound = entry.upper
		m.reactions[entry.id] = rxn
	case entryObjective:
		rxn, ok := m.reactions[entry.id]
		if !ok {
			return
		}
		rxn.ObjectiveCoefficient = entry.coefficient
		m.reactions[entry.id] = rxn
	case entryGeneState:
		gene, ok := m.genes[entry.id]
		if !ok {
			return
		}
		gene.Functional = entry.functional
		m.genes[entry.id] = gene
	case entryGeneAdded:
		delete(m.genes, entry.id)
	case entryMetaboliteAdded:
		delete(m.metabolites, entry.id)
	case entryReactionAdded:
		delete(m.reactions, entry.id)
	case entryReactionRemoved:
		m.reactions[entry.id] = entry.reaction
	}
}
