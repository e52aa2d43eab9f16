package metabolic

import (
	"sort"
	"strings"
)

// Gene-reaction rules are boolean expressions over gene identifiers. AND
// models multi-subunit complexes (every subunit required), OR models isozymes
// (any one copy suffices). Rules are parsed once at model-construction time
// into a small AST; evaluation never re-parses.

type geneRuleOp int

const (
	opGene geneRuleOp = iota
	opAnd
	opOr
)

type geneRuleNode struct {
	op       geneRuleOp
	gene     string
	operands []*geneRuleNode
}

// evaluate reports whether the rule holds under the given functional state.
func (n *geneRuleNode) evaluate(functional func(geneID string) bool) bool {
	switch n.op {
	case opGene:
		return functional(n.gene)
	case opAnd:
		for _, operand := range n.operands {
			if !operand.evaluate(functional) {
				return false
			}
		}
		return true
	default:
		for _, operand := range n.operands {
			if operand.evaluate(functional) {
				return true
			}
		}
		return false
	}
}

func (n *geneRuleNode) collectGenes(seen map[string]struct{}) {
	if n.op == opGene {
		seen[n.gene] = struct{}{}
		return
	}
	for _, operand := range n.operands {
		operand.collectGenes(seen)
	}
}

type gprToken struct {
	text string
	pos  int
}

type gprParser struct {
	reactionID string
	rule       string
	tokens     []gprToken
	next       int
}

// parseGeneRule parses a rule string into an AST and returns the sorted set
// of gene identifiers it references.
func parseGeneRule(reactionID, rule string) (*geneRuleNode, []string, error) {
	p := &gprParser{reactionID: reactionID, rule: rule}
	if err := p.tokenize(); err != nil {
		return nil, nil, err
	}
	if len(p.tokens) == 0 {
		return nil, nil, RuleSyntaxError{ReactionID: reactionID, Rule: rule, Detail: "empty rule"}
	}
	node, err := p.parseOr()
	if err != nil {
		return nil, nil, err
	}
	if p.next != len(p.tokens) {
		tok := p.tokens[p.next]
		return nil, nil, RuleSyntaxError{ReactionID: reactionID, Rule: rule, Pos: tok.pos, Detail: "unexpected token " + tok.text}
	}
	seen := make(map[string]struct{})
	node.collectGenes(seen)
	genes := make([]string, 0, len(seen))
	for gene := range seen {
		genes = append(genes, gene)
	}
	sort.Strings(genes)
	return node, genes, nil
}

func (p *gprParser) tokenize() error {
	i := 0
	for i < len(p.rule) {
		c := p.rule[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(' || c == ')':
			p.tokens = append(p.tokens, gprToken{text: string(c), pos: i})
			i++
		default:
			start := i
			for i < len(p.rule) && !strings.ContainsRune(" \t\n()", rune(p.rule[i])) {
				i++
			}
			p.tokens = append(p.tokens, gprToken{text: p.rule[start:i], pos: start})
		}
	}
	return nil
}

func (p *gprParser) parseOr() (*geneRuleNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []*geneRuleNode{left}
	for p.peekKeyword("or") {
		p.next++
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return left, nil
	}
	return &geneRuleNode{op: opOr, operands: operands}, nil
}

func (p *gprParser) parseAnd() (*geneRuleNode, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	operands := []*geneRuleNode{left}
	for p.peekKeyword("and") {
		p.next++
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		operands = append(operands, right)
	}
	if len(operands) == 1 {
		return left, nil
	}
	return &geneRuleNode{op: opAnd, operands: operands}, nil
}

func (p *gprParser) parseFactor() (*geneRuleNode, error) {
	if p.next >= len(p.tokens) {
		return nil, RuleSyntaxError{ReactionID: p.reactionID, Rule: p.rule, Pos: len(p.rule), Detail: "unexpected end of rule"}
	}
	tok := p.tokens[p.next]
	switch {
	case tok.text == "(":
		p.next++
		node, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next >= len(p.tokens) || p.tokens[p.next].text != ")" {
			return nil, RuleSyntaxError{ReactionID: p.reactionID, Rule: p.rule, Pos: tok.pos, Detail: "unbalanced parenthesis"}
		}
		p.next++
		return node, nil
	case tok.text == ")":
		return nil, RuleSyntaxError{ReactionID: p.reactionID, Rule: p.rule, Pos: tok.pos, Detail: "unexpected closing parenthesis"}
	case isKeyword(tok.text):
		return nil, RuleSyntaxError{ReactionID: p.reactionID, Rule: p.rule, Pos: tok.pos, Detail: "operator " + tok.text + " is missing an operand"}
	default:
		p.next++
		return &geneRuleNode{op: opGene, gene: tok.text}, nil
	}
}

func (p *gprParser) peekKeyword(keyword string) bool {
	if p.next >= len(p.tokens) {
		return false
	}
	return strings.EqualFold(p.tokens[p.next].text, keyword)
}

func isKeyword(text string) bool {
	return strings.EqualFold(text, "and") || strings.EqualFold(text, "or")
}

// ReactionsDisabledBy evaluates every reaction carrying a gene rule with the
// listed genes forced non-functional and all others at their current state.
// It returns, sorted by id, the reactions whose rule held before the
// knockout and fails after it; reactions already non-catalyzable are not
// re-reported. Gene ids not present in any rule are ignored.
func (m *Model) ReactionsDisabledBy(geneIDs ...string) []string {
	knocked := make(map[string]struct{}, len(geneIDs))
	for _, id := range geneIDs {
		knocked[id] = struct{}{}
	}
	current := func(geneID string) bool {
		gene, ok := m.genes[geneID]
		return ok && gene.Functional
	}
	after := func(geneID string) bool {
		if _, ko := knocked[geneID]; ko {
			return false
		}
		return current(geneID)
	}
	var out []string
	for id, rxn := range m.reactions {
		if rxn.rule == nil {
			continue
		}
		if rxn.rule.evaluate(current) && !rxn.rule.evaluate(after) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// KnockOutGenes marks the given genes non-functional and pins the bounds of
// every newly non-catalyzable reaction to zero. It returns the disabled
// reaction ids. Unknown gene ids are reported back to the caller as the
// second return value and are otherwise a no-op.
func (m *Model) KnockOutGenes(geneIDs ...string) (disabled []string, unknown []string, err error) {
	for _, id := range geneIDs {
		if _, ok := m.genes[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	disabled = m.ReactionsDisabledBy(geneIDs...)
	for _, id := range geneIDs {
		if _, ok := m.genes[id]; !ok {
			continue
		}
		if err := m.SetGeneFunctional(id, false); err != nil {
			return nil, unknown, err
		}
	}
	for _, reactionID := range disabled {
		if err := m.KnockOutReaction(reactionID); err != nil {
			return nil, unknown, err
		}
	}
	return disabled, unknown, nil
}
