package boolean

import (
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds operator nesting when no limit is configured.
const DefaultMaxDepth = 64

// Node is an operator tree node: *Term, *Not, *And or *Or.
type Node interface {
	String() string
	node()
}

// Term matches the documents whose lemma set contains Value. Quoted terms
// are taken literally and skip normalization.
type Term struct {
	Value  string
	Quoted bool
}

// Not matches the universe minus its operand.
type Not struct {
	Operand Node
}

// And matches the intersection of its operands.
type And struct {
	Operands []Node
}

// Or matches the union of its operands.
type Or struct {
	Operands []Node
}

func (*Term) node() {}
func (*Not) node()  {}
func (*And) node()  {}
func (*Or) node()   {}

func (t *Term) String() string {
	if _, reserved := keywords[t.Value]; reserved || t.Quoted || strings.ContainsAny(t.Value, " \t()") {
		return strconv.Quote(t.Value)
	}
	return t.Value
}

func (n *Not) String() string { return "(not " + n.Operand.String() + ")" }
func (a *And) String() string { return joinNodes("and", a.Operands) }
func (o *Or) String() string  { return joinNodes("or", o.Operands) }

func joinNodes(op string, nodes []Node) string {
	var b strings.Builder
	b.WriteString("(" + op)
	for _, n := range nodes {
		b.WriteByte(' ')
		b.WriteString(n.String())
	}
	b.WriteByte(')')
	return b.String()
}

// MapTerms returns a copy of node with every unquoted term passed through fn.
func MapTerms(node Node, fn func(string) string) Node {
	switch n := node.(type) {
	case *Term:
		if n.Quoted {
			return n
		}
		return &Term{Value: fn(n.Value)}
	case *Not:
		return &Not{Operand: MapTerms(n.Operand, fn)}
	case *And:
		return &And{Operands: mapAll(n.Operands, fn)}
	case *Or:
		return &Or{Operands: mapAll(n.Operands, fn)}
	default:
		return node
	}
}

func mapAll(nodes []Node, fn func(string) string) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = MapTerms(n, fn)
	}
	return out
}

type parser struct {
	query    string
	tokens   []Token
	pos      int
	depth    int
	maxDepth int
}

// Parse builds the operator tree of query. Nesting of parentheses and "not"
// deeper than maxDepth is rejected; maxDepth <= 0 uses DefaultMaxDepth.
func Parse(query string, maxDepth int) (Node, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	tokens, err := Lex(query)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 1 {
		return nil, newSyntaxError(query, 0, "empty query")
	}
	p := &parser{query: query, tokens: tokens, maxDepth: maxDepth}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != TokenEOF {
		if tok.Kind == TokenRParen {
			return nil, newSyntaxError(query, tok.Pos, "unbalanced ')'")
		}
		return nil, newSyntaxError(query, tok.Pos, "expected 'and', 'or' or end of query, found %s %q", tok.Kind, tok.Text)
	}
	return node, nil
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) enter(pos int) error {
	p.depth++
	if p.depth > p.maxDepth {
		return newSyntaxError(p.query, pos, "query nested deeper than %d levels", p.maxDepth)
	}
	return nil
}

func (p *parser) leave() {
	p.depth--
}

func (p *parser) parseOr() (Node, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	operands := []Node{first}
	for p.peek().Kind == TokenOr {
		p.next()
		operand, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return &Or{Operands: operands}, nil
}

func (p *parser) parseAnd() (Node, error) {
	first, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	operands := []Node{first}
	for p.peek().Kind == TokenAnd {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	if len(operands) == 1 {
		return first, nil
	}
	return &And{Operands: operands}, nil
}

func (p *parser) parseNot() (Node, error) {
	tok := p.peek()
	if tok.Kind != TokenNot {
		return p.parsePrimary()
	}
	p.next()
	if err := p.enter(tok.Pos); err != nil {
		return nil, err
	}
	defer p.leave()
	operand, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	return &Not{Operand: operand}, nil
}

func (p *parser) parsePrimary() (Node, error) {
	tok := p.next()
	switch tok.Kind {
	case TokenTerm:
		return &Term{Value: tok.Text, Quoted: tok.Quoted}, nil
	case TokenLParen:
		if err := p.enter(tok.Pos); err != nil {
			return nil, err
		}
		defer p.leave()
		if p.peek().Kind == TokenRParen {
			return nil, newSyntaxError(p.query, p.peek().Pos, "empty parentheses")
		}
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().Kind != TokenRParen {
			return nil, newSyntaxError(p.query, tok.Pos, "missing ')' for '(' opened here")
		}
		p.next()
		return inner, nil
	case TokenEOF:
		return nil, newSyntaxError(p.query, tok.Pos, "unexpected end of query, expected a term or '('")
	default:
		return nil, newSyntaxError(p.query, tok.Pos, "expected a term or '(', found %s", tok.Kind)
	}
}
