// ABOUTME: Recursive descent parser for the prompt condition grammar
// ABOUTME: statement := sentence ((and|or) sentence)*, sentence := (statement) | ident op value
package condition

type node interface{}

// comparison is one "identifier op value" leaf.
type comparison struct {
	ident string
	op    string
	value string
}

// conjunction joins two sub-expressions with and/or. Chains associate
// left; and/or have no relative precedence, grouping needs parentheses.
type conjunction struct {
	op          string // "and" or "or"
	left, right node
}

type parser struct {
	expr   string
	tokens []token
	pos    int
}

func parse(expr string) (node, error) {
	tokens, err := scan(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{expr: expr, tokens: tokens}
	n, err := p.statement()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokenEOF {
		return nil, &SyntaxError{expr, tok.pos, "unexpected trailing input"}
	}
	return n, nil
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) statement() (node, error) {
	left, err := p.sentence()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokenAnd && tok.kind != tokenOr {
			return left, nil
		}
		p.next()
		right, err := p.sentence()
		if err != nil {
			return nil, err
		}
		left = &conjunction{op: tok.text, left: left, right: right}
	}
}

func (p *parser) sentence() (node, error) {
	if p.peek().kind == tokenLParen {
		p.next()
		n, err := p.statement()
		if err != nil {
			return nil, err
		}
		if tok := p.next(); tok.kind != tokenRParen {
			return nil, &SyntaxError{p.expr, tok.pos, "expected closing parenthesis"}
		}
		return n, nil
	}
	return p.expression()
}

func (p *parser) expression() (node, error) {
	ident := p.next()
	if ident.kind != tokenIdent {
		return nil, &SyntaxError{p.expr, ident.pos, "expected identifier"}
	}
	op := p.next()
	if op.kind != tokenOp {
		return nil, &SyntaxError{p.expr, op.pos, "expected comparison operator"}
	}
	value := p.next()
	if value.kind != tokenIdent {
		return nil, &SyntaxError{p.expr, value.pos, "expected value"}
	}
	return &comparison{ident: ident.text, op: op.text, value: value.text}, nil
}
