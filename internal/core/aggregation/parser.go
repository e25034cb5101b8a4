package aggregation

import (
	"fmt"
	"strings"
)

// Parse reads the fragments of one rule according to op.
// It keeps no state between calls: the same input always yields equal output.
func Parse(rule []string, op OperationType) (*ParsedAggregation, error) {
	strategy, err := strategyFor(op)
	if err != nil {
		return nil, err
	}
	if len(rule) == 0 {
		return nil, ruleError(ErrEmptyRule, "")
	}

	terms, err := strategy.parse(rule)
	if err != nil {
		return nil, err
	}
	return &ParsedAggregation{OperationType: op, Rule: terms}, nil
}

// ParseRule is Parse with the configuration spelling of the operation type.
func ParseRule(operationType string, rule []string) (*ParsedAggregation, error) {
	op, err := ParseOperationType(operationType)
	if err != nil {
		return nil, err
	}
	return Parse(rule, op)
}

// ruleStrategy is implemented only by the strategies in this file; every
// OperationType maps to exactly one of them in strategyFor.
type ruleStrategy interface {
	parse(rule []string) ([]AggregationTerm, error)
}

func strategyFor(op OperationType) (ruleStrategy, error) {
	switch op {
	case Reduce:
		return reduceStrategy{}, nil
	case ReduceByKey:
		return reduceByKeyStrategy{}, nil
	}
	return nil, ruleError(ErrUnsupportedOperation, fmt.Sprintf("the operation %q is not supported", op.String()))
}

// reduceStrategy accepts only function terms.
type reduceStrategy struct{}

func (reduceStrategy) parse(rule []string) ([]AggregationTerm, error) {
	terms := make([]AggregationTerm, 0, len(rule))
	for _, fragment := range rule {
		if err := checkCharacters(fragment); err != nil {
			return nil, err
		}
		if pos, ok := keyClauseAt(fragment); ok {
			return nil, &InvalidExpressionError{
				Kind:     ErrKeyNotAllowed,
				Fragment: fragment,
				Offset:   pos,
				Token:    "key",
			}
		}

		c, err := parseFragment(fragment)
		if err != nil {
			return nil, err
		}
		terms = append(terms, AggregationTerm{FuncName: c.funcName, InputField: c.field})
	}
	return terms, nil
}

// reduceByKeyStrategy accepts function terms and exactly one key clause.
// Key terms are moved in front of every function term.
type reduceByKeyStrategy struct{}

func (reduceByKeyStrategy) parse(rule []string) ([]AggregationTerm, error) {
	var keys []AggregationTerm
	values := make([]AggregationTerm, 0, len(rule))
	seenKey := false

	for _, fragment := range rule {
		c, err := parseFragment(fragment)
		if err != nil {
			return nil, err
		}

		if c.kind == clauseReduce {
			values = append(values, AggregationTerm{FuncName: c.funcName, InputField: c.field})
			continue
		}

		if seenKey {
			return nil, &InvalidExpressionError{
				Kind:     ErrDuplicateKey,
				Fragment: fragment,
				Offset:   c.pos,
				Token:    "key",
				Detail:   fmt.Sprintf("rule %s declares more than one key clause", formatRule(rule)),
			}
		}
		seenKey = true
		for _, name := range c.keys {
			keys = append(keys, AggregationTerm{InputField: name, Key: true})
		}
	}

	if !seenKey {
		return nil, ruleError(ErrMissingKey, formatRule(rule))
	}
	if len(values) == 0 {
		return nil, ruleError(ErrMissingReduction, formatRule(rule))
	}
	return append(keys, values...), nil
}

// keyClauseAt reports whether fragment starts with a key clause, and where.
func keyClauseAt(fragment string) (int, bool) {
	lex := newLexer(fragment)
	tok := lex.next()
	if tok.kind == tokIdent && tok.val == "key" && lex.peek().kind == tokColon {
		return tok.pos, true
	}
	return 0, false
}

func formatRule(rule []string) string {
	quoted := make([]string, len(rule))
	for i, f := range rule {
		quoted[i] = fmt.Sprintf("%q", f)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

type clauseKind int

const (
	clauseReduce clauseKind = iota + 1
	clauseKey
)

// clause is the parse result of one fragment.
type clause struct {
	kind     clauseKind
	funcName string
	field    string
	keys     []string
	pos      int
}

// parseFragment parses exactly one clause:
//
//	reduce-fragment := ident '(' ident ')'
//	key-fragment    := 'key' ':' key-list | 'key' ':' ident
//	key-list        := '(' key-list ')' | '(' ident (',' ident)* ')'
func parseFragment(fragment string) (clause, error) {
	if err := checkCharacters(fragment); err != nil {
		return clause{}, err
	}

	p := &fragmentParser{fragment: fragment, lex: newLexer(fragment)}
	c, err := p.parseClause()
	if err != nil {
		return clause{}, err
	}

	switch tok := p.lex.peek(); tok.kind {
	case tokEOF:
		return c, nil
	case tokRParen:
		return clause{}, p.errorAt(ErrUnmatchedParenthesis, tok, "")
	default:
		return clause{}, p.errorAt(ErrMissingSeparator, tok, "fragment contains more than one term")
	}
}

type fragmentParser struct {
	fragment string
	lex      *lexer
}

func (p *fragmentParser) errorAt(kind error, tok token, detail string) *InvalidExpressionError {
	return &InvalidExpressionError{
		Kind:     kind,
		Fragment: p.fragment,
		Offset:   tok.pos,
		Token:    tok.val,
		Detail:   detail,
	}
}

func (p *fragmentParser) parseClause() (clause, error) {
	tok := p.lex.next()
	switch tok.kind {
	case tokIdent:
	case tokEOF:
		return clause{}, p.errorAt(ErrEmptyFragment, tok, "")
	case tokLParen, tokRParen:
		return clause{}, p.errorAt(ErrUnmatchedParenthesis, tok, "")
	default:
		return clause{}, p.errorAt(ErrUnexpectedToken, tok, "expected function name or 'key'")
	}

	if tok.val == "key" && p.lex.peek().kind == tokColon {
		p.lex.next()
		return p.parseKey(tok)
	}
	return p.parseReduce(tok)
}

func (p *fragmentParser) parseReduce(name token) (clause, error) {
	open := p.lex.next()
	if open.kind != tokLParen {
		if open.kind == tokEOF {
			return clause{}, p.errorAt(ErrMissingParenthesis, name, "")
		}
		return clause{}, p.errorAt(ErrMissingParenthesis, open, "")
	}

	field := p.lex.next()
	switch field.kind {
	case tokIdent:
	case tokEOF:
		return clause{}, p.errorAt(ErrUnmatchedParenthesis, open, "")
	default:
		return clause{}, p.errorAt(ErrUnexpectedToken, field, "expected field name")
	}

	closing := p.lex.next()
	switch closing.kind {
	case tokRParen:
	case tokEOF:
		return clause{}, p.errorAt(ErrUnmatchedParenthesis, open, "")
	default:
		return clause{}, p.errorAt(ErrUnexpectedToken, closing, "function takes exactly one field")
	}

	return clause{kind: clauseReduce, funcName: name.val, field: field.val, pos: name.pos}, nil
}

func (p *fragmentParser) parseKey(kw token) (clause, error) {
	tok := p.lex.next()
	switch tok.kind {
	case tokIdent:
		return clause{kind: clauseKey, keys: []string{tok.val}, pos: kw.pos}, nil
	case tokLParen:
	case tokRParen:
		return clause{}, p.errorAt(ErrUnmatchedParenthesis, tok, p.keyListDetail(tok.pos))
	default:
		return clause{}, p.errorAt(ErrUnexpectedToken, tok, "expected key field list")
	}

	open := tok
	depth := 1
	for p.lex.peek().kind == tokLParen {
		p.lex.next()
		depth++
	}

	var keys []string
	seen := make(map[string]struct{})
	for {
		name := p.lex.next()
		switch name.kind {
		case tokIdent:
		case tokEOF:
			return clause{}, p.errorAt(ErrUnmatchedParenthesis, open, p.keyListDetail(open.pos))
		case tokRParen:
			if len(keys) == 0 {
				return clause{}, p.errorAt(ErrUnexpectedToken, name, "key field list is empty")
			}
			return clause{}, p.errorAt(ErrUnexpectedToken, name, "expected field name after ','")
		default:
			return clause{}, p.errorAt(ErrUnexpectedToken, name, "expected field name")
		}

		if _, dup := seen[name.val]; dup {
			return clause{}, p.errorAt(ErrDuplicateKey, name, fmt.Sprintf("field %q repeated in key field list", name.val))
		}
		seen[name.val] = struct{}{}
		keys = append(keys, name.val)

		sep := p.lex.next()
		switch sep.kind {
		case tokComma:
			continue
		case tokRParen:
			if err := p.closeKeyList(open, depth-1); err != nil {
				return clause{}, err
			}
			return clause{kind: clauseKey, keys: keys, pos: kw.pos}, nil
		case tokEOF:
			return clause{}, p.errorAt(ErrUnmatchedParenthesis, open, p.keyListDetail(open.pos))
		default:
			return clause{}, p.errorAt(ErrMissingSeparator, sep, "expected ',' or ')' in key field list")
		}
	}
}

// closeKeyList consumes the n closing parentheses left open around a key list.
func (p *fragmentParser) closeKeyList(open token, n int) error {
	for ; n > 0; n-- {
		tok := p.lex.next()
		switch tok.kind {
		case tokRParen:
		case tokEOF:
			return p.errorAt(ErrUnmatchedParenthesis, open, p.keyListDetail(open.pos))
		default:
			return p.errorAt(ErrUnexpectedToken, tok, "expected ')' after key field list")
		}
	}
	return nil
}

// keyListDetail names the key field-list text starting at pos.
func (p *fragmentParser) keyListDetail(pos int) string {
	return fmt.Sprintf("the number of opening and closing parentheses does not match in %q",
		strings.TrimSpace(p.fragment[pos:]))
}
