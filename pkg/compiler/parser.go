package compiler

import (
	"fmt"
	"strconv"
)

// Parser consumes a TokenStream and builds an AST.
//
// Grammar:
//
//	program        = statement* (stops at EOF or an unconsumed "}")
//	statement      = IDENTIFIER "=" expression ";"
//	               | "if" "(" expression ")" "{" program "}" ("else" "{" program "}")?
//	               | "print" "(" expression ")" ";"
//	expression     = comparison
//	comparison     = additive (("=="|"!="|"<"|">"|"<="|">=") additive)?
//	additive       = multiplicative (("+" | "-") multiplicative)*
//	multiplicative = atom (("*" | "/") atom)*
//	atom           = NUMBER | "(" expression ")" | IDENTIFIER
//
// comparison binds at most once; "a > b > c" leaves the second ">" for the
// caller, which then fails on it.
type Parser struct {
	ts TokenStream
}

func NewParser(ts TokenStream) *Parser {
	return &Parser{ts: ts}
}

// peek returns the current token without consuming it.
func (p *Parser) peek() Token {
	return p.ts.Peek()
}

// advance consumes and returns the current token.
func (p *Parser) advance() Token {
	return p.ts.Advance()
}

// expect consumes the current token if it matches tt, otherwise returns a
// *SyntaxError and leaves the token in place.
func (p *Parser) expect(tt TokenType) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, &SyntaxError{Expected: []TokenType{tt}, Got: tok}
	}
	return p.advance(), nil
}

// ParseProgram parses the whole input. It fails unless every token up to
// EOF belongs to the program; on failure no partial tree is returned.
func (p *Parser) ParseProgram() (*Program, error) {
	prog, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	// A stray top-level '}' also ends parseProgram. It is an error here
	// rather than silently dropping the rest of the input.
	if _, err := p.expect(EOF); err != nil {
		return nil, err
	}
	return prog, nil
}

// parseProgram collects statements until EOF or a closing brace, which is
// left for the caller to consume.
func (p *Parser) parseProgram() (*Program, error) {
	prog := &Program{}
	for p.peek().Type != EOF && p.peek().Type != RBRACE {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

func (p *Parser) parseStatement() (Stmt, error) {
	switch tok := p.peek(); tok.Type {
	case IDENTIFIER:
		return p.parseAssign()
	case IF:
		return p.parseIf()
	case PRINT:
		return p.parsePrint()
	default:
		return nil, &SyntaxError{Expected: []TokenType{IDENTIFIER, IF, PRINT}, Got: tok}
	}
}

// parseAssign handles  name = expression ;
func (p *Parser) parseAssign() (Stmt, error) {
	name := p.advance()
	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Assign{Name: name.Lexeme, Value: value}, nil
}

// parseBlock handles  { program }
func (p *Parser) parseBlock() (*Program, error) {
	if _, err := p.expect(LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RBRACE); err != nil {
		return nil, err
	}
	return body, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	p.advance() // if
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var elseBody *Program
	if p.peek().Type == ELSE {
		p.advance()
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &If{Condition: cond, Then: then, Else: elseBody}, nil
}

func (p *Parser) parsePrint() (Stmt, error) {
	p.advance() // print
	if _, err := p.expect(LPAREN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(SEMICOLON); err != nil {
		return nil, err
	}
	return &Print{Value: value}, nil
}

// parseExpression is the entry point for expression parsing.
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseComparison()
}

func isComparisonToken(tt TokenType) bool {
	switch tt {
	case EQUALS, NOT_EQ, LESS, GREATER, LESS_EQ, GREATER_EQ:
		return true
	}
	return false
}

// parseComparison handles a single, non-chaining comparison.
func (p *Parser) parseComparison() (Expr, error) {
	expr, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !isComparisonToken(p.peek().Type) {
		return expr, nil
	}
	op := binaryOperators[p.advance().Type]
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &BinaryOp{Op: op, Left: expr, Right: right}, nil
}

// parseAdditive handles + and -, folding to the left.
func (p *Parser) parseAdditive() (Expr, error) {
	expr, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == PLUS || p.peek().Type == MINUS {
		op := binaryOperators[p.advance().Type]
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right}
	}
	return expr, nil
}

// parseMultiplicative handles * and /, folding to the left.
func (p *Parser) parseMultiplicative() (Expr, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == STAR || p.peek().Type == SLASH {
		op := binaryOperators[p.advance().Type]
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		expr = &BinaryOp{Op: op, Left: expr, Right: right}
	}
	return expr, nil
}

func (p *Parser) parseAtom() (Expr, error) {
	tok := p.peek()
	switch tok.Type {
	case NUMBER:
		p.advance()
		val, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			return nil, &SyntaxError{
				Expected: []TokenType{NUMBER},
				Got:      tok,
				Msg:      fmt.Sprintf("integer literal %s out of range", tok.Lexeme),
			}
		}
		return &Number{Value: val}, nil

	case LPAREN:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case IDENTIFIER:
		p.advance()
		return &Variable{Name: tok.Lexeme}, nil
	}
	return nil, &SyntaxError{Expected: []TokenType{NUMBER, LPAREN, IDENTIFIER}, Got: tok}
}
