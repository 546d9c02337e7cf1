package parser

import (
	"fmt"
	"strconv"

	"step/interpreter-go/pkg/ast"
	"step/interpreter-go/pkg/lexer"
)

// Error is a syntax error with the position of the offending token.
type Error struct {
	Line   int
	Column int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error: line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Parser is a recursive-descent parser over the Step grammar. One
// function per production, mirroring the grammar comments.
type Parser struct {
	lx  *lexer.Lexer
	cur lexer.Token
}

// Parse tokenizes and parses a whole source string.
func Parse(source string) (*ast.Program, error) {
	p := &Parser{lx: lexer.New(source)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.parseProgram()
}

func (p *Parser) advance() error {
	tok, err := p.lx.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) at(tt lexer.TokenType) bool {
	return p.cur.Type == tt
}

// expect consumes the current token, failing unless it has type tt.
// It returns the consumed token.
func (p *Parser) expect(tt lexer.TokenType) (lexer.Token, error) {
	if p.cur.Type != tt {
		return lexer.Token{}, p.errorf("expected '%s' but found '%s'", tt, p.cur.Type)
	}
	tok := p.cur
	if err := p.advance(); err != nil {
		return lexer.Token{}, err
	}
	return tok, nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return &Error{Line: p.cur.Line, Column: p.cur.Column, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) pos() ast.Pos {
	return ast.Pos{Line: p.cur.Line, Column: p.cur.Column}
}

// program ::= statement*
func (p *Parser) parseProgram() (*ast.Program, error) {
	prog := ast.Prog()
	for !p.at(lexer.TokenEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

// statement ::= ';' | statement_if | statement_while | statement_break |
//               statement_continue | statement_return | statement_function |
//               expression ';'
func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.cur.Type {
	case lexer.TokenSemicolon:
		return p.parseEmptyStatement()
	case lexer.TokenIf:
		return p.parseIfStatement()
	case lexer.TokenWhile:
		return p.parseWhileStatement()
	case lexer.TokenBreak:
		return p.parseBreakStatement()
	case lexer.TokenContinue:
		return p.parseContinueStatement()
	case lexer.TokenReturn:
		return p.parseReturnStatement()
	case lexer.TokenDef:
		return p.parseFunctionDefinition()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseEmptyStatement() (ast.Statement, error) {
	stmt := ast.Empty()
	stmt.Pos = p.pos()
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	return stmt, nil
}

// statement_if ::= 'if' '(' expression ')' block [ 'else' block ]
func (p *Parser) parseIfStatement() (ast.Statement, error) {
	pos := p.pos()
	if _, err := p.expect(lexer.TokenIf); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenLeftParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRightParen); err != nil {
		return nil, err
	}
	consequent, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var alternate []ast.Statement
	if p.at(lexer.TokenElse) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		alternate, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	stmt := ast.If(cond, consequent, alternate)
	stmt.Pos = pos
	return stmt, nil
}

// statement_while ::= 'while' '(' expression ')' block
func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	pos := p.pos()
	if _, err := p.expect(lexer.TokenWhile); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenLeftParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenRightParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := ast.While(cond, body...)
	stmt.Pos = pos
	return stmt, nil
}

func (p *Parser) parseBreakStatement() (ast.Statement, error) {
	stmt := ast.Brk()
	stmt.Pos = p.pos()
	if _, err := p.expect(lexer.TokenBreak); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseContinueStatement() (ast.Statement, error) {
	stmt := ast.Cont()
	stmt.Pos = p.pos()
	if _, err := p.expect(lexer.TokenContinue); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	return stmt, nil
}

// statement_return ::= 'return' [ expression ] ';'
func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	pos := p.pos()
	if _, err := p.expect(lexer.TokenReturn); err != nil {
		return nil, err
	}
	var arg ast.Expression
	if !p.at(lexer.TokenSemicolon) {
		var err error
		arg, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	stmt := ast.Ret(arg)
	stmt.Pos = pos
	return stmt, nil
}

// statement_function ::= 'def' identifier '(' [ identifier ( ',' identifier )* ] ')' block
func (p *Parser) parseFunctionDefinition() (ast.Statement, error) {
	pos := p.pos()
	if _, err := p.expect(lexer.TokenDef); err != nil {
		return nil, err
	}
	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenLeftParen); err != nil {
		return nil, err
	}
	var params []*ast.Identifier
	if !p.at(lexer.TokenRightParen) {
		param, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		for p.at(lexer.TokenComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			param, err := p.parseIdentifier()
			if err != nil {
				return nil, err
			}
			params = append(params, param)
		}
	}
	if _, err := p.expect(lexer.TokenRightParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := ast.Def(name.Name, nil, body...)
	stmt.Name = name
	stmt.Params = params
	stmt.Pos = pos
	return stmt, nil
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	pos := p.pos()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.TokenSemicolon); err != nil {
		return nil, err
	}
	stmt := ast.ExprStmt(expr)
	stmt.Pos = pos
	return stmt, nil
}

// block ::= '{' statement* '}'
func (p *Parser) parseBlock() ([]ast.Statement, error) {
	if _, err := p.expect(lexer.TokenLeftBrace); err != nil {
		return nil, err
	}
	stmts := make([]ast.Statement, 0)
	for !p.at(lexer.TokenRightBrace) {
		if p.at(lexer.TokenEOF) {
			return nil, p.errorf("expected '}' before end of input")
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(lexer.TokenRightBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

// expression ::= expression_assignment
func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseAssignment()
}

// expression_assignment ::= expression_andor [ '=' expression_assignment ]
//
// Right-associative; the target must be an identifier or a subscript.
func (p *Parser) parseAssignment() (ast.Expression, error) {
	pos := p.pos()
	left, err := p.parseAndOr()
	if err != nil {
		return nil, err
	}
	if !p.at(lexer.TokenEqual) {
		return left, nil
	}
	switch left.(type) {
	case *ast.Identifier, *ast.IndexExpression:
	default:
		return nil, p.errorf("invalid assignment target; the left side must be an identifier or a subscription")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	value, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	expr := ast.Assign(left, value)
	expr.Pos = pos
	return expr, nil
}

// expression_andor ::= expression_compare ( ( 'and' | 'or' ) expression_compare )*
func (p *Parser) parseAndOr() (ast.Expression, error) {
	pos := p.pos()
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenAnd) || p.at(lexer.TokenOr) {
		op := string(p.cur.Type)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		expr := ast.Logic(op, left, right)
		expr.Pos = pos
		left = expr
	}
	return left, nil
}

func isComparator(tt lexer.TokenType) bool {
	switch tt {
	case lexer.TokenLess, lexer.TokenGreater, lexer.TokenLessEqual,
		lexer.TokenGreaterEqual, lexer.TokenEqualEqual, lexer.TokenNotEqual:
		return true
	}
	return false
}

// expression_compare ::= expression_plus [ comparator expression_plus ]
//
// Non-associative: a second comparator in the same chain is a parse error.
func (p *Parser) parseComparison() (ast.Expression, error) {
	pos := p.pos()
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if !isComparator(p.cur.Type) {
		return left, nil
	}
	op := string(p.cur.Type)
	if err := p.advance(); err != nil {
		return nil, err
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if isComparator(p.cur.Type) {
		return nil, p.errorf("chained comparison is not allowed")
	}
	expr := ast.Bin(op, left, right)
	expr.Pos = pos
	return expr, nil
}

// expression_plus ::= expression_multiply ( ( '+' | '-' ) expression_multiply )*
func (p *Parser) parseAdditive() (ast.Expression, error) {
	pos := p.pos()
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenPlus) || p.at(lexer.TokenMinus) {
		op := string(p.cur.Type)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		expr := ast.Bin(op, left, right)
		expr.Pos = pos
		left = expr
	}
	return left, nil
}

// expression_multiply ::= expression_unary ( ( '*' | '/' | '%' ) expression_unary )*
func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	pos := p.pos()
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.at(lexer.TokenStar) || p.at(lexer.TokenSlash) || p.at(lexer.TokenPercent) {
		op := string(p.cur.Type)
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr := ast.Bin(op, left, right)
		expr.Pos = pos
		left = expr
	}
	return left, nil
}

// expression_unary ::= expression_primary | '-' expression_unary
func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.at(lexer.TokenMinus) {
		pos := p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		expr := ast.Un("-", operand)
		expr.Pos = pos
		return expr, nil
	}
	return p.parsePrimary()
}

// expression_primary ::= expression_atom ( '[' expression ']' |
//                        '(' [ expression ( ',' expression )* ] ')' )*
func (p *Parser) parsePrimary() (ast.Expression, error) {
	expr, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(lexer.TokenLeftBracket):
			pos := p.pos()
			if err := p.advance(); err != nil {
				return nil, err
			}
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(lexer.TokenRightBracket); err != nil {
				return nil, err
			}
			sub := ast.Index(expr, index)
			sub.Pos = pos
			expr = sub
		case p.at(lexer.TokenLeftParen):
			pos := p.pos()
			if err := p.advance(); err != nil {
				return nil, err
			}
			var args []ast.Expression
			if !p.at(lexer.TokenRightParen) {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				for p.at(lexer.TokenComma) {
					if err := p.advance(); err != nil {
						return nil, err
					}
					arg, err := p.parseExpression()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
				}
			}
			if _, err := p.expect(lexer.TokenRightParen); err != nil {
				return nil, err
			}
			call := ast.Call(expr, args...)
			call.Pos = pos
			expr = call
		default:
			return expr, nil
		}
	}
}

// expression_atom ::= identifier | number | string | 'None' | list | '(' expression ')'
func (p *Parser) parseAtom() (ast.Expression, error) {
	switch p.cur.Type {
	case lexer.TokenNumber:
		return p.parseNumber()
	case lexer.TokenString:
		lit := ast.Str(p.cur.Literal)
		lit.Pos = p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return lit, nil
	case lexer.TokenNone:
		lit := ast.None()
		lit.Pos = p.pos()
		if err := p.advance(); err != nil {
			return nil, err
		}
		return lit, nil
	case lexer.TokenLeftBracket:
		return p.parseListLiteral()
	case lexer.TokenLeftParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.TokenRightParen); err != nil {
			return nil, err
		}
		return expr, nil
	case lexer.TokenIdentifier:
		return p.parseIdentifier()
	default:
		return nil, p.errorf("unexpected token '%s'", p.cur.Type)
	}
}

func (p *Parser) parseIdentifier() (*ast.Identifier, error) {
	tok, err := p.expect(lexer.TokenIdentifier)
	if err != nil {
		return nil, err
	}
	id := ast.ID(tok.Literal)
	id.Pos = ast.Pos{Line: tok.Line, Column: tok.Column}
	return id, nil
}

func (p *Parser) parseNumber() (ast.Expression, error) {
	tok := p.cur
	pos := p.pos()
	if err := p.advance(); err != nil {
		return nil, err
	}
	if tok.IsFloat {
		val, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, &Error{Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf("malformed number %q", tok.Literal)}
		}
		lit := ast.Float(val)
		lit.Pos = pos
		return lit, nil
	}
	val, err := strconv.ParseInt(tok.Literal, 10, 64)
	if err != nil {
		return nil, &Error{Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf("number %q out of range", tok.Literal)}
	}
	lit := ast.Int(val)
	lit.Pos = pos
	return lit, nil
}

// list ::= '[' [ expression ( ',' expression )* ] ']'
func (p *Parser) parseListLiteral() (ast.Expression, error) {
	pos := p.pos()
	if _, err := p.expect(lexer.TokenLeftBracket); err != nil {
		return nil, err
	}
	var elements []ast.Expression
	if !p.at(lexer.TokenRightBracket) {
		el, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
		for p.at(lexer.TokenComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			el, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			elements = append(elements, el)
		}
	}
	if _, err := p.expect(lexer.TokenRightBracket); err != nil {
		return nil, err
	}
	expr := ast.List(elements...)
	expr.Pos = pos
	return expr, nil
}
