package parser

import (
	"fmt"

	"github.com/sambeau/kvazz/pkg/kvazz/ast"
	kerrors "github.com/sambeau/kvazz/pkg/kvazz/errors"
	"github.com/sambeau/kvazz/pkg/kvazz/lexer"
)

// Precedence levels for binary operators (level 2 is unused)
const (
	LOWEST     = 0
	LOGIC      = 1 // & |
	COMPARISON = 3 // == != < > <= >=
	SUM        = 4 // + -
	PRODUCT    = 5 // * / %
)

// precedences maps binary operator symbols to their binding power
var precedences = map[string]int{
	"|":  LOGIC,
	"&":  LOGIC,
	"==": COMPARISON,
	"!=": COMPARISON,
	"<":  COMPARISON,
	">":  COMPARISON,
	"<=": COMPARISON,
	">=": COMPARISON,
	"+":  SUM,
	"-":  SUM,
	"*":  PRODUCT,
	"/":  PRODUCT,
	"%":  PRODUCT,
}

// assignOperators are the symbols that can follow an assignment target
var assignOperators = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
}

// Parser represents the parser: a cursor over a token sequence
type Parser struct {
	tokens []lexer.Token
	pos    int

	err *kerrors.KvazzError // first error; parsing stops there
}

// New creates a new parser over tokens (as returned by lexer.Tokenize)
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses a whole program. The first error aborts the parse.
func Parse(tokens []lexer.Token) (*ast.Program, error) {
	p := New(tokens)
	program := p.ParseProgram()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return program, nil
}

// ParseExpression parses tokens that must form exactly one expression.
func ParseExpression(tokens []lexer.Token) (ast.Expression, error) {
	p := New(tokens)
	expr := p.parseExpression(LOWEST)
	if !p.failed() && p.current().Type != lexer.EOF {
		p.unexpected("end of input")
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	return expr, nil
}

// Err returns the parse error, or nil.
func (p *Parser) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

// addError records a catalog error at tok.
// Only the first error is recorded; parsing stops there anyway.
func (p *Parser) addError(code string, tok lexer.Token, data map[string]any) {
	if p.failed() {
		return
	}
	p.err = kerrors.NewWithPosition(code, tok.Line, tok.Column, data)
}

func (p *Parser) failed() bool {
	return p.err != nil
}

// current returns the token under the cursor
func (p *Parser) current() lexer.Token {
	return p.peek(0)
}

// peek returns the token n positions ahead; past the end it yields a
// synthetic EOF placed just after the last real token.
func (p *Parser) peek(n int) lexer.Token {
	if i := p.pos + n; i < len(p.tokens) {
		return p.tokens[i]
	}
	eof := lexer.Token{Type: lexer.EOF, Line: 1, Column: 1}
	if len(p.tokens) > 0 {
		last := p.tokens[len(p.tokens)-1]
		eof.Line = last.Line
		eof.Column = last.Column + len([]rune(last.Literal))
	}
	return eof
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) curIs(text string) bool {
	return p.current().Is(text)
}

// expect consumes the symbol or keyword text or records an expectation error
func (p *Parser) expect(text string) (lexer.Token, bool) {
	if p.curIs(text) {
		return p.advance(), true
	}
	p.unexpected(fmt.Sprintf("'%s'", text))
	return lexer.Token{}, false
}

// expectIdent consumes an identifier and returns its name
func (p *Parser) expectIdent() (lexer.Token, bool) {
	if p.current().Type == lexer.IDENT {
		return p.advance(), true
	}
	p.unexpected("identifier")
	return lexer.Token{}, false
}

// unexpected records "expected <expected>, got '<current>'"
func (p *Parser) unexpected(expected string) {
	tok := p.current()
	p.addError("PARSE-0001", tok, map[string]any{
		"Expected": expected,
		"Got":      describe(tok),
	})
}

// describe renders a token for error messages
func describe(tok lexer.Token) string {
	if tok.Type == lexer.EOF {
		return "EOF"
	}
	return tok.Literal
}

// ParseProgram parses top-level declarations until EOF
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Declarations: []ast.Statement{}}

	for !p.failed() && p.current().Type != lexer.EOF {
		var decl ast.Statement
		switch {
		case p.curIs("var"):
			if d := p.parseDeclare(); d != nil {
				decl = d
			}
		case p.curIs("function"):
			if fd := p.parseFunctionDeclare(); fd != nil {
				decl = fd
			}
		default:
			p.addError("PARSE-0002", p.current(), map[string]any{"Got": describe(p.current())})
		}
		if decl != nil {
			program.Declarations = append(program.Declarations, decl)
		}
	}

	return program
}

// parseDeclare parses 'var name [= expr];'
func (p *Parser) parseDeclare() *ast.Declare {
	tok := p.advance() // 'var'
	name, ok := p.expectIdent()
	if !ok {
		return nil
	}
	decl := &ast.Declare{Token: tok, Name: name.Literal}

	if p.curIs("=") {
		p.advance()
		decl.Value = p.parseExpression(LOWEST)
		if p.failed() {
			return nil
		}
	}

	if _, ok := p.expect(";"); !ok {
		return nil
	}
	return decl
}

// parseFunctionDeclare parses 'function name(a, b) { ... }'
func (p *Parser) parseFunctionDeclare() *ast.FunctionDeclare {
	tok := p.advance() // 'function'
	name, ok := p.expectIdent()
	if !ok {
		return nil
	}
	if _, ok := p.expect("("); !ok {
		return nil
	}

	params := []string{}
	if !p.curIs(")") {
		for {
			param, ok := p.expectIdent()
			if !ok {
				return nil
			}
			params = append(params, param.Literal)
			if !p.curIs(",") {
				break
			}
			p.advance()
		}
	}
	if _, ok := p.expect(")"); !ok {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.FunctionDeclare{Token: tok, Name: name.Literal, Parameters: params, Body: body}
}

// parseBlock parses '{' statement+ '}'
func (p *Parser) parseBlock() *ast.Block {
	tok, ok := p.expect("{")
	if !ok {
		return nil
	}
	if p.curIs("}") {
		p.addError("PARSE-0005", p.current(), nil)
		return nil
	}

	block := &ast.Block{Token: tok}
	for !p.curIs("}") {
		if p.current().Type == lexer.EOF {
			p.unexpected("'}'")
			return nil
		}
		stmt := p.parseStatement()
		if stmt == nil {
			return nil
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.advance() // '}'
	return block
}

// parseStatement dispatches on the current token
func (p *Parser) parseStatement() ast.Statement {
	tok := p.current()

	switch {
	case tok.Is("var"):
		if d := p.parseDeclare(); d != nil {
			return d
		}
	case tok.Is("function"):
		if fd := p.parseFunctionDeclare(); fd != nil {
			return fd
		}
	case tok.Is("return"):
		if r := p.parseReturn(); r != nil {
			return r
		}
	case tok.Is("if"):
		return p.parseIf()
	case tok.Is("while"):
		if w := p.parseWhile(); w != nil {
			return w
		}
	case tok.Type == lexer.IDENT || tok.Is("$"):
		return p.parseSimpleStatement()
	default:
		p.addError("PARSE-0003", tok, map[string]any{"Got": describe(tok)})
	}
	return nil
}

// parseReturn parses 'return expr;'
func (p *Parser) parseReturn() *ast.Return {
	tok := p.advance() // 'return'
	value := p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}
	if _, ok := p.expect(";"); !ok {
		return nil
	}
	return &ast.Return{Token: tok, Value: value}
}

// parseIf parses 'if expr then block [else block]'
func (p *Parser) parseIf() ast.Statement {
	tok := p.advance() // 'if'
	cond := p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}
	if _, ok := p.expect("then"); !ok {
		return nil
	}
	then := p.parseBlock()
	if then == nil {
		return nil
	}

	if !p.curIs("else") {
		return &ast.IfThen{Token: tok, Condition: cond, Then: then}
	}
	p.advance() // 'else'
	otherwise := p.parseBlock()
	if otherwise == nil {
		return nil
	}
	return &ast.IfElse{Token: tok, Condition: cond, Then: then, Else: otherwise}
}

// parseWhile parses 'while expr do block'
func (p *Parser) parseWhile() *ast.While {
	tok := p.advance() // 'while'
	cond := p.parseExpression(LOWEST)
	if p.failed() {
		return nil
	}
	if _, ok := p.expect("do"); !ok {
		return nil
	}
	body := p.parseBlock()
	if body == nil {
		return nil
	}
	return &ast.While{Token: tok, Condition: cond, Body: body}
}

// parseSimpleStatement handles statements that start with a name: a call
// statement 'f(x);' or an assignment 'target op expr;'.
func (p *Parser) parseSimpleStatement() ast.Statement {
	start := p.current()
	expr := p.parseNamedOperand()
	if p.failed() {
		return nil
	}

	opTok := p.current()
	if opTok.Type == lexer.SYMBOL && assignOperators[opTok.Literal] {
		target, ok := asLValue(expr)
		if !ok {
			p.addError("PARSE-0004", start, nil)
			return nil
		}
		p.advance()
		value := p.parseExpression(LOWEST)
		if p.failed() {
			return nil
		}
		if _, ok := p.expect(";"); !ok {
			return nil
		}
		return &ast.AssignOp{Token: opTok, Operator: opTok.Literal, Target: target, Value: value}
	}

	if call, ok := expr.(*ast.FunctionCall); ok {
		if _, ok := p.expect(";"); !ok {
			return nil
		}
		return call
	}

	p.unexpected("'=' or a compound assignment")
	return nil
}

// asLValue accepts a bare name or an Access chain rooted at a bare name
func asLValue(expr ast.Expression) (ast.LValue, bool) {
	switch e := expr.(type) {
	case *ast.VariableLookup:
		return e, true
	case *ast.Access:
		if _, ok := asLValue(e.Target); ok {
			return e, true
		}
	}
	return nil, false
}

// parseExpression is the precedence-climbing loop: while the next operator
// binds tighter than rbp, fold it into a left-associative BinaryOp.
func (p *Parser) parseExpression(rbp int) ast.Expression {
	left := p.parseUnary()
	if p.failed() {
		return nil
	}

	for {
		tok := p.current()
		if tok.Type != lexer.SYMBOL {
			break
		}
		bp, ok := precedences[tok.Literal]
		if !ok || bp <= rbp {
			break
		}
		p.advance()
		right := p.parseExpression(bp)
		if p.failed() {
			return nil
		}
		left = &ast.BinaryOp{Token: tok, Operator: tok.Literal, Left: left, Right: right}
	}

	return left
}

// parseUnary parses prefix '-' and '!'
func (p *Parser) parseUnary() ast.Expression {
	if p.curIs("-") || p.curIs("!") {
		tok := p.advance()
		operand := p.parseUnary()
		if p.failed() {
			return nil
		}
		return &ast.UnaryOp{Token: tok, Operator: tok.Literal, Operand: operand}
	}
	return p.parsePrimary()
}

// parsePrimary parses groupings, names with their postfix chains, vector
// literals and scalar literals
func (p *Parser) parsePrimary() ast.Expression {
	tok := p.current()

	switch tok.Type {
	case lexer.IDENT:
		return p.parseNamedOperand()
	case lexer.INT:
		return &ast.Literal{Token: p.advance(), Kind: ast.IntLiteral, Text: tok.Literal}
	case lexer.REAL:
		return &ast.Literal{Token: p.advance(), Kind: ast.RealLiteral, Text: tok.Literal}
	case lexer.STRING:
		return &ast.Literal{Token: p.advance(), Kind: ast.StringLiteral, Text: tok.Literal}
	case lexer.BOOL:
		return &ast.Literal{Token: p.advance(), Kind: ast.BoolLiteral, Text: tok.Literal}
	}

	switch {
	case tok.Is("$"):
		return p.parseNamedOperand()
	case tok.Is("("):
		p.advance()
		expr := p.parseExpression(LOWEST)
		if p.failed() {
			return nil
		}
		if _, ok := p.expect(")"); !ok {
			return nil
		}
		return expr
	case tok.Is("["):
		p.advance()
		elems := p.parseExpressionList("]")
		if p.failed() {
			return nil
		}
		return &ast.VectorLiteral{Token: tok, Elements: elems}
	}

	p.addError("PARSE-0006", tok, map[string]any{"Got": describe(tok)})
	return nil
}

// parseNamedOperand parses 'name' or '$name' followed by any chain of
// call argument lists and index brackets, each wrapping the previous result.
func (p *Parser) parseNamedOperand() ast.Expression {
	global := false
	if p.curIs("$") {
		p.advance()
		global = true
	}
	name, ok := p.expectIdent()
	if !ok {
		return nil
	}

	var expr ast.Expression = &ast.VariableLookup{Token: name, Name: name.Literal, Global: global}
	for {
		tok := p.current()
		switch {
		case tok.Is("("):
			p.advance()
			args := p.parseExpressionList(")")
			if p.failed() {
				return nil
			}
			expr = &ast.FunctionCall{Token: tok, Callee: expr, Arguments: args}
		case tok.Is("["):
			p.advance()
			index := p.parseExpression(LOWEST)
			if p.failed() {
				return nil
			}
			if _, ok := p.expect("]"); !ok {
				return nil
			}
			expr = &ast.Access{Token: tok, Target: expr, Index: index}
		default:
			return expr
		}
	}
}

// parseExpressionList parses comma-separated expressions up to and
// including the closing symbol; an immediately closed list is empty.
func (p *Parser) parseExpressionList(closing string) []ast.Expression {
	list := []ast.Expression{}
	if p.curIs(closing) {
		p.advance()
		return list
	}

	for {
		expr := p.parseExpression(LOWEST)
		if p.failed() {
			return nil
		}
		list = append(list, expr)
		if !p.curIs(",") {
			break
		}
		p.advance()
	}

	if _, ok := p.expect(closing); !ok {
		return nil
	}
	return list
}
