package ast

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sambeau/kvazz/pkg/kvazz/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string

	// Label is the one-line description used by tree dumps. It carries the
	// node's whole payload (operator, name, literal text), so two nodes with
	// equal labels and equal children are structurally equal.
	Label() string

	// Children returns the ordered child nodes; leaves return nil.
	Children() []Node

	// Position returns the 1-based line and column of the node's token.
	Position() (int, int)
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// LValue is an assignment target: a VariableLookup or an Access chain.
type LValue interface {
	Expression
	lvalueNode()
}

// Program represents the root node of every AST
type Program struct {
	Declarations []Statement // *Declare or *FunctionDeclare
}

func (p *Program) TokenLiteral() string {
	if len(p.Declarations) > 0 {
		return p.Declarations[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	parts := make([]string, len(p.Declarations))
	for i, d := range p.Declarations {
		parts[i] = d.String()
	}
	return strings.Join(parts, "\n")
}

func (p *Program) Label() string { return "Program" }

func (p *Program) Children() []Node {
	children := make([]Node, len(p.Declarations))
	for i, d := range p.Declarations {
		children[i] = d
	}
	return children
}

func (p *Program) Position() (int, int) {
	if len(p.Declarations) > 0 {
		return p.Declarations[0].Position()
	}
	return 1, 1
}

// Block is a braced, non-empty sequence of statements
type Block struct {
	Token      lexer.Token // the '{' token
	Statements []Statement
}

func (b *Block) statementNode()       {}
func (b *Block) TokenLiteral() string { return b.Token.Literal }
func (b *Block) Position() (int, int) { return b.Token.Line, b.Token.Column }
func (b *Block) Label() string        { return "Block" }
func (b *Block) String() string {
	var out bytes.Buffer
	out.WriteString("{ ")
	for _, s := range b.Statements {
		out.WriteString(s.String())
		out.WriteString(" ")
	}
	out.WriteString("}")
	return out.String()
}

func (b *Block) Children() []Node {
	children := make([]Node, len(b.Statements))
	for i, s := range b.Statements {
		children[i] = s
	}
	return children
}

// Declare represents 'var name = value;' (Value is nil for 'var name;')
type Declare struct {
	Token lexer.Token // the 'var' token
	Name  string
	Value Expression
}

func (d *Declare) statementNode()       {}
func (d *Declare) TokenLiteral() string { return d.Token.Literal }
func (d *Declare) Position() (int, int) { return d.Token.Line, d.Token.Column }
func (d *Declare) Label() string        { return "Declare " + d.Name }
func (d *Declare) String() string {
	if d.Value == nil {
		return "var " + d.Name + ";"
	}
	return "var " + d.Name + " = " + d.Value.String() + ";"
}

func (d *Declare) Children() []Node {
	if d.Value == nil {
		return nil
	}
	return []Node{d.Value}
}

// FunctionDeclare represents 'function name(params) { ... }'
type FunctionDeclare struct {
	Token      lexer.Token // the 'function' token
	Name       string
	Parameters []string
	Body       *Block
}

func (fd *FunctionDeclare) statementNode()       {}
func (fd *FunctionDeclare) TokenLiteral() string { return fd.Token.Literal }
func (fd *FunctionDeclare) Position() (int, int) { return fd.Token.Line, fd.Token.Column }
func (fd *FunctionDeclare) Label() string {
	return fmt.Sprintf("FunctionDeclare %s(%s)", fd.Name, strings.Join(fd.Parameters, ", "))
}
func (fd *FunctionDeclare) String() string {
	return fmt.Sprintf("function %s(%s) %s", fd.Name, strings.Join(fd.Parameters, ", "), fd.Body.String())
}
func (fd *FunctionDeclare) Children() []Node { return []Node{fd.Body} }

// Return represents 'return value;'
type Return struct {
	Token lexer.Token // the 'return' token
	Value Expression
}

func (r *Return) statementNode()       {}
func (r *Return) TokenLiteral() string { return r.Token.Literal }
func (r *Return) Position() (int, int) { return r.Token.Line, r.Token.Column }
func (r *Return) Label() string        { return "Return" }
func (r *Return) String() string       { return "return " + r.Value.String() + ";" }
func (r *Return) Children() []Node     { return []Node{r.Value} }

// AssignOp represents 'target op value;' for '=' and the compound operators
type AssignOp struct {
	Token    lexer.Token // the operator token
	Operator string      // "=", "+=", "-=", "*=", "/=", "%="
	Target   LValue
	Value    Expression
}

func (a *AssignOp) statementNode()       {}
func (a *AssignOp) TokenLiteral() string { return a.Token.Literal }
func (a *AssignOp) Position() (int, int) { return a.Token.Line, a.Token.Column }
func (a *AssignOp) Label() string        { return "AssignOp " + a.Operator }
func (a *AssignOp) String() string {
	return a.Target.String() + " " + a.Operator + " " + a.Value.String() + ";"
}
func (a *AssignOp) Children() []Node { return []Node{a.Target, a.Value} }

// BinaryOperator returns the arithmetic operator a compound assignment
// applies ("+" for "+="), or "" for plain '='.
func (a *AssignOp) BinaryOperator() string {
	if a.Operator == "=" {
		return ""
	}
	return strings.TrimSuffix(a.Operator, "=")
}

// IfThen represents 'if cond then { ... }'
type IfThen struct {
	Token     lexer.Token // the 'if' token
	Condition Expression
	Then      *Block
}

func (i *IfThen) statementNode()       {}
func (i *IfThen) TokenLiteral() string { return i.Token.Literal }
func (i *IfThen) Position() (int, int) { return i.Token.Line, i.Token.Column }
func (i *IfThen) Label() string        { return "IfThen" }
func (i *IfThen) String() string {
	return "if " + i.Condition.String() + " then " + i.Then.String()
}
func (i *IfThen) Children() []Node { return []Node{i.Condition, i.Then} }

// IfElse represents 'if cond then { ... } else { ... }'
type IfElse struct {
	Token     lexer.Token // the 'if' token
	Condition Expression
	Then      *Block
	Else      *Block
}

func (i *IfElse) statementNode()       {}
func (i *IfElse) TokenLiteral() string { return i.Token.Literal }
func (i *IfElse) Position() (int, int) { return i.Token.Line, i.Token.Column }
func (i *IfElse) Label() string        { return "IfElse" }
func (i *IfElse) String() string {
	return "if " + i.Condition.String() + " then " + i.Then.String() + " else " + i.Else.String()
}
func (i *IfElse) Children() []Node { return []Node{i.Condition, i.Then, i.Else} }

// While represents 'while cond do { ... }'
type While struct {
	Token     lexer.Token // the 'while' token
	Condition Expression
	Body      *Block
}

func (w *While) statementNode()       {}
func (w *While) TokenLiteral() string { return w.Token.Literal }
func (w *While) Position() (int, int) { return w.Token.Line, w.Token.Column }
func (w *While) Label() string        { return "While" }
func (w *While) String() string {
	return "while " + w.Condition.String() + " do " + w.Body.String()
}
func (w *While) Children() []Node { return []Node{w.Condition, w.Body} }

// BinaryOp represents 'left op right'
type BinaryOp struct {
	Token    lexer.Token // the operator token
	Operator string
	Left     Expression
	Right    Expression
}

func (b *BinaryOp) expressionNode()      {}
func (b *BinaryOp) TokenLiteral() string { return b.Token.Literal }
func (b *BinaryOp) Position() (int, int) { return b.Token.Line, b.Token.Column }
func (b *BinaryOp) Label() string        { return "BinaryOp " + b.Operator }
func (b *BinaryOp) String() string {
	return "(" + b.Left.String() + " " + b.Operator + " " + b.Right.String() + ")"
}
func (b *BinaryOp) Children() []Node { return []Node{b.Left, b.Right} }

// UnaryOp represents '-operand' and '!operand'
type UnaryOp struct {
	Token    lexer.Token // the operator token
	Operator string
	Operand  Expression
}

func (u *UnaryOp) expressionNode()      {}
func (u *UnaryOp) TokenLiteral() string { return u.Token.Literal }
func (u *UnaryOp) Position() (int, int) { return u.Token.Line, u.Token.Column }
func (u *UnaryOp) Label() string        { return "UnaryOp " + u.Operator }
func (u *UnaryOp) String() string       { return "(" + u.Operator + u.Operand.String() + ")" }
func (u *UnaryOp) Children() []Node     { return []Node{u.Operand} }

// FunctionCall represents 'callee(args)'. It is both an expression and,
// followed by ';', a statement.
type FunctionCall struct {
	Token     lexer.Token // the '(' token
	Callee    Expression
	Arguments []Expression
}

func (fc *FunctionCall) expressionNode()      {}
func (fc *FunctionCall) statementNode()       {}
func (fc *FunctionCall) TokenLiteral() string { return fc.Token.Literal }
func (fc *FunctionCall) Position() (int, int) { return fc.Token.Line, fc.Token.Column }
func (fc *FunctionCall) Label() string        { return "FunctionCall" }
func (fc *FunctionCall) String() string {
	args := make([]string, len(fc.Arguments))
	for i, a := range fc.Arguments {
		args[i] = a.String()
	}
	return fc.Callee.String() + "(" + strings.Join(args, ", ") + ")"
}

func (fc *FunctionCall) Children() []Node {
	children := make([]Node, 0, len(fc.Arguments)+1)
	children = append(children, fc.Callee)
	for _, a := range fc.Arguments {
		children = append(children, a)
	}
	return children
}

// Access represents an indexed read 'target[index]'
type Access struct {
	Token  lexer.Token // the '[' token
	Target Expression
	Index  Expression
}

func (a *Access) expressionNode()      {}
func (a *Access) lvalueNode()          {}
func (a *Access) TokenLiteral() string { return a.Token.Literal }
func (a *Access) Position() (int, int) { return a.Token.Line, a.Token.Column }
func (a *Access) Label() string        { return "Access" }
func (a *Access) String() string       { return a.Target.String() + "[" + a.Index.String() + "]" }
func (a *Access) Children() []Node     { return []Node{a.Target, a.Index} }

// VariableLookup represents a name, optionally '$'-qualified to resolve in
// the global frame
type VariableLookup struct {
	Token  lexer.Token // the identifier token
	Name   string
	Global bool
}

func (v *VariableLookup) expressionNode()      {}
func (v *VariableLookup) lvalueNode()          {}
func (v *VariableLookup) TokenLiteral() string { return v.Token.Literal }
func (v *VariableLookup) Position() (int, int) { return v.Token.Line, v.Token.Column }
func (v *VariableLookup) Label() string        { return "VariableLookup " + v.String() }
func (v *VariableLookup) Children() []Node     { return nil }
func (v *VariableLookup) String() string {
	if v.Global {
		return "$" + v.Name
	}
	return v.Name
}

// LiteralKind distinguishes the literal sub-kinds
type LiteralKind int

const (
	BoolLiteral LiteralKind = iota
	IntLiteral
	RealLiteral
	StringLiteral
)

func (k LiteralKind) String() string {
	switch k {
	case BoolLiteral:
		return "bool-literal"
	case IntLiteral:
		return "int-literal"
	case RealLiteral:
		return "real-literal"
	case StringLiteral:
		return "string-literal"
	default:
		return "unknown-literal"
	}
}

// Literal holds the literal's source text; the evaluator parses it on first use
type Literal struct {
	Token lexer.Token
	Kind  LiteralKind
	Text  string
}

func (l *Literal) expressionNode()      {}
func (l *Literal) TokenLiteral() string { return l.Token.Literal }
func (l *Literal) Position() (int, int) { return l.Token.Line, l.Token.Column }
func (l *Literal) Label() string        { return fmt.Sprintf("%s '%s'", l.Kind, l.Text) }
func (l *Literal) Children() []Node     { return nil }
func (l *Literal) String() string {
	if l.Kind == StringLiteral {
		if strings.Contains(l.Text, `"`) {
			return "'" + l.Text + "'"
		}
		return `"` + l.Text + `"`
	}
	return l.Text
}

// VectorLiteral represents '[e1, e2, ...]'
type VectorLiteral struct {
	Token    lexer.Token // the '[' token
	Elements []Expression
}

func (v *VectorLiteral) expressionNode()      {}
func (v *VectorLiteral) TokenLiteral() string { return v.Token.Literal }
func (v *VectorLiteral) Position() (int, int) { return v.Token.Line, v.Token.Column }
func (v *VectorLiteral) Label() string        { return "VectorLiteral" }
func (v *VectorLiteral) String() string {
	elems := make([]string, len(v.Elements))
	for i, e := range v.Elements {
		elems[i] = e.String()
	}
	return "[" + strings.Join(elems, ", ") + "]"
}

func (v *VectorLiteral) Children() []Node {
	children := make([]Node, len(v.Elements))
	for i, e := range v.Elements {
		children[i] = e
	}
	return children
}

// Equal reports whether two trees are structurally equal: same node kinds,
// same payload, pairwise equal children. Positions are ignored.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fmt.Sprintf("%T", a) != fmt.Sprintf("%T", b) || a.Label() != b.Label() {
		return false
	}
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}

// Inspect traverses the tree depth-first, calling f for each node. If f
// returns false the node's children are skipped.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || !f(node) {
		return
	}
	for _, child := range node.Children() {
		Inspect(child, f)
	}
}
