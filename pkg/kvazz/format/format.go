// Package format renders Kvazz syntax trees and token streams for human
// inspection (kvazz -ast, kvazz -tokens).
package format

import (
	"fmt"
	"strings"

	"github.com/sambeau/kvazz/pkg/kvazz/ast"
	"github.com/sambeau/kvazz/pkg/kvazz/lexer"
)

// Tree renders node and its descendants depth-first, one node per line.
// The last child at each level is marked with "`- ", the others with "|- ".
func Tree(node ast.Node) string {
	p := NewPrinter()
	p.Tree(node)
	return p.String()
}

// Tree appends node's tree to the printer output
func (p *Printer) Tree(node ast.Node) {
	if node == nil {
		return
	}
	p.node(node, true)
}

func (p *Printer) node(node ast.Node, last bool) {
	p.branch(node.Label(), last)
	p.indentInc(last)
	defer p.indentDec()

	children := node.Children()
	for i, child := range children {
		if child == nil {
			continue
		}
		p.node(child, i == len(children)-1)
	}
}

// Tokens renders one token per line as "kind 'lexeme'"
func Tokens(tokens []lexer.Token) string {
	var sb strings.Builder
	for _, tok := range tokens {
		if tok.Type == lexer.EOF {
			continue
		}
		fmt.Fprintf(&sb, "%s '%s'\n", tok.Type, tok.Literal)
	}
	return sb.String()
}

// TokensWithPositions renders tokens as "line:column kind 'lexeme'" with
// the positions aligned
func TokensWithPositions(tokens []lexer.Token) string {
	positions := make([]string, len(tokens))
	width := 0
	for i, tok := range tokens {
		positions[i] = fmt.Sprintf("%d:%d", tok.Line, tok.Column)
		if len(positions[i]) > width {
			width = len(positions[i])
		}
	}

	var sb strings.Builder
	for i, tok := range tokens {
		if tok.Type == lexer.EOF {
			continue
		}
		fmt.Fprintf(&sb, "%-*s  %s '%s'\n", width, positions[i], tok.Type, tok.Literal)
	}
	return sb.String()
}
