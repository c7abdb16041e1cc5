package format

import (
	"strings"
)

// Tree drawing markers
const (
	BranchLast   = "`- "
	BranchMiddle = "|- "
	IndentLast   = "   "
	IndentMiddle = "|  "
)

// Printer manages tree output state
type Printer struct {
	output strings.Builder
	prefix []string // continuation indent for each open level
}

// NewPrinter creates a new Printer instance
func NewPrinter() *Printer {
	return &Printer{}
}

// String returns the formatted output
func (p *Printer) String() string {
	return p.output.String()
}

// writeln appends a string followed by a newline
func (p *Printer) writeln(s string) {
	p.output.WriteString(s)
	p.output.WriteString("\n")
}

// branch writes one tree line under the current prefix
func (p *Printer) branch(label string, last bool) {
	marker := BranchMiddle
	if last {
		marker = BranchLast
	}
	p.writeln(strings.Join(p.prefix, "") + marker + label)
}

// indentInc opens a level below a node drawn with the given last flag
func (p *Printer) indentInc(last bool) {
	if last {
		p.prefix = append(p.prefix, IndentLast)
	} else {
		p.prefix = append(p.prefix, IndentMiddle)
	}
}

// indentDec closes the innermost level
func (p *Printer) indentDec() {
	if len(p.prefix) > 0 {
		p.prefix = p.prefix[:len(p.prefix)-1]
	}
}
