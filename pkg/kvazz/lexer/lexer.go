package lexer

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/sambeau/kvazz/pkg/kvazz/errors"
)

// TokenType represents the kind of a token
type TokenType int

const (
	EOF     TokenType = iota
	IDENT             // x, total, fact
	KEYWORD           // var, if, while, ...
	INT               // 42
	REAL              // 3.14
	STRING            // "text" or 'text'
	BOOL              // true, false
	SYMBOL            // + - == { ...
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// Kind returns the token's kind as the parser matches it: the symbol text
// itself for symbols, the type name for everything else.
func (t Token) Kind() string {
	if t.Type == SYMBOL {
		return t.Literal
	}
	return t.Type.String()
}

// Is reports whether the token is the given symbol or keyword.
func (t Token) Is(text string) bool {
	return (t.Type == SYMBOL || t.Type == KEYWORD) && t.Literal == text
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case EOF:
		return "EOF"
	case IDENT:
		return "identifier"
	case KEYWORD:
		return "keyword"
	case INT:
		return "int-literal"
	case REAL:
		return "real-literal"
	case STRING:
		return "string-literal"
	case BOOL:
		return "bool-literal"
	case SYMBOL:
		return "symbol"
	default:
		return "UNKNOWN"
	}
}

// Keywords is the reserved-word set.
var Keywords = map[string]bool{
	"var":      true,
	"if":       true,
	"then":     true,
	"else":     true,
	"for":      true,
	"while":    true,
	"do":       true,
	"in":       true,
	"function": true,
	"return":   true,
}

// Symbols is the set of single-character symbols.
var Symbols = map[byte]bool{
	'{': true, '}': true, '(': true, ')': true, '[': true, ']': true,
	'<': true, '>': true, '+': true, '-': true, '*': true, '/': true,
	'%': true, '!': true, '?': true, '=': true, '.': true, ',': true,
	'&': true, '|': true, ';': true, ':': true, '$': true,
}

// CompoundSymbols are the two-character symbols, tried before single characters.
var CompoundSymbols = map[string]bool{
	"==": true, "!=": true, ">=": true, "<=": true,
	"+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
}

// LookupIdent classifies a word as keyword, bool literal or identifier
func LookupIdent(ident string) TokenType {
	if Keywords[ident] {
		return KEYWORD
	}
	if ident == "true" || ident == "false" {
		return BOOL
	}
	return IDENT
}

// Lexer represents the lexical analyzer
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination (first byte)
	chRune       rune // current character as a rune
	chSize       int  // byte size of current character
	line         int  // current line number
	column       int  // current column number
}

// New creates a new lexer instance. The input is normalized to NFC so that
// identifiers written with combining marks compare equal to precomposed ones.
func New(input string) *Lexer {
	l := &Lexer{
		input:  norm.NFC.String(input),
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// Tokenize scans the whole source and returns its tokens, without the
// trailing EOF token.
func Tokenize(source string) ([]Token, error) {
	l := New(source)
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if tok.Type == EOF {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

// readChar reads the next character and advances position.
// ASCII takes a fast path; anything else is decoded as UTF-8.
func (l *Lexer) readChar() {
	if l.chSize > 0 && l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		// EOF sits one column past the last character
		if l.chSize > 0 || l.column == 0 {
			l.column++
		}
		l.ch = 0
		l.chRune = 0
		l.chSize = 0
		l.position = len(l.input)
		return
	}

	b := l.input[l.readPosition]
	if b < utf8.RuneSelf {
		l.ch = b
		l.chRune = rune(b)
		l.chSize = 1
	} else {
		r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
		l.ch = b
		l.chRune = r
		l.chSize = size
	}
	l.position = l.readPosition
	l.readPosition += l.chSize
	l.column++
}

// atEOF reports whether the whole input has been consumed.
func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return Token{}, err
	}

	line, column := l.line, l.column

	if l.atEOF() {
		return Token{Type: EOF, Literal: "", Line: line, Column: column}, nil
	}

	switch {
	case isLetterRune(l.chRune):
		word := l.readIdentifier()
		return Token{Type: LookupIdent(word), Literal: word, Line: line, Column: column}, nil

	case isDigit(l.ch):
		num, isReal := l.readNumber()
		tokType := INT
		if isReal {
			tokType = REAL
		}
		return Token{Type: tokType, Literal: num, Line: line, Column: column}, nil

	case l.ch == '"' || l.ch == '\'':
		quote := l.ch
		str, terminated := l.readString(quote)
		if !terminated {
			return Token{}, errors.NewWithPosition("LEX-0002", line, column, map[string]any{
				"Quote": string(quote),
			})
		}
		return Token{Type: STRING, Literal: str, Line: line, Column: column}, nil

	case Symbols[l.ch]:
		if two := string([]byte{l.ch, l.peekChar()}); CompoundSymbols[two] {
			l.readChar()
			l.readChar()
			return Token{Type: SYMBOL, Literal: two, Line: line, Column: column}, nil
		}
		tok := newToken(SYMBOL, l.ch, line, column)
		l.readChar()
		return tok, nil
	}

	return Token{}, errors.NewWithPosition("LEX-0001", line, column, map[string]any{
		"Char": string(l.chRune),
	})
}

// newToken creates a new token with the given parameters
func newToken(tokenType TokenType, ch byte, line, column int) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: line, Column: column}
}

// readIdentifier reads an identifier or keyword.
// Supports Unicode letters (π, α, 日本語) in identifiers; digits stay ASCII.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for !l.atEOF() && (isLetterRune(l.chRune) || isDigit(l.ch)) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads an integer or real numeral. The decimal point is only
// consumed when a digit follows it, so "3." lexes as 3 followed by '.'.
func (l *Lexer) readNumber() (string, bool) {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}

	isReal := false
	if l.ch == '.' && isDigit(l.peekChar()) {
		isReal = true
		l.readChar() // consume the '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[position:l.position], isReal
}

// readString reads a quoted string up to the matching quote. There are no
// escape sequences; the string may span lines.
func (l *Lexer) readString(quote byte) (string, bool) {
	l.readChar() // skip opening quote
	position := l.position

	for !l.atEOF() && l.ch != quote {
		l.readChar()
	}
	if l.atEOF() {
		return "", false
	}

	str := l.input[position:l.position]
	l.readChar() // skip closing quote
	return str, true
}

// skipWhitespaceAndComments skips any run of whitespace, line comments (~)
// and block comments (~~ ... ~~).
func (l *Lexer) skipWhitespaceAndComments() error {
	for !l.atEOF() {
		switch {
		case unicode.IsSpace(l.chRune):
			l.readChar()
		case l.ch == '~' && l.peekChar() == '~':
			if err := l.skipBlockComment(); err != nil {
				return err
			}
		case l.ch == '~':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) skipBlockComment() error {
	line, column := l.line, l.column
	l.readChar()
	l.readChar()
	for !l.atEOF() {
		if l.ch == '~' && l.peekChar() == '~' {
			l.readChar()
			l.readChar()
			return nil
		}
		l.readChar()
	}
	return errors.NewWithPosition("LEX-0003", line, column, nil)
}

// isLetterRune checks if a rune can start an identifier (letter or underscore).
func isLetterRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// isDigit checks if the character is a digit
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
