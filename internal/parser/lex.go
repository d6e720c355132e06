// Package parser implements a deliberately small recursive-descent parser
// over the C subset occ's core packages need to be exercised end to end:
// int/char/pointer/struct declarations, the full precedence-climbing
// expression grammar for the operators the IR models, and
// if/while/return/block/assignment statements and function definitions.
// It is not a conforming C front end — the lexer, preprocessor, and full
// grammar are out of scope; this is just enough to drive
// internal/types, internal/symtab, and internal/ir from real C-looking
// source text.
package parser

import (
	"fmt"
	"strconv"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokInt
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	ival int64
	pos  int
}

// lexer tokenizes a fixed-size source buffer. It recognizes C identifiers
// and keywords, decimal/hex integer literals, and the fixed set of
// punctuators this grammar needs.
type lexer struct {
	src []byte
	pos int
}

func newLexer(src string) *lexer { return &lexer{src: []byte(src)} }

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool  { return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isAlnum(c byte) bool  { return isAlpha(c) || isDigit(c) }

var punctuators = []string{
	"<<=", ">>=", "...",
	"==", "!=", ">=", "<=", "&&", "||", "<<", ">>", "++", "--", "->",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=",
	"+", "-", "*", "/", "%", "&", "|", "^", "~", "!", "=", "<", ">",
	"(", ")", "{", "}", "[", "]", ";", ",", ".", ":", "?",
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		if c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/' {
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
			continue
		}
		if c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '*' {
			l.pos += 2
			for l.pos+1 < len(l.src) && !(l.src[l.pos] == '*' && l.src[l.pos+1] == '/') {
				l.pos++
			}
			l.pos += 2
			continue
		}
		break
	}
}

func (l *lexer) next() token {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, pos: start}
	}
	c := l.src[l.pos]
	if isDigit(c) {
		for l.pos < len(l.src) && (isAlnum(l.src[l.pos]) || (l.src[l.pos] == 'x' && l.pos == start+1)) {
			l.pos++
		}
		text := string(l.src[start:l.pos])
		v, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			v = 0
		}
		return token{kind: tokInt, text: text, ival: v, pos: start}
	}
	if isAlpha(c) {
		for l.pos < len(l.src) && isAlnum(l.src[l.pos]) {
			l.pos++
		}
		return token{kind: tokIdent, text: string(l.src[start:l.pos]), pos: start}
	}
	for _, p := range punctuators {
		if l.pos+len(p) <= len(l.src) && string(l.src[l.pos:l.pos+len(p)]) == p {
			l.pos += len(p)
			return token{kind: tokPunct, text: p, pos: start}
		}
	}
	l.pos++
	return token{kind: tokPunct, text: string(c), pos: start}
}

func (l *lexer) errorAt(pos int, format string, args ...interface{}) error {
	return fmt.Errorf("offset %d: %s", pos, fmt.Sprintf(format, args...))
}
