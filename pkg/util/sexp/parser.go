// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package sexp

import (
	"fmt"
	"unicode"
)

// Parse a given string into exactly one S-expression, or return an error if
// the string is malformed.  The parser is also returned, since this retains
// the span of every S-expression for reporting later errors.
func Parse(text string) (SExp, *Parser, *SyntaxError) {
	p := NewParser(text)
	// Parse the input
	sExp, err := p.Parse()
	// Sanity check everything was parsed
	if err != nil {
		return nil, p, err
	} else if sExp == nil {
		return nil, p, p.error("unexpected end-of-file")
	} else if p.SkipWhiteSpace(); p.index != len(p.text) {
		return nil, p, p.error("unexpected remainder")
	}
	// Done
	return sExp, p, nil
}

// Span represents a contiguous slice of the original text.
type Span struct {
	start int
	end   int
}

// Start returns the first index of this span in the original text.
func (p Span) Start() int {
	return p.start
}

// End returns one past the last index of this span in the original text.
func (p Span) End() int {
	return p.end
}

// SyntaxError is a structured error which retains the span of the original
// text where an error occurred, along with an error message.
type SyntaxError struct {
	span Span
	msg  string
}

// Span returns the span of the original text on which this error is reported.
func (p *SyntaxError) Span() Span {
	return p.span
}

// Message returns the message to be reported.
func (p *SyntaxError) Message() string {
	return p.msg
}

// Error implements the error interface.
func (p *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d:%s", p.span.start, p.span.end, p.msg)
}

// Parser represents a parser in the process of parsing a given string into one
// or more S-expressions.
type Parser struct {
	// Text being parsed
	text []rune
	// Determine current position within text
	index int
	// Mapping from constructed S-Expressions to their spans in the original text.
	spans map[SExp]Span
}

// NewParser constructs a new instance of Parser
func NewParser(text string) *Parser {
	return &Parser{[]rune(text), 0, make(map[SExp]Span)}
}

// SpanOf returns the span of the original text from which a given
// S-expression was parsed.
func (p *Parser) SpanOf(sexp SExp) Span {
	return p.spans[sexp]
}

// Error constructs a syntax error covering the original text of a given
// S-expression.
func (p *Parser) Error(sexp SExp, msg string) *SyntaxError {
	return &SyntaxError{p.spans[sexp], msg}
}

// Parse a given string into an S-Expression, or produce an error.  This
// returns nil when the end of the text has been reached.
func (p *Parser) Parse() (SExp, *SyntaxError) {
	var term SExp
	// Skip over any whitespace.  This is import to get the correct starting
	// point for this term.
	p.SkipWhiteSpace()
	// Record start of this term
	start := p.index
	// Extract next token from the stream
	token := p.next()
	//
	switch {
	case token == nil:
		return nil, nil
	case len(token) == 1 && (token[0] == ')' || token[0] == ']'):
		p.index-- // backup
		return nil, p.error("unexpected end-of-list")
	case len(token) == 1 && token[0] == '(':
		elements, err := p.parseSequence(')')
		// Check for error
		if err != nil {
			return nil, err
		}
		//
		term = &List{elements}
	case len(token) == 1 && token[0] == '[':
		elements, err := p.parseSequence(']')
		// Check for error
		if err != nil {
			return nil, err
		}
		//
		term = &Array{elements}
	default:
		// Must be a symbol
		term = &Symbol{string(token)}
	}
	// Register item in source map
	p.spans[term] = Span{start, p.index}
	// Done
	return term, nil
}

// SkipWhiteSpace skips over any whitespace, including comments.
func (p *Parser) SkipWhiteSpace() {
	for p.index < len(p.text) && (unicode.IsSpace(p.text[p.index]) || p.text[p.index] == ';') {
		// Skip comment
		if p.text[p.index] == ';' {
			for p.index < len(p.text) && p.text[p.index] != '\n' {
				p.index++
			}
		} else {
			// skip space
			p.index++
		}
	}
}

// next extracts the next token from a given string.
func (p *Parser) next() []rune {
	// Skip any whitespace and/or comments.
	p.SkipWhiteSpace()
	// Catch end-of-file
	if p.index == len(p.text) {
		return nil
	}
	// Check what we have
	switch p.text[p.index] {
	case '(', ')', '[', ']':
		// List/array begin / end
		p.index = p.index + 1
		return p.text[p.index-1 : p.index]
	}
	// Symbol
	start := p.index
	//
	for p.index < len(p.text) && isSymbolLetter(p.text[p.index]) && p.text[p.index] != ';' {
		p.index++
	}
	//
	return p.text[start:p.index]
}

func (p *Parser) parseSequence(terminator rune) ([]SExp, *SyntaxError) {
	var elements []SExp
	//
	for {
		p.SkipWhiteSpace()
		//
		if p.index == len(p.text) {
			return nil, p.error("unexpected end-of-file")
		} else if p.text[p.index] == terminator {
			p.index++
			return elements, nil
		}
		// Parse next element
		element, err := p.Parse()
		if err != nil {
			return nil, err
		}
		//
		elements = append(elements, element)
	}
}

// Construct a parser error at the current position in the input stream.
func (p *Parser) error(msg string) *SyntaxError {
	return &SyntaxError{Span{p.index, p.index + 1}, msg}
}
