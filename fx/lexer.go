// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fx

import (
	"unicode/utf8"
)

// Lexer tokenizes effect source. Shader code between the effect blocks is
// tokenized too, coarsely, so the parser can skip over it by brace depth.
type Lexer struct {
	source string
	pos    int
	line   int
	column int
	start  int
	startL int
	startC int
	tokens []Token
	errors SourceErrors
	file   string
}

// NewLexer creates a new lexer for the given source.
func NewLexer(file, source string) *Lexer {
	estTokens := len(source) / 6
	if estTokens < 16 {
		estTokens = 16
	}
	return &Lexer{
		source: source,
		line:   1,
		column: 1,
		tokens: make([]Token, 0, estTokens),
		file:   file,
	}
}

// Tokenize returns all tokens from the source. Lexical errors such as an
// unterminated comment are collected and returned together.
func (l *Lexer) Tokenize() ([]Token, error) {
	for !l.isAtEnd() {
		l.start = l.pos
		l.startL = l.line
		l.startC = l.column
		l.scanToken()
	}

	l.tokens = append(l.tokens, Token{
		Kind:   TokenEOF,
		Line:   l.line,
		Column: l.column,
		Offset: l.pos,
		End:    l.pos,
	})

	if l.errors.HasErrors() {
		return l.tokens, l.errors
	}
	return l.tokens, nil
}

func (l *Lexer) scanToken() {
	r := l.advance()

	switch r {
	case '{':
		l.addToken(TokenLeftBrace)
	case '}':
		l.addToken(TokenRightBrace)
	case '(':
		l.addToken(TokenLeftParen)
	case ')':
		l.addToken(TokenRightParen)
	case '[':
		l.addToken(TokenLeftBracket)
	case ']':
		l.addToken(TokenRightBracket)
	case '<':
		l.addToken(TokenLess)
	case '>':
		l.addToken(TokenGreater)
	case '=':
		l.addToken(TokenEqual)
	case ';':
		l.addToken(TokenSemicolon)
	case ',':
		l.addToken(TokenComma)
	case ':':
		l.addToken(TokenColon)
	case '"':
		l.stringLiteral()
	case '/':
		switch {
		case l.match('/'):
			for l.peek() != '\n' && !l.isAtEnd() {
				l.advance()
			}
		case l.match('*'):
			l.blockComment()
		default:
			l.addToken(TokenOther)
		}

	case ' ', '\r', '\t':
	case '\n':
		l.line++
		l.column = 1

	default:
		switch {
		case isDigit(r) || r == '.' && isDigit(l.peek()):
			l.number()
		case isAlpha(r) || r == '_':
			l.identifier()
		default:
			l.addToken(TokenOther)
		}
	}
}

func (l *Lexer) identifier() {
	for isAlpha(l.peek()) || isDigit(l.peek()) || l.peek() == '_' {
		l.advance()
	}
	l.addToken(TokenIdent)
}

// number accepts decimal, float (with exponent and suffix) and hex literals.
func (l *Lexer) number() {
	if l.source[l.start] == '0' && (l.peek() == 'x' || l.peek() == 'X') {
		l.advance()
		for isHexDigit(l.peek()) {
			l.advance()
		}
		l.addToken(TokenNumber)
		return
	}
	for isDigit(l.peek()) || l.peek() == '.' {
		l.advance()
	}
	if l.peek() == 'e' || l.peek() == 'E' {
		l.advance()
		if l.peek() == '+' || l.peek() == '-' {
			l.advance()
		}
		for isDigit(l.peek()) {
			l.advance()
		}
	}
	// Shader literal suffixes: 1.0f, 1u, 2i, 0.5h.
	switch l.peek() {
	case 'f', 'F', 'u', 'U', 'i', 'h':
		l.advance()
	}
	l.addToken(TokenNumber)
}

func (l *Lexer) stringLiteral() {
	for l.peek() != '"' && l.peek() != '\n' && !l.isAtEnd() {
		l.advance()
	}
	if l.peek() != '"' {
		l.errors.Add(&SourceError{
			Message: "unterminated string literal",
			Pos:     l.startPos(),
		})
		return
	}
	l.advance()
	l.addToken(TokenString)
}

func (l *Lexer) blockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.advance()
			l.advance()
			return
		}
		if l.advance() == '\n' {
			l.line++
			l.column = 1
		}
	}
	l.errors.Add(&SourceError{
		Message: "unterminated block comment",
		Pos:     l.startPos(),
	})
}

func (l *Lexer) startPos() Position {
	return Position{File: l.file, Line: l.startL, Column: l.startC}
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:   kind,
		Lexeme: l.source[l.start:l.pos],
		Line:   l.startL,
		Column: l.startC,
		Offset: l.start,
		End:    l.pos,
	})
}

func (l *Lexer) advance() rune {
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	l.pos += size
	l.column++
	return r
}

func (l *Lexer) match(expected rune) bool {
	if l.isAtEnd() {
		return false
	}
	r, size := utf8.DecodeRuneInString(l.source[l.pos:])
	if r != expected {
		return false
	}
	l.pos += size
	l.column++
	return true
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return r
}

func (l *Lexer) peekNext() rune {
	if l.pos+1 >= len(l.source) {
		return 0
	}
	_, size := utf8.DecodeRuneInString(l.source[l.pos:])
	r, _ := utf8.DecodeRuneInString(l.source[l.pos+size:])
	return r
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.source)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isHexDigit(r rune) bool {
	return isDigit(r) || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
