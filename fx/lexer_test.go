// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fx

import (
	"errors"
	"testing"
)

func TestLexerBasicTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected []TokenKind
	}{
		{"{ } ( )", []TokenKind{TokenLeftBrace, TokenRightBrace, TokenLeftParen, TokenRightParen, TokenEOF}},
		{"[ ] < >", []TokenKind{TokenLeftBracket, TokenRightBracket, TokenLess, TokenGreater, TokenEOF}},
		{"= ; , :", []TokenKind{TokenEqual, TokenSemicolon, TokenComma, TokenColon, TokenEOF}},
		{"@ | -", []TokenKind{TokenOther, TokenOther, TokenOther, TokenEOF}},
		{"vs_4_0_level_9_1", []TokenKind{TokenIdent, TokenEOF}},
	}

	for _, tt := range tests {
		tokens, err := NewLexer("t.fx", tt.input).Tokenize()
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.input, err)
			continue
		}
		if len(tokens) != len(tt.expected) {
			t.Errorf("%q: expected %d tokens, got %d", tt.input, len(tt.expected), len(tokens))
			continue
		}
		for i, tok := range tokens {
			if tok.Kind != tt.expected[i] {
				t.Errorf("%q: token %d: expected %v, got %v", tt.input, i, tt.expected[i], tok.Kind)
			}
		}
	}
}

func TestLexerNumbers(t *testing.T) {
	for _, input := range []string{"0", "42", "1.5", ".5", "1.0f", "2u", "1e-3", "0xFF00FF00", "0.5h"} {
		tokens, err := NewLexer("t.fx", input).Tokenize()
		if err != nil {
			t.Fatalf("%q: %v", input, err)
		}
		if len(tokens) != 2 || tokens[0].Kind != TokenNumber || tokens[0].Lexeme != input {
			t.Errorf("%q: got %+v", input, tokens)
		}
	}
}

func TestLexerCommentsAndPositions(t *testing.T) {
	src := "// line comment\n/* block\ncomment */ technique T"
	tokens, err := NewLexer("t.fx", src).Tokenize()
	if err != nil {
		t.Fatal(err)
	}
	if len(tokens) != 3 {
		t.Fatalf("expected 3 tokens, got %d", len(tokens))
	}
	tech := tokens[0]
	if tech.Lexeme != "technique" || tech.Line != 3 || tech.Column != 12 {
		t.Errorf("technique token at %d:%d (%q)", tech.Line, tech.Column, tech.Lexeme)
	}
	if src[tech.Offset:tech.End] != "technique" {
		t.Errorf("offsets %d..%d do not cover the lexeme", tech.Offset, tech.End)
	}
}

func TestLexerErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"/* open", "unterminated block comment"},
		{"\"open", "unterminated string literal"},
	}
	for _, tt := range tests {
		_, err := NewLexer("t.fx", tt.input).Tokenize()
		var el SourceErrors
		if !errors.As(err, &el) {
			t.Fatalf("%q: expected SourceErrors, got %v", tt.input, err)
		}
		if el[0].Message != tt.msg {
			t.Errorf("%q: got %q", tt.input, el[0].Message)
		}
		if el[0].Pos.Line != 1 || el[0].Pos.Column != 1 {
			t.Errorf("%q: position %s", tt.input, el[0].Pos)
		}
	}
}
