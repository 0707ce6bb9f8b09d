// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fx

import "fmt"

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota

	// Literals
	TokenIdent
	TokenNumber
	TokenString

	// Punctuation the effect grammar cares about
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBracket  // [
	TokenRightBracket // ]
	TokenLess         // <
	TokenGreater      // >
	TokenEqual        // =
	TokenSemicolon    // ;
	TokenComma        // ,
	TokenColon        // :

	// TokenOther is any other character of the embedded shader code.
	TokenOther
)

var tokenNames = [...]string{
	TokenEOF:          "end of file",
	TokenIdent:        "identifier",
	TokenNumber:       "number",
	TokenString:       "string",
	TokenLeftBrace:    "'{'",
	TokenRightBrace:   "'}'",
	TokenLeftParen:    "'('",
	TokenRightParen:   "')'",
	TokenLeftBracket:  "'['",
	TokenRightBracket: "']'",
	TokenLess:         "'<'",
	TokenGreater:      "'>'",
	TokenEqual:        "'='",
	TokenSemicolon:    "';'",
	TokenComma:        "','",
	TokenColon:        "':'",
	TokenOther:        "symbol",
}

// String returns a human-readable token kind name.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// Token is one lexical token. Offset and End are byte offsets into the
// source; End is exclusive.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
	Offset int
	End    int
}

// Span is a byte range of the source, End exclusive.
type Span struct {
	Start int
	End   int
}
