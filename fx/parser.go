// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package fx

import (
	"fmt"
	"strings"
)

// Parse evaluates the effect blocks of source and returns the shader info.
// Parse errors of the whole file are collected and returned together as
// SourceErrors; on error the returned ShaderInfo is nil.
func Parse(file, source string) (*ShaderInfo, error) {
	tokens, lexErr := NewLexer(file, source).Tokenize()

	p := NewParser(file, tokens)
	if lexErr != nil {
		if el, ok := lexErr.(SourceErrors); ok {
			p.errors = append(p.errors, el...)
		}
	}
	info := p.Parse()
	if p.errors.HasErrors() {
		return nil, p.errors
	}

	info.Source = source
	info.CleanSource = Exclude(source, info.Excluded)

	// Techniques without passes carry nothing to compile.
	kept := info.Techniques[:0]
	for _, t := range info.Techniques {
		if len(t.Passes) > 0 {
			kept = append(kept, t)
		}
	}
	info.Techniques = kept
	if len(info.Techniques) == 0 {
		return nil, ErrNoTechniques
	}
	return info, nil
}

// Exclude returns source with every span blanked out. Newlines are kept so
// line and column positions of the remaining text do not move.
func Exclude(source string, spans []Span) string {
	if len(spans) == 0 {
		return source
	}
	buf := []byte(source)
	for _, s := range spans {
		end := min(s.End, len(buf))
		for i := max(s.Start, 0); i < end; i++ {
			if buf[i] != '\n' && buf[i] != '\r' {
				buf[i] = ' '
			}
		}
	}
	return string(buf)
}

// Parser walks the token stream at brace depth zero and parses technique
// and sampler_state blocks. Everything else is shader code and is skipped.
type Parser struct {
	file    string
	tokens  []Token
	current int
	errors  SourceErrors
}

// NewParser creates a new parser for the given tokens.
func NewParser(file string, tokens []Token) *Parser {
	return &Parser{file: file, tokens: tokens}
}

// Parse parses all effect blocks. Errors are available through Errors.
func (p *Parser) Parse() *ShaderInfo {
	info := &ShaderInfo{
		File:          p.file,
		SamplerStates: make(map[string]*SamplerStateInfo),
	}

	depth := 0
	atStatement := true
	for !p.isAtEnd() {
		tok := p.peek()
		switch {
		case depth == 0 && atStatement && isTechniqueKeyword(tok):
			start := tok.Offset
			t, err := p.technique()
			if err != nil {
				p.errors.Add(err)
				p.skipBlock()
			} else {
				info.Techniques = append(info.Techniques, t)
			}
			info.Excluded = append(info.Excluded, Span{Start: start, End: p.previous().End})
			continue

		case depth == 0 && atStatement && p.isSamplerDecl():
			start := tok.Offset
			s, err := p.samplerDecl()
			if err != nil {
				p.errors.Add(err)
				p.synchronize()
			} else if prev, dup := info.SamplerStates[s.Name]; dup {
				p.errors.Add(&SourceError{
					Message: fmt.Sprintf("sampler %q already declared at %s", s.Name, prev.Pos),
					Pos:     s.Pos,
				})
			} else {
				info.SamplerStates[s.Name] = s
			}
			info.Excluded = append(info.Excluded, Span{Start: start, End: p.previous().End})
			atStatement = true
			continue
		}

		p.advance()
		switch tok.Kind {
		case TokenLeftBrace:
			depth++
			atStatement = true
		case TokenRightBrace:
			if depth > 0 {
				depth--
			}
			atStatement = true
		case TokenSemicolon:
			atStatement = true
		default:
			atStatement = false
		}
	}
	return info
}

// Errors returns the errors collected so far.
func (p *Parser) Errors() SourceErrors {
	return p.errors
}

func isTechniqueKeyword(tok Token) bool {
	if tok.Kind != TokenIdent {
		return false
	}
	switch strings.ToLower(tok.Lexeme) {
	case "technique", "technique10", "technique11":
		return true
	}
	return false
}

func isSamplerKeyword(tok Token) bool {
	if tok.Kind != TokenIdent {
		return false
	}
	switch tok.Lexeme {
	case "sampler", "sampler1D", "sampler2D", "sampler3D", "samplerCUBE", "SamplerState":
		return true
	}
	return false
}

// isSamplerDecl looks ahead for `sampler NAME ... = sampler_state` before
// the next semicolon.
func (p *Parser) isSamplerDecl() bool {
	if !isSamplerKeyword(p.peek()) || p.peekAt(1).Kind != TokenIdent {
		return false
	}
	for i := p.current + 2; i < len(p.tokens); i++ {
		t := p.tokens[i]
		switch t.Kind {
		case TokenSemicolon, TokenLeftBrace, TokenEOF:
			return false
		case TokenIdent:
			if strings.EqualFold(t.Lexeme, "sampler_state") {
				return true
			}
		}
	}
	return false
}

// technique parses `technique NAME <annotations> { pass ... }`.
func (p *Parser) technique() (*Technique, *SourceError) {
	start := p.advance()
	t := &Technique{Pos: p.pos(start)}

	if p.check(TokenIdent) {
		t.Name = p.advance().Lexeme
	}
	if err := p.annotations(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftBrace, "to open technique"); err != nil {
		return nil, err
	}

	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		if !p.checkWord("pass") {
			return nil, p.errorAt(p.peek(), fmt.Sprintf("expected 'pass', found %s", describe(p.peek())))
		}
		pass, err := p.pass()
		if err != nil {
			p.errors.Add(err)
			p.skipBlock()
			continue
		}
		t.Passes = append(t.Passes, pass)
	}

	if err := p.expect(TokenRightBrace, "to close technique"); err != nil {
		return nil, err
	}
	return t, nil
}

// pass parses `pass NAME <annotations> { STATE = VALUE; ... }`.
func (p *Parser) pass() (*Pass, *SourceError) {
	start := p.advance()
	pass := &Pass{Pos: p.pos(start)}

	if p.check(TokenIdent) {
		pass.Name = p.advance().Lexeme
	}
	if err := p.annotations(); err != nil {
		return nil, err
	}
	if err := p.expect(TokenLeftBrace, "to open pass"); err != nil {
		return nil, err
	}

	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		name, value, err := p.assignment()
		if err != nil {
			p.errors.Add(err)
			p.synchronize()
			continue
		}

		switch strings.ToLower(name.Lexeme) {
		case "vertexshader":
			fn, model, ok := compileStatement(value)
			if ok {
				pass.VertexFunction, pass.VertexModel = fn, model
			} else {
				pass.VertexExpression = value.Text()
			}
		case "pixelshader":
			fn, model, ok := compileStatement(value)
			if ok {
				pass.PixelFunction, pass.PixelModel = fn, model
			} else {
				pass.PixelExpression = value.Text()
			}
		default:
			if err := pass.SetState(name.Lexeme, value); err != nil {
				p.errors.Add(&SourceError{Message: err.Error(), Pos: value.Pos})
			}
		}
	}

	if err := p.expect(TokenRightBrace, "to close pass"); err != nil {
		return nil, err
	}
	return pass, nil
}

// samplerDecl parses `sampler NAME [: register] = sampler_state { ... };`.
func (p *Parser) samplerDecl() (*SamplerStateInfo, *SourceError) {
	p.advance()
	name := p.advance()
	s := &SamplerStateInfo{Name: name.Lexeme, Pos: p.pos(name), State: DefaultSamplerState()}

	for !p.check(TokenEqual) && !p.isAtEnd() {
		p.advance()
	}
	if err := p.expect(TokenEqual, "after sampler name"); err != nil {
		return nil, err
	}
	if !p.checkWord("sampler_state") {
		return nil, p.errorAt(p.peek(), "expected 'sampler_state'")
	}
	p.advance()
	if err := p.expect(TokenLeftBrace, "to open sampler_state"); err != nil {
		return nil, err
	}

	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		key, value, err := p.assignment()
		if err != nil {
			p.errors.Add(err)
			p.synchronize()
			continue
		}
		if err := s.SetState(key.Lexeme, value); err != nil {
			p.errors.Add(&SourceError{Message: err.Error(), Pos: value.Pos})
		}
	}

	if err := p.expect(TokenRightBrace, "to close sampler_state"); err != nil {
		return nil, err
	}
	if err := p.expect(TokenSemicolon, "after sampler_state"); err != nil {
		return nil, err
	}
	return s, nil
}

// assignment parses `NAME [index] = VALUE ;`.
func (p *Parser) assignment() (Token, Value, *SourceError) {
	if !p.check(TokenIdent) {
		return Token{}, Value{}, p.errorAt(p.peek(), fmt.Sprintf("expected state name, found %s", describe(p.peek())))
	}
	name := p.advance()

	// Indexed states such as BlendEnable[0] address the first target only.
	if p.match(TokenLeftBracket) {
		for !p.check(TokenRightBracket) && !p.isAtEnd() {
			p.advance()
		}
		if err := p.expect(TokenRightBracket, "after state index"); err != nil {
			return Token{}, Value{}, err
		}
	}

	if err := p.expect(TokenEqual, fmt.Sprintf("after %s", name.Lexeme)); err != nil {
		return Token{}, Value{}, err
	}

	value := Value{Pos: p.pos(p.peek())}
	parens := 0
	for !p.isAtEnd() {
		tok := p.peek()
		if parens == 0 && (tok.Kind == TokenSemicolon || tok.Kind == TokenRightBrace) {
			break
		}
		switch tok.Kind {
		case TokenLeftParen:
			parens++
		case TokenRightParen:
			parens--
		}
		value.Tokens = append(value.Tokens, p.advance())
	}
	if len(value.Tokens) == 0 {
		return Token{}, Value{}, p.errorAt(p.peek(), fmt.Sprintf("missing value for %s", name.Lexeme))
	}
	if err := p.expect(TokenSemicolon, fmt.Sprintf("after %s value", name.Lexeme)); err != nil {
		return Token{}, Value{}, err
	}
	return name, value, nil
}

// compileStatement matches `compile MODEL FUNCTION ( ... )`.
func compileStatement(v Value) (function, model string, ok bool) {
	t := v.Tokens
	if len(t) < 5 || !strings.EqualFold(t[0].Lexeme, "compile") {
		return "", "", false
	}
	if t[1].Kind != TokenIdent || t[2].Kind != TokenIdent || t[3].Kind != TokenLeftParen {
		return "", "", false
	}
	if t[len(t)-1].Kind != TokenRightParen {
		return "", "", false
	}
	return t[2].Lexeme, t[1].Lexeme, true
}

// annotations skips an optional `< ... >` block.
func (p *Parser) annotations() *SourceError {
	if !p.check(TokenLess) {
		return nil
	}
	open := p.advance()
	for !p.check(TokenGreater) {
		if p.isAtEnd() {
			return p.errorAt(open, "unterminated annotation block")
		}
		p.advance()
	}
	p.advance()
	return nil
}

// skipBlock advances past the next balanced brace block.
func (p *Parser) skipBlock() {
	depth := 0
	for !p.isAtEnd() {
		switch p.advance().Kind {
		case TokenLeftBrace:
			depth++
		case TokenRightBrace:
			depth--
			if depth <= 0 {
				return
			}
		}
	}
}

// synchronize skips to the end of the current statement without leaving
// the enclosing block.
func (p *Parser) synchronize() {
	for !p.isAtEnd() {
		switch p.peek().Kind {
		case TokenSemicolon:
			p.advance()
			return
		case TokenRightBrace:
			return
		}
		p.advance()
	}
}

func (p *Parser) expect(kind TokenKind, context string) *SourceError {
	if p.check(kind) {
		p.advance()
		return nil
	}
	return p.errorAt(p.peek(), fmt.Sprintf("expected %s %s, found %s", kind, context, describe(p.peek())))
}

func (p *Parser) errorAt(tok Token, msg string) *SourceError {
	return &SourceError{Message: msg, Pos: p.pos(tok)}
}

func (p *Parser) pos(tok Token) Position {
	return Position{File: p.file, Line: tok.Line, Column: tok.Column}
}

func describe(tok Token) string {
	if tok.Kind == TokenEOF || tok.Lexeme == "" {
		return tok.Kind.String()
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}

func (p *Parser) checkWord(word string) bool {
	tok := p.peek()
	return tok.Kind == TokenIdent && strings.EqualFold(tok.Lexeme, word)
}

func (p *Parser) match(kind TokenKind) bool {
	if p.check(kind) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) check(kind TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) advance() Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) isAtEnd() bool {
	return p.peek().Kind == TokenEOF
}

func (p *Parser) peek() Token {
	return p.tokens[p.current]
}

func (p *Parser) peekAt(n int) Token {
	if p.current+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.current+n]
}

func (p *Parser) previous() Token {
	if p.current == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.current-1]
}
