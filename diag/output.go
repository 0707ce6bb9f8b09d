// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package diag

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// compilerLine matches "file(line[,col[-col2]]): message".
var compilerLine = regexp.MustCompile(`^(.*)\(([0-9]+)(?:,([0-9]+)(?:-[0-9]+)?)?\)\s*:\s*(.*)$`)

// ParseLine splits one compiler output line into a Message. Lines that do not
// match the file(line,col) pattern come back with Raw set.
func ParseLine(line, source string) Message {
	m := compilerLine.FindStringSubmatch(line)
	if m == nil {
		return Message{Pos: Position{File: source}, Text: line, Raw: true}
	}
	pos := Position{File: resolveFile(m[1], source)}
	pos.Line, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		pos.Column, _ = strconv.Atoi(m[3])
	}
	return Message{Pos: pos, Text: m[4]}
}

// resolveFile makes a reported file name point somewhere useful: an empty
// name is the source itself, a relative one is taken relative to it.
func resolveFile(name, source string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return source
	case filepath.IsAbs(name) || name == source:
		return name
	case filepath.Dir(source) != ".":
		return filepath.Join(filepath.Dir(source), name)
	default:
		return name
	}
}

// ProcessCompilerOutput classifies free-text compiler output.
//
// When failed is true every line is gathered into a single BuildError whose
// position is the first recognized line; unrecognized lines are kept
// verbatim in the message. When failed is false recognized lines become
// positional warnings and unrecognized lines are plain log lines.
func ProcessCompilerOutput(source, output string, failed bool, log *slog.Logger) ([]Message, error) {
	lines := strings.FieldsFunc(output, func(r rune) bool { return r == '\n' || r == '\r' })

	var (
		warnings []Message
		first    *Message
		all      strings.Builder
	)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		msg := ParseLine(line, source)
		if failed {
			if first == nil && !msg.Raw {
				m := msg
				first = &m
			}
			all.WriteString(line)
			all.WriteByte('\n')
			continue
		}
		if msg.Raw {
			log.Info(line, "source", source)
			continue
		}
		warnings = append(warnings, msg)
		log.Warn(msg.Text, "file", msg.Pos.File, "line", msg.Pos.Line, "column", msg.Pos.Column)
	}

	if !failed {
		return warnings, nil
	}
	pos := Position{File: source}
	if first != nil {
		pos = first.Pos
	}
	text := strings.TrimRight(all.String(), "\n")
	if text == "" {
		text = "shader compiler reported failure without output"
	}
	return warnings, &BuildError{
		Kind:    KindCompile,
		Source:  source,
		Pos:     pos,
		Message: text,
		Err:     ErrCompile,
	}
}
