// Copyright 2025 The Agex Authors
// SPDX-License-Identifier: Apache-2.0

package eval

import "fmt"

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIndent
	tokDedent
	tokName
	tokInt
	tokFloat
	tokString
	tokFString
	tokOp
	tokKeyword
)

type token struct {
	kind tokenKind
	text string
	line int
}

func (t token) String() string {
	return fmt.Sprintf("%v(%q)@%d", t.kind, t.text, t.line)
}

var keywords = map[string]bool{
	"def": true, "return": true, "if": true, "elif": true, "else": true,
	"while": true, "for": true, "in": true, "break": true, "continue": true,
	"pass": true, "class": true, "with": true, "as": true, "try": true,
	"except": true, "finally": true, "raise": true, "and": true, "or": true,
	"not": true, "is": true, "True": true, "False": true, "None": true,
	"lambda": true, "global": true, "nonlocal": true, "yield": true,
	"import": true, "from": true, "async": true, "await": true, "assert": true,
}
