/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package expr implements the mini expression language used by test=
// conditions, #{...} parameter binding and ${...} raw substitution.
// Rather than inventing a bespoke tokenizer, the grammar is a subset of
// real Go expression syntax, so lexing and parsing are delegated to the
// standard library's own go/scanner and go/parser: arithmetic, ordered
// comparisons, parens, selectors and indexing all already mean what a
// mapper author expects them to mean. A small pre-pass rewrites the
// word-operators (and, or, not) that mapper authors like to write into
// their Go equivalents before handing the source to go/parser.
package expr

import (
	"go/scanner"
	"go/token"
	"strings"
)

// wordOperator maps a human-readable logical keyword to its Go operator.
// Any other identifier passes through unchanged.
func wordOperator(s string) string {
	switch s {
	case "and":
		return "&&"
	case "or":
		return "||"
	case "not":
		return "!"
	default:
		return s
	}
}

// lexer performs lexical analysis on a test=/#{}/${} expression body,
// rewriting word-operators so the result can be parsed as a Go expression.
type lexer struct {
	scanner scanner.Scanner
}

// tokenize scans the full input and returns the rewritten source.
func (l *lexer) tokenize() string {
	var tokens []string
	for {
		_, tok, lit := l.scanner.Scan()
		if tok == token.EOF {
			break
		}
		switch tok {
		case token.IDENT:
			tokens = append(tokens, wordOperator(lit))
		default:
			if lit != "" {
				tokens = append(tokens, lit)
			} else {
				tokens = append(tokens, tok.String())
			}
		}
	}
	return strings.Join(tokens, " ")
}

// newLexer initializes a lexer over the given expression source. Single
// quoted string literals are requoted to Go double-quoted strings first,
// since go/scanner treats a single quote as introducing a rune literal
// and chokes on anything but exactly one character between them.
func newLexer(input string) *lexer {
	input = requote(input)
	var s scanner.Scanner
	fset := token.NewFileSet()
	file := fset.AddFile("", fset.Base(), len(input))
	s.Init(file, []byte(input), nil, scanner.ScanComments)
	return &lexer{scanner: s}
}
