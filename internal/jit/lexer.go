package jit

import (
	"strings"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIndent
	tokDedent
	tokName
	tokInt
	tokFloat
	tokOp
)

func (k tokenKind) String() string {
	switch k {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "newline"
	case tokIndent:
		return "indent"
	case tokDedent:
		return "dedent"
	case tokName:
		return "name"
	case tokInt, tokFloat:
		return "number"
	default:
		return "operator"
	}
}

type token struct {
	kind tokenKind
	text string
	pos  Pos
}

func (t token) String() string {
	switch t.kind {
	case tokName, tokInt, tokFloat, tokOp:
		return "'" + t.text + "'"
	default:
		return t.kind.String()
	}
}

// Two-character operators must be listed before their one-character prefixes.
var operators = []string{
	"->", "+=", "-=", "*=", "/=",
	"(", ")", "[", "]", ",", ":", ".", "=", "+", "-", "*", "/", "@",
}

const tabWidth = 8

// tokenize splits source into tokens, synthesizing NEWLINE, INDENT and
// DEDENT from line structure. Newlines inside brackets are ignored.
func tokenize(src string) ([]token, error) {
	lines := strings.Split(dedent(src), "\n")

	var toks []token
	indents := []int{0}
	depth := 0

	for n, line := range lines {
		lineNo := n + 1
		line = strings.TrimRight(line, " \t\r")
		col := 0

		if depth == 0 {
			width := 0
			for col < len(line) && (line[col] == ' ' || line[col] == '\t') {
				if line[col] == '\t' {
					width = (width/tabWidth + 1) * tabWidth
				} else {
					width++
				}
				col++
			}
			if col == len(line) || line[col] == '#' {
				continue
			}

			at := Pos{Line: lineNo, Col: col + 1}
			switch top := indents[len(indents)-1]; {
			case width > top:
				indents = append(indents, width)
				toks = append(toks, token{kind: tokIndent, pos: at})
			case width < top:
				for width < indents[len(indents)-1] {
					indents = indents[:len(indents)-1]
					toks = append(toks, token{kind: tokDedent, pos: at})
				}
				if width != indents[len(indents)-1] {
					return nil, errorf(at, "unindent does not match any outer indentation level")
				}
			}
		}

		for col < len(line) {
			c := line[col]
			at := Pos{Line: lineNo, Col: col + 1}

			switch {
			case c == ' ' || c == '\t':
				col++
			case c == '#':
				col = len(line)
			case isLetter(c):
				start := col
				for col < len(line) && (isLetter(line[col]) || isDigit(line[col])) {
					col++
				}
				toks = append(toks, token{kind: tokName, text: line[start:col], pos: at})
			case isDigit(c) || (c == '.' && col+1 < len(line) && isDigit(line[col+1])):
				tok, next := scanNumber(line, col)
				tok.pos = at
				toks = append(toks, tok)
				col = next
			default:
				op := matchOperator(line[col:])
				if op == "" {
					return nil, errorf(at, "unexpected character %q", c)
				}
				switch op {
				case "(", "[":
					depth++
				case ")", "]":
					if depth == 0 {
						return nil, errorf(at, "unmatched '%s'", op)
					}
					depth--
				}
				toks = append(toks, token{kind: tokOp, text: op, pos: at})
				col += len(op)
			}
		}

		if depth == 0 && len(toks) > 0 && toks[len(toks)-1].kind != tokNewline {
			toks = append(toks, token{kind: tokNewline, pos: Pos{Line: lineNo, Col: len(line) + 1}})
		}
	}

	end := Pos{Line: len(lines) + 1, Col: 1}
	if depth > 0 {
		return nil, errorf(end, "unexpected end of input: unclosed bracket")
	}
	for len(indents) > 1 {
		indents = indents[:len(indents)-1]
		toks = append(toks, token{kind: tokDedent, pos: end})
	}
	toks = append(toks, token{kind: tokEOF, pos: end})
	return toks, nil
}

func scanNumber(line string, col int) (token, int) {
	start := col
	kind := tokInt
	for col < len(line) && isDigit(line[col]) {
		col++
	}
	if col < len(line) && line[col] == '.' && !(col+1 < len(line) && isLetter(line[col+1])) {
		kind = tokFloat
		col++
		for col < len(line) && isDigit(line[col]) {
			col++
		}
	}
	if col < len(line) && (line[col] == 'e' || line[col] == 'E') {
		exp := col + 1
		if exp < len(line) && (line[exp] == '+' || line[exp] == '-') {
			exp++
		}
		if exp < len(line) && isDigit(line[exp]) {
			kind = tokFloat
			col = exp
			for col < len(line) && isDigit(line[col]) {
				col++
			}
		}
	}
	return token{kind: kind, text: line[start:col]}, col
}

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// dedent removes the whitespace prefix common to every non-blank line, so
// scripts embedded in indented Go string literals compile as written.
func dedent(src string) string {
	lines := strings.Split(src, "\n")

	margin, found := "", false
	for _, l := range lines {
		trimmed := strings.TrimLeft(l, " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		indent := l[:len(l)-len(trimmed)]
		if !found {
			margin, found = indent, true
			continue
		}
		margin = commonPrefix(margin, indent)
	}
	if margin == "" {
		return src
	}

	for i, l := range lines {
		lines[i] = strings.TrimPrefix(l, margin)
	}
	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}
	return a[:n]
}
