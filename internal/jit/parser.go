package jit

import (
	"strconv"
)

type parser struct {
	toks []token
	pos  int
}

// Parse parses script source into a File.
func Parse(src string) (*File, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.parseFile()
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokName && t.text == word
}

func (p *parser) acceptOp(text string) bool {
	if p.isOp(text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expectOp(text string) (token, error) {
	t := p.peek()
	if t.kind != tokOp || t.text != text {
		return t, errorf(t.pos, "expected '%s', found %s", text, t)
	}
	return p.next(), nil
}

func (p *parser) expectKind(kind tokenKind) (token, error) {
	t := p.peek()
	if t.kind != kind {
		return t, errorf(t.pos, "expected %s, found %s", kind, t)
	}
	return p.next(), nil
}

func (p *parser) expectName() (token, error) {
	t, err := p.expectKind(tokName)
	if err != nil {
		return t, err
	}
	if isReserved(t.text) {
		return t, errorf(t.pos, "unexpected keyword '%s'", t.text)
	}
	return t, nil
}

var reserved = map[string]bool{
	"def": true, "return": true, "pass": true,
	"True": true, "False": true, "None": true,
	"if": true, "else": true, "elif": true, "for": true, "while": true,
	"lambda": true, "class": true, "import": true,
}

func isReserved(name string) bool {
	return reserved[name]
}

func (p *parser) parseFile() (*File, error) {
	f := &File{}
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return f, nil
		case t.kind == tokNewline:
			p.next()
		case t.kind == tokName && t.text == "def":
			fn, err := p.parseDef()
			if err != nil {
				return nil, err
			}
			f.Funcs = append(f.Funcs, fn)
		default:
			return nil, errorf(t.pos, "expected 'def', found %s", t)
		}
	}
}

func (p *parser) parseDef() (*FuncDef, error) {
	def := p.next()
	name, err := p.expectName()
	if err != nil {
		return nil, err
	}
	fn := &FuncDef{Pos: def.pos, Name: name.text}

	if _, err := p.expectOp("("); err != nil {
		return nil, err
	}
	for !p.isOp(")") {
		pt, err := p.expectName()
		if err != nil {
			return nil, err
		}
		param := Param{Pos: pt.pos, Name: pt.text}
		if p.acceptOp(":") {
			if param.Type, err = p.parseType(); err != nil {
				return nil, err
			}
		}
		for _, prev := range fn.Params {
			if prev.Name == param.Name {
				return nil, errorf(pt.pos, "duplicate argument '%s' in function definition", param.Name)
			}
		}
		fn.Params = append(fn.Params, param)
		if !p.acceptOp(",") {
			break
		}
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}

	if p.acceptOp("->") {
		if fn.Return, err = p.parseType(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if fn.Body, err = p.parseBlock(); err != nil {
		return nil, err
	}
	return fn, nil
}

func (p *parser) parseType() (*TypeExpr, error) {
	t, err := p.expectKind(tokName)
	if err != nil {
		return nil, err
	}
	te := &TypeExpr{Pos: t.pos, Name: t.text}
	// torch.Tensor is accepted as an alias for Tensor.
	if te.Name == "torch" && p.acceptOp(".") {
		attr, err := p.expectKind(tokName)
		if err != nil {
			return nil, err
		}
		te.Name = attr.text
	}
	if p.acceptOp("[") {
		if p.acceptOp("(") {
			// Tuple[()] is the empty tuple.
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
			te.Args = []*TypeExpr{}
		} else {
			for {
				arg, err := p.parseType()
				if err != nil {
					return nil, err
				}
				te.Args = append(te.Args, arg)
				if !p.acceptOp(",") {
					break
				}
			}
		}
		if _, err := p.expectOp("]"); err != nil {
			return nil, err
		}
	}
	return te, nil
}

func (p *parser) parseBlock() ([]Stmt, error) {
	if p.peek().kind != tokNewline {
		// Single-line body: def f(x): return x
		s, err := p.parseSimpleStmt()
		if err != nil {
			return nil, err
		}
		return []Stmt{s}, nil
	}
	p.next()
	if _, err := p.expectKind(tokIndent); err != nil {
		return nil, errorf(p.peek().pos, "expected an indented block")
	}

	var body []Stmt
	for {
		t := p.peek()
		if t.kind == tokDedent {
			p.next()
			return body, nil
		}
		if t.kind == tokEOF {
			return body, nil
		}
		if t.kind == tokName && t.text == "def" {
			return nil, errorf(t.pos, "nested function definitions are not supported")
		}
		s, err := p.parseSimpleStmt()
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
}

// parseSimpleStmt parses one statement up to and including its NEWLINE.
func (p *parser) parseSimpleStmt() (Stmt, error) {
	t := p.peek()
	var (
		s   Stmt
		err error
	)
	switch {
	case t.kind == tokName && t.text == "return":
		p.next()
		ret := &ReturnStmt{Pos: t.pos}
		if p.peek().kind != tokNewline {
			if ret.Value, err = p.parseExprList(); err != nil {
				return nil, err
			}
		}
		s = ret
	case t.kind == tokName && t.text == "pass":
		p.next()
		s = &PassStmt{Pos: t.pos}
	case t.kind == tokName && isReserved(t.text) && t.text != "True" && t.text != "False" && t.text != "None":
		return nil, errorf(t.pos, "'%s' statements are not supported", t.text)
	default:
		if s, err = p.parseAssignOrExpr(); err != nil {
			return nil, err
		}
	}

	if _, err := p.expectKind(tokNewline); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) parseAssignOrExpr() (Stmt, error) {
	start := p.peek().pos
	lhs, err := p.parseExprList()
	if err != nil {
		return nil, err
	}

	t := p.peek()
	if t.kind != tokOp {
		return &ExprStmt{Pos: start, X: lhs}, nil
	}

	switch t.text {
	case "=":
		p.next()
		targets := []Expr{lhs}
		if tuple, ok := lhs.(*TupleExpr); ok {
			targets = tuple.Elems
		}
		for _, target := range targets {
			if err := checkTarget(target); err != nil {
				return nil, err
			}
		}
		value, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if p.isOp("=") {
			return nil, errorf(p.peek().pos, "chained assignment is not supported")
		}
		return &AssignStmt{Pos: start, Targets: targets, Value: value}, nil
	case "+=", "-=", "*=", "/=":
		p.next()
		if err := checkTarget(lhs); err != nil {
			return nil, err
		}
		value, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		return &AugAssignStmt{Pos: start, Target: lhs, Op: t.text[:1], Value: value}, nil
	default:
		return &ExprStmt{Pos: start, X: lhs}, nil
	}
}

// checkTarget accepts plain names and self attributes.
func checkTarget(e Expr) error {
	switch x := e.(type) {
	case *NameExpr:
		return nil
	case *AttrExpr:
		if n, ok := x.X.(*NameExpr); ok && n.Name == "self" {
			return nil
		}
	}
	return errorf(e.exprPos(), "cannot assign to this expression")
}

// parseExprList parses "e1, e2, ..." producing a tuple when a comma is present.
func (p *parser) parseExprList() (Expr, error) {
	start := p.peek().pos
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elems := []Expr{first}
	for p.acceptOp(",") {
		if !p.startsExpr() {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return &TupleExpr{Pos: start, Elems: elems}, nil
}

func (p *parser) startsExpr() bool {
	t := p.peek()
	switch t.kind {
	case tokName, tokInt, tokFloat:
		return true
	case tokOp:
		return t.text == "(" || t.text == "-" || t.text == "+"
	default:
		return false
	}
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseAdditive()
}

func (p *parser) parseAdditive() (Expr, error) {
	x, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		op := p.next()
		y, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{Pos: op.pos, Op: op.text, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseMultiplicative() (Expr, error) {
	x, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("@") {
		op := p.next()
		y, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{Pos: op.pos, Op: op.text, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) parseUnary() (Expr, error) {
	if p.isOp("-") || p.isOp("+") {
		op := p.next()
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: op.pos, Op: op.text, X: x}, nil
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case p.acceptOp("("):
			call := &CallExpr{Pos: t.pos, Fn: x}
			for !p.isOp(")") {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				if p.isOp("=") {
					return nil, errorf(p.peek().pos, "keyword arguments are not supported")
				}
				call.Args = append(call.Args, arg)
				if !p.acceptOp(",") {
					break
				}
			}
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
			x = call
		case p.acceptOp("."):
			name, err := p.expectName()
			if err != nil {
				return nil, err
			}
			x = &AttrExpr{Pos: name.pos, X: x, Name: name.text}
		case p.acceptOp("["):
			index, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("]"); err != nil {
				return nil, err
			}
			x = &IndexExpr{Pos: t.pos, X: x, Index: index}
		default:
			return x, nil
		}
	}
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokInt:
		v, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, errorf(t.pos, "integer literal %s out of range", t.text)
		}
		return &IntLit{Pos: t.pos, Value: v}, nil
	case tokFloat:
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, errorf(t.pos, "invalid float literal %s", t.text)
		}
		return &FloatLit{Pos: t.pos, Value: v}, nil
	case tokName:
		switch t.text {
		case "True", "False":
			return &BoolLit{Pos: t.pos, Value: t.text == "True"}, nil
		case "None":
			return &NoneLit{Pos: t.pos}, nil
		}
		if isReserved(t.text) {
			return nil, errorf(t.pos, "unexpected keyword '%s'", t.text)
		}
		return &NameExpr{Pos: t.pos, Name: t.text}, nil
	case tokOp:
		if t.text == "(" {
			return p.parseParen(t.pos)
		}
	}
	return nil, errorf(t.pos, "unexpected %s", t)
}

// parseParen parses the rest of "( ... )": a grouped expression or a tuple.
func (p *parser) parseParen(start Pos) (Expr, error) {
	if p.acceptOp(")") {
		return &TupleExpr{Pos: start, Elems: []Expr{}}, nil
	}
	first, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.acceptOp(")") {
		return first, nil
	}
	elems := []Expr{first}
	for p.acceptOp(",") {
		if p.isOp(")") {
			break
		}
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return &TupleExpr{Pos: start, Elems: elems}, nil
}
