package jit

var binaryOps = map[string]string{
	"+": "add",
	"-": "sub",
	"*": "mul",
	"/": "div",
	"@": "matmul",
}

// lowerer translates one function body into a Graph.
type lowerer struct {
	c    *compiler
	def  *FuncDef
	g    *Graph
	env  map[string]*Var
	self *Var
}

func (c *compiler) lower(def *FuncDef) (*Method, error) {
	l := &lowerer{
		c:   c,
		def: def,
		g:   newGraph(),
		env: make(map[string]*Var),
	}
	m := &Method{module: c.module, name: def.Name, graph: l.g}

	for i, p := range def.Params {
		if p.Name == "self" {
			if i != 0 {
				return nil, errorf(p.Pos, "'self' must be the first parameter")
			}
			if p.Type != nil {
				return nil, errorf(p.Pos, "'self' cannot be annotated")
			}
			l.self = l.g.newVar("self", ClassType(c.module.QualifiedName()))
			l.g.Inputs = append(l.g.Inputs, l.self)
			m.hasSelf = true
			m.args = append(m.args, Argument{Name: "self", Type: l.self.Type})
			continue
		}

		t, err := resolveType(p.Type)
		if err != nil {
			return nil, err
		}
		v := l.g.newVar(p.Name, t)
		l.env[p.Name] = v
		l.g.Inputs = append(l.g.Inputs, v)
		m.args = append(m.args, Argument{Name: p.Name, Type: t})
	}

	var ret *Var
	for _, s := range def.Body {
		if ret != nil {
			return nil, errorf(s.stmtPos(), "unreachable code after return")
		}
		var err error
		if r, ok := s.(*ReturnStmt); ok {
			ret, err = l.lowerReturn(r)
		} else {
			err = l.lowerStmt(s)
		}
		if err != nil {
			return nil, err
		}
	}
	if ret == nil {
		ret = l.constant(NoneValue(), def.Pos)
	}
	l.g.Return = ret
	m.ret = ret.Type

	if def.Return != nil {
		want, err := resolveType(def.Return)
		if err != nil {
			return nil, err
		}
		if !want.assignableFrom(ret.Type) {
			return nil, errorf(def.Return.Pos, "return value of '%s' has type %s but is declared as %s", def.Name, ret.Type, want)
		}
		m.ret = want
	}
	return m, nil
}

func (l *lowerer) lowerReturn(s *ReturnStmt) (*Var, error) {
	if s.Value == nil {
		return l.constant(NoneValue(), s.Pos), nil
	}
	return l.lowerExpr(s.Value)
}

func (l *lowerer) lowerStmt(s Stmt) error {
	switch s := s.(type) {
	case *AssignStmt:
		v, err := l.lowerExpr(s.Value)
		if err != nil {
			return err
		}
		if len(s.Targets) == 1 {
			return l.assign(s.Targets[0], v)
		}
		return l.unpack(s, v)
	case *AugAssignStmt:
		cur, err := l.lowerExpr(s.Target)
		if err != nil {
			return err
		}
		rhs, err := l.lowerExpr(s.Value)
		if err != nil {
			return err
		}
		v, err := l.emitOp(binaryOps[s.Op], s.Pos, cur, rhs)
		if err != nil {
			return err
		}
		return l.assign(s.Target, v)
	case *ExprStmt:
		_, err := l.lowerExpr(s.X)
		return err
	case *PassStmt:
		return nil
	default:
		return errorf(s.stmtPos(), "unsupported statement")
	}
}

func (l *lowerer) unpack(s *AssignStmt, v *Var) error {
	if v.Type.Kind != KindTuple {
		return errorf(s.Pos, "cannot unpack a value of type %s", v.Type)
	}
	if len(v.Type.Elems) != len(s.Targets) {
		return errorf(s.Pos, "expected %d values to unpack, found %d", len(s.Targets), len(v.Type.Elems))
	}

	node := &Node{Kind: NodeTupleUnpack, Inputs: []*Var{v}, Pos: s.Pos}
	for i, target := range s.Targets {
		hint := ""
		if n, ok := target.(*NameExpr); ok {
			hint = n.Name
		}
		out := l.g.newVar(hint, v.Type.Elems[i])
		node.Outputs = append(node.Outputs, out)
	}
	l.g.addNode(node)

	for i, target := range s.Targets {
		if err := l.assign(target, node.Outputs[i]); err != nil {
			return err
		}
	}
	return nil
}

// assign binds v to a local name or stores it into a self buffer.
func (l *lowerer) assign(target Expr, v *Var) error {
	switch t := target.(type) {
	case *NameExpr:
		if t.Name == "self" {
			return errorf(t.Pos, "cannot assign to 'self'")
		}
		if prev, ok := l.env[t.Name]; ok && !prev.Type.Equal(v.Type) {
			return errorf(t.Pos, "variable '%s' previously had type %s but is now being assigned to a value of type %s",
				t.Name, prev.Type, v.Type)
		}
		if !v.named {
			l.g.rename(v, t.Name)
		}
		l.env[t.Name] = v
		return nil
	case *AttrExpr:
		if l.self == nil {
			return errorf(t.Pos, "'self' is not defined in function '%s'", l.def.Name)
		}
		if _, isMethod := l.c.defs[t.Name]; isMethod {
			return errorf(t.Pos, "cannot assign to method '%s'", t.Name)
		}
		if v.Type.Kind != KindTensor {
			return errorf(t.Pos, "buffer '%s' must be a Tensor, found %s", t.Name, v.Type)
		}
		l.g.addNode(&Node{Kind: NodeSetAttr, Inputs: []*Var{l.self, v}, Name: t.Name, Pos: t.Pos})
		return nil
	default:
		return errorf(target.exprPos(), "cannot assign to this expression")
	}
}

func (l *lowerer) constant(v Value, at Pos) *Var {
	out := l.g.newVar("", v.Type())
	l.g.addNode(&Node{Kind: NodeConstant, Outputs: []*Var{out}, Const: v, Pos: at})
	return out
}

func (l *lowerer) lowerExpr(e Expr) (*Var, error) {
	switch e := e.(type) {
	case *NameExpr:
		if e.Name == "self" {
			if l.self == nil {
				return nil, errorf(e.Pos, "'self' is not defined in function '%s'", l.def.Name)
			}
			return l.self, nil
		}
		v, ok := l.env[e.Name]
		if !ok {
			return nil, errorf(e.Pos, "undefined value %s", e.Name)
		}
		return v, nil
	case *IntLit:
		return l.constant(IntValue(e.Value), e.Pos), nil
	case *FloatLit:
		return l.constant(FloatValue(e.Value), e.Pos), nil
	case *BoolLit:
		return l.constant(BoolValue(e.Value), e.Pos), nil
	case *NoneLit:
		return l.constant(NoneValue(), e.Pos), nil
	case *TupleExpr:
		return l.lowerTuple(e)
	case *UnaryExpr:
		x, err := l.lowerExpr(e.X)
		if err != nil {
			return nil, err
		}
		if e.Op == "+" {
			if x.Type.Kind != KindTensor && x.Type.Kind != KindInt && x.Type.Kind != KindFloat {
				return nil, errorf(e.Pos, "bad operand type for unary +: %s", x.Type)
			}
			return x, nil
		}
		return l.emitOp("neg", e.Pos, x)
	case *BinaryExpr:
		x, err := l.lowerExpr(e.X)
		if err != nil {
			return nil, err
		}
		y, err := l.lowerExpr(e.Y)
		if err != nil {
			return nil, err
		}
		return l.emitOp(binaryOps[e.Op], e.Pos, x, y)
	case *IndexExpr:
		return l.lowerIndex(e)
	case *AttrExpr:
		return l.lowerAttr(e)
	case *CallExpr:
		return l.lowerCall(e)
	default:
		return nil, errorf(e.exprPos(), "unsupported expression")
	}
}

func (l *lowerer) lowerTuple(e *TupleExpr) (*Var, error) {
	elems := make([]*Var, len(e.Elems))
	types := make([]Type, len(e.Elems))
	for i, x := range e.Elems {
		v, err := l.lowerExpr(x)
		if err != nil {
			return nil, err
		}
		elems[i] = v
		types[i] = v.Type
	}
	out := l.g.newVar("", TupleType(types...))
	l.g.addNode(&Node{Kind: NodeTupleConstruct, Inputs: elems, Outputs: []*Var{out}, Pos: e.Pos})
	return out, nil
}

func (l *lowerer) lowerIndex(e *IndexExpr) (*Var, error) {
	x, err := l.lowerExpr(e.X)
	if err != nil {
		return nil, err
	}
	if x.Type.Kind != KindTuple {
		return nil, errorf(e.Pos, "indexing is only supported on tuples, found %s", x.Type)
	}
	idx, ok := constInt(e.Index)
	if !ok {
		return nil, errorf(e.Index.exprPos(), "tuple index must be an integer constant")
	}
	n := int64(len(x.Type.Elems))
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return nil, errorf(e.Index.exprPos(), "tuple index out of range")
	}

	out := l.g.newVar("", x.Type.Elems[idx])
	l.g.addNode(&Node{Kind: NodeTupleIndex, Inputs: []*Var{x}, Outputs: []*Var{out}, Index: int(idx), Pos: e.Pos})
	return out, nil
}

func constInt(e Expr) (int64, bool) {
	switch e := e.(type) {
	case *IntLit:
		return e.Value, true
	case *UnaryExpr:
		v, ok := constInt(e.X)
		if !ok {
			return 0, false
		}
		if e.Op == "-" {
			return -v, true
		}
		return v, true
	default:
		return 0, false
	}
}

func (l *lowerer) lowerAttr(e *AttrExpr) (*Var, error) {
	recv, ok := e.X.(*NameExpr)
	if !ok || recv.Name != "self" {
		return nil, errorf(e.Pos, "attribute '%s' cannot be read here; only self attributes are supported", e.Name)
	}
	self, err := l.lowerExpr(recv)
	if err != nil {
		return nil, err
	}
	if _, isMethod := l.c.defs[e.Name]; isMethod {
		return nil, errorf(e.Pos, "method '%s' must be called", e.Name)
	}
	out := l.g.newVar("", TensorType)
	l.g.addNode(&Node{Kind: NodeGetAttr, Inputs: []*Var{self}, Outputs: []*Var{out}, Name: e.Name, Pos: e.Pos})
	return out, nil
}

func (l *lowerer) lowerArgs(exprs []Expr) ([]*Var, error) {
	args := make([]*Var, len(exprs))
	for i, x := range exprs {
		v, err := l.lowerExpr(x)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

func (l *lowerer) lowerCall(call *CallExpr) (*Var, error) {
	switch fn := call.Fn.(type) {
	case *NameExpr:
		if _, local := l.env[fn.Name]; local {
			return nil, errorf(fn.Pos, "'%s' is not callable", fn.Name)
		}
		if _, ok := l.c.defs[fn.Name]; ok {
			return l.callFunction(call, fn.Name, false)
		}
		if _, ok := l.c.registry.Lookup(fn.Name); ok {
			args, err := l.lowerArgs(call.Args)
			if err != nil {
				return nil, err
			}
			return l.emitOp(fn.Name, call.Pos, args...)
		}
		return nil, errorf(fn.Pos, "unknown function '%s'", fn.Name)

	case *AttrExpr:
		if recv, ok := fn.X.(*NameExpr); ok {
			if _, local := l.env[recv.Name]; !local && recv.Name == "torch" {
				if _, ok := l.c.registry.Lookup(fn.Name); !ok {
					return nil, errorf(fn.Pos, "unknown builtin op: aten::%s", fn.Name)
				}
				args, err := l.lowerArgs(call.Args)
				if err != nil {
					return nil, err
				}
				return l.emitOp(fn.Name, call.Pos, args...)
			}
			if recv.Name == "self" && l.self != nil {
				if _, ok := l.c.defs[fn.Name]; !ok {
					return nil, errorf(fn.Pos, "module has no method '%s'", fn.Name)
				}
				return l.callFunction(call, fn.Name, true)
			}
		}

		// x.op(args) is sugar for op(x, args).
		if _, ok := l.c.registry.Lookup(fn.Name); !ok {
			return nil, errorf(fn.Pos, "unknown method '%s'", fn.Name)
		}
		recv, err := l.lowerExpr(fn.X)
		if err != nil {
			return nil, err
		}
		args, err := l.lowerArgs(call.Args)
		if err != nil {
			return nil, err
		}
		return l.emitOp(fn.Name, call.Pos, append([]*Var{recv}, args...)...)

	default:
		return nil, errorf(call.Pos, "expression is not callable")
	}
}

// callFunction emits a call to another function of the module.
func (l *lowerer) callFunction(call *CallExpr, name string, viaSelf bool) (*Var, error) {
	callee, err := l.c.require(name, call.Pos)
	if err != nil {
		return nil, err
	}
	switch {
	case callee.hasSelf && !viaSelf:
		return nil, errorf(call.Pos, "method '%s' must be called as self.%s(...)", name, name)
	case !callee.hasSelf && viaSelf:
		return nil, errorf(call.Pos, "'%s' does not take self; call it as %s(...)", name, name)
	}

	params := callee.params()
	if len(call.Args) != len(params) {
		return nil, errorf(call.Pos, "%s() expects %s, got %d", name, plural(len(params), "argument"), len(call.Args))
	}
	args, err := l.lowerArgs(call.Args)
	if err != nil {
		return nil, err
	}
	for i, arg := range args {
		if !params[i].Type.assignableFrom(arg.Type) {
			return nil, errorf(call.Args[i].exprPos(), "%s(): expected a value of type %s for argument '%s' but found %s",
				name, params[i].Type, params[i].Name, arg.Type)
		}
	}

	inputs := args
	if viaSelf {
		inputs = append([]*Var{l.self}, args...)
	}
	out := l.g.newVar("", callee.ret)
	l.g.addNode(&Node{Kind: NodeCallMethod, Inputs: inputs, Outputs: []*Var{out}, Name: name, Pos: call.Pos})
	return out, nil
}

// emitOp type-checks an operator call and appends its aten node.
func (l *lowerer) emitOp(name string, at Pos, args ...*Var) (*Var, error) {
	op, ok := l.c.registry.Lookup(name)
	if !ok {
		return nil, errorf(at, "unknown builtin op: aten::%s", name)
	}

	types := make([]Type, len(args))
	for i, a := range args {
		types[i] = a.Type
	}
	if err := op.checkArgs(types); err != nil {
		return nil, errorf(at, "%s", err)
	}
	result, err := op.Infer(types)
	if err != nil {
		return nil, errorf(at, "%s", err)
	}

	out := l.g.newVar("", result)
	l.g.addNode(&Node{Kind: atenPrefix + name, Inputs: args, Outputs: []*Var{out}, Pos: at})
	return out, nil
}
