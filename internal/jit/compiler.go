package jit

// compiler lowers a parsed File into the methods of a Module.
type compiler struct {
	module   *Module
	registry *Registry
	defs     map[string]*FuncDef
	state    map[string]int
	methods  map[string]*Method
}

const (
	unvisited = iota
	visiting
	done
)

func newCompiler(m *Module) *compiler {
	return &compiler{
		module:   m,
		registry: m.registry,
		defs:     make(map[string]*FuncDef),
		state:    make(map[string]int),
		methods:  make(map[string]*Method),
	}
}

// compile lowers every function, returning methods in declaration order.
func (c *compiler) compile(f *File) ([]*Method, error) {
	for _, def := range f.Funcs {
		if _, dup := c.defs[def.Name]; dup {
			return nil, errorf(def.Pos, "function '%s' is already defined", def.Name)
		}
		c.defs[def.Name] = def
	}

	out := make([]*Method, 0, len(f.Funcs))
	for _, def := range f.Funcs {
		m, err := c.require(def.Name, def.Pos)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// require returns the compiled method name, compiling it on first use.
// Callees compile before callers, so a call that reaches a function still
// being compiled is a recursive call.
func (c *compiler) require(name string, at Pos) (*Method, error) {
	switch c.state[name] {
	case done:
		return c.methods[name], nil
	case visiting:
		return nil, errorf(at, "recursive call to '%s' is not supported", name)
	}

	def := c.defs[name]
	c.state[name] = visiting
	m, err := c.lower(def)
	if err != nil {
		return nil, err
	}
	c.state[name] = done
	c.methods[name] = m
	return m, nil
}

// resolveType converts an annotation into a Type. Unannotated parameters
// are tensors.
func resolveType(te *TypeExpr) (Type, error) {
	if te == nil {
		return TensorType, nil
	}
	if te.Name != "Tuple" && len(te.Args) > 0 {
		return Type{}, errorf(te.Pos, "type '%s' does not take parameters", te.Name)
	}
	switch te.Name {
	case "Tensor":
		return TensorType, nil
	case "int":
		return IntType, nil
	case "float":
		return FloatType, nil
	case "bool":
		return BoolType, nil
	case "None":
		return NoneType, nil
	case "Tuple":
		if te.Args == nil {
			return Type{}, errorf(te.Pos, "Tuple requires element types")
		}
		elems := make([]Type, len(te.Args))
		for i, arg := range te.Args {
			t, err := resolveType(arg)
			if err != nil {
				return Type{}, err
			}
			elems[i] = t
		}
		return TupleType(elems...), nil
	default:
		return Type{}, errorf(te.Pos, "unknown type name '%s'", te.Name)
	}
}
