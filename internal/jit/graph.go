package jit

import (
	"strconv"
	"strings"
)

// Node kinds emitted by the compiler. Operator nodes use "aten::<op>".
const (
	NodeConstant       = "prim::Constant"
	NodeTupleConstruct = "prim::TupleConstruct"
	NodeTupleIndex     = "prim::TupleIndex"
	NodeTupleUnpack    = "prim::TupleUnpack"
	NodeGetAttr        = "prim::GetAttr"
	NodeSetAttr        = "prim::SetAttr"
	NodeCallMethod     = "prim::CallMethod"

	atenPrefix = "aten::"
)

// Var is an SSA value in a graph.
type Var struct {
	ID   int
	Name string
	Type Type

	named bool
}

func (v *Var) String() string {
	return "%" + v.Name
}

// Node is a single operation in a graph.
type Node struct {
	Kind    string
	Inputs  []*Var
	Outputs []*Var

	Name  string // attribute, method or buffer name
	Index int    // tuple index
	Const Value  // constant payload
	Pos   Pos
}

// Op returns the operator name of an aten node, or "".
func (n *Node) Op() string {
	if !strings.HasPrefix(n.Kind, atenPrefix) {
		return ""
	}
	return n.Kind[len(atenPrefix):]
}

// Graph is the straight-line IR of one method.
type Graph struct {
	Inputs []*Var
	Nodes  []*Node
	Return *Var

	vars  []*Var
	names map[string]int
}

func newGraph() *Graph {
	return &Graph{names: make(map[string]int)}
}

// NumVars returns the number of SSA values in the graph.
func (g *Graph) NumVars() int {
	return len(g.vars)
}

// newVar allocates a value. Named values get a numeric suffix when the
// name is reused; unnamed values are numbered.
func (g *Graph) newVar(hint string, typ Type) *Var {
	id := len(g.vars)
	v := &Var{ID: id, Name: strconv.Itoa(id), Type: typ}
	if hint != "" {
		g.rename(v, hint)
	}
	g.vars = append(g.vars, v)
	return v
}

// rename gives v a source-level name.
func (g *Graph) rename(v *Var, hint string) {
	name := hint
	if n, seen := g.names[hint]; seen {
		name = hint + "." + strconv.Itoa(n)
	}
	g.names[hint]++
	v.Name = name
	v.named = true
}

func (g *Graph) addNode(n *Node) *Node {
	g.Nodes = append(g.Nodes, n)
	return n
}

// String renders the graph in TorchScript IR notation.
func (g *Graph) String() string {
	var b strings.Builder

	b.WriteString("graph(")
	for i, in := range g.Inputs {
		if i > 0 {
			b.WriteString(",\n      ")
		}
		b.WriteString(in.String())
		b.WriteString(" : ")
		b.WriteString(in.Type.String())
	}
	b.WriteString("):\n")

	for _, n := range g.Nodes {
		b.WriteString("  ")
		for i, out := range n.Outputs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(out.String())
			b.WriteString(" : ")
			b.WriteString(out.Type.String())
		}
		if len(n.Outputs) > 0 {
			b.WriteString(" ")
		}
		b.WriteString("= ")
		b.WriteString(n.Kind)
		b.WriteString(n.attrString())
		b.WriteString("(")
		for i, in := range n.Inputs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(in.String())
		}
		b.WriteString(")\n")
	}

	b.WriteString("  return (")
	if g.Return != nil {
		b.WriteString(g.Return.String())
	}
	b.WriteString(")\n")
	return b.String()
}

func (n *Node) attrString() string {
	switch n.Kind {
	case NodeConstant:
		switch n.Const.Kind() {
		case KindNone:
			return ""
		case KindBool:
			if n.Const.Bool() {
				return "[value=1]"
			}
			return "[value=0]"
		default:
			return "[value=" + n.Const.String() + "]"
		}
	case NodeGetAttr, NodeSetAttr, NodeCallMethod:
		return `[name="` + n.Name + `"]`
	case NodeTupleIndex:
		return "[index=" + strconv.Itoa(n.Index) + "]"
	default:
		return ""
	}
}
