package jit

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

// Expr is an expression node.
type Expr interface {
	exprPos() Pos
}

type (
	NameExpr struct {
		Pos  Pos
		Name string
	}

	IntLit struct {
		Pos   Pos
		Value int64
	}

	FloatLit struct {
		Pos   Pos
		Value float64
	}

	BoolLit struct {
		Pos   Pos
		Value bool
	}

	NoneLit struct {
		Pos Pos
	}

	TupleExpr struct {
		Pos   Pos
		Elems []Expr
	}

	UnaryExpr struct {
		Pos Pos
		Op  string
		X   Expr
	}

	BinaryExpr struct {
		Pos Pos
		Op  string
		X   Expr
		Y   Expr
	}

	IndexExpr struct {
		Pos   Pos
		X     Expr
		Index Expr
	}

	AttrExpr struct {
		Pos  Pos
		X    Expr
		Name string
	}

	CallExpr struct {
		Pos  Pos
		Fn   Expr
		Args []Expr
	}
)

func (e *NameExpr) exprPos() Pos   { return e.Pos }
func (e *IntLit) exprPos() Pos     { return e.Pos }
func (e *FloatLit) exprPos() Pos   { return e.Pos }
func (e *BoolLit) exprPos() Pos    { return e.Pos }
func (e *NoneLit) exprPos() Pos    { return e.Pos }
func (e *TupleExpr) exprPos() Pos  { return e.Pos }
func (e *UnaryExpr) exprPos() Pos  { return e.Pos }
func (e *BinaryExpr) exprPos() Pos { return e.Pos }
func (e *IndexExpr) exprPos() Pos  { return e.Pos }
func (e *AttrExpr) exprPos() Pos   { return e.Pos }
func (e *CallExpr) exprPos() Pos   { return e.Pos }

// Stmt is a statement node.
type Stmt interface {
	stmtPos() Pos
}

type (
	// AssignStmt binds Value to Targets. More than one target unpacks a tuple.
	AssignStmt struct {
		Pos     Pos
		Targets []Expr
		Value   Expr
	}

	AugAssignStmt struct {
		Pos    Pos
		Target Expr
		Op     string // "+", "-", "*" or "/"
		Value  Expr
	}

	ReturnStmt struct {
		Pos   Pos
		Value Expr // nil for a bare return
	}

	ExprStmt struct {
		Pos Pos
		X   Expr
	}

	PassStmt struct {
		Pos Pos
	}
)

func (s *AssignStmt) stmtPos() Pos    { return s.Pos }
func (s *AugAssignStmt) stmtPos() Pos { return s.Pos }
func (s *ReturnStmt) stmtPos() Pos    { return s.Pos }
func (s *ExprStmt) stmtPos() Pos      { return s.Pos }
func (s *PassStmt) stmtPos() Pos      { return s.Pos }

// TypeExpr is a type annotation such as Tensor or Tuple[Tensor, int].
type TypeExpr struct {
	Pos  Pos
	Name string
	Args []*TypeExpr
}

// Param is a function parameter. Type is nil when unannotated.
type Param struct {
	Pos  Pos
	Name string
	Type *TypeExpr
}

// FuncDef is a top-level def.
type FuncDef struct {
	Pos    Pos
	Name   string
	Params []Param
	Return *TypeExpr
	Body   []Stmt
}

// File is a parsed compilation unit.
type File struct {
	Funcs []*FuncDef
}
