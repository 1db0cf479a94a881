package ast

import "flowscope/internal/source"

// Module is one decoded source unit. Nodes live in the two arenas and refer
// to each other by ID.
type Module struct {
	Name  string
	File  source.FileID
	Body  []StmtID
	Stmts *Arena[Stmt]
	Exprs *Arena[Expr]
}

func (m *Module) Stmt(id StmtID) *Stmt { return m.Stmts.Get(uint32(id)) }
func (m *Module) Expr(id ExprID) *Expr { return m.Exprs.Get(uint32(id)) }

// NameOf returns the identifier of a Name expression.
func (m *Module) NameOf(id ExprID) (string, bool) {
	e := m.Expr(id)
	if e == nil || e.Kind != ExprName {
		return "", false
	}
	return e.Data.(*NameData).ID, true
}

// TargetNames collects the names bound by an assignment target, descending
// into tuple/list unpacking and starred elements. Attribute and subscript
// targets bind nothing.
func (m *Module) TargetNames(id ExprID) []string {
	var out []string
	var walk func(ExprID)
	walk = func(id ExprID) {
		e := m.Expr(id)
		if e == nil {
			return
		}
		switch d := e.Data.(type) {
		case *NameData:
			out = append(out, d.ID)
		case *SeqData:
			for _, elt := range d.Elts {
				walk(elt)
			}
		case *ValueData:
			if e.Kind == ExprStarred {
				walk(d.Value)
			}
		}
	}
	walk(id)
	return out
}
