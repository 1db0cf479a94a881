package ast

import "flowscope/internal/source"

// Arg is one formal parameter.
type Arg struct {
	Name       string
	Annotation ExprID
	Span       source.Span
}

// Arguments is a parameter list split by binding kind.
type Arguments struct {
	PosOnly    []Arg
	Args       []Arg
	Vararg     *Arg
	KwOnly     []Arg
	KwDefaults []ExprID // parallel to KwOnly; NoExprID when absent
	Kwarg      *Arg
	Defaults   []ExprID // trailing PosOnly+Args defaults
}

// All returns every parameter in binding order: positional-only, positional,
// keyword-only, *args, **kwargs.
func (a *Arguments) All() []Arg {
	if a == nil {
		return nil
	}
	out := make([]Arg, 0, len(a.PosOnly)+len(a.Args)+len(a.KwOnly)+2)
	out = append(out, a.PosOnly...)
	out = append(out, a.Args...)
	out = append(out, a.KwOnly...)
	if a.Vararg != nil {
		out = append(out, *a.Vararg)
	}
	if a.Kwarg != nil {
		out = append(out, *a.Kwarg)
	}
	return out
}

// DefaultExprs returns every default value expression, evaluated in the
// enclosing scope.
func (a *Arguments) DefaultExprs() []ExprID {
	if a == nil {
		return nil
	}
	out := make([]ExprID, 0, len(a.Defaults)+len(a.KwDefaults))
	out = append(out, a.Defaults...)
	for _, d := range a.KwDefaults {
		if d.IsValid() {
			out = append(out, d)
		}
	}
	return out
}
