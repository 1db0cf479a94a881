package infer

import (
	"errors"

	"flowscope/internal/ast"
	"flowscope/internal/diag"
	"flowscope/internal/source"
	"flowscope/internal/types"
)

// checkExpr reports err against expression id and substitutes any.
func (in *inferrer) checkExpr(id ast.ExprID, t types.TypeID, err error) types.TypeID {
	if err == nil {
		return t
	}
	if !in.quiet[id] {
		in.fail(in.spanOf(id, source.Span{}), err)
	}
	return in.bt.Any
}

func (in *inferrer) check(span source.Span, t types.TypeID, err error) types.TypeID {
	if err == nil {
		return t
	}
	in.fail(span, err)
	return in.bt.Any
}

func (in *inferrer) fail(span source.Span, err error) {
	diag.ReportError(in.reporter, codeOf(err), span, err.Error()).Emit()
}

func (in *inferrer) spanOf(id ast.ExprID, fallback source.Span) source.Span {
	if e := in.mod.Expr(id); e != nil {
		return e.Span
	}
	return fallback
}

func codeOf(err error) diag.Code {
	var (
		unsupported *types.UnsupportedOperandError
		unorderable *types.UnorderableError
		notIterable *types.NotIterableError
		badUnary    *types.BadUnaryError
		notSub      *types.NotSubscriptableError
		badIndex    *types.BadIndexError
		conflict    *types.MROConflictError
		duplicate   *types.DuplicateBaseError
		cycle       *types.InheritanceCycleError
		invalidBase *types.InvalidBaseError
	)
	switch {
	case errors.As(err, &unsupported):
		return diag.TypUnsupportedOperand
	case errors.As(err, &unorderable):
		return diag.TypUnorderable
	case errors.As(err, &notIterable):
		return diag.TypNotIterable
	case errors.As(err, &badUnary):
		return diag.TypBadUnaryOperand
	case errors.As(err, &notSub):
		return diag.TypNotSubscriptable
	case errors.As(err, &badIndex):
		return diag.TypBadIndex
	case errors.As(err, &conflict):
		return diag.SemInconsistentMRO
	case errors.As(err, &duplicate):
		return diag.SemDuplicateBase
	case errors.As(err, &cycle):
		return diag.SemInheritanceCycle
	case errors.As(err, &invalidBase):
		return diag.TypInvalidBase
	}
	return diag.TypInfo
}
