package ir

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"flowscope/internal/ast"
)

// Dump writes an indented rendering of the program.
func Dump(w io.Writer, p *Program) error {
	d := &dumper{w: w, p: p}
	d.scope(p.Root, 0)
	return d.err
}

type dumper struct {
	w   io.Writer
	p   *Program
	err error
}

func (d *dumper) line(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) scope(id ScopeID, depth int) {
	s := d.p.Scope(id)
	if s == nil {
		return
	}
	d.line(depth, "%s %s (line %d)", s.Kind, s.Name, s.Span.Line)
	d.flow(s.Body, depth+1)
	if len(s.Table) == 0 {
		return
	}
	names := make([]string, 0, len(s.Table))
	for name := range s.Table {
		names = append(names, name)
	}
	sort.Strings(names)
	d.line(depth+1, "scopes:")
	for _, name := range names {
		for _, child := range s.Table[name] {
			d.scope(child, depth+2)
		}
	}
}

func (d *dumper) flow(fc *FlowContainer, depth int) {
	for _, item := range fc.Items {
		switch item.Kind {
		case FlowCode:
			d.line(depth, "code:")
			for _, ci := range item.Code.Items {
				d.code(ci, depth+1)
			}
		case FlowBlock:
			d.block(item.Block, depth)
		default:
			d.line(depth, "%s (line %d)", item.Kind, item.Span.Line)
		}
	}
}

func (d *dumper) code(ci CodeItem, depth int) {
	s := d.p.Module.Stmt(ci.Stmt)
	if ci.Ref.Valid() {
		d.line(depth, "ref %s#%d (line %d)", ci.Ref.Name, ci.Ref.Index, s.Span.Line)
		return
	}
	extra := ""
	for _, e := range d.p.Module.StmtExprs(ci.Stmt) {
		for _, ref := range d.hoistedUnder(e) {
			extra += fmt.Sprintf(" ref %s#%d", ref.Name, ref.Index)
		}
	}
	d.line(depth, "%s (line %d)%s", s.Kind, s.Span.Line, extra)
}

// hoistedUnder lists references for lambdas and comprehensions inside e
// that belong to the current scope.
func (d *dumper) hoistedUnder(e ast.ExprID) []ScopeRef {
	if ref, ok := d.p.Hoisted[e]; ok {
		return []ScopeRef{ref}
	}
	var out []ScopeRef
	for _, c := range d.p.Module.Children(e) {
		out = append(out, d.hoistedUnder(c)...)
	}
	return out
}

func (d *dumper) block(b *Block, depth int) {
	d.line(depth, "%s (line %d)", b.Kind, b.Span.Line)
	section := func(name string, fc *FlowContainer) {
		if fc == nil {
			return
		}
		d.line(depth+1, "%s:", name)
		d.flow(fc, depth+2)
	}
	section("body", b.Body)
	for _, h := range b.Handlers {
		d.block(h, depth+1)
	}
	for _, c := range b.Cases {
		d.block(c, depth+1)
	}
	section("orelse", b.OrElse)
	section("finalbody", b.FinalBody)
}
