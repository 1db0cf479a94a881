package ast

import "flowscope/internal/source"

type PatternKind uint8

const (
	PatValue PatternKind = iota + 1
	PatSingleton
	PatSequence
	PatMapping
	PatClass
	PatStar
	PatAs
	PatOr
)

func (k PatternKind) String() string {
	switch k {
	case PatValue:
		return "MatchValue"
	case PatSingleton:
		return "MatchSingleton"
	case PatSequence:
		return "MatchSequence"
	case PatMapping:
		return "MatchMapping"
	case PatClass:
		return "MatchClass"
	case PatStar:
		return "MatchStar"
	case PatAs:
		return "MatchAs"
	case PatOr:
		return "MatchOr"
	}
	return "Pattern(?)"
}

// Pattern is a match-statement pattern. Fields are used per kind:
//
//	PatValue, PatSingleton  Value
//	PatSequence, PatOr      Patterns
//	PatMapping              Keys, Patterns, Name (**rest)
//	PatClass                Cls, Patterns, KwdAttrs, KwdPatterns
//	PatStar                 Name ("" for *_)
//	PatAs                   Pattern (may be nil), Name ("" for _)
type Pattern struct {
	Kind        PatternKind
	Span        source.Span
	Value       ExprID
	Cls         ExprID
	Name        string
	Pattern     *Pattern
	Patterns    []*Pattern
	Keys        []ExprID
	KwdAttrs    []string
	KwdPatterns []*Pattern
}

// Captures returns the names bound by p in textual order.
func (p *Pattern) Captures() []string {
	var out []string
	var walk func(*Pattern)
	walk = func(p *Pattern) {
		if p == nil {
			return
		}
		switch p.Kind {
		case PatAs:
			walk(p.Pattern)
			if p.Name != "" {
				out = append(out, p.Name)
			}
		case PatStar:
			if p.Name != "" {
				out = append(out, p.Name)
			}
		case PatMapping:
			for _, sub := range p.Patterns {
				walk(sub)
			}
			if p.Name != "" {
				out = append(out, p.Name)
			}
		case PatOr:
			// every alternative binds the same names
			if len(p.Patterns) > 0 {
				walk(p.Patterns[0])
			}
		default:
			for _, sub := range p.Patterns {
				walk(sub)
			}
			for _, sub := range p.KwdPatterns {
				walk(sub)
			}
		}
	}
	walk(p)
	return out
}

// Exprs returns the value, key and class expressions evaluated by p.
func (p *Pattern) Exprs() []ExprID {
	var out []ExprID
	var walk func(*Pattern)
	walk = func(p *Pattern) {
		if p == nil {
			return
		}
		if p.Value.IsValid() {
			out = append(out, p.Value)
		}
		if p.Cls.IsValid() {
			out = append(out, p.Cls)
		}
		out = append(out, p.Keys...)
		walk(p.Pattern)
		for _, sub := range p.Patterns {
			walk(sub)
		}
		for _, sub := range p.KwdPatterns {
			walk(sub)
		}
	}
	walk(p)
	return out
}
