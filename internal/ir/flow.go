package ir

import (
	"flowscope/internal/ast"
	"flowscope/internal/source"
)

// FlowKind tags the items of a FlowContainer.
type FlowKind uint8

const (
	FlowCode FlowKind = iota + 1
	FlowBlock
	FlowReturn
	FlowRaise
	FlowAssert
	FlowBreak
	FlowContinue
)

func (k FlowKind) String() string {
	switch k {
	case FlowCode:
		return "code"
	case FlowBlock:
		return "block"
	case FlowReturn:
		return "return"
	case FlowRaise:
		return "raise"
	case FlowAssert:
		return "assert"
	case FlowBreak:
		return "break"
	case FlowContinue:
		return "continue"
	}
	return "invalid"
}

// IsTerminator reports whether the item ends straight-line execution.
func (k FlowKind) IsTerminator() bool {
	return k >= FlowReturn
}

// FlowItem is one control-flow-significant element.
//
//	FlowCode      Code
//	FlowBlock     Block
//	FlowReturn    Value
//	FlowRaise     Value (exception), Extra (cause)
//	FlowAssert    Value (test), Extra (message)
type FlowItem struct {
	Kind  FlowKind
	Span  source.Span
	Stmt  ast.StmtID // originating statement; unset for synthesized lambda returns
	Code  *CodeBlock
	Block *Block
	Value ast.ExprID
	Extra ast.ExprID
}

// FlowContainer is an ordered sequence of flow items. No two CodeBlocks are
// ever adjacent.
type FlowContainer struct {
	Items []FlowItem
}

func newFlowContainer() *FlowContainer {
	return &FlowContainer{}
}

func (fc *FlowContainer) Len() int { return len(fc.Items) }

// CodeBlock returns the open CodeBlock at the end of the container,
// appending a fresh one when the last item is not code.
func (fc *FlowContainer) CodeBlock() *CodeBlock {
	if n := len(fc.Items); n > 0 && fc.Items[n-1].Kind == FlowCode {
		return fc.Items[n-1].Code
	}
	cb := &CodeBlock{}
	fc.Items = append(fc.Items, FlowItem{Kind: FlowCode, Code: cb})
	return cb
}

// AddCode appends a straight-line item, merging into the open CodeBlock.
func (fc *FlowContainer) AddCode(item CodeItem) {
	cb := fc.CodeBlock()
	cb.Items = append(cb.Items, item)
}

// add appends a non-code item, closing the open CodeBlock.
func (fc *FlowContainer) add(item FlowItem) {
	fc.Items = append(fc.Items, item)
}

// CodeBlock is a maximal run of straight-line code.
type CodeBlock struct {
	Items []CodeItem
}

// CodeItem is either an ordinary statement or, when Ref is valid, a
// definition hoisted into the enclosing scope's table. Stmt is set in both
// cases.
type CodeItem struct {
	Stmt ast.StmtID
	Ref  ScopeRef
}

// BlockKind enumerates non-scope control-flow containers.
type BlockKind uint8

const (
	BlockIf BlockKind = iota + 1
	BlockFor
	BlockWhile
	BlockTry
	BlockHandler
	BlockWith
	BlockMatch
	BlockCase
)

func (k BlockKind) String() string {
	switch k {
	case BlockIf:
		return "if"
	case BlockFor:
		return "for"
	case BlockWhile:
		return "while"
	case BlockTry:
		return "try"
	case BlockHandler:
		return "except"
	case BlockWith:
		return "with"
	case BlockMatch:
		return "match"
	case BlockCase:
		return "case"
	}
	return "invalid"
}

// Block is a control-flow container. Which sub-sequences exist depends on
// Kind, and every declared one is allocated even when empty:
//
//	if, while   Body, OrElse
//	for         Body, OrElse
//	try         Body, Handlers, OrElse, FinalBody
//	except      Body
//	with        Body
//	match       Cases
//	case        Body
type Block struct {
	Kind BlockKind
	Span source.Span
	Stmt ast.StmtID

	Body      *FlowContainer
	OrElse    *FlowContainer
	FinalBody *FlowContainer
	Handlers  []*Block
	Cases     []*Block

	Test    ast.ExprID // if, while
	Target  ast.ExprID // for
	Iter    ast.ExprID // for
	IsAsync bool       // for, with
	Items   []ast.WithItem
	Subject ast.ExprID   // match
	Type    ast.ExprID   // except
	Name    string       // except
	Pattern *ast.Pattern // case
	Guard   ast.ExprID   // case
}

// NewBlock allocates a block of the given kind with all its sub-sequences.
func NewBlock(kind BlockKind, span source.Span, stmt ast.StmtID) *Block {
	b := &Block{Kind: kind, Span: span, Stmt: stmt}
	switch kind {
	case BlockIf, BlockWhile, BlockFor:
		b.Body, b.OrElse = newFlowContainer(), newFlowContainer()
	case BlockTry:
		b.Body, b.OrElse, b.FinalBody = newFlowContainer(), newFlowContainer(), newFlowContainer()
		b.Handlers = []*Block{}
	case BlockHandler, BlockWith, BlockCase:
		b.Body = newFlowContainer()
	case BlockMatch:
		b.Cases = []*Block{}
	}
	return b
}

// Containers returns the block's sub-sequences in execution order, handlers
// and cases expanded to their bodies.
func (b *Block) Containers() []*FlowContainer {
	var out []*FlowContainer
	if b.Body != nil {
		out = append(out, b.Body)
	}
	for _, h := range b.Handlers {
		out = append(out, h.Body)
	}
	for _, c := range b.Cases {
		out = append(out, c.Body)
	}
	if b.OrElse != nil {
		out = append(out, b.OrElse)
	}
	if b.FinalBody != nil {
		out = append(out, b.FinalBody)
	}
	return out
}
