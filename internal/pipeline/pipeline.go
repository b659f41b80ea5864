package pipeline

import (
	"github.com/rowan-lang/rowan/internal/ast"
	"github.com/rowan-lang/rowan/internal/diagnostics"
	"github.com/rowan-lang/rowan/internal/ir"
	"github.com/rowan-lang/rowan/internal/project"
	"github.com/rowan-lang/rowan/internal/symbols"
	"github.com/rowan-lang/rowan/internal/typesystem"
)

// PipelineContext carries one compilation unit through the stages. Each
// unit gets a private context (own substitution, own fresh-variable supply)
// so parallel compilations of independent units stay isolated.
type PipelineContext struct {
	FilePath string
	Config   *project.Config

	Program *ast.Program
	Symbols *symbols.SymbolTable
	Supply  *typesystem.VarSupply

	// Filled by the inference stage.
	TypeMap     map[ast.Node]typesystem.Type
	EffectMap   map[ast.Node]typesystem.Row
	Subst       typesystem.Subst
	MainType    typesystem.Type
	MainEffects typesystem.Row

	// Filled by the lowering stage.
	IR *ir.Program

	Errors []*diagnostics.DiagnosticError
}

// NewContext prepares a context for one unit.
func NewContext(prog *ast.Program, cfg *project.Config) *PipelineContext {
	if cfg == nil {
		cfg = project.Default()
	}
	return &PipelineContext{
		FilePath: prog.File,
		Config:   cfg,
		Program:  prog,
		Symbols:  symbols.NewSymbolTable(),
		Supply:   typesystem.NewVarSupply(),
		Subst:    typesystem.Subst{},
	}
}

// Failed reports whether any stage recorded an error.
func (ctx *PipelineContext) Failed() bool {
	return len(ctx.Errors) > 0
}

// Processor is one compilation stage.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// Pipeline represents a sequence of processing stages.
type Pipeline struct {
	processors []Processor
}

func New(processors ...Processor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Run executes the pipeline. Stages after a failed one are expected to
// check ctx.Failed() and skip themselves; the chain keeps running so every
// stage can contribute diagnostics.
func (p *Pipeline) Run(initialCtx *PipelineContext) *PipelineContext {
	ctx := initialCtx
	for _, processor := range p.processors {
		ctx = processor.Process(ctx)
	}
	return ctx
}
