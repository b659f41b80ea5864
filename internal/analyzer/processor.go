package analyzer

import (
	"github.com/rowan-lang/rowan/internal/pipeline"
)

// Processor runs inference as a pipeline stage. On failure the unit's
// partial typed AST is discarded: downstream stages skip themselves.
type Processor struct{}

func NewProcessor() *Processor { return &Processor{} }

func (p *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Program == nil || ctx.Failed() {
		return ctx
	}

	DefineBuiltins(ctx.Symbols)
	ictx := NewInferenceContext(ctx.Supply)
	a := New(ctx.Symbols, ictx)
	a.StrictEffects = ctx.Config.StrictEffects

	if err := a.Analyze(ctx.Program); err != nil {
		if err.File == "" {
			err.File = ctx.FilePath
		}
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	ctx.TypeMap = ictx.TypeMap
	ctx.EffectMap = ictx.EffectMap
	ctx.Subst = ictx.GlobalSubst
	ctx.MainType = a.MainType
	ctx.MainEffects = a.MainEffects
	return ctx
}
