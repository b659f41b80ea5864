package lowering

import (
	"github.com/rowan-lang/rowan/internal/pipeline"
)

// Processor runs the rewrite as a pipeline stage. Lowering assumes a typed,
// classified unit and cannot fail on one.
type Processor struct {
	Opts Options
}

func NewProcessor() *Processor { return &Processor{} }

func (p *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Program == nil || ctx.Failed() {
		return ctx
	}
	l := New(ctx.Symbols, ctx.Config, p.Opts)
	ctx.IR = l.Lower(ctx.Program)
	return ctx
}
