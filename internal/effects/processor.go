package effects

import (
	"github.com/rowan-lang/rowan/internal/pipeline"
)

// Processor runs classification as a pipeline stage, between inference and
// lowering. Classification cannot fail; it only annotates.
type Processor struct{}

func NewProcessor() *Processor { return &Processor{} }

func (p *Processor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Program == nil || ctx.Failed() {
		return ctx
	}
	Classify(ctx.Program, ctx.Symbols)
	return ctx
}
