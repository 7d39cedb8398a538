package extraction

import (
	"context"

	"github.com/Veraticus/subscout/internal/metrics"
	"github.com/Veraticus/subscout/internal/model"
)

// Chain runs stages in order until one returns a terminal result.
type Chain struct {
	stages []Stage
}

// NewChain creates a chain of the given stages.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Run returns the first terminal result and the stage that produced it.
// When every stage is unextractable the last result is returned with an empty source.
func (c *Chain) Run(ctx context.Context, msg model.RawMessage) (Result, model.ExtractionSource) {
	last := unextractable("no stages")
	for _, stage := range c.stages {
		res := stage.Extract(ctx, msg)
		metrics.ExtractionResult(string(stage.Name()), res.Kind.String())
		if res.Terminal() {
			return res, stage.Name()
		}
		last = res
	}
	return last, ""
}
