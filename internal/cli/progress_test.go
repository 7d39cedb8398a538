package cli

import (
	"bytes"
	"testing"

	"github.com/Veraticus/subscout/internal/engine"
	"github.com/stretchr/testify/assert"
)

func TestScanProgress(t *testing.T) {
	var out bytes.Buffer
	p := NewScanProgress(&out)

	p.Report(engine.StageFetch, 0, 50)
	p.Report(engine.StageFetch, 4, 4)
	p.Report(engine.StageExtract, 0, 4)
	p.Report(engine.StageExtract, 4, 4)
	p.Report(engine.StageClassify, 0, 0)
	p.Report(engine.StageClassify, 0, 0)

	assert.Contains(t, out.String(), "Fetching messages")
	assert.Contains(t, out.String(), "Extracting candidates")
	assert.Contains(t, out.String(), "Matching your subscriptions")
	assert.Nil(t, p.bar)
}
