package cli

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/Veraticus/subscout/internal/engine"
	"github.com/schollz/progressbar/v3"
)

var stageDescriptions = map[engine.Stage]string{
	engine.StageFetch:    "Fetching messages",
	engine.StageExtract:  "Extracting candidates",
	engine.StageClassify: "Matching your subscriptions",
}

// ScanProgress draws one progress bar per pipeline stage.
type ScanProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	stage  engine.Stage
	mu     sync.Mutex
}

// NewScanProgress creates a progress display writing to w.
func NewScanProgress(w io.Writer) *ScanProgress {
	return &ScanProgress{writer: w}
}

// Report implements engine.ProgressFunc.
func (p *ScanProgress) Report(stage engine.Stage, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if stage != p.stage {
		p.stage = stage
		p.bar = p.newBar(stage, total)
		if done < total {
			return
		}
	}
	if p.bar == nil {
		return
	}

	p.bar.ChangeMax(max(total, 1))
	if err := p.bar.Set(done); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
	if done >= total {
		if err := p.bar.Finish(); err != nil {
			slog.Warn("Failed to finish progress bar", "error", err)
		}
		p.bar = nil
	}
}

func (p *ScanProgress) newBar(stage engine.Stage, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(max(total, 1),
		progressbar.OptionSetWriter(p.writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionSetDescription(stageDescriptions[stage]),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(p.writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
