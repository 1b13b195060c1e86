package cmd

import (
	"io"
	"sync"

	"github.com/cheggaaa/pb/v3"
)

const progressTemplate = `{{ string . "prefix" }}{{ counters . }} {{ bar . }} {{ percent . }} {{ etime . }} {{ rtime . "ETA %s" }}`

// treeProgress renders one progress bar per model as its trees finish.
type treeProgress struct {
	w     io.Writer
	mu    sync.Mutex
	bar   *pb.ProgressBar
	model string
}

func newTreeProgress(w io.Writer) *treeProgress {
	return &treeProgress{w: w}
}

// Update matches the evaluation.Experiment progress callback.
func (p *treeProgress) Update(model string, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.bar == nil || p.model != model {
		p.finishLocked()
		p.bar = pb.ProgressBarTemplate(progressTemplate).New(total)
		p.bar.SetWriter(p.w)
		p.bar.Set("prefix", model+" trees ")
		p.bar.Start()
		p.model = model
	}
	p.bar.SetCurrent(int64(done))
	if done >= total {
		p.finishLocked()
	}
}

// Callback adapts Update to ensemble.WithProgress for a single model.
func (p *treeProgress) Callback(model string) func(done, total int) {
	return func(done, total int) {
		p.Update(model, done, total)
	}
}

func (p *treeProgress) finishLocked() {
	if p.bar != nil {
		p.bar.Finish()
		p.bar = nil
	}
}
