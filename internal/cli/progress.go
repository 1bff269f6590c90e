package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
	"kbrag/internal/domain"
)

// progressObserver drives a per-document progress bar during initialization.
type progressObserver struct {
	mu  sync.Mutex
	out io.Writer
	bar *progressbar.ProgressBar
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{out: out}
}

func (p *progressObserver) Observe(e domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Kind {
	case domain.EventInitStarted:
		p.bar = progressbar.NewOptions(e.Total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]Embedding[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(p.out)
			}),
		)
	case domain.EventCacheMiss:
		if p.bar != nil {
			p.bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] %s", e.Document))
		}
	case domain.EventCacheHit, domain.EventDocumentEmbedded:
		if p.bar != nil {
			p.bar.Add(1)
		}
	case domain.EventInitCompleted, domain.EventInitFailed:
		if p.bar != nil {
			p.bar.Finish()
			p.bar = nil
		}
	}
}
