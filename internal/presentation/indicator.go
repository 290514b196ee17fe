package presentation

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-display-service/internal/observability"
)

// ProgressIndicator is the screen's loading spinner. Safe for concurrent use.
type ProgressIndicator struct {
	active atomic.Int64
	shows  atomic.Int64
	hides  atomic.Int64
	logger *zap.Logger
}

func NewProgressIndicator(logger *zap.Logger) *ProgressIndicator {
	return &ProgressIndicator{logger: observability.LoggerOrNop(logger)}
}

func (p *ProgressIndicator) Show() {
	p.shows.Add(1)
	if p.active.Add(1) == 1 {
		p.logger.Debug("progress indicator shown")
	}
}

func (p *ProgressIndicator) Hide() {
	p.hides.Add(1)
	if p.active.Add(-1) == 0 {
		p.logger.Debug("progress indicator hidden")
	}
}

// Visible reports whether any fetch is still showing the spinner.
func (p *ProgressIndicator) Visible() bool {
	return p.active.Load() > 0
}

// Counts returns the total Show and Hide calls so far.
func (p *ProgressIndicator) Counts() (shows, hides int64) {
	return p.shows.Load(), p.hides.Load()
}
