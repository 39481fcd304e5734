package scraper

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/schollz/progressbar/v3"
)

// ProgressReporter displays the work-unit counter of a run.
type ProgressReporter interface {
	Start(total int64)
	Update(current, total int64)
	Finish()
}

// Progress counts completed work units against a precomputed total.
// A work unit is one collection or one product. Current never exceeds
// total and never decreases.
type Progress struct {
	total    int64
	current  int64
	reporter ProgressReporter
	metrics  *Metrics
}

// NewProgress builds a counter publishing to reporter and metrics; both may be nil.
func NewProgress(reporter ProgressReporter, metrics *Metrics) *Progress {
	return &Progress{reporter: reporter, metrics: metrics}
}

// Start resets the counter to zero out of total.
func (p *Progress) Start(total int64) {
	if total < 0 {
		total = 0
	}
	p.total = total
	p.current = 0
	if p.reporter != nil {
		p.reporter.Start(total)
	}
	p.publish()
}

// Advance completes one work unit.
func (p *Progress) Advance() {
	if p.current < p.total {
		p.current++
	}
	p.publish()
}

// Grow adjusts the total when the traversal finds a different amount of
// work than the counting pass did. The total never drops below current.
func (p *Progress) Grow(delta int64) {
	if delta == 0 {
		return
	}
	p.total += delta
	if p.total < p.current {
		p.total = p.current
	}
	p.publish()
}

// Finish stops the reporter.
func (p *Progress) Finish() {
	if p.reporter != nil {
		p.reporter.Finish()
	}
}

// Current returns the completed work units.
func (p *Progress) Current() int64 { return p.current }

// Total returns the expected work units.
func (p *Progress) Total() int64 { return p.total }

func (p *Progress) publish() {
	if p.reporter != nil {
		p.reporter.Update(p.current, p.total)
	}
	p.metrics.SetProgress(p.current, p.total)
}

// BarReporter renders a terminal progress bar.
type BarReporter struct {
	w     io.Writer
	bar   *progressbar.ProgressBar
	total int64
}

// NewBarReporter builds a bar writing to w, usually os.Stderr.
func NewBarReporter(w io.Writer) *BarReporter {
	return &BarReporter{w: w}
}

func (b *BarReporter) Start(total int64) {
	b.total = total
	b.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription("scraping"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)
}

func (b *BarReporter) Update(current, total int64) {
	if b.bar == nil {
		return
	}
	if total != b.total {
		b.total = total
		b.bar.ChangeMax64(total)
	}
	_ = b.bar.Set64(current)
}

func (b *BarReporter) Finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	fmt.Fprintln(b.w)
}

// LogReporter logs progress every Step percent, for non-interactive output.
type LogReporter struct {
	Step       int
	lastBucket int
}

// NewLogReporter builds a reporter logging every step percent.
func NewLogReporter(step int) *LogReporter {
	if step <= 0 || step > 100 {
		step = 10
	}
	return &LogReporter{Step: step}
}

func (l *LogReporter) Start(total int64) {
	l.lastBucket = 0
	slog.Info("scrape progress started", slog.Int64("total", total))
}

func (l *LogReporter) Update(current, total int64) {
	if total <= 0 {
		return
	}
	bucket := int(current * 100 / total / int64(l.Step))
	if bucket <= l.lastBucket {
		return
	}
	l.lastBucket = bucket
	slog.Info("scrape progress",
		slog.Int64("current", current),
		slog.Int64("total", total),
		slog.Int("percent", int(current*100/total)),
	)
}

func (l *LogReporter) Finish() {
	slog.Debug("scrape progress finished")
}
