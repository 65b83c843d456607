package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/dusk-indust/codegenius/internal/orchestrator"
)

// progressBar renders pipeline progress events on the terminal.
type progressBar struct {
	w     io.Writer
	repo  string
	quiet bool
	bar   *progressbar.ProgressBar
}

func newProgressBar(w io.Writer, repo string, quiet bool) *progressBar {
	return &progressBar{w: w, repo: repo, quiet: quiet}
}

// consume drains events until the channel is closed.
func (p *progressBar) consume(events <-chan orchestrator.ProgressEvent) {
	for ev := range events {
		if p.quiet {
			continue
		}
		p.handle(ev)
	}
	if p.bar != nil {
		p.bar.Finish()
	}
}

func (p *progressBar) handle(ev orchestrator.ProgressEvent) {
	if orchestrator.StageStarted(ev) {
		fmt.Fprintln(p.w, orchestrator.FormatStageHeader(p.repo, ev.Stage))
	}
	if ev.Stage != orchestrator.StageParse {
		if ev.Status == orchestrator.ProgressComplete || ev.Status == orchestrator.ProgressFailed {
			fmt.Fprintln(p.w, orchestrator.FormatProgress(ev))
		}
		return
	}

	switch ev.Status {
	case orchestrator.ProgressWorking:
		if p.bar == nil && ev.Total > 0 {
			p.bar = progressbar.NewOptions(ev.Total,
				progressbar.OptionSetWriter(p.w),
				progressbar.OptionSetDescription("Parsing files"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("files/s"),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(p.w)
				}),
			)
		}
		if p.bar != nil && ev.Done > 0 {
			p.bar.Set(ev.Done)
		}
	case orchestrator.ProgressComplete:
		if p.bar != nil {
			p.bar.Finish()
			p.bar = nil
		}
		fmt.Fprintln(p.w, orchestrator.FormatProgress(ev))
	case orchestrator.ProgressFailed:
		fmt.Fprintln(p.w, orchestrator.FormatProgress(ev))
	}
}
