package tracker

import "github.com/samuelfneumann/drlplace/utils/progressbar"

// Progress draws a progress bar advancing with each Record
type Progress struct {
	bar   *progressbar.ProgressBar
	every int
	n     int
}

// NewProgress returns a Tracker advancing bar by one per Record and
// redrawing it every n Records
func NewProgress(bar *progressbar.ProgressBar, every int) *Progress {
	if every < 1 {
		every = 1
	}
	return &Progress{bar: bar, every: every}
}

// Track implements the Tracker interface
func (p *Progress) Track(Record) {
	p.bar.Increment()
	p.n++
	if p.n%p.every == 0 {
		p.bar.Display()
	}
}

// Save draws the final state of the bar and ends its line
func (p *Progress) Save() error {
	p.bar.Display()
	p.bar.Close()
	return nil
}
