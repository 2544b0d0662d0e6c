// Package progress draws the cosmetic progress bar shown before a contract
// is saved. It advances in fixed steps on a fixed interval and is not tied
// to any real work; the save runs after the bar reaches 100%.
package progress

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	// DefaultInterval is the delay between steps.
	DefaultInterval = 500 * time.Millisecond
	// Step is the percentage added per tick.
	Step     = 25
	barWidth = 20
)

// Indicator renders a textual progress bar.
type Indicator struct {
	w        io.Writer
	interval time.Duration
}

// New returns an Indicator writing to w. A nil w discards output; a
// non-positive interval advances without waiting.
func New(w io.Writer, interval time.Duration) *Indicator {
	if w == nil {
		w = io.Discard
	}
	return &Indicator{w: w, interval: interval}
}

// Run advances the bar from 0 to 100 and returns once it is full.
func (p *Indicator) Run() {
	var tick <-chan time.Time
	if p.interval > 0 {
		t := time.NewTicker(p.interval)
		defer t.Stop()
		tick = t.C
	}

	p.draw(0)
	for value := Step; value <= 100; value += Step {
		if tick != nil {
			<-tick
		}
		p.draw(value)
	}
	fmt.Fprintln(p.w)
}

func (p *Indicator) draw(value int) {
	filled := value * barWidth / 100
	fmt.Fprintf(p.w, "\r[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(" ", barWidth-filled), value)
}
