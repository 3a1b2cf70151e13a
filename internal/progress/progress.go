// Package progress renders progress bars on the terminal.
package progress

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Tracker is a progress bar or spinner. A nil *Tracker does nothing, which
// is what the constructors return when there is no writer.
type Tracker struct {
	bar *progressbar.ProgressBar
}

// NewSpinner creates a spinner for work of unknown size.
func NewSpinner(w io.Writer, label string) *Tracker {
	return newTracker(w, -1, label,
		progressbar.OptionSetWidth(20),
		progressbar.OptionSpinnerType(14),
	)
}

// NewTracker creates a bar counting up to total.
func NewTracker(w io.Writer, label string, total int) *Tracker {
	return newTracker(w, total, label,
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func newTracker(w io.Writer, total int, label string, opts ...progressbar.Option) *Tracker {
	if w == nil {
		return nil
	}
	opts = append(opts,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: progressbar.NewOptions(total, opts...)}
}

// Tick advances by one. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t != nil {
		_ = t.bar.Add(1)
	}
}

// Finish removes the bar from the terminal.
func (t *Tracker) Finish() {
	if t != nil {
		_ = t.bar.Finish()
		_ = t.bar.Clear()
	}
}
