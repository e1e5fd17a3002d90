package download

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress renders transfer progress.
type Progress interface {
	Update(done, total int64)
	Finish()
}

// NewProgress returns a bar renderer for terminals and a line renderer
// otherwise.
func NewProgress(w io.Writer, interactive bool) Progress {
	if interactive {
		return &barProgress{w: w}
	}
	return &lineProgress{w: w, lastPct: -1}
}

type barProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (b *barProgress) Update(done, total int64) {
	if b.bar == nil {
		if total <= 0 {
			total = -1
		}
		b.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(b.w),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowBytes(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	_ = b.bar.Set64(done)
}

func (b *barProgress) Finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	fmt.Fprintln(b.w)
}

// lineProgress prints "<done> / <total> bytes loaded (<pct>%)" on a single
// carriage-returned line, once per whole percent.
type lineProgress struct {
	w       io.Writer
	lastPct int
	done    int64
	total   int64
}

func (l *lineProgress) Update(done, total int64) {
	l.done, l.total = done, total
	if total <= 0 {
		return
	}
	pct := int(100 * done / total)
	if pct == l.lastPct {
		return
	}
	l.lastPct = pct
	l.print()
}

func (l *lineProgress) print() {
	fmt.Fprintf(l.w, "\r%d / %d bytes loaded (%05.2f%%)", l.done, l.total, 100*float64(l.done)/float64(l.total))
}

func (l *lineProgress) Finish() {
	if l.total > 0 && l.lastPct != 100 {
		l.print()
	}
	fmt.Fprintln(l.w)
}
