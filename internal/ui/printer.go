// Package ui prints jbi's user-facing status lines.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// Printer writes status lines to a writer, coloured when that writer is a
// terminal and NO_COLOR is unset.
type Printer struct {
	w       io.Writer
	info    *color.Color
	warn    *color.Color
	errc    *color.Color
	success *color.Color
}

// NewPrinter returns a Printer for w. Colour is decided once, here.
func NewPrinter(w io.Writer) *Printer {
	p := &Printer{
		w:       w,
		info:    color.New(color.FgCyan),
		warn:    color.New(color.FgYellow),
		errc:    color.New(color.FgRed, color.Bold),
		success: color.New(color.FgGreen),
	}
	enable := IsTerminal(w) && os.Getenv("NO_COLOR") == ""
	for _, c := range []*color.Color{p.info, p.warn, p.errc, p.success} {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) // #nosec G115 -- fd fits in int
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

func (p *Printer) Println(msg string) { fmt.Fprintln(p.w, msg) }

func (p *Printer) Printf(format string, args ...any) { fmt.Fprintf(p.w, format, args...) }

func (p *Printer) Info(msg string) { p.info.Fprintln(p.w, msg) }

func (p *Printer) Success(msg string) { p.success.Fprintln(p.w, msg) }

func (p *Printer) Warn(msg string) { p.warn.Fprintln(p.w, "WARNING: "+msg) }

func (p *Printer) Error(msg string) { p.errc.Fprintln(p.w, "ERROR: "+msg) }
