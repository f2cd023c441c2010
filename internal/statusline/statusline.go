// Package statusline translates the engine's "color bar" concept
// (§4.6.3, §7 — a Qt widget that turns green on a successful save and
// red on a failed one, with no headless equivalent) into a CLI-
// appropriate status line: colorized text when standard output is a
// real terminal, plain text otherwise. Colorization uses
// github.com/mattn/go-isatty, matching how the teacher's repo family
// detects a real terminal before emitting ANSI (the pack's only library
// for this concern).
package statusline

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Tone is the color bar's three states.
type Tone int

const (
	ToneNeutral Tone = iota
	ToneSuccess
	ToneFailure
)

const (
	ansiReset = "\x1b[0m"
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
)

// Line is one status-line writer bound to an output stream. Color
// is applied only when the stream is a real terminal, mirroring the
// color bar's on-screen-only nature — piped or redirected output gets
// plain text.
type Line struct {
	w      io.Writer
	colors bool
}

// New returns a Line writing to w, auto-detecting whether to colorize
// based on whether w is a terminal (when w is an *os.File).
func New(w io.Writer) *Line {
	colors := false
	if f, ok := w.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Line{w: w, colors: colors}
}

// Set writes msg to the line in the tone's color, or plain text when
// colorization is disabled.
func (l *Line) Set(tone Tone, msg string) {
	if !l.colors || tone == ToneNeutral {
		fmt.Fprintln(l.w, msg)
		return
	}

	var color string
	switch tone {
	case ToneSuccess:
		color = ansiGreen
	case ToneFailure:
		color = ansiRed
	}
	fmt.Fprintln(l.w, color+msg+ansiReset)
}

// Success reports a successful save/open (the color bar going green).
func (l *Line) Success(msg string) { l.Set(ToneSuccess, msg) }

// Failure reports a failed save/open (the color bar going red). Per
// §7, failure messages are shown with no accompanying state mutation —
// this package only renders the message, it does not decide when one is
// warranted.
func (l *Line) Failure(msg string) { l.Set(ToneFailure, msg) }

// Neutral reports an informational message with no color.
func (l *Line) Neutral(msg string) { l.Set(ToneNeutral, msg) }
