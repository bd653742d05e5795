// Package output renders command results for terminals, pipes, and
// machine consumers. Terminal output is styled and colored; piped output
// falls back to plain text unless JSON is requested explicitly.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Mode selects the output format.
type Mode string

const (
	// ModeAuto picks ModeText on a terminal and ModePlain otherwise.
	ModeAuto Mode = "auto"
	// ModeText is styled terminal output.
	ModeText Mode = "text"
	// ModePlain is unstyled text for pipes and logs.
	ModePlain Mode = "plain"
	// ModeJSON emits a single JSON document.
	ModeJSON Mode = "json"
)

// Renderer writes command output in the effective mode.
type Renderer struct {
	out  io.Writer
	err  io.Writer
	mode Mode

	success *color.Color
	failure *color.Color
	warn    *color.Color
	muted   *color.Color
}

// NewRenderer creates a renderer. An unknown mode is treated as auto.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	switch mode {
	case ModeText, ModePlain, ModeJSON:
	default:
		mode = ModeAuto
	}
	return &Renderer{
		out:     out,
		err:     errOut,
		mode:    mode,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow),
		muted:   color.New(color.Faint),
	}
}

// EffectiveMode resolves ModeAuto against the output destination.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.out.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			return ModeText
		}
	}
	return ModePlain
}

func (r *Renderer) styled() bool {
	return r.EffectiveMode() == ModeText
}

// Println writes a line to the output stream.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to the output stream.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section header.
func (r *Renderer) Header(s string) {
	if r.styled() {
		_, _ = fmt.Fprintln(r.out, text.Bold.Sprint(s))
		return
	}
	_, _ = fmt.Fprintf(r.out, "%s\n", s)
}

// Muted writes de-emphasized detail text.
func (r *Renderer) Muted(s string) {
	if r.styled() {
		_, _ = r.muted.Fprintln(r.out, s)
		return
	}
	_, _ = fmt.Fprintln(r.out, s)
}

// Errorf writes to the error stream.
func (r *Renderer) Errorf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.err, format, a...)
}

// Status colors a status word when styling is on.
func (r *Renderer) Status(status string) string {
	if !r.styled() {
		return status
	}
	switch status {
	case "success", "completed", "passed", "loaded":
		return r.success.Sprint(status)
	case "failed", "error":
		return r.failure.Sprint(status)
	case "skipped", "cancelled":
		return r.warn.Sprint(status)
	default:
		return status
	}
}

// JSON marshals v to the output stream with indentation.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewTable creates a table writer bound to the output stream, styled for
// the effective mode.
func (r *Renderer) NewTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	if r.styled() {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleDefault)
		t.Style().Options.DrawBorder = false
		t.Style().Options.SeparateColumns = true
	}
	return t
}
