package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Console writes user-facing narration. Informational and success messages
// go to stdout, warnings and errors to stderr, so report data piped from
// stdout stays clean.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	err io.Writer

	info    *color.Color
	success *color.Color
	warn    *color.Color
	fail    *color.Color
	dim     *color.Color
}

func NewConsole(out, errW io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	if errW == nil {
		errW = os.Stderr
	}
	return &Console{
		out:     out,
		err:     errW,
		info:    color.New(color.FgBlue),
		success: color.New(color.FgGreen),
		warn:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
		dim:     color.New(color.Faint),
	}
}

func (c *Console) Infof(format string, args ...any)    { c.printf(c.out, c.info, format, args...) }
func (c *Console) Successf(format string, args ...any) { c.printf(c.out, c.success, format, args...) }
func (c *Console) Warnf(format string, args ...any)    { c.printf(c.err, c.warn, format, args...) }
func (c *Console) Errorf(format string, args ...any)   { c.printf(c.err, c.fail, format, args...) }
func (c *Console) Dimf(format string, args ...any)     { c.printf(c.out, c.dim, format, args...) }

// Plainf writes without color, for report bodies.
func (c *Console) Plainf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

// Out exposes the stdout writer for table rendering.
func (c *Console) Out() io.Writer { return c.out }

func (c *Console) printf(w io.Writer, col *color.Color, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = col.Fprintf(w, format+"\n", args...)
}
