package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"flowscope/internal/diag"
	"flowscope/internal/source"
)

type palette struct {
	sev   map[diag.Severity]*color.Color
	code  *color.Color
	path  *color.Color
	caret *color.Color
	note  *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		sev: map[diag.Severity]*color.Color{
			diag.SevError:   mk(color.FgRed, color.Bold),
			diag.SevWarning: mk(color.FgYellow, color.Bold),
			diag.SevInfo:    mk(color.FgCyan, color.Bold),
		},
		code:  mk(color.Faint),
		path:  mk(color.Bold),
		caret: mk(color.FgGreen, color.Bold),
		note:  mk(color.FgCyan),
	}
}

// Pretty formats diagnostics for humans, in bag order (call bag.Sort()
// first). Each diagnostic renders as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line and a caret run under the span when the
// program text is known, then its notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	pal := newPalette(opts.Color)
	for _, d := range bag.Items() {
		sev, ok := pal.sev[d.Severity]
		if !ok {
			sev = pal.code
		}
		if _, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
			pal.path.Sprint(location(d.Primary, fs, opts)),
			sev.Sprint(d.Severity.String()),
			pal.code.Sprint(d.Code.ID()),
			d.Message,
		); err != nil {
			return err
		}
		if !opts.NoSource {
			if err := excerpt(w, d.Primary, fs, pal); err != nil {
				return err
			}
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "  %s %s: %s\n",
				pal.note.Sprint("note:"), location(n.Span, fs, opts), n.Msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func location(sp source.Span, fs *source.FileSet, opts PrettyOpts) string {
	var f *source.File
	if fs != nil {
		f = fs.Get(sp.File)
	}
	path := displayPath(f, opts.PathMode, opts.BaseDir)
	if sp.Empty() {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, sp.Line, sp.Col+1)
}

// excerpt prints the first line of sp and underlines the spanned columns.
// Spans running past the line are underlined to its end.
func excerpt(w io.Writer, sp source.Span, fs *source.FileSet, pal palette) error {
	if fs == nil || sp.Empty() {
		return nil
	}
	f := fs.Get(sp.File)
	if f == nil {
		return nil
	}
	line := f.GetLine(sp.Line)
	if line == "" {
		return nil
	}
	start := min(int(sp.Col), len(line))
	end := len(line)
	if sp.EndLine == sp.Line {
		end = min(max(int(sp.EndCol), start), len(line))
	}

	var pad strings.Builder
	for _, r := range line[:start] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := max(runewidth.StringWidth(line[start:end]), 1)

	gutter := fmt.Sprintf("%d", sp.Line)
	blank := strings.Repeat(" ", len(gutter))
	_, err := fmt.Fprintf(w, "%s | %s\n%s | %s%s\n",
		gutter, line,
		blank, pad.String(), pal.caret.Sprint("^"+strings.Repeat("~", width-1)))
	return err
}
