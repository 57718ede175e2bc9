// Package display turns log entries into width-bounded visual rows and
// tracks which row is selected.
package display

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

const (
	tabWidth = 8
	sgrReset = "\x1b[0m"
)

// Row is one wrapped line of output as it appears on screen.
type Row struct {
	// Text holds the visible content with its SGR styling. A styled row
	// reopens the style in effect and ends with a reset.
	Text string
	// Width is the display width of Text in terminal cells.
	Width int
	// Entry is the index of the log entry the row came from.
	Entry int
}

// Projection is the full set of rows for one width.
type Projection struct {
	Rows  []Row
	Width int
}

// Len returns the number of rows.
func (p Projection) Len() int {
	return len(p.Rows)
}

// Project wraps every entry to width cells. It is recomputed on each frame
// so a resize or a new entry needs no invalidation.
func Project(entries []string, width int) Projection {
	if width < 1 {
		width = 1
	}
	p := Projection{Width: width}
	for i, entry := range entries {
		w := newWrapper(width, i)
		for _, line := range strings.Split(entry, "\n") {
			w.line(line)
		}
		p.Rows = append(p.Rows, w.rows...)
	}
	return p
}

// wrapper accumulates the rows of a single entry. SGR state carries over
// line breaks inside the entry but not across entries.
type wrapper struct {
	width int
	entry int
	rows  []Row

	active []string // SGR sequences in effect since the last reset

	cur      strings.Builder
	curW     int
	clusters int
	lineCol  int
}

func newWrapper(width, entry int) *wrapper {
	return &wrapper{width: width, entry: entry}
}

func (w *wrapper) line(s string) {
	w.lineCol = 0
	w.open()

	for len(s) > 0 {
		c := s[0]
		switch {
		case c == 0x1b:
			s = w.escape(s)
		case c == '\t':
			n := tabWidth - w.lineCol%tabWidth
			for range n {
				w.cluster(" ", 1)
			}
			s = s[1:]
		case c < 0x20 || c == 0x7f:
			s = s[1:]
		default:
			end := printableEnd(s)
			w.text(s[:end])
			s = s[end:]
		}
	}
	// A line without visible clusters produces no row.
	if w.clusters > 0 {
		w.flush()
	}
}

// text adds a run of printable characters one grapheme cluster at a time.
func (w *wrapper) text(s string) {
	state := -1
	var cluster string
	var width int
	for len(s) > 0 {
		cluster, s, width, state = uniseg.FirstGraphemeClusterInString(s, state)
		w.cluster(cluster, width)
	}
}

func (w *wrapper) cluster(c string, width int) {
	if w.curW+width > w.width && w.curW > 0 {
		w.flush()
		w.open()
	}
	w.cur.WriteString(c)
	w.curW += width
	w.clusters++
	w.lineCol += width
}

// open starts a row, reapplying the style in effect.
func (w *wrapper) open() {
	w.cur.Reset()
	w.curW = 0
	w.clusters = 0
	for _, seq := range w.active {
		w.cur.WriteString(seq)
	}
}

func (w *wrapper) flush() {
	text := w.cur.String()
	if len(w.active) > 0 {
		text += sgrReset
	}
	w.rows = append(w.rows, Row{Text: text, Width: w.curW, Entry: w.entry})
	w.cur.Reset()
	w.curW = 0
	w.clusters = 0
}

// escape consumes one escape sequence at the start of s. SGR sequences are
// kept and tracked; everything else is dropped.
func (w *wrapper) escape(s string) string {
	if len(s) < 2 {
		return ""
	}
	switch s[1] {
	case '[':
		i := 2
		for i < len(s) && s[i] >= 0x20 && s[i] <= 0x3f {
			i++
		}
		if i >= len(s) {
			return ""
		}
		final := s[i]
		if final < 0x40 || final > 0x7e {
			// Malformed; drop the introducer and parameters only.
			return s[i:]
		}
		seq := s[:i+1]
		if final == 'm' {
			w.sgr(seq, s[2:i])
		}
		return s[i+1:]
	case ']':
		// OSC, terminated by BEL or ST.
		for i := 2; i < len(s); i++ {
			if s[i] == 0x07 {
				return s[i+1:]
			}
			if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
				return s[i+2:]
			}
		}
		return ""
	default:
		_, size := utf8.DecodeRuneInString(s[1:])
		return s[1+size:]
	}
}

func (w *wrapper) sgr(seq, params string) {
	first, _, _ := strings.Cut(params, ";")
	if first == "" || first == "0" {
		w.active = w.active[:0]
	}
	if params != "" && params != "0" {
		w.active = append(w.active, seq)
	}
	w.cur.WriteString(seq)
}

// printableEnd returns the length of the leading run of s that holds no
// control bytes.
func printableEnd(s string) int {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c == 0x7f {
			return i
		}
	}
	return len(s)
}
