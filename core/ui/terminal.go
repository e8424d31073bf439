// Package ui - Terminal user interface
// Status lines, progress bars and tables for the CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Colors for terminal output
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Cyan   = "\033[36m"
)

// Writer is the UI output destination
type Writer struct {
	out     io.Writer
	noColor bool
	quiet   bool
}

// NewWriter creates a UI writer
func NewWriter(out io.Writer, noColor bool) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{out: out, noColor: noColor}
}

// IsTerminal reports whether out is an interactive terminal
func IsTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// SetQuiet suppresses Info lines
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

func (w *Writer) color(c, text string) string {
	if w.noColor {
		return text
	}
	return c + text + Reset
}

// Println writes a line with newline
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Header prints a section header
func (w *Writer) Header(title string) {
	w.Println("")
	w.Println("%s", w.color(Bold+Cyan, "━━━ "+title+" ━━━"))
	w.Println("")
}

// Success prints a success message
func (w *Writer) Success(format string, args ...interface{}) {
	w.Println("%s%s", w.color(Green, "✓ "), fmt.Sprintf(format, args...))
}

// Warning prints a warning
func (w *Writer) Warning(format string, args ...interface{}) {
	w.Println("%s%s", w.color(Yellow, "Warning: "), fmt.Sprintf(format, args...))
}

// Error prints an error
func (w *Writer) Error(format string, args ...interface{}) {
	w.Println("%s%s", w.color(Red, "Error: "), fmt.Sprintf(format, args...))
}

// Info prints an info message unless quiet
func (w *Writer) Info(format string, args ...interface{}) {
	if w.quiet {
		return
	}
	w.Println("%s", w.color(Dim, fmt.Sprintf(format, args...)))
}

// ProgressBar renders a progress bar. Increment is safe for concurrent use.
type ProgressBar struct {
	mu        sync.Mutex
	w         *Writer
	total     int
	current   int
	width     int
	label     string
	startTime time.Time
}

// NewProgressBar creates a progress bar
func (w *Writer) NewProgressBar(total int, label string) *ProgressBar {
	return &ProgressBar{
		w:         w,
		total:     total,
		width:     30,
		label:     label,
		startTime: time.Now(),
	}
}

// Increment advances the bar by one
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < p.total {
		p.current++
	}
	p.render()
}

// Current returns the number of completed steps
func (p *ProgressBar) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *ProgressBar) render() {
	if p.total == 0 {
		return
	}

	percent := float64(p.current) / float64(p.total)
	filled := int(percent * float64(p.width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", p.width-filled)

	eta := ""
	if p.current > 0 && p.current < p.total {
		elapsed := time.Since(p.startTime)
		remaining := time.Duration(float64(elapsed) / float64(p.current) * float64(p.total-p.current))
		eta = " ETA: " + formatDuration(remaining)
	}

	fmt.Fprintf(p.w.out, "\r%s [%s] %3.0f%% (%d/%d)%s", p.label, bar, percent*100, p.current, p.total, eta)
}

// Done completes the progress bar
func (p *ProgressBar) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total > 0 {
		fmt.Fprintln(p.w.out)
	}
}

// Table renders a table
type Table struct {
	w       *Writer
	headers []string
	rows    [][]string
	widths  []int
	right   map[int]bool
}

// NewTable creates a table
func (w *Writer) NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = displayWidth(h)
	}
	return &Table{w: w, headers: headers, widths: widths, right: map[int]bool{}}
}

// AlignRight right-aligns the given columns
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// AddRow adds a row, padding or truncating cells to the header count
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
		if n := displayWidth(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

// Render prints the table
func (t *Table) Render() {
	t.w.Println("%s", t.w.color(Bold, t.line(t.headers)))

	seps := make([]string, len(t.widths))
	for i, n := range t.widths {
		seps[i] = strings.Repeat("─", n)
	}
	t.w.Println("%s", strings.Join(seps, "─┼─"))

	for _, row := range t.rows {
		t.w.Println("%s", t.line(row))
	}
}

func (t *Table) line(cells []string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := strings.Repeat(" ", t.widths[i]-displayWidth(cell))
		if t.right[i] {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(parts, " │ "), " ")
}

func displayWidth(s string) int {
	return len([]rune(s))
}

// Truncate shortens s to maxLen runes with an ellipsis
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
