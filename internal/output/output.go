// Package output prints short human-facing notices from CLI commands, such
// as corpus load failures and watcher state, kept apart from result output.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/rixingyike/rustpress/internal/errors"
)

// Writer prints one notice per line with a leading icon.
type Writer struct {
	out   io.Writer
	icons bool
}

// New creates a Writer. Icons are dropped when plain is true.
func New(out io.Writer, plain bool) *Writer {
	return &Writer{out: out, icons: !plain}
}

// Status prints msg behind icon. Write errors are ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" && w.icons {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
}

// Success prints a success notice.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success notice.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning notice.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning notice.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error notice.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Failure prints err in the CLI error format: the message line behind the
// error icon and the code, hint and suggestion lines indented under it.
func (w *Writer) Failure(err error) {
	if err == nil {
		return
	}
	lines := strings.Split(strings.TrimRight(errors.FormatForCLI(err), "\n"), "\n")
	w.Error(strings.TrimPrefix(lines[0], "Error: "))
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		_, _ = fmt.Fprintf(w.out, "   %s\n", strings.TrimSpace(line))
	}
}
