package kvazz

import (
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	kerrors "github.com/sambeau/kvazz/pkg/kvazz/errors"
)

// Color modes accepted by UseColor
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// IsTerminal reports whether f is an interactive terminal
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// UseColor resolves a color mode for output written to f. In auto mode
// color is used only on a terminal and only if NO_COLOR is unset.
func UseColor(mode string, f *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return IsTerminal(f)
}

// FormatError renders err for display. A KvazzError gets its stage header
// and hint markers, colored when useColor is set. Other errors are shown as
// their plain message.
func FormatError(err error, useColor bool) string {
	kerr, ok := kerrors.As(err)
	if !ok {
		return err.Error()
	}

	header := color.New(color.FgRed, color.Bold)
	hint := color.New(color.FgCyan)
	if useColor {
		header.EnableColor()
		hint.EnableColor()
	} else {
		header.DisableColor()
		hint.DisableColor()
	}

	lines := strings.Split(kerr.PrettyString(), "\n")
	lines[0] = header.Sprint(kerr.Header()) + strings.TrimPrefix(lines[0], kerr.Header())
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimLeft(lines[i], " ")
		indent := lines[i][:len(lines[i])-len(trimmed)]
		for _, marker := range []string{"Use:", "or:"} {
			if rest, found := strings.CutPrefix(trimmed, marker+" "); found {
				lines[i] = indent + hint.Sprint(marker) + " " + rest
			}
		}
	}
	return strings.Join(lines, "\n")
}
