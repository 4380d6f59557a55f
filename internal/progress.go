package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// progressSpinner supplies the frames and frame rate drawn by ShowProgress.
var progressSpinner = spinner.Dot

// ShowProgress runs fn while drawing a spinner on stderr. Without a terminal it
// logs the message and runs fn.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !IsTerminal(os.Stderr) {
		LogInfo("%s", message)
		return fn()
	}
	return spin(ctx, os.Stderr, message, fn)
}

// spin redraws one line of w until fn returns or ctx ends, then leaves a
// final ✓ or ✗ line. fn keeps running when ctx ends first.
func spin(ctx context.Context, w io.Writer, message string, fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()

	ticker := time.NewTicker(progressSpinner.FPS)
	defer ticker.Stop()
	for frame := 0; ; frame++ {
		select {
		case err := <-done:
			mark := successStyle.Render("✓")
			if err != nil {
				mark = errorStyle.Render("✗")
			}
			fmt.Fprintf(w, "\r%s %s\n", mark, message)
			return err
		case <-ctx.Done():
			fmt.Fprintln(w)
			return ctx.Err()
		case <-ticker.C:
			f := progressSpinner.Frames[frame%len(progressSpinner.Frames)]
			fmt.Fprintf(w, "\r%s %s", progressStyle.Render(f), message)
		}
	}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printStatus writes message with a styled mark on a terminal and with the
// plain prefix otherwise.
func printStatus(w io.Writer, mark string, style lipgloss.Style, plain, message string) {
	if IsTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", style.Render(mark), message)
		return
	}
	fmt.Fprintf(w, "%s%s\n", plain, message)
}

// PrintSuccess reports a finished operation on stdout.
func PrintSuccess(message string) {
	printStatus(os.Stdout, "✓", successStyle, "", message)
}

// PrintError reports a failure on stderr.
func PrintError(message string) {
	printStatus(os.Stderr, "✗", errorStyle, "", message)
}

// PrintWarning reports a problem that did not stop the command on stderr.
func PrintWarning(message string) {
	printStatus(os.Stderr, "⚠", warningStyle, "WARNING: ", message)
}
