package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

type interactiveCtxKeyType struct{}

var interactiveCtxKey = interactiveCtxKeyType{}

func isInteractiveEnvironment() bool {
	if os.Getenv("CI") != "" {
		return false
	}
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func withInteractive(ctx context.Context, interactive bool) context.Context {
	return context.WithValue(ctx, interactiveCtxKey, interactive)
}

func isInteractive(ctx context.Context) bool {
	interactive, ok := ctx.Value(interactiveCtxKey).(bool)
	if !ok {
		return false
	}
	return interactive
}

// progressOutput returns where progress events are echoed for a human, or nil when the
// process is not attached to a terminal.
func progressOutput(ctx context.Context) io.Writer {
	if !isInteractive(ctx) {
		return nil
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return os.Stdout
	}
	return &truncatingWriter{w: os.Stdout, width: width}
}

// truncatingWriter cuts every line written to it at the terminal width.
type truncatingWriter struct {
	w     io.Writer
	width int
}

func (t *truncatingWriter) Write(p []byte) (int, error) {
	line := []rune(string(p))
	hasNewline := len(line) > 0 && line[len(line)-1] == '\n'
	if hasNewline {
		line = line[:len(line)-1]
	}

	if len(line) > t.width && t.width > 1 {
		line = append(line[:t.width-1], '…')
	}

	if _, err := fmt.Fprint(t.w, string(line)); err != nil {
		return 0, err
	}
	if hasNewline {
		if _, err := fmt.Fprintln(t.w); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}
