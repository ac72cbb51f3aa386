package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"presence.monitor/internal/core/model"
)

// terminalConfirmer asks on the terminal. Anything but y/yes declines.
type terminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func newTerminalConfirmer(in io.Reader, out io.Writer) *terminalConfirmer {
	return &terminalConfirmer{in: bufio.NewReader(in), out: out}
}

func (c *terminalConfirmer) Confirm(ctx context.Context, prompt string) bool {
	fmt.Fprintf(c.out, "%s [y/N] ", prompt)
	answer, err := c.in.ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(c.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// printNotifier shows toggle notifications on the terminal.
type printNotifier struct {
	out io.Writer
}

func (p printNotifier) Notify(ctx context.Context, n model.Notification) error {
	_, err := fmt.Fprintf(p.out, "%s\n%s\n", n.Title, n.Body)
	return err
}
