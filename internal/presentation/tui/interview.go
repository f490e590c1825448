package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/smartmeal/pkg/domain"
)

// Interviewer is the slice of session.Controller the interactive loop drives.
type Interviewer interface {
	Start(ctx context.Context) (domain.TreeView, error)
	Navigate(ctx context.Context, childID string) (domain.TreeView, error)
	Reset(ctx context.Context) (domain.TreeView, error)
	Snapshot() domain.SessionSnapshot
	MatchTerminal(ctx context.Context) ([]domain.DishMatch, error)
}

// Interview runs the guided interview over a line-oriented terminal.
type Interview struct {
	in     *bufio.Reader
	out    io.Writer
	render Renderer
}

func NewInterview(in io.Reader, out io.Writer, render Renderer) *Interview {
	if render == nil {
		render = Plain
	}
	return &Interview{in: bufio.NewReader(in), out: out, render: render}
}

// Run starts the session and answers user choices until "q" or end of input.
// Operation failures are shown and the loop continues; only I/O errors end it early.
func (iv *Interview) Run(ctx context.Context, s Interviewer) error {
	_, err := s.Start(ctx)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		snap := s.Snapshot()
		if err := iv.show(ctx, s, snap, err); err != nil {
			return err
		}

		line, readErr := iv.prompt(snap)
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}

		switch cmd := strings.ToLower(line); cmd {
		case "":
			err = nil
			continue
		case "q", "quit", "exit":
			fmt.Fprintln(iv.out, "Enjoy your meal!")
			return nil
		case "r", "reset", "restart":
			_, err = s.Reset(ctx)
		default:
			id, ok := choose(snap.Node, line)
			if !ok {
				err = domain.Errorf(domain.KindInvalidInput, "choose", "%q is not one of the options", line)
				continue
			}
			_, err = s.Navigate(ctx, id)
		}
	}
}

func (iv *Interview) show(ctx context.Context, s Interviewer, snap domain.SessionSnapshot, opErr error) error {
	md := NodeMarkdown(snap)
	switch {
	case snap.State == domain.StateError:
		md += "\n" + ErrorMarkdown(snap)
	case opErr != nil:
		md += fmt.Sprintf("\n> %s\n", opErr)
	}
	if snap.State == domain.StateTerminal {
		dishes, err := s.MatchTerminal(ctx)
		if err != nil {
			md += fmt.Sprintf("\n> Could not check the catalog: %s\n", err)
		} else {
			md += "\n" + DishesMarkdown(dishes)
		}
	}

	out, err := iv.render(md)
	if err != nil {
		out = md
	}
	_, err = io.WriteString(iv.out, out)
	return err
}

func (iv *Interview) prompt(snap domain.SessionSnapshot) (string, error) {
	hint := "number to choose, r to restart, q to quit"
	if snap.State == domain.StateTerminal || snap.Node == nil {
		hint = "r to restart, q to quit"
	}
	p := termenv.ColorProfile()
	fmt.Fprintf(iv.out, "%s %s ",
		termenv.String("("+hint+")").Faint(),
		termenv.String(">").Foreground(p.Color("#4ade80")).Bold())

	line, err := iv.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// choose resolves a 1-based option number or an option ID.
func choose(node *domain.TreeNode, input string) (string, bool) {
	if node == nil || node.Terminal() {
		return "", false
	}
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(node.Options) {
			return "", false
		}
		return node.Options[n-1].ID, true
	}
	if node.HasOption(input) {
		return input, true
	}
	return "", false
}
