package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	agentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Title renders a heading
func Title(s string) string {
	return titleStyle.Render(s)
}

// Errorf renders an error line
func Errorf(format string, args ...any) string {
	return errorStyle.Render(fmt.Sprintf(format, args...))
}

// TurnFunc answers one user message
type TurnFunc func(ctx context.Context, text string) (string, error)

// Chat reads user messages line by line from in and prints the answers to
// out until in is exhausted, the user types "exit" or "quit", or ctx ends.
// A failed turn is printed and the chat continues.
func Chat(ctx context.Context, in io.Reader, out io.Writer, turn TurnFunc) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(text) {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		answer, err := turn(ctx, text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintln(out, Errorf("error: %v", err))
			continue
		}
		fmt.Fprintln(out, agentStyle.Render("agent> ")+answer)
	}
}
