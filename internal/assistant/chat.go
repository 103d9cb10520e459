package assistant

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// historyCommand prints the session history instead of sending a message.
const historyCommand = "/history"

// Chat runs an interactive session for userID, reading lines from r and
// writing replies to w. It returns when the user types exit or quit, at
// EOF, or when ctx is done. Prompts are shown only when r is a terminal.
func (in *Integration) Chat(ctx context.Context, r io.Reader, w io.Writer, userID string) error {
	sessionID, err := in.backend.StartSession(ctx, userID)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer func() {
		if err := in.backend.EndSession(context.Background(), sessionID); err != nil {
			in.logger.Warn("end session", "session", sessionID, "err", err)
		}
	}()

	interactive := isTerminal(r)
	if interactive {
		fmt.Fprintf(w, "Issue-enabled chat session started (ID: %s). Type 'exit' or 'quit' to end.\n", sessionID)
		fmt.Fprintln(w, "You can ask to create, list, search, comment on and close issues.")
	}

	scanner := bufio.NewScanner(r)
	for {
		if interactive {
			fmt.Fprint(w, "You: ")
		}
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(w, "Session ended.")
			return nil
		case historyCommand:
			in.printHistory(ctx, w, sessionID)
			continue
		}

		reply, err := in.ProcessMessage(ctx, sessionID, line)
		if err != nil {
			in.logger.Error("process message", "session", sessionID, "err", err)
			fmt.Fprintf(w, "An error occurred: %v\n", err)
			continue
		}
		fmt.Fprintf(w, "AI: %s\n", reply.Content)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	fmt.Fprintln(w, "\nSession ended.")
	return nil
}

func (in *Integration) printHistory(ctx context.Context, w io.Writer, sessionID string) {
	entries, err := in.backend.History(ctx, sessionID)
	if err != nil {
		fmt.Fprintf(w, "An error occurred: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.Role, e.Content)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}
