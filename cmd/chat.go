package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v3"

	"github.com/matchpoint-app/matchpoint-go/chat"
	"github.com/matchpoint-app/matchpoint-go/config"
	"github.com/matchpoint-app/matchpoint-go/models"
	"github.com/matchpoint-app/matchpoint-go/realtime"
)

var (
	authorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	selfStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	timeStyle   = lipgloss.NewStyle().Faint(true)
	failedStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("9"))
	statusStyle = lipgloss.NewStyle().Italic(true).Faint(true)
)

// ChatCommand creates the chat command
func ChatCommand(conf *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Open a session's comment thread",
		ArgsUsage: "<session-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("usage: matchpoint chat <session-id>")
			}
			return runChat(ctx, conf, c.Args().Get(0))
		},
	}
}

func runChat(ctx context.Context, conf *config.Config, sessionID string) error {
	svc, err := newServices(conf)
	if err != nil {
		return err
	}
	if err := svc.requireAuth(); err != nil {
		return err
	}
	self := svc.auth.User()

	thread := chat.New(sessionID, *self, svc.api)
	if err := thread.Load(ctx); err != nil {
		return fmt.Errorf("failed to load thread: %w", err)
	}

	for _, c := range reversed(thread.Comments()) {
		printComment(c, self.ID)
	}

	rt := realtime.New(realtime.Config{
		URL:       conf.RealtimeURL,
		SessionID: sessionID,
		Token:     svc.auth.Token(),
		User:      self.Ref(),
		Handlers:  mergeHandlers(thread, self.ID),
	})
	if err := rt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect realtime channel: %w", err)
	}
	defer rt.Disconnect()

	fmt.Println(statusStyle.Render("connected, type a message and press enter, /quit to leave"))

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			break
		}
		if err := thread.Send(ctx, line); err != nil {
			fmt.Println(failedStyle.Render("send failed: " + err.Error()))
		}
	}
	// resynchronize before leaving so the next open starts clean
	_ = thread.Reload(ctx)
	return scanner.Err()
}

// mergeHandlers wires the thread's handlers plus terminal echo for events
// originated by other users
func mergeHandlers(thread *chat.Thread, selfID string) realtime.Handlers {
	h := thread.Handlers()
	inner := h.OnCommentCreated
	h.OnCommentCreated = func(c models.Comment) {
		inner(c)
		if c.Author.ID != selfID {
			printComment(c, selfID)
		}
	}
	innerTyping := h.OnTyping
	h.OnTyping = func(p realtime.TypingPayload) {
		innerTyping(p)
		if names := thread.TypingNames(); len(names) > 0 {
			fmt.Println(statusStyle.Render(strings.Join(names, ", ") + " typing..."))
		}
	}
	return h
}

func printComment(c models.Comment, selfID string) {
	style := authorStyle
	if c.Author.ID == selfID {
		style = selfStyle
	}
	body := c.Content
	if c.Failed {
		body = failedStyle.Render(body + " (failed)")
	}
	fmt.Printf("%s %s %s\n", timeStyle.Render(c.CreatedAt), style.Render(c.Author.DisplayName()+":"), body)
}

// reversed returns the list oldest first for top-to-bottom terminal output;
// the thread itself stays newest first for inverted rendering
func reversed(comments []models.Comment) []models.Comment {
	out := make([]models.Comment, len(comments))
	for i, c := range comments {
		out[len(comments)-1-i] = c
	}
	return out
}
