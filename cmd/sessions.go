package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/matchpoint-app/matchpoint-go/config"
	"github.com/matchpoint-app/matchpoint-go/models"
)

// SessionsCommand creates the sessions command
func SessionsCommand(conf *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List sessions and respond to invitations",
		Commands: []*cli.Command{
			{
				Name:      "respond",
				Usage:     "Accept or decline an invitation",
				ArgsUsage: "<session-id> <accepted|declined>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("usage: matchpoint sessions respond <session-id> <accepted|declined>")
					}
					return respond(ctx, conf, c.Args().Get(0), c.Args().Get(1))
				},
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return listSessions(ctx, conf)
		},
	}
}

func listSessions(ctx context.Context, conf *config.Config) error {
	svc, err := newServices(conf)
	if err != nil {
		return err
	}
	if err := svc.requireAuth(); err != nil {
		return err
	}

	sessions, err := svc.api.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions yet")
		return nil
	}

	self := svc.auth.User()
	for _, sess := range sessions {
		fmt.Printf("%s  %s (%s) at %s, organized by %s%s\n",
			sess.ID, sess.Title, sess.Sport, sess.StartsAt,
			sess.Organizer.DisplayName(), invitationNote(sess, self))
	}
	return nil
}

func invitationNote(sess models.Session, self *models.User) string {
	if self == nil {
		return ""
	}
	for _, p := range sess.Participants {
		if p.User.ID == self.ID && p.Status == models.ParticipantPending {
			return "  [invitation pending]"
		}
	}
	return ""
}

func respond(ctx context.Context, conf *config.Config, sessionID, status string) error {
	svc, err := newServices(conf)
	if err != nil {
		return err
	}
	if err := svc.requireAuth(); err != nil {
		return err
	}

	if err := svc.api.RespondToInvitation(ctx, sessionID, status); err != nil {
		return err
	}
	fmt.Printf("Invitation %s\n", status)
	return nil
}
