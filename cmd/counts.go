package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/matchpoint-app/matchpoint-go/config"
	"github.com/matchpoint-app/matchpoint-go/poll"
)

// CountsCommand creates the counts command
func CountsCommand(conf *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "counts",
		Usage: "Watch unread notification and friend request counts",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "once", Usage: "Print the counts once and exit"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return watchCounts(ctx, conf, c.Bool("once"))
		},
	}
}

func watchCounts(ctx context.Context, conf *config.Config, once bool) error {
	svc, err := newServices(conf)
	if err != nil {
		return err
	}
	if err := svc.requireAuth(); err != nil {
		return err
	}

	notifications := poll.Notifications(svc.api.UnreadNotificationCount)
	friendRequests := poll.FriendRequests(svc.api.PendingFriendRequestCount)

	if once {
		if err := notifications.Refetch(ctx); err != nil {
			return err
		}
		if err := friendRequests.Refetch(ctx); err != nil {
			return err
		}
		fmt.Printf("unread notifications: %d, pending friend requests: %d\n",
			notifications.Count(), friendRequests.Count())
		return nil
	}

	if err := notifications.Start(); err != nil {
		return err
	}
	defer notifications.Stop()
	if err := friendRequests.Start(); err != nil {
		return err
	}
	defer friendRequests.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Printf("unread notifications: %d, pending friend requests: %d\n",
				notifications.Count(), friendRequests.Count())
		}
	}
}
