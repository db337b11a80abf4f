package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/matchpoint-app/matchpoint-go/config"
)

// LoginCommand creates the login command
func LoginCommand(conf *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and store credentials",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Account email"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return login(ctx, conf, c.String("email"))
		},
	}
}

func login(ctx context.Context, conf *config.Config, email string) error {
	svc, err := newServices(conf)
	if err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return err
		}
		email = strings.TrimSpace(line)
	}

	fmt.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	resp, err := svc.api.SignIn(ctx, email, string(raw))
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	if err := svc.auth.SignIn(resp.Token, resp.RefreshToken, resp.User); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("Signed in as %s\n", resp.User.DisplayName())
	return nil
}
