package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/matchpoint-app/matchpoint-go/cmd"
	"github.com/matchpoint-app/matchpoint-go/config"
)

func main() {
	conf := config.New()

	app := &cli.Command{
		Name:  "matchpoint",
		Usage: "Organize sports sessions, chat with your crew",
		Commands: []*cli.Command{
			cmd.LoginCommand(conf),
			cmd.SessionsCommand(conf),
			cmd.ChatCommand(conf),
			cmd.CountsCommand(conf),
			cmd.ServeCommand(conf),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
