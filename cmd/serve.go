package cmd

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/matchpoint-app/matchpoint-go/config"
	"github.com/matchpoint-app/matchpoint-go/devserver"
)

// ServeCommand creates the serve command for the local development server
func ServeCommand(conf *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local development API and realtime server",
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(conf)
		},
	}
}

func serve(conf *config.Config) error {
	a := devserver.App{}
	if err := a.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize dev server: %w", err)
	}

	zap.S().Infow("matchpoint dev server is up and running",
		"port", conf.Port,
	)
	return http.ListenAndServe(fmt.Sprintf(":%v", conf.Port), a.Router)
}
