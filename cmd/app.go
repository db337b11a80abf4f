// Package cmd holds the CLI commands. Each constructor wires the shared
// services (auth manager, API client) the way the application boot does:
// built once, passed down explicitly.
package cmd

import (
	"fmt"

	"github.com/matchpoint-app/matchpoint-go/api"
	"github.com/matchpoint-app/matchpoint-go/auth"
	"github.com/matchpoint-app/matchpoint-go/config"
)

// services is the explicit application context: every command builds one
// instead of reaching for globals
type services struct {
	conf *config.Config
	auth *auth.Manager
	api  *api.Client
}

func newServices(conf *config.Config) (*services, error) {
	store := auth.NewStore(conf.CredentialsPath)
	manager, err := auth.NewManager(store)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	client := api.New(conf.APIBaseURL, manager, api.WithAuthFailureHook(manager.ForceSignOut))
	return &services{conf: conf, auth: manager, api: client}, nil
}

func (s *services) requireAuth() error {
	if !s.auth.Authenticated() {
		return fmt.Errorf("not signed in, run: matchpoint login")
	}
	if s.auth.TokenStale() {
		return fmt.Errorf("session expired, run: matchpoint login")
	}
	return nil
}
