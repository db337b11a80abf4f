// Package devserver implements the REST and realtime surface the client
// consumes, backed by an in-memory store. It exists for local development
// and integration tests, not production use.
package devserver

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/matchpoint-app/matchpoint-go/models"
)

// App stores the router, hub and store, so it can be reused
type App struct {
	Router *mux.Router
	Store  *Store
	Hub    *Hub

	middleware *Middleware
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Store == nil {
		a.Store = NewStore()
	}
	if a.Hub == nil {
		a.Hub = NewHub()
	}

	m := &Middleware{Store: a.Store, Secret: tokenSecret()}
	m.Setup()
	a.middleware = m

	r := mux.NewRouter()

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/logout", m.Authenticated(http.HandlerFunc(m.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/sessions", m.Authenticated(http.HandlerFunc(a.sessionsHandler))).Methods("GET")
	apiCreate.Handle("/session", m.Authenticated(http.HandlerFunc(a.createSessionHandler))).Methods("POST")
	apiCreate.Handle("/session/{session_id}", m.Authenticated(http.HandlerFunc(a.sessionHandler))).Methods("GET")
	apiCreate.Handle("/session/{session_id}/respond", m.Authenticated(http.HandlerFunc(a.respondHandler))).Methods("PUT")
	apiCreate.Handle("/session/{session_id}/comments", m.Authenticated(http.HandlerFunc(a.commentsHandler))).Methods("GET")
	apiCreate.Handle("/session/{session_id}/comments", m.Authenticated(http.HandlerFunc(a.createCommentHandler))).Methods("POST")
	apiCreate.Handle("/session/{session_id}/comments/{comment_id}", m.Authenticated(http.HandlerFunc(a.updateCommentHandler))).Methods("PUT")
	apiCreate.Handle("/session/{session_id}/comments/{comment_id}", m.Authenticated(http.HandlerFunc(a.deleteCommentHandler))).Methods("DELETE")

	apiCreate.Handle("/users/friends", m.Authenticated(http.HandlerFunc(a.friendsHandler))).Methods("GET")
	apiCreate.Handle("/users/friend-requests/count", m.Authenticated(http.HandlerFunc(a.friendRequestCountHandler))).Methods("GET")
	apiCreate.Handle("/user/{user_id}/add-friend", m.Authenticated(http.HandlerFunc(a.addFriendHandler))).Methods("POST")

	apiCreate.Handle("/users/notifications", m.Authenticated(http.HandlerFunc(a.notificationsHandler))).Methods("GET")
	apiCreate.Handle("/users/notifications/unread-count", m.Authenticated(http.HandlerFunc(a.unreadCountHandler))).Methods("GET")
	apiCreate.Handle("/users/notifications/{notification_id}/read", m.Authenticated(http.HandlerFunc(a.markReadHandler))).Methods("PUT")

	r.HandleFunc("/ws", a.Hub.ServeWS)

	return r
}

// Initialize is invoked by main to seed the store and create a router
func (a *App) Initialize() error {
	if a.Store == nil {
		a.Store = NewStore()
	}
	if err := Seed(a.Store); err != nil {
		return err
	}
	a.Router = a.New()
	return nil
}

func tokenSecret() []byte {
	if s := os.Getenv("MATCHPOINT_TOKEN_SECRET"); s != "" {
		return []byte(s)
	}
	secret := make([]byte, 32)
	_, _ = rand.Read(secret)
	return secret
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
