package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/matchpoint-app/matchpoint-go/models"
)

type contextKey string

const userIDKey contextKey = "userID"

const tokenTTL = 24 * time.Hour

// Middleware holds the guardian wiring around the dev server routes
type Middleware struct {
	Store  *Store
	Secret []byte

	authenticator auth.Authenticator
	cache         store.Cache
}

// Setup sets up the go-guardian middleware
func (m *Middleware) Setup() {
	m.authenticator = auth.New()
	m.cache = store.NewFIFO(context.Background(), tokenTTL)
	basicStrategy := basic.New(m.validateUser, m.cache)
	tokenStrategy := bearer.New(bearer.NoOpAuthenticate, m.cache)

	m.authenticator.EnableStrategy(basic.StrategyKey, basicStrategy)
	m.authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

// Authenticated adds bearer authentication around a route and stashes the
// authenticated user id in the request context
func (m *Middleware) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := m.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"success": false, "message": "unauthorized"}`))
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, user.ID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CreateToken exchanges basic auth credentials for a bearer token
func (m *Middleware) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	email, password, ok := r.BasicAuth()
	if !ok {
		writeError(w, http.StatusUnauthorized, "basic auth failed")
		return
	}

	user, err := m.Store.Authenticate(email, password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := m.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	authUser := auth.NewDefaultUser(email, user.ID, nil, nil)
	tokenStrategy := m.authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Append(tokenStrategy, token, authUser, r)

	writeData(w, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// RevokeToken revokes a bearer token
func (m *Middleware) RevokeToken(w http.ResponseWriter, r *http.Request) {
	reqToken := r.Header.Get("Authorization")
	splitToken := strings.Split(reqToken, "Bearer ")
	if len(splitToken) < 2 {
		writeError(w, http.StatusBadRequest, "missing bearer token")
		return
	}
	reqToken = splitToken[1]

	tokenStrategy := m.authenticator.Strategy(bearer.CachedStrategyKey)
	auth.Revoke(tokenStrategy, reqToken, r)
	writeData(w, map[string]string{"revoked": reqToken})
}

// TokenUserID resolves a raw bearer token back to a user id, for the
// websocket endpoint which cannot use the http middleware response path
func (m *Middleware) TokenUserID(r *http.Request) (string, error) {
	user, err := m.authenticator.Authenticate(r)
	if err != nil {
		return "", err
	}
	return user.ID(), nil
}

// issueToken signs an HS256 access token so clients can inspect expiry
func (m *Middleware) issueToken(user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": time.Now().Add(tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

func (m *Middleware) validateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	user, err := m.Store.Authenticate(email, password)
	if err != nil {
		return nil, err
	}
	return auth.NewDefaultUser(email, user.ID, nil, nil), nil
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

func writeData(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to marshal response")
		return
	}
	body, _ := json.Marshal(models.Envelope{Success: true, Data: data})
	w.Write(body)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	body, _ := json.Marshal(models.Envelope{Success: false, Message: message})
	w.Write(body)
}
