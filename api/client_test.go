package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchpoint-app/matchpoint-go/api"
	"github.com/matchpoint-app/matchpoint-go/models"
)

func envelope(data interface{}) string {
	raw, _ := json.Marshal(data)
	b, _ := json.Marshal(map[string]interface{}{"success": true, "data": json.RawMessage(raw)})
	return string(b)
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(envelope([]models.Session{})))
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.StaticToken("tok123"))
	_, err := client.Sessions(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestClient_NoAuthHeaderWhenTokenEmpty(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(envelope([]models.Session{})))
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.StaticToken(""))
	_, err := client.Sessions(context.Background())

	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}

func TestClient_DecodesEnvelopeData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/session/s1/comments", r.URL.Path)
		w.Write([]byte(envelope([]models.Comment{
			{ID: "c1", Content: "hi"},
			{ID: "c2", Content: "yo"},
		})))
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.StaticToken("tok"))
	comments, err := client.Comments(context.Background(), "s1")

	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "hi", comments[0].Content)
}

func TestClient_CreateCommentPostsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		var req api.CreateCommentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "let's play", req.Content)
		w.Write([]byte(envelope(models.Comment{ID: "c9", Content: req.Content})))
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.StaticToken("tok"))
	created, err := client.CreateComment(context.Background(), "s1", api.CreateCommentRequest{Content: "let's play"})

	require.NoError(t, err)
	assert.Equal(t, "c9", created.ID)
}

func TestClient_ErrorMessagePrecedence(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "nested error message wins",
			body: `{"success": false, "error": {"message": "session is full"}, "message": "outer"}`,
			want: "session is full",
		},
		{
			name: "top level message next",
			body: `{"success": false, "message": "nothing here"}`,
			want: "nothing here",
		},
		{
			name: "status text fallback",
			body: `not even json`,
			want: "Bad Request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := api.New(srv.URL, api.StaticToken("tok"))
			_, err := client.Sessions(context.Background())

			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			assert.Equal(t, tt.want, apiErr.Message)
		})
	}
}

func TestClient_AuthFailureHookFiresOncePerEpoch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success": false, "message": "token expired"}`))
	}))
	defer srv.Close()

	var fired int32
	client := api.New(srv.URL, api.StaticToken("stale"),
		api.WithAuthFailureHook(func() { atomic.AddInt32(&fired, 1) }))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Sessions(context.Background())
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.True(t, apiErr.IsAuthError())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&fired), "hook fires once no matter how many requests were in flight")

	// a fresh sign-in epoch re-arms the hook
	client.ResetAuthEpoch()
	_, _ = client.Sessions(context.Background())
	assert.Equal(t, int32(2), atomic.LoadInt32(&fired))
}

func TestClient_SignIn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/auth/token", r.URL.Path)
		email, password, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "alex@example.com", email)
		assert.Equal(t, "hunter2", password)
		w.Write([]byte(envelope(api.SignInResponse{
			Token: "fresh-token",
			User:  models.User{ID: "u1", FirstName: "Alex"},
		})))
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.StaticToken(""))
	resp, err := client.SignIn(context.Background(), "alex@example.com", "hunter2")

	require.NoError(t, err)
	assert.Equal(t, "fresh-token", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)
}

func TestClient_SignInFailureDoesNotForceSignOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success": false, "message": "wrong password"}`))
	}))
	defer srv.Close()

	var fired int32
	client := api.New(srv.URL, api.StaticToken(""),
		api.WithAuthFailureHook(func() { atomic.AddInt32(&fired, 1) }))

	_, err := client.SignIn(context.Background(), "alex@example.com", "nope")

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "wrong password", apiErr.Message)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired), "a failed sign-in is not a revoked session")
}

func TestClient_CountEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/users/notifications/unread-count":
			w.Write([]byte(envelope(models.CountResponse{Count: 4})))
		case "/api/v1/users/friend-requests/count":
			w.Write([]byte(envelope(models.CountResponse{Count: 2})))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := api.New(srv.URL, api.StaticToken("tok"))

	unread, err := client.UnreadNotificationCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, unread)

	pending, err := client.PendingFriendRequestCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pending)
}
