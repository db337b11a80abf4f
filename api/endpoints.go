package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/matchpoint-app/matchpoint-go/models"
)

// SignInResponse holds the payload returned by the token endpoint
type SignInResponse struct {
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken,omitempty"`
	User         models.User `json:"user"`
}

// SignIn exchanges email/password for a bearer token via basic auth
func (c *Client) SignIn(ctx context.Context, email, password string) (*SignInResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/v1/auth/token", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(email, password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var out SignInResponse
	if err := decodeResponse(resp, &out); err != nil {
		return nil, err
	}
	c.ResetAuthEpoch()
	return &out, nil
}

// Sessions returns the sessions visible to the signed-in user
func (c *Client) Sessions(ctx context.Context) ([]models.Session, error) {
	var out []models.Session
	err := c.do(ctx, "GET", "/api/v1/sessions", nil, &out)
	return out, err
}

// Session returns one session by id
func (c *Client) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	var out models.Session
	err := c.do(ctx, "GET", "/api/v1/session/"+url.PathEscape(sessionID), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSessionRequest holds the fields for creating a session
type CreateSessionRequest struct {
	Title     string   `json:"title"`
	Sport     string   `json:"sport"`
	Location  string   `json:"location,omitempty"`
	StartsAt  string   `json:"startsAt"`
	InviteIDs []string `json:"inviteIds,omitempty"`
}

// CreateSession creates a new session owned by the signed-in user
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	var out models.Session
	err := c.do(ctx, "POST", "/api/v1/session", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RespondToInvitation sets the signed-in user's participant status on a session
func (c *Client) RespondToInvitation(ctx context.Context, sessionID, status string) error {
	body := map[string]string{"status": status}
	return c.do(ctx, "PUT", "/api/v1/session/"+url.PathEscape(sessionID)+"/respond", body, nil)
}

// Comments returns the full comment thread for a session
func (c *Client) Comments(ctx context.Context, sessionID string) ([]models.Comment, error) {
	var out []models.Comment
	err := c.do(ctx, "GET", "/api/v1/session/"+url.PathEscape(sessionID)+"/comments", nil, &out)
	return out, err
}

// CreateCommentRequest holds the fields for posting a comment
type CreateCommentRequest struct {
	Content  string           `json:"content"`
	Mentions []models.Mention `json:"mentions,omitempty"`
}

// CreateComment posts a comment to a session thread and returns the
// authoritative copy
func (c *Client) CreateComment(ctx context.Context, sessionID string, req CreateCommentRequest) (*models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, "POST", "/api/v1/session/"+url.PathEscape(sessionID)+"/comments", req, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Friends returns the signed-in user's friends with request status
func (c *Client) Friends(ctx context.Context) ([]models.Friend, error) {
	var out []models.Friend
	err := c.do(ctx, "GET", "/api/v1/users/friends", nil, &out)
	return out, err
}

// SendFriendRequest sends a friend request to the given user
func (c *Client) SendFriendRequest(ctx context.Context, userID string) error {
	return c.do(ctx, "POST", "/api/v1/user/"+url.PathEscape(userID)+"/add-friend", nil, nil)
}

// PendingFriendRequestCount returns the number of friend requests waiting on
// the signed-in user
func (c *Client) PendingFriendRequestCount(ctx context.Context) (int, error) {
	var out models.CountResponse
	err := c.do(ctx, "GET", "/api/v1/users/friend-requests/count", nil, &out)
	return out.Count, err
}

// Notifications returns the signed-in user's notifications
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var out []models.Notification
	err := c.do(ctx, "GET", "/api/v1/users/notifications", nil, &out)
	return out, err
}

// UnreadNotificationCount returns the number of unread notifications
func (c *Client) UnreadNotificationCount(ctx context.Context) (int, error) {
	var out models.CountResponse
	err := c.do(ctx, "GET", "/api/v1/users/notifications/unread-count", nil, &out)
	return out.Count, err
}

// MarkNotificationRead marks one notification as read
func (c *Client) MarkNotificationRead(ctx context.Context, notificationID string) error {
	return c.do(ctx, "PUT", "/api/v1/users/notifications/"+url.PathEscape(notificationID)+"/read", nil, nil)
}
