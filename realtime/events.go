package realtime

import (
	"encoding/json"

	"github.com/matchpoint-app/matchpoint-go/models"
)

// Event names carried in broadcast envelopes. Unrecognized names are
// ignored by the client.
const (
	EventSessionJoin    = "session.join"
	EventCommentCreated = "comment.created"
	EventCommentUpdated = "comment.updated"
	EventCommentDeleted = "comment.deleted"
	EventTyping         = "user.typing"
	EventStoppedTyping  = "user.stopped-typing"
	EventOnlineUsers    = "online-users"
)

// Envelope is the broadcast wrapper every realtime message travels in
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// JoinPayload is the outbound room-join message, one per connection
type JoinPayload struct {
	SessionID string         `json:"sessionId"`
	User      models.UserRef `json:"user"`
}

// DeletePayload carries the id of a deleted comment
type DeletePayload struct {
	CommentID string `json:"commentId"`
}

// TypingPayload carries who is typing in the session thread
type TypingPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

// OnlineUsersPayload is the presence snapshot for a session room
type OnlineUsersPayload struct {
	Users []models.UserRef `json:"users"`
}
