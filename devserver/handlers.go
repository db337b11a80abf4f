package devserver

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/matchpoint-app/matchpoint-go/models"
	"github.com/matchpoint-app/matchpoint-go/realtime"
)

func (a *App) sessionsHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, a.Store.Sessions())
}

func (a *App) sessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	sess, ok := a.Store.Session(sessionID)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeData(w, sess)
}

func (a *App) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title     string   `json:"title"`
		Sport     string   `json:"sport"`
		Location  string   `json:"location"`
		StartsAt  string   `json:"startsAt"`
		InviteIDs []string `json:"inviteIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if req.Title == "" || req.Sport == "" {
		writeError(w, http.StatusBadRequest, "title and sport are required")
		return
	}

	organizer, ok := a.Store.UserByID(userID(r))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown organizer")
		return
	}

	// the id is assigned up front so invite notifications can point at it
	sess := models.Session{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Sport:     req.Sport,
		Location:  req.Location,
		StartsAt:  req.StartsAt,
		Organizer: *organizer,
	}
	for _, id := range req.InviteIDs {
		invited, ok := a.Store.UserByID(id)
		if !ok {
			continue
		}
		sess.Participants = append(sess.Participants, models.Participant{
			User:   *invited,
			Status: models.ParticipantPending,
		})
		a.Store.AddNotification(id, models.Notification{
			Type:      "session.invite",
			Body:      organizer.DisplayName() + " invited you to " + req.Title,
			SessionID: sess.ID,
		})
	}

	created := a.Store.AddSession(sess)
	writeData(w, created)
}

func (a *App) respondHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	switch req.Status {
	case models.ParticipantAccepted, models.ParticipantDeclined, models.ParticipantPending:
	default:
		writeError(w, http.StatusBadRequest, "invalid participant status")
		return
	}
	if err := a.Store.SetParticipantStatus(sessionID, userID(r), req.Status); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, map[string]string{"status": req.Status})
}

func (a *App) commentsHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	if _, ok := a.Store.Session(sessionID); !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeData(w, a.Store.Comments(sessionID))
}

func (a *App) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	if _, ok := a.Store.Session(sessionID); !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req struct {
		Content  string           `json:"content"`
		Mentions []models.Mention `json:"mentions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	author, ok := a.Store.UserByID(userID(r))
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown author")
		return
	}

	created := a.Store.AddComment(sessionID, models.Comment{
		Content:  req.Content,
		Author:   *author,
		Mentions: req.Mentions,
	})
	a.Hub.BroadcastToRoom(sessionID, realtime.EventCommentCreated, created)
	writeData(w, created)
}

func (a *App) updateCommentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["session_id"]
	commentID := vars["comment_id"]

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse request body")
		return
	}

	updated, err := a.Store.UpdateComment(sessionID, commentID, req.Content)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	a.Hub.BroadcastToRoom(sessionID, realtime.EventCommentUpdated, updated)
	writeData(w, updated)
}

func (a *App) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["session_id"]
	commentID := vars["comment_id"]

	if err := a.Store.DeleteComment(sessionID, commentID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	a.Hub.BroadcastToRoom(sessionID, realtime.EventCommentDeleted, realtime.DeletePayload{CommentID: commentID})
	writeData(w, map[string]string{"deleted": commentID})
}

func (a *App) friendsHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, a.Store.Friends(userID(r)))
}

func (a *App) addFriendHandler(w http.ResponseWriter, r *http.Request) {
	targetID := mux.Vars(r)["user_id"]
	if err := a.Store.AddFriendRequest(userID(r), targetID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, map[string]string{"message": "friend request sent"})
}

func (a *App) friendRequestCountHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, models.CountResponse{Count: a.Store.PendingFriendRequestCount(userID(r))})
}

func (a *App) notificationsHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, a.Store.Notifications(userID(r)))
}

func (a *App) unreadCountHandler(w http.ResponseWriter, r *http.Request) {
	writeData(w, models.CountResponse{Count: a.Store.UnreadNotificationCount(userID(r))})
}

func (a *App) markReadHandler(w http.ResponseWriter, r *http.Request) {
	notificationID := mux.Vars(r)["notification_id"]
	if err := a.Store.MarkNotificationRead(userID(r), notificationID); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeData(w, map[string]string{"message": "notification marked as read"})
}
