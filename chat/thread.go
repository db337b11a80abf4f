// Package chat owns the authoritative in-memory comment list for one
// session thread, merged from the initial fetch, optimistic local sends and
// realtime push events.
package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matchpoint-app/matchpoint-go/api"
	"github.com/matchpoint-app/matchpoint-go/models"
	"github.com/matchpoint-app/matchpoint-go/realtime"
)

// CommentAPI is the slice of the REST client the thread needs
type CommentAPI interface {
	Comments(ctx context.Context, sessionID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, sessionID string, req api.CreateCommentRequest) (*models.Comment, error)
}

// Thread presents a single deduplicated, newest-first comment list for one
// session. The list is owned exclusively by the view showing it and is
// discarded when that view goes away.
type Thread struct {
	sessionID string
	self      models.User
	api       CommentAPI

	mu         sync.Mutex
	comments   []models.Comment
	connected  bool
	loading    bool
	submitting bool
	online     int
	typing     map[string]string // userId -> display name

	// onChange fires after every list or status mutation, outside the lock
	onChange func()
}

// New creates a thread for one session
func New(sessionID string, self models.User, commentAPI CommentAPI) *Thread {
	return &Thread{
		sessionID: sessionID,
		self:      self,
		api:       commentAPI,
		typing:    make(map[string]string),
	}
}

// SetOnChange registers a callback fired after every state change
func (t *Thread) SetOnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Handlers returns the realtime callback set wired into this thread. Pass
// it to the realtime client config for the same session.
func (t *Thread) Handlers() realtime.Handlers {
	return realtime.Handlers{
		OnCommentCreated: t.ApplyCreated,
		OnCommentUpdated: t.ApplyUpdated,
		OnCommentDeleted: t.ApplyDeleted,
		OnTyping:         t.applyTyping,
		OnStoppedTyping:  t.applyStoppedTyping,
		OnOnlineUsers:    t.applyOnlineUsers,
		OnConnect:        func() { t.setConnected(true) },
		OnDisconnect:     func() { t.setConnected(false) },
	}
}

// Load issues the initial fetch and replaces the list with the result,
// sorted newest first for the inverted chat rendering.
func (t *Thread) Load(ctx context.Context) error {
	t.mu.Lock()
	t.loading = true
	t.mu.Unlock()
	t.notify()

	fetched, err := t.api.Comments(ctx, t.sessionID)

	t.mu.Lock()
	t.loading = false
	if err != nil {
		t.mu.Unlock()
		t.notify()
		return err
	}
	sortNewestFirst(fetched)
	t.comments = fetched
	t.mu.Unlock()
	t.notify()
	return nil
}

// Reload re-issues the initial fetch. Used when the chat view closes, to
// resynchronize after any realtime gaps.
func (t *Thread) Reload(ctx context.Context) error {
	return t.Load(ctx)
}

// Send optimistically prepends a local copy of content, then issues the
// create call. The confirming REST response and any echoed realtime event
// are both reconciled against the optimistic entry, never appended twice.
// A failed send keeps the local entry visible, marked Failed, and returns
// the error for the view to surface.
func (t *Thread) Send(ctx context.Context, content string) error {
	local := models.Comment{
		ID:        models.PlaceholderCommentID,
		Content:   content,
		Author:    t.self,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		ClientTag: uuid.New().String(),
	}

	t.mu.Lock()
	t.comments = append([]models.Comment{local}, t.comments...)
	t.submitting = true
	t.mu.Unlock()
	t.notify()

	confirmed, err := t.api.CreateComment(ctx, t.sessionID, api.CreateCommentRequest{Content: content})

	t.mu.Lock()
	t.submitting = false
	if err != nil {
		t.markFailedLocked(local.ClientTag)
		t.mu.Unlock()
		t.notify()
		return err
	}
	t.reconcileLocked(local.ClientTag, *confirmed)
	t.mu.Unlock()
	t.notify()
	return nil
}

// ApplyCreated merges a pushed comment.created event, deduplicating against
// every existing entry including optimistic ones
func (t *Thread) ApplyCreated(comment models.Comment) {
	t.mu.Lock()
	for i, existing := range t.comments {
		if existing.Same(comment) {
			// keep the optimistic entry's tag so a late REST confirmation
			// still finds it
			comment.ClientTag = existing.ClientTag
			t.comments[i] = comment
			t.dropTwinsLocked(i)
			t.mu.Unlock()
			t.notify()
			return
		}
	}
	t.comments = append([]models.Comment{comment}, t.comments...)
	t.mu.Unlock()
	t.notify()
}

// ApplyUpdated replaces content and update timestamp of the comment with the
// event's id, in place. Unknown ids are a silent no-op.
func (t *Thread) ApplyUpdated(comment models.Comment) {
	t.mu.Lock()
	for i := range t.comments {
		if t.comments[i].ID == comment.ID {
			t.comments[i].Content = comment.Content
			t.comments[i].UpdatedAt = comment.UpdatedAt
			t.mu.Unlock()
			t.notify()
			return
		}
	}
	t.mu.Unlock()
}

// ApplyDeleted removes the comment with the event's id. Unknown ids are a
// silent no-op.
func (t *Thread) ApplyDeleted(commentID string) {
	t.mu.Lock()
	for i := range t.comments {
		if t.comments[i].ID == commentID {
			t.comments = append(t.comments[:i], t.comments[i+1:]...)
			t.mu.Unlock()
			t.notify()
			return
		}
	}
	t.mu.Unlock()
}

// Comments returns a snapshot of the list, newest first
func (t *Thread) Comments() []models.Comment {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.Comment, len(t.comments))
	copy(out, t.comments)
	return out
}

// Connected reports whether the realtime channel is up
func (t *Thread) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Loading reports whether the initial fetch is in flight
func (t *Thread) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// Submitting reports whether a send is in flight
func (t *Thread) Submitting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.submitting
}

// OnlineCount returns the size of the last presence snapshot
func (t *Thread) OnlineCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.online
}

// TypingNames returns the display names of other users currently typing,
// self excluded, in stable order
func (t *Thread) TypingNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.typing))
	for id, name := range t.typing {
		if id == t.self.ID {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reconcileLocked folds the authoritative copy of a sent comment back into
// the list: one entry per send, regardless of whether the realtime echo of
// that send landed before or after this confirmation. The echo carries the
// server timestamp, so it never matches the optimistic entry on its own and
// can be sitting in the list as a second copy.
func (t *Thread) reconcileLocked(clientTag string, confirmed models.Comment) {
	target := -1
	for i := range t.comments {
		if t.comments[i].ClientTag == clientTag {
			target = i
			break
		}
	}
	if target == -1 {
		// a realtime echo already replaced the optimistic entry
		for i := range t.comments {
			if t.comments[i].Same(confirmed) {
				target = i
				break
			}
		}
	}
	if target == -1 {
		// optimistic entry was deleted out from under us; treat the
		// confirmation as a fresh arrival
		t.comments = append([]models.Comment{confirmed}, t.comments...)
		return
	}
	confirmed.ClientTag = clientTag
	t.comments[target] = confirmed
	t.dropTwinsLocked(target)
}

// dropTwinsLocked removes every entry that duplicates the one at keep:
// same message per the dedup rule, or the same optimistic tag
func (t *Thread) dropTwinsLocked(keep int) {
	kept := t.comments[keep]
	for i := len(t.comments) - 1; i >= 0; i-- {
		if i == keep {
			continue
		}
		sameTag := kept.ClientTag != "" && t.comments[i].ClientTag == kept.ClientTag
		if sameTag || t.comments[i].Same(kept) {
			t.comments = append(t.comments[:i], t.comments[i+1:]...)
			if i < keep {
				keep--
			}
		}
	}
}

func (t *Thread) markFailedLocked(clientTag string) {
	for i := range t.comments {
		if t.comments[i].ClientTag == clientTag {
			t.comments[i].Failed = true
			zap.S().Debugw("comment send failed, keeping local entry", "sessionId", t.sessionID)
			return
		}
	}
}

func (t *Thread) applyTyping(p realtime.TypingPayload) {
	t.mu.Lock()
	t.typing[p.UserID] = p.DisplayName
	t.mu.Unlock()
	t.notify()
}

func (t *Thread) applyStoppedTyping(p realtime.TypingPayload) {
	t.mu.Lock()
	delete(t.typing, p.UserID)
	t.mu.Unlock()
	t.notify()
}

func (t *Thread) applyOnlineUsers(users []models.UserRef) {
	t.mu.Lock()
	t.online = len(users)
	t.mu.Unlock()
	t.notify()
}

func (t *Thread) setConnected(up bool) {
	t.mu.Lock()
	t.connected = up
	t.mu.Unlock()
	t.notify()
}

func (t *Thread) notify() {
	t.mu.Lock()
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func sortNewestFirst(comments []models.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].CreatedAt > comments[j].CreatedAt
	})
}
