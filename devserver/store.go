package devserver

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/matchpoint-app/matchpoint-go/models"
)

// account pairs a user with their bcrypt password hash
type account struct {
	user         models.User
	passwordHash []byte
}

// Store is the in-memory backing state for the dev server. It exists so the
// client runs without infrastructure; nothing survives a restart.
type Store struct {
	mu             sync.Mutex
	accounts       map[string]*account // email -> account
	sessions       map[string]*models.Session
	comments       map[string][]models.Comment // sessionID -> thread
	notifications  map[string][]models.Notification
	friends        map[string][]models.Friend // userID -> edges
	friendRequests map[string]int             // userID -> pending count
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		accounts:       make(map[string]*account),
		sessions:       make(map[string]*models.Session),
		comments:       make(map[string][]models.Comment),
		notifications:  make(map[string][]models.Notification),
		friends:        make(map[string][]models.Friend),
		friendRequests: make(map[string]int),
	}
}

// AddUser registers an account with a plaintext password
func (s *Store) AddUser(user models.User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	s.mu.Lock()
	s.accounts[user.Email] = &account{user: user, passwordHash: hash}
	s.mu.Unlock()
	return nil
}

// Authenticate checks email/password and returns the user on success
func (s *Store) Authenticate(email, password string) (*models.User, error) {
	s.mu.Lock()
	acct, ok := s.accounts[email]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no matching email found")
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return nil, fmt.Errorf("failed to compare password")
	}
	u := acct.user
	return &u, nil
}

// UserByID returns a registered user
func (s *Store) UserByID(id string) (*models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acct := range s.accounts {
		if acct.user.ID == id {
			u := acct.user
			return &u, true
		}
	}
	return nil, false
}

// Sessions returns all sessions
func (s *Store) Sessions() []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	return out
}

// Session returns one session by id
func (s *Store) Session(id string) (*models.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	copied := *sess
	return &copied, true
}

// AddSession stores a session, assigning an id when absent
func (s *Store) AddSession(sess models.Session) models.Session {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.CreatedAt == "" {
		sess.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.mu.Lock()
	s.sessions[sess.ID] = &sess
	s.mu.Unlock()
	return sess
}

// SetParticipantStatus updates one user's invitation status on a session
func (s *Store) SetParticipantStatus(sessionID, userID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found")
	}
	for i := range sess.Participants {
		if sess.Participants[i].User.ID == userID {
			sess.Participants[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("user is not invited to this session")
}

// Comments returns the thread for a session
func (s *Store) Comments(sessionID string) []models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread := s.comments[sessionID]
	out := make([]models.Comment, len(thread))
	copy(out, thread)
	return out
}

// AddComment appends a comment to a session thread, assigning id and
// timestamp when absent
func (s *Store) AddComment(sessionID string, comment models.Comment) models.Comment {
	if comment.ID == "" || comment.ID == models.PlaceholderCommentID {
		comment.ID = uuid.New().String()
	}
	if comment.CreatedAt == "" {
		comment.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.mu.Lock()
	s.comments[sessionID] = append(s.comments[sessionID], comment)
	s.mu.Unlock()
	return comment
}

// UpdateComment replaces content on an existing comment
func (s *Store) UpdateComment(sessionID, commentID, content string) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread := s.comments[sessionID]
	for i := range thread {
		if thread[i].ID == commentID {
			thread[i].Content = content
			thread[i].UpdatedAt = time.Now().UTC().Format(time.RFC3339)
			c := thread[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("comment not found")
}

// DeleteComment removes a comment from a session thread
func (s *Store) DeleteComment(sessionID, commentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	thread := s.comments[sessionID]
	for i := range thread {
		if thread[i].ID == commentID {
			s.comments[sessionID] = append(thread[:i], thread[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("comment not found")
}

// Friends returns a user's friend edges
func (s *Store) Friends(userID string) []models.Friend {
	s.mu.Lock()
	defer s.mu.Unlock()
	edges := s.friends[userID]
	out := make([]models.Friend, len(edges))
	copy(out, edges)
	return out
}

// SetFriends replaces a user's friend edges
func (s *Store) SetFriends(userID string, edges []models.Friend) {
	s.mu.Lock()
	s.friends[userID] = edges
	s.mu.Unlock()
}

// AddFriendRequest records a pending friend request toward userID
func (s *Store) AddFriendRequest(fromUserID, toUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	from, ok := s.userByIDLocked(fromUserID)
	if !ok {
		return fmt.Errorf("user not found")
	}
	s.friends[toUserID] = append(s.friends[toUserID], models.Friend{User: *from, Status: "pending"})
	s.friendRequests[toUserID]++
	return nil
}

// PendingFriendRequestCount returns the count of requests waiting on a user
func (s *Store) PendingFriendRequestCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.friendRequests[userID]
}

// Notifications returns a user's notifications
func (s *Store) Notifications(userID string) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[userID]
	out := make([]models.Notification, len(list))
	copy(out, list)
	return out
}

// AddNotification appends a notification for a user
func (s *Store) AddNotification(userID string, n models.Notification) models.Notification {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == "" {
		n.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	s.mu.Lock()
	s.notifications[userID] = append(s.notifications[userID], n)
	s.mu.Unlock()
	return n
}

// UnreadNotificationCount returns how many notifications are unread
func (s *Store) UnreadNotificationCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications[userID] {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkNotificationRead flips the read flag on one notification
func (s *Store) MarkNotificationRead(userID, notificationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[userID]
	for i := range list {
		if list[i].ID == notificationID {
			list[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("notification not found")
}

func (s *Store) userByIDLocked(id string) (*models.User, bool) {
	for _, acct := range s.accounts {
		if acct.user.ID == id {
			u := acct.user
			return &u, true
		}
	}
	return nil, false
}
