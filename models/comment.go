package models

// PlaceholderCommentID is the comment id the backend emits from one of its
// code paths instead of a unique identifier. Comments carrying it cannot be
// told apart by id alone; see Comment.Same.
const PlaceholderCommentID = "0"

// Comment holds the structure for one chat message in a session thread
type Comment struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt,omitempty"`
	Mentions  []Mention `json:"mentions,omitempty"`

	// ClientTag identifies an optimistic local entry so the client can find
	// it again after the server confirms. Never sent over the wire.
	ClientTag string `json:"-"`
	// Failed marks an optimistic entry whose confirming create call errored.
	Failed bool `json:"-"`
}

// Mention holds a user referenced inside a comment body
type Mention struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Same reports whether two comments are the same message. Ids are trusted
// when both are real; when either side carries the placeholder id the
// fallback is an exact content, creation timestamp and author match.
func (c Comment) Same(other Comment) bool {
	if c.ID != "" && c.ID != PlaceholderCommentID &&
		other.ID != "" && other.ID != PlaceholderCommentID {
		return c.ID == other.ID
	}
	return c.Content == other.Content &&
		c.CreatedAt == other.CreatedAt &&
		c.Author.ID == other.Author.ID
}
