package models

// User holds the structure for a user as returned by the API
type User struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Email     string `json:"email,omitempty"`
}

// DisplayName returns the name to render for a user. Comments can arrive
// with an absent author, in which case a placeholder is shown instead.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "" && u.LastName == "":
		return "Unknown player"
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// UserRef is the minimal user descriptor sent over the realtime channel
type UserRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Ref returns the minimal descriptor for a user
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, DisplayName: u.DisplayName()}
}

// Friend holds a friend edge with its request status
type Friend struct {
	User   User   `json:"user"`
	Status string `json:"status"` // accepted, pending
}
