package models

// Participant statuses for a session invitation
const (
	ParticipantAccepted = "accepted"
	ParticipantDeclined = "declined"
	ParticipantPending  = "pending"
)

// Session holds the structure for a scheduled sports session
type Session struct {
	ID           string        `json:"_id"`
	Title        string        `json:"title"`
	Sport        string        `json:"sport"`
	Location     string        `json:"location,omitempty"`
	StartsAt     string        `json:"startsAt"`
	Organizer    User          `json:"organizer"`
	Participants []Participant `json:"participants,omitempty"`
	CreatedAt    string        `json:"createdAt,omitempty"`
	UpdatedAt    string        `json:"updatedAt,omitempty"`
}

// Participant holds one invited user and their accept/decline/pending status
type Participant struct {
	User   User   `json:"user"`
	Status string `json:"status"`
}
