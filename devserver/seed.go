package devserver

import (
	"time"

	"github.com/matchpoint-app/matchpoint-go/models"
)

// Seed loads demo fixtures: two accounts, one session with an open
// invitation, a short comment thread and an unread notification.
// Passwords are both "password".
func Seed(s *Store) error {
	alex := models.User{ID: "u-alex", FirstName: "Alex", LastName: "Moreau", Email: "alex@matchpoint.test"}
	sam := models.User{ID: "u-sam", FirstName: "Sam", LastName: "Okafor", Email: "sam@matchpoint.test"}

	if err := s.AddUser(alex, "password"); err != nil {
		return err
	}
	if err := s.AddUser(sam, "password"); err != nil {
		return err
	}

	sess := s.AddSession(models.Session{
		ID:        "s-sunday-football",
		Title:     "Sunday five-a-side",
		Sport:     "football",
		Location:  "Riverside pitch 2",
		StartsAt:  time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		Organizer: alex,
		Participants: []models.Participant{
			{User: sam, Status: models.ParticipantPending},
		},
	})

	s.AddComment(sess.ID, models.Comment{
		Content:   "Pitch is booked for 10am, bring both kits",
		Author:    alex,
		CreatedAt: time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	})

	s.AddNotification(sam.ID, models.Notification{
		Type:      "session.invite",
		Body:      alex.DisplayName() + " invited you to " + sess.Title,
		SessionID: sess.ID,
	})

	s.SetFriends(alex.ID, []models.Friend{{User: sam, Status: "accepted"}})
	s.SetFriends(sam.ID, []models.Friend{{User: alex, Status: "accepted"}})

	return nil
}
