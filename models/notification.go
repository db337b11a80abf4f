package models

// Notification holds the structure for one notification entry
type Notification struct {
	ID        string `json:"_id"`
	Type      string `json:"type"`
	Body      string `json:"body"`
	SessionID string `json:"sessionId,omitempty"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"createdAt"`
}

// CountResponse holds the structure for the scalar count endpoints
type CountResponse struct {
	Count int `json:"count"`
}
