package escalation

import "time"

// Ticket statuses
const (
	StatusPending    = "PENDING"
	StatusAfterHours = "AFTER_HOURS"
	StatusNotified   = "NOTIFIED"
)

// Reasons a ticket is opened.
const (
	ReasonMenu = "menu_option"
	ReasonChat = "chat_request"
)

// Ticket is the item stored in the escalation tickets table.
type Ticket struct {
	TicketID      string    `dynamodbav:"ticket_id"` // PK
	SessionID     string    `dynamodbav:"session_id"`
	Reason        string    `dynamodbav:"reason"`
	UserMessage   string    `dynamodbav:"user_message,omitempty"`
	Status        string    `dynamodbav:"status"` // PENDING | AFTER_HOURS | NOTIFIED
	BusinessHours bool      `dynamodbav:"business_hours"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at"`
}

// Notification is the payload sent from the API to the notifier worker.
type Notification struct {
	TicketID  string `json:"ticket_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}
