package entity

import "time"

// Recipient type constants
const (
	RecipientUser = "USER"
	RecipientRole = "ROLE"
)

// Notification is a row consumed by the inbox view. Delivery and formatting
// live outside this system; rows are mutated only to mark read or archived.
type Notification struct {
	ID            string     `json:"id"`
	RecipientType string     `json:"recipient_type"`
	RecipientID   string     `json:"recipient_id"`
	Subject       string     `json:"subject"`
	Body          string     `json:"body,omitempty"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// IsUnread reports whether the notification counts toward the inbox badge
func (n *Notification) IsUnread() bool {
	return n.ReadAt == nil && n.ArchivedAt == nil
}
