package models

import "time"

// PendingMailItem is an inbound mail attachment staged for a human
// decision. Rows are never deleted; approved and rejected items remain
// as an audit trail and only the status field changes after creation.
type PendingMailItem struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"-"`
	Filename     string    `json:"filename"`
	Sender       string    `json:"sender"`
	ReceivedAt   time.Time `json:"receivedAt"`
	AIType       *string   `json:"aiType"`
	AIConfidence *float64  `json:"aiConfidence"`
	TempPath     string    `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// IsPending reports whether the item is still eligible for approval or
// rejection.
func (m *PendingMailItem) IsPending() bool {
	return m.Status == MailStatusPending
}
