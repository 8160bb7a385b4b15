package proof

import "time"

// ProofStatus mirrors the lifecycle states reported by the proofing platform.
type ProofStatus string

const (
	StatusNew           ProofStatus = "new"
	StatusInProofing    ProofStatus = "in_proofing"
	StatusChangesNeeded ProofStatus = "changes_needed"
	StatusApproved      ProofStatus = "approved"
	StatusOverdue       ProofStatus = "overdue"
)

// Proof is the platform-side proof record as consumed by this service.
type Proof struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	CollectionID string      `json:"collection_id,omitempty"`
	Status       ProofStatus `json:"status"`
	FileURL      string      `json:"file_url,omitempty"`
	OwnerEmail   string      `json:"owner_email,omitempty"`
	DueDate      *time.Time  `json:"due_date,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Collection groups proofs on the platform side.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateProofRequest is the inbound payload for creating a proof.
type CreateProofRequest struct {
	Name           string     `json:"name"`
	FileURL        string     `json:"file_url"`
	CollectionName string     `json:"collection_name,omitempty"`
	OwnerEmail     string     `json:"owner_email,omitempty"`
	ReviewerEmails []string   `json:"reviewer_emails,omitempty"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	Reference      string     `json:"reference,omitempty"`
}

// WebhookEventType identifies the status transition carried by a platform webhook.
type WebhookEventType string

const (
	EventProofApproved      WebhookEventType = "proof.approved"
	EventProofOverdue       WebhookEventType = "proof.overdue"
	EventProofRework        WebhookEventType = "proof.rework"
	EventProofStatusChanged WebhookEventType = "proof.status_changed"
)

// WebhookEvent is the parsed body of an inbound platform webhook. The raw
// bytes it was parsed from are what the signature covers; this struct is
// only built after the signature has been verified.
type WebhookEvent struct {
	EventID    string           `json:"event_id"`
	Type       WebhookEventType `json:"type"`
	ProofID    string           `json:"proof_id"`
	Status     ProofStatus      `json:"status,omitempty"`
	Reference  string           `json:"reference,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Known reports whether the event type is one this service relays.
func (t WebhookEventType) Known() bool {
	switch t {
	case EventProofApproved, EventProofOverdue, EventProofRework, EventProofStatusChanged:
		return true
	}
	return false
}
