package delivery

import (
	"time"

	"github.com/google/uuid"
)

// Outcome records how a relay delivery ended.
type Outcome string

const (
	OutcomePending   Outcome = "pending"
	OutcomeDelivered Outcome = "delivered"
	OutcomeExhausted Outcome = "exhausted"
)

// Delivery is one relay attempt chain: a webhook event forwarded to the
// downstream endpoint, including how many attempts it took and how it ended.
type Delivery struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	EventID     string     `db:"event_id" json:"event_id"`
	EventType   string     `db:"event_type" json:"event_type"`
	ProofID     string     `db:"proof_id" json:"proof_id"`
	Attempts    int        `db:"attempts" json:"attempts"`
	Outcome     Outcome    `db:"outcome" json:"outcome"`
	LastError   string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Filter narrows a delivery listing.
type Filter struct {
	EventType string
	ProofID   string
	Outcome   Outcome
	Since     *time.Time
	Limit     int
	Offset    int
}
