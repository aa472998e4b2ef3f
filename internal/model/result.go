package model

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one send attempt on one channel for one recipient.
type Attempt struct {
	Channel Channel `json:"channel"`
	Success bool    `json:"success"`
	Error   string  `json:"error,omitempty"`
}

// RecipientOutcome is the final per-recipient result of a dispatch: the
// primary attempt plus the SMS fallback attempt when fallback fired.
type RecipientOutcome struct {
	Phone    string   `json:"phone"`
	Primary  Attempt  `json:"primary"`
	Fallback *Attempt `json:"fallback,omitempty"`
	Success  bool     `json:"success"`
}

// DispatchResult aggregates one batch. A batch where every recipient failed
// is still a valid result, not an error.
type DispatchResult struct {
	BatchID      uuid.UUID          `json:"batch_id"`
	Channel      Channel            `json:"channel"`
	SuccessCount int                `json:"success_count"`
	FailureCount int                `json:"failure_count"`
	Recipients   []RecipientOutcome `json:"recipients"` // input order, regardless of completion order
}

// BatchStatus is the lifecycle state of a queued dispatch batch.
const (
	BatchPending   = "pending"
	BatchSent      = "sent"
	BatchFailed    = "failed"
	BatchCancelled = "cancelled"
)

// Batch is the stored record of one dispatch request, queued until SendAt.
type Batch struct {
	ID        uuid.UUID `json:"id"`
	Channel   Channel   `json:"channel"`
	Status    string    `json:"status"`
	SendAt    time.Time `json:"send_at"`
	Draft     Draft     `json:"draft"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
