package domain

import "time"

// TicketStatus is the ticket's redemption state. A ticket is created in
// StatusCreated and transitions exactly once to StatusUsed; Used is terminal.
type TicketStatus string

const (
	TicketCreated TicketStatus = "created"
	TicketUsed    TicketStatus = "used"
)

type Ticket struct {
	TicketID  string       `json:"ticket_id" dynamodbav:"ticket_id"`
	Email     string       `json:"email" dynamodbav:"email"`
	Name      string       `json:"name" dynamodbav:"name"`
	Status    TicketStatus `json:"status" dynamodbav:"status"`
	CreatedAt time.Time    `json:"created_at" dynamodbav:"created_at"`
	UsedAt    *time.Time   `json:"used_at,omitempty" dynamodbav:"used_at"` // set iff Status == TicketUsed
}

// TicketPayload is the plaintext portion of a signed admission payload: the
// three fields the signature covers. CreatedAt travels as an RFC 3339 string
// because the signature is computed over the exact encoded bytes.
type TicketPayload struct {
	TicketID  string `json:"ticketId" validate:"required"`
	Email     string `json:"email" validate:"required"`
	CreatedAt string `json:"createdAt" validate:"required"`
}

// SignedTicketPayload is what gets encoded into the scannable QR code.
type SignedTicketPayload struct {
	TicketPayload
	Signature string `json:"signature" validate:"required"`
}

type CreateTicketRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}
