package payment

import "github.com/shopspring/decimal"

type RequestType string

const (
	RequestReversal RequestType = "reversal"
	RequestEdit     RequestType = "edit"
)

// AgentRequest is a field agent's ask to reverse or correct a payment.
// Requests are decided immediately and not stored.
type AgentRequest struct {
	ID        string
	Type      RequestType
	PaymentID string
	AgentID   string
	Reason    string
	Edit      Edit
}

type RequestOutcome struct {
	Message   string
	RequestID string
	PaymentID string
	Amount    decimal.Decimal
	Payment   *Payment
	Warning   string
}
