package dto

import (
	"microfinance-backend/internal/domain/payment"
	"time"
)

type LocationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

func (l *LocationRequest) toLocation() *payment.Location {
	if l == nil || (l.Latitude == nil && l.Longitude == nil) {
		return nil
	}
	return &payment.Location{Latitude: l.Latitude, Longitude: l.Longitude}
}

type CreatePaymentRequest struct {
	BorrowerID  string           `json:"borrowerId"`
	LoanID      string           `json:"loanId"`
	AgentID     string           `json:"agentId"`
	Amount      FlexDecimal      `json:"amount"`
	PaymentMode string           `json:"paymentMode" validate:"omitempty,oneof=cash upi card cheque"`
	Location    *LocationRequest `json:"location"`
	ReceiptName string           `json:"receiptName"`
}

func (r *CreatePaymentRequest) Validate() error {
	return validateStruct(r)
}

func (r *CreatePaymentRequest) ToParams() payment.CreateParams {
	p := payment.CreateParams{
		BorrowerID:  r.BorrowerID,
		LoanID:      r.LoanID,
		AgentID:     r.AgentID,
		Mode:        payment.Mode(r.PaymentMode),
		Location:    r.Location.toLocation(),
		ReceiptName: r.ReceiptName,
	}
	if r.Amount.Valid {
		p.Amount = r.Amount.Decimal
	}
	return p
}

type LocationResponse struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type PaymentResponse struct {
	ID             string            `json:"id"`
	LoanID         string            `json:"loanId"`
	BorrowerID     string            `json:"borrowerId"`
	AgentID        string            `json:"agentId"`
	Amount         string            `json:"amount"`
	PaymentMode    string            `json:"paymentMode"`
	Location       *LocationResponse `json:"location,omitempty"`
	ReceiptName    string            `json:"receiptName,omitempty"`
	Reversed       bool              `json:"reversed"`
	ReversedAt     *time.Time        `json:"reversedAt,omitempty"`
	ReversedBy     string            `json:"reversedBy,omitempty"`
	ReversalReason string            `json:"reversalReason,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func NewPaymentResponse(p *payment.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:             p.ID,
		LoanID:         p.LoanID,
		BorrowerID:     p.BorrowerID,
		AgentID:        p.AgentID,
		Amount:         money(p.Amount),
		PaymentMode:    string(p.Mode),
		ReceiptName:    p.ReceiptName,
		Reversed:       p.Reversed,
		ReversedAt:     p.ReversedAt,
		ReversedBy:     p.ReversedBy,
		ReversalReason: p.ReversalReason,
		CreatedAt:      p.CreatedAt,
	}
	if p.Location != nil {
		resp.Location = &LocationResponse{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude}
	}
	return resp
}

func NewPaymentResponses(ps []*payment.Payment) []PaymentResponse {
	resp := make([]PaymentResponse, len(ps))
	for i, p := range ps {
		resp[i] = NewPaymentResponse(p)
	}
	return resp
}

type ReversalResponse struct {
	Message string          `json:"message"`
	Payment PaymentResponse `json:"payment"`
	Loan    *LoanResponse   `json:"loan"`
	Warning string          `json:"warning,omitempty"`
}

func NewReversalResponse(res *payment.Result) ReversalResponse {
	resp := ReversalResponse{
		Message: "Payment reversed successfully",
		Payment: NewPaymentResponse(res.Payment),
		Warning: res.Warning,
	}
	if res.Loan != nil {
		l := NewLoanResponse(res.Loan)
		resp.Loan = &l
	}
	return resp
}

type ApproveAgentRequestRequest struct {
	RequestType    string           `json:"requestType" validate:"required,oneof=reversal edit"`
	PaymentID      string           `json:"paymentId" validate:"required"`
	AgentID        string           `json:"agentId"`
	Reason         string           `json:"reason"`
	NewAmount      FlexDecimal      `json:"newAmount"`
	NewPaymentMode string           `json:"newPaymentMode" validate:"omitempty,oneof=cash upi card cheque"`
	NewLocation    *LocationRequest `json:"newLocation"`
	NewReceiptName *string          `json:"newReceiptName"`
}

func (r *ApproveAgentRequestRequest) Validate() error {
	return validateStruct(r)
}

func (r *ApproveAgentRequestRequest) ToAgentRequest(requestID string) payment.AgentRequest {
	req := payment.AgentRequest{
		ID:        requestID,
		Type:      payment.RequestType(r.RequestType),
		PaymentID: r.PaymentID,
		AgentID:   r.AgentID,
		Reason:    r.Reason,
	}
	if r.NewAmount.Valid {
		amount := r.NewAmount.Decimal
		req.Edit.Amount = &amount
	}
	if r.NewPaymentMode != "" {
		mode := payment.Mode(r.NewPaymentMode)
		req.Edit.Mode = &mode
	}
	req.Edit.Location = r.NewLocation.toLocation()
	req.Edit.ReceiptName = r.NewReceiptName
	return req
}

type AgentRequestOutcomeResponse struct {
	Message   string           `json:"message"`
	RequestID string           `json:"requestId"`
	PaymentID string           `json:"paymentId"`
	Amount    *string          `json:"amount,omitempty"`
	Payment   *PaymentResponse `json:"payment,omitempty"`
	Warning   string           `json:"warning,omitempty"`
}

func NewAgentRequestOutcomeResponse(out *payment.RequestOutcome) AgentRequestOutcomeResponse {
	resp := AgentRequestOutcomeResponse{
		Message:   out.Message,
		RequestID: out.RequestID,
		PaymentID: out.PaymentID,
		Warning:   out.Warning,
	}
	if out.Payment != nil {
		p := NewPaymentResponse(out.Payment)
		resp.Payment = &p
		amount := money(out.Amount)
		resp.Amount = &amount
	}
	return resp
}

type RejectAgentRequestRequest struct {
	Reason string `json:"reason"`
}

type RejectAgentRequestResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
	Reason    string `json:"reason"`
}

// AgentRequestResponse is the listing shape. Requests are not stored, so
// the list is always empty.
type AgentRequestResponse struct {
	ID          string `json:"id"`
	RequestType string `json:"requestType"`
	PaymentID   string `json:"paymentId"`
}
