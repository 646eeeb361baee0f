package dto

import (
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"
	"time"
)

type DecideLoanRequest struct {
	Approved *bool  `json:"approved"`
	Comment  string `json:"comment"`
}

func (r *DecideLoanRequest) Validate() error {
	if r.Approved == nil {
		return apperrors.NewValidationError("approved", "approved must be a boolean")
	}
	return nil
}

type CancelLoanRequest struct {
	Comment string `json:"comment"`
}

type BorrowerContactResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
}

type LoanResponse struct {
	ID                  string                   `json:"id"`
	BorrowerID          string                   `json:"borrowerId"`
	Amount              string                   `json:"amount"`
	TotalPaid           string                   `json:"totalPaid"`
	RemainingAmount     string                   `json:"remainingAmount"`
	InterestRatePercent *string                  `json:"interestRatePercent,omitempty"`
	TenureMonths        int                      `json:"tenureMonths,omitempty"`
	Frequency           string                   `json:"frequency"`
	Purpose             string                   `json:"purpose,omitempty"`
	AssignedAgent       string                   `json:"assignedAgent,omitempty"`
	Status              string                   `json:"status"`
	ManagerComment      string                   `json:"managerComment,omitempty"`
	CreatedAt           time.Time                `json:"createdAt"`
	UpdatedAt           time.Time                `json:"updatedAt"`
	Borrower            *BorrowerContactResponse `json:"borrower,omitempty"`
}

func NewLoanResponse(l *loan.Loan) LoanResponse {
	resp := LoanResponse{
		ID:                  l.ID,
		BorrowerID:          l.BorrowerID,
		Amount:              money(l.Amount),
		TotalPaid:           money(l.TotalPaid),
		RemainingAmount:     money(l.RemainingAmount),
		InterestRatePercent: nullMoney(l.InterestRatePercent),
		TenureMonths:        l.TenureMonths,
		Frequency:           string(l.Frequency),
		Purpose:             l.Purpose,
		AssignedAgent:       l.AssignedAgent,
		Status:              string(l.Status),
		ManagerComment:      l.ManagerComment,
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
	if b := l.Borrower; b != nil {
		resp.Borrower = &BorrowerContactResponse{
			ID:        b.ID,
			Name:      b.DisplayName(),
			FirstName: b.FirstName,
			LastName:  b.LastName,
			Phone:     b.Phone,
			Email:     b.Email,
		}
	}
	return resp
}

func NewLoanResponses(loans []*loan.Loan) []LoanResponse {
	resp := make([]LoanResponse, len(loans))
	for i, l := range loans {
		resp[i] = NewLoanResponse(l)
	}
	return resp
}

type LoanStatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type LoanMessageResponse struct {
	Message string       `json:"message"`
	Loan    LoanResponse `json:"loan"`
}

type LoansMessageResponse struct {
	Message string         `json:"message"`
	Loans   []LoanResponse `json:"loans"`
}
