package dto

import (
	"microfinance-backend/internal/domain/borrower"
	"microfinance-backend/internal/domain/loan"
	"microfinance-backend/internal/pkg/apperrors"
	"time"
)

type CreateBorrowerRequest struct {
	Name          string      `json:"name"`
	FirstName     string      `json:"firstName"`
	LastName      string      `json:"lastName"`
	Email         string      `json:"email"`
	PhoneNumber   string      `json:"phoneNumber"`
	Phone         string      `json:"phone"`
	DateOfBirth   string      `json:"dateOfBirth"`
	Address       string      `json:"address"`
	City          string      `json:"city"`
	State         string      `json:"state"`
	Pincode       string      `json:"pincode"`
	AssignedAgent string      `json:"assignedAgent"`
	LoanAmount    FlexDecimal `json:"loanAmount"`
	InterestRate  FlexDecimal `json:"interestRate"`
	Tenure        FlexDecimal `json:"tenure"`
	Frequency     string      `json:"frequency" validate:"omitempty,oneof=daily weekly monthly"`
	Purpose       string      `json:"purpose"`
}

func (r *CreateBorrowerRequest) Validate() error {
	return validateStruct(r)
}

func (r *CreateBorrowerRequest) ToParams(loc *time.Location) (borrower.CreateParams, error) {
	dob, err := ParseDay(r.DateOfBirth, loc)
	if err != nil {
		return borrower.CreateParams{}, apperrors.NewValidationError("dateOfBirth", err.Error())
	}
	phone := r.PhoneNumber
	if phone == "" {
		phone = r.Phone
	}
	p := borrower.CreateParams{
		Name:          r.Name,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         phone,
		DateOfBirth:   dob,
		Address:       r.Address,
		City:          r.City,
		State:         r.State,
		Pincode:       r.Pincode,
		AssignedAgent: r.AssignedAgent,
	}
	if r.LoanAmount.Valid && r.LoanAmount.Decimal.IsPositive() {
		terms := &borrower.LoanTerms{
			Amount:              r.LoanAmount.Decimal,
			InterestRatePercent: r.InterestRate.NullDecimal,
			Frequency:           loan.Frequency(r.Frequency),
			Purpose:             r.Purpose,
		}
		if r.Tenure.Valid {
			terms.TenureMonths = int(r.Tenure.Decimal.IntPart())
		}
		p.Loan = terms
	}
	return p, nil
}

// UpdateBorrowerRequest keeps only whitelisted keys; anything else in the
// body is ignored.
type UpdateBorrowerRequest struct {
	Name          *string `json:"name"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	DateOfBirth   *string `json:"dateOfBirth"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	State         *string `json:"state"`
	Pincode       *string `json:"pincode"`
	AssignedAgent *string `json:"assignedAgent"`
	Status        *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

func (r *UpdateBorrowerRequest) Validate() error {
	return validateStruct(r)
}

func (r *UpdateBorrowerRequest) ToUpdate(loc *time.Location) (borrower.Update, error) {
	u := borrower.Update{
		Name:          r.Name,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		City:          r.City,
		State:         r.State,
		Pincode:       r.Pincode,
		AssignedAgent: r.AssignedAgent,
	}
	if r.DateOfBirth != nil {
		dob, err := ParseDay(*r.DateOfBirth, loc)
		if err != nil {
			return borrower.Update{}, apperrors.NewValidationError("dateOfBirth", err.Error())
		}
		u.DateOfBirth = dob
	}
	if r.Status != nil {
		s := borrower.Status(*r.Status)
		u.Status = &s
	}
	return u, nil
}

type ApproveBorrowerRequest struct {
	ApprovedBy string `json:"approvedBy"`
}

type RejectBorrowerRequest struct {
	RejectedBy      string `json:"rejectedBy"`
	RejectionReason string `json:"rejectionReason"`
}

type BorrowerResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	FirstName       string          `json:"firstName,omitempty"`
	LastName        string          `json:"lastName,omitempty"`
	Email           string          `json:"email,omitempty"`
	Phone           string          `json:"phone,omitempty"`
	DateOfBirth     *time.Time      `json:"dateOfBirth,omitempty"`
	Address         string          `json:"address,omitempty"`
	City            string          `json:"city,omitempty"`
	State           string          `json:"state,omitempty"`
	Pincode         string          `json:"pincode,omitempty"`
	AssignedAgent   string          `json:"assignedAgent,omitempty"`
	Status          string          `json:"status"`
	ApprovalStatus  string          `json:"approvalStatus"`
	ApprovedBy      string          `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty"`
	RejectedBy      string          `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time      `json:"rejectedAt,omitempty"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	Loans           *[]LoanResponse `json:"loans,omitempty"`
}

// NewBorrowerResponse embeds loans only when withLoans is set, so a borrower
// without loans still reports an empty list.
func NewBorrowerResponse(b *borrower.Borrower, withLoans bool) BorrowerResponse {
	resp := BorrowerResponse{
		ID:              b.ID,
		Name:            b.Name,
		FirstName:       b.FirstName,
		LastName:        b.LastName,
		Email:           b.Email,
		Phone:           b.Phone,
		DateOfBirth:     b.DateOfBirth,
		Address:         b.Address,
		City:            b.City,
		State:           b.State,
		Pincode:         b.Pincode,
		AssignedAgent:   b.AssignedAgent,
		Status:          string(b.Status),
		ApprovalStatus:  string(b.ApprovalStatus),
		ApprovedBy:      b.ApprovedBy,
		ApprovedAt:      b.ApprovedAt,
		RejectedBy:      b.RejectedBy,
		RejectedAt:      b.RejectedAt,
		RejectionReason: b.RejectionReason,
		CreatedAt:       b.CreatedAt,
	}
	if withLoans {
		loans := NewLoanResponses(b.Loans)
		resp.Loans = &loans
	}
	return resp
}

func NewBorrowerResponses(bs []*borrower.Borrower, withLoans bool) []BorrowerResponse {
	resp := make([]BorrowerResponse, len(bs))
	for i, b := range bs {
		resp[i] = NewBorrowerResponse(b, withLoans)
	}
	return resp
}

type DeleteBorrowerResponse struct {
	Message    string `json:"message"`
	BorrowerID string `json:"borrowerId"`
}

type ApprovalResponse struct {
	BorrowerResponse
	Loan *LoanResponse `json:"loan"`
}

func NewApprovalResponses(approvals []borrower.Approval) []ApprovalResponse {
	resp := make([]ApprovalResponse, len(approvals))
	for i, a := range approvals {
		resp[i] = ApprovalResponse{BorrowerResponse: NewBorrowerResponse(a.Borrower, false)}
		if a.Loan != nil {
			l := NewLoanResponse(a.Loan)
			resp[i].Loan = &l
		}
	}
	return resp
}

type BorrowerDecisionResponse struct {
	Message  string           `json:"message"`
	Borrower BorrowerResponse `json:"borrower"`
}
