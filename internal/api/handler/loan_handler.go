package handler

import (
	"log/slog"
	"microfinance-backend/internal/api/handler/dto"
	"microfinance-backend/internal/domain/loan"
	"net/http"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// ListLoans handles GET /loans
// @Summary List loans
// @Tags Loans
// @Produce json
// @Param status query string false "Loan status filter"
// @Success 200 {array} dto.LoanResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/manager/loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	status := loan.Status(r.URL.Query().Get("status"))

	loans, err := h.service.ListLoans(r.Context(), status)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list loans", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponses(loans))
}

// DecideLoan handles POST /loans/{id}/approve
// @Summary Approve or reject a pending loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path string true "Loan ID"
// @Param request body dto.DecideLoanRequest true "Decision"
// @Success 200 {object} dto.LoanStatusResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/manager/loans/{id}/approve [post]
// @Security BearerAuth
func (h *LoanHandler) DecideLoan(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.DecideLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.DecideLoan(r.Context(), id, *req.Approved, req.Comment)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to decide loan", err)
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Loan decided", slog.String("loanID", id), slog.String("status", string(updated.Status)))
	respondJSON(w, http.StatusOK, dto.LoanStatusResponse{ID: updated.ID, Status: string(updated.Status)})
}

// CancelLoan handles POST /loans/{id}/cancel
// @Summary Cancel a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Param id path string true "Loan ID"
// @Param request body dto.CancelLoanRequest false "Comment"
// @Success 200 {object} dto.LoanStatusResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/loans/{id}/cancel [post]
// @Security BearerAuth
func (h *LoanHandler) CancelLoan(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.CancelLoanRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}

	updated, err := h.service.CancelLoan(r.Context(), id, req.Comment)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to cancel loan", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.LoanStatusResponse{ID: updated.ID, Status: string(updated.Status)})
}

// ListAgentLoans handles GET /agent/{agentId}/loans
// @Summary Loans of an agent with borrower contact
// @Tags Agents
// @Produce json
// @Param agentId path string true "Agent code"
// @Success 200 {array} dto.LoanResponse
// @Router /api/manager/agent/{agentId}/loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListAgentLoans(w http.ResponseWriter, r *http.Request) {
	agentID, err := urlParam(r, "agentId")
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.service.ListAgentLoans(r.Context(), agentID)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list agent loans", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewLoanResponses(loans))
}

// InitPaymentTracking handles POST /loans/{loanId}/init-payment-tracking
// @Summary Recompute a loan's balance from its payments
// @Tags Loans
// @Produce json
// @Param loanId path string true "Loan ID"
// @Success 200 {object} dto.LoanMessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/loans/{loanId}/init-payment-tracking [post]
// @Security BearerAuth
func (h *LoanHandler) InitPaymentTracking(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "loanId")
	if err != nil {
		respondError(w, err)
		return
	}

	l, err := h.service.ReconcileLoan(r.Context(), id)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to reconcile loan", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.LoanMessageResponse{
		Message: "Payment tracking initialized successfully",
		Loan:    dto.NewLoanResponse(l),
	})
}

// SetPaid handles POST /loans/{loanId}/set-paid
// @Summary Mark a loan as fully paid
// @Tags Loans
// @Produce json
// @Param loanId path string true "Loan ID"
// @Success 200 {object} dto.LoanMessageResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/loans/{loanId}/set-paid [post]
// @Security BearerAuth
func (h *LoanHandler) SetPaid(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "loanId")
	if err != nil {
		respondError(w, err)
		return
	}

	l, err := h.service.SetPaid(r.Context(), id)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to set loan paid", err)
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Loan marked as paid", slog.String("loanID", id))
	respondJSON(w, http.StatusOK, dto.LoanMessageResponse{
		Message: "Loan marked as paid successfully",
		Loan:    dto.NewLoanResponse(l),
	})
}

// FixAgentLoans handles POST /agent/{agentId}/fix-loans
// @Summary Recompute every loan of an agent
// @Tags Agents
// @Produce json
// @Param agentId path string true "Agent code"
// @Success 200 {object} dto.LoansMessageResponse
// @Router /api/manager/agent/{agentId}/fix-loans [post]
// @Security BearerAuth
func (h *LoanHandler) FixAgentLoans(w http.ResponseWriter, r *http.Request) {
	agentID, err := urlParam(r, "agentId")
	if err != nil {
		respondError(w, err)
		return
	}

	loans, err := h.service.ReconcileAgentLoans(r.Context(), agentID)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to fix agent loans", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.LoansMessageResponse{
		Message: "Fixed loans for agent " + agentID,
		Loans:   dto.NewLoanResponses(loans),
	})
}
