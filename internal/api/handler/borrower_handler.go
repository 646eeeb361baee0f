package handler

import (
	"log/slog"
	"microfinance-backend/internal/api/handler/dto"
	"microfinance-backend/internal/domain/borrower"
	"net/http"
)

type BorrowerHandler struct {
	service borrower.BorrowerService
	clock   Clock
	logger  *slog.Logger
}

func NewBorrowerHandler(s borrower.BorrowerService, clock Clock, l *slog.Logger) *BorrowerHandler {
	if s == nil {
		panic("borrower service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &BorrowerHandler{
		service: s,
		clock:   clock,
		logger:  l.With("component", "BorrowerHandler"),
	}
}

// ListBorrowers handles GET /borrowers
// @Summary List borrowers
// @Description Lists borrowers newest first. include=loans embeds each borrower's loans.
// @Tags Borrowers
// @Produce json
// @Param include query string false "Set to loans to embed loans"
// @Success 200 {array} dto.BorrowerResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/manager/borrowers [get]
// @Security BearerAuth
func (h *BorrowerHandler) ListBorrowers(w http.ResponseWriter, r *http.Request) {
	withLoans := r.URL.Query().Get("include") == "loans"

	borrowers, err := h.service.ListBorrowers(r.Context(), withLoans)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list borrowers", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBorrowerResponses(borrowers, withLoans))
}

// GetBorrower handles GET /borrowers/{id}
// @Summary Borrower details
// @Tags Borrowers
// @Produce json
// @Param id path string true "Borrower ID"
// @Success 200 {object} dto.BorrowerResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/borrowers/{id} [get]
// @Security BearerAuth
func (h *BorrowerHandler) GetBorrower(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	b, err := h.service.GetBorrower(r.Context(), id)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to get borrower", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBorrowerResponse(b, true))
}

// CreateBorrower handles POST /borrowers and POST /borrower
// @Summary Create a borrower
// @Description Creates a pending borrower. A positive loanAmount also opens an active loan.
// @Tags Borrowers
// @Accept json
// @Produce json
// @Param request body dto.CreateBorrowerRequest true "Borrower"
// @Success 201 {object} dto.BorrowerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/manager/borrowers [post]
// @Security BearerAuth
func (h *BorrowerHandler) CreateBorrower(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBorrowerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, badRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}
	params, err := req.ToParams(h.clock().Location())
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateBorrower(r.Context(), params)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to create borrower", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Borrower created", slog.String("borrowerID", created.ID))
	respondJSON(w, http.StatusCreated, dto.NewBorrowerResponse(created, false))
}

// UpdateBorrower handles PATCH /borrowers/{id}
// @Summary Update a borrower
// @Description Applies whitelisted fields only.
// @Tags Borrowers
// @Accept json
// @Produce json
// @Param id path string true "Borrower ID"
// @Param request body dto.UpdateBorrowerRequest true "Fields to change"
// @Success 200 {object} dto.BorrowerResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/borrowers/{id} [patch]
// @Security BearerAuth
func (h *BorrowerHandler) UpdateBorrower(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	var req dto.UpdateBorrowerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}
	update, err := req.ToUpdate(h.clock().Location())
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.UpdateBorrower(r.Context(), id, update)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to update borrower", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewBorrowerResponse(updated, false))
}

// DeleteBorrower handles DELETE /borrowers/{id}
// @Summary Delete a borrower with its loans and payments
// @Tags Borrowers
// @Produce json
// @Param id path string true "Borrower ID"
// @Success 200 {object} dto.DeleteBorrowerResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/borrowers/{id} [delete]
// @Security BearerAuth
func (h *BorrowerHandler) DeleteBorrower(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "id")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteBorrower(r.Context(), id); err != nil {
		logServiceError(r, h.logger, "Service failed to delete borrower", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Borrower deleted", slog.String("borrowerID", id))
	respondJSON(w, http.StatusOK, dto.DeleteBorrowerResponse{Message: "Borrower deleted successfully", BorrowerID: id})
}

// ListPendingApprovals handles GET /borrower-approvals
// @Summary Borrowers awaiting approval
// @Tags Approvals
// @Produce json
// @Success 200 {array} dto.ApprovalResponse
// @Router /api/manager/borrower-approvals [get]
// @Security BearerAuth
func (h *BorrowerHandler) ListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	approvals, err := h.service.ListPendingApprovals(r.Context())
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list approvals", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewApprovalResponses(approvals))
}

// ApproveBorrower handles POST /borrower-approvals/{borrowerId}/approve
// @Summary Approve a pending borrower
// @Description Activates every loan of the borrower.
// @Tags Approvals
// @Accept json
// @Produce json
// @Param borrowerId path string true "Borrower ID"
// @Param request body dto.ApproveBorrowerRequest false "Approver"
// @Success 200 {object} dto.BorrowerDecisionResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/borrower-approvals/{borrowerId}/approve [post]
// @Security BearerAuth
func (h *BorrowerHandler) ApproveBorrower(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "borrowerId")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.ApproveBorrowerRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}

	b, err := h.service.ApproveBorrower(r.Context(), id, req.ApprovedBy)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to approve borrower", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.BorrowerDecisionResponse{
		Message:  "Borrower approved successfully",
		Borrower: dto.NewBorrowerResponse(b, false),
	})
}

// RejectBorrower handles POST /borrower-approvals/{borrowerId}/reject
// @Summary Reject a pending borrower
// @Tags Approvals
// @Accept json
// @Produce json
// @Param borrowerId path string true "Borrower ID"
// @Param request body dto.RejectBorrowerRequest false "Rejection"
// @Success 200 {object} dto.BorrowerDecisionResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/manager/borrower-approvals/{borrowerId}/reject [post]
// @Security BearerAuth
func (h *BorrowerHandler) RejectBorrower(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "borrowerId")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.RejectBorrowerRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}

	b, err := h.service.RejectBorrower(r.Context(), id, req.RejectedBy, req.RejectionReason)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to reject borrower", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.BorrowerDecisionResponse{
		Message:  "Borrower rejected",
		Borrower: dto.NewBorrowerResponse(b, false),
	})
}

// ListAgentBorrowers handles GET /agent/{agentId}/borrowers
// @Summary Approved borrowers of an agent
// @Tags Agents
// @Produce json
// @Param agentId path string true "Agent code"
// @Success 200 {array} dto.BorrowerResponse
// @Router /api/manager/agent/{agentId}/borrowers [get]
// @Security BearerAuth
func (h *BorrowerHandler) ListAgentBorrowers(w http.ResponseWriter, r *http.Request) {
	agentID, err := urlParam(r, "agentId")
	if err != nil {
		respondError(w, err)
		return
	}

	borrowers, err := h.service.ListAgentBorrowers(r.Context(), agentID)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list agent borrowers", err)
		respondError(w, err)
		return
	}
	h.logger.DebugContext(r.Context(), "Listed agent borrowers", slog.String("agentID", agentID), slog.Int("count", len(borrowers)))
	respondJSON(w, http.StatusOK, dto.NewBorrowerResponses(borrowers, false))
}
