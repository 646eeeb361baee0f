package handler

import (
	"log/slog"
	"microfinance-backend/internal/api/handler/dto"
	"microfinance-backend/internal/domain/payment"
	"net/http"
)

type PaymentHandler struct {
	service payment.PaymentService
	clock   Clock
	logger  *slog.Logger
}

func NewPaymentHandler(s payment.PaymentService, clock Clock, l *slog.Logger) *PaymentHandler {
	if s == nil {
		panic("payment service cannot be nil")
	}
	return &PaymentHandler{
		service: s,
		clock:   clock,
		logger:  l.With("component", "PaymentHandler"),
	}
}

// CreatePayment handles POST /payments
// @Summary Record a collection
// @Description Stores the payment and reconciles its loan atomically. Send an Idempotency-Key header to make retries safe.
// @Tags Payments
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Replays the first response for a repeated key"
// @Param request body dto.CreatePaymentRequest true "Payment"
// @Success 201 {object} dto.PaymentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /api/manager/payments [post]
// @Security BearerAuth
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, badRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreatePayment(r.Context(), req.ToParams())
	if err != nil {
		logServiceError(r, h.logger, "Service failed to create payment", err)
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Payment recorded", slog.String("paymentID", created.ID), slog.String("loanID", created.LoanID))
	respondJSON(w, http.StatusCreated, dto.NewPaymentResponse(created))
}

// ListPayments handles GET /payments
// @Summary List payments
// @Description Dates are inclusive calendar days in the servicing timezone.
// @Tags Payments
// @Produce json
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Param includeReversed query bool false "Include reversed payments"
// @Success 200 {array} dto.PaymentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/manager/payments [get]
// @Security BearerAuth
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	loc := h.clock().Location()
	q := r.URL.Query()
	start, err := dto.ParseDay(q.Get("startDate"), loc)
	if err != nil {
		respondError(w, badRequest(err))
		return
	}
	end, err := dto.ParseDay(q.Get("endDate"), loc)
	if err != nil {
		respondError(w, badRequest(err))
		return
	}
	from, to := payment.DayBounds(start, end)

	payments, err := h.service.ListPayments(r.Context(), payment.ListFilter{
		From:            from,
		To:              to,
		IncludeReversed: queryBool(r, "includeReversed"),
	})
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list payments", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPaymentResponses(payments))
}

// ListAgentPayments handles GET /agent/{agentId}/payments
// @Summary Payments collected by an agent
// @Tags Agents
// @Produce json
// @Param agentId path string true "Agent code"
// @Param includeReversed query bool false "Include reversed payments"
// @Success 200 {array} dto.PaymentResponse
// @Router /api/manager/agent/{agentId}/payments [get]
// @Security BearerAuth
func (h *PaymentHandler) ListAgentPayments(w http.ResponseWriter, r *http.Request) {
	agentID, err := urlParam(r, "agentId")
	if err != nil {
		respondError(w, err)
		return
	}

	payments, err := h.service.ListPayments(r.Context(), payment.ListFilter{
		AgentID:         agentID,
		IncludeReversed: queryBool(r, "includeReversed"),
	})
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list agent payments", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPaymentResponses(payments))
}

// ReversePayment handles POST /payments/{paymentId}/reverse
// @Summary Reverse a payment
// @Description The payment is kept and flagged; the loan is reconciled in the same transaction.
// @Tags Payments
// @Produce json
// @Param paymentId path string true "Payment ID"
// @Success 200 {object} dto.ReversalResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse "Already reversed"
// @Router /api/manager/payments/{paymentId}/reverse [post]
// @Security BearerAuth
func (h *PaymentHandler) ReversePayment(w http.ResponseWriter, r *http.Request) {
	id, err := urlParam(r, "paymentId")
	if err != nil {
		respondError(w, err)
		return
	}

	res, err := h.service.ReversePayment(r.Context(), id, payment.DefaultReverser, "")
	if err != nil {
		logServiceError(r, h.logger, "Service failed to reverse payment", err)
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Payment reversed", slog.String("paymentID", id))
	respondJSON(w, http.StatusOK, dto.NewReversalResponse(res))
}

// ListAgentRequests handles GET /agent-requests
// @Summary Pending agent requests
// @Description Requests are decided immediately and never stored, so the list is empty.
// @Tags Agent requests
// @Produce json
// @Success 200 {array} dto.AgentRequestResponse
// @Router /api/manager/agent-requests [get]
// @Security BearerAuth
func (h *PaymentHandler) ListAgentRequests(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, []dto.AgentRequestResponse{})
}

// ApproveAgentRequest handles POST /agent-requests/{requestId}/approve
// @Summary Approve an agent's reversal or edit request
// @Tags Agent requests
// @Accept json
// @Produce json
// @Param requestId path string true "Request ID"
// @Param request body dto.ApproveAgentRequestRequest true "Request"
// @Success 200 {object} dto.AgentRequestOutcomeResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/manager/agent-requests/{requestId}/approve [post]
// @Security BearerAuth
func (h *PaymentHandler) ApproveAgentRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlParam(r, "requestId")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.ApproveAgentRequestRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, err)
		return
	}

	out, err := h.service.ApproveAgentRequest(r.Context(), req.ToAgentRequest(requestID))
	if err != nil {
		logServiceError(r, h.logger, "Service failed to approve agent request", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewAgentRequestOutcomeResponse(out))
}

// RejectAgentRequest handles POST /agent-requests/{requestId}/reject
// @Summary Reject an agent request
// @Tags Agent requests
// @Accept json
// @Produce json
// @Param requestId path string true "Request ID"
// @Param request body dto.RejectAgentRequestRequest false "Reason"
// @Success 200 {object} dto.RejectAgentRequestResponse
// @Router /api/manager/agent-requests/{requestId}/reject [post]
// @Security BearerAuth
func (h *PaymentHandler) RejectAgentRequest(w http.ResponseWriter, r *http.Request) {
	requestID, err := urlParam(r, "requestId")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.RejectAgentRequestRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, badRequest(err))
		return
	}

	h.logger.InfoContext(r.Context(), "Agent request rejected", slog.String("requestID", requestID), slog.String("reason", req.Reason))
	respondJSON(w, http.StatusOK, dto.RejectAgentRequestResponse{
		Message:   "Request rejected successfully",
		RequestID: requestID,
		Reason:    req.Reason,
	})
}
