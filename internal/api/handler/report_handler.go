package handler

import (
	"log/slog"
	"microfinance-backend/internal/api/handler/dto"
	"microfinance-backend/internal/domain/payment"
	"microfinance-backend/internal/domain/report"
	"net/http"
	"strconv"
)

const defaultTrendDays = 7

type ReportHandler struct {
	service report.ReportService
	clock   Clock
	logger  *slog.Logger
}

func NewReportHandler(s report.ReportService, clock Clock, l *slog.Logger) *ReportHandler {
	if s == nil {
		panic("report service cannot be nil")
	}
	return &ReportHandler{
		service: s,
		clock:   clock,
		logger:  l.With("component", "ReportHandler"),
	}
}

// KPIs handles GET /kpis
// @Summary Portfolio KPIs
// @Tags Reports
// @Produce json
// @Success 200 {object} dto.KPIResponse
// @Router /api/manager/kpis [get]
// @Security BearerAuth
func (h *ReportHandler) KPIs(w http.ResponseWriter, r *http.Request) {
	k, err := h.service.KPIs(r.Context(), h.clock())
	if err != nil {
		logServiceError(r, h.logger, "Service failed to compute KPIs", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewKPIResponse(k))
}

// AgentKPIs handles GET /agent/{agentId}/kpis
// @Summary Agent dashboard KPIs
// @Tags Agents
// @Produce json
// @Param agentId path string true "Agent code"
// @Success 200 {object} dto.AgentKPIResponse
// @Router /api/manager/agent/{agentId}/kpis [get]
// @Security BearerAuth
func (h *ReportHandler) AgentKPIs(w http.ResponseWriter, r *http.Request) {
	agentID, err := urlParam(r, "agentId")
	if err != nil {
		respondError(w, err)
		return
	}

	k, err := h.service.AgentKPIs(r.Context(), agentID, h.clock())
	if err != nil {
		logServiceError(r, h.logger, "Service failed to compute agent KPIs", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewAgentKPIResponse(k))
}

// TeamPerformance handles GET /team-performance
// @Summary Per-agent performance
// @Tags Reports
// @Produce json
// @Success 200 {array} dto.TeamMemberResponse
// @Router /api/manager/team-performance [get]
// @Security BearerAuth
func (h *ReportHandler) TeamPerformance(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.TeamPerformance(r.Context())
	if err != nil {
		logServiceError(r, h.logger, "Service failed to compute team performance", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTeamResponse(members))
}

// OverdueCases handles GET /overdue-cases
// @Summary Loans with a missed installment
// @Tags Reports
// @Produce json
// @Success 200 {array} dto.OverdueCaseResponse
// @Router /api/manager/overdue-cases [get]
// @Security BearerAuth
func (h *ReportHandler) OverdueCases(w http.ResponseWriter, r *http.Request) {
	cases, err := h.service.OverdueCases(r.Context(), h.clock())
	if err != nil {
		logServiceError(r, h.logger, "Service failed to list overdue cases", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewOverdueResponse(cases))
}

// CollectionRecords handles GET /collection-records
// @Summary Per-agent collection records
// @Tags Reports
// @Produce json
// @Param startDate query string false "YYYY-MM-DD"
// @Param endDate query string false "YYYY-MM-DD"
// @Param agentId query string false "Agent code"
// @Success 200 {array} dto.CollectionRecordResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/manager/collection-records [get]
// @Security BearerAuth
func (h *ReportHandler) CollectionRecords(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	q := r.URL.Query()
	start, err := dto.ParseDay(q.Get("startDate"), now.Location())
	if err != nil {
		respondError(w, badRequest(err))
		return
	}
	end, err := dto.ParseDay(q.Get("endDate"), now.Location())
	if err != nil {
		respondError(w, badRequest(err))
		return
	}
	from, to := payment.DayBounds(start, end)

	records, err := h.service.CollectionRecords(r.Context(), report.CollectionFilter{
		From:      from,
		To:        to,
		AgentID:   q.Get("agentId"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}, now)
	if err != nil {
		logServiceError(r, h.logger, "Service failed to build collection records", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCollectionResponse(records))
}

// Trends handles GET /owner/trends
// @Summary Daily trends
// @Tags Reports
// @Produce json
// @Param days query int false "Number of days" default(7)
// @Success 200 {array} dto.TrendPointResponse
// @Router /api/manager/owner/trends [get]
// @Security BearerAuth
func (h *ReportHandler) Trends(w http.ResponseWriter, r *http.Request) {
	days, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil || days == 0 {
		days = defaultTrendDays
	}
	days = min(days, report.MaxTrendDays)

	points, err := h.service.Trends(r.Context(), days, h.clock())
	if err != nil {
		logServiceError(r, h.logger, "Service failed to compute trends", err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTrendResponse(points))
}
