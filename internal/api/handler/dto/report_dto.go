package dto

import (
	"microfinance-backend/internal/domain/report"
	"time"
)

type KPIResponse struct {
	TotalBorrowers      int64  `json:"totalBorrowers"`
	ActiveLoans         int64  `json:"activeLoans"`
	TotalDisbursed      string `json:"totalDisbursed"`
	RepaymentsThisMonth string `json:"repaymentsThisMonth"`
}

func NewKPIResponse(k report.KPIs) KPIResponse {
	return KPIResponse{
		TotalBorrowers:      k.TotalBorrowers,
		ActiveLoans:         k.ActiveLoans,
		TotalDisbursed:      money(k.TotalDisbursed),
		RepaymentsThisMonth: money(k.RepaymentsThisMonth),
	}
}

type AgentKPIResponse struct {
	TodayCollections   string `json:"todayCollections"`
	TodayPaymentsCount int64  `json:"todayPaymentsCount"`
	ActiveBorrowers    int64  `json:"activeBorrowers"`
	PendingVisits      int64  `json:"pendingVisits"`
	SuccessRate        int64  `json:"successRate"`
}

func NewAgentKPIResponse(k report.AgentKPIs) AgentKPIResponse {
	return AgentKPIResponse{
		TodayCollections:   money(k.TodayCollections),
		TodayPaymentsCount: k.TodayPaymentsCount,
		ActiveBorrowers:    k.ActiveBorrowers,
		PendingVisits:      k.PendingVisits,
		SuccessRate:        k.SuccessRate,
	}
}

type TeamMemberResponse struct {
	ID             string `json:"id"`
	AgentID        string `json:"agentId"`
	Name           string `json:"name"`
	Collected      string `json:"collected"`
	TotalDisbursed string `json:"totalDisbursed"`
	Target         string `json:"target"`
	Borrowers      int64  `json:"borrowers"`
	SuccessRate    int64  `json:"successRate"`
	Status         string `json:"status"`
}

func NewTeamResponse(members []report.TeamMember) []TeamMemberResponse {
	resp := make([]TeamMemberResponse, len(members))
	for i, m := range members {
		resp[i] = TeamMemberResponse{
			ID:             m.ID,
			AgentID:        m.AgentID,
			Name:           m.Name,
			Collected:      money(m.Collected),
			TotalDisbursed: money(m.TotalDisbursed),
			Target:         money(m.Target),
			Borrowers:      m.Borrowers,
			SuccessRate:    m.SuccessRate,
			Status:         m.Status,
		}
	}
	return resp
}

type OverdueCaseResponse struct {
	ID            string `json:"id"`
	Borrower      string `json:"borrower"`
	Agent         string `json:"agent"`
	AgentID       string `json:"agentId"`
	Amount        string `json:"amount"`
	DaysPastDue   int    `json:"daysPastDue"`
	LastContact   string `json:"lastContact"`
	LoanID        string `json:"loanId"`
	BorrowerPhone string `json:"borrowerPhone"`
	DueDate       string `json:"dueDate"`
}

func NewOverdueResponse(cases []report.OverdueCase) []OverdueCaseResponse {
	resp := make([]OverdueCaseResponse, len(cases))
	for i, c := range cases {
		resp[i] = OverdueCaseResponse{
			ID:            c.LoanID,
			Borrower:      c.Borrower,
			Agent:         c.Agent,
			AgentID:       c.AgentID,
			Amount:        money(c.Amount),
			DaysPastDue:   c.DaysPastDue,
			LastContact:   c.LastContact,
			LoanID:        c.LoanID,
			BorrowerPhone: c.BorrowerPhone,
			DueDate:       c.DueDate.Format(time.DateOnly),
		}
	}
	return resp
}

type CollectionFilterResponse struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	AgentID   string `json:"agentId,omitempty"`
}

type CollectionRecordResponse struct {
	AgentID           string                   `json:"agentId"`
	AgentName         string                   `json:"agentName"`
	Status            string                   `json:"status"`
	TotalCollections  string                   `json:"totalCollections"`
	TodayCollections  string                   `json:"todayCollections"`
	MonthCollections  string                   `json:"monthCollections"`
	TotalPayments     int64                    `json:"totalPayments"`
	TodayPayments     int64                    `json:"todayPayments"`
	MonthPayments     int64                    `json:"monthPayments"`
	AssignedBorrowers int64                    `json:"assignedBorrowers"`
	RecentPayments    []PaymentResponse        `json:"recentPayments"`
	Filter            CollectionFilterResponse `json:"filter"`
}

func NewCollectionResponse(records []report.CollectionRecord) []CollectionRecordResponse {
	resp := make([]CollectionRecordResponse, len(records))
	for i, r := range records {
		resp[i] = CollectionRecordResponse{
			AgentID:           r.AgentID,
			AgentName:         r.AgentName,
			Status:            r.Status,
			TotalCollections:  money(r.TotalCollections),
			TodayCollections:  money(r.TodayCollections),
			MonthCollections:  money(r.MonthCollections),
			TotalPayments:     r.TotalPayments,
			TodayPayments:     r.TodayPayments,
			MonthPayments:     r.MonthPayments,
			AssignedBorrowers: r.AssignedBorrowers,
			RecentPayments:    NewPaymentResponses(r.RecentPayments),
			Filter: CollectionFilterResponse{
				StartDate: r.Filter.StartDate,
				EndDate:   r.Filter.EndDate,
				AgentID:   r.Filter.AgentID,
			},
		}
	}
	return resp
}

type TrendPointResponse struct {
	Date        string `json:"date"`
	Collections string `json:"collections"`
	Loans       int64  `json:"loans"`
	Borrowers   int64  `json:"borrowers"`
}

func NewTrendResponse(points []report.TrendPoint) []TrendPointResponse {
	resp := make([]TrendPointResponse, len(points))
	for i, p := range points {
		resp[i] = TrendPointResponse{
			Date:        p.Date,
			Collections: money(p.Collections),
			Loans:       p.Loans,
			Borrowers:   p.Borrowers,
		}
	}
	return resp
}

type RootResponse struct {
	Status  string   `json:"status"`
	Service string   `json:"service"`
	Routes  []string `json:"routes"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}
