package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	beveragedomain "github.com/smallbiznis/corpsledger/internal/beverage/domain"
	"github.com/smallbiznis/corpsledger/internal/calendar"
)

type createBeverageReportRequest struct {
	ReportDate string                       `json:"report_date"`
	Members    map[string]map[string]int    `json:"members"`
	Events     []beveragedomain.EventCounts `json:"events"`
}

type beverageReportView struct {
	*beveragedomain.Report
	MemberTotals []beveragedomain.Total `json:"member_totals"`
	EventTotals  []beveragedomain.Total `json:"event_totals"`
}

func newBeverageReportView(r *beveragedomain.Report) beverageReportView {
	return beverageReportView{
		Report:       r,
		MemberTotals: beveragedomain.MemberTotals(r),
		EventTotals:  beveragedomain.EventTotals(r),
	}
}

func (s *Server) GetAssortment(c *gin.Context) {
	prices, err := s.beverageSvc.Assortment()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": prices})
}

func (s *Server) CreateBeverageReport(c *gin.Context) {
	var req createBeverageReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	reportDate, err := calendar.ParseISO(req.ReportDate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.beverageSvc.CreateReport(c.Request.Context(), beveragedomain.CreateReportRequest{
		ReportDate: reportDate,
		Members:    req.Members,
		Events:     req.Events,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": newBeverageReportView(report)})
}

func (s *Server) ListBeverageReports(c *gin.Context) {
	reports, err := s.beverageSvc.ListReports(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": reports})
}

func (s *Server) GetBeverageReport(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	report, err := s.beverageSvc.GetReport(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newBeverageReportView(report)})
}

func (s *Server) BillBeverageReport(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.beverageSvc.Bill(c.Request.Context(), id, actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
