package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/corpsledger/internal/calendar"
	reconciledomain "github.com/smallbiznis/corpsledger/internal/reconcile/domain"
)

// PreviewMissingFees lists the fees a reconcile run would book, for one member or everyone.
func (s *Server) PreviewMissingFees(c *gin.Context) {
	asOf, err := parseOptionalDate(c.Query("as_of"), s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var candidates []reconciledomain.Candidate
	if email := strings.TrimSpace(c.Query("email")); email != "" {
		candidates, err = s.reconcileSvc.Preview(c.Request.Context(), email, asOf)
	} else {
		candidates, err = s.reconcileSvc.PreviewAll(c.Request.Context(), asOf)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if candidates == nil {
		candidates = []reconciledomain.Candidate{}
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"as_of":      calendar.FormatISO(asOf),
		"candidates": candidates,
	}})
}

type runReconcileRequest struct {
	Email string `json:"email"`
	AsOf  string `json:"as_of"`
}

func (s *Server) RunReconcile(c *gin.Context) {
	var req runReconcileRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}
	asOf, err := parseOptionalDate(req.AsOf, s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if email := strings.TrimSpace(req.Email); email != "" {
		summary, err := s.reconcileSvc.ReconcileMember(c.Request.Context(), email, asOf, actor(c))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": summary})
		return
	}

	result := s.reconcileSvc.ReconcileAll(c.Request.Context(), asOf, actor(c))
	c.JSON(http.StatusOK, gin.H{"data": result})
}

type saveMissingPaymentsRequest struct {
	Rows []reconciledomain.PaymentRow `json:"rows"`
}

func (s *Server) SaveMissingPayments(c *gin.Context) {
	var req saveMissingPaymentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result := s.reconcileSvc.SaveMissingPayments(c.Request.Context(), req.Rows, actor(c))
	c.JSON(http.StatusOK, gin.H{"data": result})
}
