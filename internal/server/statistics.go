package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetDebtTrend(c *gin.Context) {
	asOf, err := parseOptionalDate(c.Query("as_of"), s.clock.Now())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	points, err := s.statisticsSvc.DebtTrend(c.Request.Context(), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": points})
}

// GetDebtors takes the reference date as dd.mm.yyyy; anything unparseable means the 1st of this month.
func (s *Server) GetDebtors(c *gin.Context) {
	report, err := s.statisticsSvc.Debtors(c.Request.Context(), c.Query("reference"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}
