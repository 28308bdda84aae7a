package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	txdomain "github.com/smallbiznis/corpsledger/internal/transaction/domain"
	"github.com/smallbiznis/corpsledger/pkg/db/pagination"
)

// GetMyAccount is the member dashboard: profile, title, residency and balance.
func (s *Server) GetMyAccount(c *gin.Context) {
	m, err := s.memberSvc.LoadMember(c.Request.Context(), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": newMemberView(m, s.clock.Now(), false)})
}

func (s *Server) ListMyTransactions(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.transactionSvc.ListByMemberPage(c.Request.Context(), txdomain.ListRequest{
		Pagination:  query,
		MemberEmail: actor(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetMyReport(c *gin.Context) {
	report, err := s.reportSvc.Build(c.Request.Context(), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) DownloadMyStatement(c *gin.Context) {
	statement, err := s.reportSvc.Statement(c.Request.Context(), actor(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeStatement(c, statement)
}
