package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	reportdomain "github.com/smallbiznis/corpsledger/internal/report/domain"
)

func (s *Server) GetReport(c *gin.Context) {
	report, err := s.reportSvc.Build(c.Request.Context(), c.Param("email"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": report})
}

func (s *Server) SendReport(c *gin.Context) {
	if err := s.reportSvc.Send(c.Request.Context(), c.Param("email")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (s *Server) SendAllReports(c *gin.Context) {
	result := s.reportSvc.SendAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (s *Server) DownloadStatement(c *gin.Context) {
	statement, err := s.reportSvc.Statement(c.Request.Context(), c.Param("email"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	writeStatement(c, statement)
}

func writeStatement(c *gin.Context, statement reportdomain.Statement) {
	c.Header("Content-Disposition", `attachment; filename="`+statement.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", statement.Content)
}
