package server

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/corpsledger/internal/calendar"
)

func (s *Server) ExportLedger(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.store.Export(c.Request.Context(), &buf); err != nil {
		AbortWithError(c, err)
		return
	}

	filename := "corpsledger-" + calendar.FormatISO(s.clock.Now()) + ".json"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
}

func (s *Server) ImportLedger(c *gin.Context) {
	result, err := s.store.Import(c.Request.Context(), c.Request.Body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
