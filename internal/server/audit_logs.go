package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/corpsledger/internal/audit/domain"
)

const auditKindTransactions = "transactions"

// ListAuditLogs returns a member's change history. The kind query selects
// title, residency or transactions; without it every kind is returned.
func (s *Server) ListAuditLogs(c *gin.Context) {
	ctx := c.Request.Context()
	email := c.Param("email")
	kind := strings.ToLower(strings.TrimSpace(c.Query("kind")))

	resp := gin.H{}
	if kind == "" || kind == string(auditdomain.KindTitle) {
		rows, err := s.auditSvc.ListAttributeChanges(ctx, email, auditdomain.KindTitle)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		resp["title"] = rows
	}
	if kind == "" || kind == string(auditdomain.KindResidency) {
		rows, err := s.auditSvc.ListAttributeChanges(ctx, email, auditdomain.KindResidency)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		resp["residency"] = rows
	}
	if kind == "" || kind == auditKindTransactions {
		rows, err := s.auditSvc.ListTransactionChanges(ctx, email)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		resp[auditKindTransactions] = rows
	}
	if len(resp) == 0 {
		AbortWithError(c, auditdomain.ErrInvalidKind)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
